package errs

import "errors"

// Failure taxonomy shared by the pipeline packages. Wrap with
// fmt.Errorf("%w: ...", errs.ErrX) and test with errors.Is.
var (
	ErrTransport      = errors.New("transport failure")
	ErrUpstreamFormat = errors.New("upstream format failure")
	ErrQuality        = errors.New("quality failure")
	ErrConflict       = errors.New("conflict")
	ErrConfiguration  = errors.New("configuration failure")

	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Terminal reports whether err must be surfaced to the caller instead of
// demoting to the next fallback tier.
func Terminal(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrConfiguration)
}
