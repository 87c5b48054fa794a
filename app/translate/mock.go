package translate

import (
	"context"
	"fmt"
)

type MockTranslator struct{}

func NewMockTranslator() *MockTranslator {
	return &MockTranslator{}
}

func (m *MockTranslator) Name() string {
	return "mock"
}

func (m *MockTranslator) Translate(ctx context.Context, text, reference string) (string, error) {
	return fmt.Sprintf("[සිංහල පරිවර්තනය: %s]", text), nil
}
