package cfg

type Cfg struct {
	// Storage
	DBPath     string
	SourcesDir string

	// Application configuration
	Port           string
	APIAccessKey   string
	WorkerCount    int
	IngestInterval int // seconds, 0 disables periodic ingestion

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string

	// Sources
	NewsAPIKey string

	// Generation
	GenerationProvider    string
	OpenAIAPIKey          string
	OpenAIModel           string
	OpenAIBaseURL         string
	GeminiAPIKey          string
	GeminiModel           string
	GeminiGenerationModel string
	GeminiBaseURL         string
	MockAI                bool

	// Translation
	LibreTranslateURL    string
	LibreTranslateAPIKey string
	MyMemoryURL          string
	TranslateSourceLang  string
	TranslateTargetLang  string

	// Extraction and quality thresholds
	FetchTimeout          int // seconds
	ExtractMinLength      int
	ExtractMaxLength      int
	ExtractNoReadability  bool
	GateMinArticleLength  int
	GateReplaceRatio      float64
	GateIndicatorLength   int
	GateFallbackMinLength int
	QualityMinContent     int
}
