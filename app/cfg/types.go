package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	Port            string
	APIAccessKey    string
	RefreshInterval int
	FeedsFile       string
	OPMLFile        string

	// Model service configuration
	OllamaURL   string
	OllamaModel string
	LLMTimeout  int

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
