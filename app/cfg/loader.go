package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/rss.db" description:"Path to the SQLite database file"`

	// Application configuration
	Port            string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey    string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	RefreshInterval int    `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"1800" description:"Feed refresh interval in seconds"`
	FeedsFile       string `long:"feeds-file" env:"FEEDS_FILE" default:"./feeds.yml" description:"YAML file with feeds to register at startup"`
	OPMLFile        string `long:"opml-file" env:"OPML_FILE" description:"OPML file to import at startup (optional)"`

	// Model service configuration
	OllamaURL   string `long:"ollama-url" env:"OLLAMA_URL" default:"http://localhost:11434" description:"Base URL of the Ollama model service"`
	OllamaModel string `long:"ollama-model" env:"OLLAMA_MODEL" default:"mistral" description:"Default model name for enrichment"`
	LLMTimeout  int    `long:"llm-timeout" env:"LLM_TIMEOUT" default:"30" description:"Model request timeout in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Reader/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses configuration from command-line flags and environment
// variables. It returns (nil, nil) when help output was requested.
func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:          raw.DBPath,
		Port:            raw.Port,
		APIAccessKey:    raw.APIAccessKey,
		RefreshInterval: raw.RefreshInterval,
		FeedsFile:       raw.FeedsFile,
		OPMLFile:        raw.OPMLFile,
		OllamaURL:       raw.OllamaURL,
		OllamaModel:     raw.OllamaModel,
		LLMTimeout:      raw.LLMTimeout,
		UserAgent:       raw.UserAgent,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	return cfg, nil
}
