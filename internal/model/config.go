package model

import "time"

// Config is the complete Veritas configuration. Every tuning constant that
// came out of observed provider behavior lives here rather than in code.
type Config struct {
	Models     ModelsConfig     `yaml:"models" mapstructure:"models"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Transcript TranscriptConfig `yaml:"transcript" mapstructure:"transcript"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Verify     VerifyConfig     `yaml:"verify" mapstructure:"verify"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
}

// ModelsConfig configures the text-generation and speech-to-text provider
type ModelsConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Heavy handles claim extraction and manipulation analysis; Light
	// handles per-claim verification and summaries. The split spreads token
	// consumption across independent per-model rate-limit budgets.
	Heavy  string `yaml:"heavy" mapstructure:"heavy"`
	Light  string `yaml:"light" mapstructure:"light"`
	Speech string `yaml:"speech" mapstructure:"speech"`

	MaxRetries      int           `yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelay       time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
	DefaultCooldown time.Duration `yaml:"default_cooldown" mapstructure:"default_cooldown"`
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SearchConfig configures the web-search provider
type SearchConfig struct {
	APIKey          string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL         string        `yaml:"base_url" mapstructure:"base_url"`
	Depth           string        `yaml:"depth" mapstructure:"depth"`
	MaxResults      int           `yaml:"max_results" mapstructure:"max_results"`
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`
	DefaultCooldown time.Duration `yaml:"default_cooldown" mapstructure:"default_cooldown"`
}

// TranscriptConfig configures the acquisition chain
type TranscriptConfig struct {
	CaptionsBaseURL  string        `yaml:"captions_base_url" mapstructure:"captions_base_url"`
	UserAgent        string        `yaml:"user_agent" mapstructure:"user_agent"`
	StrategyTimeout  time.Duration `yaml:"strategy_timeout" mapstructure:"strategy_timeout"`
	// AudioTimeout bounds the audio strategy separately; downloading and
	// transcribing audio takes far longer than a caption fetch
	AudioTimeout time.Duration `yaml:"audio_timeout" mapstructure:"audio_timeout"`
	MetadataMinChars int           `yaml:"metadata_min_chars" mapstructure:"metadata_min_chars"`
	AudioMaxBytes    int64         `yaml:"audio_max_bytes" mapstructure:"audio_max_bytes"`
	TempDir          string        `yaml:"temp_dir" mapstructure:"temp_dir"`
	YtdlpPath        string        `yaml:"ytdlp_path" mapstructure:"ytdlp_path"`
	RespectRobots    bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	SpeechCooldown   time.Duration `yaml:"speech_cooldown" mapstructure:"speech_cooldown"`

	// HTTPProxy/HTTPSProxy route page and caption fetches through a proxy.
	// Empty values defer to the standard proxy environment variables.
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// ExtractionConfig configures claim extraction
type ExtractionConfig struct {
	MaxClaims int `yaml:"max_claims" mapstructure:"max_claims"`
	// MinClaims is the threshold below which the relaxed second pass runs
	// when the source text is substantial
	MinClaims        int `yaml:"min_claims" mapstructure:"min_claims"`
	SubstantialChars int `yaml:"substantial_chars" mapstructure:"substantial_chars"`
	MaxQueryChars    int `yaml:"max_query_chars" mapstructure:"max_query_chars"`
}

// VerifyConfig configures the verification engine
type VerifyConfig struct {
	Concurrency            int           `yaml:"concurrency" mapstructure:"concurrency"`
	Delay                  time.Duration `yaml:"delay" mapstructure:"delay"`
	ModelOnlyMaxConfidence float64       `yaml:"model_only_max_confidence" mapstructure:"model_only_max_confidence"`
	TopResults             int           `yaml:"top_results" mapstructure:"top_results"`
}

// CacheConfig configures the per-video report cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ServerConfig configures the HTTP serving mode
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DefaultConfig returns the configuration defaults
func DefaultConfig() *Config {
	return &Config{
		Models: ModelsConfig{
			BaseURL:         "https://api.groq.com/openai/v1",
			Heavy:           "llama-3.3-70b-versatile",
			Light:           "llama-3.1-8b-instant",
			Speech:          "whisper-large-v3-turbo",
			MaxRetries:      5,
			BaseDelay:       2 * time.Second,
			DefaultCooldown: 30 * time.Minute,
			Timeout:         90 * time.Second,
		},
		Search: SearchConfig{
			BaseURL:         "https://api.tavily.com",
			Depth:           "basic",
			MaxResults:      5,
			Timeout:         20 * time.Second,
			DefaultCooldown: 15 * time.Minute,
		},
		Transcript: TranscriptConfig{
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			StrategyTimeout:  45 * time.Second,
			AudioTimeout:     5 * time.Minute,
			MetadataMinChars: 200,
			AudioMaxBytes:    25 * 1024 * 1024,
			YtdlpPath:        "yt-dlp",
			SpeechCooldown:   20 * time.Minute,
		},
		Extraction: ExtractionConfig{
			MaxClaims:        10,
			MinClaims:        3,
			SubstantialChars: 1500,
			MaxQueryChars:    280,
		},
		Verify: VerifyConfig{
			Concurrency:            1,
			Delay:                  time.Second,
			ModelOnlyMaxConfidence: 0.75,
			TopResults:             3,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
