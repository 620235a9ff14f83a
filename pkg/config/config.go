package config

// Config is the tutor configuration stored in config.yaml.
type Config struct {
	DefaultDeck     string       `yaml:"default_deck"     env:"TUTOR_DEFAULT_DECK"`
	DefaultLanguage string       `yaml:"default_language" env:"TUTOR_DEFAULT_LANGUAGE" env-default:"mandarin"`
	LearnerLevel    string       `yaml:"learner_level"    env:"TUTOR_LEARNER_LEVEL"    env-default:"intermediate"`
	AnkiConnectURL  string       `yaml:"anki_connect_url" env:"ANKI_CONNECT_URL"       env-default:"http://localhost:8765"`
	HistoryPath     string       `yaml:"history_path"     env:"TUTOR_HISTORY_PATH"`
	TopicsPath      string       `yaml:"topics_path"      env:"TUTOR_TOPICS_PATH"`
	LLM             LLMConfig    `yaml:"llm"`
	Speech          SpeechConfig `yaml:"speech"`
	Web             WebConfig    `yaml:"web"`
	Log             LogConfig    `yaml:"log"`
}

// LLMConfig selects and configures the language model provider.
type LLMConfig struct {
	Provider  string `yaml:"provider"   env:"TUTOR_LLM_PROVIDER"   env-default:"anthropic"`
	Model     string `yaml:"model"      env:"TUTOR_LLM_MODEL"`
	APIKey    string `yaml:"api_key"    env:"ANTHROPIC_API_KEY"`
	OllamaURL string `yaml:"ollama_url" env:"OLLAMA_URL"           env-default:"http://localhost:11434"`
	Seed      int    `yaml:"seed"       env:"TUTOR_LLM_SEED"       env-default:"69"`
	MaxTokens int64  `yaml:"max_tokens" env:"TUTOR_LLM_MAX_TOKENS" env-default:"4096"`
}

// SpeechConfig holds Azure text-to-speech settings.
type SpeechConfig struct {
	Key      string `yaml:"key"       env:"AZURE_SPEECH_SERVICE_KEY"`
	Region   string `yaml:"region"    env:"AZURE_SPEECH_SERVICE_REGION"`
	MediaDir string `yaml:"media_dir" env:"TUTOR_MEDIA_DIR"`
}

// WebConfig holds the practice server settings.
type WebConfig struct {
	Addr           string   `yaml:"addr"            env:"TUTOR_WEB_ADDR"            env-default:"127.0.0.1:5000"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"TUTOR_WEB_ALLOWED_ORIGINS" env-default:"http://localhost:*,http://127.0.0.1:*"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}
