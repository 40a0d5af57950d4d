package services

import (
	"log/slog"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	AI       AIConfig
	Storage  StorageConfig
	Queue    QueueConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL          string
	Seed         bool
	MaxIdleConns int
	MaxOpenConns int
}

type AIConfig struct {
	AssemblyAIKey  string
	AssemblyAIURL  string
	GeminiAPIKey   string
	AnalysisModel  string
	TrainingModel  string
	PollIntervalMS int
}

type StorageConfig struct {
	MediaRoot string
}

type QueueConfig struct {
	URL     string
	Subject string
}

// LoadConfig loads configuration from environment variables and config files
func LoadConfig() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.seed", "true")
	viper.SetDefault("database.max_idle_conns", "10")
	viper.SetDefault("database.max_open_conns", "100")
	viper.SetDefault("assemblyai.api_key", "")
	viper.SetDefault("assemblyai.base_url", "https://api.assemblyai.com")
	viper.SetDefault("gemini.api_key", "")
	viper.SetDefault("gemini.analysis_model", "gemini-2.0-flash")
	viper.SetDefault("gemini.training_model", "gemini-2.0-flash")
	viper.SetDefault("assemblyai.poll_interval_ms", "1500")
	viper.SetDefault("storage.media_root", "./media")
	viper.SetDefault("queue.url", "")
	viper.SetDefault("queue.subject", "recordings.uploaded")

	// Map environment variables to config keys
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.seed", "DATABASE_SEED")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	viper.BindEnv("assemblyai.api_key", "ASSEMBLY_AI_API_KEY")
	viper.BindEnv("assemblyai.base_url", "ASSEMBLY_AI_BASE_URL")
	viper.BindEnv("assemblyai.poll_interval_ms", "ASSEMBLY_AI_POLL_INTERVAL_MS")
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	viper.BindEnv("gemini.analysis_model", "GEMINI_ANALYSIS_MODEL")
	viper.BindEnv("gemini.training_model", "GEMINI_TRAINING_MODEL")
	viper.BindEnv("storage.media_root", "MEDIA_ROOT")
	viper.BindEnv("queue.url", "QUEUE_URL")
	viper.BindEnv("queue.subject", "QUEUE_SUBJECT")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("Config file not found, using defaults and environment variables")
		} else {
			slog.Error("Error reading config file", "error", err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
		},
		Database: DatabaseConfig{
			URL:          viper.GetString("database.url"),
			Seed:         viper.GetBool("database.seed"),
			MaxIdleConns: viper.GetInt("database.max_idle_conns"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
		},
		AI: AIConfig{
			AssemblyAIKey:  viper.GetString("assemblyai.api_key"),
			AssemblyAIURL:  viper.GetString("assemblyai.base_url"),
			GeminiAPIKey:   viper.GetString("gemini.api_key"),
			AnalysisModel:  viper.GetString("gemini.analysis_model"),
			TrainingModel:  viper.GetString("gemini.training_model"),
			PollIntervalMS: viper.GetInt("assemblyai.poll_interval_ms"),
		},
		Storage: StorageConfig{
			MediaRoot: viper.GetString("storage.media_root"),
		},
		Queue: QueueConfig{
			URL:     viper.GetString("queue.url"),
			Subject: viper.GetString("queue.subject"),
		},
	}
}
