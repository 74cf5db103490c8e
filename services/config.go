package services

import (
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	AI        AIConfig
	JWT       JWTConfig
	WebSocket WebSocketConfig
	Storage   StorageConfig
	Events    EventsConfig
	Exam      ExamConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type DatabaseConfig struct {
	URL          string
	Seed         bool
	LogLevel     string
	MaxIdleConns int
	MaxOpenConns int
}

type AIConfig struct {
	GeminiAPIKey  string
	GeminiModel   string
	ElevenLabsKey string
	VoiceGender   string
	AudioCacheDir string
}

type JWTConfig struct {
	Secret     string
	ExamKeyTTL time.Duration
}

type WebSocketConfig struct {
	AllowedOrigins string
	InterviewLimit time.Duration
	IdleTimeout    time.Duration
}

// StorageConfig points at an S3 compatible bucket (AWS S3 or Cloudflare R2) for uploaded resumes
type StorageConfig struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	PublicURL string
}

func (c StorageConfig) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

type ExamConfig struct {
	ViolationThreshold int
}

func (c ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig loads configuration from environment variables and config files
func LoadConfig() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("websocket.allowed_origins", "")
	viper.SetDefault("websocket.interview_limit", "15m")
	viper.SetDefault("websocket.idle_timeout", "5m")
	viper.SetDefault("gemini.api_key", "")
	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("elevenlabs.api_key", "")
	viper.SetDefault("elevenlabs.voice_gender", "")
	viper.SetDefault("elevenlabs.cache_dir", "./audio_cache")
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("jwt.exam_key_ttl", "2h")
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.seed", "false")
	viper.SetDefault("database.log_level", "silent")
	viper.SetDefault("database.max_idle_conns", "10")
	viper.SetDefault("database.max_open_conns", "100")
	viper.SetDefault("storage.region", "auto")
	viper.SetDefault("events.exchange", "placeprep.events")
	viper.SetDefault("exam.violation_threshold", "3")

	// Map environment variables to config keys
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.environment", "ENVIRONMENT")
	viper.BindEnv("websocket.allowed_origins", "WEBSOCKET_ALLOWED_ORIGINS")
	viper.BindEnv("websocket.interview_limit", "WEBSOCKET_INTERVIEW_LIMIT")
	viper.BindEnv("websocket.idle_timeout", "WEBSOCKET_IDLE_TIMEOUT")
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY", "GOOGLE_GENAI_API_KEY")
	viper.BindEnv("gemini.model", "GEMINI_MODEL")
	viper.BindEnv("elevenlabs.api_key", "ELEVENLABS_API_KEY")
	viper.BindEnv("elevenlabs.voice_gender", "ELEVENLABS_VOICE_GENDER")
	viper.BindEnv("elevenlabs.cache_dir", "AUDIO_CACHE_DIR")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.exam_key_ttl", "EXAM_KEY_TTL")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.seed", "DATABASE_SEED")
	viper.BindEnv("database.log_level", "DATABASE_LOG_LEVEL")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	viper.BindEnv("storage.bucket", "STORAGE_BUCKET")
	viper.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	viper.BindEnv("storage.region", "STORAGE_REGION")
	viper.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	viper.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	viper.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")
	viper.BindEnv("events.amqp_url", "AMQP_URL")
	viper.BindEnv("events.exchange", "AMQP_EXCHANGE")
	viper.BindEnv("exam.violation_threshold", "EXAM_VIOLATION_THRESHOLD")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("Config file not found, using defaults and environment variables")
		} else {
			slog.Error("Error reading config file", "error", err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:        viper.GetString("server.port"),
			Environment: viper.GetString("server.environment"),
		},
		Database: DatabaseConfig{
			URL:          viper.GetString("database.url"),
			Seed:         viper.GetBool("database.seed"),
			LogLevel:     viper.GetString("database.log_level"),
			MaxIdleConns: viper.GetInt("database.max_idle_conns"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
		},
		AI: AIConfig{
			GeminiAPIKey:  viper.GetString("gemini.api_key"),
			GeminiModel:   viper.GetString("gemini.model"),
			ElevenLabsKey: viper.GetString("elevenlabs.api_key"),
			VoiceGender:   viper.GetString("elevenlabs.voice_gender"),
			AudioCacheDir: viper.GetString("elevenlabs.cache_dir"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			ExamKeyTTL: viper.GetDuration("jwt.exam_key_ttl"),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: viper.GetString("websocket.allowed_origins"),
			InterviewLimit: viper.GetDuration("websocket.interview_limit"),
			IdleTimeout:    viper.GetDuration("websocket.idle_timeout"),
		},
		Storage: StorageConfig{
			Bucket:    viper.GetString("storage.bucket"),
			Endpoint:  viper.GetString("storage.endpoint"),
			Region:    viper.GetString("storage.region"),
			AccessKey: viper.GetString("storage.access_key"),
			SecretKey: viper.GetString("storage.secret_key"),
			PublicURL: viper.GetString("storage.public_url"),
		},
		Events: EventsConfig{
			AMQPURL:  viper.GetString("events.amqp_url"),
			Exchange: viper.GetString("events.exchange"),
		},
		Exam: ExamConfig{
			ViolationThreshold: viper.GetInt("exam.violation_threshold"),
		},
	}
}
