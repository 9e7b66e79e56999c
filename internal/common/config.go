package common

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig holds database-related configuration.
// DSN is either a postgres:// URL or a SQLite file path.
type DatabaseConfig struct {
	DSN              string        `mapstructure:"dsn"`
	MaxConns         int32         `mapstructure:"max_conns"`
	MinConns         int32         `mapstructure:"min_conns"`
	MaxConnLifetime  time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `mapstructure:"max_conn_idle_time"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	AutoMigrate      bool          `mapstructure:"auto_migrate"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	FrontendDir     string        `mapstructure:"frontend_dir"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftoppm    string `mapstructure:"pdftoppm"`
	Tesseract   string `mapstructure:"tesseract"`
	Lang        string `mapstructure:"lang"`
	DPI         int    `mapstructure:"dpi"`
	MaxPages    int    `mapstructure:"max_pages"`
	TessdataDir string `mapstructure:"tessdata_dir"`
	Workers     int    `mapstructure:"workers"`
	QueueSize   int    `mapstructure:"queue_size"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openrouter | eino
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Referer     string        `mapstructure:"referer"`
	Title       string        `mapstructure:"title"`
}

// AuthConfig holds OAuth and session token configuration.
type AuthConfig struct {
	GoogleClientID     string        `mapstructure:"google_client_id"`
	GoogleClientSecret string        `mapstructure:"google_client_secret"`
	GoogleRedirectURL  string        `mapstructure:"google_redirect_url"`
	JWTSecret          string        `mapstructure:"jwt_secret"`
	JWTTTL             time.Duration `mapstructure:"jwt_ttl"`
	SessionSecret      string        `mapstructure:"session_secret"`
	StateTTL           time.Duration `mapstructure:"state_ttl"`
	PostLoginRedirect  string        `mapstructure:"post_login_redirect"`
}

// RedisConfig is optional; an empty Addr keeps OAuth state in memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PipelineConfig bounds a single upload request.
type PipelineConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | text
}

// env names kept from the deployed service; everything else follows KEY_PATH naming.
var envAliases = map[string][]string{
	"database.dsn":              {"DB_URL", "DATABASE_URL"},
	"server.grpc_addr":          {"GRPC_ADDR"},
	"server.http_addr":          {"HTTP_ADDR"},
	"server.frontend_dir":       {"FRONTEND_DIR"},
	"server.max_upload_bytes":   {"MAX_UPLOAD_BYTES"},
	"ocr.tessdata_dir":          {"TESSDATA_PREFIX"},
	"llm.api_key":               {"OPENROUTER_API_KEY", "LLM_API_KEY"},
	"llm.provider":              {"LLM_PROVIDER"},
	"llm.model":                 {"LLM_MODEL"},
	"auth.google_client_id":     {"GOOGLE_CLIENT_ID"},
	"auth.google_client_secret": {"GOOGLE_CLIENT_SECRET"},
	"auth.google_redirect_url":  {"GOOGLE_REDIRECT_URL"},
	"auth.jwt_secret":           {"APP_JWT_SECRET"},
	"auth.session_secret":       {"SECRET_KEY"},
	"redis.addr":                {"REDIS_ADDR"},
	"log.level":                 {"LOG_LEVEL"},
	"log.format":                {"LOG_FORMAT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.dsn", "syncora.db")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("database.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("database.dial_timeout", 3*time.Second)
	v.SetDefault("database.statement_timeout", time.Duration(0))
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("server.http_addr", ":8000")
	v.SetDefault("server.grpc_addr", ":8081")
	v.SetDefault("server.frontend_dir", "./frontend")
	v.SetDefault("server.max_upload_bytes", int64(20<<20))
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.lang", "eng")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.max_pages", 0)
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.workers", runtime.NumCPU())
	v.SetDefault("ocr.queue_size", 64)

	v.SetDefault("llm.provider", "openrouter")
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.model", "google/gemma-3-27b-it")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.referer", "")
	v.SetDefault("llm.title", "Syncora")

	v.SetDefault("auth.google_client_id", "")
	v.SetDefault("auth.google_client_secret", "")
	v.SetDefault("auth.google_redirect_url", "http://localhost:8000/auth/google/callback")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_ttl", 24*time.Hour)
	v.SetDefault("auth.session_secret", "")
	v.SetDefault("auth.state_ttl", 10*time.Minute)
	v.SetDefault("auth.post_login_redirect", "/frontend/index.html")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("pipeline.request_timeout", 90*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads defaults, an optional config.yaml (./ or ./config) and the environment.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, NewAppError("CONFIG_ERROR", "failed to read config file", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key, strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)...); err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("bind env for %s", key), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "failed to decode config", err)
	}
	return &cfg, nil
}

// handlerSlack is how long a handler may keep running past the pipeline deadline
// (persisting and writing the response).
const handlerSlack = 30 * time.Second

// HandlerTimeout bounds one HTTP handler.
func (c *Config) HandlerTimeout() time.Duration {
	return c.Pipeline.RequestTimeout + handlerSlack
}

// WriteTimeout is the configured server write timeout, raised when needed so the
// connection outlives the handler timeout.
func (c *Config) WriteTimeout() time.Duration {
	if floor := c.HandlerTimeout() + 5*time.Second; c.Server.WriteTimeout < floor {
		return floor
	}
	return c.Server.WriteTimeout
}

// Validate validates the loaded configuration for serving traffic.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENROUTER_API_KEY is required", ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case "openrouter", "eino":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLM.Provider), ErrInvalidInput)
	}
	if c.Auth.JWTSecret == "" {
		return NewAppError("CONFIG_ERROR", "APP_JWT_SECRET is required", ErrInvalidInput)
	}
	if c.Auth.SessionSecret == "" {
		return NewAppError("CONFIG_ERROR", "SECRET_KEY not set", ErrInvalidInput)
	}
	if c.Auth.GoogleClientID == "" || c.Auth.GoogleClientSecret == "" {
		return NewAppError("CONFIG_ERROR", "GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required", ErrInvalidInput)
	}
	if c.Pipeline.RequestTimeout <= 0 {
		return NewAppError("CONFIG_ERROR", "pipeline request timeout must be positive", ErrInvalidInput)
	}
	return nil
}
