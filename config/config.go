package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where LoadConfig looks for the YAML file.
const DefaultConfigPath = "config/config.yaml"

// Config application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Redis     RedisConfig     `yaml:"redis"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Feed      FeedConfig      `yaml:"feed"`
	Captcha   CaptchaConfig   `yaml:"captcha"`
	Storage   StorageConfig   `yaml:"storage"`
	Push      PushConfig      `yaml:"push"`
	Email     EmailConfig     `yaml:"email"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	CORS      CORSConfig      `yaml:"cors"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig http server
type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// DatabaseConfig database connection
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql, postgres or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"` // database name, or file path for sqlite
	Charset  string `yaml:"charset"`
	SSLMode  string `yaml:"sslMode"` // postgres only
	MaxIdle  int    `yaml:"maxIdle"`
	MaxOpen  int    `yaml:"maxOpen"`
	LogSQL   bool   `yaml:"logSQL"`
}

// JWTConfig access token settings
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	ExpireTime time.Duration `yaml:"expireTime"`
	Issuer     string        `yaml:"issuer"`
}

// LogConfig zap + lumberjack
type LogConfig struct {
	Level      string `yaml:"level"`
	Filename   string `yaml:"filename"`
	MaxSize    int    `yaml:"maxSize"` // MB
	MaxBackups int    `yaml:"maxBackups"`
	MaxAge     int    `yaml:"maxAge"` // days
	Compress   bool   `yaml:"compress"`
}

// RedisConfig redis connection
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// WebSocketConfig heartbeat settings
type WebSocketConfig struct {
	PingInterval time.Duration `yaml:"pingInterval"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
}

// FeedConfig page sizes for the feed assembler
type FeedConfig struct {
	DefaultPageSize int           `yaml:"defaultPageSize"`
	MaxPageSize     int           `yaml:"maxPageSize"`
	FriendCacheTTL  time.Duration `yaml:"friendCacheTTL"`
}

// CaptchaConfig reCAPTCHA verification
type CaptchaConfig struct {
	Secret    string        `yaml:"secret"`
	VerifyURL string        `yaml:"verifyURL"`
	MinScore  float64       `yaml:"minScore"`
	Timeout   time.Duration `yaml:"timeout"`
}

// StorageConfig local object storage for uploads
type StorageConfig struct {
	Dir         string `yaml:"dir"`
	BaseURL     string `yaml:"baseURL"`
	MaxUploadMB int    `yaml:"maxUploadMB"`
}

// PushConfig firebase cloud messaging
type PushConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentialsFile"`
	Workers         int    `yaml:"workers"`
	QueueSize       int    `yaml:"queueSize"`
}

// EmailConfig notification email
type EmailConfig struct {
	Enabled bool   `yaml:"enabled"`
	From    string `yaml:"from"`
}

// RateLimitConfig per-IP token bucket
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// CORSConfig allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// MetricsConfig prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoadConfig loads .env, then the YAML file, then applies environment overrides.
func LoadConfig() *Config {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	config := loadFromYAML(getEnv("CONFIG_FILE", DefaultConfigPath))
	overrideWithEnvVars(config)
	return config
}

// loadFromYAML falls back to defaults when the file is missing or broken.
func loadFromYAML(filePath string) *Config {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return getDefaultConfig()
	}

	config := getDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return getDefaultConfig()
	}

	return config
}

// overrideWithEnvVars environment variables win over the file
func overrideWithEnvVars(config *Config) {
	// server
	if port := getEnv("SERVER_PORT", ""); port != "" {
		config.Server.Port = port
	}
	if timeout := getEnvDuration("SERVER_READ_TIMEOUT", 0); timeout > 0 {
		config.Server.ReadTimeout = timeout
	}
	if timeout := getEnvDuration("SERVER_WRITE_TIMEOUT", 0); timeout > 0 {
		config.Server.WriteTimeout = timeout
	}
	if timeout := getEnvDuration("SERVER_IDLE_TIMEOUT", 0); timeout > 0 {
		config.Server.IdleTimeout = timeout
	}

	// database
	if driver := getEnv("DB_DRIVER", ""); driver != "" {
		config.Database.Driver = driver
	}
	if host := getEnv("DB_HOST", ""); host != "" {
		config.Database.Host = host
	}
	if port := getEnvInt("DB_PORT", 0); port > 0 {
		config.Database.Port = port
	}
	if username := getEnv("DB_USERNAME", ""); username != "" {
		config.Database.Username = username
	}
	if password := getEnv("DB_PASSWORD", ""); password != "" {
		config.Database.Password = password
	}
	if database := getEnv("DB_DATABASE", ""); database != "" {
		config.Database.Database = database
	}
	if charset := getEnv("DB_CHARSET", ""); charset != "" {
		config.Database.Charset = charset
	}
	if sslMode := getEnv("DB_SSLMODE", ""); sslMode != "" {
		config.Database.SSLMode = sslMode
	}
	if maxIdle := getEnvInt("DB_MAX_IDLE", 0); maxIdle > 0 {
		config.Database.MaxIdle = maxIdle
	}
	if maxOpen := getEnvInt("DB_MAX_OPEN", 0); maxOpen > 0 {
		config.Database.MaxOpen = maxOpen
	}
	config.Database.LogSQL = getEnvBool("DB_LOG_SQL", config.Database.LogSQL)

	// jwt
	if secret := getEnv("JWT_SECRET", ""); secret != "" {
		config.JWT.Secret = secret
	}
	if expireTime := getEnvDuration("JWT_EXPIRE_TIME", 0); expireTime > 0 {
		config.JWT.ExpireTime = expireTime
	}
	if issuer := getEnv("JWT_ISSUER", ""); issuer != "" {
		config.JWT.Issuer = issuer
	}

	// log
	if level := getEnv("LOG_LEVEL", ""); level != "" {
		config.Log.Level = level
	}
	if filename := getEnv("LOG_FILENAME", ""); filename != "" {
		config.Log.Filename = filename
	}
	if maxSize := getEnvInt("LOG_MAX_SIZE", 0); maxSize > 0 {
		config.Log.MaxSize = maxSize
	}
	if maxBackups := getEnvInt("LOG_MAX_BACKUPS", 0); maxBackups > 0 {
		config.Log.MaxBackups = maxBackups
	}
	if maxAge := getEnvInt("LOG_MAX_AGE", 0); maxAge > 0 {
		config.Log.MaxAge = maxAge
	}

	// redis
	if host := getEnv("REDIS_HOST", ""); host != "" {
		config.Redis.Host = host
	}
	if port := getEnvInt("REDIS_PORT", 0); port > 0 {
		config.Redis.Port = port
	}
	if password := getEnv("REDIS_PASSWORD", ""); password != "" {
		config.Redis.Password = password
	}
	if db := getEnvInt("REDIS_DB", -1); db >= 0 {
		config.Redis.DB = db
	}
	config.Redis.Enabled = getEnvBool("REDIS_ENABLED", config.Redis.Enabled)

	// websocket
	if d := getEnvDuration("WS_PING_INTERVAL", 0); d > 0 {
		config.WebSocket.PingInterval = d
	}
	if d := getEnvDuration("WS_READ_TIMEOUT", 0); d > 0 {
		config.WebSocket.ReadTimeout = d
	}

	// feed
	if n := getEnvInt("FEED_PAGE_SIZE", 0); n > 0 {
		config.Feed.DefaultPageSize = n
	}
	if n := getEnvInt("FEED_MAX_PAGE_SIZE", 0); n > 0 {
		config.Feed.MaxPageSize = n
	}
	if d := getEnvDuration("FEED_FRIEND_CACHE_TTL", 0); d > 0 {
		config.Feed.FriendCacheTTL = d
	}

	// captcha
	if secret := getEnv("CAPTCHA_SECRET", ""); secret != "" {
		config.Captcha.Secret = secret
	}
	if url := getEnv("CAPTCHA_VERIFY_URL", ""); url != "" {
		config.Captcha.VerifyURL = url
	}
	if score := getEnvFloat("CAPTCHA_MIN_SCORE", -1); score >= 0 {
		config.Captcha.MinScore = score
	}

	// storage
	if dir := getEnv("STORAGE_DIR", ""); dir != "" {
		config.Storage.Dir = dir
	}
	if baseURL := getEnv("STORAGE_BASE_URL", ""); baseURL != "" {
		config.Storage.BaseURL = baseURL
	}
	if mb := getEnvInt("STORAGE_MAX_UPLOAD_MB", 0); mb > 0 {
		config.Storage.MaxUploadMB = mb
	}

	// push
	config.Push.Enabled = getEnvBool("PUSH_ENABLED", config.Push.Enabled)
	if file := getEnv("PUSH_CREDENTIALS_FILE", ""); file != "" {
		config.Push.CredentialsFile = file
	}
	if n := getEnvInt("PUSH_WORKERS", 0); n > 0 {
		config.Push.Workers = n
	}

	// email
	config.Email.Enabled = getEnvBool("EMAIL_ENABLED", config.Email.Enabled)
	if from := getEnv("EMAIL_FROM", ""); from != "" {
		config.Email.From = from
	}

	// rate limit
	if rps := getEnvFloat("RATE_RPS", 0); rps > 0 {
		config.RateLimit.RPS = rps
	}
	if burst := getEnvInt("RATE_BURST", 0); burst > 0 {
		config.RateLimit.Burst = burst
	}

	// cors
	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		config.CORS.AllowedOrigins = splitAndTrim(origins)
	}

	// metrics
	config.Metrics.Enabled = getEnvBool("METRICS_ENABLED", config.Metrics.Enabled)
}

// getDefaultConfig defaults for local development
func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     3306,
			Username: "gastbook",
			Password: "gastbook",
			Database: "gastbook",
			Charset:  "utf8mb4",
			SSLMode:  "disable",
			MaxIdle:  10,
			MaxOpen:  100,
		},
		JWT: JWTConfig{
			Secret:     "change-me-in-production",
			ExpireTime: 24 * time.Hour,
			Issuer:     "gastbook",
		},
		Log: LogConfig{
			Level:      "info",
			Filename:   "logs/app.log",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
		Redis: RedisConfig{
			Host:    "localhost",
			Port:    6379,
			DB:      0,
			Enabled: true,
		},
		WebSocket: WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  90 * time.Second,
		},
		Feed: FeedConfig{
			DefaultPageSize: 10,
			MaxPageSize:     50,
			FriendCacheTTL:  5 * time.Minute,
		},
		Captcha: CaptchaConfig{
			VerifyURL: "https://www.google.com/recaptcha/api/siteverify",
			MinScore:  0.5,
			Timeout:   5 * time.Second,
		},
		Storage: StorageConfig{
			Dir:         "uploads",
			BaseURL:     "/uploads",
			MaxUploadMB: 10,
		},
		Push: PushConfig{
			Workers:   4,
			QueueSize: 100,
		},
		Email: EmailConfig{
			From: "Gastbook <no-reply@gastbook.local>",
		},
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 30,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
