package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // For durations

	"github.com/joho/godotenv"   // For loading .env files
	"golang.org/x/crypto/bcrypt" // Default hashing cost
)

// Config holds the application configuration
type Config struct {
	AppPort          string        // Application port
	StoreDriver      string        // mysql or memory
	DBUser           string        // Database user
	DBPassword       string        // Database password
	DBHost           string        // Database host
	DBPort           string        // Database port
	DBName           string        // Database name
	JWTSecret        string        // JWT secret key
	RedisAddr        string        // Redis server address, empty disables caching
	RedisPass        string        // Redis password
	RedisDB          int           // Redis database number
	IsProd           bool          // Is production environment
	LogLevel         string        // Logrus level name
	LogFormat        string        // text or json
	AdminUsername    string        // Bootstrap admin created at start-up
	AdminPassword    string        // Bootstrap admin password
	OperatorEmail    string        // Receives a copy of every order
	SMTPHost         string        // SMTP server, empty logs mails instead
	SMTPPort         int           // SMTP port
	SMTPUsername     string        // SMTP user
	SMTPPassword     string        // SMTP password
	SMTPFrom         string        // Sender address
	NotifyTimeout    time.Duration // Upper bound for a single notification
	LoginRatePerSec  float64       // Login attempts per second per client
	LoginBurst       int           // Login burst size per client
	CORSOrigins      []string      // Allowed CORS origins
	BcryptCost       int           // Password hashing cost
	MaxImageBytes    int64         // Largest accepted product image
	ProductsCacheTTL time.Duration // How long the product listing stays cached
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:          getEnv("APP_PORT", "8080"),                        // Application port
		StoreDriver:      getEnv("STORE_DRIVER", "mysql"),                   // Store implementation
		DBUser:           os.Getenv("DB_USER"),                              // Database user
		DBPassword:       os.Getenv("DB_PASSWORD"),                          // Database password
		DBHost:           getEnv("DB_HOST", "127.0.0.1"),                    // Database host
		DBPort:           getEnv("DB_PORT", "3306"),                         // Database port
		DBName:           getEnv("DB_NAME", "marketplace"),                  // Database name
		JWTSecret:        os.Getenv("JWT_SECRET"),                           // JWT secret key
		RedisAddr:        os.Getenv("REDIS_ADDR"),                           // Redis server address
		RedisPass:        os.Getenv("REDIS_PASS"),                           // Redis password
		RedisDB:          getInt("REDIS_DB", 0),                             // Redis database number
		IsProd:           os.Getenv("IS_PROD") == "true",                    // Is production environment
		LogLevel:         getEnv("LOG_LEVEL", "info"),                       // Log level
		LogFormat:        getEnv("LOG_FORMAT", "text"),                      // Log format
		AdminUsername:    os.Getenv("ADMIN_USERNAME"),                       // Bootstrap admin
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),                       // Bootstrap admin password
		OperatorEmail:    getEnv("OPERATOR_EMAIL", "orders@localhost"),      // Order copy recipient
		SMTPHost:         os.Getenv("SMTP_HOST"),                            // SMTP server
		SMTPPort:         getInt("SMTP_PORT", 587),                          // SMTP port
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),                        // SMTP user
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),                        // SMTP password
		SMTPFrom:         getEnv("SMTP_FROM", "no-reply@localhost"),         // Sender address
		NotifyTimeout:    getDuration("NOTIFY_TIMEOUT", 10*time.Second),     // Notification deadline
		LoginRatePerSec:  getFloat("LOGIN_RATE_PER_SEC", 1),                 // Login rate
		LoginBurst:       getInt("LOGIN_BURST", 5),                          // Login burst
		CORSOrigins:      getList("CORS_ORIGINS", []string{"*"}),            // CORS origins
		BcryptCost:       getInt("BCRYPT_COST", bcrypt.DefaultCost),         // Hashing cost
		MaxImageBytes:    int64(getInt("MAX_IMAGE_BYTES", 5<<20)),           // 5 MiB by default
		ProductsCacheTTL: getDuration("PRODUCTS_CACHE_TTL", 60*time.Second), // Listing cache TTL
	}
}

// DSN returns the MySQL Data Source Name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

// getEnv returns the variable or a fallback when unset
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// getList splits a comma separated variable
func getList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
