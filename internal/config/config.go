package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	DBURL      string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBDriver   string

	AppPort    string
	AppEnv     string
	LogLevel   string
	CORSOrigin string

	BcryptCost int
	JWTSecret  string
	JWTExpiry  time.Duration

	MpesaConsumerKey    string
	MpesaConsumerSecret string
	MpesaShortCode      string
	MpesaPassKey        string
	MpesaBaseURL        string
	CallbackBaseURL     string

	InternalSecretKey string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBURL:      os.Getenv("DB_URL"),
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		DBDriver:   getEnv("DB_DRIVER", "postgres"),

		AppPort:    getEnv("APP_PORT", "5000"),
		AppEnv:     os.Getenv("APP_ENV"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),

		BcryptCost: getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTExpiry:  getEnvDuration("JWT_EXPIRY", time.Hour),

		MpesaConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
		MpesaConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
		MpesaShortCode:      os.Getenv("MPESA_SHORTCODE"),
		MpesaPassKey:        os.Getenv("MPESA_PASSKEY"),
		MpesaBaseURL:        getEnv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
		CallbackBaseURL:     os.Getenv("BASE_URL"),

		InternalSecretKey: os.Getenv("INTERNAL_SECRET_KEY"),
	}

	if cfg.DBURL == "" && cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
