package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverDynamoDB = "dynamodb"
	StoreDriverMemory   = "memory"

	StorageDriverS3    = "s3"
	StorageDriverMinIO = "minio"

	UniqueIndexReservation = "reservation"
	UniqueIndexScan        = "scan"
)

type DB struct {
	DbHOST     string
	DbPORT     string
	DbUSER     string
	DbPASSWORD string
	DbNAME     string
	DbSSLMODE  string
}

type DynamoDB struct {
	Region      string
	Endpoint    string
	TablePrefix string
	AccessKey   string
	SecretKey   string
}

type Storage struct {
	Driver    string
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
	Public    bool
	URLExpiry time.Duration
}

type Log struct {
	Level  string
	Format string
}

type Config struct {
	ServerPort           int
	StoreDriver          string
	UniqueIndex          string
	DB                   DB
	DynamoDB             DynamoDB
	Storage              Storage
	Log                  Log
	JWTSecretKey         string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	MaxUploadSize        int64
	EnforceOwnership     bool
	CORSAllowedOrigins   []string
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		return fallback
	}
	return duration
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func LoadDB() DB {
	return DB{
		DbHOST:     getEnv("DB_HOST", "localhost"),
		DbPORT:     getEnv("DB_PORT", "5432"),
		DbUSER:     getEnv("DB_USER", "postgres"),
		DbPASSWORD: getEnv("DB_PASSWORD", "password"),
		DbNAME:     getEnv("DB_NAME", "blog"),
		DbSSLMODE:  getEnv("DB_SSLMODE", "disable"),
	}
}

func LoadDynamoDB() DynamoDB {
	return DynamoDB{
		Region:      getEnv("DYNAMODB_REGION", getEnv("AWS_REGION", "ap-southeast-2")),
		Endpoint:    getEnv("DYNAMODB_ENDPOINT", ""),
		TablePrefix: getEnv("DYNAMODB_TABLE_PREFIX", ""),
		AccessKey:   getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}
}

func LoadStorage() Storage {
	return Storage{
		Driver:    strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverS3)),
		Bucket:    getEnv("STORAGE_BUCKET", "images"),
		Region:    getEnv("STORAGE_REGION", getEnv("AWS_REGION", "ap-southeast-2")),
		Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
		AccessKey: getEnv("STORAGE_ACCESS_KEY", getEnv("AWS_ACCESS_KEY_ID", "")),
		SecretKey: getEnv("STORAGE_SECRET_KEY", getEnv("AWS_SECRET_ACCESS_KEY", "")),
		UseSSL:    getEnvBool("STORAGE_USE_SSL", true),
		PathStyle: getEnvBool("STORAGE_PATH_STYLE", false),
		Public:    getEnvBool("STORAGE_PUBLIC", true),
		URLExpiry: parseDuration(getEnv("STORAGE_URL_EXPIRY", "1h"), time.Hour),
	}
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	return &Config{
		ServerPort:           getEnvAsInt("SERVER_PORT", 8080),
		StoreDriver:          strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		UniqueIndex:          strings.ToLower(getEnv("UNIQUE_INDEX", UniqueIndexReservation)),
		DB:                   LoadDB(),
		DynamoDB:             LoadDynamoDB(),
		Storage:              LoadStorage(),
		Log:                  Log{Level: getEnv("LOG_LEVEL", "info"), Format: getEnv("LOG_FORMAT", "text")},
		JWTSecretKey:         getEnv("JWT_SECRET_KEY", ""),
		AccessTokenDuration:  parseDuration(getEnv("ACCESS_TOKEN_DURATION", "30m"), 30*time.Minute),
		RefreshTokenDuration: parseDuration(getEnv("REFRESH_TOKEN_DURATION", "168h"), 7*24*time.Hour),
		MaxUploadSize:        parseMaxUploadSize(getEnv("MAX_UPLOAD_SIZE", "16777216")),
		EnforceOwnership:     getEnvBool("ENFORCE_OWNERSHIP", false),
		CORSAllowedOrigins:   splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
}

// Validate reports every configuration problem that would prevent startup.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}

	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverDynamoDB, StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.UniqueIndex {
	case UniqueIndexReservation, UniqueIndexScan:
	default:
		errs = append(errs, fmt.Errorf("unknown UNIQUE_INDEX %q", c.UniqueIndex))
	}

	switch c.Storage.Driver {
	case StorageDriverS3, StorageDriverMinIO:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("STORAGE_BUCKET is required"))
	}

	if c.Storage.Driver == StorageDriverMinIO && c.Storage.Endpoint == "" {
		errs = append(errs, errors.New("STORAGE_ENDPOINT is required for minio"))
	}

	return errors.Join(errs...)
}

func parseMaxUploadSize(value string) int64 {
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil || size <= 0 {
		return 16 * 1024 * 1024
	}
	return size
}
