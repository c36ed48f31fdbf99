package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	Environment string

	FirebaseProject            string
	FirebaseServiceAccountJSON string
	FirebaseServiceAccountPath string

	// StorageDriver selects the persistent store: firestore, postgres or memory.
	StorageDriver string
	DatabaseURL   string

	// BlobDriver selects where uploaded images go: gcs or s3.
	BlobDriver      string
	StorageBucket   string
	AWSRegion       string
	S3Bucket        string
	S3PublicBaseURL string

	GoogleMapsAPIKey string

	DefaultSearchRadiusKm float64
	ExpiryCheckInterval   time.Duration
	ExpiryReminderWindow  time.Duration
	FanOutConcurrency     int

	MessageRatePerMinute int
	ListingRatePerHour   int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		FirebaseProject:            getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		FirebaseServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", "./firebase-service-account.json"),

		StorageDriver: getEnv("STORAGE_DRIVER", "firestore"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		BlobDriver:      getEnv("BLOB_DRIVER", "gcs"),
		StorageBucket:   getEnv("STORAGE_BUCKET", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),

		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),

		DefaultSearchRadiusKm: getEnvAsFloat64("DEFAULT_SEARCH_RADIUS_KM", 20),
		ExpiryCheckInterval:   getEnvAsDuration("EXPIRY_CHECK_INTERVAL", 10*time.Minute),
		ExpiryReminderWindow:  getEnvAsDuration("EXPIRY_REMINDER_WINDOW", 24*time.Hour),
		FanOutConcurrency:     int(getEnvAsInt64("FANOUT_CONCURRENCY", 8)),

		MessageRatePerMinute: int(getEnvAsInt64("MESSAGE_RATE_PER_MINUTE", 10)),
		ListingRatePerHour:   int(getEnvAsInt64("LISTING_RATE_PER_HOUR", 20)),
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
