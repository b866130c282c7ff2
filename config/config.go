// config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// --- Sub-structs, mirroring the YAML layout ---

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentialsFile"`
}

type SupabaseConfig struct {
	URL            string `mapstructure:"url"`
	ServiceRoleKey string `mapstructure:"serviceRoleKey"`
	Bucket         string `mapstructure:"bucket"`
}

// StorageConfig selects where photos end up: "s3", "gcs" or "supabase".
type StorageConfig struct {
	Provider string         `mapstructure:"provider"`
	S3       S3Config       `mapstructure:"s3"`
	GCS      GCSConfig      `mapstructure:"gcs"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
}

type WizardConfig struct {
	SessionTTL        time.Duration `mapstructure:"sessionTTL"`
	SubmitTimeout     time.Duration `mapstructure:"submitTimeout"`
	UploadDir         string        `mapstructure:"uploadDir"`
	UploadConcurrency int           `mapstructure:"uploadConcurrency"`
	MaxPhotoBytes     int64         `mapstructure:"maxPhotoBytes"`
}

// --- Main Config struct ---

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Storage StorageConfig `mapstructure:"storage"`
	Wizard  WizardConfig  `mapstructure:"wizard"`
}

// LoadConfig reads config.yaml from path, then overrides it with environment
// variables (a .env file in the working directory is loaded first).
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)

	v.AutomaticEnv()
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.dbName", "MONGO_DBNAME")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	v.BindEnv("admin.email", "ADMIN_EMAIL")
	v.BindEnv("admin.password", "ADMIN_PASSWORD")
	v.BindEnv("storage.provider", "STORAGE_PROVIDER")
	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.region", "S3_REGION")
	v.BindEnv("storage.s3.accessKeyID", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("storage.s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	v.BindEnv("storage.gcs.bucket", "GCS_BUCKET")
	v.BindEnv("storage.gcs.credentialsFile", "GOOGLE_APPLICATION_CREDENTIALS")
	v.BindEnv("storage.supabase.url", "SUPABASE_URL")
	v.BindEnv("storage.supabase.serviceRoleKey", "SUPABASE_SERVICE_ROLE_KEY")
	v.BindEnv("storage.supabase.bucket", "SUPABASE_STORAGE_BUCKET")
	v.BindEnv("wizard.uploadDir", "WIZARD_UPLOAD_DIR")

	// A missing config.yaml is fine; environment variables alone are enough.
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}
	return config, config.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("mongo.dbName", "recycle_pickup")
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("storage.provider", "s3")
	v.SetDefault("wizard.sessionTTL", "30m")
	v.SetDefault("wizard.submitTimeout", "2m")
	v.SetDefault("wizard.uploadDir", "./tmp/wizard")
	v.SetDefault("wizard.uploadConcurrency", 4)
	v.SetDefault("wizard.maxPhotoBytes", 10<<20)
}

// Validate reports the first missing required setting.
func (c Config) Validate() error {
	if c.Mongo.URI == "" {
		return errors.New("mongo.uri (MONGO_URI) is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret (JWT_SECRET) is required")
	}
	switch c.Storage.Provider {
	case "s3":
		if c.Storage.S3.Bucket == "" || c.Storage.S3.Region == "" {
			return errors.New("storage.s3.bucket and storage.s3.region are required")
		}
	case "gcs":
		if c.Storage.GCS.Bucket == "" {
			return errors.New("storage.gcs.bucket is required")
		}
	case "supabase":
		if c.Storage.Supabase.URL == "" || c.Storage.Supabase.ServiceRoleKey == "" || c.Storage.Supabase.Bucket == "" {
			return errors.New("storage.supabase.url, serviceRoleKey and bucket are required")
		}
	default:
		return fmt.Errorf("unknown storage provider %q", c.Storage.Provider)
	}
	if c.Wizard.SessionTTL <= 0 {
		return errors.New("wizard.sessionTTL must be positive")
	}
	return nil
}
