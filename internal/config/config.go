package config

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type StorageBackend string

const (
	StorageBackendPublic StorageBackend = "public" // Public bucket URLs on the catalog host (default)
	StorageBackendMinio  StorageBackend = "minio"  // Presigned URLs from an S3-compatible store
)

type (
	Config struct {
		HTTP
		Global
		Log
		Database
		Catalog
		Minio
		Transfer
		Progress
		Auth
		Tasks
		GC
	}

	HTTP struct {
		Port       int32
		Host       string
		HSTSMaxAge int // Seconds; 0 leaves Strict-Transport-Security off
	}
	Global struct {
		ShutdownTimeout time.Duration
	}
	Log struct {
		Level       string
		Development bool
	}
	Database struct {
		DataDir string // Documents directory; books/ and covers/ live below it
		Path    string
	}
	Catalog struct {
		URL            string // Base URL of the hosted backend
		AnonKey        string // Public API key sent with every request
		Timeout        time.Duration
		FilesBucket    string
		CoversBucket   string
		StorageBackend StorageBackend
		Fixture        string // JSON or YAML book list served offline when URL is empty
	}
	Minio struct {
		Endpoint      string
		AccessKey     string
		SecretKey     string
		Region        string // Set to avoid a bucket-location round trip when presigning
		UseSSL        bool
		PresignExpiry time.Duration
	}
	Transfer struct {
		Timeout time.Duration // Whole-request timeout for a content file download
	}
	Progress struct {
		Debounce time.Duration // Quiet period before a position change is persisted
	}
	Auth struct {
		JWTSecret   string // HS256 secret; empty means tokens are parsed without verification
		AccessToken string // Stored session token restored at startup; empty starts anonymous
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	GC struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("http_port", 8190)
	v.SetDefault("http_host", "127.0.0.1")
	v.SetDefault("http_hsts_max_age", 0)
	v.SetDefault("shutdown_timeout", "5s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("database_path", "")
	v.SetDefault("catalog_url", "")
	v.SetDefault("catalog_anon_key", "")
	v.SetDefault("catalog_timeout", "15s")
	v.SetDefault("catalog_files_bucket", DefaultFilesBucket)
	v.SetDefault("catalog_covers_bucket", DefaultCoversBucket)
	v.SetDefault("storage_backend", string(StorageBackendPublic))
	v.SetDefault("catalog_fixture", "")
	v.SetDefault("minio_endpoint", "")
	v.SetDefault("minio_access_key", "")
	v.SetDefault("minio_secret_key", "")
	v.SetDefault("minio_region", "us-east-1")
	v.SetDefault("minio_use_ssl", true)
	v.SetDefault("minio_presign_expiry", "1h")
	v.SetDefault("transfer_timeout", "10m")
	v.SetDefault("progress_debounce", "1s")
	v.SetDefault("auth_jwt_secret", "")
	v.SetDefault("auth_access_token", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Orphan file collection
	v.SetDefault("gc_enabled", true)
	v.SetDefault("gc_schedule", "0 3 * * *")

	dataDir := v.GetString("DATA_DIR")
	dbPath := v.GetString("DATABASE_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, DatabaseName)
	}

	return &Config{
		HTTP: HTTP{
			Port:       v.GetInt32("HTTP_PORT"),
			Host:       v.GetString("HTTP_HOST"),
			HSTSMaxAge: v.GetInt("HTTP_HSTS_MAX_AGE"),
		},
		Global: Global{
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Log: Log{
			Level:       v.GetString("LOG_LEVEL"),
			Development: v.GetBool("LOG_DEVELOPMENT"),
		},
		Database: Database{
			DataDir: dataDir,
			Path:    dbPath,
		},
		Catalog: Catalog{
			URL:            v.GetString("CATALOG_URL"),
			AnonKey:        v.GetString("CATALOG_ANON_KEY"),
			Timeout:        v.GetDuration("CATALOG_TIMEOUT"),
			FilesBucket:    v.GetString("CATALOG_FILES_BUCKET"),
			CoversBucket:   v.GetString("CATALOG_COVERS_BUCKET"),
			StorageBackend: StorageBackend(v.GetString("STORAGE_BACKEND")),
			Fixture:        v.GetString("CATALOG_FIXTURE"),
		},
		Minio: Minio{
			Endpoint:      v.GetString("MINIO_ENDPOINT"),
			AccessKey:     v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:     v.GetString("MINIO_SECRET_KEY"),
			Region:        v.GetString("MINIO_REGION"),
			UseSSL:        v.GetBool("MINIO_USE_SSL"),
			PresignExpiry: v.GetDuration("MINIO_PRESIGN_EXPIRY"),
		},
		Transfer: Transfer{
			Timeout: v.GetDuration("TRANSFER_TIMEOUT"),
		},
		Progress: Progress{
			Debounce: v.GetDuration("PROGRESS_DEBOUNCE"),
		},
		Auth: Auth{
			JWTSecret:   v.GetString("AUTH_JWT_SECRET"),
			AccessToken: v.GetString("AUTH_ACCESS_TOKEN"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		GC: GC{
			Enabled:  v.GetBool("GC_ENABLED"),
			Schedule: v.GetString("GC_SCHEDULE"),
		},
	}
}

// NewForTest returns a configuration rooted at dir with background work disabled.
func NewForTest(dir string) *Config {
	cfg := NewConfig()
	cfg.Database.DataDir = dir
	cfg.Database.Path = filepath.Join(dir, DatabaseName)
	cfg.Catalog.URL = "http://catalog.invalid"
	cfg.Catalog.StorageBackend = StorageBackendPublic
	cfg.Progress.Debounce = 10 * time.Millisecond
	cfg.Tasks.Enabled = false
	cfg.GC.Enabled = false
	return cfg
}

// BooksDir is where downloaded content files are stored.
func (c *Config) BooksDir() string {
	return filepath.Join(c.Database.DataDir, "books")
}
