package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/titlememory-backend/internal/data/db"
	"github.com/yungbote/titlememory-backend/internal/data/repos/pagination"
	"github.com/yungbote/titlememory-backend/internal/modules/competency"
	"github.com/yungbote/titlememory-backend/internal/platform/envutil"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
	"github.com/yungbote/titlememory-backend/internal/platform/redis"
)

const ServiceName = "title-memory-service"

type Config struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration

	DB    db.Config
	Redis redis.Config

	IdentityURL     string
	PermissionsURL  string
	CatalogURL      string
	SubjectsURL     string
	UpstreamTimeout time.Duration
	IdentityCache   time.Duration

	CascadePolicy  competency.Policy
	CascadeTimeout time.Duration

	PageMaxLimit   int
	MetricsEnabled bool
	AllowedOrigins []string
}

// LoadConfig reads CONFIG_FILE (when set) as defaults and then the
// environment.
func LoadConfig(log *logger.Logger) (Config, error) {
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		if err := envutil.LoadFile(path); err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
		log.Info("Loaded config file", "path", path)
	}

	cfg := Config{
		Port:            envutil.String("PORT", "8080"),
		Environment:     envutil.String("APP_ENV", "development"),
		ShutdownTimeout: envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		DB: db.Config{
			Driver:     envutil.String("DB_DRIVER", db.DriverPostgres),
			Host:       envutil.String("POSTGRES_HOST", "localhost"),
			Port:       envutil.String("POSTGRES_PORT", "5432"),
			User:       envutil.String("POSTGRES_USER", "postgres"),
			Password:   envutil.String("POSTGRES_PASSWORD", ""),
			Name:       envutil.String("POSTGRES_NAME", "title_memory"),
			SQLitePath: envutil.String("SQLITE_PATH", ""),
		},
		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
		},
		IdentityURL:     envutil.String("IDENTITY_SERVICE_URL", ""),
		PermissionsURL:  envutil.String("PERMISSIONS_SERVICE_URL", ""),
		CatalogURL:      envutil.String("CATALOG_SERVICE_URL", ""),
		SubjectsURL:     envutil.String("SUBJECTS_SERVICE_URL", ""),
		UpstreamTimeout: envutil.Seconds("UPSTREAM_TIMEOUT_SECONDS", 10*time.Second),
		IdentityCache:   envutil.Seconds("IDENTITY_CACHE_TTL_SECONDS", 5*time.Minute),
		CascadePolicy:   competency.ParsePolicy(envutil.String("CASCADE_FAILURE_POLICY", string(competency.PolicyLog))),
		CascadeTimeout:  envutil.Seconds("CASCADE_TIMEOUT_SECONDS", 10*time.Second),
		PageMaxLimit:    envutil.Int("PAGE_MAX_LIMIT", pagination.DefaultMaxLimit),
		MetricsEnabled:  envutil.Bool("METRICS_ENABLED", true),
		AllowedOrigins:  envutil.List("CORS_ALLOWED_ORIGINS", nil),
	}
	if cfg.PageMaxLimit < 1 {
		cfg.PageMaxLimit = pagination.DefaultMaxLimit
	}
	return cfg, nil
}

// Validate checks what the server cannot start without. Permissions and
// subjects are optional: their features degrade instead.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.IdentityURL) == "" {
		missing = append(missing, "IDENTITY_SERVICE_URL")
	}
	if strings.TrimSpace(c.CatalogURL) == "" {
		missing = append(missing, "CATALOG_SERVICE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}
