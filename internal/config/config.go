// Package config carga la configuración del API.
//
// Precedencia (de menor a mayor): defaults, archivo YAML (--config),
// variables de entorno (.env incluido) y flags de línea de comandos.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"

	BlobLocal = "local"
	BlobMinio = "minio"

	minSecretLen = 32
)

type Config struct {
	Addr    string `koanf:"addr"`
	AppName string `koanf:"app_name"`
	// Dev relaja la validación del secreto JWT (solo desarrollo local).
	Dev bool `koanf:"dev"`

	Log     LogConfig     `koanf:"log"`
	Auth    AuthConfig    `koanf:"auth"`
	Storage StorageConfig `koanf:"storage"`
	Blob    BlobConfig    `koanf:"blob"`
	Cache   CacheConfig   `koanf:"cache"`
	CORS    CORSConfig    `koanf:"cors"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type AuthConfig struct {
	JWTSecret    string        `koanf:"jwt_secret"`
	AdminEmail   string        `koanf:"admin_email"`
	SessionTTL   time.Duration `koanf:"session_ttl"`
	CookieSecure bool          `koanf:"cookie_secure"`

	// rate limit de /login por IP
	LoginRate  float64 `koanf:"login_rate"`
	LoginBurst int     `koanf:"login_burst"`
}

type StorageConfig struct {
	Driver            string `koanf:"driver"`
	PostgresDSN       string `koanf:"postgres_dsn"`
	MongoURI          string `koanf:"mongo_uri"`
	MongoDB           string `koanf:"mongo_db"`
	MongoTransactions bool   `koanf:"mongo_transactions"`

	// AutoMigrate corre las migraciones de postgres al arrancar serve.
	AutoMigrate bool `koanf:"auto_migrate"`
}

type BlobConfig struct {
	Driver   string      `koanf:"driver"`
	LocalDir string      `koanf:"local_dir"`
	Minio    MinioConfig `koanf:"minio"`
}

type MinioConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	UseSSL    bool   `koanf:"use_ssl"`
	// PublicURL es la base con la que se arma la referencia de la imagen.
	PublicURL string `koanf:"public_url"`
}

type CacheConfig struct {
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

func defaults() map[string]any {
	return map[string]any{
		"addr":                 ":5000",
		"app_name":             "pawfect-match",
		"dev":                  false,
		"log.level":            "info",
		"log.format":           "text",
		"auth.admin_email":     "admin@mail.com",
		"auth.session_ttl":     "24h",
		"auth.cookie_secure":   false,
		"auth.login_rate":      0.2,
		"auth.login_burst":     5,
		"storage.driver":       StorageMemory,
		"storage.mongo_db":     "pawfect",
		"blob.driver":          BlobLocal,
		"blob.local_dir":       "uploads",
		"blob.minio.bucket":    "pets",
		"cors.allowed_origins": []string{"http://localhost:3000"},
	}
}

// Flags registra los flags que sobreescriben la configuración.
// El nombre del flag se traduce a key reemplazando el primer "-" por ".".
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "YAML config file")
	fs.String("addr", "", "listen address (ej. :5000)")
	fs.String("log-level", "", "debug|info|warn|error")
	fs.String("log-format", "", "text|json")
	fs.String("storage-driver", "", "memory|postgres|mongo")
	fs.String("blob-driver", "", "local|minio")
	fs.Bool("dev", false, "development mode")
}

// Environ devuelve las variables de entorno del proceso precedidas por las de
// dotenvPath (si existe). Las del proceso ganan.
func Environ(dotenvPath string, processEnv []string) []string {
	values, err := godotenv.Read(dotenvPath)
	if err != nil {
		return processEnv
	}
	out := make([]string, 0, len(values)+len(processEnv))
	for k, v := range values {
		out = append(out, k+"="+v)
	}
	return append(out, processEnv...)
}

// Load arma la configuración. fs puede ser nil (tests).
func Load(fs *pflag.FlagSet, environ []string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config defaults: %w", err)
	}

	if fs != nil {
		if path, _ := fs.GetString("config"); strings.TrimSpace(path) != "" {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("config file %s: %w", path, err)
			}
		}
	}

	ek, err := loadEnv(environ)
	if err != nil {
		return Config{}, fmt.Errorf("config env: %w", err)
	}
	if err := k.Merge(ek); err != nil {
		return Config{}, fmt.Errorf("config env: %w", err)
	}

	if fs != nil {
		p := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if f.Name == "config" {
				return "config_file", posflag.FlagVal(fs, f)
			}
			return strings.Replace(f.Name, "-", ".", 1), posflag.FlagVal(fs, f)
		})
		if err := k.Load(p, nil); err != nil {
			return Config{}, fmt.Errorf("config flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config unmarshal: %w", err)
	}

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.Blob.Driver = strings.ToLower(strings.TrimSpace(cfg.Blob.Driver))
	cfg.Auth.AdminEmail = strings.ToLower(strings.TrimSpace(cfg.Auth.AdminEmail))

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}

	secret := strings.TrimSpace(c.Auth.JWTSecret)
	switch {
	case secret == "" && !c.Dev:
		errs = append(errs, errors.New("auth.jwt_secret (JWT_SECRET) is required"))
	case secret != "" && len(secret) < minSecretLen && !c.Dev:
		errs = append(errs, fmt.Errorf("auth.jwt_secret must have at least %d chars", minSecretLen))
	}

	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	if c.Auth.LoginRate <= 0 || c.Auth.LoginBurst <= 0 {
		errs = append(errs, errors.New("auth.login_rate and auth.login_burst must be positive"))
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			errs = append(errs, errors.New("storage.postgres_dsn (DATABASE_URL) is required for postgres"))
		}
	case StorageMongo:
		if strings.TrimSpace(c.Storage.MongoURI) == "" {
			errs = append(errs, errors.New("storage.mongo_uri (MONGO_URI) is required for mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	switch c.Blob.Driver {
	case BlobLocal:
		if strings.TrimSpace(c.Blob.LocalDir) == "" {
			errs = append(errs, errors.New("blob.local_dir is required for local blobs"))
		}
	case BlobMinio:
		m := c.Blob.Minio
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.Bucket == "" {
			errs = append(errs, errors.New("blob.minio endpoint, access_key, secret_key and bucket are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob.driver %q", c.Blob.Driver))
	}

	return errors.Join(errs...)
}
