package config

import (
	"strings"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
)

const portKey = "port"

// envKeys mapea variables de entorno a keys de koanf.
var envKeys = map[string]string{
	"ADDR":               "addr",
	"APP_NAME":           "app_name",
	"DEV_MODE":           "dev",
	"LOG_LEVEL":          "log.level",
	"LOG_FORMAT":         "log.format",
	"JWT_SECRET":         "auth.jwt_secret",
	"ADMIN_EMAIL":        "auth.admin_email",
	"SESSION_TTL":        "auth.session_ttl",
	"COOKIE_SECURE":      "auth.cookie_secure",
	"LOGIN_RATE":         "auth.login_rate",
	"LOGIN_BURST":        "auth.login_burst",
	"STORAGE_DRIVER":     "storage.driver",
	"DATABASE_URL":       "storage.postgres_dsn",
	"MONGO_URI":          "storage.mongo_uri",
	"MONGO_DB":           "storage.mongo_db",
	"MONGO_TRANSACTIONS": "storage.mongo_transactions",
	"AUTO_MIGRATE":       "storage.auto_migrate",
	"BLOB_DRIVER":        "blob.driver",
	"UPLOADS_DIR":        "blob.local_dir",
	"MINIO_ENDPOINT":     "blob.minio.endpoint",
	"MINIO_ACCESS_KEY":   "blob.minio.access_key",
	"MINIO_SECRET_KEY":   "blob.minio.secret_key",
	"MINIO_BUCKET":       "blob.minio.bucket",
	"MINIO_USE_SSL":      "blob.minio.use_ssl",
	"MINIO_PUBLIC_URL":   "blob.minio.public_url",
	"REDIS_ADDR":         "cache.redis_addr",
	"REDIS_PASSWORD":     "cache.redis_password",
	"REDIS_DB":           "cache.redis_db",
	"CORS_ORIGINS":       "cors.allowed_origins",
	"PORT":               portKey,
}

// envProvider lee del environ dado solo las variables de envKeys; el resto (y
// las vacías) se descarta devolviendo key "".
func envProvider(environ []string) *env.Env {
	return env.Provider(".", env.Opt{
		EnvironFunc: func() []string { return environ },
		TransformFunc: func(name, val string) (string, any) {
			key, known := envKeys[name]
			if !known || strings.TrimSpace(val) == "" {
				return "", nil
			}
			if key == "cors.allowed_origins" {
				return key, splitList(val)
			}
			return key, strings.TrimSpace(val)
		},
	})
}

// loadEnv carga el entorno en una instancia aparte. PORT (Render/Heroku) se
// traduce a addr solo si ADDR no vino.
func loadEnv(environ []string) (*koanf.Koanf, error) {
	ek := koanf.New(".")
	if err := ek.Load(envProvider(environ), nil); err != nil {
		return nil, err
	}
	if port := ek.String(portKey); port != "" && !ek.Exists("addr") {
		if err := ek.Set("addr", ":"+port); err != nil {
			return nil, err
		}
	}
	ek.Delete(portKey)
	return ek, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
