package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Addr)
	assert.Equal(t, "admin@mail.com", cfg.Auth.AdminEmail)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, BlobLocal, cfg.Blob.Driver)
	assert.Equal(t, "uploads", cfg.Blob.LocalDir)
	assert.Equal(t, 5, cfg.Auth.LoginBurst)
}

func TestLoad_Precedence_FileEnvFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
addr: ":7000"
log:
  level: debug
storage:
  driver: postgres
  postgres_dsn: postgres://file
auth:
  admin_email: Boss@Mail.com
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	env := []string{
		"DATABASE_URL=postgres://env",
		"JWT_SECRET=" + testSecret,
		"CORS_ORIGINS=https://a.example, https://*.vercel.app",
		"UNRELATED=1",
	}
	fs := newFlags(t, "--config", path, "--storage-driver", "mongo", "--addr", ":9000")

	cfg, err := Load(fs, env)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr, "flag gana sobre archivo")
	assert.Equal(t, "debug", cfg.Log.Level, "archivo gana sobre default")
	assert.Equal(t, "postgres://env", cfg.Storage.PostgresDSN, "env gana sobre archivo")
	assert.Equal(t, StorageMongo, cfg.Storage.Driver)
	assert.Equal(t, "boss@mail.com", cfg.Auth.AdminEmail)
	assert.Equal(t, []string{"https://a.example", "https://*.vercel.app"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	fs := newFlags(t)
	cfg, err := Load(fs, []string{"STORAGE_DRIVER=postgres"})
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
}

func TestLoad_PortFallback(t *testing.T) {
	cfg, err := Load(nil, []string{"PORT=8080"})
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)

	cfg, err = Load(nil, []string{"PORT=8080", "ADDR=127.0.0.1:1"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:1", cfg.Addr)
}

func TestLoad_EnvOnlyKnownVariables(t *testing.T) {
	cfg, err := Load(nil, []string{
		"HOME=/root",
		"PATH=/usr/bin",
		"LOG_LEVEL=",
		"MONGO_DB=  adopt  ",
		"CORS_ORIGINS=https://a.example, ,https://b.example",
		"PORT=9090",
	})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "adopt", cfg.Storage.MongoDB)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, ":9090", cfg.Addr)

	ek, err := loadEnv([]string{"HOME=/root", "PORT=9090"})
	require.NoError(t, err)
	assert.Equal(t, []string{"addr"}, ek.Keys())
}

func TestEnviron_DotEnvLosesAgainstProcess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MONGO_URI=mongodb://dotenv\nMONGO_DB=fromfile\n"), 0o600))

	env := Environ(path, []string{"MONGO_DB=fromprocess"})
	cfg, err := Load(nil, env)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://dotenv", cfg.Storage.MongoURI)
	assert.Equal(t, "fromprocess", cfg.Storage.MongoDB)

	// sin .env no falla
	assert.Equal(t, []string{"A=1"}, Environ(filepath.Join(dir, "missing"), []string{"A=1"}))
}

func TestValidate(t *testing.T) {
	base, err := Load(nil, []string{"JWT_SECRET=" + testSecret})
	require.NoError(t, err)
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"unknown storage", func(c *Config) { c.Storage.Driver = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = StoragePostgres }},
		{"mongo without uri", func(c *Config) { c.Storage.Driver = StorageMongo }},
		{"minio incomplete", func(c *Config) { c.Blob.Driver = BlobMinio }},
		{"zero ttl", func(c *Config) { c.Auth.SessionTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	t.Run("dev allows empty secret", func(t *testing.T) {
		c := base
		c.Dev = true
		c.Auth.JWTSecret = ""
		assert.NoError(t, c.Validate())
	})
}
