package goGuard

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// LoadConfigFromEnv builds a Config from GOGUARD_* environment variables,
// after loading the nearest .env file from the working directory upward.
// Unset variables keep their [DefaultConfig] values.
func LoadConfigFromEnv() Config {
	loadDotEnv()

	def := defaultConfig()
	cfg := def

	cfg.Transport.BaseURL = env.GetString("GOGUARD_BASE_URL", def.Transport.BaseURL)
	cfg.Transport.Timeout = env.GetDuration("GOGUARD_TIMEOUT_SECONDS", int(def.Transport.Timeout/time.Second), time.Second)

	cfg.Credentials.Backend = CredentialBackend(env.GetString("GOGUARD_CREDENTIAL_BACKEND", string(def.Credentials.Backend)))
	cfg.Credentials.AccessKey = env.GetString("GOGUARD_ACCESS_KEY", def.Credentials.AccessKey)
	cfg.Credentials.RefreshKey = env.GetString("GOGUARD_REFRESH_KEY", def.Credentials.RefreshKey)
	cfg.Credentials.CookieOrigin = env.GetString("GOGUARD_COOKIE_ORIGIN", def.Credentials.CookieOrigin)
	cfg.Credentials.CookiePath = env.GetString("GOGUARD_COOKIE_PATH", def.Credentials.CookiePath)
	cfg.Credentials.CookieSecure = env.GetBool("GOGUARD_COOKIE_SECURE", def.Credentials.CookieSecure)
	cfg.Credentials.CookieSameSite = parseSameSite(env.GetString("GOGUARD_COOKIE_SAMESITE", ""), def.Credentials.CookieSameSite)
	cfg.Credentials.RedisAddr = env.GetString("GOGUARD_REDIS_ADDR", def.Credentials.RedisAddr)
	cfg.Credentials.RedisPrefix = env.GetString("GOGUARD_REDIS_PREFIX", def.Credentials.RedisPrefix)

	cfg.Session.AccessRetentionDays = env.GetInt("GOGUARD_ACCESS_RETENTION_DAYS", def.Session.AccessRetentionDays)
	cfg.Session.RefreshRetentionDays = env.GetInt("GOGUARD_REFRESH_RETENTION_DAYS", def.Session.RefreshRetentionDays)

	cfg.Guard.LoginPath = env.GetString("GOGUARD_LOGIN_PATH", def.Guard.LoginPath)
	cfg.Guard.ReturnQueryKey = env.GetString("GOGUARD_RETURN_QUERY_KEY", def.Guard.ReturnQueryKey)
	cfg.Guard.RootFallback = env.GetString("GOGUARD_ROOT_FALLBACK", def.Guard.RootFallback)
	cfg.Guard.DashboardFallback = env.GetString("GOGUARD_DASHBOARD_FALLBACK", def.Guard.DashboardFallback)
	if raw := env.GetString("GOGUARD_PUBLIC_PATHS", ""); raw != "" {
		cfg.Guard.PublicPaths = splitList(raw)
	}

	cfg.Permissions.File = env.GetString("GOGUARD_PERMISSIONS_FILE", def.Permissions.File)

	cfg.Audit.Enabled = env.GetBool("GOGUARD_AUDIT_ENABLED", def.Audit.Enabled)
	cfg.Audit.BufferSize = env.GetInt("GOGUARD_AUDIT_BUFFER_SIZE", def.Audit.BufferSize)
	cfg.Audit.DropIfFull = env.GetBool("GOGUARD_AUDIT_DROP_IF_FULL", def.Audit.DropIfFull)
	if raw := env.GetString("GOGUARD_AUDIT_RETAIN", ""); raw != "" {
		cfg.Audit.RetainTypes = splitList(raw)
	}

	cfg.Metrics.Enabled = env.GetBool("GOGUARD_METRICS_ENABLED", def.Metrics.Enabled)
	cfg.Metrics.EnableLatencyHistograms = env.GetBool("GOGUARD_METRICS_LATENCY", def.Metrics.EnableLatencyHistograms)

	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseSameSite(raw string, fallback http.SameSite) http.SameSite {
	switch strings.ToLower(raw) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return fallback
	}
}

// loadDotEnv loads the first .env found walking up from the working directory.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
