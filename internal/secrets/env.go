package secrets

import (
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// ProviderEnvVars is the canonical per-provider environment variable table
// (§6.1). Order matters: readProviderCredential returns the first non-empty.
var ProviderEnvVars = map[string][]string{
	"alphavantage": {"ALPHAVANTAGE_API_KEY", "ALPHAVANTAGE_KEY"},
	"finnhub":      {"FINNHUB_API_KEY", "FINNHUB_KEY"},
	"fmp":          {"FMP_API_KEY", "FINANCIAL_MODELING_PREP_API_KEY"},
	"polygon":      {"POLYGON_API_KEY", "POLYGON_KEY"},
	"quartr":       {"QUARTR_API_KEY"},
	"quiver":       {"QUIVER_QUANT_API_KEY", "QUIVERQUANT_API_KEY"},
	"secedgar":     {"SEC_EDGAR_IDENTITY", "SEC_API_USER_AGENT"},
}

var dotenvOnce sync.Once

// LoadDotEnv optionally preloads a .env file ahead of the env-then-store
// precedence chain, mirroring the role github.com/joho/godotenv plays in the
// example corpus's local-dev provider configs. Missing files are not an
// error; this is a convenience, not a requirement.
func LoadDotEnv(path string) {
	dotenvOnce.Do(func() {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			log.Debug().Err(err).Str("path", path).Msg("no .env file loaded")
		}
	})
}

// firstNonEmptyEnv returns the first non-empty value among the given
// environment variable names, and which name supplied it.
func firstNonEmptyEnv(names []string) (value string, envKey string) {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v, name
		}
	}
	return "", ""
}

func trimIfRequested(value string, trim bool) (string, bool) {
	if !trim {
		return value, value != ""
	}
	trimmed := strings.TrimSpace(value)
	return trimmed, trimmed != ""
}
