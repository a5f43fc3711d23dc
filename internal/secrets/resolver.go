// Package secrets implements the Credential & Tier Resolver (§4.1): the
// env-then-store API key resolution chain, the Quiver plan tier parser, and
// the endpoint gating check.
package secrets

import "github.com/rs/zerolog/log"

// Resolver resolves per-provider credentials and Quiver tier against the
// process environment and a JSON auth store.
type Resolver struct {
	store *Store
}

// NewResolver builds a Resolver backed by the given auth Store.
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// ProviderCredential is the result of readProviderCredential (§4.1).
type ProviderCredential struct {
	EnvKey   string
	AuthInfo *AuthInfo
}

// ReadProviderCredential returns the first non-empty configured environment
// variable for providerID, plus the structured auth-store entry if present.
// Missing credentials are not an error: absence is represented by
// zero-value fields. An unreadable or undecodable auth store is returned as
// an error.
func (r *Resolver) ReadProviderCredential(providerID string) (ProviderCredential, error) {
	var cred ProviderCredential

	if names, ok := ProviderEnvVars[providerID]; ok {
		if _, envKey := firstNonEmptyEnv(names); envKey != "" {
			cred.EnvKey = envKey
		}
	}

	entries, err := r.store.Load()
	if err != nil {
		return cred, err
	}
	if entry, ok := entries[providerID]; ok {
		e := entry
		cred.AuthInfo = &e
	}

	return cred, nil
}

// ResolveOptions configures key resolution trim behavior.
type ResolveOptions struct {
	Trim bool
}

// ResolveProviderApiKey resolves the usable API key for providerID (§4.1).
// When Trim is set, whitespace-only values are rejected and surviving
// values are trimmed; otherwise a raw env value wins over a stored
// api-typed key. oauth/wellknown auth-store entries never satisfy API key
// resolution.
func (r *Resolver) ResolveProviderApiKey(providerID string, opts ResolveOptions) (string, bool) {
	names := ProviderEnvVars[providerID]
	envValue, _ := firstNonEmptyEnv(names)

	if !opts.Trim {
		if envValue != "" {
			return envValue, true
		}
		entries, err := r.store.Load()
		if err != nil {
			log.Warn().Err(err).Str("provider", providerID).Msg("auth store unreadable during key resolution")
			return "", false
		}
		if entry, ok := entries[providerID]; ok && entry.Type == AuthTypeAPI && entry.Key != "" {
			return entry.Key, true
		}
		return "", false
	}

	if trimmed, ok := trimIfRequested(envValue, true); ok {
		return trimmed, true
	}
	entries, err := r.store.Load()
	if err != nil {
		log.Warn().Err(err).Str("provider", providerID).Msg("auth store unreadable during key resolution")
		return "", false
	}
	if entry, ok := entries[providerID]; ok && entry.Type == AuthTypeAPI {
		if trimmed, ok := trimIfRequested(entry.Key, true); ok {
			return trimmed, true
		}
	}
	return "", false
}

// QuiverCredential is the result of resolveQuiverProviderCredential (§4.1).
type QuiverCredential struct {
	Key       string
	Tier      QuiverTier
	Inferred  bool // true when tier metadata was absent and defaulted to Public
}

// ResolveQuiverProviderCredential combines the Quiver API key with its
// parsed plan tier. When tier metadata is absent, the tier falls back to
// Public with Inferred=true, matching §4.1's advisory-warning behavior.
func (r *Resolver) ResolveQuiverProviderCredential(opts ResolveOptions) (QuiverCredential, bool) {
	key, ok := r.ResolveProviderApiKey("quiver", opts)
	if !ok {
		return QuiverCredential{}, false
	}

	entries, err := r.store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("auth store unreadable during quiver tier resolution")
		return QuiverCredential{Key: key, Tier: TierPublic, Inferred: true}, true
	}

	entry, hasEntry := entries["quiver"]
	if !hasEntry || entry.ProviderTier == "" {
		log.Warn().Msg("quiver tier metadata absent; defaulting to Public tier")
		return QuiverCredential{Key: key, Tier: TierPublic, Inferred: true}, true
	}

	tier, recognized := ParseQuiverTier(entry.ProviderTier)
	if !recognized {
		log.Warn().Str("tag", entry.ProviderTier).Msg("unrecognized quiver tier tag; defaulting to Public tier")
		return QuiverCredential{Key: key, Tier: TierPublic, Inferred: true}, true
	}

	return QuiverCredential{Key: key, Tier: tier, Inferred: false}, true
}
