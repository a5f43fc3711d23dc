package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProvidersConfig_ValidatesClean(t *testing.T) {
	cfg := DefaultProvidersConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsProviderEnabled("yahoo"))
	assert.False(t, cfg.IsProviderEnabled("nonexistent"))
}

func TestProviderConfig_Validate_RejectsBurstBelowRPS(t *testing.T) {
	p := ProviderConfig{
		BaseURL: "https://example.com", RPS: 10, Burst: 5,
		Backoff: BackoffConfig{BaseMS: 100, MaxMS: 1000},
		Circuit: CircuitConfig{FailureThreshold: 1, SuccessThreshold: 1, TimeoutMS: 1000},
	}
	err := p.Validate()
	require.Error(t, err)
}

func TestProviderConfig_Validate_RejectsNonMonotonicBackoff(t *testing.T) {
	p := ProviderConfig{
		BaseURL: "https://example.com", RPS: 1, Burst: 1,
		Backoff: BackoffConfig{BaseMS: 1000, MaxMS: 500},
		Circuit: CircuitConfig{FailureThreshold: 1, SuccessThreshold: 1, TimeoutMS: 1000},
	}
	err := p.Validate()
	require.Error(t, err)
}
