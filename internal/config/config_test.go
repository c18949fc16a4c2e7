package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultsWhenEnvUnset(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.Equal(t, "anthropic", cfg.DefaultProvider)
	assert.True(t, cfg.Debug)
	assert.Equal(t, time.Hour, cfg.TaskRetention)
}

func TestLoad_ReadsOverridesFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("WORKFLOW_TASK_RETENTION", "30m")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "https://example.supabase.co/auth/v1/.well-known/jwks.json", cfg.SupabaseJWKSURL)
	assert.Equal(t, "prod_", cfg.TablePrefix)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 30*time.Minute, cfg.TaskRetention)
}

func TestLoad_TablePrefixOverrideWins(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("TABLE_PREFIX", "custom_")

	cfg := Load()
	assert.Equal(t, "custom_", cfg.TablePrefix)
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	t.Setenv("WORKFLOW_TASK_RETENTION", "not-a-duration")

	cfg := Load()
	assert.Equal(t, time.Hour, cfg.TaskRetention)
}

func TestLoad_EnableMockLLMParsesBooleanString(t *testing.T) {
	t.Setenv("ENABLE_MOCK_LLM", "true")

	cfg := Load()
	assert.True(t, cfg.EnableMockLLM)
}
