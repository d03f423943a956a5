package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/rentroll/internal/template"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, template.Strict, cfg.RenderMode())

	policy := cfg.Policy()
	assert.Equal(t, "EUR", policy.Currency)
	assert.Equal(t, int64(500), policy.Fees.FirstReminder.AmountCents)
	assert.Equal(t, "Zahlungserinnerung", policy.Labels.PaymentReminder)
	assert.False(t, policy.MinIntervalEnabled)
	assert.Equal(t, ",", policy.Locale.DecimalSep)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RENTROLL_SERVER_PORT", "9090")
	t.Setenv("RENTROLL_DUNNING_RENDER_MODE", "lenient")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, template.Lenient, cfg.RenderMode())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestValidateDunningDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.NoError(t, ValidateDunning(cfg.Dunning))
}

func TestValidateDunningRejectsBadCurrency(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Dunning.Currency = "euro"
	assert.Error(t, ValidateDunning(cfg.Dunning))
}

func TestValidateDunningRejectsNegativeFee(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Dunning.Fees.FinalNotice = -100
	assert.Error(t, ValidateDunning(cfg.Dunning))
}

func TestValidateDunningRejectsBlankLabel(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Dunning.Labels.SecondReminder = ""
	assert.Error(t, ValidateDunning(cfg.Dunning))
}

func TestValidateDunningRejectsUnknownStageKey(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Dunning.RequiredFields = map[string][]string{
		"third_reminder": {"tenant.address"},
	}
	assert.Error(t, ValidateDunning(cfg.Dunning))
}

func TestValidateDunningRejectsBadRenderMode(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Dunning.RenderMode = "forgiving"
	assert.Error(t, ValidateDunning(cfg.Dunning))
}
