// Package config loads server configuration from an optional YAML file plus
// environment variables, and validates the dunning policy section against a
// CUE schema before the server starts serving.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/format"
	"github.com/matthewbaird/rentroll/internal/template"
	"github.com/matthewbaird/rentroll/internal/types"
)

type Config struct {
	Server struct {
		Host string `mapstructure:"host" json:"host"`
		Port int    `mapstructure:"port" json:"port"`
	} `mapstructure:"server" json:"server"`

	Database struct {
		// Path is the SQLite database file; ":memory:" for ephemeral use.
		Path string `mapstructure:"path" json:"path"`
	} `mapstructure:"database" json:"database"`

	Log struct {
		Level  string `mapstructure:"level" json:"level"`
		Format string `mapstructure:"format" json:"format"`
	} `mapstructure:"log" json:"log"`

	PDF struct {
		// ServiceURL is the external HTML-to-PDF rasterizer endpoint.
		// Empty disables PDF output.
		ServiceURL     string `mapstructure:"service_url" json:"service_url"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" json:"timeout_seconds"`
	} `mapstructure:"pdf" json:"pdf"`

	Dunning DunningConfig `mapstructure:"dunning" json:"dunning"`
}

// DunningConfig is the deployment-specific dunning policy. Fee values are
// integer cents.
type DunningConfig struct {
	Currency string `mapstructure:"currency" json:"currency"`

	Fees struct {
		PaymentReminder int64 `mapstructure:"payment_reminder" json:"payment_reminder"`
		FirstReminder   int64 `mapstructure:"first_reminder" json:"first_reminder"`
		SecondReminder  int64 `mapstructure:"second_reminder" json:"second_reminder"`
		FinalNotice     int64 `mapstructure:"final_notice" json:"final_notice"`
	} `mapstructure:"fees" json:"fees"`

	MinInterval struct {
		Enabled bool `mapstructure:"enabled" json:"enabled"`
		Days    int  `mapstructure:"days" json:"days"`
	} `mapstructure:"min_interval" json:"min_interval"`

	Labels struct {
		PaymentReminder string `mapstructure:"payment_reminder" json:"payment_reminder"`
		FirstReminder   string `mapstructure:"first_reminder" json:"first_reminder"`
		SecondReminder  string `mapstructure:"second_reminder" json:"second_reminder"`
		FinalNotice     string `mapstructure:"final_notice" json:"final_notice"`
	} `mapstructure:"labels" json:"labels"`

	// RequiredFields maps a stage token to context paths that must be
	// non-empty before a document at that stage may render.
	RequiredFields map[string][]string `mapstructure:"required_fields" json:"required_fields,omitempty"`

	Locale struct {
		DecimalSep     string `mapstructure:"decimal_sep" json:"decimal_sep"`
		GroupingSep    string `mapstructure:"grouping_sep" json:"grouping_sep"`
		CurrencySymbol string `mapstructure:"currency_symbol" json:"currency_symbol"`
		SymbolSuffix   bool   `mapstructure:"symbol_suffix" json:"symbol_suffix"`
		DateLayout     string `mapstructure:"date_layout" json:"date_layout"`
	} `mapstructure:"locale" json:"locale"`

	RenderMode string `mapstructure:"render_mode" json:"render_mode"`
}

// Load reads configuration from the given file (optional), layered under
// RENTROLL_* environment variables, and validates the result.
func Load(path string) (*Config, error) {
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigFile("configs/config.yaml")
	}

	v.SetEnvPrefix("RENTROLL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; defaults make the binary self-sufficient.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := ValidateDunning(cfg.Dunning); err != nil {
		return nil, fmt.Errorf("dunning config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "rentroll.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("pdf.timeout_seconds", 30)

	def := dunning.DefaultPolicy()
	v.SetDefault("dunning.currency", def.Currency)
	v.SetDefault("dunning.fees.payment_reminder", def.Fees.PaymentReminder.AmountCents)
	v.SetDefault("dunning.fees.first_reminder", def.Fees.FirstReminder.AmountCents)
	v.SetDefault("dunning.fees.second_reminder", def.Fees.SecondReminder.AmountCents)
	v.SetDefault("dunning.fees.final_notice", def.Fees.FinalNotice.AmountCents)
	v.SetDefault("dunning.min_interval.enabled", false)
	v.SetDefault("dunning.min_interval.days", 14)
	v.SetDefault("dunning.labels.payment_reminder", def.Labels.PaymentReminder)
	v.SetDefault("dunning.labels.first_reminder", def.Labels.FirstReminder)
	v.SetDefault("dunning.labels.second_reminder", def.Labels.SecondReminder)
	v.SetDefault("dunning.labels.final_notice", def.Labels.FinalNotice)
	v.SetDefault("dunning.required_fields", def.RequiredFields)
	v.SetDefault("dunning.locale.decimal_sep", def.Locale.DecimalSep)
	v.SetDefault("dunning.locale.grouping_sep", def.Locale.GroupingSep)
	v.SetDefault("dunning.locale.currency_symbol", def.Locale.CurrencySymbol)
	v.SetDefault("dunning.locale.symbol_suffix", def.Locale.SymbolSuffix)
	v.SetDefault("dunning.locale.date_layout", def.Locale.DateLayout)
	v.SetDefault("dunning.render_mode", "strict")
}

// Policy converts the validated configuration into the engine's policy.
func (c *Config) Policy() dunning.Policy {
	d := c.Dunning
	return dunning.Policy{
		Currency: d.Currency,
		Fees: dunning.FeeSchedule{
			PaymentReminder: types.Cents(d.Fees.PaymentReminder, d.Currency),
			FirstReminder:   types.Cents(d.Fees.FirstReminder, d.Currency),
			SecondReminder:  types.Cents(d.Fees.SecondReminder, d.Currency),
			FinalNotice:     types.Cents(d.Fees.FinalNotice, d.Currency),
		},
		Labels: dunning.StageLabels{
			PaymentReminder: d.Labels.PaymentReminder,
			FirstReminder:   d.Labels.FirstReminder,
			SecondReminder:  d.Labels.SecondReminder,
			FinalNotice:     d.Labels.FinalNotice,
		},
		MinIntervalEnabled: d.MinInterval.Enabled,
		MinIntervalDays:    d.MinInterval.Days,
		RequiredFields:     d.RequiredFields,
		Locale: format.Locale{
			DecimalSep:     d.Locale.DecimalSep,
			GroupingSep:    d.Locale.GroupingSep,
			CurrencySymbol: d.Locale.CurrencySymbol,
			SymbolSuffix:   d.Locale.SymbolSuffix,
			DateLayout:     d.Locale.DateLayout,
		},
	}
}

// RenderMode returns the configured template render mode. Strict is the
// production default.
func (c *Config) RenderMode() template.Mode {
	if c.Dunning.RenderMode == "lenient" {
		return template.Lenient
	}
	return template.Strict
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
