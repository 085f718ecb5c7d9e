// internal/stages/loan-application/config.go
package loanapplication

// Config holds the affordability policy applied to the detailed application.
type Config struct {
	MinGrossIncome         float64 `mapstructure:"min_gross_income"`
	ConditionalGrossIncome float64 `mapstructure:"conditional_gross_income"`
	MaxFOIR                float64 `mapstructure:"max_foir"`
	ConditionalFOIR        float64 `mapstructure:"conditional_foir"`
}

func DefaultConfig() *Config {
	return &Config{
		MinGrossIncome:         25000,
		ConditionalGrossIncome: 50000,
		MaxFOIR:                0.60,
		ConditionalFOIR:        0.50,
	}
}

// WithDefaults fills every unset field from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.MinGrossIncome == 0 {
		c.MinGrossIncome = d.MinGrossIncome
	}
	if c.ConditionalGrossIncome == 0 {
		c.ConditionalGrossIncome = d.ConditionalGrossIncome
	}
	if c.MaxFOIR == 0 {
		c.MaxFOIR = d.MaxFOIR
	}
	if c.ConditionalFOIR == 0 {
		c.ConditionalFOIR = d.ConditionalFOIR
	}
	return c
}
