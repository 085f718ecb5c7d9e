// internal/stages/quality-check/config.go
package qualitycheck

// Config holds the per-dimension pass thresholds.
type Config struct {
	CompletenessThreshold float64  `mapstructure:"completeness_threshold"`
	AccuracyThreshold     float64  `mapstructure:"accuracy_threshold"`
	ComplianceThreshold   float64  `mapstructure:"compliance_threshold"`
	IncomeTolerance       float64  `mapstructure:"income_tolerance"`
	MinReferences         int      `mapstructure:"min_references"`
	PassingGrades         []string `mapstructure:"passing_grades"`
}

func DefaultConfig() *Config {
	return &Config{
		CompletenessThreshold: 90,
		AccuracyThreshold:     85,
		ComplianceThreshold:   90,
		IncomeTolerance:       0.10,
		MinReferences:         2,
		PassingGrades:         []string{"A+", "A"},
	}
}

// WithDefaults fills every unset field from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.CompletenessThreshold == 0 {
		c.CompletenessThreshold = d.CompletenessThreshold
	}
	if c.AccuracyThreshold == 0 {
		c.AccuracyThreshold = d.AccuracyThreshold
	}
	if c.ComplianceThreshold == 0 {
		c.ComplianceThreshold = d.ComplianceThreshold
	}
	if c.IncomeTolerance == 0 {
		c.IncomeTolerance = d.IncomeTolerance
	}
	if c.MinReferences == 0 {
		c.MinReferences = d.MinReferences
	}
	if len(c.PassingGrades) == 0 {
		c.PassingGrades = d.PassingGrades
	}
	return c
}
