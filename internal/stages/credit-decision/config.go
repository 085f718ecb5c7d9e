// internal/stages/credit-decision/config.go
package creditdecision

// Config holds compliance limits and pricing for the credit decision.
type Config struct {
	CommitteeThreshold  float64 `mapstructure:"committee_threshold"`
	RegulatoryCap       float64 `mapstructure:"regulatory_cap"`
	MaxAgeAtMaturity    int     `mapstructure:"max_age_at_maturity"`
	TargetFOIR          float64 `mapstructure:"target_foir"`
	MinRetainedShare    float64 `mapstructure:"min_retained_share"`
	DefaultTenureMonths int     `mapstructure:"default_tenure_months"`
	MinTenureMonths     int     `mapstructure:"min_tenure_months"`
	MaxTenureMonths     int     `mapstructure:"max_tenure_months"`
	ProcessingFeeRate   float64 `mapstructure:"processing_fee_rate"`
}

func DefaultConfig() *Config {
	return &Config{
		CommitteeThreshold:  2500000,
		RegulatoryCap:       5000000,
		MaxAgeAtMaturity:    65,
		TargetFOIR:          0.50,
		MinRetainedShare:    0.50,
		DefaultTenureMonths: 60,
		MinTenureMonths:     12,
		MaxTenureMonths:     84,
		ProcessingFeeRate:   0.01,
	}
}

// WithDefaults fills every unset field from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.CommitteeThreshold == 0 {
		c.CommitteeThreshold = d.CommitteeThreshold
	}
	if c.RegulatoryCap == 0 {
		c.RegulatoryCap = d.RegulatoryCap
	}
	if c.MaxAgeAtMaturity == 0 {
		c.MaxAgeAtMaturity = d.MaxAgeAtMaturity
	}
	if c.TargetFOIR == 0 {
		c.TargetFOIR = d.TargetFOIR
	}
	if c.MinRetainedShare == 0 {
		c.MinRetainedShare = d.MinRetainedShare
	}
	if c.DefaultTenureMonths == 0 {
		c.DefaultTenureMonths = d.DefaultTenureMonths
	}
	if c.MinTenureMonths == 0 {
		c.MinTenureMonths = d.MinTenureMonths
	}
	if c.MaxTenureMonths == 0 {
		c.MaxTenureMonths = d.MaxTenureMonths
	}
	if c.ProcessingFeeRate == 0 {
		c.ProcessingFeeRate = d.ProcessingFeeRate
	}
	return c
}
