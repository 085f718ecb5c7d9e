// internal/stages/underwriting/config.go
package underwriting

// Config holds the underwriting policy and score bands.
type Config struct {
	MaxAgeAtMaturity    int      `mapstructure:"max_age_at_maturity"`
	MaxIncomeMultiple   float64  `mapstructure:"max_income_multiple"`
	LeverageMultiple    float64  `mapstructure:"leverage_multiple"`
	HighFOIR            float64  `mapstructure:"high_foir"`
	MinJobTenureYears   float64  `mapstructure:"min_job_tenure_years"`
	ThinFileScore       int      `mapstructure:"thin_file_score"`
	ApproveScore        int      `mapstructure:"approve_score"`
	ConditionalScore    int      `mapstructure:"conditional_score"`
	ReviewFlagCount     int      `mapstructure:"review_flag_count"`
	SupportedEmployment []string `mapstructure:"supported_employment"`
}

func DefaultConfig() *Config {
	return &Config{
		MaxAgeAtMaturity:    60,
		MaxIncomeMultiple:   60,
		LeverageMultiple:    40,
		HighFOIR:            0.55,
		MinJobTenureYears:   1,
		ThinFileScore:       700,
		ApproveScore:        70,
		ConditionalScore:    50,
		ReviewFlagCount:     2,
		SupportedEmployment: []string{"salaried", "self_employed", "professional", "business"},
	}
}

// WithDefaults fills every unset field from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.MaxAgeAtMaturity == 0 {
		c.MaxAgeAtMaturity = d.MaxAgeAtMaturity
	}
	if c.MaxIncomeMultiple == 0 {
		c.MaxIncomeMultiple = d.MaxIncomeMultiple
	}
	if c.LeverageMultiple == 0 {
		c.LeverageMultiple = d.LeverageMultiple
	}
	if c.HighFOIR == 0 {
		c.HighFOIR = d.HighFOIR
	}
	if c.MinJobTenureYears == 0 {
		c.MinJobTenureYears = d.MinJobTenureYears
	}
	if c.ThinFileScore == 0 {
		c.ThinFileScore = d.ThinFileScore
	}
	if c.ApproveScore == 0 {
		c.ApproveScore = d.ApproveScore
	}
	if c.ConditionalScore == 0 {
		c.ConditionalScore = d.ConditionalScore
	}
	if c.ReviewFlagCount == 0 {
		c.ReviewFlagCount = d.ReviewFlagCount
	}
	if len(c.SupportedEmployment) == 0 {
		c.SupportedEmployment = d.SupportedEmployment
	}
	return c
}
