// internal/stages/pre-qualification/config.go
package prequalification

// Config holds the eligibility policy for pre-qualification.
type Config struct {
	MinCreditScore  int     `mapstructure:"min_credit_score"`
	MinAge          int     `mapstructure:"min_age"`
	MaxAge          int     `mapstructure:"max_age"`
	MinLoanAmount   float64 `mapstructure:"min_loan_amount"`
	MaxLoanAmount   float64 `mapstructure:"max_loan_amount"`
	PrimeScore      int     `mapstructure:"prime_score"`
	GoodScore       int     `mapstructure:"good_score"`
	PrimeMultiplier float64 `mapstructure:"prime_multiplier"`
	GoodMultiplier  float64 `mapstructure:"good_multiplier"`
	BaseMultiplier  float64 `mapstructure:"base_multiplier"`
}

func DefaultConfig() *Config {
	return &Config{
		MinCreditScore:  650,
		MinAge:          21,
		MaxAge:          60,
		MinLoanAmount:   50000,
		MaxLoanAmount:   5000000,
		PrimeScore:      750,
		GoodScore:       700,
		PrimeMultiplier: 60,
		GoodMultiplier:  48,
		BaseMultiplier:  36,
	}
}

// WithDefaults fills every unset field from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.MinCreditScore == 0 {
		c.MinCreditScore = d.MinCreditScore
	}
	if c.MinAge == 0 {
		c.MinAge = d.MinAge
	}
	if c.MaxAge == 0 {
		c.MaxAge = d.MaxAge
	}
	if c.MinLoanAmount == 0 {
		c.MinLoanAmount = d.MinLoanAmount
	}
	if c.MaxLoanAmount == 0 {
		c.MaxLoanAmount = d.MaxLoanAmount
	}
	if c.PrimeScore == 0 {
		c.PrimeScore = d.PrimeScore
	}
	if c.GoodScore == 0 {
		c.GoodScore = d.GoodScore
	}
	if c.PrimeMultiplier == 0 {
		c.PrimeMultiplier = d.PrimeMultiplier
	}
	if c.GoodMultiplier == 0 {
		c.GoodMultiplier = d.GoodMultiplier
	}
	if c.BaseMultiplier == 0 {
		c.BaseMultiplier = d.BaseMultiplier
	}
	return c
}
