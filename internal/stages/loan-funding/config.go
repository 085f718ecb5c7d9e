// internal/stages/loan-funding/config.go
package loanfunding

// Config holds the supported disbursement rails and their amount limits.
type Config struct {
	Methods     []string `mapstructure:"methods"`
	RTGSMinimum float64  `mapstructure:"rtgs_minimum"`
	IMPSMaximum float64  `mapstructure:"imps_maximum"`
	UPIMaximum  float64  `mapstructure:"upi_maximum"`
}

func DefaultConfig() *Config {
	return &Config{
		Methods:     []string{"NEFT", "RTGS", "IMPS", "UPI"},
		RTGSMinimum: 200000,
		IMPSMaximum: 500000,
		UPIMaximum:  100000,
	}
}

// WithDefaults fills every unset field from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if len(c.Methods) == 0 {
		c.Methods = d.Methods
	}
	if c.RTGSMinimum == 0 {
		c.RTGSMinimum = d.RTGSMinimum
	}
	if c.IMPSMaximum == 0 {
		c.IMPSMaximum = d.IMPSMaximum
	}
	if c.UPIMaximum == 0 {
		c.UPIMaximum = d.UPIMaximum
	}
	return c
}
