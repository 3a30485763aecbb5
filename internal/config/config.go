package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	ServerAddress  string
	Environment    string
	LogLevel       string
	Database       DatabaseConfig
	Migration      MigrationConfig
	Reconciliation ReconciliationConfig
	Accrual        AccrualConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Params   string
}

type MigrationConfig struct {
	Dir string
}

// ReconciliationConfig carries the tolerance thresholds for a run. Note the
// asymmetry: the per-employee cost check passes on EITHER the absolute or the
// relative tolerance, while the aggregate cost-center check only flags when
// BOTH thresholds are exceeded.
type ReconciliationConfig struct {
	HoursTolerance        decimal.Decimal
	CostToleranceAbs      decimal.Decimal
	CostTolerancePct      decimal.Decimal
	CriticalHours         decimal.Decimal
	CriticalCostPct       decimal.Decimal
	AggregateToleranceAbs decimal.Decimal
	AggregateTolerancePct decimal.Decimal
	LabourLedgerAccount   string
}

// AccrualConfig carries the statutory on-cost rates, as percentages of base
// wage, and the pay-cycle length used for pro-rating auto-pay amounts.
type AccrualConfig struct {
	SuperannuationPct decimal.Decimal
	AnnualLeavePct    decimal.Decimal
	PayrollTaxPct     decimal.Decimal
	WorkcoverPct      decimal.Decimal
	CycleDays         int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	setDefaults()

	config := &Config{
		ServerAddress: viper.GetString("SERVER_ADDRESS"),
		Environment:   viper.GetString("ENVIRONMENT"),
		LogLevel:      viper.GetString("LOG_LEVEL"),
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetInt("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			Params:   viper.GetString("DB_PARAMS"),
		},
		Migration: MigrationConfig{
			Dir: viper.GetString("MIGRATION_DIR"),
		},
		Reconciliation: ReconciliationConfig{
			LabourLedgerAccount: viper.GetString("RECON_LABOUR_LEDGER_ACCOUNT"),
		},
		Accrual: AccrualConfig{
			CycleDays: viper.GetInt("ACCRUAL_CYCLE_DAYS"),
		},
	}

	decimals := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"RECON_HOURS_TOLERANCE", &config.Reconciliation.HoursTolerance},
		{"RECON_COST_TOLERANCE_ABS", &config.Reconciliation.CostToleranceAbs},
		{"RECON_COST_TOLERANCE_PCT", &config.Reconciliation.CostTolerancePct},
		{"RECON_CRITICAL_HOURS", &config.Reconciliation.CriticalHours},
		{"RECON_CRITICAL_COST_PCT", &config.Reconciliation.CriticalCostPct},
		{"RECON_AGGREGATE_TOLERANCE_ABS", &config.Reconciliation.AggregateToleranceAbs},
		{"RECON_AGGREGATE_TOLERANCE_PCT", &config.Reconciliation.AggregateTolerancePct},
		{"ACCRUAL_SUPERANNUATION_PCT", &config.Accrual.SuperannuationPct},
		{"ACCRUAL_ANNUAL_LEAVE_PCT", &config.Accrual.AnnualLeavePct},
		{"ACCRUAL_PAYROLL_TAX_PCT", &config.Accrual.PayrollTaxPct},
		{"ACCRUAL_WORKCOVER_PCT", &config.Accrual.WorkcoverPct},
	}
	for _, d := range decimals {
		v, err := decimalSetting(d.key)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MIGRATION_DIR", "migrations")
	viper.SetDefault("DB_PARAMS", "parseTime=true&multiStatements=true")

	viper.SetDefault("RECON_HOURS_TOLERANCE", "1")
	viper.SetDefault("RECON_COST_TOLERANCE_ABS", "10")
	viper.SetDefault("RECON_COST_TOLERANCE_PCT", "1")
	viper.SetDefault("RECON_CRITICAL_HOURS", "8")
	viper.SetDefault("RECON_CRITICAL_COST_PCT", "5")
	viper.SetDefault("RECON_AGGREGATE_TOLERANCE_ABS", "10")
	viper.SetDefault("RECON_AGGREGATE_TOLERANCE_PCT", "1")
	viper.SetDefault("RECON_LABOUR_LEDGER_ACCOUNT", "6-1100")

	viper.SetDefault("ACCRUAL_SUPERANNUATION_PCT", "12")
	viper.SetDefault("ACCRUAL_ANNUAL_LEAVE_PCT", "7.7")
	viper.SetDefault("ACCRUAL_PAYROLL_TAX_PCT", "4.95")
	viper.SetDefault("ACCRUAL_WORKCOVER_PCT", "1.384")
	viper.SetDefault("ACCRUAL_CYCLE_DAYS", 14)
}

// decimalSetting rejects unparsable values instead of degrading to zero: a
// zero tolerance would silently flag every employee in every run.
func decimalSetting(key string) (decimal.Decimal, error) {
	raw := viper.GetString(key)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal value %q for %s: %v", raw, key, err)
	}
	return d, nil
}

// GetDSN returns the MySQL DSN string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Params,
	)
}

// GetMigrationDBURL returns the database URL for migrations
func (c *Config) GetMigrationDBURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Params,
	)
}
