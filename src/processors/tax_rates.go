package processors

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/username/uahtax/backend/src/config"
)

// TaxRates are the Ukrainian tax rates applied to investment income.
type TaxRates struct {
	PersonalIncome decimal.Decimal // capital gains
	Military       decimal.Decimal
	Dividend       decimal.Decimal
}

// DefaultTaxRates returns 18% personal income tax, 5% military tax and 9% dividend tax.
func DefaultTaxRates() TaxRates {
	return TaxRates{
		PersonalIncome: decimal.RequireFromString("0.18"),
		Military:       decimal.RequireFromString("0.05"),
		Dividend:       decimal.RequireFromString("0.09"),
	}
}

// TaxRatesFromConfig reads the tax rates from the application configuration.
func TaxRatesFromConfig(cfg *config.AppConfig) (TaxRates, error) {
	var rates TaxRates
	var err error
	if rates.PersonalIncome, err = decimal.NewFromString(cfg.PersonalIncomeTaxRate); err != nil {
		return TaxRates{}, fmt.Errorf("invalid personal income tax rate %q: %w", cfg.PersonalIncomeTaxRate, err)
	}
	if rates.Military, err = decimal.NewFromString(cfg.MilitaryTaxRate); err != nil {
		return TaxRates{}, fmt.Errorf("invalid military tax rate %q: %w", cfg.MilitaryTaxRate, err)
	}
	if rates.Dividend, err = decimal.NewFromString(cfg.DividendTaxRate); err != nil {
		return TaxRates{}, fmt.Errorf("invalid dividend tax rate %q: %w", cfg.DividendTaxRate, err)
	}
	return rates, nil
}
