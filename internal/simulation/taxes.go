package simulation

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

// taxFreeAllowance is the flat tax-free gains allowance of the tiered system,
// a simplified capital-gains exemption.
var taxFreeAllowance = decimal.NewFromInt(1000)

// ApplyTaxes derives post-tax terminal values. Only gains above the total
// invested are taxable; the tiered system additionally exempts the allowance.
func ApplyTaxes(values []decimal.Decimal, totalInvested decimal.Decimal, system domain.TaxSystem, ratePercent decimal.Decimal) []decimal.Decimal {
	if system == domain.TaxNone {
		return append([]decimal.Decimal(nil), values...)
	}

	rate := ratePercent.Div(decimal.NewFromInt(100))
	out := make([]decimal.Decimal, len(values))
	for i, amount := range values {
		if amount.LessThanOrEqual(totalInvested) {
			out[i] = amount
			continue
		}
		gains := amount.Sub(totalInvested)

		var tax decimal.Decimal
		switch system {
		case domain.TaxTiered:
			taxable := gains.Sub(taxFreeAllowance)
			if taxable.LessThan(decimal.Zero) {
				taxable = decimal.Zero
			}
			tax = taxable.Mul(rate)
		case domain.TaxSimple:
			tax = gains.Mul(rate)
		}
		out[i] = amount.Sub(tax)
	}
	return out
}

// AdjustForInflation discounts nominal terminal values into real purchasing
// power after the given number of years.
func AdjustForInflation(values []decimal.Decimal, inflationRatePercent decimal.Decimal, years int) []decimal.Decimal {
	factor := math.Pow(1+inflationRatePercent.InexactFloat64()/100, float64(years))
	divisor := decimal.NewFromFloat(factor)

	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = v.Div(divisor)
	}
	return out
}
