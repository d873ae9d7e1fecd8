package output

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

// ConsoleFormatter renders a human-readable report summary for terminals.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *domain.ComprehensiveReport) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "PORTFOLIO SIMULATION REPORT")
	fmt.Fprintln(&buf, "================================")
	if p := report.Parameters; p != nil {
		fmt.Fprintf(&buf, "Mode: %s  Iterations: %d\n", p.Mode, p.Iterations)
		fmt.Fprintf(&buf, "Expected Return: %s  Volatility: %s\n",
			FormatPercentage(p.InterestRate.Mean), FormatPercentage(p.Volatility.Mean))
	}

	if acc := report.Accumulation; acc != nil {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "ACCUMULATION PHASE")
		fmt.Fprintln(&buf, "--------------------------------")
		fmt.Fprintf(&buf, "Total Invested:   %s\n", FormatCurrency(acc.TotalInvested))
		fmt.Fprintf(&buf, "Mean Final:       %s\n", FormatCurrency(acc.NominalStats.Mean))
		fmt.Fprintf(&buf, "Median Final:     %s\n", FormatCurrency(acc.NominalStats.Median))
		fmt.Fprintf(&buf, "Std Deviation:    %s\n", FormatCurrency(acc.NominalStats.StdDev))
		fmt.Fprintf(&buf, "Range:            %s - %s\n",
			FormatCurrency(acc.NominalStats.Min), FormatCurrency(acc.NominalStats.Max))
		writePercentiles(&buf, acc.NominalStats.Percentiles)
		fmt.Fprintf(&buf, "Real (inflation-adjusted) Mean: %s (loss %s)\n",
			FormatCurrency(acc.InflationImpact.RealValue),
			FormatCurrency(acc.InflationImpact.PurchasingPowerLoss))
		fmt.Fprintf(&buf, "After-Tax Mean:   %s (tax cost %s)\n",
			FormatCurrency(acc.TaxImpact.AfterTaxValue), FormatCurrency(acc.TaxImpact.TaxCost))
		fmt.Fprintf(&buf, "Max Drawdown:     %s  VaR95: %s  CVaR95: %s\n",
			FormatPercentage(acc.Risk.MaxDrawdown),
			FormatCurrency(acc.Risk.VaR95), FormatCurrency(acc.Risk.CVaR95))
	}

	if wd := report.Withdrawal; wd != nil {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "WITHDRAWAL PHASE")
		fmt.Fprintln(&buf, "--------------------------------")
		fmt.Fprintf(&buf, "Starting Amount:  %s\n", FormatCurrency(wd.StartAmount))
		fmt.Fprintf(&buf, "Success Rate:     %s\n", FormatPercentage(wd.SuccessProbability))
		fmt.Fprintf(&buf, "Mean Final:       %s\n", FormatCurrency(wd.FinalStats.Mean))
		fmt.Fprintf(&buf, "Median Final:     %s\n", FormatCurrency(wd.FinalStats.Median))
		fmt.Fprintf(&buf, "Mean Withdrawn:   %s\n", FormatCurrency(wd.WithdrawnStats.Mean))
		fmt.Fprintf(&buf, "Monthly Income:   mean %s / median %s\n",
			FormatCurrency(wd.Income.Mean), FormatCurrency(wd.Income.Median))
		fmt.Fprintf(&buf, "Safe Withdrawal:  95%%->%s 90%%->%s 80%%->%s (recommended %s)\n",
			FormatPercentage(wd.SWR.SWR95), FormatPercentage(wd.SWR.SWR90),
			FormatPercentage(wd.SWR.SWR80), FormatPercentage(wd.RecommendedSWR))
		fmt.Fprintf(&buf, "Sequence Risk:    score %s (early-return correlation %s)\n",
			wd.SequenceRisk.Score.StringFixed(1), wd.SequenceRisk.EarlyReturnCorrelation.StringFixed(3))
	}

	if cb := report.Combined; cb != nil {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "LIFECYCLE SUMMARY")
		fmt.Fprintln(&buf, "--------------------------------")
		fmt.Fprintf(&buf, "Total Invested:   %s\n", FormatCurrency(cb.TotalInvested))
		fmt.Fprintf(&buf, "Total Withdrawn:  %s (mean)\n", FormatCurrency(cb.TotalWithdrawnMean))
		fmt.Fprintf(&buf, "Lifetime Return:  %s\n", FormatPercentage(cb.LifetimeReturn))
		fmt.Fprintf(&buf, "Risk-Adjusted:    %s  Confidence: %s\n",
			cb.RiskAdjustedScore.StringFixed(2), cb.Confidence)
		for _, rec := range cb.Recommendations {
			fmt.Fprintf(&buf, "[%s] %s\n", rec.Kind, rec.Message)
		}
	}
	return buf.Bytes(), nil
}

func writePercentiles(buf *bytes.Buffer, pcts map[string]decimal.Decimal) {
	if len(pcts) == 0 {
		return
	}
	keys := make([]string, 0, len(pcts))
	for k := range pcts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.ParseFloat(keys[i], 64)
		b, _ := strconv.ParseFloat(keys[j], 64)
		return a > b
	})
	fmt.Fprint(buf, "Percentiles:     ")
	for _, k := range keys {
		fmt.Fprintf(buf, " P%s=%s", k, FormatCurrency(pcts[k]))
	}
	fmt.Fprintln(buf)
}
