package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

// CSVSummarizer exports the headline metrics of a report as Metric/Value rows.
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }

func (c CSVSummarizer) Format(report *domain.ComprehensiveReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Metric", "Value", "Description"}); err != nil {
		return nil, err
	}

	rows := [][]string{}
	if p := report.Parameters; p != nil {
		rows = append(rows,
			[]string{"Mode", string(p.Mode), "Simulation mode"},
			[]string{"Iterations", strconv.Itoa(p.Iterations), "Monte Carlo scenarios run"},
		)
	}
	if acc := report.Accumulation; acc != nil {
		rows = append(rows,
			[]string{"Total Invested", acc.TotalInvested.StringFixed(2), "Sum of all contributions"},
			[]string{"Mean Final Balance", acc.NominalStats.Mean.StringFixed(2), "Mean nominal terminal balance"},
			[]string{"Median Final Balance", acc.NominalStats.Median.StringFixed(2), "Median nominal terminal balance"},
			[]string{"Balance Std Dev", acc.NominalStats.StdDev.StringFixed(2), "Standard deviation of terminal balances"},
			[]string{"Real Mean Balance", acc.InflationImpact.RealValue.StringFixed(2), "Inflation-adjusted mean terminal balance"},
			[]string{"After-Tax Mean Balance", acc.TaxImpact.AfterTaxValue.StringFixed(2), "Mean terminal balance after taxes"},
			[]string{"Max Drawdown", acc.Risk.MaxDrawdown.StringFixed(2) + "%", "Largest peak-to-trough decline of the mean path"},
			[]string{"VaR 95", acc.Risk.VaR95.StringFixed(2), "5th percentile terminal balance"},
			[]string{"CVaR 95", acc.Risk.CVaR95.StringFixed(2), "Mean terminal balance below VaR 95"},
		)
	}
	if wd := report.Withdrawal; wd != nil {
		rows = append(rows,
			[]string{"Success Probability", wd.SuccessProbability.StringFixed(2) + "%", "Scenarios ending with a positive balance"},
			[]string{"Mean Final Balance", wd.FinalStats.Mean.StringFixed(2), "Mean balance at end of withdrawal phase"},
			[]string{"Mean Total Withdrawn", wd.WithdrawnStats.Mean.StringFixed(2), "Mean cumulative withdrawals"},
			[]string{"Mean Monthly Income", wd.Income.Mean.StringFixed(2), "Mean of per-scenario average monthly income"},
			[]string{"SWR 95", wd.SWR.SWR95.StringFixed(1) + "%", "Highest rate with at least 95% success"},
			[]string{"SWR 90", wd.SWR.SWR90.StringFixed(1) + "%", "Highest rate with at least 90% success"},
			[]string{"Recommended SWR", wd.RecommendedSWR.StringFixed(2) + "%", "Risk-scaled safe withdrawal rate"},
			[]string{"Sequence Risk Score", wd.SequenceRisk.Score.StringFixed(1), "0-100 sensitivity to return ordering"},
		)
	}
	if cb := report.Combined; cb != nil {
		rows = append(rows,
			[]string{"Lifetime Return", cb.LifetimeReturn.StringFixed(2) + "%", "Mean withdrawn relative to invested"},
			[]string{"Risk-Adjusted Score", cb.RiskAdjustedScore.StringFixed(2), "Lifetime return scaled by outcome dispersion"},
			[]string{"Confidence", cb.Confidence, "Qualitative confidence level"},
		)
	}

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BandCSV exports a monthly progression band as one row per month.
func BandCSV(band domain.TimeSeriesBand) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Month", "Mean", "P5", "P25", "P75", "P95"}); err != nil {
		return nil, err
	}
	for i, month := range band.Months {
		row := []string{
			strconv.Itoa(month),
			band.MeanBalance[i].StringFixed(2),
			band.Percentile5[i].StringFixed(2),
			band.Percentile25[i].StringFixed(2),
			band.Percentile75[i].StringFixed(2),
			band.Percentile95[i].StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
