package simulation

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

func TestDownsideDeviation(t *testing.T) {
	// Mean of {10, 20, 30, 40} is 25; below-mean values are 10 and 20 with
	// squared distances 225 and 25, so the RMS is sqrt(125).
	got := DownsideDeviation(decimalsFromInts(10, 20, 30, 40))
	want := 11.180339887498949
	if relDiff(got.InexactFloat64(), want) > 1e-12 {
		t.Errorf("downside deviation = %s, want %v", got, want)
	}

	// Identical values sit at the mean; nothing is below it.
	if got := DownsideDeviation(decimalsFromInts(5, 5, 5)); !got.Equal(decimal.Zero) {
		t.Errorf("uniform population downside = %s, want 0", got)
	}
}

func TestMaxDrawdown(t *testing.T) {
	band := domain.TimeSeriesBand{
		MeanBalance: decimalsFromInts(100, 120, 90, 110, 80),
	}
	// Peak 120 to trough 80 is a 33.33% decline.
	got := MaxDrawdown(band).InexactFloat64()
	want := (120.0 - 80.0) / 120.0 * 100
	if relDiff(got, want) > 1e-12 {
		t.Errorf("max drawdown = %v, want %v", got, want)
	}

	// A monotonically rising series never draws down.
	rising := domain.TimeSeriesBand{MeanBalance: decimalsFromInts(100, 110, 120)}
	if got := MaxDrawdown(rising); !got.Equal(decimal.Zero) {
		t.Errorf("rising series drawdown = %s, want 0", got)
	}

	if got := MaxDrawdown(domain.TimeSeriesBand{}); !got.Equal(decimal.Zero) {
		t.Errorf("empty band drawdown = %s, want 0", got)
	}
}

func TestValueAtRisk(t *testing.T) {
	values := make([]decimal.Decimal, 100)
	for i := range values {
		values[i] = decimal.NewFromInt(int64(i + 1)) // 1..100
	}

	vaR, cvaR := ValueAtRisk(values)

	// 5th percentile of 1..100 interpolates to 5.95; the tail mean over
	// values at or below it is (1+2+3+4+5)/5 = 3.
	if relDiff(vaR.InexactFloat64(), 5.95) > 1e-12 {
		t.Errorf("VaR95 = %s, want 5.95", vaR)
	}
	if !cvaR.Equal(decimal.NewFromInt(3)) {
		t.Errorf("CVaR95 = %s, want 3", cvaR)
	}

	// CVaR never exceeds VaR.
	if cvaR.GreaterThan(vaR) {
		t.Errorf("CVaR %s above VaR %s", cvaR, vaR)
	}
}

func TestSWRSweepMonotonicAndComplete(t *testing.T) {
	start := decimal.NewFromInt(1000000)
	withdrawn := []decimal.Decimal{
		decimal.NewFromInt(600000),
		decimal.NewFromInt(900000),
		decimal.NewFromInt(1200000),
		decimal.NewFromInt(2400000),
	}

	analysis := SWRSweep(start, withdrawn, 30)

	if len(analysis.Points) != 13 {
		t.Fatalf("sweep points = %d, want 13 (2.0%% to 8.0%% in 0.5%% steps)", len(analysis.Points))
	}
	if !analysis.Points[0].Rate.Equal(decimal.NewFromFloat(2.0)) {
		t.Errorf("first rate = %s, want 2", analysis.Points[0].Rate)
	}
	if !analysis.Points[12].Rate.Equal(decimal.NewFromFloat(8.0)) {
		t.Errorf("last rate = %s, want 8", analysis.Points[12].Rate)
	}

	// A larger budget can only admit more scenarios, so success probability
	// is non-decreasing in the tested rate.
	for i := 1; i < len(analysis.Points); i++ {
		if analysis.Points[i].SuccessProbability.LessThan(analysis.Points[i-1].SuccessProbability) {
			t.Errorf("success probability decreased from rate %s to %s",
				analysis.Points[i-1].Rate, analysis.Points[i].Rate)
		}
	}

	// Budget at 2% over 30 years is 600k: only the 600k scenario fits (25%).
	if !analysis.Points[0].SuccessProbability.Equal(decimal.NewFromInt(25)) {
		t.Errorf("2%% success = %s, want 25", analysis.Points[0].SuccessProbability)
	}
	// At 4% the budget is 1.2M: three of four fit (75%).
	var at4 decimal.Decimal
	for _, pt := range analysis.Points {
		if pt.Rate.Equal(decimal.NewFromFloat(4.0)) {
			at4 = pt.SuccessProbability
		}
	}
	if !at4.Equal(decimal.NewFromInt(75)) {
		t.Errorf("4%% success = %s, want 75", at4)
	}

	// 8% admits everything, so the 95/90/80 lookups all resolve to the
	// lowest qualifying rate.
	if !analysis.SWR95.Equal(decimal.NewFromFloat(8.0)) {
		t.Errorf("SWR95 = %s, want 8", analysis.SWR95)
	}
	if !analysis.SWR80.LessThanOrEqual(analysis.SWR95) {
		t.Errorf("SWR80 %s above SWR95 %s", analysis.SWR80, analysis.SWR95)
	}
}

func TestSWRSweepNoQualifyingRateFallsBack(t *testing.T) {
	// Withdrawn totals far beyond any budget: nothing qualifies and the
	// lookups fall back to the conservative 2% minimum.
	start := decimal.NewFromInt(1000)
	withdrawn := []decimal.Decimal{decimal.NewFromInt(10000000)}

	analysis := SWRSweep(start, withdrawn, 30)
	if !analysis.SWR95.Equal(decimal.NewFromFloat(2.0)) {
		t.Errorf("SWR95 fallback = %s, want 2", analysis.SWR95)
	}
}

func TestRecommendedSWRBands(t *testing.T) {
	target := decimal.NewFromInt(4)

	cases := []struct {
		success float64
		want    decimal.Decimal
	}{
		{99, decimal.NewFromInt(4)},
		{95, decimal.NewFromInt(4)},
		{92, decimal.NewFromFloat(3.6)},
		{85, decimal.NewFromFloat(3.2)},
		{60, decimal.NewFromFloat(2.8)},
	}
	for _, tc := range cases {
		got := RecommendedSWR(decimal.NewFromFloat(tc.success), target)
		if !got.Equal(tc.want) {
			t.Errorf("RecommendedSWR(%v%%) = %s, want %s", tc.success, got, tc.want)
		}
	}
}

func TestAnalyzeSequenceRiskCorrelation(t *testing.T) {
	// Construct traces where higher early returns pair with higher terminal
	// balances, giving a strongly positive correlation.
	mkTrace := func(monthlyReturn float64, terminal int64) domain.ScenarioTrace {
		tr := make(domain.ScenarioTrace, sequenceWindowMonths+12)
		for i := range tr {
			tr[i] = domain.MonthRecord{
				Month:   i,
				Balance: decimal.NewFromInt(terminal),
				Return:  decimal.NewFromFloat(monthlyReturn),
			}
		}
		return tr
	}

	risk := AnalyzeSequenceRisk([]domain.ScenarioTrace{
		mkTrace(0.001, 90000),
		mkTrace(0.005, 110000),
		mkTrace(0.010, 140000),
	})

	if !risk.EarlyReturnCorrelation.GreaterThan(decimal.NewFromFloat(0.9)) {
		t.Errorf("correlation = %s, want strongly positive", risk.EarlyReturnCorrelation)
	}
	if risk.Score.LessThan(decimal.Zero) || risk.Score.GreaterThan(decimal.NewFromInt(100)) {
		t.Errorf("score = %s outside [0, 100]", risk.Score)
	}
}

func TestAnalyzeSequenceRiskShortTraces(t *testing.T) {
	// Horizons under the analysis window produce no correlation signal.
	short := make(domain.ScenarioTrace, 12)
	for i := range short {
		short[i] = domain.MonthRecord{Month: i, Balance: decimal.NewFromInt(100)}
	}

	risk := AnalyzeSequenceRisk([]domain.ScenarioTrace{short, short})
	if !risk.EarlyReturnCorrelation.Equal(decimal.Zero) {
		t.Errorf("correlation = %s, want 0 for short traces", risk.EarlyReturnCorrelation)
	}
}

func TestSequenceRiskScoreZeroMean(t *testing.T) {
	depleted := domain.ScenarioTrace{{Month: 0, Balance: decimal.Zero}}
	if got := sequenceRiskScore([]domain.ScenarioTrace{depleted, depleted}); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("zero-mean score = %s, want 100", got)
	}
}

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	if got := pearson(x, []float64{2, 4, 6, 8}); relDiff(got, 1) > 1e-12 {
		t.Errorf("perfect positive correlation = %v, want 1", got)
	}
	if got := pearson(x, []float64{8, 6, 4, 2}); relDiff(got, -1) > 1e-12 {
		t.Errorf("perfect negative correlation = %v, want -1", got)
	}
	if got := pearson(x, []float64{5, 5, 5, 5}); got != 0 {
		t.Errorf("zero-variance correlation = %v, want 0", got)
	}
}
