package simulation

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

// The SWR sweep tests candidate withdrawal rates from 2.0% to 8.0% in 0.5%
// steps. 2.0% is also the conservative fallback when no rate qualifies.
const (
	swrMin  = 2.0
	swrMax  = 8.0
	swrStep = 0.5
)

// Sequence-risk windows: the first five simulated years against the last five
// (or months 60 onward when the horizon is under ten years).
const sequenceWindowMonths = 60

// DownsideDeviation is the root-mean-square distance from the population mean,
// taken over the below-mean subset only. Returns 0 when no value is below the
// mean.
func DownsideDeviation(values []decimal.Decimal) decimal.Decimal {
	floats := toFloats(values)
	mean := meanOf(floats)

	sum := 0.0
	count := 0
	for _, v := range floats {
		if v < mean {
			d := v - mean
			sum += d * d
			count++
		}
	}
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(math.Sqrt(sum / float64(count)))
}

// MaxDrawdown estimates the maximum peak-to-trough decline, in percent, of
// the mean-balance time series.
func MaxDrawdown(band domain.TimeSeriesBand) decimal.Decimal {
	if len(band.MeanBalance) == 0 {
		return decimal.Zero
	}

	peak := band.MeanBalance[0].InexactFloat64()
	maxDD := 0.0
	for _, b := range band.MeanBalance {
		balance := b.InexactFloat64()
		if balance > peak {
			peak = balance
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - balance) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return decimal.NewFromFloat(maxDD)
}

// ValueAtRisk returns the 5th-percentile terminal value (VaR at 95%) and the
// mean of the values at or below it (conditional VaR).
func ValueAtRisk(values []decimal.Decimal) (vaR, cvaR decimal.Decimal) {
	if len(values) == 0 {
		return decimal.Zero, decimal.Zero
	}
	floats := toFloats(values)
	sort.Float64s(floats)

	threshold := percentileOf(floats, 5)

	sum := 0.0
	count := 0
	for _, v := range floats {
		if v <= threshold {
			sum += v
			count++
		}
	}
	cv := threshold
	if count > 0 {
		cv = sum / float64(count)
	}
	return decimal.NewFromFloat(threshold), decimal.NewFromFloat(cv)
}

// AnalyzeSequenceRisk compares early-window against late-window average
// returns across scenarios and correlates the early average return with the
// terminal balance. The 0-100 score is the coefficient of variation of
// terminal balances, capped at 100.
func AnalyzeSequenceRisk(traces []domain.ScenarioTrace) domain.SequenceRisk {
	var earlyAverages, terminals []float64

	for _, tr := range traces {
		if len(tr) < sequenceWindowMonths {
			continue
		}
		early := tr[:sequenceWindowMonths]
		sum := 0.0
		for _, rec := range early {
			sum += rec.Return.InexactFloat64()
		}
		earlyAverages = append(earlyAverages, sum/float64(len(early)))
		terminals = append(terminals, tr.TerminalBalance().InexactFloat64())
	}

	correlation := 0.0
	if len(earlyAverages) > 1 {
		correlation = pearson(earlyAverages, terminals)
	}

	return domain.SequenceRisk{
		EarlyReturnCorrelation: decimal.NewFromFloat(correlation),
		Score:                  sequenceRiskScore(traces),
	}
}

// sequenceRiskScore is the coefficient of variation (std/mean x 100) of
// terminal balances, capped at 100. A zero-mean population scores 100.
func sequenceRiskScore(traces []domain.ScenarioTrace) decimal.Decimal {
	if len(traces) == 0 {
		return decimal.Zero
	}

	terminals := make([]float64, len(traces))
	for i, tr := range traces {
		terminals[i] = tr.TerminalBalance().InexactFloat64()
	}

	mean := meanOf(terminals)
	if mean == 0 {
		return decimal.NewFromInt(100)
	}
	cv := stdDevOf(terminals, mean) / mean * 100
	return decimal.NewFromFloat(math.Min(100, cv))
}

// SWRSweep recomputes, for each candidate rate, the share of scenarios whose
// actual total withdrawn stayed within the budget that rate allows
// (rate x horizon-years x starting balance). The 95/90/80 lookups report the
// lowest tested rate meeting the threshold, defaulting to the 2.0% minimum.
func SWRSweep(startAmount decimal.Decimal, withdrawnTotals []decimal.Decimal, horizonYears int) domain.SWRAnalysis {
	start := startAmount.InexactFloat64()
	totals := toFloats(withdrawnTotals)

	analysis := domain.SWRAnalysis{}
	for rate := swrMin; rate <= swrMax+swrStep/2; rate += swrStep {
		budget := start * (rate / 100) * float64(horizonYears)
		successes := 0
		for _, withdrawn := range totals {
			if withdrawn <= budget {
				successes++
			}
		}
		probability := 0.0
		if len(totals) > 0 {
			probability = float64(successes) / float64(len(totals)) * 100
		}
		analysis.Points = append(analysis.Points, domain.SWRPoint{
			Rate:               decimal.NewFromFloat(rate),
			SuccessProbability: decimal.NewFromFloat(probability),
		})
	}

	analysis.SWR95 = swrForSuccessRate(analysis.Points, 95)
	analysis.SWR90 = swrForSuccessRate(analysis.Points, 90)
	analysis.SWR80 = swrForSuccessRate(analysis.Points, 80)
	return analysis
}

func swrForSuccessRate(points []domain.SWRPoint, target float64) decimal.Decimal {
	threshold := decimal.NewFromFloat(target)
	for _, pt := range points {
		if pt.SuccessProbability.GreaterThanOrEqual(threshold) {
			return pt.Rate
		}
	}
	return decimal.NewFromFloat(swrMin)
}

// RecommendedSWR scales the configured target rate down by success-probability
// bands: full rate at 95%+, then 90%, 80%, and 70% of it.
func RecommendedSWR(successProbability decimal.Decimal, targetRate decimal.Decimal) decimal.Decimal {
	switch {
	case successProbability.GreaterThanOrEqual(decimal.NewFromInt(95)):
		return targetRate
	case successProbability.GreaterThanOrEqual(decimal.NewFromInt(90)):
		return targetRate.Mul(decimal.NewFromFloat(0.9))
	case successProbability.GreaterThanOrEqual(decimal.NewFromInt(80)):
		return targetRate.Mul(decimal.NewFromFloat(0.8))
	default:
		return targetRate.Mul(decimal.NewFromFloat(0.7))
	}
}

// pearson computes the Pearson correlation of two equal-length samples on raw
// values. Zero-variance samples correlate 0 by definition here.
func pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}
	meanX := meanOf(x)
	meanY := meanOf(y)

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}
