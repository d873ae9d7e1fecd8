package simulation

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

// Describe reduces a population of scalar values into descriptive statistics.
// The reduction is permutation-invariant: values are copied and sorted
// internally. Fails fast with ErrAggregationInputEmpty on a zero-scenario
// population.
func Describe(values []decimal.Decimal, percentiles []float64) (domain.AggregateStatistics, error) {
	if len(values) == 0 {
		return domain.AggregateStatistics{}, fmt.Errorf("%w: no values to describe",
			domain.ErrAggregationInputEmpty)
	}

	sorted := toFloats(values)
	sort.Float64s(sorted)

	mean := meanOf(sorted)
	std := stdDevOf(sorted, mean)

	stats := domain.AggregateStatistics{
		Mean:        decimal.NewFromFloat(mean),
		Median:      decimal.NewFromFloat(percentileOf(sorted, 50)),
		StdDev:      decimal.NewFromFloat(std),
		Min:         decimal.NewFromFloat(sorted[0]),
		Max:         decimal.NewFromFloat(sorted[len(sorted)-1]),
		Percentiles: make(map[string]decimal.Decimal, len(percentiles)),
	}

	// A zero-variance population has skewness and kurtosis defined as 0.
	if std > 0 {
		var skew, kurt float64
		for _, v := range sorted {
			z := (v - mean) / std
			skew += z * z * z
			kurt += z * z * z * z
		}
		n := float64(len(sorted))
		stats.Skewness = decimal.NewFromFloat(skew / n)
		stats.Kurtosis = decimal.NewFromFloat(kurt/n - 3)
	} else {
		stats.Skewness = decimal.Zero
		stats.Kurtosis = decimal.Zero
	}

	for _, p := range percentiles {
		stats.Percentiles[PercentileKey(p)] = decimal.NewFromFloat(percentileOf(sorted, p))
	}

	return stats, nil
}

// MonthlyBands computes, per month index across all traces, the mean balance
// and the {5,25,75,95} percentile band. Traces of unequal length are
// tolerated: only scenarios with data at a month contribute to it.
func MonthlyBands(traces []domain.ScenarioTrace) domain.TimeSeriesBand {
	maxMonths := 0
	for _, tr := range traces {
		if len(tr) > maxMonths {
			maxMonths = len(tr)
		}
	}

	band := domain.TimeSeriesBand{
		Months:       make([]int, 0, maxMonths),
		MeanBalance:  make([]decimal.Decimal, 0, maxMonths),
		Percentile5:  make([]decimal.Decimal, 0, maxMonths),
		Percentile25: make([]decimal.Decimal, 0, maxMonths),
		Percentile75: make([]decimal.Decimal, 0, maxMonths),
		Percentile95: make([]decimal.Decimal, 0, maxMonths),
	}

	balances := make([]float64, 0, len(traces))
	for month := 0; month < maxMonths; month++ {
		balances = balances[:0]
		for _, tr := range traces {
			if month < len(tr) {
				balances = append(balances, tr[month].Balance.InexactFloat64())
			}
		}
		if len(balances) == 0 {
			continue
		}
		sort.Float64s(balances)

		band.Months = append(band.Months, month)
		band.MeanBalance = append(band.MeanBalance, decimal.NewFromFloat(meanOf(balances)))
		band.Percentile5 = append(band.Percentile5, decimal.NewFromFloat(percentileOf(balances, 5)))
		band.Percentile25 = append(band.Percentile25, decimal.NewFromFloat(percentileOf(balances, 25)))
		band.Percentile75 = append(band.Percentile75, decimal.NewFromFloat(percentileOf(balances, 75)))
		band.Percentile95 = append(band.Percentile95, decimal.NewFromFloat(percentileOf(balances, 95)))
	}

	return band
}

// PercentileKey renders a percentile map key the way the reports expose it
// ("95", "97.5").
func PercentileKey(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// percentileOf interpolates linearly on a sorted slice (the 0th percentile is
// the minimum, the 100th the maximum).
func percentileOf(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDevOf computes the population standard deviation.
func stdDevOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func toFloats(values []decimal.Decimal) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.InexactFloat64()
	}
	return out
}
