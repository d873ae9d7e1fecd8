package simulation

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

// autocorrWeight blends each month's drawn return with the previous month's
// realized return, injecting short-term trend persistence.
const autocorrWeight = 0.1

// betaVariance is the assumed variance (in normalized [0,1] units) used by the
// method-of-moments fit of the bounded Beta distribution.
const betaVariance = 0.04

// MarketConditions is one scenario's monthly sequence of portfolio returns and
// inflation rates, both as monthly fractions. Owned exclusively by the
// scenario that generated it and never mutated after creation.
type MarketConditions struct {
	Returns   []float64
	Inflation []float64
}

// MarketConditionGenerator produces per-scenario market-condition series from
// distributional parameters. Annual rate and volatility are drawn once per
// calendar year from a Beta distribution scaled into [min, max] (or held
// constant when the range collapses), then converted to monthly terms.
type MarketConditionGenerator struct {
	InterestRate        domain.RangeParam
	Volatility          domain.RangeParam
	InflationRate       float64 // percent per year
	InflationVolatility float64 // percent per year
}

// NewMarketConditionGenerator builds a generator from the validated parameter set.
func NewMarketConditionGenerator(p *domain.Parameters) *MarketConditionGenerator {
	return &MarketConditionGenerator{
		InterestRate:        p.InterestRate,
		Volatility:          p.Volatility,
		InflationRate:       p.InflationRate.InexactFloat64(),
		InflationVolatility: p.InflationVolatility.InexactFloat64(),
	}
}

// Generate produces the market-condition series for exactly one scenario.
// Deterministic given the same rng state and parameters.
func (g *MarketConditionGenerator) Generate(rng *rand.Rand, months int) (*MarketConditions, error) {
	if months <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d months",
			domain.ErrInvalidParameterRange, months)
	}

	years := months/12 + 1
	annualRates, err := drawAnnualSeries(rng, g.InterestRate, years, "interest rate")
	if err != nil {
		return nil, err
	}
	annualVols, err := drawAnnualSeries(rng, g.Volatility, years, "volatility")
	if err != nil {
		return nil, err
	}

	mc := &MarketConditions{
		Returns:   make([]float64, months),
		Inflation: make([]float64, months),
	}

	monthlyInflation := g.InflationRate / 100 / 12
	inflationVol := g.InflationVolatility / 100 / 12

	for month := 0; month < months; month++ {
		yearIdx := month / 12
		if yearIdx >= len(annualRates) {
			yearIdx = len(annualRates) - 1
		}

		annualRate := annualRates[yearIdx] / 100
		annualVol := annualVols[yearIdx] / 100

		// Compound-interest conversion for the rate, sqrt(12) scaling for
		// volatility.
		monthlyRate := math.Pow(1+annualRate, 1.0/12) - 1
		monthlyVol := annualVol / math.Sqrt(12)

		draw := monthlyRate + drawNormal(rng)*monthlyVol
		if month == 0 {
			mc.Returns[month] = draw
		} else {
			mc.Returns[month] = autocorrWeight*mc.Returns[month-1] + (1-autocorrWeight)*draw
		}

		mc.Inflation[month] = monthlyInflation + drawNormal(rng)*inflationVol
	}

	return mc, nil
}

// drawAnnualSeries draws one annual value per calendar year from the fitted
// bounded distribution, or repeats the constant mean when the range collapses.
func drawAnnualSeries(rng *rand.Rand, r domain.RangeParam, years int, name string) ([]float64, error) {
	min := r.Min.InexactFloat64()
	max := r.Max.InexactFloat64()
	mean := r.Mean.InexactFloat64()

	if max < min {
		return nil, fmt.Errorf("%w: %s max (%v) is less than min (%v)",
			domain.ErrInvalidParameterRange, name, max, min)
	}

	out := make([]float64, years)
	if r.Constant() {
		for i := range out {
			out[i] = mean
		}
		return out, nil
	}

	alpha, beta := betaShapeFromMeanRange(mean, min, max)
	for i := range out {
		out[i] = min + sampleBeta(rng, alpha, beta)*(max-min)
	}
	return out, nil
}

// betaShapeFromMeanRange fits Beta shape parameters by method of moments with
// an assumed variance, after normalizing the mean into (0.01, 0.99) to avoid
// degenerate shapes. Both parameters are floored at 0.5.
func betaShapeFromMeanRange(mean, min, max float64) (alpha, beta float64) {
	normalized := (mean - min) / (max - min)
	normalized = math.Max(0.01, math.Min(0.99, normalized))

	common := normalized*(1-normalized)/betaVariance - 1
	alpha = normalized * common
	beta = (1 - normalized) * common

	alpha = math.Max(0.5, alpha)
	beta = math.Max(0.5, beta)
	return alpha, beta
}

// sampleBeta draws from Beta(alpha, beta) via the ratio of two Gamma variates.
func sampleBeta(rng *rand.Rand, alpha, beta float64) float64 {
	x := sampleGamma(rng, alpha)
	y := sampleGamma(rng, beta)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// sampleGamma draws from Gamma(shape, 1) using the Marsaglia-Tsang squeeze
// method, with the standard uniform boost for shape < 1.
func sampleGamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := uniformOpen(rng)
		return sampleGamma(rng, shape+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3
	c := 1 / math.Sqrt(9*d)
	for {
		x := drawNormal(rng)
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := uniformOpen(rng)
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// drawNormal returns a standard normal variate via the Box-Muller transform.
func drawNormal(rng *rand.Rand) float64 {
	u1 := uniformOpen(rng)
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// uniformOpen draws from (0, 1], keeping math.Log well defined.
func uniformOpen(rng *rand.Rand) float64 {
	return 1 - rng.Float64()
}
