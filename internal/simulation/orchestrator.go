package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

// withdrawalSeedOffset keeps the decumulation randomness stream disjoint from
// the accumulation stream when both phases run from the same base seed.
const withdrawalSeedOffset = 100000

// transportSampleCap bounds the raw terminal-value sample included in
// reports; the full population still feeds every statistic.
const transportSampleCap = 1000

// maxTraceCells bounds iterations x horizon-months so an oversized request is
// rejected up front instead of silently truncated or OOM-killed.
const maxTraceCells = 500_000_000

// Orchestrator fans out N independent, seed-isolated scenario simulations and
// drives the aggregation pipeline. It is stateless between invocations.
type Orchestrator struct {
	Logger Logger
	// Workers bounds concurrent scenarios; zero means GOMAXPROCS.
	Workers int
}

// NewOrchestrator creates an orchestrator with a no-op logger.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{Logger: NopLogger{}}
}

// SetLogger sets the logger. A nil logger restores the no-op default.
func (o *Orchestrator) SetLogger(l Logger) {
	if l == nil {
		o.Logger = NopLogger{}
		return
	}
	o.Logger = l
}

// RunAccumulation simulates the contribution phase across all iterations and
// aggregates terminal values, time bands, and the accumulation risk block.
func (o *Orchestrator) RunAccumulation(ctx context.Context, p *domain.Parameters) (*domain.AccumulationReport, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := checkBudget(p.Iterations, p.AccumulationMonths()); err != nil {
		return nil, err
	}
	baseSeed := o.baseSeed(p)
	return o.runAccumulationPhase(ctx, p, baseSeed)
}

// RunWithdrawal simulates the decumulation phase from the given starting
// balance and aggregates success probability, SWR sweep, and risk metrics.
func (o *Orchestrator) RunWithdrawal(ctx context.Context, p *domain.Parameters, startAmount decimal.Decimal) (*domain.WithdrawalReport, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := checkBudget(p.Iterations, p.WithdrawalMonths()); err != nil {
		return nil, err
	}
	baseSeed := o.baseSeed(p)
	return o.runWithdrawalPhase(ctx, p, startAmount, baseSeed)
}

// RunComprehensive runs the phases selected by the configured mode and
// produces the combined lifecycle summary. In mixed mode the withdrawal phase
// starts from the accumulation phase's mean terminal balance.
func (o *Orchestrator) RunComprehensive(ctx context.Context, p *domain.Parameters) (*domain.ComprehensiveReport, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	months := 0
	if p.Mode != domain.ModeWithdrawal {
		months += p.AccumulationMonths()
	}
	if p.Mode != domain.ModeAccumulation {
		months += p.WithdrawalMonths()
	}
	if err := checkBudget(p.Iterations, months); err != nil {
		return nil, err
	}

	baseSeed := o.baseSeed(p)
	report := &domain.ComprehensiveReport{Parameters: p}

	if p.Mode == domain.ModeAccumulation || p.Mode == domain.ModeMixed {
		acc, err := o.runAccumulationPhase(ctx, p, baseSeed)
		if err != nil {
			return nil, err
		}
		report.Accumulation = acc
	}

	if p.Mode == domain.ModeWithdrawal || p.Mode == domain.ModeMixed {
		startAmount := p.InitialAmount
		if report.Accumulation != nil {
			startAmount = report.Accumulation.NominalStats.Mean
		}
		wd, err := o.runWithdrawalPhase(ctx, p, startAmount, baseSeed)
		if err != nil {
			return nil, err
		}
		report.Withdrawal = wd
	}

	report.Combined = combinedAnalysis(report.Accumulation, report.Withdrawal)
	return report, nil
}

func (o *Orchestrator) runAccumulationPhase(ctx context.Context, p *domain.Parameters, baseSeed int64) (*domain.AccumulationReport, error) {
	o.Logger.Infof("accumulation: %d scenarios over %d months", p.Iterations, p.AccumulationMonths())

	gen := NewMarketConditionGenerator(p)
	sim := NewAccumulationSimulator(p)
	months := p.AccumulationMonths()

	results := make([]AccumulationResult, p.Iterations)
	err := o.forEachScenario(ctx, p.Iterations, func(i int) error {
		rng := rand.New(rand.NewSource(baseSeed + int64(i)))
		mc, err := gen.Generate(rng, months)
		if err != nil {
			return err
		}
		results[i] = sim.Run(mc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	finals := make([]decimal.Decimal, len(results))
	traces := make([]domain.ScenarioTrace, len(results))
	for i, r := range results {
		finals[i] = r.FinalAmount
		traces[i] = r.Trace
	}

	nominal, err := Describe(finals, p.Percentiles)
	if err != nil {
		return nil, err
	}

	totalInvested := sim.TotalInvested(p.AccumulationYears)

	realAmounts := AdjustForInflation(finals, p.InflationRate, p.AccumulationYears)
	realStats, err := Describe(realAmounts, p.Percentiles)
	if err != nil {
		return nil, err
	}

	afterTax := ApplyTaxes(finals, totalInvested, p.TaxSystem, p.TaxRate)
	taxStats, err := Describe(afterTax, p.Percentiles)
	if err != nil {
		return nil, err
	}

	band := MonthlyBands(traces)
	vaR, cvaR := ValueAtRisk(finals)

	return &domain.AccumulationReport{
		FinalAmounts:  capSample(finals),
		Band:          band,
		NominalStats:  nominal,
		RealStats:     realStats,
		AfterTaxStats: taxStats,
		TotalInvested: totalInvested,
		InflationImpact: domain.InflationImpact{
			NominalValue:        nominal.Mean,
			RealValue:           realStats.Mean,
			PurchasingPowerLoss: lossPercent(nominal.Mean, realStats.Mean),
			RealReturnPercent:   returnPercent(realStats.Mean, totalInvested),
		},
		TaxImpact: domain.TaxImpact{
			PreTaxValue:    nominal.Mean,
			AfterTaxValue:  taxStats.Mean,
			TaxCost:        nominal.Mean.Sub(taxStats.Mean),
			TaxCostPercent: lossPercent(nominal.Mean, taxStats.Mean),
		},
		Risk: domain.AccumulationRisk{
			Volatility:        coefficientOfVariation(nominal.StdDev, nominal.Mean),
			DownsideDeviation: DownsideDeviation(finals),
			MaxDrawdown:       MaxDrawdown(band),
			VaR95:             vaR,
			CVaR95:            cvaR,
		},
	}, nil
}

func (o *Orchestrator) runWithdrawalPhase(ctx context.Context, p *domain.Parameters, startAmount decimal.Decimal, baseSeed int64) (*domain.WithdrawalReport, error) {
	o.Logger.Infof("withdrawal: %d scenarios over %d months from %s", p.Iterations, p.WithdrawalMonths(), startAmount.StringFixed(2))

	gen := NewMarketConditionGenerator(p)
	sim := NewWithdrawalSimulator(p, startAmount)
	months := p.WithdrawalMonths()

	results := make([]WithdrawalResult, p.Iterations)
	err := o.forEachScenario(ctx, p.Iterations, func(i int) error {
		rng := rand.New(rand.NewSource(baseSeed + withdrawalSeedOffset + int64(i)))
		mc, err := gen.Generate(rng, months)
		if err != nil {
			return err
		}
		results[i] = sim.Run(mc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	finals := make([]decimal.Decimal, len(results))
	withdrawn := make([]decimal.Decimal, len(results))
	traces := make([]domain.ScenarioTrace, len(results))
	incomes := make([]decimal.Decimal, len(results))
	successes := 0
	for i, r := range results {
		finals[i] = r.FinalAmount
		withdrawn[i] = r.TotalWithdrawn
		traces[i] = r.Trace
		incomes[i] = r.TotalWithdrawn.Div(decimal.NewFromInt(int64(months)))
		if r.Success {
			successes++
		}
	}

	successProbability := decimal.NewFromInt(int64(successes)).
		Div(decimal.NewFromInt(int64(len(results)))).
		Mul(decimal.NewFromInt(100))

	finalStats, err := Describe(finals, p.Percentiles)
	if err != nil {
		return nil, err
	}
	withdrawnStats, err := Describe(withdrawn, p.Percentiles)
	if err != nil {
		return nil, err
	}
	incomeStats, err := Describe(incomes, []float64{5, 25, 75, 95})
	if err != nil {
		return nil, err
	}

	return &domain.WithdrawalReport{
		StartAmount:        startAmount,
		SuccessProbability: successProbability,
		FinalAmounts:       capSample(finals),
		WithdrawnTotals:    capSample(withdrawn),
		Band:               MonthlyBands(traces),
		FinalStats:         finalStats,
		WithdrawnStats:     withdrawnStats,
		SWR:                SWRSweep(startAmount, withdrawn, p.WithdrawalYears),
		SequenceRisk:       AnalyzeSequenceRisk(traces),
		RecommendedSWR:     RecommendedSWR(successProbability, p.TargetWithdrawalRate),
		Income: domain.IncomeStatistics{
			Mean:        incomeStats.Mean,
			Median:      incomeStats.Median,
			Min:         incomeStats.Min,
			Max:         incomeStats.Max,
			Percentiles: incomeStats.Percentiles,
		},
		Risk: domain.WithdrawalRisk{
			FailureProbability: decimal.NewFromInt(100).Sub(successProbability),
			SequenceRiskScore:  sequenceRiskScore(traces),
			IncomeVolatility:   coefficientOfVariation(withdrawnStats.StdDev, withdrawnStats.Mean),
		},
	}, nil
}

// forEachScenario dispatches independent scenario closures across a bounded
// worker pool. Cancellation stops further dispatch and the partial results
// are discarded by returning the context error.
func (o *Orchestrator) forEachScenario(ctx context.Context, n int, run func(i int) error) error {
	limit := o.Workers
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, limit)

	var mu sync.Mutex
	var firstErr error

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			wg.Wait()
			return fmt.Errorf("simulation abandoned: %w", ctx.Err())
		default:
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := run(idx); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("simulation abandoned: %w", err)
	}
	return firstErr
}

func (o *Orchestrator) baseSeed(p *domain.Parameters) int64 {
	if p.Seed != 0 {
		return p.Seed
	}
	return seedFunc()
}

func checkBudget(iterations, months int) error {
	if int64(iterations)*int64(months) > maxTraceCells {
		return fmt.Errorf("%w: %d iterations x %d months exceeds the trace budget",
			domain.ErrResourceExhausted, iterations, months)
	}
	return nil
}

func capSample(values []decimal.Decimal) []decimal.Decimal {
	if len(values) <= transportSampleCap {
		return append([]decimal.Decimal(nil), values...)
	}
	return append([]decimal.Decimal(nil), values[:transportSampleCap]...)
}

// lossPercent is the relative shrinkage from a reference value, in percent.
func lossPercent(reference, actual decimal.Decimal) decimal.Decimal {
	if reference.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	one := decimal.NewFromInt(1)
	return one.Sub(actual.Div(reference)).Mul(decimal.NewFromInt(100))
}

// returnPercent is (value/invested - 1) x 100.
func returnPercent(value, invested decimal.Decimal) decimal.Decimal {
	if invested.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	one := decimal.NewFromInt(1)
	return value.Div(invested).Sub(one).Mul(decimal.NewFromInt(100))
}

func coefficientOfVariation(std, mean decimal.Decimal) decimal.Decimal {
	if mean.IsZero() {
		return decimal.Zero
	}
	return std.Div(mean).Mul(decimal.NewFromInt(100))
}

// combinedAnalysis produces the lifecycle summary; it requires both phases.
func combinedAnalysis(acc *domain.AccumulationReport, wd *domain.WithdrawalReport) *domain.CombinedAnalysis {
	if acc == nil || wd == nil {
		return nil
	}

	totalInvested := acc.TotalInvested
	totalWithdrawnMean := wd.WithdrawnStats.Mean
	lifetimeReturn := returnPercent(totalWithdrawnMean, totalInvested)

	// Risk-adjusted score discounts the lifetime return by withdrawal
	// variability (coefficient of variation as a fraction).
	score := lifetimeReturn
	if !wd.WithdrawnStats.Mean.IsZero() {
		cv := wd.WithdrawnStats.StdDev.Div(wd.WithdrawnStats.Mean)
		if cv.GreaterThan(decimal.Zero) {
			score = lifetimeReturn.Div(decimal.NewFromInt(1).Add(cv))
		}
	}

	combined := &domain.CombinedAnalysis{
		TotalInvested:      totalInvested,
		TotalWithdrawnMean: totalWithdrawnMean,
		LifetimeReturn:     lifetimeReturn,
		RiskAdjustedScore:  score,
		SuccessProbability: wd.SuccessProbability,
		OptimalSWR:         wd.RecommendedSWR,
	}
	combined.Recommendations = recommend(acc, wd)
	combined.Confidence = "high"
	if len(combined.Recommendations) > 0 {
		combined.Confidence = "medium"
	}
	return combined
}

// recommend derives the qualitative strategy flags from phase results.
func recommend(acc *domain.AccumulationReport, wd *domain.WithdrawalReport) []domain.Recommendation {
	var recs []domain.Recommendation

	if wd != nil {
		if wd.SuccessProbability.LessThan(decimal.NewFromInt(85)) {
			recs = append(recs, domain.Recommendation{
				Kind: "warning",
				Message: fmt.Sprintf("Low success probability (%s%%). Consider reducing the withdrawal rate to %s%%",
					wd.SuccessProbability.StringFixed(1), wd.RecommendedSWR.StringFixed(1)),
			})
		}
		if wd.RecommendedSWR.LessThan(decimal.NewFromFloat(3.5)) {
			recs = append(recs, domain.Recommendation{
				Kind:    "info",
				Message: "Conservative strategy. Consider a higher equity share for growth",
			})
		}
	}

	if acc != nil && acc.InflationImpact.RealReturnPercent.LessThan(decimal.NewFromInt(3)) {
		recs = append(recs, domain.Recommendation{
			Kind:    "warning",
			Message: "Low real return. Consider a more aggressive allocation",
		})
	}

	return recs
}
