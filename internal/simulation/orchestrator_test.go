package simulation

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

func testParameters(mode domain.CalculationMode) *domain.Parameters {
	p := &domain.Parameters{
		Mode:           mode,
		InitialAmount:  decimal.NewFromInt(10000),
		MonthlyDeposit: decimal.NewFromInt(500),
		InterestRate: domain.RangeParam{
			Min:  decimal.NewFromInt(4),
			Max:  decimal.NewFromInt(12),
			Mean: decimal.NewFromInt(8),
		},
		Volatility: domain.RangeParam{
			Min:  decimal.NewFromInt(10),
			Max:  decimal.NewFromInt(20),
			Mean: decimal.NewFromInt(15),
		},
		AccumulationYears:    10,
		WithdrawalYears:      20,
		InflationRate:        decimal.NewFromFloat(2.5),
		TargetWithdrawalRate: decimal.NewFromInt(4),
		Iterations:           200,
		Seed:                 12345,
	}
	p.ApplyDefaults()
	return p
}

func TestRunAccumulationDeterministicWithSeed(t *testing.T) {
	orch := NewOrchestrator()
	p := testParameters(domain.ModeAccumulation)

	a, err := orch.RunAccumulation(context.Background(), p)
	if err != nil {
		t.Fatalf("RunAccumulation failed: %v", err)
	}
	b, err := orch.RunAccumulation(context.Background(), p)
	if err != nil {
		t.Fatalf("RunAccumulation failed: %v", err)
	}

	// Worker scheduling must not leak into the results: a fixed seed gives
	// identical aggregates across runs.
	if !a.NominalStats.Mean.Equal(b.NominalStats.Mean) {
		t.Errorf("mean differs across runs: %s vs %s", a.NominalStats.Mean, b.NominalStats.Mean)
	}
	if !a.NominalStats.StdDev.Equal(b.NominalStats.StdDev) {
		t.Errorf("std differs across runs: %s vs %s", a.NominalStats.StdDev, b.NominalStats.StdDev)
	}
	if !a.Risk.VaR95.Equal(b.Risk.VaR95) {
		t.Errorf("VaR differs across runs: %s vs %s", a.Risk.VaR95, b.Risk.VaR95)
	}
}

func TestRunAccumulationReportShape(t *testing.T) {
	orch := NewOrchestrator()
	p := testParameters(domain.ModeAccumulation)

	report, err := orch.RunAccumulation(context.Background(), p)
	if err != nil {
		t.Fatalf("RunAccumulation failed: %v", err)
	}

	if len(report.FinalAmounts) != p.Iterations {
		t.Errorf("final amounts sample = %d, want %d", len(report.FinalAmounts), p.Iterations)
	}
	if len(report.Band.Months) != p.AccumulationMonths() {
		t.Errorf("band months = %d, want %d", len(report.Band.Months), p.AccumulationMonths())
	}
	if !report.TotalInvested.GreaterThan(decimal.Zero) {
		t.Error("total invested must be positive")
	}
	for _, key := range []string{"99", "95", "50", "5", "1"} {
		if _, ok := report.NominalStats.Percentiles[key]; !ok {
			t.Errorf("missing default percentile %q", key)
		}
	}
	// Real values discount nominal ones under positive inflation.
	if !report.InflationImpact.RealValue.LessThan(report.InflationImpact.NominalValue) {
		t.Error("real value not below nominal value")
	}
}

func TestRunWithdrawalReportShape(t *testing.T) {
	orch := NewOrchestrator()
	p := testParameters(domain.ModeWithdrawal)

	report, err := orch.RunWithdrawal(context.Background(), p, decimal.NewFromInt(1000000))
	if err != nil {
		t.Fatalf("RunWithdrawal failed: %v", err)
	}

	if !report.StartAmount.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("start amount = %s, want 1000000", report.StartAmount)
	}
	if report.SuccessProbability.LessThan(decimal.Zero) || report.SuccessProbability.GreaterThan(decimal.NewFromInt(100)) {
		t.Errorf("success probability %s outside [0, 100]", report.SuccessProbability)
	}

	// Failure probability is the exact complement.
	sum := report.SuccessProbability.Add(report.Risk.FailureProbability)
	if !sum.Equal(decimal.NewFromInt(100)) {
		t.Errorf("success + failure = %s, want 100", sum)
	}

	if len(report.SWR.Points) != 13 {
		t.Errorf("SWR sweep points = %d, want 13", len(report.SWR.Points))
	}
	if !report.Income.Mean.GreaterThan(decimal.Zero) {
		t.Error("expected positive mean monthly income")
	}
}

func TestRunComprehensiveMixedChainsPhases(t *testing.T) {
	orch := NewOrchestrator()
	p := testParameters(domain.ModeMixed)

	report, err := orch.RunComprehensive(context.Background(), p)
	if err != nil {
		t.Fatalf("RunComprehensive failed: %v", err)
	}

	if report.Accumulation == nil || report.Withdrawal == nil || report.Combined == nil {
		t.Fatal("mixed mode must produce both phases and the combined analysis")
	}
	// The withdrawal phase starts from the accumulation mean.
	if !report.Withdrawal.StartAmount.Equal(report.Accumulation.NominalStats.Mean) {
		t.Errorf("withdrawal start %s != accumulation mean %s",
			report.Withdrawal.StartAmount, report.Accumulation.NominalStats.Mean)
	}
	if report.Combined.Confidence != "high" && report.Combined.Confidence != "medium" {
		t.Errorf("unexpected confidence %q", report.Combined.Confidence)
	}
}

func TestRunComprehensiveSingleModeOmitsOtherPhase(t *testing.T) {
	orch := NewOrchestrator()

	report, err := orch.RunComprehensive(context.Background(), testParameters(domain.ModeAccumulation))
	if err != nil {
		t.Fatalf("RunComprehensive failed: %v", err)
	}
	if report.Accumulation == nil {
		t.Error("accumulation mode must produce the accumulation phase")
	}
	if report.Withdrawal != nil || report.Combined != nil {
		t.Error("accumulation mode must omit the withdrawal phase and combined analysis")
	}
}

func TestRunSingleIteration(t *testing.T) {
	orch := NewOrchestrator()
	p := testParameters(domain.ModeAccumulation)
	p.Iterations = 1

	report, err := orch.RunAccumulation(context.Background(), p)
	if err != nil {
		t.Fatalf("single-iteration run failed: %v", err)
	}
	if !report.NominalStats.Mean.Equal(report.NominalStats.Median) {
		t.Error("single scenario: mean and median must coincide")
	}
	if !report.NominalStats.StdDev.Equal(decimal.Zero) {
		t.Errorf("single scenario std = %s, want 0", report.NominalStats.StdDev)
	}
}

func TestRunRejectsInvalidParameters(t *testing.T) {
	orch := NewOrchestrator()
	p := testParameters(domain.ModeAccumulation)
	p.InterestRate.Max = decimal.NewFromInt(2) // below min

	if _, err := orch.RunAccumulation(context.Background(), p); !errors.Is(err, domain.ErrInvalidParameterRange) {
		t.Errorf("expected ErrInvalidParameterRange, got %v", err)
	}
}

func TestRunRejectsOversizedRequest(t *testing.T) {
	orch := NewOrchestrator()
	p := testParameters(domain.ModeAccumulation)
	p.Iterations = 1_000_000
	p.AccumulationYears = 90

	if _, err := orch.RunAccumulation(context.Background(), p); !errors.Is(err, domain.ErrResourceExhausted) {
		t.Errorf("expected ErrResourceExhausted, got %v", err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	orch := NewOrchestrator()
	p := testParameters(domain.ModeAccumulation)
	p.Iterations = 5000

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := orch.RunAccumulation(ctx, p); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSeedFuncOverride(t *testing.T) {
	SetSeedFunc(func() int64 { return 999 })
	defer SetSeedFunc(nil)

	orch := NewOrchestrator()
	p := testParameters(domain.ModeAccumulation)
	p.Seed = 0 // force the seed function path
	p.Iterations = 50

	a, err := orch.RunAccumulation(context.Background(), p)
	if err != nil {
		t.Fatalf("RunAccumulation failed: %v", err)
	}
	b, err := orch.RunAccumulation(context.Background(), p)
	if err != nil {
		t.Fatalf("RunAccumulation failed: %v", err)
	}
	if !a.NominalStats.Mean.Equal(b.NominalStats.Mean) {
		t.Error("overridden seed function must make runs reproducible")
	}
}
