package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func validParams() *Parameters {
	p := &Parameters{
		Mode:          ModeMixed,
		InitialAmount: decimal.NewFromInt(10000),
		InterestRate: RangeParam{
			Min:  decimal.NewFromInt(5),
			Max:  decimal.NewFromInt(12),
			Mean: decimal.NewFromInt(8),
		},
		Volatility: RangeParam{
			Min:  decimal.NewFromInt(10),
			Max:  decimal.NewFromInt(25),
			Mean: decimal.NewFromInt(15),
		},
		AccumulationYears:    20,
		WithdrawalYears:      30,
		TargetWithdrawalRate: decimal.NewFromInt(4),
	}
	p.ApplyDefaults()
	return p
}

func TestParseEnumerations(t *testing.T) {
	if _, err := ParseCalculationMode("mixed"); err != nil {
		t.Errorf("mixed mode rejected: %v", err)
	}
	if _, err := ParseCalculationMode("turbo"); err == nil {
		t.Error("unknown mode accepted")
	}
	if _, err := ParseDepositType("lump_sum"); err != nil {
		t.Errorf("lump_sum deposit rejected: %v", err)
	}
	if _, err := ParseTaxSystem("tiered"); err != nil {
		t.Errorf("tiered tax rejected: %v", err)
	}
	if _, err := ParseWithdrawalStrategy("dynamic"); err != nil {
		t.Errorf("dynamic strategy rejected: %v", err)
	}
	if _, err := ParseWithdrawalStrategy(""); err == nil {
		t.Error("empty strategy accepted")
	}
}

func TestApplyDefaults(t *testing.T) {
	p := &Parameters{AccumulationYears: 10}
	p.ApplyDefaults()

	if p.Mode != ModeAccumulation {
		t.Errorf("default mode = %s, want accumulation", p.Mode)
	}
	if p.DepositType != DepositMonthly {
		t.Errorf("default deposit type = %s, want monthly", p.DepositType)
	}
	if p.TaxSystem != TaxNone {
		t.Errorf("default tax system = %s, want none", p.TaxSystem)
	}
	if p.Iterations != 10000 {
		t.Errorf("default iterations = %d, want 10000", p.Iterations)
	}
	if len(p.Percentiles) != len(DefaultPercentiles) {
		t.Errorf("default percentiles length = %d, want %d", len(p.Percentiles), len(DefaultPercentiles))
	}
}

func TestValidateAcceptsValidSet(t *testing.T) {
	if err := validParams().Validate(); err != nil {
		t.Errorf("valid parameter set rejected: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Parameters)
	}{
		{"inverted interest range", func(p *Parameters) { p.InterestRate.Max = decimal.NewFromInt(2) }},
		{"mean outside range", func(p *Parameters) { p.Volatility.Mean = decimal.NewFromInt(99) }},
		{"zero accumulation years in mixed mode", func(p *Parameters) { p.AccumulationYears = 0 }},
		{"zero withdrawal years in mixed mode", func(p *Parameters) { p.WithdrawalYears = 0 }},
		{"negative iterations", func(p *Parameters) { p.Iterations = -1 }},
		{"negative initial amount", func(p *Parameters) { p.InitialAmount = decimal.NewFromInt(-1) }},
		{"negative monthly deposit", func(p *Parameters) { p.MonthlyDeposit = decimal.NewFromInt(-1) }},
		{"tax rate above 100", func(p *Parameters) { p.TaxRate = decimal.NewFromInt(150) }},
		{"negative lump sum month", func(p *Parameters) { p.LumpSums = []LumpSum{{Month: -1}} }},
		{"percentile above 100", func(p *Parameters) { p.Percentiles = []float64{150} }},
	}

	for _, tc := range cases {
		p := validParams()
		tc.mutate(p)
		if err := p.Validate(); !errors.Is(err, ErrInvalidParameterRange) {
			t.Errorf("%s: expected ErrInvalidParameterRange, got %v", tc.name, err)
		}
	}
}

func TestValidateModeScopesHorizons(t *testing.T) {
	p := validParams()
	p.Mode = ModeAccumulation
	p.WithdrawalYears = 0
	if err := p.Validate(); err != nil {
		t.Errorf("accumulation mode must not require a withdrawal horizon: %v", err)
	}

	p = validParams()
	p.Mode = ModeWithdrawal
	p.AccumulationYears = 0
	if err := p.Validate(); err != nil {
		t.Errorf("withdrawal mode must not require an accumulation horizon: %v", err)
	}
}

func TestHorizonMonths(t *testing.T) {
	p := validParams()
	if got := p.AccumulationMonths(); got != 240 {
		t.Errorf("AccumulationMonths = %d, want 240", got)
	}
	if got := p.WithdrawalMonths(); got != 360 {
		t.Errorf("WithdrawalMonths = %d, want 360", got)
	}
}

func TestScenarioTraceTerminalBalance(t *testing.T) {
	if !(ScenarioTrace{}).TerminalBalance().Equal(decimal.Zero) {
		t.Error("empty trace terminal balance must be zero")
	}
	tr := ScenarioTrace{
		{Month: 0, Balance: decimal.NewFromInt(100)},
		{Month: 1, Balance: decimal.NewFromInt(120)},
	}
	if !tr.TerminalBalance().Equal(decimal.NewFromInt(120)) {
		t.Errorf("terminal balance = %s, want 120", tr.TerminalBalance())
	}
}

func TestRangeParamConstant(t *testing.T) {
	if !constant(8).Constant() {
		t.Error("collapsed range not detected as constant")
	}
	r := RangeParam{Min: decimal.NewFromInt(5), Max: decimal.NewFromInt(10), Mean: decimal.NewFromInt(7)}
	if r.Constant() {
		t.Error("open range detected as constant")
	}
}

func constant(v int64) RangeParam {
	d := decimal.NewFromInt(v)
	return RangeParam{Min: d, Max: d, Mean: d}
}
