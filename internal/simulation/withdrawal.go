package simulation

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

// WithdrawalResult is the outcome of one decumulation-phase scenario.
// Success means the portfolio stayed solvent through the final month; a
// depleted portfolio is a modeled outcome, never an error.
type WithdrawalResult struct {
	Success        bool
	FinalAmount    decimal.Decimal
	TotalWithdrawn decimal.Decimal
	Trace          domain.ScenarioTrace
}

// WithdrawalSimulator evolves a portfolio balance through decumulation
// months, enforcing a withdrawal policy and detecting depletion.
type WithdrawalSimulator struct {
	StartAmount   decimal.Decimal
	Strategy      domain.WithdrawalStrategy
	TargetRate    float64 // percent per year
	InflationRate float64 // percent per year
	MonthlyFee    float64
}

// NewWithdrawalSimulator builds a simulator from the validated parameter set
// and a starting balance carried over from accumulation or supplied directly.
func NewWithdrawalSimulator(p *domain.Parameters, startAmount decimal.Decimal) *WithdrawalSimulator {
	return &WithdrawalSimulator{
		StartAmount:   startAmount,
		Strategy:      p.WithdrawalStrategy,
		TargetRate:    p.TargetWithdrawalRate.InexactFloat64(),
		InflationRate: p.InflationRate.InexactFloat64(),
		MonthlyFee:    p.ManagementFee.InexactFloat64() / 12 / 100,
	}
}

// Run simulates the full decumulation horizon against one market-condition
// series. Every scenario runs to completion: once depleted the remaining
// months record zero balance, zero growth, and zero withdrawal.
func (s *WithdrawalSimulator) Run(mc *MarketConditions) WithdrawalResult {
	balance := s.StartAmount
	totalWithdrawn := decimal.Zero
	trace := make(domain.ScenarioTrace, 0, len(mc.Returns))
	depleted := false

	// Base amount for the fixed_amount and dynamic strategies.
	baseWithdrawal := s.StartAmount.
		Mul(decimal.NewFromFloat(s.TargetRate / 100)).
		Div(decimal.NewFromInt(12))

	for month := range mc.Returns {
		withdrawal := s.monthlyWithdrawal(baseWithdrawal, balance, month)
		if withdrawal.GreaterThan(balance) {
			withdrawal = balance
		}
		if depleted {
			withdrawal = decimal.Zero
		}

		balance = balance.Sub(withdrawal)
		totalWithdrawn = totalWithdrawn.Add(withdrawal)

		appliedReturn := decimal.Zero
		if balance.LessThanOrEqual(decimal.Zero) {
			balance = decimal.Zero
			depleted = true
		} else {
			monthlyReturn := mc.Returns[month] - s.MonthlyFee
			balance = balance.Mul(decimal.NewFromFloat(1 + monthlyReturn))
			appliedReturn = decimal.NewFromFloat(monthlyReturn)
		}

		trace = append(trace, domain.MonthRecord{
			Month:      month,
			Balance:    balance,
			Return:     appliedReturn,
			Withdrawal: withdrawal,
		})
	}

	return WithdrawalResult{
		Success:        balance.GreaterThan(decimal.Zero),
		FinalAmount:    balance,
		TotalWithdrawn: totalWithdrawn,
		Trace:          trace,
	}
}

// monthlyWithdrawal derives the policy amount for one month before the
// available-balance cap is applied.
func (s *WithdrawalSimulator) monthlyWithdrawal(base, balance decimal.Decimal, month int) decimal.Decimal {
	switch s.Strategy {
	case domain.WithdrawFixedPercentage:
		return balance.
			Mul(decimal.NewFromFloat(s.TargetRate / 100)).
			Div(decimal.NewFromInt(12))

	case domain.WithdrawDynamic:
		// Month 0 withdraws the unscaled base; from month 1 the base is
		// scaled by current performance, clamped to [0.5x, 1.5x].
		if month == 0 || s.StartAmount.IsZero() {
			return base
		}
		factor, _ := balance.Div(s.StartAmount).Float64()
		factor = math.Max(0.5, math.Min(1.5, factor))
		return base.Mul(decimal.NewFromFloat(factor))

	default: // fixed_amount, inflation-indexed by elapsed years
		inflationFactor := math.Pow(1+s.InflationRate/100, float64(month)/12)
		return base.Mul(decimal.NewFromFloat(inflationFactor))
	}
}
