package simulation

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

// AccumulationResult is the outcome of one contribution-phase scenario.
type AccumulationResult struct {
	FinalAmount decimal.Decimal
	Trace       domain.ScenarioTrace
}

// AccumulationSimulator evolves a portfolio balance through contribution
// months using one generated market-condition series.
type AccumulationSimulator struct {
	InitialAmount  decimal.Decimal
	MonthlyDeposit decimal.Decimal
	DepositType    domain.DepositType
	LumpSums       map[int]decimal.Decimal
	InflationRate  float64 // percent per year, indexes recurring deposits
	MonthlyFee     float64 // monthly fraction subtracted from each return
}

// NewAccumulationSimulator builds a simulator from the validated parameter set.
func NewAccumulationSimulator(p *domain.Parameters) *AccumulationSimulator {
	lumps := make(map[int]decimal.Decimal, len(p.LumpSums))
	for _, ls := range p.LumpSums {
		lumps[ls.Month] = lumps[ls.Month].Add(ls.Amount)
	}
	return &AccumulationSimulator{
		InitialAmount:  p.InitialAmount,
		MonthlyDeposit: p.MonthlyDeposit,
		DepositType:    p.DepositType,
		LumpSums:       lumps,
		InflationRate:  p.InflationRate.InexactFloat64(),
		MonthlyFee:     p.ManagementFee.InexactFloat64() / 12 / 100,
	}
}

// Run simulates the full contribution phase against one market-condition
// series. Balances are not clamped: extreme fee/return combinations may drive
// them negative and downstream statistics must tolerate that.
func (s *AccumulationSimulator) Run(mc *MarketConditions) AccumulationResult {
	balance := s.InitialAmount
	trace := make(domain.ScenarioTrace, 0, len(mc.Returns))

	for month := range mc.Returns {
		monthlyReturn := mc.Returns[month] - s.MonthlyFee
		balance = balance.Mul(decimal.NewFromFloat(1 + monthlyReturn))

		if s.DepositType == domain.DepositMonthly {
			// Recurring deposits grow with inflation over elapsed years.
			inflationFactor := math.Pow(1+s.InflationRate/100, float64(month)/12)
			balance = balance.Add(s.MonthlyDeposit.Mul(decimal.NewFromFloat(inflationFactor)))
		}

		if lump, ok := s.LumpSums[month]; ok {
			balance = balance.Add(lump)
		}

		trace = append(trace, domain.MonthRecord{
			Month:   month,
			Balance: balance,
			Return:  decimal.NewFromFloat(monthlyReturn),
		})
	}

	return AccumulationResult{FinalAmount: balance, Trace: trace}
}

// TotalInvested computes the sum of all contributions over the horizon:
// the initial amount, inflation-indexed recurring deposits, and lump sums.
func (s *AccumulationSimulator) TotalInvested(years int) decimal.Decimal {
	total := s.InitialAmount

	if s.DepositType == domain.DepositMonthly {
		yearly := s.MonthlyDeposit.Mul(decimal.NewFromInt(12))
		for year := 0; year < years; year++ {
			inflationFactor := math.Pow(1+s.InflationRate/100, float64(year))
			total = total.Add(yearly.Mul(decimal.NewFromFloat(inflationFactor)))
		}
	}

	for _, lump := range s.LumpSums {
		total = total.Add(lump)
	}
	return total
}
