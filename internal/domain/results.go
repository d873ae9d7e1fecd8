package domain

import "github.com/shopspring/decimal"

// MonthRecord is one month of a simulated trajectory. Withdrawal is zero
// during the accumulation phase.
type MonthRecord struct {
	Month      int             `json:"month"`
	Balance    decimal.Decimal `json:"balance"`
	Return     decimal.Decimal `json:"return"`
	Withdrawal decimal.Decimal `json:"withdrawal,omitempty"`
}

// ScenarioTrace is the ordered month-by-month record of one scenario.
type ScenarioTrace []MonthRecord

// TerminalBalance returns the balance after the final simulated month.
func (t ScenarioTrace) TerminalBalance() decimal.Decimal {
	if len(t) == 0 {
		return decimal.Zero
	}
	return t[len(t)-1].Balance
}

// AggregateStatistics summarizes a population of scalar values.
type AggregateStatistics struct {
	Mean        decimal.Decimal            `json:"mean"`
	Median      decimal.Decimal            `json:"median"`
	StdDev      decimal.Decimal            `json:"std"`
	Min         decimal.Decimal            `json:"min"`
	Max         decimal.Decimal            `json:"max"`
	Skewness    decimal.Decimal            `json:"skewness"`
	Kurtosis    decimal.Decimal            `json:"kurtosis"`
	Percentiles map[string]decimal.Decimal `json:"percentiles"`
}

// TimeSeriesBand carries the per-month distribution summary across scenarios.
// Slices are aligned by month index.
type TimeSeriesBand struct {
	Months       []int             `json:"months"`
	MeanBalance  []decimal.Decimal `json:"mean_balance"`
	Percentile5  []decimal.Decimal `json:"percentile_5"`
	Percentile25 []decimal.Decimal `json:"percentile_25"`
	Percentile75 []decimal.Decimal `json:"percentile_75"`
	Percentile95 []decimal.Decimal `json:"percentile_95"`
}

// SWRPoint is one tested withdrawal rate with its observed success probability.
type SWRPoint struct {
	Rate               decimal.Decimal `json:"rate"`
	SuccessProbability decimal.Decimal `json:"success_probability"`
}

// SWRAnalysis is the safe-withdrawal-rate sweep from 2.0% to 8.0%.
type SWRAnalysis struct {
	Points []SWRPoint      `json:"points"`
	SWR95  decimal.Decimal `json:"swr_95_percent"`
	SWR90  decimal.Decimal `json:"swr_90_percent"`
	SWR80  decimal.Decimal `json:"swr_80_percent"`
}

// SequenceRisk captures how much the ordering of returns drives outcomes.
type SequenceRisk struct {
	EarlyReturnCorrelation decimal.Decimal `json:"early_years_return_impact"`
	Score                  decimal.Decimal `json:"sequence_risk_score"`
}

// AccumulationRisk is the risk block for the contribution phase.
type AccumulationRisk struct {
	Volatility        decimal.Decimal `json:"volatility"`
	DownsideDeviation decimal.Decimal `json:"downside_risk"`
	MaxDrawdown       decimal.Decimal `json:"max_drawdown"`
	VaR95             decimal.Decimal `json:"var_95"`
	CVaR95            decimal.Decimal `json:"cvar_95"`
}

// WithdrawalRisk is the risk block for the decumulation phase.
type WithdrawalRisk struct {
	FailureProbability decimal.Decimal `json:"failure_probability"`
	SequenceRiskScore  decimal.Decimal `json:"sequence_risk"`
	IncomeVolatility   decimal.Decimal `json:"income_volatility"`
}

// InflationImpact compares nominal and real terminal values.
type InflationImpact struct {
	NominalValue        decimal.Decimal `json:"nominal_value"`
	RealValue           decimal.Decimal `json:"real_value"`
	PurchasingPowerLoss decimal.Decimal `json:"purchasing_power_loss"`
	RealReturnPercent   decimal.Decimal `json:"real_return_percent"`
}

// TaxImpact compares pre-tax and after-tax terminal values.
type TaxImpact struct {
	PreTaxValue    decimal.Decimal `json:"pre_tax_value"`
	AfterTaxValue  decimal.Decimal `json:"after_tax_value"`
	TaxCost        decimal.Decimal `json:"tax_cost"`
	TaxCostPercent decimal.Decimal `json:"tax_cost_percent"`
}

// IncomeStatistics summarizes the average monthly withdrawal per scenario.
type IncomeStatistics struct {
	Mean        decimal.Decimal            `json:"mean_monthly_income"`
	Median      decimal.Decimal            `json:"median_monthly_income"`
	Min         decimal.Decimal            `json:"min_monthly_income"`
	Max         decimal.Decimal            `json:"max_monthly_income"`
	Percentiles map[string]decimal.Decimal `json:"income_percentiles"`
}

// AccumulationReport is the aggregated outcome of the contribution phase.
type AccumulationReport struct {
	FinalAmounts    []decimal.Decimal   `json:"final_amounts"` // capped sample for transport
	Band            TimeSeriesBand      `json:"monthly_progression"`
	NominalStats    AggregateStatistics `json:"nominal_stats"`
	RealStats       AggregateStatistics `json:"real_stats"`
	AfterTaxStats   AggregateStatistics `json:"after_tax_stats"`
	TotalInvested   decimal.Decimal     `json:"total_invested"`
	InflationImpact InflationImpact     `json:"inflation_impact"`
	TaxImpact       TaxImpact           `json:"tax_impact"`
	Risk            AccumulationRisk    `json:"risk"`
}

// WithdrawalReport is the aggregated outcome of the decumulation phase.
type WithdrawalReport struct {
	StartAmount        decimal.Decimal     `json:"start_amount"`
	SuccessProbability decimal.Decimal     `json:"success_probability"`
	FinalAmounts       []decimal.Decimal   `json:"final_amounts"`
	WithdrawnTotals    []decimal.Decimal   `json:"withdrawal_amounts"`
	Band               TimeSeriesBand      `json:"monthly_progression"`
	FinalStats         AggregateStatistics `json:"final_stats"`
	WithdrawnStats     AggregateStatistics `json:"withdrawn_stats"`
	SWR                SWRAnalysis         `json:"swr_analysis"`
	SequenceRisk       SequenceRisk        `json:"sequence_risk"`
	RecommendedSWR     decimal.Decimal     `json:"recommended_swr"`
	Income             IncomeStatistics    `json:"monthly_income_stats"`
	Risk               WithdrawalRisk      `json:"risk"`
}

// Recommendation is a qualitative strategy flag derived from the results.
type Recommendation struct {
	Kind    string `json:"type"` // "warning" or "info"
	Message string `json:"message"`
}

// CombinedAnalysis is the lifecycle summary across both phases.
type CombinedAnalysis struct {
	TotalInvested      decimal.Decimal  `json:"total_invested"`
	TotalWithdrawnMean decimal.Decimal  `json:"total_withdrawn_mean"`
	LifetimeReturn     decimal.Decimal  `json:"lifetime_return_percent"`
	RiskAdjustedScore  decimal.Decimal  `json:"risk_adjusted_score"`
	SuccessProbability decimal.Decimal  `json:"success_probability"`
	Recommendations    []Recommendation `json:"recommendations"`
	OptimalSWR         decimal.Decimal  `json:"optimal_swr"`
	Confidence         string           `json:"confidence_level"`
}

// ComprehensiveReport nests both phases plus the lifecycle summary.
// Phase pointers are nil when the configured mode excludes the phase.
type ComprehensiveReport struct {
	Parameters   *Parameters         `json:"parameters"`
	Accumulation *AccumulationReport `json:"accumulation_phase,omitempty"`
	Withdrawal   *WithdrawalReport   `json:"withdrawal_phase,omitempty"`
	Combined     *CombinedAnalysis   `json:"combined_analysis,omitempty"`
}
