package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CalculationMode selects which phases of the portfolio lifecycle are simulated.
type CalculationMode string

const (
	ModeAccumulation CalculationMode = "accumulation"
	ModeWithdrawal   CalculationMode = "withdrawal"
	ModeMixed        CalculationMode = "mixed"
)

// ParseCalculationMode rejects unknown mode strings at construction time.
func ParseCalculationMode(s string) (CalculationMode, error) {
	switch CalculationMode(s) {
	case ModeAccumulation, ModeWithdrawal, ModeMixed:
		return CalculationMode(s), nil
	}
	return "", fmt.Errorf("unknown calculation mode %q", s)
}

// DepositType describes how contributions enter the portfolio.
type DepositType string

const (
	DepositMonthly DepositType = "monthly"
	DepositLumpSum DepositType = "lump_sum"
)

func ParseDepositType(s string) (DepositType, error) {
	switch DepositType(s) {
	case DepositMonthly, DepositLumpSum:
		return DepositType(s), nil
	}
	return "", fmt.Errorf("unknown deposit type %q", s)
}

// TaxSystem selects the capital-gains approximation applied to terminal values.
type TaxSystem string

const (
	TaxNone TaxSystem = "none"
	// TaxSimple applies a flat rate to all gains above total invested.
	TaxSimple TaxSystem = "simple"
	// TaxTiered applies the rate to gains above a yearly tax-free allowance.
	TaxTiered TaxSystem = "tiered"
)

func ParseTaxSystem(s string) (TaxSystem, error) {
	switch TaxSystem(s) {
	case TaxNone, TaxSimple, TaxTiered:
		return TaxSystem(s), nil
	}
	return "", fmt.Errorf("unknown tax system %q", s)
}

// WithdrawalStrategy selects how the monthly withdrawal amount is derived.
type WithdrawalStrategy string

const (
	WithdrawFixedPercentage WithdrawalStrategy = "fixed_percentage"
	WithdrawFixedAmount     WithdrawalStrategy = "fixed_amount"
	WithdrawDynamic         WithdrawalStrategy = "dynamic"
)

func ParseWithdrawalStrategy(s string) (WithdrawalStrategy, error) {
	switch WithdrawalStrategy(s) {
	case WithdrawFixedPercentage, WithdrawFixedAmount, WithdrawDynamic:
		return WithdrawalStrategy(s), nil
	}
	return "", fmt.Errorf("unknown withdrawal strategy %q", s)
}

// RangeParam is a bounded annual rate in percent. When Min equals Max the
// mean is used as a constant; otherwise yearly values are drawn from a Beta
// distribution fitted to the range with mode at Mean.
type RangeParam struct {
	Min  decimal.Decimal `yaml:"min" json:"min"`
	Max  decimal.Decimal `yaml:"max" json:"max"`
	Mean decimal.Decimal `yaml:"mean" json:"mean"`
}

// Constant reports whether the range collapses to a single value.
func (r RangeParam) Constant() bool { return r.Min.Equal(r.Max) }

func (r RangeParam) validate(name string) error {
	if r.Max.LessThan(r.Min) {
		return fmt.Errorf("%w: %s max (%s) is less than min (%s)",
			ErrInvalidParameterRange, name, r.Max, r.Min)
	}
	if r.Mean.LessThan(r.Min) || r.Mean.GreaterThan(r.Max) {
		return fmt.Errorf("%w: %s mean (%s) outside [%s, %s]",
			ErrInvalidParameterRange, name, r.Mean, r.Min, r.Max)
	}
	return nil
}

// LumpSum is a one-off contribution scheduled at an exact month index.
type LumpSum struct {
	Month  int             `yaml:"month" json:"month"`
	Amount decimal.Decimal `yaml:"amount" json:"amount"`
}

// Parameters holds one validated, immutable simulation parameter set.
// All rates are annual percentages (8.0 means 8% per year).
type Parameters struct {
	Mode        CalculationMode `yaml:"mode" json:"mode"`
	DepositType DepositType     `yaml:"deposit_type" json:"deposit_type"`

	InitialAmount  decimal.Decimal `yaml:"initial_amount" json:"initial_amount"`
	MonthlyDeposit decimal.Decimal `yaml:"monthly_deposit" json:"monthly_deposit"`
	LumpSums       []LumpSum       `yaml:"lump_sums,omitempty" json:"lump_sums,omitempty"`

	InterestRate RangeParam `yaml:"interest_rate" json:"interest_rate"`
	Volatility   RangeParam `yaml:"volatility" json:"volatility"`

	AccumulationYears int `yaml:"accumulation_years" json:"accumulation_years"`
	WithdrawalYears   int `yaml:"withdrawal_years" json:"withdrawal_years"`

	InflationRate       decimal.Decimal `yaml:"inflation_rate" json:"inflation_rate"`
	InflationVolatility decimal.Decimal `yaml:"inflation_volatility" json:"inflation_volatility"`

	TaxSystem TaxSystem       `yaml:"tax_system" json:"tax_system"`
	TaxRate   decimal.Decimal `yaml:"tax_rate" json:"tax_rate"`

	WithdrawalStrategy   WithdrawalStrategy `yaml:"withdrawal_strategy" json:"withdrawal_strategy"`
	TargetWithdrawalRate decimal.Decimal    `yaml:"target_withdrawal_rate" json:"target_withdrawal_rate"`

	ManagementFee decimal.Decimal `yaml:"management_fee" json:"management_fee"`

	Iterations  int       `yaml:"iterations" json:"iterations"`
	Percentiles []float64 `yaml:"percentiles,omitempty" json:"percentiles,omitempty"`

	// Seed fixes the base random seed; zero means derive one from the clock.
	Seed int64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// DefaultPercentiles mirrors the confidence levels reported when the caller
// does not request a specific set.
var DefaultPercentiles = []float64{99, 95, 90, 75, 50, 25, 10, 5, 1}

// ApplyDefaults fills zero-valued optional fields in place.
func (p *Parameters) ApplyDefaults() {
	if p.Mode == "" {
		p.Mode = ModeAccumulation
	}
	if p.DepositType == "" {
		p.DepositType = DepositMonthly
	}
	if p.TaxSystem == "" {
		p.TaxSystem = TaxNone
	}
	if p.WithdrawalStrategy == "" {
		p.WithdrawalStrategy = WithdrawFixedPercentage
	}
	if p.Iterations == 0 {
		p.Iterations = 10000
	}
	if len(p.Percentiles) == 0 {
		p.Percentiles = append([]float64(nil), DefaultPercentiles...)
	}
}

// Validate checks all invariants once, before any simulation runs.
func (p *Parameters) Validate() error {
	if _, err := ParseCalculationMode(string(p.Mode)); err != nil {
		return err
	}
	if _, err := ParseDepositType(string(p.DepositType)); err != nil {
		return err
	}
	if _, err := ParseTaxSystem(string(p.TaxSystem)); err != nil {
		return err
	}
	if _, err := ParseWithdrawalStrategy(string(p.WithdrawalStrategy)); err != nil {
		return err
	}
	if err := p.InterestRate.validate("interest rate"); err != nil {
		return err
	}
	if err := p.Volatility.validate("volatility"); err != nil {
		return err
	}
	if p.Mode != ModeWithdrawal && p.AccumulationYears <= 0 {
		return fmt.Errorf("%w: accumulation years must be positive, got %d",
			ErrInvalidParameterRange, p.AccumulationYears)
	}
	if p.Mode != ModeAccumulation && p.WithdrawalYears <= 0 {
		return fmt.Errorf("%w: withdrawal years must be positive, got %d",
			ErrInvalidParameterRange, p.WithdrawalYears)
	}
	if p.Iterations <= 0 {
		return fmt.Errorf("%w: iteration count must be positive, got %d",
			ErrInvalidParameterRange, p.Iterations)
	}
	if p.InitialAmount.LessThan(decimal.Zero) {
		return fmt.Errorf("%w: initial amount cannot be negative", ErrInvalidParameterRange)
	}
	if p.MonthlyDeposit.LessThan(decimal.Zero) {
		return fmt.Errorf("%w: monthly deposit cannot be negative", ErrInvalidParameterRange)
	}
	if p.InflationVolatility.LessThan(decimal.Zero) {
		return fmt.Errorf("%w: inflation volatility cannot be negative", ErrInvalidParameterRange)
	}
	if p.ManagementFee.LessThan(decimal.Zero) {
		return fmt.Errorf("%w: management fee cannot be negative", ErrInvalidParameterRange)
	}
	if p.TaxRate.LessThan(decimal.Zero) || p.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: tax rate must be between 0 and 100", ErrInvalidParameterRange)
	}
	if p.TargetWithdrawalRate.LessThan(decimal.Zero) {
		return fmt.Errorf("%w: target withdrawal rate cannot be negative", ErrInvalidParameterRange)
	}
	for _, ls := range p.LumpSums {
		if ls.Month < 0 {
			return fmt.Errorf("%w: lump sum month index cannot be negative", ErrInvalidParameterRange)
		}
	}
	for _, pc := range p.Percentiles {
		if pc < 0 || pc > 100 {
			return fmt.Errorf("%w: percentile %v outside [0, 100]", ErrInvalidParameterRange, pc)
		}
	}
	return nil
}

// AccumulationMonths returns the contribution-phase horizon in months.
func (p *Parameters) AccumulationMonths() int { return p.AccumulationYears * 12 }

// WithdrawalMonths returns the decumulation-phase horizon in months.
func (p *Parameters) WithdrawalMonths() int { return p.WithdrawalYears * 12 }
