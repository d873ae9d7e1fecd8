package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

// InputParser handles parsing of simulation parameter files.
type InputParser struct{}

// NewInputParser creates a new input parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads simulation parameters from a YAML file, applies the
// documented defaults, and validates the result.
func (ip *InputParser) LoadFromFile(filename string) (*domain.Parameters, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates a YAML parameter document.
func (ip *InputParser) Parse(data []byte) (*domain.Parameters, error) {
	var params domain.Parameters
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	params.ApplyDefaults()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("parameter validation failed: %w", err)
	}
	return &params, nil
}

// CreateExampleParameters returns a complete example parameter set covering
// both lifecycle phases.
func (ip *InputParser) CreateExampleParameters() *domain.Parameters {
	params := &domain.Parameters{
		Mode:           domain.ModeMixed,
		DepositType:    domain.DepositMonthly,
		InitialAmount:  decimal.NewFromInt(10000),
		MonthlyDeposit: decimal.NewFromInt(500),
		LumpSums: []domain.LumpSum{
			{Month: 60, Amount: decimal.NewFromInt(25000)},
		},
		InterestRate: domain.RangeParam{
			Min:  decimal.NewFromInt(5),
			Max:  decimal.NewFromInt(12),
			Mean: decimal.NewFromInt(8),
		},
		Volatility: domain.RangeParam{
			Min:  decimal.NewFromInt(10),
			Max:  decimal.NewFromInt(25),
			Mean: decimal.NewFromInt(15),
		},
		AccumulationYears:    20,
		WithdrawalYears:      30,
		InflationRate:        decimal.NewFromFloat(2.5),
		InflationVolatility:  decimal.NewFromInt(1),
		TaxSystem:            domain.TaxTiered,
		TaxRate:              decimal.NewFromFloat(26.375),
		WithdrawalStrategy:   domain.WithdrawFixedPercentage,
		TargetWithdrawalRate: decimal.NewFromInt(4),
		ManagementFee:        decimal.NewFromFloat(0.5),
		Iterations:           10000,
	}
	params.ApplyDefaults()
	return params
}

// WriteExampleFile writes the example parameter set to the given path.
func (ip *InputParser) WriteExampleFile(filename string) error {
	data, err := yaml.Marshal(ip.CreateExampleParameters())
	if err != nil {
		return fmt.Errorf("failed to marshal example parameters: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}
