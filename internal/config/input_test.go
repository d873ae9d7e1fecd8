package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser)
}

func TestParse_Success(t *testing.T) {
	testConfig := "mode: mixed\n" +
		"initial_amount: 10000\n" +
		"monthly_deposit: 500\n" +
		"interest_rate:\n" +
		"  min: 5\n" +
		"  max: 12\n" +
		"  mean: 8\n" +
		"volatility:\n" +
		"  min: 10\n" +
		"  max: 25\n" +
		"  mean: 15\n" +
		"accumulation_years: 20\n" +
		"withdrawal_years: 30\n" +
		"inflation_rate: 2.5\n" +
		"tax_system: tiered\n" +
		"tax_rate: 26.375\n" +
		"target_withdrawal_rate: 4\n" +
		"iterations: 5000\n"

	params, err := NewInputParser().Parse([]byte(testConfig))
	require.NoError(t, err)

	assert.Equal(t, domain.ModeMixed, params.Mode)
	assert.True(t, params.InitialAmount.Equal(decimal.NewFromInt(10000)))
	assert.True(t, params.InterestRate.Mean.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, 5000, params.Iterations)
	assert.Equal(t, domain.TaxTiered, params.TaxSystem)
}

func TestParse_AppliesDefaults(t *testing.T) {
	testConfig := "initial_amount: 1000\n" +
		"interest_rate:\n" +
		"  min: 8\n" +
		"  max: 8\n" +
		"  mean: 8\n" +
		"volatility:\n" +
		"  min: 0\n" +
		"  max: 0\n" +
		"  mean: 0\n" +
		"accumulation_years: 10\n"

	params, err := NewInputParser().Parse([]byte(testConfig))
	require.NoError(t, err)

	assert.Equal(t, domain.ModeAccumulation, params.Mode)
	assert.Equal(t, domain.DepositMonthly, params.DepositType)
	assert.Equal(t, domain.TaxNone, params.TaxSystem)
	assert.Equal(t, domain.WithdrawFixedPercentage, params.WithdrawalStrategy)
	assert.Equal(t, 10000, params.Iterations)
	assert.Equal(t, domain.DefaultPercentiles, params.Percentiles)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := NewInputParser().Parse([]byte("mode: [unclosed"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParse_ValidationFailure(t *testing.T) {
	testConfig := "mode: accumulation\n" +
		"interest_rate:\n" +
		"  min: 10\n" +
		"  max: 5\n" +
		"  mean: 7\n" +
		"accumulation_years: 10\n"

	_, err := NewInputParser().Parse([]byte(testConfig))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidParameterRange)
}

func TestParse_UnknownMode(t *testing.T) {
	testConfig := "mode: turbo\n" +
		"accumulation_years: 10\n"

	_, err := NewInputParser().Parse([]byte(testConfig))
	assert.Error(t, err)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := NewInputParser().LoadFromFile("/nonexistent/params.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestWriteExampleFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.yaml")
	parser := NewInputParser()

	require.NoError(t, parser.WriteExampleFile(path))

	loaded, err := parser.LoadFromFile(path)
	require.NoError(t, err)

	example := parser.CreateExampleParameters()
	assert.Equal(t, example.Mode, loaded.Mode)
	assert.True(t, loaded.InitialAmount.Equal(example.InitialAmount))
	assert.True(t, loaded.TargetWithdrawalRate.Equal(example.TargetWithdrawalRate))
	assert.Equal(t, example.Iterations, loaded.Iterations)
	require.Len(t, loaded.LumpSums, 1)
	assert.Equal(t, 60, loaded.LumpSums[0].Month)

	// Example parameters must pass their own validation.
	assert.NoError(t, example.Validate())

	_ = os.Remove(path)
}
