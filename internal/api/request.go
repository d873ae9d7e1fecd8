package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

var validate = validator.New()

// RangeRequest mirrors domain.RangeParam with plain floats for transport.
type RangeRequest struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// LumpSumRequest is a one-off deposit in a given month.
type LumpSumRequest struct {
	Month  int     `json:"month" validate:"gte=0"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// SimulationRequest is the transport shape of simulation parameters.
// Domain-level range and consistency checks happen after conversion.
type SimulationRequest struct {
	Mode                 string           `json:"mode" validate:"omitempty,oneof=accumulation withdrawal mixed"`
	DepositType          string           `json:"deposit_type" validate:"omitempty,oneof=monthly lump_sum"`
	InitialAmount        float64          `json:"initial_amount" validate:"gte=0"`
	MonthlyDeposit       float64          `json:"monthly_deposit" validate:"gte=0"`
	LumpSums             []LumpSumRequest `json:"lump_sums" validate:"dive"`
	InterestRate         RangeRequest     `json:"interest_rate"`
	Volatility           RangeRequest     `json:"volatility"`
	AccumulationYears    int              `json:"accumulation_years" validate:"gte=0,lte=100"`
	WithdrawalYears      int              `json:"withdrawal_years" validate:"gte=0,lte=100"`
	InflationRate        float64          `json:"inflation_rate" validate:"gte=0"`
	InflationVolatility  float64          `json:"inflation_volatility" validate:"gte=0"`
	TaxSystem            string           `json:"tax_system" validate:"omitempty,oneof=none simple tiered"`
	TaxRate              float64          `json:"tax_rate" validate:"gte=0,lte=100"`
	WithdrawalStrategy   string           `json:"withdrawal_strategy" validate:"omitempty,oneof=fixed_percentage fixed_amount dynamic"`
	TargetWithdrawalRate float64          `json:"target_withdrawal_rate" validate:"gte=0,lte=100"`
	ManagementFee        float64          `json:"management_fee" validate:"gte=0,lte=100"`
	Iterations           int              `json:"iterations" validate:"gte=0,lte=1000000"`
	Seed                 int64            `json:"seed"`
	Percentiles          []float64        `json:"percentiles" validate:"dive,gt=0,lt=100"`
}

// ToParameters converts the request into validated domain parameters.
func (r *SimulationRequest) ToParameters() (*domain.Parameters, error) {
	p := &domain.Parameters{
		Mode:                 domain.CalculationMode(r.Mode),
		DepositType:          domain.DepositType(r.DepositType),
		InitialAmount:        decimal.NewFromFloat(r.InitialAmount),
		MonthlyDeposit:       decimal.NewFromFloat(r.MonthlyDeposit),
		InterestRate:         toRange(r.InterestRate),
		Volatility:           toRange(r.Volatility),
		AccumulationYears:    r.AccumulationYears,
		WithdrawalYears:      r.WithdrawalYears,
		InflationRate:        decimal.NewFromFloat(r.InflationRate),
		InflationVolatility:  decimal.NewFromFloat(r.InflationVolatility),
		TaxSystem:            domain.TaxSystem(r.TaxSystem),
		TaxRate:              decimal.NewFromFloat(r.TaxRate),
		WithdrawalStrategy:   domain.WithdrawalStrategy(r.WithdrawalStrategy),
		TargetWithdrawalRate: decimal.NewFromFloat(r.TargetWithdrawalRate),
		ManagementFee:        decimal.NewFromFloat(r.ManagementFee),
		Iterations:           r.Iterations,
		Seed:                 r.Seed,
		Percentiles:          r.Percentiles,
	}
	for _, ls := range r.LumpSums {
		p.LumpSums = append(p.LumpSums, domain.LumpSum{
			Month:  ls.Month,
			Amount: decimal.NewFromFloat(ls.Amount),
		})
	}
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func toRange(r RangeRequest) domain.RangeParam {
	return domain.RangeParam{
		Min:  decimal.NewFromFloat(r.Min),
		Max:  decimal.NewFromFloat(r.Max),
		Mean: decimal.NewFromFloat(r.Mean),
	}
}

// ValidationError is one field-level request problem.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ReadAndValidateRequest binds the body and runs struct validation.
// A non-nil return value is a JSON-serializable error payload.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) interface{} {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errs := make([]ValidationError, 0, len(validationErrors))
		for _, e := range validationErrors {
			errs = append(errs, ValidationError{
				Code:    "ERR_" + strings.ToUpper(e.Tag()),
				Field:   e.Field(),
				Message: fieldErrorMessage(e),
			})
		}
		return errs
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{
			Code:    "ERR_UNKNOWN",
			Message: fmt.Sprintf("%v", he.Message),
		}}
	}

	return []ValidationError{{
		Code:    "ERR_UNKNOWN",
		Message: err.Error(),
	}}
}

func fieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		if fe.Type().Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s elements", field, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
