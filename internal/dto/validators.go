package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// amountGtZero validates that a decimal amount is strictly positive and
// representable at two decimal places (currency minor units).
func amountGtZero(fl validator.FieldLevel) bool {
	amount, ok := fl.Field().Interface().(decimal.Decimal)
	if !ok {
		return false
	}
	return amount.IsPositive() && amount.Equal(amount.Round(2))
}

// RegisterCustomValidators wires ledger-specific validations into gin's
// binding engine. Call once at startup before serving requests.
func RegisterCustomValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("amountgtzero", amountGtZero)
}
