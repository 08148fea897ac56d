package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterStructValidation(transactionRules, Transaction{})
	return v
}

// transactionRules holds the checks that depend on the transaction type.
func transactionRules(sl validator.StructLevel) {
	t := sl.Current().Interface().(Transaction)
	if t.Date.IsZero() {
		sl.ReportError(t.Date, "date", "Date", "required", "")
	}
	switch t.Type {
	case TypeExpense:
		if strings.TrimSpace(t.Category) == "" {
			sl.ReportError(t.Category, "category", "Category", "notblank", "")
		}
		if strings.TrimSpace(t.PurchaseItem) == "" {
			sl.ReportError(t.PurchaseItem, "purchase_item", "PurchaseItem", "notblank", "")
		}
		fallthrough
	case TypeIncome:
		if !t.PaymentMethod.Valid() {
			sl.ReportError(t.PaymentMethod, "payment_method", "PaymentMethod", "payment_method", "")
		}
	}
}

// Validate applies the create/edit rules. The first violation is returned
// as a *ValidationError.
func (t Transaction) Validate() error {
	err := validate.Struct(t)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: fe.Field(), Reason: reasonFor(fe)}
	}
	return fmt.Errorf("validate transaction: %w", err)
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must not be negative"
	case "notblank", "required":
		return "must not be blank"
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "payment_method":
		names := make([]string, len(PaymentMethods))
		for i, p := range PaymentMethods {
			names[i] = string(p)
		}
		return "must be one of " + strings.Join(names, ", ")
	}
	return "failed " + fe.Tag()
}
