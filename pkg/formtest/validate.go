package formtest

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	validateErr  error

	currencyPattern = regexp.MustCompile(`^\$\d{1,3}(,\d{3})*$`)
	phonePattern    = regexp.MustCompile(`^\+1-\d{3}-\d{3}-\d{4}$`)
)

func fixtureValidator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		v := validator.New()
		patterns := map[string]*regexp.Regexp{
			"currency": currencyPattern,
			"phone":    phonePattern,
		}
		for tag, re := range patterns {
			if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return re.MatchString(fl.Field().String())
			}); err != nil {
				validateErr = fmt.Errorf("register %s validation: %w", tag, err)
				return
			}
		}
		v.RegisterStructValidation(validateFinances, FinancesInfo{})
		validate = v
	})
	return validate, validateErr
}

// validateFinances enforces the conditional sub-forms: debts exist only
// when the debt question is answered yes, and a lease needs an end date.
func validateFinances(sl validator.StructLevel) {
	f := sl.Current().Interface().(FinancesInfo)
	if f.HasBusinessDebt && len(f.Debts) == 0 {
		sl.ReportError(f.Debts, "Debts", "debts", "required_with_debt", "")
	}
	if !f.HasBusinessDebt && len(f.Debts) > 0 {
		sl.ReportError(f.Debts, "Debts", "debts", "excluded_without_debt", "")
	}
	if f.LeasesVenue && f.LeaseEndDate == "" {
		sl.ReportError(f.LeaseEndDate, "LeaseEndDate", "leaseEndDate", "required_with_lease", "")
	}
}

// Validate checks the fixture's shape: required fields, formats the
// application accepts verbatim, and the conditional finance sub-forms.
// Ownership percentages are not required to sum to 100 here.
func (d TestFormData) Validate() error {
	v, err := fixtureValidator()
	if err != nil {
		return err
	}
	return v.Struct(d)
}
