package driver

import (
	"fmt"

	"github.com/thesyncim/leadflow/pkg/formtest"
)

// FillStep fills every input of step n from data. The step must be rendered.
func (d *Driver) FillStep(n int, data formtest.TestFormData) error {
	switch n {
	case formtest.StepOwnership:
		return d.FillOwnershipInfo(data.OwnershipInfo)
	case formtest.StepFinances:
		return d.FillFinancesInfo(data.FinancesInfo)
	case formtest.StepDocuments:
		return d.FillDocuments(data.Documents)
	}
	st, err := d.schema.Step(n)
	if err != nil {
		return err
	}
	values, err := data.Values(n)
	if err != nil {
		return err
	}
	d.logger.Debug("Filling step", "step", n, "title", st.Title, "fields", len(values))
	for _, f := range st.Fields {
		if err := d.fillField(f, values[f.Name]); err != nil {
			return fmt.Errorf("step %d: %w", n, err)
		}
	}
	return nil
}

// FillPersonalInfo fills step 1.
func (d *Driver) FillPersonalInfo(data formtest.TestFormData) error {
	return d.FillStep(formtest.StepPersonal, data)
}

// FillCompanyInfo fills step 2.
func (d *Driver) FillCompanyInfo(data formtest.TestFormData) error {
	return d.FillStep(formtest.StepCompany, data)
}

// FillTicketingInfo fills step 3.
func (d *Driver) FillTicketingInfo(data formtest.TestFormData) error {
	return d.FillStep(formtest.StepTicketing, data)
}

// FillVolumeInfo fills step 4.
func (d *Driver) FillVolumeInfo(data formtest.TestFormData) error {
	return d.FillStep(formtest.StepVolume, data)
}

// FillFundsInfo fills step 5.
func (d *Driver) FillFundsInfo(data formtest.TestFormData) error {
	return d.FillStep(formtest.StepFunds, data)
}

// FillAuthorization fills step 10.
func (d *Driver) FillAuthorization(data formtest.TestFormData) error {
	return d.FillStep(formtest.StepAuthorization, data)
}

// FillOwnershipInfo enters every owner, clicking Add Owner once for each
// owner beyond the ones already rendered, strictly in order.
func (d *Driver) FillOwnershipInfo(info formtest.OwnershipInfo) error {
	st, err := d.schema.Step(formtest.StepOwnership)
	if err != nil {
		return err
	}
	if len(info.Owners) > formtest.MaxOwners {
		return fmt.Errorf("%d owners exceed the limit of %d", len(info.Owners), formtest.MaxOwners)
	}
	for i, o := range info.Owners {
		nameSel := formtest.NameSelector(formtest.OwnerFieldName(i, formtest.OwnerName))
		present, _, err := d.page.Has(nameSel)
		if err != nil {
			return err
		}
		if !present {
			if err := d.AddOwner(); err != nil {
				return fmt.Errorf("owner %d: %w", i, err)
			}
		}
		values := map[string]string{
			formtest.OwnerName:       o.Name,
			formtest.OwnerPercentage: o.Percentage,
			formtest.OwnerAddress:    o.Address,
			formtest.OwnerBirthDate:  o.BirthDate,
		}
		for _, f := range st.Fields {
			indexed := f
			indexed.Name = formtest.OwnerFieldName(i, f.Name)
			if err := d.fillField(indexed, values[f.Name]); err != nil {
				return fmt.Errorf("owner %d: %w", i, err)
			}
		}
		d.logger.Debug("Filled owner", "index", i, "name", o.Name)
	}
	return nil
}

// AddOwner clicks Add Owner and waits for the next owner's fields.
func (d *Driver) AddOwner() error {
	n, err := d.OwnerCount()
	if err != nil {
		return err
	}
	if n >= formtest.MaxOwners {
		return fmt.Errorf("owner limit of %d reached", formtest.MaxOwners)
	}
	if err := d.click(formtest.SelectorAddOwner); err != nil {
		return err
	}
	_, err = d.waitElement(formtest.NameSelector(formtest.OwnerFieldName(n, formtest.OwnerName)))
	return err
}

// OwnerCount returns the number of owner entries rendered.
func (d *Driver) OwnerCount() (int, error) {
	return d.count("[data-owner]")
}

// FillFinancesInfo fills the financial background step. Questions are
// answered in reveal order, each only once it is visible. A "yes" to
// business debt leaves exactly one debt entry per fixture debt, and a "yes" to
// leasing fills the lease end date.
func (d *Driver) FillFinancesInfo(info formtest.FinancesInfo) error {
	st, err := d.schema.Step(formtest.StepFinances)
	if err != nil {
		return err
	}
	for _, name := range []string{formtest.FieldPrimaryBank, formtest.FieldFinancialNotes} {
		f, ok := st.Field(name)
		if !ok {
			continue
		}
		v := info.PrimaryBank
		if name == formtest.FieldFinancialNotes {
			v = info.FinancialNotes
		}
		if err := d.fillField(f, v); err != nil {
			return err
		}
	}

	for _, a := range info.Answers() {
		if err := d.answer(a.Question, a.Value()); err != nil {
			return err
		}
		switch {
		case a.Question == formtest.QuestionBusinessDebt && a.Yes:
			if err := d.fillDebts(st, info.Debts); err != nil {
				return err
			}
		case a.Question == formtest.QuestionLeasesVenue && a.Yes:
			f, ok := st.Field(formtest.FieldLeaseEndDate)
			if !ok {
				return fmt.Errorf("schema has no %s field", formtest.FieldLeaseEndDate)
			}
			if err := d.waitVisible(formtest.NameSelector(f.Name)); err != nil {
				return err
			}
			if err := d.fillField(f, info.LeaseEndDate); err != nil {
				return err
			}
		}
	}
	return nil
}

// answer waits for question to be revealed and picks value.
func (d *Driver) answer(question, value string) error {
	if err := d.waitVisible(fmt.Sprintf(`[data-question=%q]`, question)); err != nil {
		return err
	}
	if err := d.click(formtest.RadioSelector(question, value)); err != nil {
		return fmt.Errorf("answer %s=%s: %w", question, value, err)
	}
	d.logger.Debug("Answered", "question", question, "value", value)
	return nil
}

func (d *Driver) fillDebts(st formtest.Step, debts []formtest.Debt) error {
	if len(debts) > formtest.MaxDebts {
		return fmt.Errorf("%d debts exceed the limit of %d", len(debts), formtest.MaxDebts)
	}
	typeField, _ := st.Field(formtest.DebtType)
	balanceField, _ := st.Field(formtest.DebtBalance)

	for i, debt := range debts {
		n, err := d.DebtCount()
		if err != nil {
			return err
		}
		if n <= i {
			if err := d.click(formtest.SelectorAddDebt); err != nil {
				return fmt.Errorf("debt %d: %w", i, err)
			}
		}
		typeField.Name = formtest.DebtFieldName(i, formtest.DebtType)
		balanceField.Name = formtest.DebtFieldName(i, formtest.DebtBalance)
		if err := d.waitVisible(formtest.NameSelector(typeField.Name)); err != nil {
			return err
		}
		if err := d.fillField(typeField, debt.Type); err != nil {
			return err
		}
		if err := d.fillField(balanceField, debt.Balance); err != nil {
			return err
		}
	}
	// Rows left from an earlier fill. Removing the last one would flip the
	// answer back to "no", so a yes without debts keeps its row.
	if len(debts) == 0 {
		return nil
	}
	for {
		n, err := d.DebtCount()
		if err != nil {
			return err
		}
		if n <= len(debts) {
			return nil
		}
		if err := d.RemoveDebt(n - 1); err != nil {
			return fmt.Errorf("remove debt %d: %w", n-1, err)
		}
	}
}

// DebtCount returns the number of debt entries rendered.
func (d *Driver) DebtCount() (int, error) {
	return d.count("[data-debt]")
}

// RemoveDebt clicks the remove control of debt i and waits for the entry
// to disappear. Removing the last entry makes the app revert the
// business-debt answer to "no".
func (d *Driver) RemoveDebt(i int) error {
	before, err := d.DebtCount()
	if err != nil {
		return err
	}
	if err := d.click(fmt.Sprintf(`button[data-action="remove-debt"][data-index="%d"]`, i)); err != nil {
		return err
	}
	return d.until("debt removal", func() (bool, string, error) {
		n, err := d.DebtCount()
		if err != nil {
			return false, "", err
		}
		return n < before, fmt.Sprintf("%d debts", n), nil
	})
}

// FillDocuments attaches a generated test file for every document.
func (d *Driver) FillDocuments(docs formtest.Documents) error {
	for _, doc := range docs.Files {
		if err := d.UploadTestFile(doc.Field, doc.FileName); err != nil {
			return err
		}
	}
	return nil
}

// fillField sets one input the way its kind is operated by a user.
// Empty values of optional fields are skipped.
func (d *Driver) fillField(f formtest.Field, value string) error {
	if value == "" && !f.Required {
		return nil
	}
	switch f.Kind {
	case formtest.KindFile:
		return d.UploadTestFile(f.Name, value)
	case formtest.KindYesNo:
		return d.answer(f.Name, value)
	case formtest.KindSelect:
		return d.selectOption(f.Name, value)
	case formtest.KindCheckbox:
		return d.setChecked(f.Name, value == "true")
	case formtest.KindDate:
		return d.setValue(f.Name, value)
	default:
		return d.typeText(f.Name, value)
	}
}

// typeText replaces the input's content with value as typed text, then
// blurs it so the app applies its display formatting.
func (d *Driver) typeText(name, value string) error {
	sel := formtest.NameSelector(name)
	el, err := d.waitElement(sel)
	if err != nil {
		return err
	}
	if _, err := d.page.Eval(`(sel) => { document.querySelector(sel).value = ''; }`, sel); err != nil {
		return fmt.Errorf("clear %s: %w", name, err)
	}
	el = el.Timeout(d.timeout)
	defer el.CancelTimeout()
	if err := el.Input(value); err != nil {
		return fmt.Errorf("type into %s: %w", name, err)
	}
	if err := el.Blur(); err != nil {
		return fmt.Errorf("blur %s: %w", name, err)
	}
	return nil
}

// setValue assigns value directly and dispatches input and change. Used
// for controls that do not accept typed text portably, such as dates.
func (d *Driver) setValue(name, value string) error {
	sel := formtest.NameSelector(name)
	if _, err := d.waitElement(sel); err != nil {
		return err
	}
	_, err := d.page.Eval(`(sel, v) => {
		const el = document.querySelector(sel);
		el.value = v;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		el.dispatchEvent(new Event('blur'));
	}`, sel, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}

func (d *Driver) selectOption(name, value string) error {
	sel := formtest.NameSelector(name)
	if _, err := d.waitElement(sel); err != nil {
		return err
	}
	ok, err := d.evalBool(`(sel, v) => {
		const el = document.querySelector(sel);
		if (![...el.options].some(o => o.value === v)) return false;
		el.value = v;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	}`, sel, value)
	if err != nil {
		return fmt.Errorf("select %s: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("select %s has no option %q", name, value)
	}
	return nil
}

func (d *Driver) setChecked(name string, checked bool) error {
	sel := formtest.NameSelector(name)
	el, err := d.waitElement(sel)
	if err != nil {
		return err
	}
	cur, err := d.evalBool(`(sel) => document.querySelector(sel).checked`, sel)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if cur == checked {
		return nil
	}
	el = el.Timeout(d.timeout)
	defer el.CancelTimeout()
	if err := el.Click(leftButton, 1); err != nil {
		return fmt.Errorf("toggle %s: %w", name, err)
	}
	return nil
}
