package driver

import (
	"fmt"

	"github.com/thesyncim/leadflow/pkg/formtest"
	"github.com/thesyncim/leadflow/pkg/formtest/interceptor"
)

// MockAPICalls installs webhook interception on the driver's page using
// the configured webhook URLs. Call it before anything is submitted.
func (d *Driver) MockAPICalls(opts ...interceptor.Option) (*interceptor.Interceptor, error) {
	base := []interceptor.Option{
		interceptor.WithFormDataURL(d.cfg.FormWebhookURL),
		interceptor.WithFileUploadURL(d.cfg.FileWebhookURL),
		interceptor.WithLogger(d.logger),
	}
	ic, err := interceptor.New(append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := ic.Install(d.page); err != nil {
		return nil, err
	}
	return ic, nil
}

// FieldValue returns the current value of the named input. Radio groups
// yield the checked value ("" if none); checkboxes yield "true"/"false".
func (d *Driver) FieldValue(name string) (string, error) {
	sel := formtest.NameSelector(name)
	res, err := d.page.Eval(`(sel) => {
		const els = document.querySelectorAll(sel);
		if (els.length === 0) return null;
		const el = els[0];
		if (el.type === 'radio') {
			const c = [...els].find(e => e.checked);
			return c ? c.value : '';
		}
		if (el.type === 'checkbox') return String(el.checked);
		return el.value;
	}`, sel)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if res.Value.Nil() {
		return "", fmt.Errorf("field %s: %w", name, ErrElementMissing)
	}
	return res.Value.Str(), nil
}

// FieldVisible reports whether the named input is rendered.
func (d *Driver) FieldVisible(name string) (bool, error) {
	return d.visible(formtest.NameSelector(name))
}

// QuestionVisible reports whether the yes/no question is revealed.
func (d *Driver) QuestionVisible(question string) (bool, error) {
	return d.visible(fmt.Sprintf(`[data-question=%q]`, question))
}

// FieldError returns the validation message shown for the named input,
// or "" when there is none.
func (d *Driver) FieldError(name string) (string, error) {
	return d.visibleText(fmt.Sprintf(`[data-error-for=%q]`, name))
}

// WaitFieldError waits until a validation message is shown for name.
func (d *Driver) WaitFieldError(name string) (string, error) {
	var msg string
	err := d.until("error for "+name, func() (bool, string, error) {
		m, err := d.FieldError(name)
		if err != nil {
			return false, "", err
		}
		msg = m
		return m != "", "no message", nil
	})
	return msg, err
}

// Summary returns the text of review summary item key.
func (d *Driver) Summary(key string) (string, error) {
	sel := fmt.Sprintf(`[data-summary=%q]`, key)
	if _, err := d.waitElement(sel); err != nil {
		return "", err
	}
	return d.evalString(`(sel) => document.querySelector(sel).textContent.trim()`, sel)
}
