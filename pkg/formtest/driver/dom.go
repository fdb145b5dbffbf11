package driver

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

func (d *Driver) evalString(js string, args ...interface{}) (string, error) {
	res, err := d.page.Eval(js, args...)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (d *Driver) evalInt(js string, args ...interface{}) (int, error) {
	res, err := d.page.Eval(js, args...)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (d *Driver) evalBool(js string, args ...interface{}) (bool, error) {
	res, err := d.page.Eval(js, args...)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

// waitElement polls until selector matches an element in the DOM.
func (d *Driver) waitElement(selector string) (*rod.Element, error) {
	var el *rod.Element
	err := d.until(selector, func() (bool, string, error) {
		ok, found, err := d.page.Has(selector)
		if err != nil {
			return false, "", err
		}
		el = found
		return ok, "absent", nil
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

// waitVisible polls until selector matches a rendered element.
func (d *Driver) waitVisible(selector string) error {
	return d.until(selector+" visible", func() (bool, string, error) {
		ok, err := d.visible(selector)
		if err != nil {
			return false, "", err
		}
		return ok, "hidden", nil
	})
}

func (d *Driver) visible(selector string) (bool, error) {
	return d.evalBool(`(sel) => {
		const el = document.querySelector(sel);
		return !!el && el.getClientRects().length > 0;
	}`, selector)
}

// visibleText returns the text of selector, or "" if it is absent or hidden.
func (d *Driver) visibleText(selector string) (string, error) {
	return d.evalString(`(sel) => {
		const el = document.querySelector(sel);
		if (!el || el.getClientRects().length === 0) return '';
		return el.textContent.trim();
	}`, selector)
}

func (d *Driver) click(selector string) error {
	el, err := d.waitElement(selector)
	if err != nil {
		return err
	}
	el = el.Timeout(d.timeout)
	defer el.CancelTimeout()
	if err := el.Click(leftButton, 1); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (d *Driver) count(selector string) (int, error) {
	return d.evalInt(`(sel) => document.querySelectorAll(sel).length`, selector)
}

const leftButton = proto.InputMouseButtonLeft

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
