package formtest

import (
	"fmt"
	"io"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// Selectors of the wizard chrome every driver operation relies on.
const (
	SelectorHeading     = "h1#step-title"
	SelectorNext        = `button[data-action="next"]`
	SelectorBack        = `button[data-action="back"]`
	SelectorSubmit      = `button[data-action="submit"]`
	SelectorAddOwner    = `button[data-action="add-owner"]`
	SelectorAddDebt     = `button[data-action="add-debt"]`
	SelectorProgress    = ".progress-fill"
	SelectorWizard      = "#wizard"
	SelectorPassword    = `input[type="password"][name="password"]`
	SelectorUnlock      = `button[data-action="unlock"]`
	SelectorSubmitError = ".submit-error"
)

// Drift is one mismatch between the schema and a rendered page.
type Drift struct {
	Step     int
	Field    string
	Selector string
	Problem  string
}

func (d Drift) String() string {
	if d.Field == "" {
		return fmt.Sprintf("step %d: %s (%s)", d.Step, d.Problem, d.Selector)
	}
	return fmt.Sprintf("step %d field %s: %s (%s)", d.Step, d.Field, d.Problem, d.Selector)
}

// FieldSelector is the CSS selector that locates the input for f.
// Yes/no questions resolve to the question container.
func FieldSelector(f Field) string {
	switch f.Kind {
	case KindFile:
		return fmt.Sprintf(`[data-field=%q] input[type="file"]`, f.Name)
	case KindYesNo:
		return fmt.Sprintf(`[data-question=%q]`, f.Name)
	default:
		return NameSelector(f.Name)
	}
}

// NameSelector matches the element whose name attribute is name.
func NameSelector(name string) string {
	return fmt.Sprintf(`[name=%q]`, name)
}

// RadioSelector matches one radio of a yes/no question.
func RadioSelector(question, value string) string {
	return fmt.Sprintf(`input[type="radio"][name=%q][value=%q]`, question, value)
}

// CheckDOM parses a served wizard page and reports every schema element
// that is missing or disagrees with the schema. A page that fully honours
// the contract yields no drift.
func CheckDOM(s Schema, r io.Reader) ([]Drift, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var drift []Drift
	missing := func(step int, field, sel string) {
		if doc.Find(sel).Length() == 0 {
			drift = append(drift, Drift{Step: step, Field: field, Selector: sel, Problem: "not found"})
		}
	}

	for _, sel := range []string{SelectorHeading, SelectorNext, SelectorBack, SelectorSubmit, SelectorProgress, SelectorWizard} {
		missing(0, "", sel)
	}

	for _, st := range s.Steps {
		sectionSel := `section[data-step="` + strconv.Itoa(st.Number) + `"]`
		section := doc.Find(sectionSel)
		if section.Length() == 0 {
			drift = append(drift, Drift{Step: st.Number, Selector: sectionSel, Problem: "step section not found"})
			continue
		}
		if title, _ := section.Attr("data-title"); title != st.Title {
			drift = append(drift, Drift{
				Step:     st.Number,
				Selector: sectionSel,
				Problem:  fmt.Sprintf("title %q, schema says %q", title, st.Title),
			})
		}

		for _, f := range st.Fields {
			switch {
			case st.Dynamic:
				name := OwnerFieldName(0, f.Name)
				missing(st.Number, name, NameSelector(name))
			case f.RevealedBy == QuestionBusinessDebt:
				name := DebtFieldName(0, f.Name)
				missing(st.Number, name, NameSelector(name))
			case f.Kind == KindYesNo:
				missing(st.Number, f.Name, RadioSelector(f.Name, "yes"))
				missing(st.Number, f.Name, RadioSelector(f.Name, "no"))
			default:
				missing(st.Number, f.Name, FieldSelector(f))
			}
			if f.Kind == KindFile && f.Accept != "" {
				sel := FieldSelector(f)
				if got, ok := doc.Find(sel).Attr("accept"); ok && got != f.Accept {
					drift = append(drift, Drift{Step: st.Number, Field: f.Name, Selector: sel,
						Problem: fmt.Sprintf("accept %q, schema says %q", got, f.Accept)})
				}
			}
		}
		if st.Dynamic {
			missing(st.Number, "", SelectorAddOwner)
		}
	}
	return drift, nil
}
