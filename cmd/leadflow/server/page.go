package server

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/thesyncim/leadflow/pkg/formtest"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var embeddedStatic embed.FS

// fieldView is one rendered input. Name is the concrete name attribute,
// which differs from Field.Name for owner and debt entries.
type fieldView struct {
	formtest.Field
	Name string
}

type stepView struct {
	formtest.Step
	First    bool
	Inputs   []fieldView
	Owner    []fieldView
	Question []fieldView
	Debt     []fieldView
	Lease    *fieldView
}

type wizardData struct {
	Version        string
	Steps          []stepView
	StepCount      int
	FirstTitle     string
	FirstProgress  string
	FormWebhookURL string
	FileWebhookURL string
	TransitionMS   int64
	MaxOwners      int
	MaxDebts       int
}

type gateData struct {
	Next  string
	Error string
}

type pages struct {
	tmpl   *template.Template
	data   wizardData
	static fs.FS
}

func newPages(s formtest.Schema, cfg Config) (*pages, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	data := wizardData{
		Version:        s.Version,
		StepCount:      s.Len(),
		FirstProgress:  s.Progress(1),
		FormWebhookURL: cfg.FormWebhookURL,
		FileWebhookURL: cfg.FileWebhookURL,
		TransitionMS:   cfg.TransitionDelay.Milliseconds(),
		MaxOwners:      formtest.MaxOwners,
		MaxDebts:       formtest.MaxDebts,
	}
	for i, st := range s.Steps {
		if i == 0 {
			data.FirstTitle = st.Title
		}
		data.Steps = append(data.Steps, buildStepView(st, i == 0))
	}
	return &pages{tmpl: tmpl, data: data, static: static}, nil
}

func buildStepView(st formtest.Step, first bool) stepView {
	v := stepView{Step: st, First: first}
	for _, f := range st.Fields {
		switch {
		case st.Dynamic:
			v.Owner = append(v.Owner, fieldView{Field: f, Name: formtest.OwnerFieldName(0, f.Name)})
		case f.RevealedBy == formtest.QuestionBusinessDebt:
			v.Debt = append(v.Debt, fieldView{Field: f, Name: formtest.DebtFieldName(0, f.Name)})
		case f.RevealedBy != "":
			v.Lease = &fieldView{Field: f, Name: f.Name}
		case f.Kind == formtest.KindYesNo:
			v.Question = append(v.Question, fieldView{Field: f, Name: f.Name})
		default:
			v.Inputs = append(v.Inputs, fieldView{Field: f, Name: f.Name})
		}
	}
	return v
}

func (p *pages) wizard(w io.Writer) error {
	return p.tmpl.ExecuteTemplate(w, "wizard.html", p.data)
}

func (p *pages) gate(w io.Writer, next, msg string) error {
	return p.tmpl.ExecuteTemplate(w, "gate.html", gateData{Next: next, Error: msg})
}
