// Package formtest describes the funding application wizard as data: the
// versioned step schema (the DOM contract of the application under test),
// the fixture profiles used to fill it, and the submission payload it emits.
package formtest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// SchemaVersion identifies the DOM contract encoded by DefaultSchema.
// Bump it whenever the application renames, adds or removes a field.
const SchemaVersion = "2024.11"

// ErrUnknownStep is returned when a step number or key is not in the schema.
var ErrUnknownStep = errors.New("unknown step")

// FieldKind describes how a field is rendered and therefore how it is filled.
type FieldKind int

const (
	// KindText is a plain <input type="text">.
	KindText FieldKind = iota
	// KindEmail is an <input type="email">.
	KindEmail
	// KindPhone is a text input reformatted to +1-XXX-XXX-XXXX on blur.
	KindPhone
	// KindCurrency is a text input reformatted to $X,XXX on blur.
	KindCurrency
	// KindNumber is an <input type="number">.
	KindNumber
	// KindDate is an <input type="date"> holding YYYY-MM-DD.
	KindDate
	// KindSelect is a <select>; values are option values, not labels.
	KindSelect
	// KindTextarea is a <textarea>.
	KindTextarea
	// KindYesNo is a pair of radios with values "yes" and "no".
	KindYesNo
	// KindCheckbox is a single checkbox.
	KindCheckbox
	// KindFile is a file input addressed by its container's data-field attribute.
	KindFile
)

// String returns the name used in schema.json.
func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindEmail:
		return "email"
	case KindPhone:
		return "phone"
	case KindCurrency:
		return "currency"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindSelect:
		return "select"
	case KindTextarea:
		return "textarea"
	case KindYesNo:
		return "yesno"
	case KindCheckbox:
		return "checkbox"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// MarshalText lets FieldKind appear by name in JSON and YAML.
func (k FieldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// InputType is the HTML type attribute rendered for text-like kinds.
func (k FieldKind) InputType() string {
	switch k {
	case KindEmail:
		return "email"
	case KindPhone:
		return "tel"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindCheckbox:
		return "checkbox"
	case KindFile:
		return "file"
	default:
		return "text"
	}
}

// Field is one input of a step. Name is the input's name attribute, except
// for KindFile where it is the data-field attribute of the upload container.
type Field struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Label    string    `json:"label"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
	Accept   string    `json:"accept,omitempty"`
	Multiple bool      `json:"multiple,omitempty"`
	// RevealedBy names the yes/no question whose "yes" answer shows this field.
	RevealedBy string `json:"revealedBy,omitempty"`
}

// Step is one screen of the wizard.
type Step struct {
	Number int     `json:"number"`
	Key    string  `json:"key"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
	// Dynamic is true when field names are generated by index (owners).
	Dynamic bool `json:"dynamic,omitempty"`
}

// Field returns the named field of the step.
func (s Step) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Schema is the ordered list of steps the application renders.
type Schema struct {
	Version string `json:"version"`
	Steps   []Step `json:"steps"`
}

// Step numbers of the default schema.
const (
	StepPersonal      = 1
	StepCompany       = 2
	StepTicketing     = 3
	StepVolume        = 4
	StepFunds         = 5
	StepOwnership     = 6
	StepFinances      = 7
	StepDocuments     = 8
	StepReview        = 9
	StepAuthorization = 10
	StepConfirmation  = 11
)

// Owner and debt field suffixes. Generated names are owner{i}{Suffix}.
const (
	OwnerName       = "Name"
	OwnerPercentage = "Percentage"
	OwnerAddress    = "Address"
	OwnerBirthDate  = "BirthDate"

	DebtType    = "Type"
	DebtBalance = "Balance"
)

// Finance questions, in the order the application reveals them.
const (
	QuestionBusinessDebt = "hasBusinessDebt"
	QuestionOpenLiens    = "hasOpenLiens"
	QuestionBankruptcy   = "hasPriorBankruptcy"
	QuestionLeasesVenue  = "leasesVenue"
	QuestionOtherFunding = "hasOtherFunding"

	FieldLeaseEndDate   = "leaseEndDate"
	FieldPrimaryBank    = "primaryBank"
	FieldFinancialNotes = "financialNotes"
)

// Limits enforced by the application's Add Owner / Add Debt controls.
const (
	MaxOwners = 4
	MaxDebts  = 5
)

var (
	businessTypes      = []string{"llc", "corporation", "s-corp", "sole-proprietorship", "partnership", "nonprofit"}
	industries         = []string{"live-events", "sports", "theater", "festivals", "nightlife", "attractions", "other"}
	ticketingPlatforms = []string{"ticketmaster", "eventbrite", "axs", "see-tickets", "dice", "etix", "other"}
	settlementOptions  = []string{"weekly", "biweekly", "monthly", "post-event"}
	fundingPurposes    = []string{"marketing", "talent-deposits", "venue-improvements", "working-capital", "expansion"}
	fundingTimelines   = []string{"immediately", "30-days", "60-days", "90-days"}
	debtTypes          = []string{"loan", "line-of-credit", "merchant-cash-advance", "equipment-financing", "credit-card", "other"}
)

// DefaultSchema returns the current DOM contract of the application.
// The returned value is a fresh copy and may be modified by the caller.
func DefaultSchema() Schema {
	return Schema{
		Version: SchemaVersion,
		Steps: []Step{
			{Number: StepPersonal, Key: "personal", Title: "Get Funding", Fields: []Field{
				{Name: "firstname", Kind: KindText, Label: "First Name", Required: true},
				{Name: "lastname", Kind: KindText, Label: "Last Name", Required: true},
				{Name: "email", Kind: KindEmail, Label: "Email Address", Required: true},
				{Name: "phone", Kind: KindPhone, Label: "Phone Number", Required: true},
			}},
			{Number: StepCompany, Key: "company", Title: "Company Information", Fields: []Field{
				{Name: "companyName", Kind: KindText, Label: "Legal Business Name", Required: true},
				{Name: "dba", Kind: KindText, Label: "DBA (if different)"},
				{Name: "businessType", Kind: KindSelect, Label: "Business Type", Required: true, Options: businessTypes},
				{Name: "ein", Kind: KindText, Label: "EIN", Required: true},
				{Name: "industry", Kind: KindSelect, Label: "Industry", Required: true, Options: industries},
				{Name: "yearsInBusiness", Kind: KindNumber, Label: "Years in Business", Required: true},
				{Name: "website", Kind: KindText, Label: "Website"},
				{Name: "companyAddress", Kind: KindText, Label: "Business Address", Required: true},
			}},
			{Number: StepTicketing, Key: "ticketing", Title: "Ticketing Information", Fields: []Field{
				{Name: "ticketingPlatform", Kind: KindSelect, Label: "Ticketing Platform", Required: true, Options: ticketingPlatforms},
				{Name: "averageTicketPrice", Kind: KindCurrency, Label: "Average Ticket Price", Required: true},
				{Name: "settlementSchedule", Kind: KindSelect, Label: "Settlement Schedule", Required: true, Options: settlementOptions},
			}},
			{Number: StepVolume, Key: "volume", Title: "Sales Volume", Fields: []Field{
				{Name: "annualTicketSales", Kind: KindCurrency, Label: "Annual Ticket Sales", Required: true},
				{Name: "eventsPerYear", Kind: KindNumber, Label: "Events per Year", Required: true},
				{Name: "averageAttendance", Kind: KindNumber, Label: "Average Attendance", Required: true},
			}},
			{Number: StepFunds, Key: "funds", Title: "Funding Request", Fields: []Field{
				{Name: "fundingAmount", Kind: KindCurrency, Label: "Amount Requested", Required: true},
				{Name: "fundingPurpose", Kind: KindSelect, Label: "Use of Funds", Required: true, Options: fundingPurposes},
				{Name: "fundingTimeline", Kind: KindSelect, Label: "When do you need funds?", Required: true, Options: fundingTimelines},
			}},
			{Number: StepOwnership, Key: "ownership", Title: "Ownership Details", Dynamic: true, Fields: []Field{
				{Name: OwnerName, Kind: KindText, Label: "Owner Name", Required: true},
				{Name: OwnerPercentage, Kind: KindNumber, Label: "Ownership %", Required: true},
				{Name: OwnerAddress, Kind: KindText, Label: "Home Address", Required: true},
				{Name: OwnerBirthDate, Kind: KindDate, Label: "Date of Birth", Required: true},
			}},
			{Number: StepFinances, Key: "finances", Title: "Financial Background", Fields: []Field{
				{Name: FieldPrimaryBank, Kind: KindText, Label: "Primary Business Bank", Required: true},
				{Name: FieldFinancialNotes, Kind: KindTextarea, Label: "Anything else we should know?"},
				{Name: QuestionBusinessDebt, Kind: KindYesNo, Label: "Does the business have existing debt?", Required: true},
				{Name: QuestionOpenLiens, Kind: KindYesNo, Label: "Are there any open liens or judgments?", Required: true},
				{Name: QuestionBankruptcy, Kind: KindYesNo, Label: "Has the business or an owner filed for bankruptcy?", Required: true},
				{Name: QuestionLeasesVenue, Kind: KindYesNo, Label: "Do you lease your venue?", Required: true},
				{Name: QuestionOtherFunding, Kind: KindYesNo, Label: "Are you applying for other funding?", Required: true},
				{Name: DebtType, Kind: KindSelect, Label: "Debt Type", Required: true, Options: debtTypes, RevealedBy: QuestionBusinessDebt},
				{Name: DebtBalance, Kind: KindCurrency, Label: "Current Balance", Required: true, RevealedBy: QuestionBusinessDebt},
				{Name: FieldLeaseEndDate, Kind: KindDate, Label: "Lease End Date", Required: true, RevealedBy: QuestionLeasesVenue},
			}},
			{Number: StepDocuments, Key: "documents", Title: "Document Upload", Fields: []Field{
				{Name: "bankStatements", Kind: KindFile, Label: "Last 3 Months of Bank Statements", Required: true, Accept: ".pdf", Multiple: true},
				{Name: "driversLicense", Kind: KindFile, Label: "Driver's License", Required: true, Accept: ".pdf,.jpg,.jpeg,.png"},
				{Name: "voidedCheck", Kind: KindFile, Label: "Voided Check", Accept: ".pdf,.jpg,.jpeg,.png"},
			}},
			{Number: StepReview, Key: "review", Title: "Review Your Application"},
			{Number: StepAuthorization, Key: "authorization", Title: "Authorization", Fields: []Field{
				{Name: "agreeToTerms", Kind: KindCheckbox, Label: "I agree to the Terms of Service", Required: true},
				{Name: "consentToCredit", Kind: KindCheckbox, Label: "I authorize a soft credit inquiry", Required: true},
				{Name: "signatureName", Kind: KindText, Label: "Signature (type your full name)", Required: true},
			}},
			{Number: StepConfirmation, Key: "confirmation", Title: "Application Submitted"},
		},
	}
}

// Len returns the number of steps.
func (s Schema) Len() int { return len(s.Steps) }

// Step returns step n (1-based).
func (s Schema) Step(n int) (Step, error) {
	for _, st := range s.Steps {
		if st.Number == n {
			return st, nil
		}
	}
	return Step{}, fmt.Errorf("step %d: %w", n, ErrUnknownStep)
}

// StepByKey returns the step with the given key.
func (s Schema) StepByKey(key string) (Step, error) {
	for _, st := range s.Steps {
		if st.Key == key {
			return st, nil
		}
	}
	return Step{}, fmt.Errorf("step %q: %w", key, ErrUnknownStep)
}

// Field finds a static field by name across all steps.
func (s Schema) Field(name string) (Field, int, bool) {
	for _, st := range s.Steps {
		if st.Dynamic {
			continue
		}
		if f, ok := st.Field(name); ok {
			return f, st.Number, true
		}
	}
	return Field{}, 0, false
}

// ProgressPercent is round(n/len*100), the width the progress bar renders for step n.
func (s Schema) ProgressPercent(n int) int {
	if s.Len() == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(s.Len()) * 100))
}

// Progress formats ProgressPercent as the CSS width string, e.g. "45%".
func (s Schema) Progress(n int) string {
	return strconv.Itoa(s.ProgressPercent(n)) + "%"
}

// FinanceQuestions returns the yes/no questions of the finances step in reveal order.
func (s Schema) FinanceQuestions() []string {
	st, err := s.Step(StepFinances)
	if err != nil {
		return nil
	}
	var out []string
	for _, f := range st.Fields {
		if f.Kind == KindYesNo {
			out = append(out, f.Name)
		}
	}
	return out
}

// OwnerFieldName returns the generated input name for owner i, e.g. owner1Percentage.
func OwnerFieldName(i int, suffix string) string {
	return "owner" + strconv.Itoa(i) + suffix
}

// DebtFieldName returns the generated input name for debt i, e.g. debt0Balance.
func DebtFieldName(i int, suffix string) string {
	return "debt" + strconv.Itoa(i) + suffix
}
