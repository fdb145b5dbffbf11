package formtest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SubmissionPayload is the JSON body the application posts to the form-data
// webhook when the applicant submits on the authorization step.
type SubmissionPayload struct {
	FormVersion string  `json:"form_version"`
	SubmittedAt string  `json:"submitted_at"`
	Contact     Contact `json:"contact"`
	Company     Company `json:"company"`
	Deal        Deal    `json:"deal"`
}

// Contact mirrors the CRM contact object.
type Contact struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Company mirrors the CRM company object.
type Company struct {
	Name            string `json:"name"`
	DBA             string `json:"dba"`
	BusinessType    string `json:"business_type"`
	EIN             string `json:"ein"`
	Industry        string `json:"industry"`
	YearsInBusiness string `json:"years_in_business"`
	Website         string `json:"website"`
	Address         string `json:"address"`
}

// Deal mirrors the CRM deal object: the funding request plus everything
// collected about the business.
type Deal struct {
	FundingAmount      string       `json:"funding_amount"`
	FundingPurpose     string       `json:"funding_purpose"`
	FundingTimeline    string       `json:"funding_timeline"`
	TicketingPlatform  string       `json:"ticketing_platform"`
	AverageTicketPrice string       `json:"average_ticket_price"`
	SettlementSchedule string       `json:"settlement_schedule"`
	AnnualTicketSales  string       `json:"annual_ticket_sales"`
	EventsPerYear      string       `json:"events_per_year"`
	AverageAttendance  string       `json:"average_attendance"`
	Owners             []DealOwner  `json:"owners"`
	Finances           DealFinances `json:"finances"`
	Documents          []string     `json:"documents"`
	SignatureName      string       `json:"signature_name"`
}

// DealOwner is one owner as submitted.
type DealOwner struct {
	Name       string `json:"name"`
	Percentage string `json:"percentage"`
	Address    string `json:"address"`
	BirthDate  string `json:"birth_date"`
}

// DealFinances is the financial background as submitted.
type DealFinances struct {
	PrimaryBank        string     `json:"primary_bank"`
	Notes              string     `json:"notes"`
	HasBusinessDebt    bool       `json:"has_business_debt"`
	HasOpenLiens       bool       `json:"has_open_liens"`
	HasPriorBankruptcy bool       `json:"has_prior_bankruptcy"`
	LeasesVenue        bool       `json:"leases_venue"`
	HasOtherFunding    bool       `json:"has_other_funding"`
	Debts              []DealDebt `json:"debts"`
	LeaseEndDate       string     `json:"lease_end_date"`
}

// DealDebt is one debt entry as submitted.
type DealDebt struct {
	Type    string `json:"type"`
	Balance string `json:"balance"`
}

// BuildSubmission returns the payload the application is expected to send
// for d, with SubmittedAt left empty. Values are the displayed (formatted)
// input values, so it can be compared field-for-field with a capture.
func BuildSubmission(s Schema, d TestFormData) SubmissionPayload {
	p := SubmissionPayload{
		FormVersion: s.Version,
		Contact: Contact{
			Firstname: d.PersonalInfo.Firstname,
			Lastname:  d.PersonalInfo.Lastname,
			Email:     d.PersonalInfo.Email,
			Phone:     FormatPhone(d.PersonalInfo.Phone),
		},
		Company: Company{
			Name:            d.CompanyInfo.CompanyName,
			DBA:             d.CompanyInfo.DBA,
			BusinessType:    d.CompanyInfo.BusinessType,
			EIN:             d.CompanyInfo.EIN,
			Industry:        d.CompanyInfo.Industry,
			YearsInBusiness: d.CompanyInfo.YearsInBusiness,
			Website:         d.CompanyInfo.Website,
			Address:         d.CompanyInfo.CompanyAddress,
		},
		Deal: Deal{
			FundingAmount:      FormatCurrency(d.FundsInfo.FundingAmount),
			FundingPurpose:     d.FundsInfo.FundingPurpose,
			FundingTimeline:    d.FundsInfo.FundingTimeline,
			TicketingPlatform:  d.TicketingInfo.TicketingPlatform,
			AverageTicketPrice: FormatCurrency(d.TicketingInfo.AverageTicketPrice),
			SettlementSchedule: d.TicketingInfo.SettlementSchedule,
			AnnualTicketSales:  FormatCurrency(d.VolumeInfo.AnnualTicketSales),
			EventsPerYear:      d.VolumeInfo.EventsPerYear,
			AverageAttendance:  d.VolumeInfo.AverageAttendance,
			Owners:             []DealOwner{},
			Documents:          []string{},
			SignatureName:      d.Authorization.SignatureName,
		},
	}
	for _, o := range d.OwnershipInfo.Owners {
		p.Deal.Owners = append(p.Deal.Owners, DealOwner{
			Name:       o.Name,
			Percentage: o.Percentage,
			Address:    o.Address,
			BirthDate:  o.BirthDate,
		})
	}

	f := d.FinancesInfo
	p.Deal.Finances = DealFinances{
		PrimaryBank:        f.PrimaryBank,
		Notes:              f.FinancialNotes,
		HasBusinessDebt:    f.HasBusinessDebt,
		HasOpenLiens:       f.HasOpenLiens,
		HasPriorBankruptcy: f.HasPriorBankruptcy,
		LeasesVenue:        f.LeasesVenue,
		HasOtherFunding:    f.HasOtherFunding,
		Debts:              []DealDebt{},
	}
	if f.HasBusinessDebt {
		for _, debt := range f.Debts {
			p.Deal.Finances.Debts = append(p.Deal.Finances.Debts, DealDebt{Type: debt.Type, Balance: FormatCurrency(debt.Balance)})
		}
	}
	if f.LeasesVenue {
		p.Deal.Finances.LeaseEndDate = f.LeaseEndDate
	}

	if docs, err := s.Step(StepDocuments); err == nil {
		uploaded := map[string]bool{}
		for _, file := range d.Documents.Files {
			uploaded[file.Field] = true
		}
		for _, field := range docs.Fields {
			if uploaded[field.Name] {
				p.Deal.Documents = append(p.Deal.Documents, field.Name)
			}
		}
	}
	return p
}

//go:embed submission.schema.json
var submissionSchemaJSON []byte

var submissionSchema = gojsonschema.NewBytesLoader(submissionSchemaJSON)

// SubmissionError lists every JSON Schema violation of a payload.
type SubmissionError struct {
	Violations []string
}

func (e *SubmissionError) Error() string {
	return "submission payload invalid: " + strings.Join(e.Violations, "; ")
}

// ValidateSubmission checks a raw form-data webhook body against the
// submission JSON Schema. Violations are returned as *SubmissionError.
func ValidateSubmission(body []byte) error {
	result, err := gojsonschema.Validate(submissionSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validate submission: %w", err)
	}
	if result.Valid() {
		return nil
	}
	serr := &SubmissionError{}
	for _, e := range result.Errors() {
		serr.Violations = append(serr.Violations, e.Field()+": "+e.Description())
	}
	return serr
}

// DecodeSubmission parses a form-data webhook body.
func DecodeSubmission(body []byte) (SubmissionPayload, error) {
	var p SubmissionPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return SubmissionPayload{}, fmt.Errorf("decode submission: %w", err)
	}
	return p, nil
}
