package formtest

import (
	"strconv"
)

// TestFormData is one complete application. YAML keys mirror the fixture
// files; the input names they land in are defined by the schema and
// resolved in Values.
type TestFormData struct {
	Profile       string        `yaml:"profile" json:"profile" validate:"required"`
	PersonalInfo  PersonalInfo  `yaml:"personalInfo" json:"personalInfo"`
	CompanyInfo   CompanyInfo   `yaml:"companyInfo" json:"companyInfo"`
	TicketingInfo TicketingInfo `yaml:"ticketingInfo" json:"ticketingInfo"`
	VolumeInfo    VolumeInfo    `yaml:"volumeInfo" json:"volumeInfo"`
	FundsInfo     FundsInfo     `yaml:"fundsInfo" json:"fundsInfo"`
	OwnershipInfo OwnershipInfo `yaml:"ownershipInfo" json:"ownershipInfo"`
	FinancesInfo  FinancesInfo  `yaml:"financesInfo" json:"financesInfo"`
	Documents     Documents     `yaml:"documents" json:"documents"`
	Authorization Authorization `yaml:"authorization" json:"authorization"`
}

// PersonalInfo fills step 1.
type PersonalInfo struct {
	Firstname string `yaml:"firstname" json:"firstname" validate:"required"`
	Lastname  string `yaml:"lastname" json:"lastname" validate:"required"`
	Email     string `yaml:"email" json:"email" validate:"required,email"`
	Phone     string `yaml:"phone" json:"phone" validate:"required,phone"`
}

// CompanyInfo fills step 2.
type CompanyInfo struct {
	CompanyName     string `yaml:"companyName" json:"companyName" validate:"required"`
	DBA             string `yaml:"dba" json:"dba"`
	BusinessType    string `yaml:"businessType" json:"businessType" validate:"required,oneof=llc corporation s-corp sole-proprietorship partnership nonprofit"`
	EIN             string `yaml:"ein" json:"ein" validate:"required,len=10"`
	Industry        string `yaml:"industry" json:"industry" validate:"required"`
	YearsInBusiness string `yaml:"yearsInBusiness" json:"yearsInBusiness" validate:"required,numeric"`
	Website         string `yaml:"website" json:"website" validate:"omitempty,url"`
	CompanyAddress  string `yaml:"companyAddress" json:"companyAddress" validate:"required"`
}

// TicketingInfo fills step 3.
type TicketingInfo struct {
	TicketingPlatform  string `yaml:"ticketingPlatform" json:"ticketingPlatform" validate:"required"`
	AverageTicketPrice string `yaml:"averageTicketPrice" json:"averageTicketPrice" validate:"required,currency"`
	SettlementSchedule string `yaml:"settlementSchedule" json:"settlementSchedule" validate:"required"`
}

// VolumeInfo fills step 4.
type VolumeInfo struct {
	AnnualTicketSales string `yaml:"annualTicketSales" json:"annualTicketSales" validate:"required,currency"`
	EventsPerYear     string `yaml:"eventsPerYear" json:"eventsPerYear" validate:"required,numeric"`
	AverageAttendance string `yaml:"averageAttendance" json:"averageAttendance" validate:"required,numeric"`
}

// FundsInfo fills step 5.
type FundsInfo struct {
	FundingAmount   string `yaml:"fundingAmount" json:"fundingAmount" validate:"required,currency"`
	FundingPurpose  string `yaml:"fundingPurpose" json:"fundingPurpose" validate:"required"`
	FundingTimeline string `yaml:"fundingTimeline" json:"fundingTimeline" validate:"required"`
}

// Owner is one entry of the ownership step. Percentage is kept as the
// string typed into the form.
type Owner struct {
	ID         string `yaml:"id" json:"id" validate:"required"`
	Name       string `yaml:"name" json:"name" validate:"required"`
	Percentage string `yaml:"percentage" json:"percentage" validate:"required,numeric"`
	Address    string `yaml:"address" json:"address" validate:"required"`
	BirthDate  string `yaml:"birthDate" json:"birthDate" validate:"required,datetime=2006-01-02"`
}

// OwnershipInfo fills step 6.
type OwnershipInfo struct {
	Owners []Owner `yaml:"owners" json:"owners" validate:"required,min=1,max=4,dive"`
}

// Total sums the owners' percentages. Unparseable entries count as zero.
func (o OwnershipInfo) Total() float64 {
	var total float64
	for _, owner := range o.Owners {
		p, err := strconv.ParseFloat(owner.Percentage, 64)
		if err != nil {
			continue
		}
		total += p
	}
	return total
}

// Debt is one entry of the business debt sub-form.
type Debt struct {
	Type    string `yaml:"type" json:"type" validate:"required,oneof=loan line-of-credit merchant-cash-advance equipment-financing credit-card other"`
	Balance string `yaml:"balance" json:"balance" validate:"required,currency"`
}

// FinancesInfo fills step 7.
type FinancesInfo struct {
	PrimaryBank        string `yaml:"primaryBank" json:"primaryBank" validate:"required"`
	FinancialNotes     string `yaml:"financialNotes" json:"financialNotes"`
	HasBusinessDebt    bool   `yaml:"hasBusinessDebt" json:"hasBusinessDebt"`
	HasOpenLiens       bool   `yaml:"hasOpenLiens" json:"hasOpenLiens"`
	HasPriorBankruptcy bool   `yaml:"hasPriorBankruptcy" json:"hasPriorBankruptcy"`
	LeasesVenue        bool   `yaml:"leasesVenue" json:"leasesVenue"`
	HasOtherFunding    bool   `yaml:"hasOtherFunding" json:"hasOtherFunding"`
	Debts              []Debt `yaml:"debts" json:"debts" validate:"max=5,dive"`
	LeaseEndDate       string `yaml:"leaseEndDate" json:"leaseEndDate" validate:"omitempty,datetime=2006-01-02"`
}

// Answer is the response to one yes/no question.
type Answer struct {
	Question string
	Yes      bool
}

// Value is the radio value the application expects.
func (a Answer) Value() string {
	return yesNo(a.Yes)
}

// Answers returns the yes/no answers in reveal order.
func (f FinancesInfo) Answers() []Answer {
	return []Answer{
		{QuestionBusinessDebt, f.HasBusinessDebt},
		{QuestionOpenLiens, f.HasOpenLiens},
		{QuestionBankruptcy, f.HasPriorBankruptcy},
		{QuestionLeasesVenue, f.LeasesVenue},
		{QuestionOtherFunding, f.HasOtherFunding},
	}
}

// DebtTotal sums the debt balances in whole dollars.
func (f FinancesInfo) DebtTotal() int64 {
	var total int64
	for _, d := range f.Debts {
		v, err := ParseCurrency(d.Balance)
		if err != nil {
			continue
		}
		total += v
	}
	return total
}

// Document is a file to attach to an upload field.
type Document struct {
	Field    string `yaml:"field" json:"field" validate:"required"`
	FileName string `yaml:"fileName" json:"fileName" validate:"required"`
}

// Documents fills step 8.
type Documents struct {
	Files []Document `yaml:"files" json:"files" validate:"dive"`
}

// Authorization fills step 10.
type Authorization struct {
	AgreeToTerms    bool   `yaml:"agreeToTerms" json:"agreeToTerms"`
	ConsentToCredit bool   `yaml:"consentToCredit" json:"consentToCredit"`
	SignatureName   string `yaml:"signatureName" json:"signatureName" validate:"required"`
}

// Values flattens the section filled on step n into input name -> value.
// Yes/no answers map to "yes"/"no" and checkboxes to "true"/"false".
// Steps without inputs return an empty map.
func (d TestFormData) Values(step int) (map[string]string, error) {
	v := map[string]string{}
	switch step {
	case StepPersonal:
		p := d.PersonalInfo
		v["firstname"] = p.Firstname
		v["lastname"] = p.Lastname
		v["email"] = p.Email
		v["phone"] = p.Phone
	case StepCompany:
		c := d.CompanyInfo
		v["companyName"] = c.CompanyName
		v["dba"] = c.DBA
		v["businessType"] = c.BusinessType
		v["ein"] = c.EIN
		v["industry"] = c.Industry
		v["yearsInBusiness"] = c.YearsInBusiness
		v["website"] = c.Website
		v["companyAddress"] = c.CompanyAddress
	case StepTicketing:
		t := d.TicketingInfo
		v["ticketingPlatform"] = t.TicketingPlatform
		v["averageTicketPrice"] = t.AverageTicketPrice
		v["settlementSchedule"] = t.SettlementSchedule
	case StepVolume:
		vol := d.VolumeInfo
		v["annualTicketSales"] = vol.AnnualTicketSales
		v["eventsPerYear"] = vol.EventsPerYear
		v["averageAttendance"] = vol.AverageAttendance
	case StepFunds:
		f := d.FundsInfo
		v["fundingAmount"] = f.FundingAmount
		v["fundingPurpose"] = f.FundingPurpose
		v["fundingTimeline"] = f.FundingTimeline
	case StepOwnership:
		for i, o := range d.OwnershipInfo.Owners {
			v[OwnerFieldName(i, OwnerName)] = o.Name
			v[OwnerFieldName(i, OwnerPercentage)] = o.Percentage
			v[OwnerFieldName(i, OwnerAddress)] = o.Address
			v[OwnerFieldName(i, OwnerBirthDate)] = o.BirthDate
		}
	case StepFinances:
		f := d.FinancesInfo
		v[FieldPrimaryBank] = f.PrimaryBank
		v[FieldFinancialNotes] = f.FinancialNotes
		for _, a := range f.Answers() {
			v[a.Question] = a.Value()
		}
		if f.HasBusinessDebt {
			for i, debt := range f.Debts {
				v[DebtFieldName(i, DebtType)] = debt.Type
				v[DebtFieldName(i, DebtBalance)] = debt.Balance
			}
		}
		if f.LeasesVenue {
			v[FieldLeaseEndDate] = f.LeaseEndDate
		}
	case StepDocuments:
		for _, doc := range d.Documents.Files {
			v[doc.Field] = doc.FileName
		}
	case StepReview, StepConfirmation:
	case StepAuthorization:
		a := d.Authorization
		v["agreeToTerms"] = strconv.FormatBool(a.AgreeToTerms)
		v["consentToCredit"] = strconv.FormatBool(a.ConsentToCredit)
		v["signatureName"] = a.SignatureName
	default:
		return nil, ErrUnknownStep
	}
	return v, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
