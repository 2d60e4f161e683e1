// Package cbc holds the typed domain model for OECD Country-by-Country
// reports plus the finding and report-assembly types shared across the
// pipeline. It is pure data: no I/O, no parsing, no side effects.
package cbc

// Closed enumerations from the OECD CbC XML schema. Out-of-set values are
// normalized to the most conservative member during transformation rather
// than aborting.
const (
	MessageTypeCBC = "CBC"

	MessageTypeIndicNewData    = "CBC401"
	MessageTypeIndicCorrection = "CBC402"

	DocTypeNewData             = "OECD1"
	DocTypeCorrection          = "OECD2"
	DocTypeDeletion            = "OECD3"
	DocTypeResend              = "OECD0"
	DocTypeNewTest             = "OECD10"
	DocTypeCorrectionTest      = "OECD11"
	DocTypeDeletionTest        = "OECD12"
	DocTypeResendTest          = "OECD13"

	ReportingRoleUltimateParent = "CBC701"
	ReportingRoleSurrogate      = "CBC702"
	ReportingRoleLocalFiling    = "CBC703"

	// ResCountryCode for entities with no tax residence.
	CountryStateless = "X5"
)

// MessageTypeIndics returns the closed messageTypeIndic set.
func MessageTypeIndics() map[string]bool {
	return map[string]bool{MessageTypeIndicNewData: true, MessageTypeIndicCorrection: true}
}

// DocTypeIndics returns the closed docTypeIndic set, test values included.
func DocTypeIndics() map[string]bool {
	return map[string]bool{
		DocTypeNewData: true, DocTypeCorrection: true, DocTypeDeletion: true, DocTypeResend: true,
		DocTypeNewTest: true, DocTypeCorrectionTest: true, DocTypeDeletionTest: true, DocTypeResendTest: true,
	}
}

// ReportingRoles returns the closed reportingRole set.
func ReportingRoles() map[string]bool {
	return map[string]bool{
		ReportingRoleUltimateParent: true,
		ReportingRoleSurrogate:      true,
		ReportingRoleLocalFiling:    true,
	}
}

// IsCorrectionDocType reports whether the indicator marks a correction or
// deletion document (test variants included).
func IsCorrectionDocType(indic string) bool {
	switch indic {
	case DocTypeCorrection, DocTypeDeletion, DocTypeCorrectionTest, DocTypeDeletionTest:
		return true
	}
	return false
}

// BizActivityCodes is the closed CBC5xx main-business-activity set.
var BizActivityCodes = map[string]bool{
	"CBC501": true, "CBC502": true, "CBC503": true, "CBC504": true, "CBC505": true,
	"CBC506": true, "CBC507": true, "CBC508": true, "CBC509": true, "CBC510": true,
	"CBC511": true, "CBC512": true, "CBC513": true,
}

// CbcMessage is the root logical unit of one submission.
type CbcMessage struct {
	Version     string      `json:"version,omitempty"`
	MessageSpec MessageSpec `json:"messageSpec"`
	CbcBody     CbcBody     `json:"cbcBody"`
}

// MessageSpec carries routing and lifecycle metadata for the whole message.
// MessageRefId must be globally unique per jurisdiction lifetime; uniqueness
// is enforced by the external registry, only presence is checked here.
type MessageSpec struct {
	SendingEntityIN     string   `json:"sendingEntityIn,omitempty"`
	TransmittingCountry string   `json:"transmittingCountry,omitempty"`
	ReceivingCountry    string   `json:"receivingCountry,omitempty"`
	MessageType         string   `json:"messageType,omitempty"`
	Language            string   `json:"language,omitempty"`
	Warnings            []string `json:"warnings,omitempty"`
	Contact             string   `json:"contact,omitempty"`
	MessageRefID        string   `json:"messageRefId,omitempty"`
	MessageTypeIndic    string   `json:"messageTypeIndic,omitempty"`
	CorrMessageRefID    string   `json:"corrMessageRefId,omitempty"`
	ReportingPeriod     string   `json:"reportingPeriod,omitempty"` // ISO date
	Timestamp           string   `json:"timestamp,omitempty"`       // ISO-8601
}

// CbcBody groups the reporting entity with one report per tax jurisdiction.
type CbcBody struct {
	ReportingEntity ReportingEntity  `json:"reportingEntity"`
	CbcReports      []CbcReport      `json:"cbcReports"`
	AdditionalInfo  []AdditionalInfo `json:"additionalInfo,omitempty"`
}

// DocSpec is the document-type/reference metadata block attached to each
// reportable unit. CorrDocRefID implies the referenced original exists; that
// chain is checked by the external registry.
type DocSpec struct {
	DocTypeIndic     string `json:"docTypeIndic,omitempty"`
	DocRefID         string `json:"docRefId,omitempty"`
	CorrDocRefID     string `json:"corrDocRefId,omitempty"`
	CorrMessageRefID string `json:"corrMessageRefId,omitempty"`
}

// OrganisationParty is the common identity shape for reporting and
// constituent entities.
type OrganisationParty struct {
	ResCountryCodes []string  `json:"resCountryCodes,omitempty"`
	TINs            []string  `json:"tins,omitempty"`
	INs             []string  `json:"ins,omitempty"`
	Names           []string  `json:"names"`
	Addresses       []Address `json:"addresses,omitempty"`
}

// Name returns the first entity name, or "" when none was filed.
func (p OrganisationParty) Name() string {
	if len(p.Names) == 0 {
		return ""
	}
	return p.Names[0]
}

// TIN returns the first taxpayer identification number, or "".
func (p OrganisationParty) TIN() string {
	if len(p.TINs) == 0 {
		return ""
	}
	return p.TINs[0]
}

// Address keeps the filed address parts without trying to postal-normalize.
type Address struct {
	CountryCode string `json:"countryCode,omitempty"`
	City        string `json:"city,omitempty"`
	Street      string `json:"street,omitempty"`
	PostCode    string `json:"postCode,omitempty"`
	Free        string `json:"free,omitempty"`
}

// ReportingEntity identifies the entity filing on behalf of the group.
type ReportingEntity struct {
	DocSpec         DocSpec           `json:"docSpec"`
	Entity          OrganisationParty `json:"entity"`
	ReportingRole   string            `json:"reportingRole,omitempty"`
	ReportingPeriod string            `json:"reportingPeriod,omitempty"`
}

// CbcReport is the per-jurisdiction aggregate block. ResCountryCode is
// required: ISO 3166-1 alpha-2 or the stateless code.
type CbcReport struct {
	DocSpec        DocSpec             `json:"docSpec"`
	ResCountryCode string              `json:"resCountryCode"`
	Summary        Summary             `json:"summary"`
	ConstEntities  []ConstituentEntity `json:"constEntities,omitempty"`
}

// ConstituentEntity is one group member resident in the report jurisdiction.
type ConstituentEntity struct {
	Entity          OrganisationParty `json:"entity"`
	IncorpCountry   string            `json:"incorpCountryCode,omitempty"`
	BizActivities   []string          `json:"bizActivities,omitempty"`
	OtherEntityInfo string            `json:"otherEntityInfo,omitempty"`
}

// MonetaryAmount always resolves to a finite number; malformed source text is
// defaulted to 0 by the transformer, which records a data-quality signal
// instead of failing.
type MonetaryAmount struct {
	Value    float64 `json:"value"`
	CurrCode string  `json:"currCode,omitempty"`
}

// Summary holds the Table 1 financial aggregates for one jurisdiction.
type Summary struct {
	UnrelatedRevenue MonetaryAmount `json:"unrelatedRevenue"`
	RelatedRevenue   MonetaryAmount `json:"relatedRevenue"`
	TotalRevenue     MonetaryAmount `json:"totalRevenue"`
	ProfitOrLoss     MonetaryAmount `json:"profitOrLoss"`
	TaxPaid          MonetaryAmount `json:"taxPaid"`
	TaxAccrued       MonetaryAmount `json:"taxAccrued"`
	Capital          MonetaryAmount `json:"capital"`
	Earnings         MonetaryAmount `json:"earnings"`
	NbEmployees      int            `json:"nbEmployees"`
	Assets           MonetaryAmount `json:"assets"`
}

// AdditionalInfo carries free-text notes attached to the body.
type AdditionalInfo struct {
	DocSpec         DocSpec  `json:"docSpec"`
	OtherInfo       string   `json:"otherInfo,omitempty"`
	ResCountryCodes []string `json:"resCountryCodes,omitempty"`
	SummaryRefCodes []string `json:"summaryRefCodes,omitempty"`
}
