// Package transform maps the generic attributed tree into the canonical
// typed report model. Field resolution is prefix-tolerant, values are
// normalized (dates, timestamps, amounts, closed enumerations), and every
// recoverable problem is collected as a finding tagged with the dotted
// logical path instead of aborting.
package transform

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/xmlparse"
)

// Rule IDs emitted during transformation.
const (
	RuleMissingMessageSpec     = "SCH-001"
	RuleMissingCbcBody         = "SCH-002"
	RuleMissingReportingEntity = "SCH-003"
	RuleNoReports              = "SCH-004"
	RuleMissingRecommended     = "SCH-005"
	RuleEmptyResCountryCode    = "SCH-006"
	RuleEnumFallback           = "SCH-007"
	RuleAmountDefaulted        = "DQ-101"
	RuleTimestampFabricated    = "DQ-102"
	RuleDateRetained           = "DQ-103"
	RuleMissingDocRefID        = "DQ-104"
	RuleMissingEntityName      = "DQ-105"
)

// Transformer builds a CbcMessage from a parsed tree. Not safe for
// concurrent use; construct one per document.
type Transformer struct {
	now      func() time.Time
	findings []cbc.ValidationResult
}

// New returns a Transformer using the wall clock for the lossy timestamp
// fallback.
func New() *Transformer {
	return NewWithClock(time.Now)
}

// NewWithClock injects the clock, keeping the fabricated-timestamp path
// deterministic in tests.
func NewWithClock(now func() time.Time) *Transformer {
	return &Transformer{now: now}
}

// Transform converts the tree into the typed model. When MessageSpec or
// CbcBody is absent the returned message is nil and the findings carry the
// critical errors; no further resolution is meaningful. Otherwise the
// message is returned together with every non-fatal finding collected on the
// way down.
func (t *Transformer) Transform(root *xmlparse.Node) (*cbc.CbcMessage, []cbc.ValidationResult) {
	t.findings = nil

	specNode := resolve(root, "MessageSpec")
	bodyNode := resolve(root, "CbcBody")

	var criticals []cbc.ValidationResult
	if specNode == nil {
		criticals = append(criticals, cbc.ValidationResult{
			RuleID:   RuleMissingMessageSpec,
			Category: cbc.CategorySchema,
			Severity: cbc.SeverityCritical,
			Message:  "required element MessageSpec is absent",
			XPath:    "CbcMessage.MessageSpec",
		})
	}
	if bodyNode == nil {
		criticals = append(criticals, cbc.ValidationResult{
			RuleID:   RuleMissingCbcBody,
			Category: cbc.CategorySchema,
			Severity: cbc.SeverityCritical,
			Message:  "required element CbcBody is absent",
			XPath:    "CbcMessage.CbcBody",
		})
	}
	if len(criticals) > 0 {
		return nil, criticals
	}

	msg := &cbc.CbcMessage{
		Version:     root.Attr("version"),
		MessageSpec: t.buildMessageSpec(specNode, "CbcMessage.MessageSpec"),
		CbcBody:     t.buildBody(bodyNode, "CbcMessage.CbcBody"),
	}
	return msg, t.findings
}

func (t *Transformer) buildMessageSpec(n *xmlparse.Node, path string) cbc.MessageSpec {
	spec := cbc.MessageSpec{
		SendingEntityIN:     resolveText(n, "SendingEntityIN"),
		TransmittingCountry: resolveText(n, "TransmittingCountry"),
		ReceivingCountry:    resolveText(n, "ReceivingCountry"),
		Language:            resolveText(n, "Language"),
		Contact:             resolveText(n, "Contact"),
		MessageRefID:        resolveText(n, "MessageRefId"),
		CorrMessageRefID:    resolveText(n, "CorrMessageRefId"),
	}

	for _, w := range resolveAll(n, "Warning") {
		if s := w.TrimmedText(); s != "" {
			spec.Warnings = append(spec.Warnings, s)
		}
	}

	if spec.MessageRefID == "" {
		t.warnMissing("MessageRefId", path+".MessageRefId")
	}
	if spec.TransmittingCountry == "" {
		t.warnMissing("TransmittingCountry (sending competent authority)", path+".TransmittingCountry")
	}
	if spec.ReceivingCountry == "" {
		t.warnMissing("ReceivingCountry", path+".ReceivingCountry")
	}

	spec.MessageType = t.enum(resolveText(n, "MessageType"),
		map[string]bool{cbc.MessageTypeCBC: true}, cbc.MessageTypeCBC, "MessageType", path+".MessageType")

	if raw := resolveText(n, "MessageTypeIndic"); raw != "" {
		spec.MessageTypeIndic = t.enum(raw, cbc.MessageTypeIndics(), cbc.MessageTypeIndicNewData,
			"MessageTypeIndic", path+".MessageTypeIndic")
	} else {
		t.warnMissing("MessageTypeIndic", path+".MessageTypeIndic")
	}

	if raw := resolveText(n, "ReportingPeriod"); raw != "" {
		spec.ReportingPeriod = t.date(raw, path+".ReportingPeriod")
	} else {
		t.warnMissing("ReportingPeriod", path+".ReportingPeriod")
	}

	if raw := resolveText(n, "Timestamp"); raw != "" {
		ts, ok := NormalizeTimestamp(raw, t.now())
		spec.Timestamp = ts
		if !ok {
			t.add(cbc.ValidationResult{
				RuleID:   RuleTimestampFabricated,
				Category: cbc.CategoryDataQuality,
				Severity: cbc.SeverityWarning,
				Message:  fmt.Sprintf("timestamp %q could not be parsed; current time substituted", raw),
				XPath:    path + ".Timestamp",
				Details:  map[string]any{"original": raw},
			})
		}
	}

	return spec
}

func (t *Transformer) buildBody(n *xmlparse.Node, path string) cbc.CbcBody {
	var body cbc.CbcBody

	if re := resolve(n, "ReportingEntity"); re != nil {
		body.ReportingEntity = t.buildReportingEntity(re, path+".ReportingEntity")
	} else {
		t.add(cbc.ValidationResult{
			RuleID:   RuleMissingReportingEntity,
			Category: cbc.CategorySchema,
			Severity: cbc.SeverityError,
			Message:  "required element ReportingEntity is absent",
			XPath:    path + ".ReportingEntity",
		})
	}

	reports := resolveAll(n, "CbcReports")
	if len(reports) == 0 {
		reports = resolveAll(n, "CbcReport")
	}
	for i, rn := range reports {
		rp := fmt.Sprintf("%s.CbcReports[%d]", path, i)
		body.CbcReports = append(body.CbcReports, t.buildReport(rn, rp))
	}
	if len(body.CbcReports) == 0 {
		t.add(cbc.ValidationResult{
			RuleID:   RuleNoReports,
			Category: cbc.CategorySchema,
			Severity: cbc.SeverityError,
			Message:  "at least one CbcReports element is required",
			XPath:    path + ".CbcReports",
		})
	}

	for i, an := range resolveAll(n, "AdditionalInfo") {
		ap := fmt.Sprintf("%s.AdditionalInfo[%d]", path, i)
		body.AdditionalInfo = append(body.AdditionalInfo, t.buildAdditionalInfo(an, ap))
	}

	return body
}

func (t *Transformer) buildReportingEntity(n *xmlparse.Node, path string) cbc.ReportingEntity {
	re := cbc.ReportingEntity{
		DocSpec: t.buildDocSpec(resolve(n, "DocSpec"), path+".DocSpec"),
	}

	entityNode := resolve(n, "Entity")
	if entityNode == nil {
		entityNode = n // some filings inline the party fields
	}
	re.Entity = t.buildParty(entityNode, path+".Entity")

	re.ReportingRole = t.enum(resolveText(n, "ReportingRole"), cbc.ReportingRoles(),
		cbc.ReportingRoleUltimateParent, "ReportingRole", path+".ReportingRole")

	if raw := resolveText(n, "ReportingPeriod"); raw != "" {
		re.ReportingPeriod = t.date(raw, path+".ReportingPeriod")
	}
	return re
}

func (t *Transformer) buildDocSpec(n *xmlparse.Node, path string) cbc.DocSpec {
	if n == nil {
		t.add(cbc.ValidationResult{
			RuleID:   RuleMissingDocRefID,
			Category: cbc.CategoryDataQuality,
			Severity: cbc.SeverityError,
			Message:  "DocSpec with a DocRefId is required",
			XPath:    path,
		})
		return cbc.DocSpec{DocTypeIndic: cbc.DocTypeNewData}
	}

	ds := cbc.DocSpec{
		DocRefID:         resolveText(n, "DocRefId"),
		CorrDocRefID:     resolveText(n, "CorrDocRefId"),
		CorrMessageRefID: resolveText(n, "CorrMessageRefId"),
	}
	ds.DocTypeIndic = t.enum(resolveText(n, "DocTypeIndic"), cbc.DocTypeIndics(),
		cbc.DocTypeNewData, "DocTypeIndic", path+".DocTypeIndic")

	if ds.DocRefID == "" {
		t.add(cbc.ValidationResult{
			RuleID:   RuleMissingDocRefID,
			Category: cbc.CategoryDataQuality,
			Severity: cbc.SeverityError,
			Message:  "DocRefId is missing",
			XPath:    path + ".DocRefId",
		})
	}
	return ds
}

func (t *Transformer) buildParty(n *xmlparse.Node, path string) cbc.OrganisationParty {
	var p cbc.OrganisationParty

	for _, c := range resolveAll(n, "ResCountryCode") {
		if s := c.TrimmedText(); s != "" {
			p.ResCountryCodes = append(p.ResCountryCodes, s)
		}
	}
	for _, c := range resolveAll(n, "TIN") {
		if s := c.TrimmedText(); s != "" {
			p.TINs = append(p.TINs, s)
		}
	}
	for _, c := range resolveAll(n, "IN") {
		if s := c.TrimmedText(); s != "" {
			p.INs = append(p.INs, s)
		}
	}
	for _, c := range resolveAll(n, "Name") {
		if s := c.TrimmedText(); s != "" {
			p.Names = append(p.Names, s)
		}
	}
	for _, c := range resolveAll(n, "Address") {
		p.Addresses = append(p.Addresses, buildAddress(c))
	}

	if len(p.Names) == 0 {
		t.add(cbc.ValidationResult{
			RuleID:   RuleMissingEntityName,
			Category: cbc.CategoryDataQuality,
			Severity: cbc.SeverityError,
			Message:  "entity has no Name element",
			XPath:    path + ".Name",
		})
	}
	return p
}

func buildAddress(n *xmlparse.Node) cbc.Address {
	addr := cbc.Address{
		CountryCode: resolveText(n, "CountryCode"),
		Free:        resolveText(n, "AddressFree"),
	}
	fix := resolve(n, "AddressFix")
	if fix == nil {
		fix = n
	}
	addr.Street = resolveText(fix, "Street")
	addr.City = resolveText(fix, "City")
	addr.PostCode = resolveText(fix, "PostCode")
	return addr
}

func (t *Transformer) buildReport(n *xmlparse.Node, path string) cbc.CbcReport {
	r := cbc.CbcReport{
		DocSpec:        t.buildDocSpec(resolve(n, "DocSpec"), path+".DocSpec"),
		ResCountryCode: resolveText(n, "ResCountryCode"),
	}

	if r.ResCountryCode == "" {
		t.add(cbc.ValidationResult{
			RuleID:   RuleEmptyResCountryCode,
			Category: cbc.CategorySchema,
			Severity: cbc.SeverityError,
			Message:  "CbcReports requires a non-empty ResCountryCode",
			XPath:    path + ".ResCountryCode",
		})
	}

	if sn := resolve(n, "Summary"); sn != nil {
		r.Summary = t.buildSummary(sn, path+".Summary")
	} else {
		t.warnMissing("Summary", path+".Summary")
	}

	for i, cn := range resolveAll(n, "ConstEntities") {
		cp := fmt.Sprintf("%s.ConstEntities[%d]", path, i)
		r.ConstEntities = append(r.ConstEntities, t.buildConstEntity(cn, cp))
	}
	return r
}

func (t *Transformer) buildConstEntity(n *xmlparse.Node, path string) cbc.ConstituentEntity {
	ce := cbc.ConstituentEntity{
		IncorpCountry:   resolveText(n, "IncorpCountryCode"),
		OtherEntityInfo: resolveText(n, "OtherEntityInfo"),
	}

	entityNode := resolve(n, "ConstEntity")
	if entityNode == nil {
		entityNode = n
	}
	ce.Entity = t.buildParty(entityNode, path)

	for _, b := range resolveAll(n, "BizActivities") {
		raw := b.TrimmedText()
		if raw == "" {
			continue
		}
		code := t.enum(raw, cbc.BizActivityCodes, "CBC513", "BizActivities", path+".BizActivities")
		ce.BizActivities = append(ce.BizActivities, code)
	}
	return ce
}

func (t *Transformer) buildSummary(n *xmlparse.Node, path string) cbc.Summary {
	s := cbc.Summary{
		ProfitOrLoss: t.amount(resolve(n, "ProfitOrLoss"), path+".ProfitOrLoss"),
		TaxPaid:      t.amount(resolve(n, "TaxPaid"), path+".TaxPaid"),
		TaxAccrued:   t.amount(resolve(n, "TaxAccrued"), path+".TaxAccrued"),
		Capital:      t.amount(resolve(n, "Capital"), path+".Capital"),
		Earnings:     t.amount(resolve(n, "Earnings"), path+".Earnings"),
		Assets:       t.amount(resolve(n, "Assets"), path+".Assets"),
	}

	rev := resolve(n, "Revenues")
	if rev == nil {
		rev = n
	}
	s.UnrelatedRevenue = t.amount(resolve(rev, "Unrelated"), path+".Revenues.Unrelated")
	s.RelatedRevenue = t.amount(resolve(rev, "Related"), path+".Revenues.Related")
	s.TotalRevenue = t.amount(resolve(rev, "Total"), path+".Revenues.Total")

	if en := resolve(n, "NbEmployees"); en != nil {
		raw := en.TrimmedText()
		if v, err := strconv.Atoi(raw); err == nil {
			s.NbEmployees = v
		} else if f, ok := ParseAmount(raw); ok {
			s.NbEmployees = int(f)
		} else {
			t.defaulted(raw, path+".NbEmployees")
		}
	}
	return s
}

// amount resolves a monetary element that may be a bare number with a
// currCode attribute or a nested value/currency pair. Missing or malformed
// values resolve to 0 so the model always carries finite numbers.
func (t *Transformer) amount(n *xmlparse.Node, path string) cbc.MonetaryAmount {
	if n == nil {
		return cbc.MonetaryAmount{}
	}

	text := n.TrimmedText()
	curr := n.Attr("currCode")

	if text == "" || len(n.Children) > 0 {
		for _, key := range []string{"Value", "Amount"} {
			if vn := resolve(n, key); vn != nil {
				text = vn.TrimmedText()
				if c := vn.Attr("currCode"); c != "" {
					curr = c
				}
				break
			}
		}
		if c := resolveText(n, "CurrCode"); c != "" && curr == "" {
			curr = c
		}
	}

	if text == "" {
		return cbc.MonetaryAmount{CurrCode: curr}
	}

	v, ok := ParseAmount(text)
	if !ok {
		t.defaulted(text, path)
	}
	return cbc.MonetaryAmount{Value: v, CurrCode: curr}
}

func (t *Transformer) buildAdditionalInfo(n *xmlparse.Node, path string) cbc.AdditionalInfo {
	ai := cbc.AdditionalInfo{
		DocSpec:   t.buildDocSpec(resolve(n, "DocSpec"), path+".DocSpec"),
		OtherInfo: resolveText(n, "OtherInfo"),
	}
	for _, c := range resolveAll(n, "ResCountryCode") {
		if s := c.TrimmedText(); s != "" {
			ai.ResCountryCodes = append(ai.ResCountryCodes, s)
		}
	}
	for _, c := range resolveAll(n, "SummaryRef") {
		if s := c.TrimmedText(); s != "" {
			ai.SummaryRefCodes = append(ai.SummaryRefCodes, s)
		}
	}
	return ai
}

// enum normalizes against a closed set; an out-of-set non-empty value is an
// ERROR but never aborts transformation.
func (t *Transformer) enum(raw string, set map[string]bool, fallback, field, path string) string {
	v, ok := NormalizeEnum(raw, set, fallback)
	if !ok && raw != "" {
		t.add(cbc.ValidationResult{
			RuleID:   RuleEnumFallback,
			Category: cbc.CategorySchema,
			Severity: cbc.SeverityError,
			Message:  fmt.Sprintf("%s value %q is not in the closed set; defaulted to %s", field, raw, fallback),
			XPath:    path,
			Details:  map[string]any{"original": raw, "defaulted": fallback},
		})
	}
	return v
}

// date normalizes to ISO; unparsable input is retained verbatim and flagged.
func (t *Transformer) date(raw, path string) string {
	v, ok := NormalizeDate(raw)
	if !ok && raw != "" {
		t.add(cbc.ValidationResult{
			RuleID:   RuleDateRetained,
			Category: cbc.CategoryDataQuality,
			Severity: cbc.SeverityWarning,
			Message:  fmt.Sprintf("date %q could not be parsed; value retained as filed", raw),
			XPath:    path,
		})
	}
	return v
}

func (t *Transformer) defaulted(raw, path string) {
	t.add(cbc.ValidationResult{
		RuleID:   RuleAmountDefaulted,
		Category: cbc.CategoryDataQuality,
		Severity: cbc.SeverityWarning,
		Message:  fmt.Sprintf("numeric value %q could not be parsed; defaulted to 0", raw),
		XPath:    path,
		Details:  map[string]any{"original": raw},
	})
}

func (t *Transformer) warnMissing(field, path string) {
	t.add(cbc.ValidationResult{
		RuleID:   RuleMissingRecommended,
		Category: cbc.CategorySchema,
		Severity: cbc.SeverityWarning,
		Message:  field + " is recommended but missing",
		XPath:    path,
	})
}

func (t *Transformer) add(f cbc.ValidationResult) {
	t.findings = append(t.findings, f)
}
