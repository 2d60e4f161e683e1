package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
)

// iso3166Alpha2 is the ISO 3166-1 alpha-2 set plus the OECD-specific
// stateless code X5.
var iso3166Alpha2 = buildCountrySet(
	"AD AE AF AG AI AL AM AO AQ AR AS AT AU AW AX AZ BA BB BD BE BF BG BH BI BJ BL BM BN BO BQ BR BS BT BV BW BY BZ " +
		"CA CC CD CF CG CH CI CK CL CM CN CO CR CU CV CW CX CY CZ DE DJ DK DM DO DZ EC EE EG EH ER ES ET FI FJ FK FM FO FR " +
		"GA GB GD GE GF GG GH GI GL GM GN GP GQ GR GS GT GU GW GY HK HM HN HR HT HU ID IE IL IM IN IO IQ IR IS IT JE JM JO JP " +
		"KE KG KH KI KM KN KP KR KW KY KZ LA LB LC LI LK LR LS LT LU LV LY MA MC MD ME MF MG MH MK ML MM MN MO MP MQ MR MS MT MU MV MW MX MY MZ " +
		"NA NC NE NF NG NI NL NO NP NR NU NZ OM PA PE PF PG PH PK PL PM PN PR PS PT PW PY QA RE RO RS RU RW " +
		"SA SB SC SD SE SG SH SI SJ SK SL SM SN SO SR SS ST SV SX SY SZ TC TD TF TG TH TJ TK TL TM TN TO TR TT TV TW TZ " +
		"UA UG UM US UY UZ VA VC VE VG VI VN VU WF WS YE YT ZA ZM ZW " + cbc.CountryStateless)

func buildCountrySet(codes string) map[string]bool {
	set := make(map[string]bool)
	for _, c := range strings.Fields(codes) {
		set[c] = true
	}
	return set
}

// tinPatterns is a pragmatic jurisdiction table; unknown jurisdictions are
// not flagged.
var tinPatterns = map[string]*regexp.Regexp{
	"US": regexp.MustCompile(`^\d{2}-?\d{7}$`),
	"GB": regexp.MustCompile(`^(\d{10}|[A-Z]{2}\d{6}[A-Z]?)$`),
	"DE": regexp.MustCompile(`^\d{10,11}$`),
	"FR": regexp.MustCompile(`^\d{9}(\d{5})?$`),
	"NL": regexp.MustCompile(`^\d{9}(B\d{2})?$`),
	"PL": regexp.MustCompile(`^\d{10}$`),
	"IT": regexp.MustCompile(`^\d{11}$`),
	"ES": regexp.MustCompile(`^[A-Z]\d{7}[A-Z0-9]$`),
	"IN": regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`),
	"JP": regexp.MustCompile(`^\d{13}$`),
	"AU": regexp.MustCompile(`^\d{9}(\d{2})?$`),
	"CA": regexp.MustCompile(`^\d{9}(R[A-Z0-9]{4})?$`),
}

func countryRules() []Rule {
	return []Rule{
		{
			ID:       "CTY-001",
			Category: cbc.CategoryCountry,
			Severity: cbc.SeverityError,
			Check:    checkReportJurisdictionCodes,
		},
		{
			ID:       "CTY-002",
			Category: cbc.CategoryCountry,
			Severity: cbc.SeverityError,
			Check:    checkAuthorityCountryCodes,
		},
		{
			ID:       "CTY-003",
			Category: cbc.CategoryCountry,
			Severity: cbc.SeverityWarning,
			Check:    checkTINFormats,
		},
	}
}

func validCountry(code string) bool {
	return iso3166Alpha2[strings.ToUpper(code)] || strings.EqualFold(code, "Stateless")
}

func checkReportJurisdictionCodes(in *Input) []cbc.ValidationResult {
	var out []cbc.ValidationResult
	for i, r := range reports(in) {
		if r.ResCountryCode == "" || validCountry(r.ResCountryCode) {
			continue
		}
		out = append(out, cbc.ValidationResult{
			Message: fmt.Sprintf("ResCountryCode %q is not ISO 3166-1 alpha-2 or the stateless code", r.ResCountryCode),
			XPath:   reportPath(i) + ".ResCountryCode",
			Details: map[string]any{"resCountryCode": r.ResCountryCode},
		})
	}
	return out
}

func checkAuthorityCountryCodes(in *Input) []cbc.ValidationResult {
	if in.Message == nil {
		return nil
	}
	var out []cbc.ValidationResult
	spec := in.Message.MessageSpec
	if spec.TransmittingCountry != "" && !validCountry(spec.TransmittingCountry) {
		out = append(out, cbc.ValidationResult{
			Message: fmt.Sprintf("TransmittingCountry %q is not a valid country code", spec.TransmittingCountry),
			XPath:   "CbcMessage.MessageSpec.TransmittingCountry",
		})
	}
	if spec.ReceivingCountry != "" && !validCountry(spec.ReceivingCountry) {
		out = append(out, cbc.ValidationResult{
			Message: fmt.Sprintf("ReceivingCountry %q is not a valid country code", spec.ReceivingCountry),
			XPath:   "CbcMessage.MessageSpec.ReceivingCountry",
		})
	}
	return out
}

// checkTINFormats applies per-jurisdiction identifier patterns to every
// constituent entity TIN. Heuristic, so findings stay at warning.
func checkTINFormats(in *Input) []cbc.ValidationResult {
	var out []cbc.ValidationResult
	for i, r := range reports(in) {
		pattern, known := tinPatterns[strings.ToUpper(r.ResCountryCode)]
		if !known {
			continue
		}
		for j, ce := range r.ConstEntities {
			for _, tin := range ce.Entity.TINs {
				normalized := strings.ToUpper(strings.ReplaceAll(tin, " ", ""))
				if pattern.MatchString(normalized) {
					continue
				}
				out = append(out, cbc.ValidationResult{
					Message: fmt.Sprintf("TIN %q does not match the expected %s format", tin, strings.ToUpper(r.ResCountryCode)),
					XPath:   fmt.Sprintf("%s.ConstEntities[%d].TIN", reportPath(i), j),
					Details: map[string]any{"tin": tin, "jurisdiction": r.ResCountryCode},
				})
			}
		}
	}
	return out
}
