// Package preview is the regex fast path for upload-time UI hints. It is
// explicitly non-authoritative: it duplicates nothing of the secure parser's
// guarantees and must never feed a compliance decision.
package preview

import "regexp"

var (
	messageRefIDRe    = regexp.MustCompile(`<(?:\w+:)?MessageRefId[^>]*>([^<]+)<`)
	reportingPeriodRe = regexp.MustCompile(`<(?:\w+:)?ReportingPeriod[^>]*>([^<]+)<`)
	sendingEntityRe   = regexp.MustCompile(`<(?:\w+:)?SendingEntityIN[^>]*>([^<]+)<`)
	transmittingRe    = regexp.MustCompile(`<(?:\w+:)?TransmittingCountry[^>]*>([^<]+)<`)
	cbcReportsRe      = regexp.MustCompile(`<(?:\w+:)?CbcReports[\s>]`)
	constEntitiesRe   = regexp.MustCompile(`<(?:\w+:)?ConstEntities[\s>]`)
	additionalInfoRe  = regexp.MustCompile(`<(?:\w+:)?AdditionalInfo[\s>]`)
)

// BasicInfo is a best-effort skim of identifying fields.
type BasicInfo struct {
	MessageRefID        string `json:"messageRefId,omitempty"`
	ReportingPeriod     string `json:"reportingPeriod,omitempty"`
	SendingEntityIN     string `json:"sendingEntityIn,omitempty"`
	TransmittingCountry string `json:"transmittingCountry,omitempty"`
}

// ElementCounts is a best-effort tally of the main repeating blocks.
type ElementCounts struct {
	CbcReports     int `json:"cbcReports"`
	ConstEntities  int `json:"constEntities"`
	AdditionalInfo int `json:"additionalInfo"`
}

// ExtractBasicInfo skims identifying fields from raw text without parsing.
func ExtractBasicInfo(raw string) BasicInfo {
	return BasicInfo{
		MessageRefID:        firstGroup(messageRefIDRe, raw),
		ReportingPeriod:     firstGroup(reportingPeriodRe, raw),
		SendingEntityIN:     firstGroup(sendingEntityRe, raw),
		TransmittingCountry: firstGroup(transmittingRe, raw),
	}
}

// CountElements tallies jurisdiction and entity blocks by tag occurrence.
func CountElements(raw string) ElementCounts {
	return ElementCounts{
		CbcReports:     len(cbcReportsRe.FindAllStringIndex(raw, -1)),
		ConstEntities:  len(constEntitiesRe.FindAllStringIndex(raw, -1)),
		AdditionalInfo: len(additionalInfoRe.FindAllStringIndex(raw, -1)),
	}
}

func firstGroup(re *regexp.Regexp, raw string) string {
	if m := re.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}
