package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/xmlparse"
)

// baseMessage returns a message that passes every error-level rule.
func baseMessage() *cbc.CbcMessage {
	return &cbc.CbcMessage{
		MessageSpec: cbc.MessageSpec{
			TransmittingCountry: "DE",
			ReceivingCountry:    "FR",
			MessageType:         cbc.MessageTypeCBC,
			MessageRefID:        "DE2024-R-001",
			MessageTypeIndic:    cbc.MessageTypeIndicNewData,
			ReportingPeriod:     "2024-12-31",
		},
		CbcBody: cbc.CbcBody{
			ReportingEntity: cbc.ReportingEntity{
				Entity: cbc.OrganisationParty{
					ResCountryCodes: []string{"DE"},
					TINs:            []string{"1234567890"},
					Names:           []string{"Acme Holding AG"},
				},
				ReportingRole: cbc.ReportingRoleUltimateParent,
				DocSpec: cbc.DocSpec{
					DocTypeIndic: cbc.DocTypeNewData,
					DocRefID:     "DE2024-RE-001",
				},
			},
			CbcReports: []cbc.CbcReport{
				{
					DocSpec: cbc.DocSpec{
						DocTypeIndic: cbc.DocTypeNewData,
						DocRefID:     "DE2024-REP-001",
					},
					ResCountryCode: "DE",
					Summary: cbc.Summary{
						UnrelatedRevenue: cbc.MonetaryAmount{Value: 5_000_000, CurrCode: "EUR"},
						RelatedRevenue:   cbc.MonetaryAmount{Value: 1_000_000, CurrCode: "EUR"},
						TotalRevenue:     cbc.MonetaryAmount{Value: 6_000_000, CurrCode: "EUR"},
						ProfitOrLoss:     cbc.MonetaryAmount{Value: 800_000, CurrCode: "EUR"},
						TaxPaid:          cbc.MonetaryAmount{Value: 200_000, CurrCode: "EUR"},
						TaxAccrued:       cbc.MonetaryAmount{Value: 210_000, CurrCode: "EUR"},
						NbEmployees:      120,
					},
					ConstEntities: []cbc.ConstituentEntity{
						{
							Entity: cbc.OrganisationParty{
								ResCountryCodes: []string{"DE"},
								TINs:            []string{"1234567890"},
								Names:           []string{"Acme GmbH"},
							},
							BizActivities: []string{"CBC504"},
						},
					},
				},
			},
		},
	}
}

func inputFor(msg *cbc.CbcMessage) *Input {
	return &Input{
		Namespaces: &xmlparse.Namespaces{HasCbc: true},
		Root:       &xmlparse.Node{Name: "cbc:CBC_OECD", Local: "CBC_OECD"},
		Message:    msg,
	}
}

func byRule(findings []cbc.ValidationResult, ruleID string) []cbc.ValidationResult {
	var out []cbc.ValidationResult
	for _, f := range findings {
		if f.RuleID == ruleID {
			out = append(out, f)
		}
	}
	return out
}

func TestCleanMessageHasNoErrorFindings(t *testing.T) {
	findings := NewEngine().Evaluate(inputFor(baseMessage()))
	for _, f := range findings {
		require.NotEqual(t, cbc.SeverityCritical, f.Severity, "unexpected critical: %s %s", f.RuleID, f.Message)
		require.NotEqual(t, cbc.SeverityError, f.Severity, "unexpected error: %s %s", f.RuleID, f.Message)
	}
}

func TestWellformednessRules(t *testing.T) {
	t.Run("wrong root element warns", func(t *testing.T) {
		in := inputFor(baseMessage())
		in.Root = &xmlparse.Node{Name: "Report", Local: "Report"}
		findings := byRule(NewEngine().Evaluate(in), "XML-010")
		require.Len(t, findings, 1)
		require.Equal(t, cbc.SeverityWarning, findings[0].Severity)
	})

	t.Run("missing cbc namespace warns", func(t *testing.T) {
		in := inputFor(baseMessage())
		in.Namespaces = &xmlparse.Namespaces{}
		findings := byRule(NewEngine().Evaluate(in), "XML-011")
		require.Len(t, findings, 1)
	})
}

func TestCorrectionConsistency(t *testing.T) {
	t.Run("consistent correction passes", func(t *testing.T) {
		msg := baseMessage()
		msg.MessageSpec.MessageTypeIndic = cbc.MessageTypeIndicCorrection
		msg.CbcBody.CbcReports[0].DocSpec = cbc.DocSpec{
			DocTypeIndic: cbc.DocTypeCorrection,
			DocRefID:     "DE2024-REP-002",
			CorrDocRefID: "DE2024-REP-001",
		}
		findings := NewEngine().Evaluate(inputFor(msg))
		require.Empty(t, byRule(findings, "SCH-020"))
		require.Empty(t, byRule(findings, "SCH-021"))
	})

	t.Run("CorrDocRefId without correction indicator", func(t *testing.T) {
		msg := baseMessage()
		msg.CbcBody.CbcReports[0].DocSpec.CorrDocRefID = "DE2023-REP-001"
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "SCH-020")
		require.Len(t, findings, 1)
		require.Equal(t, cbc.SeverityError, findings[0].Severity)
	})

	t.Run("correction indicator without CorrDocRefId", func(t *testing.T) {
		msg := baseMessage()
		msg.MessageSpec.MessageTypeIndic = cbc.MessageTypeIndicCorrection
		msg.CbcBody.CbcReports[0].DocSpec.DocTypeIndic = cbc.DocTypeCorrection
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "SCH-020")
		require.Len(t, findings, 1)
	})

	t.Run("CBC402 with no corrections anywhere", func(t *testing.T) {
		msg := baseMessage()
		msg.MessageSpec.MessageTypeIndic = cbc.MessageTypeIndicCorrection
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "SCH-021")
		require.Len(t, findings, 1)
	})

	t.Run("CBC401 carrying corrections", func(t *testing.T) {
		msg := baseMessage()
		msg.CbcBody.CbcReports[0].DocSpec = cbc.DocSpec{
			DocTypeIndic: cbc.DocTypeCorrection,
			DocRefID:     "DE2024-REP-002",
			CorrDocRefID: "DE2024-REP-001",
		}
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "SCH-021")
		require.Len(t, findings, 1)
	})
}

func TestDocRefIDUniqueness(t *testing.T) {
	msg := baseMessage()
	msg.CbcBody.CbcReports[0].DocSpec.DocRefID = "DE2024-RE-001" // clashes with ReportingEntity

	findings := byRule(NewEngine().Evaluate(inputFor(msg)), "SCH-022")
	require.Len(t, findings, 1)
	require.Contains(t, findings[0].Message, "DE2024-RE-001")
}

func TestReportingPeriodISO(t *testing.T) {
	msg := baseMessage()
	msg.MessageSpec.ReportingPeriod = "Q4 2024"
	findings := byRule(NewEngine().Evaluate(inputFor(msg)), "SCH-023")
	require.Len(t, findings, 1)
}

func TestRevenueTotals(t *testing.T) {
	t.Run("within tolerance passes", func(t *testing.T) {
		msg := baseMessage()
		msg.CbcBody.CbcReports[0].Summary.TotalRevenue.Value = 6_000_000.9
		require.Empty(t, byRule(NewEngine().Evaluate(inputFor(msg)), "BIZ-001"))
	})

	t.Run("beyond tolerance errors", func(t *testing.T) {
		msg := baseMessage()
		msg.CbcBody.CbcReports[0].Summary.TotalRevenue.Value = 6_500_000
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "BIZ-001")
		require.Len(t, findings, 1)
		require.Equal(t, cbc.SeverityError, findings[0].Severity)
	})
}

func TestDuplicateJurisdictions(t *testing.T) {
	msg := baseMessage()
	second := msg.CbcBody.CbcReports[0]
	second.DocSpec.DocRefID = "DE2024-REP-002"
	msg.CbcBody.CbcReports = append(msg.CbcBody.CbcReports, second)

	findings := byRule(NewEngine().Evaluate(inputFor(msg)), "BIZ-002")
	require.Len(t, findings, 1)
	require.Contains(t, findings[0].Message, "DE")
}

func TestAggregatesWithoutEntities(t *testing.T) {
	msg := baseMessage()
	msg.CbcBody.CbcReports[0].ConstEntities = nil
	findings := byRule(NewEngine().Evaluate(inputFor(msg)), "BIZ-003")
	require.Len(t, findings, 1)
	require.Equal(t, cbc.SeverityWarning, findings[0].Severity)
}

func TestReportingPeriodAlignment(t *testing.T) {
	msg := baseMessage()
	msg.CbcBody.ReportingEntity.ReportingPeriod = "2024-06-30"
	findings := byRule(NewEngine().Evaluate(inputFor(msg)), "BIZ-004")
	require.Len(t, findings, 1)
}

func TestCountryRules(t *testing.T) {
	t.Run("invalid jurisdiction code", func(t *testing.T) {
		msg := baseMessage()
		msg.CbcBody.CbcReports[0].ResCountryCode = "ZZ"
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "CTY-001")
		require.Len(t, findings, 1)
	})

	t.Run("stateless code X5 is accepted", func(t *testing.T) {
		msg := baseMessage()
		msg.CbcBody.CbcReports[0].ResCountryCode = cbc.CountryStateless
		require.Empty(t, byRule(NewEngine().Evaluate(inputFor(msg)), "CTY-001"))
	})

	t.Run("invalid authority codes", func(t *testing.T) {
		msg := baseMessage()
		msg.MessageSpec.TransmittingCountry = "XX"
		msg.MessageSpec.ReceivingCountry = "YY"
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "CTY-002")
		require.Len(t, findings, 2)
	})

	t.Run("TIN format mismatch warns", func(t *testing.T) {
		msg := baseMessage()
		msg.CbcBody.CbcReports[0].ConstEntities[0].Entity.TINs = []string{"not-a-tin"}
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "CTY-003")
		require.Len(t, findings, 1)
		require.Equal(t, cbc.SeverityWarning, findings[0].Severity)
	})

	t.Run("unknown jurisdiction TINs are not flagged", func(t *testing.T) {
		msg := baseMessage()
		msg.CbcBody.CbcReports[0].ResCountryCode = "BR"
		msg.CbcBody.CbcReports[0].ConstEntities[0].Entity.TINs = []string{"anything"}
		require.Empty(t, byRule(NewEngine().Evaluate(inputFor(msg)), "CTY-003"))
	})
}

func TestDataQualityRules(t *testing.T) {
	t.Run("zero revenue with employees", func(t *testing.T) {
		msg := baseMessage()
		s := &msg.CbcBody.CbcReports[0].Summary
		s.TotalRevenue.Value = 0
		s.UnrelatedRevenue.Value = 0
		s.RelatedRevenue.Value = 0
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "DQ-201")
		require.Len(t, findings, 1)
	})

	t.Run("material tax divergence", func(t *testing.T) {
		msg := baseMessage()
		s := &msg.CbcBody.CbcReports[0].Summary
		s.TaxPaid.Value = 1_000_000
		s.TaxAccrued.Value = 100_000
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "DQ-202")
		require.Len(t, findings, 1)
	})

	t.Run("immaterial divergence is ignored", func(t *testing.T) {
		msg := baseMessage()
		s := &msg.CbcBody.CbcReports[0].Summary
		s.TaxPaid.Value = 50_000
		s.TaxAccrued.Value = 10_000
		require.Empty(t, byRule(NewEngine().Evaluate(inputFor(msg)), "DQ-202"))
	})

	t.Run("negative headcount", func(t *testing.T) {
		msg := baseMessage()
		msg.CbcBody.CbcReports[0].Summary.NbEmployees = -5
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "DQ-203")
		require.Len(t, findings, 1)
	})

	t.Run("large profit with zero tax", func(t *testing.T) {
		msg := baseMessage()
		s := &msg.CbcBody.CbcReports[0].Summary
		s.ProfitOrLoss.Value = 2_000_000
		s.TaxPaid.Value = 0
		s.TaxAccrued.Value = 0
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "DQ-204")
		require.Len(t, findings, 1)
	})
}

func TestPillar2Rules(t *testing.T) {
	t.Run("de-minimis safe harbour", func(t *testing.T) {
		msg := baseMessage()
		s := &msg.CbcBody.CbcReports[0].Summary
		s.TotalRevenue.Value = 6_000_000
		s.ProfitOrLoss.Value = 500_000
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "P2-001")
		require.Len(t, findings, 1)
		require.Equal(t, cbc.SeverityInfo, findings[0].Severity)
		require.Equal(t, cbc.CategoryPillar2, findings[0].Category)
	})

	t.Run("simplified ETR met", func(t *testing.T) {
		msg := baseMessage()
		s := &msg.CbcBody.CbcReports[0].Summary
		s.ProfitOrLoss.Value = 1_000_000
		s.TaxAccrued.Value = 200_000
		findings := byRule(NewEngine().Evaluate(inputFor(msg)), "P2-002")
		require.Len(t, findings, 1)
	})

	t.Run("ETR below rate emits nothing", func(t *testing.T) {
		msg := baseMessage()
		s := &msg.CbcBody.CbcReports[0].Summary
		s.ProfitOrLoss.Value = 10_000_000
		s.TaxAccrued.Value = 200_000
		require.Empty(t, byRule(NewEngine().Evaluate(inputFor(msg)), "P2-002"))
	})
}

func TestEvaluateDeterministic(t *testing.T) {
	in := inputFor(baseMessage())
	first := NewEngine().Evaluate(in)
	second := NewEngine().Evaluate(in)
	require.Equal(t, first, second)
}

func TestPanickingRuleDegradesToWarning(t *testing.T) {
	r := Rule{
		ID:       "TST-001",
		Category: cbc.CategoryDataQuality,
		Severity: cbc.SeverityError,
		Check: func(*Input) []cbc.ValidationResult {
			panic("boom")
		},
	}
	engine := &Engine{rules: []Rule{r}}
	findings := engine.Evaluate(inputFor(baseMessage()))
	require.Len(t, findings, 1)
	require.Equal(t, cbc.SeverityWarning, findings[0].Severity)
	require.Contains(t, findings[0].Message, "TST-001")
}
