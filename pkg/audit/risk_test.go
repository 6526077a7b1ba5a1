package audit

import (
	"strings"
	"testing"

	"pqscan/pkg/types"
)

func TestScoreFindingsNormalization(t *testing.T) {
	findings := []types.Finding{
		{Severity: types.SeverityCritical, Confidence: 1.0},
	}

	small := scoreFindings(findings, 100)
	if small.Total != 10 {
		t.Errorf("expected total 10 for small input, got %f", small.Total)
	}
	if small.Level != types.RiskCatastrophic {
		t.Errorf("expected catastrophic, got %s", small.Level)
	}

	// The same single finding across a large tree is diluted.
	large := scoreFindings(findings, 10_000)
	if large.Total != 1 {
		t.Errorf("expected total 1 after normalization, got %f", large.Total)
	}
	if large.Level != types.RiskLow {
		t.Errorf("expected low, got %s", large.Level)
	}

	if small.Counts.Critical != 1 {
		t.Errorf("expected 1 critical counted, got %+v", small.Counts)
	}
}

func TestScoreFindingsWeighting(t *testing.T) {
	high := scoreFindings([]types.Finding{{Severity: types.SeverityHigh, Confidence: 1.0}}, 1)
	info := scoreFindings([]types.Finding{{Severity: types.SeverityInfo, Confidence: 1.0}}, 1)

	if high.Total != 7 {
		t.Errorf("high weight should be 7, got %f", high.Total)
	}
	if info.Total != 0 {
		t.Errorf("info findings must not add risk, got %f", info.Total)
	}

	halved := scoreFindings([]types.Finding{{Severity: types.SeverityHigh, Confidence: 0.5}}, 1)
	if halved.Total != 3.5 {
		t.Errorf("confidence should scale the weight, got %f", halved.Total)
	}
}

func TestRecommendationsDerivedFromFindings(t *testing.T) {
	findings := []types.Finding{
		{Severity: types.SeverityCritical, Family: types.FamilyIntegerFactorization, QuantumVulnerable: true},
		{Severity: types.SeverityHigh, Family: types.FamilyBrokenHash},
	}

	recs := recommendations(findings)
	if len(recs) == 0 {
		t.Fatal("expected recommendations")
	}
	if !strings.HasPrefix(recs[0], "CRITICAL:") {
		t.Errorf("critical advice should lead, got %q", recs[0])
	}
	last := recs[len(recs)-1]
	if !strings.Contains(last, "NIST") {
		t.Errorf("NIST pointer should close the list, got %q", last)
	}

	again := recommendations(findings)
	if len(again) != len(recs) {
		t.Error("recommendation derivation must be deterministic")
	}

	if recs := recommendations(nil); recs != nil {
		t.Errorf("no findings should yield no recommendations, got %v", recs)
	}
}
