package audit

import (
	"sort"

	"pqscan/pkg/types"
)

// severityWeight feeds the aggregate risk score. Informational findings
// carry no weight at all.
func severityWeight(s types.Severity) float64 {
	switch s {
	case types.SeverityCritical:
		return 10
	case types.SeverityHigh:
		return 7
	case types.SeverityMedium:
		return 4
	case types.SeverityLow:
		return 1
	default:
		return 0
	}
}

// scoreFindings folds per-finding weight times confidence into one
// normalized total. Normalization divides by the scanned volume in
// thousands of lines, floored at 1 so small snippets are not punished.
func scoreFindings(findings []types.Finding, totalLines int) types.RiskScore {
	score := types.RiskScore{}
	total := 0.0
	for _, f := range findings {
		total += severityWeight(f.Severity) * f.Confidence
		score.Counts.Add(f.Severity)
	}

	norm := float64(totalLines) / 1000
	if norm < 1 {
		norm = 1
	}
	score.Total = total / norm
	score.Level = types.LevelForScore(score.Total)
	return score
}

// summarize collects the quantum-vulnerable and deprecated families
// present in the findings, each list sorted and deduplicated.
func summarize(findings []types.Finding, filesScanned, linesScanned int) types.ReportSummary {
	vulnerable := map[types.PrimitiveFamily]bool{}
	deprecated := map[types.PrimitiveFamily]bool{}
	for _, f := range findings {
		if f.QuantumVulnerable {
			vulnerable[f.Family] = true
		} else {
			deprecated[f.Family] = true
		}
	}
	return types.ReportSummary{
		FilesScanned:              filesScanned,
		LinesScanned:              linesScanned,
		QuantumVulnerableFamilies: sortedFamilies(vulnerable),
		DeprecatedFamilies:        sortedFamilies(deprecated),
	}
}

func sortedFamilies(set map[types.PrimitiveFamily]bool) []types.PrimitiveFamily {
	out := make([]types.PrimitiveFamily, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// recommendations derives migration advice from what was actually
// found: severity-driven urgency lines first, then per-family
// replacements, then the standing NIST pointer. Output order is fixed
// so repeated audits produce identical reports.
func recommendations(findings []types.Finding) []string {
	if len(findings) == 0 {
		return nil
	}

	var out []string
	counts := types.SeverityCounts{}
	families := map[types.PrimitiveFamily]bool{}
	for _, f := range findings {
		counts.Add(f.Severity)
		families[f.Family] = true
	}

	if counts.Critical > 0 {
		out = append(out, "CRITICAL: immediately migrate to quantum-safe algorithms (CRYSTALS-Kyber, CRYSTALS-Dilithium)")
	}
	if counts.High > 0 {
		out = append(out, "HIGH PRIORITY: plan migration to post-quantum cryptography within 6-12 months")
	}
	if families[types.FamilyIntegerFactorization] {
		out = append(out, "Replace RSA/DSA with CRYSTALS-Dilithium for signatures or CRYSTALS-Kyber for encryption")
	}
	if families[types.FamilyEllipticCurve] {
		out = append(out, "Replace elliptic-curve signatures with CRYSTALS-Dilithium or SPHINCS+")
	}
	if families[types.FamilyKeyExchange] {
		out = append(out, "Replace classical key exchange with CRYSTALS-Kyber or NTRU")
	}
	if families[types.FamilyBrokenHash] {
		out = append(out, "Replace broken hash functions with SHA-256 or SHA-3")
	}
	if families[types.FamilyDeprecatedCipher] {
		out = append(out, "Replace deprecated ciphers with AES-256 or ChaCha20-Poly1305")
	}
	out = append(out, "Follow NIST Post-Quantum Cryptography Standardization guidelines: https://csrc.nist.gov/projects/post-quantum-cryptography")
	return out
}
