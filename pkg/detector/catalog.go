package detector

import (
	"github.com/BurntSushi/toml"

	"pqscan/pkg/errors"
	"pqscan/pkg/types"
)

// DefaultCatalog returns the built-in quantum-vulnerability catalog.
// Asymmetric primitives broken by Shor's algorithm are flagged as
// quantum-vulnerable; hashes and ciphers that are merely weakened or
// classically broken are flagged as deprecated instead.
func DefaultCatalog() []Pattern {
	return []Pattern{
		{
			ID:                "rsa-keygen",
			Expr:              `(?i)(rsa\.generate|generatekeypair.*rsa|keypairgenerator\.getinstance.*rsa|rsa_generate_key|rsa.*keygen)`,
			Severity:          types.SeverityCritical,
			Family:            types.FamilyIntegerFactorization,
			Description:       "RSA key generation, vulnerable to quantum attacks via Shor's algorithm",
			Recommendation:    "Replace with CRYSTALS-Dilithium (signatures) or CRYSTALS-Kyber (encryption)",
			QuantumVulnerable: true,
		},
		{
			ID:                "rsa-usage",
			Expr:              `(?i)\brsa\b`,
			Severity:          types.SeverityHigh,
			Family:            types.FamilyIntegerFactorization,
			Description:       "RSA usage, vulnerable to quantum attacks via Shor's algorithm",
			Recommendation:    "Plan migration to CRYSTALS-Kyber for encryption and CRYSTALS-Dilithium for signatures",
			QuantumVulnerable: true,
		},
		{
			ID:                "ecdsa",
			Expr:              `(?i)(ecdsa|ecgenparameterspec|secp256k1|secp256r1|secp384r1|prime256v1|p-256|p-384|p-521)`,
			Severity:          types.SeverityHigh,
			Family:            types.FamilyEllipticCurve,
			Description:       "Elliptic curve signature scheme, quantum-vulnerable",
			Recommendation:    "Replace with CRYSTALS-Dilithium or SPHINCS+ for post-quantum signatures",
			QuantumVulnerable: true,
		},
		{
			ID:                "ecdh",
			Expr:              `(?i)(ecdh|createecdh|curve25519|x25519)`,
			Severity:          types.SeverityHigh,
			Family:            types.FamilyKeyExchange,
			Description:       "Elliptic curve Diffie-Hellman key agreement, quantum-vulnerable",
			Recommendation:    "Replace with CRYSTALS-Kyber or NTRU for quantum-safe key exchange",
			QuantumVulnerable: true,
		},
		{
			ID:                "dsa",
			Expr:              `(?i)\bdsa\b`,
			Severity:          types.SeverityHigh,
			Family:            types.FamilyIntegerFactorization,
			Description:       "DSA digital signatures, quantum-vulnerable",
			Recommendation:    "Replace with CRYSTALS-Dilithium for post-quantum digital signatures",
			QuantumVulnerable: true,
		},
		{
			ID:                "diffie-hellman",
			Expr:              `(?i)(diffie.?hellman|\bdhe\b|dh_generate|dhparam)`,
			Severity:          types.SeverityHigh,
			Family:            types.FamilyKeyExchange,
			Description:       "Finite-field Diffie-Hellman key exchange, quantum-vulnerable",
			Recommendation:    "Replace with CRYSTALS-Kyber or FrodoKEM for quantum-safe key encapsulation",
			QuantumVulnerable: true,
		},
		{
			ID:                "sha1",
			Expr:              `(?i)\bsha-?1\b`,
			Severity:          types.SeverityHigh,
			Family:            types.FamilyBrokenHash,
			Description:       "SHA-1 is cryptographically broken for collision resistance",
			Recommendation:    "Replace with SHA-256, SHA-384, or SHA-512",
			QuantumVulnerable: false,
		},
		{
			ID:                "md5",
			Expr:              `(?i)\bmd5\b`,
			Severity:          types.SeverityHigh,
			Family:            types.FamilyBrokenHash,
			Description:       "MD5 is cryptographically broken and must not be used",
			Recommendation:    "Replace with SHA-256 or SHA-3",
			QuantumVulnerable: false,
		},
		{
			ID:                "des",
			Expr:              `(?i)\bdes\b`,
			Severity:          types.SeverityCritical,
			Family:            types.FamilyDeprecatedCipher,
			Description:       "DES is obsolete and cryptographically weak",
			Recommendation:    "Replace with AES-256 or ChaCha20",
			QuantumVulnerable: false,
		},
		{
			ID:                "triple-des",
			Expr:              `(?i)(3des|triple[-_ ]?des|desede)`,
			Severity:          types.SeverityHigh,
			Family:            types.FamilyDeprecatedCipher,
			Description:       "3DES is deprecated and should be replaced",
			Recommendation:    "Replace with AES-256 or ChaCha20-Poly1305",
			QuantumVulnerable: false,
		},
		{
			ID:                "rc4",
			Expr:              `(?i)(\brc4\b|arcfour)`,
			Severity:          types.SeverityHigh,
			Family:            types.FamilyDeprecatedCipher,
			Description:       "RC4 keystream biases make it unfit for any use",
			Recommendation:    "Replace with AES-GCM or ChaCha20-Poly1305",
			QuantumVulnerable: false,
		},
	}
}

type catalogFile struct {
	Patterns []Pattern `toml:"patterns"`
}

// LoadCatalogTOML decodes a catalog from TOML. Severities are spelled
// as text ("critical", "high", ...). Undecoded keys are rejected so
// typos in a catalog file fail loudly instead of silently weakening
// detection.
func LoadCatalogTOML(data []byte) ([]Pattern, error) {
	var file catalogFile
	meta, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, "failed to decode pattern catalog")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.AddContext(
			errors.New(errors.CodeConfig, "unknown keys in pattern catalog"),
			"keys", undecoded)
	}
	if len(file.Patterns) == 0 {
		return nil, errors.New(errors.CodeConfig, "pattern catalog defines no patterns")
	}
	for _, p := range file.Patterns {
		if !p.Family.IsValid() {
			return nil, errors.AddContext(
				errors.New(errors.CodeConfig, "pattern has unknown family"),
				errors.CtxPattern, p.ID)
		}
	}
	return file.Patterns, nil
}
