package types

import "testing"

func TestResolveLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want Language
	}{
		{"python", LanguagePython},
		{"py", LanguagePython},
		{"GOLANG", LanguageGo},
		{"src/app/main.py", LanguagePython},
		{"web/index.TSX", LanguageTypeScript},
		{"lib.rs", LanguageRust},
		{"native/impl.cpp", LanguageRust},
		{"Main.java", LanguageJava},
		{"notes.txt", LanguageUnknown},
		{"", LanguageUnknown},
		{"Makefile", LanguageUnknown},
	}
	for _, tc := range cases {
		if got := ResolveLanguage(tc.in); got != tc.want {
			t.Errorf("ResolveLanguage(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSeverityRoundTrip(t *testing.T) {
	for _, s := range []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		parsed, err := ParseSeverity(s.String())
		if err != nil {
			t.Fatalf("ParseSeverity(%s) failed: %v", s, err)
		}
		if parsed != s {
			t.Errorf("round trip mismatch: %s -> %s", s, parsed)
		}
	}
	if _, err := ParseSeverity("urgent"); err == nil {
		t.Error("unknown severity should not parse")
	}
}

func TestSeverityOrdering(t *testing.T) {
	if !(SeverityInfo < SeverityLow && SeverityLow < SeverityMedium &&
		SeverityMedium < SeverityHigh && SeverityHigh < SeverityCritical) {
		t.Fatal("severity levels must be strictly ordered")
	}
}

func TestLevelForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  RiskLevel
	}{
		{0, RiskLow},
		{1.99, RiskLow},
		{2, RiskMedium},
		{4.9, RiskMedium},
		{5, RiskHigh},
		{8, RiskHigh},
		{8.01, RiskCatastrophic},
		{120, RiskCatastrophic},
	}
	for _, tc := range cases {
		if got := LevelForScore(tc.score); got != tc.want {
			t.Errorf("LevelForScore(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestFunctionAt(t *testing.T) {
	file := &ParsedFile{
		Functions: []FunctionInfo{
			{Name: "outer", StartLine: 1, EndLine: 4},
			{Name: "later", StartLine: 10, EndLine: 20},
		},
	}
	if fn, ok := file.FunctionAt(3); !ok || fn.Name != "outer" {
		t.Errorf("expected outer at line 3, got %+v ok=%v", fn, ok)
	}
	if fn, ok := file.FunctionAt(15); !ok || fn.Name != "later" {
		t.Errorf("expected later at line 15, got %+v ok=%v", fn, ok)
	}
	if _, ok := file.FunctionAt(7); ok {
		t.Error("line 7 is outside every function")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxInputSize != DefaultMaxInputSize || cfg.MaxLines != DefaultMaxLines {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.StripComments {
		t.Error("comment stripping should default on")
	}
	if cfg.Weights == (ContextWeights{}) {
		t.Error("default weights must be populated")
	}
}
