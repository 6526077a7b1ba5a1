package parser

import (
	"strings"
	"testing"

	"pqscan/pkg/errors"
	"pqscan/pkg/types"
)

func TestParsePython(t *testing.T) {
	src := strings.Join([]string{
		"import hashlib",
		"from cryptography.hazmat.primitives.asymmetric import rsa",
		"",
		"# generate a key",
		"def make_key():",
		"    return rsa.generate_private_key(key_size=2048)",
	}, "\n")

	p := New()
	file, err := p.Parse([]byte(src), "keys.py", 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if file.Language != types.LanguagePython {
		t.Fatalf("expected python, got %s", file.Language)
	}
	if len(file.Lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(file.Lines))
	}
	if file.Degraded {
		t.Error("valid python should not be degraded")
	}

	if !hasImport(file, "hashlib") {
		t.Errorf("missing hashlib import, got %v", file.Imports)
	}
	if !hasImport(file, "cryptography.hazmat.primitives.asymmetric") {
		t.Errorf("missing from-import module, got %v", file.Imports)
	}

	if !file.Lines[3].IsComment {
		t.Error("line 4 should be marked as a comment")
	}
	if file.Lines[5].IsComment {
		t.Error("code line should not be marked as a comment")
	}

	fn, ok := file.FunctionAt(6)
	if !ok || fn.Name != "make_key" {
		t.Errorf("expected line 6 inside make_key, got %+v", fn)
	}
}

func TestParseGo(t *testing.T) {
	src := strings.Join([]string{
		"package main",
		"",
		"import (",
		"\t\"crypto/rsa\"",
		"\t\"fmt\"",
		")",
		"",
		"// entry point",
		"func main() {",
		"\tfmt.Println(rsa.PublicKey{})",
		"}",
	}, "\n")

	p := New()
	file, err := p.Parse([]byte(src), "main.go", 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !hasImport(file, "crypto/rsa") || !hasImport(file, "fmt") {
		t.Errorf("missing imports, got %v", file.Imports)
	}
	if !file.Lines[7].IsComment {
		t.Error("line comment should be marked")
	}
	fn, ok := file.FunctionAt(10)
	if !ok || fn.Name != "main" {
		t.Errorf("expected line 10 inside main, got %+v", fn)
	}
}

func TestParseJavaScriptRequire(t *testing.T) {
	src := strings.Join([]string{
		"const crypto = require('crypto');",
		"import forge from 'node-forge';",
		"function sign(data) {",
		"  return crypto.createSign('RSA-SHA256');",
		"}",
	}, "\n")

	p := New()
	file, err := p.Parse([]byte(src), "sign.js", 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !hasImport(file, "crypto") {
		t.Errorf("require() import not extracted, got %v", file.Imports)
	}
	if !hasImport(file, "node-forge") {
		t.Errorf("esm import not extracted, got %v", file.Imports)
	}
}

func TestParseTypeScript(t *testing.T) {
	src := strings.Join([]string{
		"import { createECDH } from 'crypto';",
		"",
		"// derive a shared secret",
		"function agree(pub: Buffer): Buffer {",
		"  const ecdh = createECDH('prime256v1');",
		"  return ecdh.computeSecret(pub);",
		"}",
	}, "\n")

	p := New()
	file, err := p.Parse([]byte(src), "agree.ts", 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if file.Language != types.LanguageTypeScript {
		t.Fatalf("expected typescript, got %s", file.Language)
	}
	if file.Degraded {
		t.Error("valid typescript should not be degraded")
	}
	if !hasImport(file, "crypto") {
		t.Errorf("esm import not extracted, got %v", file.Imports)
	}
	if !file.Lines[2].IsComment {
		t.Error("line 3 should be marked as a comment")
	}
	fn, ok := file.FunctionAt(5)
	if !ok || fn.Name != "agree" {
		t.Errorf("expected line 5 inside agree, got %+v", fn)
	}
}

func TestParseJava(t *testing.T) {
	src := strings.Join([]string{
		"import javax.crypto.Cipher;",
		"",
		"public class Encryptor {",
		"    // legacy cipher",
		"    byte[] enc(byte[] in) throws Exception {",
		"        Cipher c = Cipher.getInstance(\"DES\");",
		"        return c.doFinal(in);",
		"    }",
		"}",
	}, "\n")

	p := New()
	file, err := p.Parse([]byte(src), "Encryptor.java", 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if file.Language != types.LanguageJava {
		t.Fatalf("expected java, got %s", file.Language)
	}
	if !hasImport(file, "javax.crypto.Cipher") {
		t.Errorf("import declaration not extracted, got %v", file.Imports)
	}
	if !file.Lines[3].IsComment {
		t.Error("line 4 should be marked as a comment")
	}
	if file.Lines[5].IsComment {
		t.Error("code line should not be marked as a comment")
	}
	fn, ok := file.FunctionAt(6)
	if !ok || fn.Name != "enc" {
		t.Errorf("expected line 6 inside enc, got %+v", fn)
	}
}

func TestParseRust(t *testing.T) {
	src := strings.Join([]string{
		"use openssl::rsa::Rsa;",
		"",
		"// 2048-bit keypair",
		"fn keygen() -> Rsa<Private> {",
		"    Rsa::generate(2048).unwrap()",
		"}",
	}, "\n")

	p := New()
	file, err := p.Parse([]byte(src), "keys.rs", 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if file.Language != types.LanguageRust {
		t.Fatalf("expected rust, got %s", file.Language)
	}
	if file.Degraded {
		t.Error("valid rust should not be degraded")
	}
	if !hasImport(file, "openssl::rsa::Rsa") {
		t.Errorf("use declaration not extracted, got %v", file.Imports)
	}
	if !file.Lines[2].IsComment {
		t.Error("line 3 should be marked as a comment")
	}
	fn, ok := file.FunctionAt(5)
	if !ok || fn.Name != "keygen" {
		t.Errorf("expected line 5 inside keygen, got %+v", fn)
	}
}

func TestParseUnknownLanguage(t *testing.T) {
	p := New()
	file, err := p.Parse([]byte("just some text\nmore text"), "notes.txt", 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if file.Language != types.LanguageUnknown {
		t.Fatalf("expected unknown language, got %s", file.Language)
	}
	if len(file.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(file.Lines))
	}
	if len(file.Imports) != 0 || len(file.Functions) != 0 {
		t.Error("unknown language should carry no structure")
	}
}

func TestParseLineCounting(t *testing.T) {
	p := New()
	cases := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"single no newline", "a = 1", 1},
		{"trailing newline", "a = 1\nb = 2\n", 2},
		{"blank interior line", "a = 1\n\nb = 2", 3},
		{"crlf", "a = 1\r\nb = 2\r\n", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			file, err := p.Parse([]byte(tc.content), "python", 0)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(file.Lines) != tc.want {
				t.Fatalf("expected %d lines, got %d", tc.want, len(file.Lines))
			}
		})
	}
}

func TestParseSizeCap(t *testing.T) {
	p := New()
	_, err := p.Parse([]byte("import hashlib\n"), "big.py", 4)
	if err == nil {
		t.Fatal("expected size cap error")
	}
	if !errors.IsCode(err, errors.CodeInputTooLarge) {
		t.Fatalf("expected INPUT_TOO_LARGE, got %v", err)
	}
}

func TestParseInvalidUTF8(t *testing.T) {
	content := append([]byte("x = 1\ny = "), 0xff, 0xfe, '\n')
	p := New()
	file, err := p.Parse(content, "bad.py", 0)
	if err != nil {
		t.Fatalf("invalid UTF-8 must degrade, not error: %v", err)
	}
	if !file.Degraded {
		t.Error("expected degraded flag for lossy content")
	}
	if len(file.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(file.Lines))
	}
}

func TestFunctionBoundariesOrdered(t *testing.T) {
	src := strings.Join([]string{
		"def outer():",
		"    def inner():",
		"        pass",
		"    return inner",
		"",
		"def later():",
		"    pass",
	}, "\n")

	p := New()
	file, err := p.Parse([]byte(src), "nested.py", 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	prevEnd := 0
	for _, fn := range file.Functions {
		if fn.StartLine <= prevEnd {
			t.Fatalf("overlapping boundaries: %+v", file.Functions)
		}
		if fn.EndLine < fn.StartLine {
			t.Fatalf("inverted boundary: %+v", fn)
		}
		prevEnd = fn.EndLine
	}
}

func TestScannerFallback(t *testing.T) {
	src := strings.Join([]string{
		"// rsa helper",
		"use openssl::rsa;",
		"/* block",
		"   comment */",
		"pub fn keygen() {",
		"    let k = 1;",
		"}",
	}, "\n")

	lines, _ := buildLines([]byte(src))
	file := &types.ParsedFile{Path: "lib.rs", Language: types.LanguageRust, Lines: lines}
	scanLines(file, types.LanguageRust)

	if !file.Lines[0].IsComment || !file.Lines[2].IsComment || !file.Lines[3].IsComment {
		t.Error("comment lines not marked by scanner")
	}
	if file.Lines[1].IsComment {
		t.Error("use line wrongly marked as comment")
	}
	if !hasImport(file, "openssl::rsa") {
		t.Errorf("use declaration not extracted, got %v", file.Imports)
	}
	if len(file.Functions) != 1 || file.Functions[0].Name != "keygen" {
		t.Fatalf("expected keygen function, got %v", file.Functions)
	}
	if file.Functions[0].EndLine != 7 {
		t.Errorf("expected keygen to end at line 7, got %d", file.Functions[0].EndLine)
	}
}

func hasImport(file *types.ParsedFile, module string) bool {
	for _, imp := range file.Imports {
		if imp.Module == module {
			return true
		}
	}
	return false
}
