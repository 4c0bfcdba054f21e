package util

import (
	"encoding/base64"
	"testing"
)

func TestDecodeBase64Variants(t *testing.T) {
	payload := []byte("ss://aes-256-gcm:pw@1.2.3.4:8388#x?>~")
	cases := map[string]string{
		"std":        base64.StdEncoding.EncodeToString(payload),
		"raw std":    base64.RawStdEncoding.EncodeToString(payload),
		"url":        base64.URLEncoding.EncodeToString(payload),
		"raw url":    base64.RawURLEncoding.EncodeToString(payload),
		"line wraps": wrap(base64.StdEncoding.EncodeToString(payload), 8),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := DecodeBase64(in)
			if err != nil {
				t.Fatal(err)
			}
			if string(out) != string(payload) {
				t.Fatalf("got %q", out)
			}
		})
	}
}

func TestDecodeBase64Rejects(t *testing.T) {
	if _, err := DecodeBase64("   "); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, err := DecodeBase64("abc$"); err == nil {
		t.Fatal("expected error for invalid alphabet")
	}
}

func TestLooksLikeBase64(t *testing.T) {
	if !LooksLikeBase64("c3M6Ly9h\nYmM=\n") {
		t.Fatal("expected base64")
	}
	if LooksLikeBase64("proxies:\n  - name: a") {
		t.Fatal("yaml is not base64")
	}
	if LooksLikeBase64("") {
		t.Fatal("empty is not base64")
	}
}

func wrap(s string, n int) string {
	out := ""
	for len(s) > n {
		out += s[:n] + "\n"
		s = s[n:]
	}
	return out + s
}
