package util

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
)

var (
	reBase64Blob = regexp.MustCompile(`^[A-Za-z0-9+/=_\-\s]+$`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// LooksLikeBase64 reports whether s consists only of base64 alphabet
// characters (standard or URL-safe) and whitespace.
func LooksLikeBase64(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && reBase64Blob.MatchString(s)
}

// DecodeBase64 decodes standard or URL-safe base64 with or without padding.
// Embedded whitespace and line breaks are ignored.
func DecodeBase64(s string) ([]byte, error) {
	compact := reWhitespace.ReplaceAllString(strings.TrimSpace(s), "")
	if compact == "" {
		return nil, errors.New("empty base64 payload")
	}
	unpadded := strings.TrimRight(compact, "=")

	var firstErr error
	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.RawURLEncoding} {
		out, err := enc.DecodeString(unpadded)
		if err == nil {
			return out, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
