package validators

import (
	"net/http"
	"strconv"
	"strings"
	"unicode"

	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

// QueryInt reads an optional integer query parameter within [lo, hi].
// An empty value yields fallback.
func QueryInt(r *http.Request, key string, fallback, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, key+" must be a number").
			WithDetails(map[string]string{key: "numeric"})
	}
	switch {
	case n < lo:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is too small").
			WithDetails(map[string]string{key: "min=" + strconv.Itoa(lo)})
	case n > hi:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is too large").
			WithDetails(map[string]string{key: "max=" + strconv.Itoa(hi)})
	}
	return n, nil
}

// QueryString returns the cleaned query value, see Clean.
func QueryString(r *http.Request, key string, maxLen int) string {
	return Clean(r.URL.Query().Get(key), maxLen)
}

// Clean drops control characters, trims the result and cuts it to maxLen
// runes (0 means no limit). Cutting by rune keeps Arabic letters whole.
func Clean(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, input)
	cleaned = strings.TrimSpace(cleaned)
	if maxLen <= 0 {
		return cleaned
	}
	if runes := []rune(cleaned); len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return cleaned
}
