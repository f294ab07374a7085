package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

const defaultFieldLen = 500

// FormString returns a trimmed form value cut to maxLen runes (500 when
// maxLen is zero).
func FormString(r *http.Request, key string, maxLen int) string {
	if maxLen == 0 {
		maxLen = defaultFieldLen
	}
	return Clean(r.PostFormValue(key), maxLen)
}

// FormInt parses an optional integer field; empty yields def.
func FormInt(r *http.Request, key string, def int) (int, error) {
	raw := FormString(r, key, 20)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid number").WithDetails(map[string]string{key: "numeric"})
	}
	return n, nil
}

// FormDecimal parses a money field. A comma decimal separator is accepted.
func FormDecimal(r *http.Request, key string) (decimal.Decimal, error) {
	raw := strings.ReplaceAll(FormString(r, key, 32), ",", ".")
	raw = strings.ReplaceAll(raw, " ", "")
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount").WithDetails(map[string]string{key: "numeric"})
	}
	return d, nil
}

// FormBool reads a checkbox.
func FormBool(r *http.Request, key string) bool {
	switch strings.ToLower(FormString(r, key, 8)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// ParseMultipart parses a multipart form whose body may not exceed maxBytes
// plus a little room for the other fields.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(64<<10))
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "upload too large").WithDetails(map[string]string{"file": "max"})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upload")
	}
	return nil
}

// FormFile opens an optional uploaded file. The caller closes it.
func FormFile(r *http.Request, field string) (io.ReadCloser, *multipart.FileHeader, bool, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upload")
	}
	if header.Size == 0 {
		_ = file.Close()
		return nil, nil, false, nil
	}
	return file, header, true, nil
}
