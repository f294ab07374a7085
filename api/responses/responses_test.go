package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/logger"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestWriteSuccessStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusAccepted, map[string]int{"unread": 4})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"unread":4}}`, rec.Body.String())
}

func TestWriteErrorStatusByCode(t *testing.T) {
	cases := map[pkgerrors.Code]int{
		pkgerrors.CodeValidation:   http.StatusBadRequest,
		pkgerrors.CodeUnauthorized: http.StatusUnauthorized,
		pkgerrors.CodeForbidden:    http.StatusForbidden,
		pkgerrors.CodeConflict:     http.StatusConflict,
		pkgerrors.CodeRateLimit:    http.StatusTooManyRequests,
		pkgerrors.CodeDependency:   http.StatusServiceUnavailable,
	}
	for code, status := range cases {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), nil, rec, pkgerrors.New(code, "x"))
		assert.Equal(t, status, rec.Code, code)
		assert.Equal(t, string(code), decodeError(t, rec).Code)
	}
}

func TestWriteErrorKeepsValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "course is full").
		WithDetails(map[string]string{"courseId": "capacity"})
	WriteError(context.Background(), nil, rec, fmt.Errorf("enroll: %w", err))

	body := decodeError(t, rec)
	assert.Equal(t, "course is full", body.Message)
	assert.Equal(t, map[string]any{"courseId": "capacity"}, body.Details)
}

func TestWriteErrorHidesUntypedErrors(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	rec := httptest.NewRecorder()
	WriteError(context.Background(), logg, rec, errors.New("dial tcp 10.0.0.3:5432: refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, string(pkgerrors.CodeInternal), body.Code)
	assert.Equal(t, "internal server error", body.Message)
	assert.Nil(t, body.Details)
	assert.Contains(t, buf.String(), "request.error")
	assert.Contains(t, buf.String(), "10.0.0.3")
}

func TestPublicMessageFallsBackForInfrastructure(t *testing.T) {
	assert.Equal(t, "school api unavailable",
		PublicMessage(pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("eof"), "decode students")))
	assert.Equal(t, "not allowed here",
		PublicMessage(pkgerrors.New(pkgerrors.CodeForbidden, "not allowed here")))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("boom")))
}

func TestWriteAttachmentDisposition(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAttachment(rec, "Ocean_Breeze_theme.json", "application/json", []byte(`{}`))
	assert.Equal(t, "attachment; filename=Ocean_Breeze_theme.json", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, `{}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteAttachment(rec, "نسيم_theme.json", "application/json", nil)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "filename*=utf-8''")
}
