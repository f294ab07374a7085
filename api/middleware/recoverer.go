package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/linarqa/linarqa-web/api/responses"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/logger"
)

// Recoverer turns a handler panic into a 500. JSON callers get the error
// envelope, browsers a plain page. http.ErrAbortHandler is passed through.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					logg.Error(logg.WithField(ctx, "path", r.URL.Path), "panic.recovered", err)
				}
				if wantsJSON(r) {
					responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
					return
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
