package controllers

import (
	"net/http"

	"github.com/linarqa/linarqa-web/api/responses"
)

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Cache-Control", "no-store")
	responses.WriteSuccess(w, data)
}

func writeJSONError(d *Deps, w http.ResponseWriter, r *http.Request, err error) {
	responses.WriteError(r.Context(), d.logger(), w, err)
}
