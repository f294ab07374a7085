package controllers

import "net/http"

type placeholderView struct {
	Heading string
}

// Placeholder renders a "coming soon" page under the given heading key.
func (d *Deps) Placeholder(heading string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		d.render(req, "placeholder", heading, placeholderView{Heading: heading})
	}
}
