package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/internal/media"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

// base64 grows a camera capture by a third.
const cameraOverhead = 2

// Photo replaces the photo of a student from a link, a file or a camera
// capture, checked in that order.
func (d *Deps) Photo(owner media.Owner, fallback string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		if err := validators.ParseMultipart(w, r, d.Media.MaxBytes()*cameraOverhead); err != nil {
			d.actionFailed(req, err, "students.photoUpdateError", fallback)
			return
		}
		to := back(r, fallback)

		var err error
		switch {
		case validators.FormString(r, "photoUrl", 2048) != "":
			err = req.svc.Media.SetPhotoURL(req.ctx, owner, id, validators.FormString(r, "photoUrl", 2048))
		case r.PostFormValue("cameraData") != "":
			err = req.svc.Media.UploadCamera(req.ctx, owner, id, r.PostFormValue("cameraData"))
		default:
			file, header, found, ferr := validators.FormFile(r, "file")
			if ferr != nil {
				err = ferr
				break
			}
			if !found {
				err = pkgerrors.New(pkgerrors.CodeValidation, "no photo given").
					WithDetails(map[string]string{"photo": "required"})
				break
			}
			err = req.svc.Media.UploadFile(req.ctx, owner, id, file, header.Filename)
			_ = file.Close()
		}
		if err != nil {
			d.actionFailed(req, err, "students.photoUpdateError", to)
			return
		}
		d.success(req, "students.photoUpdateSuccess")
		redirect(req, to)
	}
}
