package controllers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/internal/students"
	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

type enrollmentView struct {
	Type       enums.StudentType
	Form       students.Form
	Classrooms []students.Classroom
}

// Enrollment shows the registration form of a new kindergarten pupil. A
// photo uploaded beforehand arrives as the photo query parameter.
func (d *Deps) Enrollment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		studentType := req.b.Theme.Mode().StudentType()
		view := enrollmentView{Type: studentType}
		view.Form.PhotoURL = validators.QueryString(r, "photo", 2048)
		if levels := enums.LevelsFor(studentType); len(levels) > 0 {
			view.Form.Level = levels[0]
		}

		rooms, err := load(d, req, "enrollments", func(ctx context.Context) ([]students.Classroom, error) {
			return req.svc.Students.Classrooms(ctx, studentType)
		})
		if err != nil && d.loadFailed(req, err, "enrollments.error") {
			return
		}
		view.Classrooms = rooms
		d.render(req, "enrollments", "enrollments.title", view)
	}
}

// EnrollmentPhoto stores a photo before the pupil exists and returns to the
// form with its URL filled in.
func (d *Deps) EnrollmentPhoto() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		if err := validators.ParseMultipart(w, r, d.Media.MaxBytes()*cameraOverhead); err != nil {
			d.actionFailed(req, err, "students.photoUpdateError", "/enrollments")
			return
		}

		var (
			photoURL string
			err      error
		)
		if camera := r.PostFormValue("cameraData"); camera != "" {
			photoURL, err = req.svc.Media.CaptureForEnrollment(req.ctx, camera)
		} else {
			file, header, found, ferr := validators.FormFile(r, "file")
			switch {
			case ferr != nil:
				err = ferr
			case !found:
				err = pkgerrors.New(pkgerrors.CodeValidation, "no photo given").
					WithDetails(map[string]string{"photo": "required"})
			default:
				photoURL, err = req.svc.Media.UploadForEnrollment(req.ctx, file, header.Filename)
				_ = file.Close()
			}
		}
		if err != nil {
			d.actionFailed(req, err, "students.photoUpdateError", "/enrollments")
			return
		}
		d.success(req, "enrollments.success.photoUploaded")
		redirect(req, "/enrollments?photo="+url.QueryEscape(photoURL))
	}
}
