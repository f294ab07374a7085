package controllers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/internal/extrastudents"
	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

type extraStudentsView struct {
	Search   string
	Status   enums.StudentStatus
	Students []extrastudents.Student
	Counts   extrastudents.Counts
	Editing  *extrastudents.Student
	Form     extrastudents.Form
}

func extraStudentForm(r *http.Request) extrastudents.Form {
	return extrastudents.Form{
		FirstName:             validators.FormString(r, "firstName", 100),
		LastName:              validators.FormString(r, "lastName", 100),
		FirstNameArabic:       validators.FormString(r, "firstNameArabic", 100),
		LastNameArabic:        validators.FormString(r, "lastNameArabic", 100),
		BirthDate:             validators.FormString(r, "birthDate", 10),
		ResponsibleName:       validators.FormString(r, "responsibleName", 120),
		ResponsibleNameArabic: validators.FormString(r, "responsibleNameArabic", 120),
		ResponsiblePhone:      validators.FormString(r, "responsiblePhone", 20),
		Status:                enums.StudentStatus(validators.FormString(r, "status", 20)),
		PhotoURL:              validators.FormString(r, "photoUrl", 2048),
	}
}

// ExtraStudents lists the children enrolled in extra courses only.
func (d *Deps) ExtraStudents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		view := extraStudentsView{
			Search: validators.QueryString(r, "search", 100),
			Status: enums.StudentStatus(validators.QueryString(r, "status", 20)),
		}

		list, err := load(d, req, "extra-students", func(ctx context.Context) ([]extrastudents.Student, error) {
			return req.svc.ExtraStudents.List(ctx)
		})
		if err != nil && d.loadFailed(req, err, "students.loadError") {
			return
		}
		view.Counts = extrastudents.Count(list)
		view.Students = extrastudents.Filter(list, view.Search, view.Status)
		if id := validators.QueryString(r, "edit", 64); id != "" {
			for i := range list {
				if list[i].ID == id {
					view.Editing = &list[i]
					view.Form = extrastudents.FormFrom(list[i])
					break
				}
			}
		}
		d.render(req, "extra_students", "extraStudents.title", view)
	}
}

func (d *Deps) UpdateExtraStudent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		form := extraStudentForm(r)
		if err := req.svc.ExtraStudents.Update(req.ctx, id, form); err != nil {
			d.actionFailed(req, err, "students.saveError", "/extra-students?edit="+url.QueryEscape(id))
			return
		}
		d.success(req, "students.saveSuccess", form.FullName())
		redirect(req, "/extra-students")
	}
}

func (d *Deps) DeleteExtraStudent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		if err := req.svc.ExtraStudents.Delete(req.ctx, chi.URLParam(r, "id")); err != nil {
			d.actionFailed(req, err, "students.deleteError", "/extra-students")
			return
		}
		d.success(req, "students.deleteSuccess")
		redirect(req, "/extra-students")
	}
}

type extraRegistrationView struct {
	Form extrastudents.Form
}

// ExtraRegistration shows the sign-up form for extra courses.
func (d *Deps) ExtraRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		view := extraRegistrationView{Form: extrastudents.Form{Status: enums.StudentStatusActive}}
		d.render(req, "extra_register", "extraStudentRegistration.title", view)
	}
}

func (d *Deps) RegisterExtraStudent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		form := extraStudentForm(r)
		if err := req.svc.ExtraStudents.Register(req.ctx, form); err != nil {
			if d.expired(req, err) {
				return
			}
			title, params := describe(err)
			req.b.Toasts.Push(req.ctx, toastFor("extraStudentRegistration.messages.error", title, params))
			d.renderStatus(req, pkgerrors.MetadataFor(pkgerrors.CodeOf(err)).HTTPStatus, "extra_register", "extraStudentRegistration.title", extraRegistrationView{Form: form})
			return
		}
		req.svc.Badge.Invalidate(req.ctx, req.b.SessionID)
		d.success(req, "extraStudentRegistration.messages.success", form.FullName())
		redirect(req, "/extra-students")
	}
}
