package controllers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/internal/staff"
	"github.com/linarqa/linarqa-web/pkg/enums"
)

type personnelView struct {
	Filter  staff.Filter
	Members []staff.Member
	Payroll staff.Payroll
	Editing *staff.Member
	Form    staff.Form
}

func staffForm(r *http.Request) (staff.Form, error) {
	salary, err := validators.FormDecimal(r, "salary")
	if err != nil {
		return staff.Form{}, err
	}
	return staff.Form{
		FirstName:       validators.FormString(r, "firstName", 100),
		LastName:        validators.FormString(r, "lastName", 100),
		FirstNameArabic: validators.FormString(r, "firstNameArabic", 100),
		LastNameArabic:  validators.FormString(r, "lastNameArabic", 100),
		IdentityNumber:  validators.FormString(r, "identityNumber", 20),
		PhoneNumber:     validators.FormString(r, "phoneNumber", 20),
		Salary:          salary,
		Type:            enums.StaffType(validators.FormString(r, "type", 30)),
		Active:          validators.FormBool(r, "active"),
	}, nil
}

// Personnel lists the staff with the payroll summary. The summary covers the
// whole staff, not only the filtered rows.
func (d *Deps) Personnel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		view := personnelView{
			Filter: staff.Filter{
				Search: validators.QueryString(r, "search", 100),
				Type:   enums.StaffType(validators.QueryString(r, "type", 30)),
				Status: validators.QueryString(r, "status", 10),
			},
			Form: staff.NewForm(),
		}

		list, err := load(d, req, "personnel", func(ctx context.Context) ([]staff.Member, error) {
			return req.svc.Staff.List(ctx)
		})
		if err != nil && d.loadFailed(req, err, "personnel.loadError") {
			return
		}
		view.Members = view.Filter.Apply(list)
		view.Payroll = staff.Summarize(list)
		if id := validators.QueryString(r, "edit", 64); id != "" {
			for i := range list {
				if list[i].ID == id {
					view.Editing = &list[i]
					view.Form = staff.FormFrom(list[i])
					break
				}
			}
		}
		d.render(req, "personnel", "personnel.title", view)
	}
}

func (d *Deps) CreateStaff() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		form, err := staffForm(r)
		if err == nil {
			err = req.svc.Staff.Create(req.ctx, form)
		}
		if err != nil {
			d.actionFailed(req, err, "personnel.messages.error", "/personnel")
			return
		}
		d.success(req, "personnel.messages.createSuccess")
		redirect(req, "/personnel")
	}
}

func (d *Deps) UpdateStaff() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		form, err := staffForm(r)
		if err == nil {
			err = req.svc.Staff.Update(req.ctx, id, form)
		}
		if err != nil {
			d.actionFailed(req, err, "personnel.messages.error", "/personnel?edit="+url.QueryEscape(id))
			return
		}
		d.success(req, "personnel.messages.updateSuccess")
		redirect(req, "/personnel")
	}
}

func (d *Deps) DeleteStaff() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		if err := req.svc.Staff.Delete(req.ctx, chi.URLParam(r, "id")); err != nil {
			d.actionFailed(req, err, "personnel.messages.error", "/personnel")
			return
		}
		d.success(req, "personnel.messages.deleteSuccess")
		redirect(req, "/personnel")
	}
}
