package controllers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/internal/belongings"
	"github.com/linarqa/linarqa-web/pkg/enums"
)

type belongingsView struct {
	Type     enums.StudentType
	Level    enums.StudentLevel
	Groups   []belongings.CategoryGroup
	Items    []belongings.Belonging
	Counts   []belongings.StatusCount
	Editing  *belongings.Requirement
	Form     belongings.RequirementForm
	Tracking bool
}

type belongingsData struct {
	requirements []belongings.Requirement
	items        []belongings.Belonging
	trackingErr  error
}

func requirementForm(r *http.Request, studentType enums.StudentType) (belongings.RequirementForm, error) {
	qty, err := validators.FormInt(r, "quantityNeeded", 1)
	if err != nil {
		return belongings.RequirementForm{}, err
	}
	return belongings.RequirementForm{
		Name:           validators.FormString(r, "name", 120),
		NameArabic:     validators.FormString(r, "nameArabic", 120),
		Category:       validators.FormString(r, "category", 60),
		IsRequired:     validators.FormBool(r, "isRequired"),
		QuantityNeeded: qty,
		Description:    validators.FormString(r, "description", 500),
		Notes:          validators.FormString(r, "notes", 500),
		StudentType:    studentType,
		Level:          enums.StudentLevel(validators.FormString(r, "level", 20)),
	}, nil
}

// Belongings shows the requirement list of a level and the items handed over
// by the students of the active mode.
func (d *Deps) Belongings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		studentType := req.b.Theme.Mode().StudentType()
		level := enums.StudentLevel(validators.QueryString(r, "level", 20))
		view := belongingsView{Type: studentType, Level: level, Form: belongings.RequirementForm{QuantityNeeded: 1, IsRequired: true}}

		data, err := load(d, req, "belongings", func(ctx context.Context) (belongingsData, error) {
			reqs, err := req.svc.Belongings.Requirements(ctx)
			if err != nil {
				return belongingsData{}, err
			}
			items, terr := req.svc.Belongings.Tracking(ctx, studentType)
			return belongingsData{requirements: reqs, items: items, trackingErr: terr}, nil
		})
		if err != nil && d.loadFailed(req, err, "belongings.requirements.error") {
			return
		}
		if data.trackingErr != nil && d.loadFailed(req, data.trackingErr, "belongings.tracking.error") {
			return
		}

		view.Groups = belongings.GroupByCategory(data.requirements, level)
		view.Items = data.items
		view.Counts = belongings.CountByStatus(data.items)
		view.Tracking = data.trackingErr == nil
		if id := validators.QueryString(r, "edit", 64); id != "" {
			for i := range data.requirements {
				rq := data.requirements[i]
				if rq.ID != id {
					continue
				}
				view.Editing = &data.requirements[i]
				view.Form = belongings.RequirementForm{
					Name:           rq.Name,
					NameArabic:     rq.NameArabic,
					Category:       rq.Category,
					IsRequired:     rq.IsRequired,
					QuantityNeeded: rq.QuantityNeeded,
					Description:    rq.Description,
					Notes:          rq.Notes,
					StudentType:    rq.StudentType,
					Level:          rq.Level,
				}
				break
			}
		}
		d.render(req, "belongings", "belongings.title", view)
	}
}

func (d *Deps) CreateRequirement() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		form, err := requirementForm(r, req.b.Theme.Mode().StudentType())
		if err == nil {
			createdBy := ""
			if user := req.b.Auth.User(); user != nil {
				createdBy = user.DisplayName(enums.LanguageFrench)
			}
			err = req.svc.Belongings.CreateRequirement(req.ctx, form, createdBy)
		}
		if err != nil {
			d.actionFailed(req, err, "belongings.requirements.error", "/belongings")
			return
		}
		d.success(req, "belongings.requirements.createSuccess")
		redirect(req, back(r, "/belongings"))
	}
}

func (d *Deps) UpdateRequirement() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		form, err := requirementForm(r, req.b.Theme.Mode().StudentType())
		if err == nil {
			err = req.svc.Belongings.UpdateRequirement(req.ctx, id, form)
		}
		if err != nil {
			d.actionFailed(req, err, "belongings.requirements.error", "/belongings?edit="+url.QueryEscape(id))
			return
		}
		d.success(req, "belongings.requirements.updateSuccess")
		redirect(req, back(r, "/belongings"))
	}
}

func (d *Deps) DeleteRequirement() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		if err := req.svc.Belongings.DeleteRequirement(req.ctx, chi.URLParam(r, "id")); err != nil {
			d.actionFailed(req, err, "belongings.requirements.error", "/belongings")
			return
		}
		d.success(req, "belongings.requirements.deleteSuccess")
		redirect(req, back(r, "/belongings"))
	}
}

func (d *Deps) CheckOutBelonging() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		if err := req.svc.Belongings.CheckOut(req.ctx, chi.URLParam(r, "id")); err != nil {
			d.actionFailed(req, err, "belongings.tracking.error", "/belongings")
			return
		}
		d.success(req, "belongings.tracking.checkOutSuccess")
		redirect(req, "/belongings")
	}
}

func (d *Deps) SetBelongingStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		status := enums.BelongingStatus(validators.FormString(r, "status", 20))
		notes := validators.FormString(r, "notes", 500)
		if err := req.svc.Belongings.SetStatus(req.ctx, chi.URLParam(r, "id"), status, notes); err != nil {
			d.actionFailed(req, err, "belongings.tracking.error", "/belongings")
			return
		}
		d.success(req, "belongings.tracking.updateStatusSuccess")
		redirect(req, "/belongings")
	}
}

type checklistView struct {
	Checklist belongings.Checklist
	Date      string
}

// PrintChecklist renders the selected requirements as a printable page.
func (d *Deps) PrintChecklist() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		level := enums.StudentLevel(validators.QueryString(r, "level", 20))
		selected := r.URL.Query()["item"]
		to := "/belongings?level=" + url.QueryEscape(string(level))
		if len(selected) == 0 {
			req.b.Toasts.Error(req.ctx, "belongings.print.noItemsSelected", "")
			redirect(req, to)
			return
		}
		reqs, err := req.svc.Belongings.Requirements(req.ctx)
		if err != nil {
			d.actionFailed(req, err, "belongings.requirements.error", to)
			return
		}
		list, err := belongings.BuildChecklist(reqs, selected, level)
		if err != nil {
			req.b.Toasts.Error(req.ctx, "belongings.print.noItemsSelected", "")
			redirect(req, to)
			return
		}
		d.renderBare(req, http.StatusOK, "belongings_print", "belongings.print.title", checklistView{
			Checklist: list,
			Date:      req.b.Lang.FmtDate(d.now()),
		})
	}
}
