package controllers

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/linarqa/linarqa-web/api/responses"
	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/internal/students"
	"github.com/linarqa/linarqa-web/pkg/enums"
)

type studentsView struct {
	Type       enums.StudentType
	Filter     students.Filter
	Classroom  string
	Students   []students.Student
	Classrooms []students.Classroom
	ByLevel    []students.LevelCount
	Editing    *students.Student
	Form       students.Form
}

type studentsData struct {
	list       []students.Student
	classrooms []students.Classroom
}

func studentFilter(r *http.Request, studentType enums.StudentType) students.Filter {
	return students.Filter{
		Type:   studentType,
		Search: validators.QueryString(r, "search", 100),
		Level:  enums.StudentLevel(validators.QueryString(r, "level", 20)),
		Status: enums.StudentStatus(validators.QueryString(r, "status", 20)),
	}
}

func studentForm(r *http.Request) students.Form {
	return students.Form{
		FirstName:          validators.FormString(r, "firstName", 100),
		LastName:           validators.FormString(r, "lastName", 100),
		FirstNameArabic:    validators.FormString(r, "firstNameArabic", 100),
		LastNameArabic:     validators.FormString(r, "lastNameArabic", 100),
		BirthDate:          validators.FormString(r, "birthDate", 10),
		Level:              enums.StudentLevel(validators.FormString(r, "level", 20)),
		Classroom:          validators.FormString(r, "classroom", 100),
		GuardianName:       validators.FormString(r, "guardianName", 150),
		GuardianNameArabic: validators.FormString(r, "guardianNameArabic", 150),
		GuardianPhone:      validators.FormString(r, "guardianPhone", 20),
		Address:            validators.FormString(r, "address", 300),
		AddressArabic:      validators.FormString(r, "addressArabic", 300),
		Allergies:          validators.FormString(r, "allergies", 300),
		Notes:              validators.FormString(r, "notes", 1000),
		PhotoURL:           validators.FormString(r, "photoUrl", 2048),
	}
}

// Students lists the pupils of the active mode with their filters, the
// per-level summary and the add or edit form.
func (d *Deps) Students() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		studentType := req.b.Theme.Mode().StudentType()
		filter := studentFilter(r, studentType)
		view := studentsView{
			Type:      studentType,
			Filter:    filter,
			Classroom: validators.QueryString(r, "classroom", 100),
		}

		data, err := load(d, req, "students", func(ctx context.Context) (studentsData, error) {
			list, err := req.svc.Students.List(ctx, filter)
			if err != nil {
				return studentsData{}, err
			}
			rooms, err := req.svc.Students.Classrooms(ctx, studentType)
			if err != nil {
				d.logger().Warn(d.logger().WithField(ctx, "error", err.Error()), "students.classrooms_unavailable")
				rooms = nil
			}
			return studentsData{list: list, classrooms: rooms}, nil
		})
		if err != nil && d.loadFailed(req, err, "students.loadError") {
			return
		}

		view.Students = students.InClassroom(data.list, view.Classroom)
		view.Classrooms = data.classrooms
		view.ByLevel = students.CountByLevel(studentType, data.list)
		if id := validators.QueryString(r, "edit", 64); id != "" {
			for i := range data.list {
				if data.list[i].ID == id {
					view.Editing = &data.list[i]
					view.Form = students.FormFrom(data.list[i])
					break
				}
			}
		}
		d.render(req, "students", "students.title", view)
	}
}

// CreateStudent registers a pupil of the active mode. The enrollment page
// posts here too and names itself as the page to return to.
func (d *Deps) CreateStudent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		to := back(r, "/students")
		form := studentForm(r)
		created, err := req.svc.Students.Create(req.ctx, req.b.Theme.Mode().StudentType(), form)
		if err != nil {
			d.actionFailed(req, err, "students.saveError", to)
			return
		}
		req.svc.Badge.Invalidate(req.ctx, req.b.SessionID)
		name := created.DisplayName(req.b.Lang.Current())
		if name == "" {
			name = form.FullName()
		}
		if to == "/enrollments" {
			d.success(req, "enrollments.success.enrolled", name)
		} else {
			d.success(req, "students.saveSuccess", name)
		}
		redirect(req, to)
	}
}

func (d *Deps) UpdateStudent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		form := studentForm(r)
		if _, err := req.svc.Students.Update(req.ctx, id, form); err != nil {
			d.actionFailed(req, err, "students.saveError", "/students?edit="+id)
			return
		}
		d.success(req, "students.saveSuccess", form.FullName())
		redirect(req, back(r, "/students"))
	}
}

func (d *Deps) DeleteStudent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		if err := req.svc.Students.Delete(req.ctx, chi.URLParam(r, "id")); err != nil {
			d.actionFailed(req, err, "students.deleteError", "/students")
			return
		}
		d.success(req, "students.deleteSuccess")
		redirect(req, back(r, "/students"))
	}
}

// ExportStudents downloads the filtered list as a localized CSV file.
func (d *Deps) ExportStudents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		studentType := req.b.Theme.Mode().StudentType()
		list, err := req.svc.Students.List(req.ctx, studentFilter(r, studentType))
		if err != nil {
			d.actionFailed(req, err, "students.loadError", "/students")
			return
		}
		list = students.InClassroom(list, validators.QueryString(r, "classroom", 100))
		if len(list) == 0 {
			req.b.Toasts.Error(req.ctx, "students.noStudentsSelected", "")
			redirect(req, "/students")
			return
		}

		now := d.now()
		var buf bytes.Buffer
		if err := students.WriteCSV(&buf, list, req.b.Lang.T, now); err != nil {
			d.actionFailed(req, err, "common.error", "/students")
			return
		}
		d.logger().Info(d.logger().WithField(req.ctx, "rows", len(list)), "students.exported")
		req.b.Toasts.Notify(req.ctx, "students.exportSuccess", "students.exportDescription", strconv.Itoa(len(list)))
		w.Header().Set("Cache-Control", "no-store")
		responses.WriteAttachment(w, students.ExportFilename(studentType, now), "text/csv; charset=utf-8", buf.Bytes())
	}
}
