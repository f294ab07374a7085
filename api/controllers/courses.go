package controllers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/internal/courses"
	"github.com/linarqa/linarqa-web/internal/extrastudents"
	"github.com/linarqa/linarqa-web/pkg/enums"
)

var courseFilters = []string{courses.FilterAll, courses.FilterActive, courses.FilterFull, courses.FilterAvailable}

type coursesView struct {
	Search   string
	Status   string
	Filters  []string
	Courses  []courses.Occupancy
	Stats    courses.Stats
	ByStatus map[enums.EnrollmentStatus][]courses.Enrollment
	Students []extrastudents.Student
	Editing  *courses.Course
	Form     courses.Form
}

type coursesData struct {
	courses     []courses.Course
	enrollments []courses.Enrollment
	students    []extrastudents.Student
}

func courseForm(r *http.Request) (courses.Form, error) {
	price, err := validators.FormDecimal(r, "monthlyPrice")
	if err != nil {
		return courses.Form{}, err
	}
	capacity, err := validators.FormInt(r, "capacity", 0)
	if err != nil {
		return courses.Form{}, err
	}
	return courses.Form{
		Title:        validators.FormString(r, "title", 120),
		Description:  validators.FormString(r, "description", 1000),
		MonthlyPrice: price,
		Capacity:     capacity,
		Schedule:     validators.FormString(r, "schedule", 200),
		Instructor:   validators.FormString(r, "instructor", 120),
		Active:       validators.FormBool(r, "active"),
	}, nil
}

func (d *Deps) loadCourses(ctx context.Context, req *request, withStudents bool) (coursesData, error) {
	list, err := req.svc.Courses.List(ctx)
	if err != nil {
		return coursesData{}, err
	}
	enrollments, err := req.svc.Courses.Enrollments(ctx)
	if err != nil {
		return coursesData{}, err
	}
	out := coursesData{courses: list, enrollments: enrollments}
	if withStudents {
		out.students, err = req.svc.ExtraStudents.List(ctx)
		if err != nil {
			return coursesData{}, err
		}
	}
	return out, nil
}

// ExtraCourses shows the course catalogue with occupancy, the course form
// and the enrollment form.
func (d *Deps) ExtraCourses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		view := coursesView{
			Search:  validators.QueryString(r, "search", 100),
			Status:  validators.QueryString(r, "status", 20),
			Filters: courseFilters,
			Form:    courses.Form{Capacity: 10, Active: true},
		}
		if view.Status == "" {
			view.Status = courses.FilterAll
		}

		data, err := load(d, req, "extra-courses", func(ctx context.Context) (coursesData, error) {
			return d.loadCourses(ctx, req, true)
		})
		if err != nil && d.loadFailed(req, err, "extraCourses.messages.error") {
			return
		}

		all := courses.Occupy(data.courses, data.enrollments)
		view.Courses = courses.Filter(all, view.Search, view.Status)
		view.Stats = courses.Summarize(all)
		view.ByStatus = courses.ByStatus(data.enrollments)
		view.Students = extrastudents.Filter(data.students, "", enums.StudentStatusActive)
		if id := validators.QueryString(r, "edit", 64); id != "" {
			for i := range data.courses {
				if data.courses[i].ID == id {
					view.Editing = &data.courses[i]
					view.Form = courses.FormFrom(data.courses[i])
					break
				}
			}
		}
		d.render(req, "extra_courses", "extraCourses.title", view)
	}
}

func (d *Deps) CreateCourse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		form, err := courseForm(r)
		if err == nil {
			err = req.svc.Courses.Create(req.ctx, form)
		}
		if err != nil {
			d.actionFailed(req, err, "extraCourses.messages.fillRequiredFields", "/extra-courses")
			return
		}
		d.success(req, "extraCourses.messages.courseAddedSuccess")
		redirect(req, "/extra-courses")
	}
}

func (d *Deps) UpdateCourse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		form, err := courseForm(r)
		if err == nil {
			err = req.svc.Courses.Update(req.ctx, id, form)
		}
		if err != nil {
			d.actionFailed(req, err, "extraCourses.messages.error", "/extra-courses?edit="+url.QueryEscape(id))
			return
		}
		d.success(req, "extraCourses.messages.courseUpdatedSuccess")
		redirect(req, "/extra-courses")
	}
}

func (d *Deps) DeleteCourse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		if err := req.svc.Courses.Delete(req.ctx, chi.URLParam(r, "id")); err != nil {
			d.actionFailed(req, err, "extraCourses.messages.error", "/extra-courses")
			return
		}
		d.success(req, "extraCourses.messages.courseDeletedSuccess")
		redirect(req, "/extra-courses")
	}
}

// EnrollInCourse affiliates an extra student with a course that is active
// and not full.
func (d *Deps) EnrollInCourse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		enrollment := courses.EnrollmentRequest{
			ExtraStudentID: validators.FormString(r, "extraStudentId", 64),
			CourseID:       validators.FormString(r, "courseId", 64),
			Notes:          validators.FormString(r, "notes", 500),
			StartDate:      validators.FormString(r, "startDate", 10),
			EndDate:        validators.FormString(r, "endDate", 10),
		}
		if enrollment.ExtraStudentID == "" || enrollment.CourseID == "" {
			req.b.Toasts.Error(req.ctx, "extraCourses.messages.selectStudentAndCourse", "")
			redirect(req, "/extra-courses")
			return
		}

		data, err := d.loadCourses(req.ctx, req, false)
		if err != nil {
			d.actionFailed(req, err, "extraCourses.messages.error", "/extra-courses")
			return
		}
		for _, o := range courses.Occupy(data.courses, data.enrollments) {
			if o.Course.ID != enrollment.CourseID {
				continue
			}
			if err := courses.CheckCapacity(o); err != nil {
				key := "extraCourses.messages.complete"
				if !o.Course.Active {
					key = "extraCourses.messages.inactive"
				}
				req.b.Toasts.Error(req.ctx, key, "")
				redirect(req, "/extra-courses")
				return
			}
		}

		if _, err := req.svc.Courses.Enroll(req.ctx, enrollment); err != nil {
			d.actionFailed(req, err, "extraCourses.messages.error", "/extra-courses")
			return
		}
		req.svc.Badge.Invalidate(req.ctx, req.b.SessionID)
		d.success(req, "extraCourses.messages.studentAffiliatedSuccess")
		redirect(req, "/extra-courses")
	}
}
