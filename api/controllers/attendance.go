package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/internal/attendance"
	"github.com/linarqa/linarqa-web/internal/students"
	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/types"
)

const markPrefix = "status_"

type attendanceRow struct {
	Student students.Student
	Status  enums.AttendanceStatus
	Record  *attendance.Record
}

type attendanceView struct {
	Day     types.Date
	Rows    []attendanceRow
	Summary attendance.Summary
	History []attendance.Day
}

type attendanceData struct {
	students []students.Student
	records  []attendance.Record
	history  []attendance.Record
}

// attendanceDay reads the day from the query or form, defaulting to today.
func (d *Deps) attendanceDay(raw string) (types.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return types.DateOf(d.now()), nil
	}
	day, err := types.ParseDate(raw)
	if err != nil {
		return types.Date{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date").
			WithDetails(map[string]string{"date": "datetime"})
	}
	return day, nil
}

// Attendance shows the roll call of one day with the last thirty days below.
func (d *Deps) Attendance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		day, err := d.attendanceDay(validators.QueryString(r, "date", 10))
		if err != nil {
			d.actionFailed(req, err, "attendance.loadingError", "/attendance")
			return
		}
		studentType := req.b.Theme.Mode().StudentType()

		data, err := load(d, req, "attendance", func(ctx context.Context) (attendanceData, error) {
			list, err := req.svc.Students.List(ctx, students.Filter{Type: studentType, Status: enums.StudentStatusActive})
			if err != nil {
				return attendanceData{}, err
			}
			records, err := req.svc.Attendance.ForDay(ctx, studentType, day)
			if err != nil {
				return attendanceData{}, err
			}
			history, err := req.svc.Attendance.History(ctx, studentType)
			if err != nil {
				return attendanceData{}, err
			}
			return attendanceData{students: list, records: records, history: history}, nil
		})
		if err != nil && d.loadFailed(req, err, "attendance.loadingError") {
			return
		}

		marks := attendance.InitialMarks(data.students, data.records)
		byStudent := make(map[string]*attendance.Record, len(data.records))
		for i := range data.records {
			byStudent[data.records[i].Student.ID] = &data.records[i]
		}
		view := attendanceView{
			Day:     day,
			Summary: attendance.SummarizeMarks(marks),
			History: attendance.GroupByDate(data.history),
		}
		for _, st := range data.students {
			view.Rows = append(view.Rows, attendanceRow{Student: st, Status: marks[st.ID], Record: byStudent[st.ID]})
		}
		d.render(req, "attendance", "attendance.title", view)
	}
}

// SaveAttendance records one status per student for the posted day.
func (d *Deps) SaveAttendance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		raw := validators.FormString(r, "date", 10)
		to := "/attendance?date=" + raw
		day, err := d.attendanceDay(raw)
		if err != nil {
			d.actionFailed(req, err, "attendance.saveError", "/attendance")
			return
		}
		if err := r.ParseForm(); err != nil {
			d.actionFailed(req, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form"), "attendance.saveError", to)
			return
		}

		marks := make(map[string]enums.AttendanceStatus)
		for key, values := range r.PostForm {
			id, found := strings.CutPrefix(key, markPrefix)
			if !found || id == "" || len(values) == 0 {
				continue
			}
			marks[id] = enums.AttendanceStatus(strings.TrimSpace(values[0]))
		}

		recordedBy := ""
		if user := req.b.Auth.User(); user != nil {
			recordedBy = user.DisplayName(enums.LanguageFrench)
		}
		if err := req.svc.Attendance.Save(req.ctx, day, marks, recordedBy); err != nil {
			d.actionFailed(req, err, "attendance.saveError", to)
			return
		}
		d.success(req, "attendance.saveSuccess")
		redirect(req, "/attendance?date="+day.String())
	}
}
