package controllers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/internal/courses"
	"github.com/linarqa/linarqa-web/internal/payments"
	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

type paymentsView struct {
	Status   enums.PaymentStatus
	Payments []payments.Payment
	Totals   payments.Totals
	Student  string
	History  []payments.HistoryEntry
}

type paymentsData struct {
	list    []payments.Payment
	history []payments.HistoryEntry
}

// Payments lists kindergarten payments. With ?student=<id> the student's
// history is shown alongside.
func (d *Deps) Payments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		view := paymentsView{
			Status:  enums.PaymentStatus(validators.QueryString(r, "status", 20)),
			Student: validators.QueryString(r, "student", 64),
		}
		studentType := req.b.Theme.Mode().StudentType()

		data, err := load(d, req, "payments", func(ctx context.Context) (paymentsData, error) {
			list, err := req.svc.Payments.List(ctx)
			if err != nil {
				return paymentsData{}, err
			}
			out := paymentsData{list: list}
			if view.Student != "" {
				out.history, err = req.svc.Payments.StudentHistory(ctx, studentType, view.Student)
				if err != nil {
					return paymentsData{}, err
				}
			}
			return out, nil
		})
		if err != nil && d.loadFailed(req, err, "payments.loadError") {
			return
		}

		view.Totals = payments.Summarize(data.list)
		for _, p := range data.list {
			if view.Status == "" || p.Status == view.Status {
				view.Payments = append(view.Payments, p)
			}
		}
		view.History = data.history
		d.render(req, "payments", "payments.title", view)
	}
}

type extraPaymentsView struct {
	Filter     payments.ExtraFilter
	Search     string
	Payments   []payments.ExtraPayment
	Totals     payments.Totals
	Statistics payments.Statistics
	ByMonth    []payments.MonthGroup
	ByCourse   []payments.CourseTotal
	Courses    []courses.Course
	Back       string
}

type extraPaymentsData struct {
	list    []payments.ExtraPayment
	stats   payments.Statistics
	courses []courses.Course
}

func extraFilter(r *http.Request) (payments.ExtraFilter, error) {
	filter := payments.ExtraFilter{
		Status:    enums.PaymentStatus(validators.QueryString(r, "status", 20)),
		StudentID: validators.QueryString(r, "student", 64),
		CourseID:  validators.QueryString(r, "course", 64),
	}
	if raw := validators.QueryString(r, "month", 7); raw != "" {
		month, err := payments.ParseMonth(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid month").
				WithDetails(map[string]string{"month": "datetime"})
		}
		filter.Month = month
	}
	return filter, nil
}

// ExtraPayments lists extra-course bills with the month statistics, grouped
// by due month and by course.
func (d *Deps) ExtraPayments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		filter, err := extraFilter(r)
		if err != nil {
			d.actionFailed(req, err, "extraPayments.error", "/extra-payments")
			return
		}
		statsMonth := filter.Month
		if statsMonth.IsZero() {
			statsMonth = payments.MonthOf(d.now())
		}
		view := extraPaymentsView{
			Filter: filter,
			Search: validators.QueryString(r, "search", 100),
			Back:   extraPaymentsQuery(filter),
		}

		data, err := load(d, req, "extra-payments", func(ctx context.Context) (extraPaymentsData, error) {
			list, err := req.svc.Payments.Extra(ctx, filter)
			if err != nil {
				return extraPaymentsData{}, err
			}
			stats, err := req.svc.Payments.ExtraStatistics(ctx, statsMonth)
			if err != nil {
				return extraPaymentsData{}, err
			}
			courseList, err := req.svc.Courses.List(ctx)
			if err != nil {
				d.logger().Warn(d.logger().WithField(ctx, "error", err.Error()), "courses.unavailable")
			}
			return extraPaymentsData{list: list, stats: stats, courses: courseList}, nil
		})
		if err != nil && d.loadFailed(req, err, "extraPayments.error") {
			return
		}

		view.Payments = payments.Search(data.list, view.Search)
		view.Totals = payments.SummarizeExtra(view.Payments)
		view.Statistics = data.stats
		view.ByMonth = payments.GroupByDueMonth(view.Payments)
		view.ByCourse = payments.ByCourse(view.Payments)
		view.Courses = data.courses
		if view.Filter.Month.IsZero() {
			view.Filter.Month = statsMonth
		}
		d.render(req, "extra_payments", "extraPayments.title", view)
	}
}

// GenerateMonthlyBills asks the API to bill every active enrollment for
// the current month.
func (d *Deps) GenerateMonthlyBills() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		if err := req.svc.Payments.GenerateMonthly(req.ctx); err != nil {
			d.actionFailed(req, err, "extraPayments.error", "/extra-payments")
			return
		}
		req.svc.Badge.Invalidate(req.ctx, req.b.SessionID)
		d.success(req, "extraPayments.billsGenerated")
		redirect(req, back(r, "/extra-payments"))
	}
}

func (d *Deps) MarkExtraPaid() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		if err := req.svc.Payments.MarkPaid(req.ctx, chi.URLParam(r, "id")); err != nil {
			d.actionFailed(req, err, "extraPayments.error", back(r, "/extra-payments"))
			return
		}
		req.svc.Badge.Invalidate(req.ctx, req.b.SessionID)
		d.success(req, "extraPayments.paymentMarkedPaid")
		redirect(req, back(r, "/extra-payments"))
	}
}

// extraPaymentsQuery rebuilds the list URL of a filter.
func extraPaymentsQuery(f payments.ExtraFilter) string {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.CourseID != "" {
		q.Set("course", f.CourseID)
	}
	if !f.Month.IsZero() {
		q.Set("month", f.Month.Key())
	}
	if len(q) == 0 {
		return "/extra-payments"
	}
	return "/extra-payments?" + q.Encode()
}
