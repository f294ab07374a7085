package payments

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

const (
	paymentsPath        = "/payments"
	extraPaymentsPath   = "/extra-payments"
	extraStatisticsPath = "/extra-payments/statistics"
	generateMonthlyPath = "/extra-payments/generate-monthly"
)

type requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
}

type Service interface {
	List(ctx context.Context) ([]Payment, error)
	StudentHistory(ctx context.Context, studentType enums.StudentType, studentID string) ([]HistoryEntry, error)
	Extra(ctx context.Context, filter ExtraFilter) ([]ExtraPayment, error)
	ExtraStatistics(ctx context.Context, month Month) (Statistics, error)
	GenerateMonthly(ctx context.Context) error
	MarkPaid(ctx context.Context, id string) error
}

type service struct {
	api requester
}

func NewService(api requester) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api requester required")
	}
	return &service{api: api}, nil
}

func (s *service) List(ctx context.Context) ([]Payment, error) {
	var out []Payment
	if err := s.api.Get(ctx, paymentsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HistoryEntry is one line of a student's payment history, whichever kind
// of payment it comes from.
type HistoryEntry struct {
	ID       string
	Label    string
	Amount   decimal.Decimal
	Status   enums.PaymentStatus
	DueDate  string
	PaidDate string
	Month    int
	Year     int
}

// StudentHistory loads a student's payments from the endpoint of their type.
func (s *service) StudentHistory(ctx context.Context, studentType enums.StudentType, studentID string) ([]HistoryEntry, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student id is required")
	}
	if studentType == enums.StudentTypeExtraCourse {
		var extra []ExtraPayment
		if err := s.api.Get(ctx, extraPaymentsPath+"/student/"+url.PathEscape(studentID), nil, &extra); err != nil {
			return nil, err
		}
		out := make([]HistoryEntry, 0, len(extra))
		for _, p := range extra {
			out = append(out, HistoryEntry{
				ID: p.ID, Label: p.CourseName, Amount: p.Amount, Status: p.Status,
				DueDate: p.DueDate.String(), PaidDate: p.PaidDate.String(),
				Month: int(p.DueDate.Month()), Year: p.DueDate.Year(),
			})
		}
		return out, nil
	}

	var list []Payment
	if err := s.api.Get(ctx, paymentsPath+"/student/"+url.PathEscape(studentID), nil, &list); err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(list))
	for _, p := range list {
		label := p.Description
		if label == "" {
			label = p.PaymentType
		}
		out = append(out, HistoryEntry{
			ID: p.ID, Label: label, Amount: p.Amount, Status: p.Status,
			DueDate: p.DueDate.String(), PaidDate: p.PaidDate.String(),
			Month: p.Month, Year: p.Year,
		})
	}
	return out, nil
}

func (s *service) Extra(ctx context.Context, filter ExtraFilter) ([]ExtraPayment, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.StudentID != "" {
		q.Set("studentId", filter.StudentID)
	}
	if filter.CourseID != "" {
		q.Set("courseId", filter.CourseID)
	}
	setMonth(q, filter.Month)
	var out []ExtraPayment
	if err := s.api.Get(ctx, extraPaymentsPath, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) ExtraStatistics(ctx context.Context, month Month) (Statistics, error) {
	q := url.Values{}
	setMonth(q, month)
	var out Statistics
	if err := s.api.Get(ctx, extraStatisticsPath, q, &out); err != nil {
		return Statistics{}, err
	}
	return out, nil
}

// GenerateMonthly asks the API to bill every active enrollment for the
// current month.
func (s *service) GenerateMonthly(ctx context.Context) error {
	return s.api.Post(ctx, generateMonthlyPath, nil, nil)
}

func (s *service) MarkPaid(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	return s.api.Patch(ctx, extraPaymentsPath+"/"+url.PathEscape(id)+"/mark-paid", nil, nil)
}

func setMonth(q url.Values, m Month) {
	if m.IsZero() {
		return
	}
	q.Set("month", fmt.Sprintf("%02d", int(m.Month)))
	q.Set("year", strconv.Itoa(m.Year))
}

// Totals counts payments and sums amounts per status.
type Totals struct {
	Count       int
	Amount      decimal.Decimal
	PaidCount   int
	PaidAmount  decimal.Decimal
	UnpaidCount int
	Outstanding decimal.Decimal
	ByStatus    map[enums.PaymentStatus]int
}

func newTotals() Totals {
	return Totals{ByStatus: map[enums.PaymentStatus]int{}}
}

func (t *Totals) add(status enums.PaymentStatus, amount decimal.Decimal) {
	t.Count++
	t.Amount = t.Amount.Add(amount)
	t.ByStatus[status]++
	if status == enums.PaymentPaid {
		t.PaidCount++
		t.PaidAmount = t.PaidAmount.Add(amount)
		return
	}
	if status == enums.PaymentUnpaid {
		t.UnpaidCount++
	}
	if status.Outstanding() {
		t.Outstanding = t.Outstanding.Add(amount)
	}
}

func Summarize(list []Payment) Totals {
	t := newTotals()
	for _, p := range list {
		t.add(p.Status, p.Amount)
	}
	return t
}

func SummarizeExtra(list []ExtraPayment) Totals {
	t := newTotals()
	for _, p := range list {
		t.add(p.Status, p.Amount)
	}
	return t
}

// MonthGroup is the extra payments due in one month.
type MonthGroup struct {
	Month    Month
	Payments []ExtraPayment
	Totals   Totals
}

// GroupByDueMonth groups payments by the month of their due date, most
// recent month first.
func GroupByDueMonth(list []ExtraPayment) []MonthGroup {
	index := map[string]int{}
	var out []MonthGroup
	for _, p := range list {
		m := MonthOf(p.DueDate.Time)
		i, ok := index[m.Key()]
		if !ok {
			i = len(out)
			index[m.Key()] = i
			out = append(out, MonthGroup{Month: m})
		}
		out[i].Payments = append(out[i].Payments, p)
	}
	for i := range out {
		out[i].Totals = SummarizeExtra(out[i].Payments)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Month.Key() > out[j].Month.Key()
	})
	return out
}

// CourseTotal is what one course billed in the listed payments.
type CourseTotal struct {
	CourseID   string
	CourseName string
	Totals     Totals
}

// ByCourse sums the listed payments per course, by course name.
func ByCourse(list []ExtraPayment) []CourseTotal {
	index := map[string]int{}
	var out []CourseTotal
	for _, p := range list {
		i, ok := index[p.CourseID]
		if !ok {
			i = len(out)
			index[p.CourseID] = i
			out = append(out, CourseTotal{CourseID: p.CourseID, CourseName: p.CourseName, Totals: newTotals()})
		}
		out[i].Totals.add(p.Status, p.Amount)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CourseName < out[j].CourseName
	})
	return out
}

// Search keeps payments whose student or course name contains term,
// ignoring case.
func Search(list []ExtraPayment, term string) []ExtraPayment {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return list
	}
	out := make([]ExtraPayment, 0, len(list))
	for _, p := range list {
		if strings.Contains(strings.ToLower(p.StudentName), term) ||
			strings.Contains(strings.ToLower(p.StudentNameArabic), term) ||
			strings.Contains(strings.ToLower(p.CourseName), term) {
			out = append(out, p)
		}
	}
	return out
}
