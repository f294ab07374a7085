package payments

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

type fakeAPI struct {
	method    string
	path      string
	query     url.Values
	responses map[string]string
}

func (f *fakeAPI) Get(_ context.Context, path string, query url.Values, out any) error {
	f.method, f.path, f.query = "GET", path, query
	return json.Unmarshal([]byte(f.responses[path]), out)
}

func (f *fakeAPI) Post(_ context.Context, path string, _, _ any) error {
	f.method, f.path = "POST", path
	return nil
}

func (f *fakeAPI) Patch(_ context.Context, path string, _, _ any) error {
	f.method, f.path = "PATCH", path
	return nil
}

const extraJSON = `[
  {"id":"p1","extraStudentId":"e1","studentName":"Salma Idrissi","courseName":"Mathématiques","courseId":"c1","amount":250.50,"status":"PAID","dueDate":"2026-02-05"},
  {"id":"p2","extraStudentId":"e2","studentName":"Omar Tazi","courseName":"Anglais","courseId":"c2","amount":200,"status":"UNPAID","dueDate":"2026-03-05"},
  {"id":"p3","extraStudentId":"e1","studentName":"Salma Idrissi","courseName":"Mathématiques","courseId":"c1","amount":250.50,"status":"OVERDUE","dueDate":"2026-03-05"}
]`

func TestExtraSendsFiltersAndMonth(t *testing.T) {
	api := &fakeAPI{responses: map[string]string{"/extra-payments": extraJSON}}
	svc, err := NewService(api)
	require.NoError(t, err)

	list, err := svc.Extra(context.Background(), ExtraFilter{
		Status:   enums.PaymentUnpaid,
		CourseID: "c2",
		Month:    Month{Year: 2026, Month: time.March},
	})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].Amount.Equal(decimal.RequireFromString("250.5")))

	assert.Equal(t, "UNPAID", api.query.Get("status"))
	assert.Equal(t, "c2", api.query.Get("courseId"))
	assert.Equal(t, "03", api.query.Get("month"))
	assert.Equal(t, "2026", api.query.Get("year"))
	assert.Empty(t, api.query.Get("studentId"))
}

func TestStatisticsAndRate(t *testing.T) {
	api := &fakeAPI{responses: map[string]string{
		"/extra-payments/statistics": `{"totalPayments":4,"paidPayments":1,"totalAmount":800,"paidAmount":200,"expectedAmount":800}`,
	}}
	svc, err := NewService(api)
	require.NoError(t, err)

	stats, err := svc.ExtraStatistics(context.Background(), Month{})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalPayments)
	assert.Equal(t, "25", stats.CollectionRate().String())
	assert.Empty(t, api.query)

	assert.True(t, Statistics{}.CollectionRate().IsZero())
}

func TestMutations(t *testing.T) {
	api := &fakeAPI{}
	svc, err := NewService(api)
	require.NoError(t, err)

	require.NoError(t, svc.GenerateMonthly(context.Background()))
	assert.Equal(t, "/extra-payments/generate-monthly", api.path)

	require.NoError(t, svc.MarkPaid(context.Background(), "p2"))
	assert.Equal(t, "PATCH", api.method)
	assert.Equal(t, "/extra-payments/p2/mark-paid", api.path)

	err = svc.MarkPaid(context.Background(), "")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestStudentHistoryPicksEndpointByType(t *testing.T) {
	api := &fakeAPI{responses: map[string]string{
		"/payments/student/s1":       `[{"id":"k1","amount":900,"status":"PAID","paymentType":"MONTHLY_FEE","month":2,"year":2026,"dueDate":"2026-02-01","paidDate":"2026-02-03"}]`,
		"/extra-payments/student/e1": extraJSON,
	}}
	svc, err := NewService(api)
	require.NoError(t, err)

	kg, err := svc.StudentHistory(context.Background(), enums.StudentTypeKindergarten, "s1")
	require.NoError(t, err)
	require.Len(t, kg, 1)
	assert.Equal(t, "MONTHLY_FEE", kg[0].Label)
	assert.Equal(t, "2026-02-03", kg[0].PaidDate)

	extra, err := svc.StudentHistory(context.Background(), enums.StudentTypeExtraCourse, "e1")
	require.NoError(t, err)
	require.Len(t, extra, 3)
	assert.Equal(t, 3, extra[1].Month)
	assert.Equal(t, "", extra[1].PaidDate)
}

func TestSummaries(t *testing.T) {
	var list []ExtraPayment
	require.NoError(t, json.Unmarshal([]byte(extraJSON), &list))

	totals := SummarizeExtra(list)
	assert.Equal(t, 3, totals.Count)
	assert.Equal(t, 1, totals.PaidCount)
	assert.Equal(t, 1, totals.UnpaidCount)
	assert.Equal(t, "701", totals.Amount.String())
	assert.Equal(t, "450.5", totals.Outstanding.String())

	groups := GroupByDueMonth(list)
	require.Len(t, groups, 2)
	assert.Equal(t, "2026-03", groups[0].Month.Key())
	assert.Equal(t, 2, groups[0].Totals.Count)

	courses := ByCourse(list)
	require.Len(t, courses, 2)
	assert.Equal(t, "Anglais", courses[0].CourseName)
	assert.Equal(t, "501", courses[1].Totals.Amount.String())

	assert.Len(t, Search(list, "SALMA"), 2)
	assert.Len(t, Search(list, "anglais"), 1)
	assert.Len(t, Search(list, " "), 3)

	kg := Summarize([]Payment{{Status: enums.PaymentUnpaid, Amount: decimal.NewFromInt(900)}, {Status: enums.PaymentPaid, Amount: decimal.NewFromInt(900)}})
	assert.Equal(t, 1, kg.UnpaidCount)
	assert.Equal(t, "900", kg.PaidAmount.String())
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2026-03")
	require.NoError(t, err)
	assert.Equal(t, Month{Year: 2026, Month: time.March}, m)
	_, err = ParseMonth("03/2026")
	assert.Error(t, err)
}
