package balance

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

const basePath = "/monthly-balance"

// Breakdown is the income or payroll detail of a month. ByKey holds the
// amount per payment type, course or staff type depending on the section.
type Breakdown struct {
	TotalPayments int                        `json:"totalPayments"`
	TotalStaff    int                        `json:"totalStaff"`
	ByType        map[string]decimal.Decimal `json:"byType"`
	ByCourse      map[string]decimal.Decimal `json:"byCourse"`
	StaffCount    map[string]int             `json:"staffCount"`
	TotalAmount   decimal.Decimal            `json:"totalAmount"`
}

// Provisional is the income still expected for the month.
type Provisional struct {
	KindergartenUnpaid      decimal.Decimal `json:"kindergartenUnpaid"`
	ExtraCourseUnpaid       decimal.Decimal `json:"extraCourseUnpaid"`
	TotalUnpaid             decimal.Decimal `json:"totalUnpaid"`
	KindergartenUnpaidCount int             `json:"kindergartenUnpaidCount"`
	ExtraCourseUnpaidCount  int             `json:"extraCourseUnpaidCount"`
}

// Monthly is the income and payroll balance of one month.
type Monthly struct {
	Year                  int             `json:"year"`
	Month                 int             `json:"month"`
	MonthName             string          `json:"monthName"`
	KindergartenIncome    decimal.Decimal `json:"kindergartenIncome"`
	ExtraCourseIncome     decimal.Decimal `json:"extraCourseIncome"`
	TotalIncome           decimal.Decimal `json:"totalIncome"`
	TotalSalaries         decimal.Decimal `json:"totalSalaries"`
	NetIncome             decimal.Decimal `json:"netIncome"`
	KindergartenBreakdown Breakdown       `json:"kindergartenBreakdown"`
	ExtraCourseBreakdown  Breakdown       `json:"extraCourseBreakdown"`
	SalaryBreakdown       Breakdown       `json:"salaryBreakdown"`
	ProvisionalIncome     *Provisional    `json:"provisionalIncome,omitempty"`
}

// Outcome classifies the net income.
type Outcome string

const (
	Profit    Outcome = "profit"
	Loss      Outcome = "loss"
	BreakEven Outcome = "breakEven"
)

func (m Monthly) Outcome() Outcome {
	return outcomeOf(m.NetIncome)
}

// Margin is the net income as a share of income, in percent.
func (m Monthly) Margin() decimal.Decimal {
	if m.TotalIncome.IsZero() {
		return decimal.Zero
	}
	return m.NetIncome.Div(m.TotalIncome).Mul(decimal.NewFromInt(100)).Round(1)
}

// IncomeShare is the kindergarten part of income, in percent.
func (m Monthly) IncomeShare() decimal.Decimal {
	if m.TotalIncome.IsZero() {
		return decimal.Zero
	}
	return m.KindergartenIncome.Div(m.TotalIncome).Mul(decimal.NewFromInt(100)).Round(1)
}

func outcomeOf(net decimal.Decimal) Outcome {
	switch net.Sign() {
	case 1:
		return Profit
	case -1:
		return Loss
	}
	return BreakEven
}

// Yearly is the twelve monthly balances of a year and their totals.
type Yearly struct {
	Year                 int                `json:"year"`
	MonthlyBalances      map[string]Monthly `json:"monthlyBalances"`
	TotalYearlyIncome    decimal.Decimal    `json:"totalYearlyIncome"`
	TotalYearlySalaries  decimal.Decimal    `json:"totalYearlySalaries"`
	TotalYearlyNetIncome decimal.Decimal    `json:"totalYearlyNetIncome"`
}

// Months returns the monthly balances in calendar order.
func (y Yearly) Months() []Monthly {
	out := make([]Monthly, 0, len(y.MonthlyBalances))
	for _, m := range y.MonthlyBalances {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

var twelve = decimal.NewFromInt(12)

func (y Yearly) MonthlyAverageIncome() decimal.Decimal {
	return y.TotalYearlyIncome.Div(twelve).Round(2)
}

func (y Yearly) MonthlyAverageSalaries() decimal.Decimal {
	return y.TotalYearlySalaries.Div(twelve).Round(2)
}

// BestMonth is the month with the highest income; the earliest wins a tie.
func (y Yearly) BestMonth() (Monthly, bool) {
	months := y.Months()
	if len(months) == 0 {
		return Monthly{}, false
	}
	best := months[0]
	for _, m := range months[1:] {
		if m.TotalIncome.GreaterThan(best.TotalIncome) {
			best = m
		}
	}
	return best, true
}

func (y Yearly) Outcome() Outcome {
	return outcomeOf(y.TotalYearlyNetIncome)
}

type requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
}

type Service interface {
	Month(ctx context.Context, year int, month time.Month) (Monthly, error)
	Year(ctx context.Context, year int) (Yearly, error)
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

func (s *service) Month(ctx context.Context, year int, month time.Month) (Monthly, error) {
	if year < 2000 || month < time.January || month > time.December {
		return Monthly{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid month").
			WithDetails(map[string]any{"year": year, "month": int(month)})
	}
	var out Monthly
	path := fmt.Sprintf("%s/%d/%d", basePath, year, int(month))
	if err := s.api.Get(ctx, path, nil, &out); err != nil {
		return Monthly{}, err
	}
	return out, nil
}

func (s *service) Year(ctx context.Context, year int) (Yearly, error) {
	if year < 2000 {
		return Yearly{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid year").
			WithDetails(map[string]any{"year": year})
	}
	var out Yearly
	if err := s.api.Get(ctx, basePath+"/year/"+strconv.Itoa(year), nil, &out); err != nil {
		return Yearly{}, err
	}
	return out, nil
}

// Step moves a month by delta months, carrying into the year.
func Step(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
