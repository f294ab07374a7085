package payments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/linarqa/linarqa-web/pkg/enums"
	"github.com/linarqa/linarqa-web/pkg/types"
)

// Payment is a kindergarten tuition payment.
type Payment struct {
	ID          string              `json:"id"`
	StudentID   string              `json:"studentId,omitempty"`
	StudentName string              `json:"studentName,omitempty"`
	Amount      decimal.Decimal     `json:"amount"`
	DueDate     types.Date          `json:"dueDate"`
	PaidDate    types.Date          `json:"paidDate"`
	Status      enums.PaymentStatus `json:"status"`
	PaymentType string              `json:"paymentType"`
	Description string              `json:"description,omitempty"`
	Month       int                 `json:"month"`
	Year        int                 `json:"year"`
}

// ExtraPayment is a monthly bill for one extra-course enrollment.
type ExtraPayment struct {
	ID                string              `json:"id"`
	ExtraStudentID    string              `json:"extraStudentId"`
	StudentName       string              `json:"studentName"`
	StudentNameArabic string              `json:"studentNameArabic,omitempty"`
	StudentPhotoURL   string              `json:"studentPhotoUrl,omitempty"`
	CourseName        string              `json:"courseName"`
	CourseID          string              `json:"courseId"`
	Amount            decimal.Decimal     `json:"amount"`
	Status            enums.PaymentStatus `json:"status"`
	DueDate           types.Date          `json:"dueDate"`
	PaidDate          types.Date          `json:"paidDate"`
	Notes             string              `json:"notes,omitempty"`
	CreatedAt         types.Timestamp     `json:"createdAt"`
	UpdatedAt         types.Timestamp     `json:"updatedAt"`
}

func (p ExtraPayment) DisplayName(lang enums.Language) string {
	if lang == enums.LanguageArabic && p.StudentNameArabic != "" {
		return p.StudentNameArabic
	}
	return p.StudentName
}

// Statistics is the server-side summary of one billing month.
type Statistics struct {
	TotalPayments   int             `json:"totalPayments"`
	PaidPayments    int             `json:"paidPayments"`
	UnpaidPayments  int             `json:"unpaidPayments"`
	OverduePayments int             `json:"overduePayments"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	ExpectedAmount  decimal.Decimal `json:"expectedAmount"`
}

// CollectionRate is the paid share of the expected amount, in percent.
func (s Statistics) CollectionRate() decimal.Decimal {
	if s.ExpectedAmount.IsZero() {
		return decimal.Zero
	}
	return s.PaidAmount.Div(s.ExpectedAmount).Mul(decimal.NewFromInt(100)).Round(1)
}

// Month identifies a billing month.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth reads the YYYY-MM form of a month picker.
func ParseMonth(raw string) (Month, error) {
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return Month{}, err
	}
	return MonthOf(t), nil
}

// Key is the YYYY-MM form.
func (m Month) Key() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Number is the month of the year, 1 to 12.
func (m Month) Number() int {
	return int(m.Month)
}

func (m Month) IsZero() bool {
	return m.Year == 0
}

// ExtraFilter narrows the extra-payment list.
type ExtraFilter struct {
	Status    enums.PaymentStatus
	StudentID string
	CourseID  string
	Month     Month
}
