package enums

// PaymentStatus is shared by tuition and extra-course payments.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "PAID"
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentOverdue PaymentStatus = "OVERDUE"
)

var validPaymentStatuses = []PaymentStatus{PaymentPaid, PaymentUnpaid, PaymentPartial, PaymentOverdue}

func PaymentStatuses() []PaymentStatus {
	return append([]PaymentStatus(nil), validPaymentStatuses...)
}

func (p PaymentStatus) IsValid() bool {
	return contains(validPaymentStatuses, p)
}

// Outstanding reports whether money is still owed.
func (p PaymentStatus) Outstanding() bool {
	return p == PaymentUnpaid || p == PaymentPartial || p == PaymentOverdue
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return parse(validPaymentStatuses, value, "payment status")
}
