package enums

// BelongingStatus tracks an item a family handed over to the staff.
type BelongingStatus string

const (
	BelongingInStaff  BelongingStatus = "IN_STAFF"
	BelongingReturned BelongingStatus = "RETURNED"
	BelongingLost     BelongingStatus = "LOST"
	BelongingDamaged  BelongingStatus = "DAMAGED"
	BelongingExpired  BelongingStatus = "EXPIRED"
)

var validBelongingStatuses = []BelongingStatus{
	BelongingInStaff,
	BelongingReturned,
	BelongingLost,
	BelongingDamaged,
	BelongingExpired,
}

func BelongingStatuses() []BelongingStatus {
	return append([]BelongingStatus(nil), validBelongingStatuses...)
}

func (b BelongingStatus) IsValid() bool {
	return contains(validBelongingStatuses, b)
}

func ParseBelongingStatus(value string) (BelongingStatus, error) {
	return parse(validBelongingStatuses, value, "belonging status")
}
