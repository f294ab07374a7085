package enums

// EnrollmentStatus is the state of an extra-course enrollment.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentInactive  EnrollmentStatus = "INACTIVE"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentCancelled EnrollmentStatus = "CANCELLED"
)

var validEnrollmentStatuses = []EnrollmentStatus{
	EnrollmentActive,
	EnrollmentInactive,
	EnrollmentCompleted,
	EnrollmentCancelled,
}

func EnrollmentStatuses() []EnrollmentStatus {
	return append([]EnrollmentStatus(nil), validEnrollmentStatuses...)
}

func (e EnrollmentStatus) IsValid() bool {
	return contains(validEnrollmentStatuses, e)
}

func ParseEnrollmentStatus(value string) (EnrollmentStatus, error) {
	return parse(validEnrollmentStatuses, value, "enrollment status")
}
