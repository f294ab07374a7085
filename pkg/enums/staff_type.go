package enums

import "fmt"

// StaffType maps to the staff roles kept on payroll.
type StaffType string

const (
	StaffAssistant      StaffType = "ASSISTANT"
	StaffEducatrice     StaffType = "EDUCATRICE"
	StaffAideEducatrice StaffType = "AIDE_EDUCATRICE"
)

var validStaffTypes = []StaffType{StaffAssistant, StaffEducatrice, StaffAideEducatrice}

func StaffTypes() []StaffType {
	return append([]StaffType(nil), validStaffTypes...)
}

func (s StaffType) IsValid() bool {
	return contains(validStaffTypes, s)
}

func ParseStaffType(value string) (StaffType, error) {
	if value == "" {
		return "", fmt.Errorf("staff type is required")
	}
	return parse(validStaffTypes, value, "staff type")
}
