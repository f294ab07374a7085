package enums

// AppMode selects which side of the school the UI is operating.
type AppMode string

const (
	AppModeKindergarten AppMode = "kindergarten"
	AppModeExtraCourses AppMode = "extra-courses"
)

var validAppModes = []AppMode{AppModeKindergarten, AppModeExtraCourses}

// AppModes lists every mode in display order.
func AppModes() []AppMode {
	return append([]AppMode(nil), validAppModes...)
}

// String implements fmt.Stringer.
func (m AppMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known AppMode.
func (m AppMode) IsValid() bool {
	return contains(validAppModes, m)
}

// Other flips between the two modes.
func (m AppMode) Other() AppMode {
	if m == AppModeKindergarten {
		return AppModeExtraCourses
	}
	return AppModeKindergarten
}

// StudentType is the student population a mode works with.
func (m AppMode) StudentType() StudentType {
	if m == AppModeExtraCourses {
		return StudentTypeExtraCourse
	}
	return StudentTypeKindergarten
}

// ParseAppMode converts raw input into an AppMode.
func ParseAppMode(value string) (AppMode, error) {
	return parse(validAppModes, value, "app mode")
}
