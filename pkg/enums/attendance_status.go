package enums

// AttendanceStatus is the mark recorded for one student on one day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceExcused AttendanceStatus = "EXCUSED"
	AttendanceSick    AttendanceStatus = "SICK"
)

var validAttendanceStatuses = []AttendanceStatus{
	AttendancePresent,
	AttendanceAbsent,
	AttendanceLate,
	AttendanceExcused,
	AttendanceSick,
}

func AttendanceStatuses() []AttendanceStatus {
	return append([]AttendanceStatus(nil), validAttendanceStatuses...)
}

func (a AttendanceStatus) IsValid() bool {
	return contains(validAttendanceStatuses, a)
}

// OnSite reports whether the student physically came in, which is when a
// check-in time is recorded.
func (a AttendanceStatus) OnSite() bool {
	return a == AttendancePresent || a == AttendanceLate
}

func ParseAttendanceStatus(value string) (AttendanceStatus, error) {
	return parse(validAttendanceStatuses, value, "attendance status")
}
