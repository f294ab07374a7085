package views

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/linarqa/linarqa-web/internal/students"
	"github.com/linarqa/linarqa-web/pkg/enums"
)

var funcs = template.FuncMap{
	"levelKey":           students.LevelKey,
	"studentStatusKey":   students.StatusKey,
	"attendanceKey":      enumKey("attendance.status."),
	"belongingKey":       enumKey("belongings.status."),
	"paymentKey":         enumKey("payments.status."),
	"enrollmentKey":      enumKey("enrollments.status."),
	"staffTypeKey":       enumKey("personnel.types."),
	"notificationKey":    enumKey("notifications.types."),
	"levels":             enums.LevelsFor,
	"attendanceStatuses": enums.AttendanceStatuses,
	"belongingStatuses":  enums.BelongingStatuses,
	"staffTypes":         enums.StaffTypes,
	"studentStatuses":    enums.StudentStatuses,
	"paymentStatuses":    enums.PaymentStatuses,
	"enrollmentStatuses": enums.EnrollmentStatuses,
	"appModes":           enums.AppModes,
	"modeKey":            modeKey,
	"itoa":               func(n int) string { return fmt.Sprint(n) },
	"add":                func(a, b int) int { return a + b },
	"dict":               dict,
	"isHex":              isHex,
	"swatch":             swatch,
}

// enumKey maps an upper-case enum value onto its catalog key.
func enumKey(prefix string) func(v any) string {
	return func(v any) string {
		return prefix + strings.ToLower(fmt.Sprint(v))
	}
}

func modeKey(m enums.AppMode) string {
	if m == enums.AppModeExtraCourses {
		return "mode.academy"
	}
	return "mode.kids"
}

// dict builds the argument map of a partial: {{template "x" dict "A" 1 "B" 2}}.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict needs key/value pairs")
	}
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		out[key] = pairs[i+1]
	}
	return out, nil
}

// isHex reports whether v is a #rrggbb colour, the only form a colour input
// accepts.
func isHex(v string) bool {
	if len(v) != 7 || v[0] != '#' {
		return false
	}
	for _, c := range v[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

// swatch is the inline background of a colour chip. Only #rrggbb values
// reach the style attribute.
func swatch(v string) template.CSS {
	if !isHex(v) {
		return "background: transparent"
	}
	return template.CSS("background: " + v)
}
