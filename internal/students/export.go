package students

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/linarqa/linarqa-web/pkg/enums"
)

// Translate resolves a catalog key for the export headers and labels.
type Translate func(key string, params ...string) string

var exportColumns = []string{
	"fullName", "firstNameArabic", "lastNameArabic", "birthDate", "age", "level",
	"classroom", "guardian", "guardianArabic", "phone", "address", "addressArabic",
	"allergies", "notes", "status",
}

// ExportFilename names the CSV download for a student type and day.
func ExportFilename(studentType enums.StudentType, day time.Time) string {
	prefix := "eleves"
	if studentType == enums.StudentTypeExtraCourse {
		prefix = "etudiants"
	}
	return fmt.Sprintf("%s_%s.csv", prefix, day.Format("2006-01-02"))
}

// LevelKey is the catalog key of a level label.
func LevelKey(level enums.StudentLevel) string {
	return "levels." + strings.ToLower(string(level))
}

// StatusKey is the catalog key of a student status label.
func StatusKey(status enums.StudentStatus) string {
	if status == enums.StudentStatusActive {
		return "students.status.active"
	}
	return "students.status.left"
}

// WriteCSV writes the students as a CSV sheet with translated headers.
func WriteCSV(w io.Writer, list []Student, t Translate, now time.Time) error {
	cw := csv.NewWriter(w)
	headers := make([]string, len(exportColumns))
	for i, col := range exportColumns {
		headers[i] = t("students.export." + col)
	}
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, st := range list {
		row := []string{
			st.FirstName + " " + st.LastName,
			st.FirstNameArabic,
			st.LastNameArabic,
			st.BirthDate.Format("02/01/2006"),
			t("students.export.ageValue", strconv.Itoa(st.BirthDate.YearsSince(now))),
			t(LevelKey(st.Level)),
			st.Classroom,
			st.GuardianName,
			st.GuardianNameArabic,
			st.GuardianPhone,
			st.Address,
			st.AddressArabic,
			st.Allergies,
			st.Notes,
			t(StatusKey(st.Status)),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
