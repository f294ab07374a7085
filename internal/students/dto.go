package students

import (
	"strings"

	"github.com/linarqa/linarqa-web/pkg/enums"
	"github.com/linarqa/linarqa-web/pkg/types"
)

// Student is a kindergarten pupil or an extra-course student as the school
// API returns it.
type Student struct {
	ID                 string              `json:"id"`
	FirstName          string              `json:"firstName"`
	LastName           string              `json:"lastName"`
	FirstNameArabic    string              `json:"firstNameArabic,omitempty"`
	LastNameArabic     string              `json:"lastNameArabic,omitempty"`
	BirthDate          types.Date          `json:"birthDate"`
	Level              enums.StudentLevel  `json:"level"`
	Classroom          string              `json:"classroom,omitempty"`
	GuardianName       string              `json:"guardianName"`
	GuardianNameArabic string              `json:"guardianNameArabic,omitempty"`
	GuardianPhone      string              `json:"guardianPhone"`
	Address            string              `json:"address,omitempty"`
	AddressArabic      string              `json:"addressArabic,omitempty"`
	Allergies          string              `json:"allergies,omitempty"`
	Notes              string              `json:"notes,omitempty"`
	Status             enums.StudentStatus `json:"status"`
	PhotoURL           string              `json:"photoUrl,omitempty"`
	StudentType        enums.StudentType   `json:"studentType"`
	CreatedAt          types.Timestamp     `json:"createdAt"`
	UpdatedAt          types.Timestamp     `json:"updatedAt"`
}

// DisplayName prefers the Arabic spelling in Arabic, field by field.
func (s Student) DisplayName(lang enums.Language) string {
	return displayName(lang, s.FirstName, s.LastName, s.FirstNameArabic, s.LastNameArabic)
}

func (s Student) GuardianDisplayName(lang enums.Language) string {
	if lang == enums.LanguageArabic && s.GuardianNameArabic != "" {
		return s.GuardianNameArabic
	}
	return s.GuardianName
}

func (s Student) Active() bool {
	return s.Status == enums.StudentStatusActive
}

func displayName(lang enums.Language, first, last, firstAr, lastAr string) string {
	if lang == enums.LanguageArabic {
		if firstAr != "" {
			first = firstAr
		}
		if lastAr != "" {
			last = lastAr
		}
	}
	return strings.TrimSpace(first + " " + last)
}

// Form is the editable part of a student, used for both create and update.
type Form struct {
	FirstName          string             `json:"firstName" validate:"required,max=100"`
	LastName           string             `json:"lastName" validate:"required,max=100"`
	FirstNameArabic    string             `json:"firstNameArabic" validate:"max=100"`
	LastNameArabic     string             `json:"lastNameArabic" validate:"max=100"`
	BirthDate          string             `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Level              enums.StudentLevel `json:"level" validate:"required"`
	Classroom          string             `json:"classroom"`
	GuardianName       string             `json:"guardianName" validate:"required,max=150"`
	GuardianNameArabic string             `json:"guardianNameArabic"`
	GuardianPhone      string             `json:"guardianPhone" validate:"required,phone"`
	Address            string             `json:"address"`
	AddressArabic      string             `json:"addressArabic"`
	Allergies          string             `json:"allergies"`
	Notes              string             `json:"notes"`
	PhotoURL           string             `json:"photoUrl,omitempty" validate:"omitempty,url"`
}

// FormFrom prefills a form from an existing student.
func FormFrom(s Student) Form {
	return Form{
		FirstName:          s.FirstName,
		LastName:           s.LastName,
		FirstNameArabic:    s.FirstNameArabic,
		LastNameArabic:     s.LastNameArabic,
		BirthDate:          s.BirthDate.String(),
		Level:              s.Level,
		Classroom:          s.Classroom,
		GuardianName:       s.GuardianName,
		GuardianNameArabic: s.GuardianNameArabic,
		GuardianPhone:      s.GuardianPhone,
		Address:            s.Address,
		AddressArabic:      s.AddressArabic,
		Allergies:          s.Allergies,
		Notes:              s.Notes,
		PhotoURL:           s.PhotoURL,
	}
}

func (f Form) trimmed() Form {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.FirstNameArabic = strings.TrimSpace(f.FirstNameArabic)
	f.LastNameArabic = strings.TrimSpace(f.LastNameArabic)
	f.BirthDate = strings.TrimSpace(f.BirthDate)
	f.Classroom = strings.TrimSpace(f.Classroom)
	f.GuardianName = strings.TrimSpace(f.GuardianName)
	f.GuardianNameArabic = strings.TrimSpace(f.GuardianNameArabic)
	f.GuardianPhone = strings.TrimSpace(f.GuardianPhone)
	f.PhotoURL = strings.TrimSpace(f.PhotoURL)
	return f
}

// FullName is the Latin-script name used in toasts.
func (f Form) FullName() string {
	return strings.TrimSpace(f.FirstName + " " + f.LastName)
}

type createBody struct {
	Form
	StudentType enums.StudentType `json:"studentType"`
}

// Filter narrows the student list. Type is sent upstream; the others are
// sent when non-empty.
type Filter struct {
	Type   enums.StudentType
	Search string
	Level  enums.StudentLevel
	Status enums.StudentStatus
}

// Classroom is a class group of one student type.
type Classroom struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	NameArabic        string             `json:"nameArabic,omitempty"`
	Level             enums.StudentLevel `json:"level"`
	StudentType       enums.StudentType  `json:"studentType"`
	MaxCapacity       int                `json:"maxCapacity"`
	CurrentEnrollment int                `json:"currentEnrollment"`
	Description       string             `json:"description,omitempty"`
	IsActive          bool               `json:"isActive"`
}

func (c Classroom) DisplayName(lang enums.Language) string {
	if lang == enums.LanguageArabic && c.NameArabic != "" {
		return c.NameArabic
	}
	return c.Name
}

// Full reports whether the classroom reached its capacity.
func (c Classroom) Full() bool {
	return c.MaxCapacity > 0 && c.CurrentEnrollment >= c.MaxCapacity
}
