package staff

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/types"
	"github.com/linarqa/linarqa-web/pkg/validation"
)

const (
	staffPath    = "/staff"
	staffAllPath = "/staff/all"
)

// Member is one person on the payroll.
type Member struct {
	ID              string          `json:"id"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	FirstNameArabic string          `json:"firstNameArabic,omitempty"`
	LastNameArabic  string          `json:"lastNameArabic,omitempty"`
	IdentityNumber  string          `json:"identityNumber"`
	PhoneNumber     string          `json:"phoneNumber"`
	Salary          decimal.Decimal `json:"salary"`
	Type            enums.StaffType `json:"type"`
	TypeDisplayName string          `json:"typeDisplayName,omitempty"`
	Active          bool            `json:"active"`
	CreatedAt       types.Timestamp `json:"createdAt"`
	UpdatedAt       types.Timestamp `json:"updatedAt"`
}

func (m Member) DisplayName(lang enums.Language) string {
	first, last := m.FirstName, m.LastName
	if lang == enums.LanguageArabic {
		if m.FirstNameArabic != "" {
			first = m.FirstNameArabic
		}
		if m.LastNameArabic != "" {
			last = m.LastNameArabic
		}
	}
	return strings.TrimSpace(first + " " + last)
}

// Form is the create/update payload.
type Form struct {
	FirstName       string          `json:"firstName" validate:"required,max=100"`
	LastName        string          `json:"lastName" validate:"required,max=100"`
	FirstNameArabic string          `json:"firstNameArabic"`
	LastNameArabic  string          `json:"lastNameArabic"`
	IdentityNumber  string          `json:"identityNumber" validate:"required,max=20"`
	PhoneNumber     string          `json:"phoneNumber" validate:"required,phone"`
	Salary          decimal.Decimal `json:"salary"`
	Type            enums.StaffType `json:"type" validate:"required"`
	Active          bool            `json:"active"`
}

func FormFrom(m Member) Form {
	return Form{
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		FirstNameArabic: m.FirstNameArabic,
		LastNameArabic:  m.LastNameArabic,
		IdentityNumber:  m.IdentityNumber,
		PhoneNumber:     m.PhoneNumber,
		Salary:          m.Salary,
		Type:            m.Type,
		Active:          m.Active,
	}
}

// NewForm is an empty form for a new, active member.
func NewForm() Form {
	return Form{Type: enums.StaffEducatrice, Active: true}
}

func (f Form) check() (Form, error) {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.IdentityNumber = strings.TrimSpace(f.IdentityNumber)
	f.PhoneNumber = strings.TrimSpace(f.PhoneNumber)
	if err := validation.Struct(f); err != nil {
		return f, err
	}
	if !f.Type.IsValid() {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "invalid staff type").
			WithDetails(map[string]string{"type": "oneof"})
	}
	if f.Salary.IsNegative() {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "salary must not be negative").
			WithDetails(map[string]string{"salary": "gte"})
	}
	return f, nil
}

type requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type Service interface {
	List(ctx context.Context) ([]Member, error)
	Create(ctx context.Context, form Form) error
	Update(ctx context.Context, id string, form Form) error
	Delete(ctx context.Context, id string) error
}

type service struct {
	api requester
}

func NewService(api requester) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api requester required")
	}
	return &service{api: api}, nil
}

func (s *service) List(ctx context.Context) ([]Member, error) {
	var out []Member
	if err := s.api.Get(ctx, staffAllPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, form Form) error {
	form, err := form.check()
	if err != nil {
		return err
	}
	return s.api.Post(ctx, staffPath, form, nil)
}

func (s *service) Update(ctx context.Context, id string, form Form) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff id is required")
	}
	form, err := form.check()
	if err != nil {
		return err
	}
	return s.api.Put(ctx, staffPath+"/"+url.PathEscape(id), form, nil)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff id is required")
	}
	return s.api.Delete(ctx, staffPath+"/"+url.PathEscape(id), nil)
}

// Filter narrows the listed staff. Status is "active", "inactive" or empty.
type Filter struct {
	Search string
	Type   enums.StaffType
	Status string
}

// Apply keeps the members matching every set criterion. Search matches names
// in both scripts, the identity number and the phone number.
func (f Filter) Apply(list []Member) []Member {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Member, 0, len(list))
	for _, m := range list {
		if term != "" && !matches(m, term) {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		switch f.Status {
		case "active":
			if !m.Active {
				continue
			}
		case "inactive":
			if m.Active {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

func matches(m Member, term string) bool {
	for _, field := range []string{m.FirstName, m.LastName, m.FirstNameArabic, m.LastNameArabic, m.IdentityNumber, m.PhoneNumber} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Payroll sums salaries.
type Payroll struct {
	Headcount   int
	Active      int
	TotalSalary decimal.Decimal
	ByType      []TypeTotal
}

type TypeTotal struct {
	Type   enums.StaffType
	Count  int
	Salary decimal.Decimal
}

// Summarize totals all listed salaries, active or not, and splits them by
// staff type in the canonical type order.
func Summarize(list []Member) Payroll {
	p := Payroll{Headcount: len(list)}
	byType := map[enums.StaffType]*TypeTotal{}
	for _, t := range enums.StaffTypes() {
		byType[t] = &TypeTotal{Type: t}
	}
	for _, m := range list {
		if m.Active {
			p.Active++
		}
		p.TotalSalary = p.TotalSalary.Add(m.Salary)
		if tt, ok := byType[m.Type]; ok {
			tt.Count++
			tt.Salary = tt.Salary.Add(m.Salary)
		}
	}
	for _, t := range enums.StaffTypes() {
		p.ByType = append(p.ByType, *byType[t])
	}
	return p
}
