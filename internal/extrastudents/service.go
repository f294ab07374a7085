package extrastudents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/types"
	"github.com/linarqa/linarqa-web/pkg/validation"
)

const extraStudentsPath = "/extra-students"

// Student is a child attending extra courses only.
type Student struct {
	ID                    string              `json:"id"`
	FirstName             string              `json:"firstName"`
	LastName              string              `json:"lastName"`
	FirstNameArabic       string              `json:"firstNameArabic,omitempty"`
	LastNameArabic        string              `json:"lastNameArabic,omitempty"`
	BirthDate             types.Date          `json:"birthDate"`
	PhotoURL              string              `json:"photoUrl,omitempty"`
	ResponsibleName       string              `json:"responsibleName"`
	ResponsibleNameArabic string              `json:"responsibleNameArabic,omitempty"`
	ResponsiblePhone      string              `json:"responsiblePhone"`
	Status                enums.StudentStatus `json:"status"`
	CreatedAt             types.Timestamp     `json:"createdAt"`
	UpdatedAt             types.Timestamp     `json:"updatedAt"`
}

func (s Student) DisplayName(lang enums.Language) string {
	first, last := s.FirstName, s.LastName
	if lang == enums.LanguageArabic {
		if s.FirstNameArabic != "" {
			first = s.FirstNameArabic
		}
		if s.LastNameArabic != "" {
			last = s.LastNameArabic
		}
	}
	return strings.TrimSpace(first + " " + last)
}

// Matches reports whether term hits either full name or one of its parts.
func (s Student) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{
		s.FirstName + " " + s.LastName,
		s.FirstNameArabic + " " + s.LastNameArabic,
		s.ResponsibleName,
	} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return strings.Contains(s.ResponsiblePhone, term)
}

// Form is the registration and edit payload.
type Form struct {
	FirstName             string              `json:"firstName" validate:"required,max=100"`
	LastName              string              `json:"lastName" validate:"required,max=100"`
	FirstNameArabic       string              `json:"firstNameArabic,omitempty"`
	LastNameArabic        string              `json:"lastNameArabic,omitempty"`
	BirthDate             string              `json:"birthDate" validate:"required,datetime=2006-01-02"`
	ResponsibleName       string              `json:"responsibleName" validate:"required,max=120"`
	ResponsibleNameArabic string              `json:"responsibleNameArabic,omitempty"`
	ResponsiblePhone      string              `json:"responsiblePhone" validate:"required,phone"`
	Status                enums.StudentStatus `json:"status"`
	PhotoURL              string              `json:"photoUrl,omitempty" validate:"omitempty,url"`
}

func FormFrom(s Student) Form {
	return Form{
		FirstName:             s.FirstName,
		LastName:              s.LastName,
		FirstNameArabic:       s.FirstNameArabic,
		LastNameArabic:        s.LastNameArabic,
		BirthDate:             s.BirthDate.String(),
		ResponsibleName:       s.ResponsibleName,
		ResponsibleNameArabic: s.ResponsibleNameArabic,
		ResponsiblePhone:      s.ResponsiblePhone,
		Status:                s.Status,
		PhotoURL:              s.PhotoURL,
	}
}

func (f Form) FullName() string {
	return strings.TrimSpace(f.FirstName + " " + f.LastName)
}

func (f Form) trimmed() Form {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.FirstNameArabic = strings.TrimSpace(f.FirstNameArabic)
	f.LastNameArabic = strings.TrimSpace(f.LastNameArabic)
	f.BirthDate = strings.TrimSpace(f.BirthDate)
	f.ResponsibleName = strings.TrimSpace(f.ResponsibleName)
	f.ResponsibleNameArabic = strings.TrimSpace(f.ResponsibleNameArabic)
	f.ResponsiblePhone = strings.TrimSpace(f.ResponsiblePhone)
	if f.Status == "" {
		f.Status = enums.StudentStatusActive
	}
	return f
}

type requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type Service interface {
	List(ctx context.Context) ([]Student, error)
	Register(ctx context.Context, form Form) error
	Update(ctx context.Context, id string, form Form) error
	Delete(ctx context.Context, id string) error
	SetPhoto(ctx context.Context, id, photoURL string) error
}

type service struct {
	api requester
	now func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(api requester, opts ...Option) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api requester required")
	}
	s := &service{api: api, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type page struct {
	Content []Student `json:"content"`
}

// List accepts both the paginated envelope and a bare array.
func (s *service) List(ctx context.Context) ([]Student, error) {
	var raw json.RawMessage
	if err := s.api.Get(ctx, extraStudentsPath, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList(raw)
}

func decodeList(raw json.RawMessage) ([]Student, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Student{}, nil
	}
	switch trimmed[0] {
	case '[':
		var out []Student
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode extra students")
		}
		return out, nil
	case '{':
		var p page
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode extra students page")
		}
		if p.Content == nil {
			return []Student{}, nil
		}
		return p.Content, nil
	}
	return []Student{}, nil
}

func (s *service) check(form Form) (Form, error) {
	form = form.trimmed()
	if err := validation.Struct(form); err != nil {
		return form, err
	}
	if !form.Status.IsValid() {
		return form, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]string{"status": "oneof"})
	}
	birth, err := types.ParseDate(form.BirthDate)
	if err != nil {
		return form, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid birth date").
			WithDetails(map[string]string{"birthDate": "datetime"})
	}
	if !birth.Before(types.DateOf(s.now()).Time) {
		return form, pkgerrors.New(pkgerrors.CodeValidation, "birth date must be in the past").
			WithDetails(map[string]string{"birthDate": "past"})
	}
	return form, nil
}

func (s *service) Register(ctx context.Context, form Form) error {
	form, err := s.check(form)
	if err != nil {
		return err
	}
	return s.api.Post(ctx, extraStudentsPath, form, nil)
}

func (s *service) Update(ctx context.Context, id string, form Form) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "student id is required")
	}
	form, err := s.check(form)
	if err != nil {
		return err
	}
	return s.api.Put(ctx, extraStudentsPath+"/"+url.PathEscape(id), form, nil)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "student id is required")
	}
	return s.api.Delete(ctx, extraStudentsPath+"/"+url.PathEscape(id), nil)
}

func (s *service) SetPhoto(ctx context.Context, id, photoURL string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "student id is required")
	}
	body := map[string]string{"photoUrl": photoURL}
	return s.api.Patch(ctx, extraStudentsPath+"/"+url.PathEscape(id)+"/photo", body, nil)
}

// Filter keeps students matching the search term and, when set, the status.
func Filter(list []Student, term string, status enums.StudentStatus) []Student {
	out := make([]Student, 0, len(list))
	for _, st := range list {
		if status != "" && st.Status != status {
			continue
		}
		if !st.Matches(term) {
			continue
		}
		out = append(out, st)
	}
	return out
}

// Counts is the header summary of the extra students page.
type Counts struct {
	Total    int
	Active   int
	Inactive int
}

func Count(list []Student) Counts {
	c := Counts{Total: len(list)}
	for _, st := range list {
		switch st.Status {
		case enums.StudentStatusActive:
			c.Active++
		case enums.StudentStatusInactive:
			c.Inactive++
		}
	}
	return c
}
