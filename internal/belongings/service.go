package belongings

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/linarqa/linarqa-web/internal/students"
	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/types"
	"github.com/linarqa/linarqa-web/pkg/validation"
)

const (
	requirementsPath = "/belongings/requirements"
	belongingsPath   = "/belongings"
	studentItemsPath = "/belongings/student/"

	defaultConcurrency = 8
)

// Requirement is an item families are asked to bring.
type Requirement struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	NameArabic     string             `json:"nameArabic,omitempty"`
	Category       string             `json:"category"`
	IsRequired     bool               `json:"isRequired"`
	QuantityNeeded int                `json:"quantityNeeded"`
	Description    string             `json:"description,omitempty"`
	Notes          string             `json:"notes,omitempty"`
	StudentType    enums.StudentType  `json:"studentType,omitempty"`
	Level          enums.StudentLevel `json:"level,omitempty"`
	IsActive       bool               `json:"isActive"`
	CreatedBy      string             `json:"createdBy,omitempty"`
	CreatedAt      types.Timestamp    `json:"createdAt"`
}

func (r Requirement) DisplayName(lang enums.Language) string {
	if lang == enums.LanguageArabic && r.NameArabic != "" {
		return r.NameArabic
	}
	return r.Name
}

// AppliesTo reports whether the requirement concerns a level. Requirements
// without a level concern every level.
func (r Requirement) AppliesTo(level enums.StudentLevel) bool {
	return level == "" || r.Level == "" || r.Level == level
}

// RequirementForm is the editable part of a requirement.
type RequirementForm struct {
	Name           string             `json:"name" validate:"required,max=120"`
	NameArabic     string             `json:"nameArabic"`
	Category       string             `json:"category" validate:"required,max=60"`
	IsRequired     bool               `json:"isRequired"`
	QuantityNeeded int                `json:"quantityNeeded" validate:"gte=0,lte=100"`
	Description    string             `json:"description"`
	Notes          string             `json:"notes"`
	StudentType    enums.StudentType  `json:"studentType,omitempty"`
	Level          enums.StudentLevel `json:"level,omitempty"`
}

type createRequirementBody struct {
	RequirementForm
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
	CreatedBy string `json:"createdBy"`
}

// StudentRef is the short student view embedded in a tracked belonging.
type StudentRef struct {
	ID              string             `json:"id"`
	FirstName       string             `json:"firstName"`
	LastName        string             `json:"lastName"`
	FirstNameArabic string             `json:"firstNameArabic,omitempty"`
	LastNameArabic  string             `json:"lastNameArabic,omitempty"`
	Level           enums.StudentLevel `json:"level"`
	PhotoURL        string             `json:"photoUrl,omitempty"`
}

func (s StudentRef) DisplayName(lang enums.Language) string {
	return students.Student{
		FirstName:       s.FirstName,
		LastName:        s.LastName,
		FirstNameArabic: s.FirstNameArabic,
		LastNameArabic:  s.LastNameArabic,
	}.DisplayName(lang)
}

// Belonging is an item a student handed over.
type Belonging struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	NameArabic   string                `json:"nameArabic,omitempty"`
	Category     string                `json:"category"`
	Quantity     int                   `json:"quantity"`
	Status       enums.BelongingStatus `json:"status"`
	CheckInDate  types.Timestamp       `json:"checkInDate"`
	CheckOutDate types.Timestamp       `json:"checkOutDate"`
	CheckedInBy  string                `json:"checkedInBy,omitempty"`
	CheckedOutBy string                `json:"checkedOutBy,omitempty"`
	Notes        string                `json:"notes,omitempty"`
	Student      StudentRef            `json:"student"`
}

type statusBody struct {
	Status enums.BelongingStatus `json:"status"`
	Notes  string                `json:"notes"`
}

type requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type Service interface {
	Requirements(ctx context.Context) ([]Requirement, error)
	CreateRequirement(ctx context.Context, form RequirementForm, createdBy string) error
	UpdateRequirement(ctx context.Context, id string, form RequirementForm) error
	DeleteRequirement(ctx context.Context, id string) error
	Tracking(ctx context.Context, studentType enums.StudentType) ([]Belonging, error)
	CheckOut(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status enums.BelongingStatus, notes string) error
}

type service struct {
	api         requester
	concurrency int
	now         func() time.Time
}

type Option func(*service)

// WithConcurrency bounds the per-student fetches of Tracking.
func WithConcurrency(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

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
	s := &service{api: api, concurrency: defaultConcurrency, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) Requirements(ctx context.Context) ([]Requirement, error) {
	var out []Requirement
	if err := s.api.Get(ctx, requirementsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRequirement adds an active requirement. A zero quantity becomes 1.
func (s *service) CreateRequirement(ctx context.Context, form RequirementForm, createdBy string) error {
	form = form.trimmed()
	if err := validation.Struct(form); err != nil {
		return err
	}
	if form.QuantityNeeded == 0 {
		form.QuantityNeeded = 1
	}
	if strings.TrimSpace(createdBy) == "" {
		createdBy = "Unknown"
	}
	body := createRequirementBody{
		RequirementForm: form,
		IsActive:        true,
		CreatedAt:       s.now().UTC().Format(time.RFC3339),
		CreatedBy:       createdBy,
	}
	return s.api.Post(ctx, requirementsPath, body, nil)
}

func (s *service) UpdateRequirement(ctx context.Context, id string, form RequirementForm) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "requirement id is required")
	}
	form = form.trimmed()
	if err := validation.Struct(form); err != nil {
		return err
	}
	return s.api.Put(ctx, requirementsPath+"/"+url.PathEscape(id), form, nil)
}

func (s *service) DeleteRequirement(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "requirement id is required")
	}
	return s.api.Delete(ctx, requirementsPath+"/"+url.PathEscape(id), nil)
}

// Tracking lists every student's belongings. One request per student, at
// most `concurrency` in flight; the first failure cancels the rest. The
// result keeps the student order of the list.
func (s *service) Tracking(ctx context.Context, studentType enums.StudentType) ([]Belonging, error) {
	q := url.Values{}
	if studentType != "" {
		q.Set("type", studentType.QueryValue())
	}
	var list []students.Student
	if err := s.api.Get(ctx, "/students", q, &list); err != nil {
		return nil, err
	}

	perStudent := make([][]Belonging, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, st := range list {
		i, id := i, st.ID
		g.Go(func() error {
			var items []Belonging
			if err := s.api.Get(gctx, studentItemsPath+url.PathEscape(id), nil, &items); err != nil {
				return err
			}
			perStudent[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Belonging
	for _, items := range perStudent {
		out = append(out, items...)
	}
	return out, nil
}

func (s *service) CheckOut(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "belonging id is required")
	}
	return s.api.Patch(ctx, belongingsPath+"/"+url.PathEscape(id)+"/check-out", nil, nil)
}

func (s *service) SetStatus(ctx context.Context, id string, status enums.BelongingStatus, notes string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "belonging id is required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid belonging status").
			WithDetails(map[string]string{"status": "oneof"})
	}
	return s.api.Patch(ctx, belongingsPath+"/"+url.PathEscape(id)+"/status", statusBody{Status: status, Notes: strings.TrimSpace(notes)}, nil)
}

func (f RequirementForm) trimmed() RequirementForm {
	f.Name = strings.TrimSpace(f.Name)
	f.NameArabic = strings.TrimSpace(f.NameArabic)
	f.Category = strings.TrimSpace(f.Category)
	return f
}

// CategoryGroup is the requirements of one category.
type CategoryGroup struct {
	Category     string
	Requirements []Requirement
}

// GroupByCategory keeps the requirements that apply to level and groups
// them by category, categories in first-seen order.
func GroupByCategory(reqs []Requirement, level enums.StudentLevel) []CategoryGroup {
	index := map[string]int{}
	var out []CategoryGroup
	for _, r := range reqs {
		if !r.AppliesTo(level) {
			continue
		}
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, CategoryGroup{Category: r.Category})
		}
		out[i].Requirements = append(out[i].Requirements, r)
	}
	return out
}

// StatusCount is how many tracked items are in one status.
type StatusCount struct {
	Status enums.BelongingStatus
	Count  int
}

func CountByStatus(items []Belonging) []StatusCount {
	counts := map[enums.BelongingStatus]int{}
	for _, it := range items {
		counts[it.Status]++
	}
	out := make([]StatusCount, 0, len(enums.BelongingStatuses()))
	for _, st := range enums.BelongingStatuses() {
		out = append(out, StatusCount{Status: st, Count: counts[st]})
	}
	return out
}

// Checklist is the printable list for one level.
type Checklist struct {
	Level    enums.StudentLevel
	Required []Requirement
	Optional []Requirement
}

// BuildChecklist picks the selected requirements, split into required and
// optional, sorted by category then name. It fails when nothing is selected.
func BuildChecklist(reqs []Requirement, selected []string, level enums.StudentLevel) (Checklist, error) {
	if len(selected) == 0 {
		return Checklist{}, pkgerrors.New(pkgerrors.CodeValidation, "no items selected")
	}
	want := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		want[id] = struct{}{}
	}
	list := Checklist{Level: level}
	for _, r := range reqs {
		if _, ok := want[r.ID]; !ok {
			continue
		}
		if r.IsRequired {
			list.Required = append(list.Required, r)
		} else {
			list.Optional = append(list.Optional, r)
		}
	}
	if len(list.Required)+len(list.Optional) == 0 {
		return Checklist{}, pkgerrors.New(pkgerrors.CodeValidation, "no items selected")
	}
	sortRequirements(list.Required)
	sortRequirements(list.Optional)
	return list, nil
}

func sortRequirements(reqs []Requirement) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if reqs[i].Category != reqs[j].Category {
			return reqs[i].Category < reqs[j].Category
		}
		return reqs[i].Name < reqs[j].Name
	})
}
