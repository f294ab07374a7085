package students

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/types"
	"github.com/linarqa/linarqa-web/pkg/validation"
)

const (
	studentsPath   = "/students"
	classroomsPath = "/classrooms"
)

type requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type Service interface {
	List(ctx context.Context, filter Filter) ([]Student, error)
	Create(ctx context.Context, studentType enums.StudentType, form Form) (Student, error)
	Update(ctx context.Context, id string, form Form) (Student, error)
	Delete(ctx context.Context, id string) error
	Classrooms(ctx context.Context, studentType enums.StudentType) ([]Classroom, error)
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

func (s *service) List(ctx context.Context, filter Filter) ([]Student, error) {
	q := url.Values{}
	if filter.Type != "" {
		q.Set("type", filter.Type.QueryValue())
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		q.Set("search", search)
	}
	if filter.Level != "" {
		q.Set("level", string(filter.Level))
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	var out []Student
	if err := s.api.Get(ctx, studentsPath, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, studentType enums.StudentType, form Form) (Student, error) {
	if !studentType.IsValid() {
		return Student{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown student type")
	}
	form = form.trimmed()
	if err := s.check(studentType, form); err != nil {
		return Student{}, err
	}
	var out Student
	if err := s.api.Post(ctx, studentsPath, createBody{Form: form, StudentType: studentType}, &out); err != nil {
		return Student{}, err
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id string, form Form) (Student, error) {
	if strings.TrimSpace(id) == "" {
		return Student{}, pkgerrors.New(pkgerrors.CodeValidation, "student id is required")
	}
	form = form.trimmed()
	if err := validation.Struct(form); err != nil {
		return Student{}, err
	}
	var out Student
	if err := s.api.Put(ctx, studentsPath+"/"+url.PathEscape(id), form, &out); err != nil {
		return Student{}, err
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "student id is required")
	}
	return s.api.Delete(ctx, studentsPath+"/"+url.PathEscape(id), nil)
}

func (s *service) Classrooms(ctx context.Context, studentType enums.StudentType) ([]Classroom, error) {
	q := url.Values{}
	if studentType != "" {
		q.Set("type", studentType.QueryValue())
	}
	var out []Classroom
	if err := s.api.Get(ctx, classroomsPath, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// check applies the registration rules: required fields, phone format, a
// level offered to the student type and an age that fits the level.
func (s *service) check(studentType enums.StudentType, form Form) error {
	if err := validation.Struct(form); err != nil {
		return err
	}
	if !levelOffered(studentType, form.Level) {
		return pkgerrors.New(pkgerrors.CodeValidation, "level not offered").
			WithDetails(map[string]string{"level": "oneof"})
	}
	born, err := types.ParseDate(form.BirthDate)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid birth date").
			WithDetails(map[string]string{"birthDate": "datetime"})
	}
	return CheckAge(studentType, form.Level, born, s.now())
}

func levelOffered(studentType enums.StudentType, level enums.StudentLevel) bool {
	for _, l := range enums.LevelsFor(studentType) {
		if l == level {
			return true
		}
	}
	return false
}

// AgeRange is an inclusive bound on a student's age in years.
type AgeRange struct {
	Min int
	Max int
}

var kindergartenAges = AgeRange{Min: 2, Max: 6}

var levelAges = map[enums.StudentLevel]AgeRange{
	enums.LevelCP1:         {5, 7},
	enums.LevelCP2:         {6, 8},
	enums.LevelCP3:         {7, 9},
	enums.LevelCP4:         {8, 10},
	enums.LevelCP5:         {9, 11},
	enums.LevelCP6:         {10, 12},
	enums.LevelAC1:         {11, 13},
	enums.LevelAC2:         {12, 14},
	enums.LevelAC3:         {13, 15},
	enums.LevelTroncCommun: {14, 16},
	enums.LevelBac1:        {15, 17},
	enums.LevelBac2:        {16, 19},
}

// AgeRangeFor returns the accepted ages for a level.
func AgeRangeFor(studentType enums.StudentType, level enums.StudentLevel) (AgeRange, bool) {
	if studentType == enums.StudentTypeKindergarten {
		return kindergartenAges, true
	}
	r, ok := levelAges[level]
	return r, ok
}

// CheckAge rejects a birth date outside the level's age range. Details carry
// the range so the message can name it.
func CheckAge(studentType enums.StudentType, level enums.StudentLevel, born types.Date, now time.Time) error {
	r, ok := AgeRangeFor(studentType, level)
	if !ok {
		return nil
	}
	age := born.YearsSince(now)
	if age < r.Min || age > r.Max {
		return pkgerrors.New(pkgerrors.CodeValidation, "age outside level range").
			WithDetails(map[string]any{"field": "birthDate", "min": r.Min, "max": r.Max, "age": age})
	}
	return nil
}

// LevelCount is one level and how many listed students are in it.
type LevelCount struct {
	Level enums.StudentLevel
	Count int
}

// CountByLevel counts students per level in the type's level order. Levels
// with no student are kept with a zero count.
func CountByLevel(studentType enums.StudentType, list []Student) []LevelCount {
	counts := make(map[enums.StudentLevel]int, len(list))
	for _, st := range list {
		counts[st.Level]++
	}
	levels := enums.LevelsFor(studentType)
	out := make([]LevelCount, 0, len(levels))
	for _, l := range levels {
		out = append(out, LevelCount{Level: l, Count: counts[l]})
	}
	return out
}

// InClassroom keeps the students of one classroom; an empty name keeps all.
func InClassroom(list []Student, classroom string) []Student {
	if classroom == "" {
		return list
	}
	out := make([]Student, 0, len(list))
	for _, st := range list {
		if st.Classroom == classroom {
			out = append(out, st)
		}
	}
	return out
}

// CountActive counts students whose status is ACTIVE.
func CountActive(list []Student) int {
	n := 0
	for _, st := range list {
		if st.Active() {
			n++
		}
	}
	return n
}

// RecentlyCreated returns the students created within window of now, newest
// first.
func RecentlyCreated(list []Student, now time.Time, window time.Duration) []Student {
	cutoff := now.Add(-window)
	out := make([]Student, 0)
	for _, st := range list {
		if !st.CreatedAt.IsZero() && st.CreatedAt.After(cutoff) {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	return out
}

// FormatPhone groups the digits of a typed number as 3-3-4, dropping
// anything else, the way the registration form formats it as typed.
func FormatPhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + "-" + d[3:]
	default:
		end := len(d)
		if end > 10 {
			end = 10
		}
		return d[:3] + "-" + d[3:6] + "-" + d[6:end]
	}
}
