package courses

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
	coursesPath     = "/extras/courses"
	enrollmentsPath = "/extra-students/enrollments"
)

// Course is an extra course offered for a monthly price.
type Course struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	MonthlyPrice decimal.Decimal `json:"monthlyPrice"`
	Capacity     int             `json:"capacity"`
	Active       bool            `json:"active"`
	Schedule     string          `json:"schedule"`
	Instructor   string          `json:"instructor"`
	CreatedAt    types.Timestamp `json:"createdAt"`
	UpdatedAt    types.Timestamp `json:"updatedAt"`
}

// Enrollment links an extra student to a course.
type Enrollment struct {
	ID             string                 `json:"id"`
	StudentID      string                 `json:"studentId,omitempty"`
	ExtraStudentID string                 `json:"extraStudentId,omitempty"`
	StudentName    string                 `json:"studentName"`
	CourseID       string                 `json:"courseId"`
	CourseTitle    string                 `json:"courseTitle"`
	Status         enums.EnrollmentStatus `json:"status"`
	EnrollmentDate types.Date             `json:"enrollmentDate"`
	StartDate      types.Date             `json:"startDate"`
	EndDate        types.Date             `json:"endDate"`
	Notes          string                 `json:"notes,omitempty"`
}

// Form is the create/update payload of a course.
type Form struct {
	Title        string          `json:"title" validate:"required,max=120"`
	Description  string          `json:"description" validate:"max=1000"`
	MonthlyPrice decimal.Decimal `json:"monthlyPrice"`
	Capacity     int             `json:"capacity" validate:"required,gte=1,lte=500"`
	Schedule     string          `json:"schedule" validate:"max=200"`
	Instructor   string          `json:"instructor" validate:"max=120"`
	Active       bool            `json:"active"`
}

func FormFrom(c Course) Form {
	return Form{
		Title:        c.Title,
		Description:  c.Description,
		MonthlyPrice: c.MonthlyPrice,
		Capacity:     c.Capacity,
		Schedule:     c.Schedule,
		Instructor:   c.Instructor,
		Active:       c.Active,
	}
}

func (f Form) check() (Form, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Schedule = strings.TrimSpace(f.Schedule)
	f.Instructor = strings.TrimSpace(f.Instructor)
	if err := validation.Struct(f); err != nil {
		return f, err
	}
	if !f.MonthlyPrice.IsPositive() {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "monthly price must be positive").
			WithDetails(map[string]string{"monthlyPrice": "gt"})
	}
	return f, nil
}

// EnrollmentRequest enrolls an extra student in a course.
type EnrollmentRequest struct {
	ExtraStudentID string `json:"extraStudentId" validate:"required"`
	CourseID       string `json:"courseId" validate:"required"`
	Notes          string `json:"notes"`
	StartDate      string `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type Service interface {
	List(ctx context.Context) ([]Course, error)
	Create(ctx context.Context, form Form) error
	Update(ctx context.Context, id string, form Form) error
	Delete(ctx context.Context, id string) error
	Enrollments(ctx context.Context) ([]Enrollment, error)
	Enroll(ctx context.Context, req EnrollmentRequest) (Enrollment, error)
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

func (s *service) List(ctx context.Context) ([]Course, error) {
	var out []Course
	if err := s.api.Get(ctx, coursesPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, form Form) error {
	form, err := form.check()
	if err != nil {
		return err
	}
	return s.api.Post(ctx, coursesPath, form, nil)
}

func (s *service) Update(ctx context.Context, id string, form Form) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "course id is required")
	}
	form, err := form.check()
	if err != nil {
		return err
	}
	return s.api.Put(ctx, coursesPath+"/"+url.PathEscape(id), form, nil)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "course id is required")
	}
	return s.api.Delete(ctx, coursesPath+"/"+url.PathEscape(id), nil)
}

func (s *service) Enrollments(ctx context.Context) ([]Enrollment, error) {
	var out []Enrollment
	if err := s.api.Get(ctx, enrollmentsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Enroll(ctx context.Context, req EnrollmentRequest) (Enrollment, error) {
	req.ExtraStudentID = strings.TrimSpace(req.ExtraStudentID)
	req.CourseID = strings.TrimSpace(req.CourseID)
	req.Notes = strings.TrimSpace(req.Notes)
	if err := validation.Struct(req); err != nil {
		return Enrollment{}, err
	}
	var out Enrollment
	if err := s.api.Post(ctx, enrollmentsPath, req, &out); err != nil {
		return Enrollment{}, err
	}
	return out, nil
}

// Occupancy is a course together with its active enrollments.
type Occupancy struct {
	Course      Course
	Enrollments []Enrollment
	Active      int
}

// Full reports whether active enrollments reached the capacity.
func (o Occupancy) Full() bool {
	return o.Active >= o.Course.Capacity
}

// Available is an active course with room left.
func (o Occupancy) Available() bool {
	return o.Course.Active && !o.Full()
}

// Percent is the filled share of capacity, capped at 100.
func (o Occupancy) Percent() int {
	if o.Course.Capacity <= 0 {
		return 100
	}
	p := o.Active * 100 / o.Course.Capacity
	if p > 100 {
		return 100
	}
	return p
}

// Revenue is the monthly amount the active enrollments bring in.
func (o Occupancy) Revenue() decimal.Decimal {
	return o.Course.MonthlyPrice.Mul(decimal.NewFromInt(int64(o.Active)))
}

// Occupy pairs every course with its enrollments, keeping course order.
func Occupy(courses []Course, enrollments []Enrollment) []Occupancy {
	byCourse := map[string][]Enrollment{}
	for _, e := range enrollments {
		byCourse[e.CourseID] = append(byCourse[e.CourseID], e)
	}
	out := make([]Occupancy, 0, len(courses))
	for _, c := range courses {
		o := Occupancy{Course: c, Enrollments: byCourse[c.ID]}
		for _, e := range o.Enrollments {
			if e.Status == enums.EnrollmentActive {
				o.Active++
			}
		}
		out = append(out, o)
	}
	return out
}

// Status filters of the course list.
const (
	FilterAll       = "all"
	FilterActive    = "active"
	FilterFull      = "full"
	FilterAvailable = "available"
)

// Filter keeps the courses matching the search term (title, instructor or
// description) and the status filter.
func Filter(list []Occupancy, term, status string) []Occupancy {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]Occupancy, 0, len(list))
	for _, o := range list {
		if term != "" &&
			!strings.Contains(strings.ToLower(o.Course.Title), term) &&
			!strings.Contains(strings.ToLower(o.Course.Instructor), term) &&
			!strings.Contains(strings.ToLower(o.Course.Description), term) {
			continue
		}
		switch status {
		case FilterActive:
			if !o.Course.Active {
				continue
			}
		case FilterFull:
			if !o.Full() {
				continue
			}
		case FilterAvailable:
			if !o.Available() {
				continue
			}
		}
		out = append(out, o)
	}
	return out
}

// Stats summarises the course catalogue.
type Stats struct {
	Courses           int
	ActiveCourses     int
	ActiveEnrollments int
	MonthlyRevenue    decimal.Decimal
}

func Summarize(list []Occupancy) Stats {
	var s Stats
	for _, o := range list {
		s.Courses++
		if o.Course.Active {
			s.ActiveCourses++
		}
		s.ActiveEnrollments += o.Active
		s.MonthlyRevenue = s.MonthlyRevenue.Add(o.Revenue())
	}
	return s
}

// ByStatus groups enrollments per status in the canonical status order.
func ByStatus(list []Enrollment) map[enums.EnrollmentStatus][]Enrollment {
	out := make(map[enums.EnrollmentStatus][]Enrollment, len(enums.EnrollmentStatuses()))
	for _, e := range list {
		out[e.Status] = append(out[e.Status], e)
	}
	return out
}

// CheckCapacity rejects an enrollment into a full or inactive course.
func CheckCapacity(o Occupancy) error {
	if !o.Course.Active {
		return pkgerrors.New(pkgerrors.CodeConflict, "course is inactive")
	}
	if o.Full() {
		return pkgerrors.New(pkgerrors.CodeConflict, "course is full")
	}
	return nil
}
