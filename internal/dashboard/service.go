package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/linarqa/linarqa-web/internal/attendance"
	"github.com/linarqa/linarqa-web/internal/payments"
	"github.com/linarqa/linarqa-web/internal/students"
	"github.com/linarqa/linarqa-web/pkg/enums"
	"github.com/linarqa/linarqa-web/pkg/logger"
	"github.com/linarqa/linarqa-web/pkg/types"
)

// RecentWindow is how far back a registration counts as recent.
const RecentWindow = 7 * 24 * time.Hour

// Stats are the headline numbers of the dashboard.
type Stats struct {
	TotalStudents     int
	ActiveStudents    int
	PresentToday      int
	PendingPayments   int
	RecentEnrollments int
}

// AttendanceRate is the share of active students marked present today.
func (s Stats) AttendanceRate() int {
	if s.ActiveStudents == 0 {
		return 0
	}
	return s.PresentToday * 100 / s.ActiveStudents
}

// Overview is everything the dashboard page renders.
type Overview struct {
	Mode        enums.AppMode
	Stats       Stats
	Recent      []students.Student
	GreetingKey string
	WelcomeKey  string
	Now         time.Time
}

type Service interface {
	Overview(ctx context.Context, mode enums.AppMode) (Overview, error)
}

type service struct {
	students   students.Service
	payments   payments.Service
	attendance attendance.Service
	logg       *logger.Logger
	now        func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(st students.Service, pay payments.Service, att attendance.Service, logg *logger.Logger, opts ...Option) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("students service required")
	}
	if pay == nil {
		return nil, fmt.Errorf("payments service required")
	}
	if att == nil {
		return nil, fmt.Errorf("attendance service required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	s := &service{students: st, payments: pay, attendance: att, logg: logg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Overview loads students, payments and today's attendance in parallel. A
// failing attendance call only zeroes the present count.
func (s *service) Overview(ctx context.Context, mode enums.AppMode) (Overview, error) {
	now := s.now()
	studentType := mode.StudentType()

	var (
		list    []students.Student
		pays    []payments.Payment
		records []attendance.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.students.List(gctx, students.Filter{Type: studentType})
		return err
	})
	g.Go(func() error {
		var err error
		pays, err = s.payments.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.attendance.ForDay(gctx, studentType, types.DateOf(now))
		if err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"error": err.Error()}), "dashboard attendance unavailable")
			records = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	recent := students.RecentlyCreated(list, now, RecentWindow)
	return Overview{
		Mode: mode,
		Stats: Stats{
			TotalStudents:     len(list),
			ActiveStudents:    students.CountActive(list),
			PresentToday:      attendance.PresentCount(records),
			PendingPayments:   countUnpaid(pays),
			RecentEnrollments: len(recent),
		},
		Recent:      recent,
		GreetingKey: GreetingKey(now),
		WelcomeKey:  WelcomeKey(mode),
		Now:         now,
	}, nil
}

func countUnpaid(list []payments.Payment) int {
	n := 0
	for _, p := range list {
		if p.Status == enums.PaymentUnpaid {
			n++
		}
	}
	return n
}

// GreetingKey picks the greeting for the hour of t.
func GreetingKey(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "dashboard.greeting.morning"
	case h < 18:
		return "dashboard.greeting.afternoon"
	default:
		return "dashboard.greeting.evening"
	}
}

func WelcomeKey(mode enums.AppMode) string {
	if mode == enums.AppModeKindergarten {
		return "dashboard.welcomeMessage.kindergarten"
	}
	return "dashboard.welcomeMessage.school"
}
