package controllers

import (
	"errors"
	"time"

	"github.com/linarqa/linarqa-web/api/middleware"
	"github.com/linarqa/linarqa-web/api/views"
	"github.com/linarqa/linarqa-web/internal/attendance"
	"github.com/linarqa/linarqa-web/internal/balance"
	"github.com/linarqa/linarqa-web/internal/belongings"
	"github.com/linarqa/linarqa-web/internal/courses"
	"github.com/linarqa/linarqa-web/internal/dashboard"
	"github.com/linarqa/linarqa-web/internal/extrastudents"
	"github.com/linarqa/linarqa-web/internal/fetchguard"
	"github.com/linarqa/linarqa-web/internal/media"
	"github.com/linarqa/linarqa-web/internal/notifications"
	"github.com/linarqa/linarqa-web/internal/payments"
	"github.com/linarqa/linarqa-web/internal/staff"
	"github.com/linarqa/linarqa-web/internal/students"
	"github.com/linarqa/linarqa-web/pkg/logger"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

// Services are the domain services of one request, bound to the browser's
// bearer token.
type Services struct {
	Students      students.Service
	Attendance    attendance.Service
	Belongings    belongings.Service
	Payments      payments.Service
	Balance       balance.Service
	Staff         staff.Service
	Courses       courses.Service
	ExtraStudents extrastudents.Service
	Dashboard     dashboard.Service
	Notifications notifications.Service
	Badge         *notifications.Badge
	Media         *media.Service
}

// ServiceFactory builds the services of a browser.
type ServiceFactory func(b *middleware.Browser) (*Services, error)

type ServiceConfig struct {
	Backend             storage.Backend
	Media               *media.Processor
	TrackingConcurrency int
	BadgeTTL            time.Duration
	Logger              *logger.Logger
}

// NewServiceFactory returns the production factory: every service talks to
// the school API through the browser's client.
func NewServiceFactory(cfg ServiceConfig) ServiceFactory {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return func(b *middleware.Browser) (*Services, error) {
		if b == nil || b.Auth == nil {
			return nil, errors.New("browser state missing")
		}
		api := b.Client()

		st, err := students.NewService(api)
		if err != nil {
			return nil, err
		}
		att, err := attendance.NewService(api)
		if err != nil {
			return nil, err
		}
		bel, err := belongings.NewService(api, belongings.WithConcurrency(cfg.TrackingConcurrency))
		if err != nil {
			return nil, err
		}
		pay, err := payments.NewService(api)
		if err != nil {
			return nil, err
		}
		bal, err := balance.NewService(api)
		if err != nil {
			return nil, err
		}
		stf, err := staff.NewService(api)
		if err != nil {
			return nil, err
		}
		crs, err := courses.NewService(api)
		if err != nil {
			return nil, err
		}
		extra, err := extrastudents.NewService(api)
		if err != nil {
			return nil, err
		}
		dash, err := dashboard.NewService(st, pay, att, cfg.Logger)
		if err != nil {
			return nil, err
		}
		notif, err := notifications.NewService(api)
		if err != nil {
			return nil, err
		}
		med, err := media.NewService(api, cfg.Media)
		if err != nil {
			return nil, err
		}
		return &Services{
			Students:      st,
			Attendance:    att,
			Belongings:    bel,
			Payments:      pay,
			Balance:       bal,
			Staff:         stf,
			Courses:       crs,
			ExtraStudents: extra,
			Dashboard:     dash,
			Notifications: notif,
			Badge:         notifications.NewBadge(notif, cfg.Backend, cfg.BadgeTTL, cfg.Logger),
			Media:         med,
		}, nil
	}
}

// Deps is shared by every page controller.
type Deps struct {
	Views    *views.Renderer
	Services ServiceFactory
	Guard    *fetchguard.Guard
	Media    *media.Processor
	Logger   *logger.Logger
	Now      func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) logger() *logger.Logger {
	if d.Logger == nil {
		return logger.Nop()
	}
	return d.Logger
}
