package controllers

import (
	"context"
	"net/http"

	"github.com/linarqa/linarqa-web/internal/dashboard"
	"github.com/linarqa/linarqa-web/pkg/enums"
)

type quickAction struct {
	Path string
	Key  string
}

type dashboardView struct {
	Overview dashboard.Overview
	Loaded   bool
	Actions  []quickAction
}

func quickActions(mode enums.AppMode) []quickAction {
	if mode == enums.AppModeExtraCourses {
		return []quickAction{
			{Path: "/extra-students-register", Key: "dashboard.quickActions.addNewStudent"},
			{Path: "/extra-courses", Key: "nav.extraCourses"},
			{Path: "/extra-payments", Key: "dashboard.quickActions.managePayments"},
		}
	}
	return []quickAction{
		{Path: "/enrollments", Key: "dashboard.quickActions.addNewStudent"},
		{Path: "/attendance", Key: "dashboard.quickActions.markAttendance"},
		{Path: "/payments", Key: "dashboard.quickActions.managePayments"},
	}
}

func (d *Deps) Dashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		mode := req.b.Theme.Mode()
		view := dashboardView{Actions: quickActions(mode)}

		overview, err := load(d, req, "dashboard", func(ctx context.Context) (dashboard.Overview, error) {
			return req.svc.Dashboard.Overview(ctx, mode)
		})
		if err != nil {
			if d.loadFailed(req, err, "common.error") {
				return
			}
			overview = dashboard.Overview{
				Mode:        mode,
				GreetingKey: dashboard.GreetingKey(d.now()),
				WelcomeKey:  dashboard.WelcomeKey(mode),
				Now:         d.now(),
			}
		} else {
			view.Loaded = true
		}
		view.Overview = overview
		d.render(req, "dashboard", "nav.dashboard", view)
	}
}
