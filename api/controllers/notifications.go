package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/internal/notifications"
	"github.com/linarqa/linarqa-web/pkg/enums"
	"github.com/linarqa/linarqa-web/pkg/pagination"
)

const (
	notificationScopeMine  = "mine"
	notificationScopeAdmin = "admin"
)

type notificationsView struct {
	Scope  string
	Page   notifications.Page
	Unread int
}

// Notifications pages through the user's notifications. Owners may switch to
// the admin feed with scope=admin.
func (d *Deps) Notifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		page, err := validators.QueryInt(r, "page", 0, 0, 10000)
		if err != nil {
			d.actionFailed(req, err, "notifications.loadError", "/notifications")
			return
		}
		params := pagination.Params{Page: page, Size: pagination.DefaultSize}
		view := notificationsView{Scope: notificationScopeMine}
		admin := validators.QueryString(r, "scope", 10) == notificationScopeAdmin &&
			req.b.Auth.User().HasRole(enums.RoleOwner)
		if admin {
			view.Scope = notificationScopeAdmin
		}

		data, err := load(d, req, "notifications", func(ctx context.Context) (notificationsView, error) {
			out := view
			var err error
			if admin {
				out.Page, err = req.svc.Notifications.AdminList(ctx, params)
				if err != nil {
					return out, err
				}
				out.Unread, err = req.svc.Notifications.AdminUnreadCount(ctx)
				return out, err
			}
			out.Page, err = req.svc.Notifications.List(ctx, params)
			if err != nil {
				return out, err
			}
			out.Unread, err = req.svc.Badge.Count(ctx, req.b.SessionID)
			return out, err
		})
		if err != nil && d.loadFailed(req, err, "notifications.loadError") {
			return
		}
		if err == nil {
			view = data
		}
		d.render(req, "notifications", "notifications.title", view)
	}
}

func (d *Deps) MarkNotificationRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		to := back(r, "/notifications")
		if err := req.svc.Badge.MarkRead(req.ctx, req.b.SessionID, chi.URLParam(r, "id")); err != nil {
			d.actionFailed(req, err, "notifications.loadError", to)
			return
		}
		redirect(req, to)
	}
}

func (d *Deps) MarkAllNotificationsRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		to := back(r, "/notifications")
		if err := req.svc.Badge.MarkAllRead(req.ctx, req.b.SessionID); err != nil {
			d.actionFailed(req, err, "notifications.loadError", to)
			return
		}
		d.success(req, "notifications.markAllRead")
		redirect(req, to)
	}
}

type unreadCount struct {
	Count int `json:"count"`
}

// UnreadCount serves the cached badge count for polling.
func (d *Deps) UnreadCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		count, err := req.svc.Badge.Count(req.ctx, req.b.SessionID)
		if err != nil {
			writeJSONError(d, w, r, err)
			return
		}
		writeJSON(w, unreadCount{Count: count})
	}
}
