package views

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/linarqa/linarqa-web/internal/auth"
	"github.com/linarqa/linarqa-web/internal/i18n"
	"github.com/linarqa/linarqa-web/internal/theme"
	"github.com/linarqa/linarqa-web/internal/toast"
	"github.com/linarqa/linarqa-web/pkg/enums"
)

// Page is what every template receives. Data carries the page's own view
// model; everything else is the layout's.
type Page struct {
	Name   string
	Title  string
	Path   string
	Bare   bool
	Lang   *i18n.Store
	Doc    *theme.Document
	Mode   enums.AppMode
	User   *auth.User
	Toasts []toast.Toast
	Unread int
	Data   any
}

type NavItem struct {
	Path   string
	Key    string
	Active bool
}

type navEntry struct {
	path  string
	key   string
	roles []enums.Role
}

var kindergartenNav = []navEntry{
	{path: "/dashboard", key: "nav.dashboard"},
	{path: "/students", key: "nav.students"},
	{path: "/attendance", key: "nav.attendance"},
	{path: "/belongings", key: "nav.belongings"},
	{path: "/payments", key: "nav.payments"},
	{path: "/enrollments", key: "nav.enrollments"},
	{path: "/personnel", key: "nav.personnel"},
	{path: "/monthly-balance", key: "nav.monthlyBalance"},
	{path: "/notifications", key: "nav.notifications"},
	{path: "/staff", key: "nav.staff", roles: []enums.Role{enums.RoleOwner}},
	{path: "/audit", key: "nav.audit", roles: []enums.Role{enums.RoleOwner}},
	{path: "/logs", key: "nav.logs", roles: []enums.Role{enums.RoleOwner}},
	{path: "/settings", key: "nav.settings"},
}

var extraCoursesNav = []navEntry{
	{path: "/dashboard", key: "nav.dashboard"},
	{path: "/extra-students", key: "nav.extraStudents"},
	{path: "/extra-payments", key: "nav.extraPayments"},
	{path: "/extra-courses", key: "nav.extraCourses"},
	{path: "/extra-students-register", key: "nav.enrollments"},
	{path: "/personnel", key: "nav.personnel"},
	{path: "/monthly-balance", key: "nav.monthlyBalance"},
	{path: "/notifications", key: "nav.notifications"},
	{path: "/staff", key: "nav.staff", roles: []enums.Role{enums.RoleOwner}},
	{path: "/audit", key: "nav.audit", roles: []enums.Role{enums.RoleOwner}},
	{path: "/logs", key: "nav.logs", roles: []enums.Role{enums.RoleOwner}},
	{path: "/settings", key: "nav.settings"},
}

// Nav lists the sidebar entries of the current mode the user may open.
func (p *Page) Nav() []NavItem {
	entries := kindergartenNav
	if p.Mode == enums.AppModeExtraCourses {
		entries = extraCoursesNav
	}
	out := make([]NavItem, 0, len(entries))
	for _, e := range entries {
		if len(e.roles) > 0 && !p.User.HasRole(e.roles...) {
			continue
		}
		out = append(out, NavItem{Path: e.path, Key: e.key, Active: e.path == p.Path})
	}
	return out
}

func (p *Page) Language() enums.Language {
	if p.Lang == nil {
		return enums.DefaultLanguage
	}
	return p.Lang.Current()
}

func (p *Page) T(key string, params ...string) string {
	if p.Lang == nil {
		return key
	}
	return p.Lang.T(key, params...)
}

// Text translates s when it is a catalog key and returns it unchanged
// otherwise. Toasts and upstream messages go through it.
func (p *Page) Text(s string, params ...string) string {
	if s == "" || p.Lang == nil || !p.Lang.Has(s) {
		return s
	}
	args := make([]string, len(params))
	for i, param := range params {
		args[i] = p.Text(param)
	}
	return p.Lang.T(s, args...)
}

func (p *Page) ToastTitle(t toast.Toast) string {
	return p.Text(t.Title, t.Params...)
}

func (p *Page) ToastDescription(t toast.Toast) string {
	return p.Text(t.Description, t.Params...)
}

func (p *Page) Money(amount decimal.Decimal) string {
	if p.Lang == nil {
		return amount.StringFixed(2)
	}
	return p.Lang.FmtCurrency(amount)
}

// Date formats a day; the zero time renders as a dash.
func (p *Page) Date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	if p.Lang == nil {
		return t.Format("2006-01-02")
	}
	return p.Lang.FmtDateShort(t)
}

func (p *Page) LongDate(t time.Time) string {
	if t.IsZero() || p.Lang == nil {
		return p.Date(t)
	}
	return p.Lang.FmtDate(t)
}

func (p *Page) MonthName(m int) string {
	if p.Lang == nil || m < 1 || m > 12 {
		return ""
	}
	return p.Lang.MonthName(time.Month(m))
}

func (p *Page) UserName() string {
	return p.User.DisplayName(p.Language())
}

func (p *Page) IsOwner() bool {
	return p.User.HasRole(enums.RoleOwner)
}

// ModeLabel is the catalog key naming the active mode.
func (p *Page) ModeLabel() string {
	return modeKey(p.Mode)
}

func (p *Page) OtherLanguage() enums.Language {
	if p.Language() == enums.LanguageArabic {
		return enums.LanguageFrench
	}
	return enums.LanguageArabic
}
