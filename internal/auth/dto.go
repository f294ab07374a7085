package auth

import (
	"strings"

	"github.com/linarqa/linarqa-web/pkg/enums"
)

// LoginRequest captures the credentials posted to the school API.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is what /auth/login returns on success.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// User mirrors the account returned by /auth/login and /auth/me.
type User struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	FullName           string     `json:"fullName"`
	FullNameArabic     string     `json:"fullNameArabic,omitempty"`
	Phone              string     `json:"phone,omitempty"`
	Role               enums.Role `json:"role"`
	LanguagePreference string     `json:"languagePreference"`
	Active             bool       `json:"active"`
}

// PreferredLanguage maps the account's FR/AR preference to a UI language.
func (u *User) PreferredLanguage() (enums.Language, bool) {
	if u == nil {
		return "", false
	}
	lang, err := enums.ParseLanguage(strings.ToLower(strings.TrimSpace(u.LanguagePreference)))
	if err != nil {
		return "", false
	}
	return lang, true
}

// DisplayName picks the Arabic name for Arabic UIs when one is set.
func (u *User) DisplayName(lang enums.Language) string {
	if u == nil {
		return ""
	}
	if lang == enums.LanguageArabic && u.FullNameArabic != "" {
		return u.FullNameArabic
	}
	return u.FullName
}

// HasRole reports whether the user holds one of roles.
func (u *User) HasRole(roles ...enums.Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Session is the persisted part of the auth state.
type Session struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
}

// consistent reports whether the session can be trusted given whether a
// bearer token is stored.
func (s Session) consistent(hasToken bool) bool {
	if s.IsAuthenticated != (s.User != nil) {
		return false
	}
	return !s.IsAuthenticated || hasToken
}
