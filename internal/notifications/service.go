package notifications

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/pagination"
	"github.com/linarqa/linarqa-web/pkg/types"
)

const (
	notificationsPath = "/notifications"
	adminPath         = "/notifications/admin"
	simplePath        = "/notifications-simple"
)

// Notification is an event the school API raised for the signed-in user.
type Notification struct {
	ID                  string                   `json:"id"`
	Title               string                   `json:"title"`
	TitleArabic         string                   `json:"titleArabic,omitempty"`
	Message             string                   `json:"message"`
	MessageArabic       string                   `json:"messageArabic,omitempty"`
	Type                enums.NotificationType   `json:"type"`
	Status              enums.NotificationStatus `json:"status"`
	IsRead              bool                     `json:"isRead"`
	CreatedAt           types.Timestamp          `json:"createdAt"`
	UpdatedAt           types.Timestamp          `json:"updatedAt"`
	ReadAt              types.Timestamp          `json:"readAt"`
	RelatedEntityType   string                   `json:"relatedEntityType,omitempty"`
	RelatedEntityID     string                   `json:"relatedEntityId,omitempty"`
	CreatedByEmail      string                   `json:"createdByEmail,omitempty"`
	CreatedByName       string                   `json:"createdByName,omitempty"`
	CreatedByNameArabic string                   `json:"createdByNameArabic,omitempty"`
	TargetUserEmail     string                   `json:"targetUserEmail,omitempty"`
}

// Localized returns title and message in lang, falling back to French.
func (n Notification) Localized(lang enums.Language) (title, message string) {
	title, message = n.Title, n.Message
	if lang == enums.LanguageArabic {
		if n.TitleArabic != "" {
			title = n.TitleArabic
		}
		if n.MessageArabic != "" {
			message = n.MessageArabic
		}
	}
	return title, message
}

func (n Notification) TitleIn(lang enums.Language) string {
	title, _ := n.Localized(lang)
	return title
}

func (n Notification) MessageIn(lang enums.Language) string {
	_, message := n.Localized(lang)
	return message
}

// Page is one page of the paged notification endpoints.
type Page = pagination.Page[Notification]

// Counts is the answer of the simple count endpoint.
type Counts struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

type countBody struct {
	Count int `json:"count"`
}

type requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

// Service wraps the notification endpoints of the school API.
type Service interface {
	List(ctx context.Context, params pagination.Params) (Page, error)
	Unread(ctx context.Context) ([]Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error

	AdminList(ctx context.Context, params pagination.Params) (Page, error)
	AdminUnread(ctx context.Context) ([]Notification, error)
	AdminUnreadCount(ctx context.Context) (int, error)

	All(ctx context.Context) ([]Notification, error)
	AllUnread(ctx context.Context) ([]Notification, error)
	Counts(ctx context.Context) (Counts, error)
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

func (s *service) page(ctx context.Context, path string, params pagination.Params) (Page, error) {
	var out Page
	if err := s.api.Get(ctx, path, params.Query(), &out); err != nil {
		return Page{}, err
	}
	return out, nil
}

func (s *service) list(ctx context.Context, path string) ([]Notification, error) {
	var out []Notification
	if err := s.api.Get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) count(ctx context.Context, path string) (int, error) {
	var out countBody
	if err := s.api.Get(ctx, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (Page, error) {
	return s.page(ctx, notificationsPath, params)
}

func (s *service) Unread(ctx context.Context) ([]Notification, error) {
	return s.list(ctx, notificationsPath+"/unread")
}

func (s *service) UnreadCount(ctx context.Context) (int, error) {
	return s.count(ctx, notificationsPath+"/unread/count")
}

func (s *service) MarkRead(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id is required")
	}
	return s.api.Put(ctx, notificationsPath+"/"+url.PathEscape(id)+"/read", struct{}{}, nil)
}

func (s *service) MarkAllRead(ctx context.Context) error {
	return s.api.Put(ctx, notificationsPath+"/read-all", struct{}{}, nil)
}

func (s *service) AdminList(ctx context.Context, params pagination.Params) (Page, error) {
	return s.page(ctx, adminPath, params)
}

func (s *service) AdminUnread(ctx context.Context) ([]Notification, error) {
	return s.list(ctx, adminPath+"/unread")
}

func (s *service) AdminUnreadCount(ctx context.Context) (int, error) {
	return s.count(ctx, adminPath+"/unread/count")
}

func (s *service) All(ctx context.Context) ([]Notification, error) {
	return s.list(ctx, simplePath+"/all")
}

func (s *service) AllUnread(ctx context.Context) ([]Notification, error) {
	return s.list(ctx, simplePath+"/unread")
}

func (s *service) Counts(ctx context.Context) (Counts, error) {
	var out Counts
	if err := s.api.Get(ctx, simplePath+"/count", nil, &out); err != nil {
		return Counts{}, err
	}
	return out, nil
}

// MarkLocal flips the read flag on the matching entries of list, mirroring a
// successful MarkRead without refetching. An empty id marks every entry.
func MarkLocal(list []Notification, id string) []Notification {
	out := make([]Notification, len(list))
	for i, n := range list {
		if id == "" || n.ID == id {
			n.IsRead = true
			n.Status = enums.NotificationRead
		}
		out[i] = n
	}
	return out
}

// UnreadOf counts entries not yet read.
func UnreadOf(list []Notification) int {
	count := 0
	for _, n := range list {
		if !n.IsRead {
			count++
		}
	}
	return count
}
