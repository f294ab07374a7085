package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/logger"
	"github.com/linarqa/linarqa-web/pkg/pagination"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

type fakeAPI struct {
	calls     []string
	query     url.Values
	responses map[string]string
	err       error
}

func (f *fakeAPI) Get(_ context.Context, path string, query url.Values, out any) error {
	f.calls = append(f.calls, "GET "+path)
	f.query = query
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.responses[path]), out)
}

func (f *fakeAPI) Put(_ context.Context, path string, _, _ any) error {
	f.calls = append(f.calls, "PUT "+path)
	return f.err
}

const unreadJSON = `[
  {"id":"n1","title":"Nouvel élève","titleArabic":"تلميذ جديد","message":"Salma inscrite","type":"STUDENT_REGISTERED","status":"UNREAD","isRead":false,"createdAt":"2026-03-01T09:30:00"},
  {"id":"n2","title":"Paiement","message":"Reçu","type":"PAYMENT_MARKED_PAID","status":"UNREAD","isRead":false,"createdAt":"2026-03-02T10:00:00"}
]`

func newAPI() *fakeAPI {
	return &fakeAPI{responses: map[string]string{
		"/notifications":                    `{"content":` + unreadJSON + `,"totalElements":12,"totalPages":2,"size":10,"number":0}`,
		"/notifications/unread":             unreadJSON,
		"/notifications/unread/count":       `{"count":2}`,
		"/notifications/admin":              `{"content":[],"totalElements":0,"totalPages":0,"size":10,"number":0}`,
		"/notifications/admin/unread":       `[]`,
		"/notifications/admin/unread/count": `{"count":5}`,
		"/notifications-simple/all":         unreadJSON,
		"/notifications-simple/unread":      unreadJSON,
		"/notifications-simple/count":       `{"total":9,"unread":2}`,
	}}
}

func TestPagedEndpoints(t *testing.T) {
	api := newAPI()
	svc, err := NewService(api)
	require.NoError(t, err)
	ctx := context.Background()

	page, err := svc.List(ctx, pagination.Params{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, "10", api.query.Get("size"))
	assert.Len(t, page.Content, 2)
	assert.True(t, page.HasNext())

	page, err = svc.AdminList(ctx, pagination.Params{Page: -3})
	require.NoError(t, err)
	assert.Equal(t, "0", api.query.Get("page"))
	assert.Empty(t, page.Content)
}

func TestListsAndCounts(t *testing.T) {
	api := newAPI()
	svc, err := NewService(api)
	require.NoError(t, err)
	ctx := context.Background()

	unread, err := svc.Unread(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, enums.NotificationStudentRegistered, unread[0].Type)
	title, message := unread[0].Localized(enums.LanguageArabic)
	assert.Equal(t, "تلميذ جديد", title)
	assert.Equal(t, "Salma inscrite", message)

	n, err := svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.AdminUnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	admin, err := svc.AdminUnread(ctx)
	require.NoError(t, err)
	assert.Empty(t, admin)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	allUnread, err := svc.AllUnread(ctx)
	require.NoError(t, err)
	assert.Len(t, allUnread, 2)

	counts, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 9, Unread: 2}, counts)
}

func TestMarkRead(t *testing.T) {
	api := newAPI()
	svc, err := NewService(api)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.MarkRead(ctx, "n1"))
	require.NoError(t, svc.MarkAllRead(ctx))
	assert.Equal(t, []string{"PUT /notifications/n1/read", "PUT /notifications/read-all"}, api.calls)
	assert.True(t, pkgerrors.Is(svc.MarkRead(ctx, ""), pkgerrors.CodeValidation))

	list, err := svc.Unread(ctx)
	require.NoError(t, err)
	marked := MarkLocal(list, "n2")
	assert.Equal(t, 1, UnreadOf(marked))
	assert.False(t, list[1].IsRead)
	assert.Equal(t, 0, UnreadOf(MarkLocal(list, "")))
}

func TestBadgeCachesUntilInvalidated(t *testing.T) {
	api := newAPI()
	svc, err := NewService(api)
	require.NoError(t, err)
	badge := NewBadge(svc, storage.NewMemory(), time.Minute, logger.Nop())
	ctx := context.Background()

	n, err := badge.Count(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = badge.Count(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"GET /notifications-simple/count"}, api.calls)

	require.NoError(t, badge.MarkAllRead(ctx, "sid"))
	api.responses["/notifications-simple/count"] = `{"total":9,"unread":0}`
	n, err = badge.Count(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, api.calls, 3)
}

func TestBadgePropagatesAPIErrors(t *testing.T) {
	api := newAPI()
	api.err = errors.New("boom")
	svc, err := NewService(api)
	require.NoError(t, err)
	badge := NewBadge(svc, storage.NewMemory(), 0, nil)

	_, err = badge.Count(context.Background(), "sid")
	assert.Error(t, err)
	assert.Error(t, badge.MarkRead(context.Background(), "sid", "n1"))
}
