package extrastudents

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

type fakeAPI struct {
	method string
	path   string
	body   any
	list   string
}

func (f *fakeAPI) Get(_ context.Context, path string, _ url.Values, out any) error {
	f.method, f.path = "GET", path
	return json.Unmarshal([]byte(f.list), out)
}

func (f *fakeAPI) Post(_ context.Context, path string, body, _ any) error {
	f.method, f.path, f.body = "POST", path, body
	return nil
}

func (f *fakeAPI) Put(_ context.Context, path string, body, _ any) error {
	f.method, f.path, f.body = "PUT", path, body
	return nil
}

func (f *fakeAPI) Patch(_ context.Context, path string, body, _ any) error {
	f.method, f.path, f.body = "PATCH", path, body
	return nil
}

func (f *fakeAPI) Delete(_ context.Context, path string, _ any) error {
	f.method, f.path = "DELETE", path
	return nil
}

const studentsJSON = `[
  {"id":"x1","firstName":"Salma","lastName":"Idrissi","firstNameArabic":"سلمى","lastNameArabic":"الإدريسي","birthDate":"2015-04-02T00:00:00","responsibleName":"Fatima Idrissi","responsiblePhone":"0612345678","status":"ACTIVE"},
  {"id":"x2","firstName":"Omar","lastName":"Tazi","birthDate":"2014-09-12","responsibleName":"Youssef Tazi","responsiblePhone":"0700112233","status":"INACTIVE"}
]`

func fixedNow() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }

func validForm() Form {
	return Form{
		FirstName:        " Salma ",
		LastName:         "Idrissi",
		BirthDate:        "2015-04-02",
		ResponsibleName:  "Fatima Idrissi",
		ResponsiblePhone: "06 12 34 56 78",
	}
}

func TestListAcceptsArrayAndPage(t *testing.T) {
	for name, body := range map[string]string{
		"array": studentsJSON,
		"page":  `{"content":` + studentsJSON + `,"totalElements":2}`,
	} {
		t.Run(name, func(t *testing.T) {
			svc, err := NewService(&fakeAPI{list: body})
			require.NoError(t, err)
			list, err := svc.List(context.Background())
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "2015-04-02", list[0].BirthDate.String())
			assert.Equal(t, "سلمى الإدريسي", list[0].DisplayName(enums.LanguageArabic))
		})
	}

	svc, err := NewService(&fakeAPI{list: `{"unexpected":true}`})
	require.NoError(t, err)
	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegisterValidates(t *testing.T) {
	api := &fakeAPI{}
	svc, err := NewService(api, WithClock(fixedNow))
	require.NoError(t, err)
	ctx := context.Background()

	form := validForm()
	form.ResponsiblePhone = "12"
	err = svc.Register(ctx, form)
	assert.Equal(t, "phone", pkgerrors.As(err).Details().(map[string]string)["responsiblePhone"])

	form = validForm()
	form.BirthDate = "2026-03-15"
	err = svc.Register(ctx, form)
	assert.Equal(t, "past", pkgerrors.As(err).Details().(map[string]string)["birthDate"])
	assert.Nil(t, api.body)

	require.NoError(t, svc.Register(ctx, validForm()))
	sent := api.body.(Form)
	assert.Equal(t, "/extra-students", api.path)
	assert.Equal(t, "Salma", sent.FirstName)
	assert.Equal(t, enums.StudentStatusActive, sent.Status)
}

func TestUpdateDeleteAndPhoto(t *testing.T) {
	api := &fakeAPI{}
	svc, err := NewService(api, WithClock(fixedNow))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.Update(ctx, "x1", validForm()))
	assert.Equal(t, "PUT", api.method)
	assert.Equal(t, "/extra-students/x1", api.path)

	require.NoError(t, svc.SetPhoto(ctx, "x1", "https://cdn.example.org/x1.jpg"))
	assert.Equal(t, "/extra-students/x1/photo", api.path)
	assert.Equal(t, map[string]string{"photoUrl": "https://cdn.example.org/x1.jpg"}, api.body)

	require.NoError(t, svc.Delete(ctx, "x1"))
	assert.Equal(t, "DELETE", api.method)

	assert.True(t, pkgerrors.Is(svc.Delete(ctx, " "), pkgerrors.CodeValidation))
}

func TestFilterAndCount(t *testing.T) {
	svc, err := NewService(&fakeAPI{list: studentsJSON})
	require.NoError(t, err)
	list, err := svc.List(context.Background())
	require.NoError(t, err)

	assert.Len(t, Filter(list, "salma idr", ""), 1)
	assert.Len(t, Filter(list, "الإدريسي", ""), 1)
	assert.Len(t, Filter(list, "youssef", ""), 1)
	assert.Len(t, Filter(list, "0700", ""), 1)
	assert.Len(t, Filter(list, "", enums.StudentStatusInactive), 1)
	assert.Len(t, Filter(list, "", ""), 2)

	assert.Equal(t, Counts{Total: 2, Active: 1, Inactive: 1}, Count(list))
}
