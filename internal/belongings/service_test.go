package belongings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	method string
	path   string
	body   any
}

type fakeAPI struct {
	mu        sync.Mutex
	sent      []sent
	students  int
	failFor   string
	inFlight  atomic.Int32
	maxFlight atomic.Int32
}

func (f *fakeAPI) Get(ctx context.Context, path string, query url.Values, out any) error {
	switch {
	case path == "/students":
		list := make([]map[string]string, f.students)
		for i := range list {
			list[i] = map[string]string{"id": fmt.Sprintf("s%d", i)}
		}
		raw, _ := json.Marshal(list)
		return json.Unmarshal(raw, out)
	case strings.HasPrefix(path, studentItemsPath):
		n := f.inFlight.Add(1)
		defer f.inFlight.Add(-1)
		for {
			cur := f.maxFlight.Load()
			if n <= cur || f.maxFlight.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		id := strings.TrimPrefix(path, studentItemsPath)
		if id == f.failFor {
			return errors.New("boom")
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := fmt.Sprintf(`[{"id":"b-%s","name":"Cartable","category":"Fournitures","quantity":1,"status":"IN_STAFF","student":{"id":"%s"}}]`, id, id)
		return json.Unmarshal([]byte(raw), out)
	case path == requirementsPath:
		return json.Unmarshal([]byte(`[{"id":"r1","name":"Crayons","category":"Fournitures","isRequired":true,"quantityNeeded":2}]`), out)
	}
	return fmt.Errorf("unexpected path %s", path)
}

func (f *fakeAPI) record(method, path string, body any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{method: method, path: path, body: body})
	return nil
}

func (f *fakeAPI) Post(_ context.Context, path string, body, _ any) error {
	return f.record("POST", path, body)
}

func (f *fakeAPI) Put(_ context.Context, path string, body, _ any) error {
	return f.record("PUT", path, body)
}

func (f *fakeAPI) Patch(_ context.Context, path string, body, _ any) error {
	return f.record("PATCH", path, body)
}

func (f *fakeAPI) Delete(_ context.Context, path string, _ any) error {
	return f.record("DELETE", path, nil)
}

func TestTrackingIsBoundedAndOrdered(t *testing.T) {
	api := &fakeAPI{students: 12}
	svc, err := NewService(api, WithConcurrency(3))
	require.NoError(t, err)

	items, err := svc.Tracking(context.Background(), enums.StudentTypeKindergarten)
	require.NoError(t, err)
	require.Len(t, items, 12)
	for i, it := range items {
		assert.Equal(t, fmt.Sprintf("s%d", i), it.Student.ID)
	}
	assert.LessOrEqual(t, api.maxFlight.Load(), int32(3))
}

func TestTrackingFailsOnFirstError(t *testing.T) {
	api := &fakeAPI{students: 6, failFor: "s2"}
	svc, err := NewService(api, WithConcurrency(2))
	require.NoError(t, err)

	_, err = svc.Tracking(context.Background(), "")
	require.Error(t, err)
}

func TestCreateRequirementDefaults(t *testing.T) {
	api := &fakeAPI{}
	now := time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)
	svc, err := NewService(api, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	err = svc.CreateRequirement(context.Background(), RequirementForm{Name: " Blouse ", Category: "Vêtements"}, "")
	require.NoError(t, err)

	require.Len(t, api.sent, 1)
	body := api.sent[0].body.(createRequirementBody)
	assert.Equal(t, "Blouse", body.Name)
	assert.Equal(t, 1, body.QuantityNeeded)
	assert.True(t, body.IsActive)
	assert.Equal(t, "Unknown", body.CreatedBy)
	assert.Equal(t, "2026-09-01T08:00:00Z", body.CreatedAt)
}

func TestRequirementValidation(t *testing.T) {
	api := &fakeAPI{}
	svc, err := NewService(api)
	require.NoError(t, err)

	err = svc.CreateRequirement(context.Background(), RequirementForm{Category: "x"}, "me")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	err = svc.UpdateRequirement(context.Background(), "", RequirementForm{Name: "a", Category: "b"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Empty(t, api.sent)
}

func TestMutationPaths(t *testing.T) {
	api := &fakeAPI{}
	svc, err := NewService(api)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.UpdateRequirement(ctx, "r1", RequirementForm{Name: "a", Category: "b"}))
	require.NoError(t, svc.DeleteRequirement(ctx, "r1"))
	require.NoError(t, svc.CheckOut(ctx, "b1"))
	require.NoError(t, svc.SetStatus(ctx, "b1", enums.BelongingLost, " perdu "))
	assert.Error(t, svc.SetStatus(ctx, "b1", "STOLEN", ""))

	require.Len(t, api.sent, 4)
	assert.Equal(t, "/belongings/requirements/r1", api.sent[0].path)
	assert.Equal(t, "DELETE", api.sent[1].method)
	assert.Equal(t, "/belongings/b1/check-out", api.sent[2].path)
	assert.Equal(t, "/belongings/b1/status", api.sent[3].path)
	assert.Equal(t, statusBody{Status: enums.BelongingLost, Notes: "perdu"}, api.sent[3].body)
}

func TestGroupingAndChecklist(t *testing.T) {
	reqs := []Requirement{
		{ID: "1", Name: "Crayons", Category: "Fournitures", IsRequired: true},
		{ID: "2", Name: "Blouse", Category: "Vêtements", Level: enums.LevelGrande, IsRequired: true},
		{ID: "3", Name: "Cahier", Category: "Fournitures", Level: enums.LevelPetite},
	}

	groups := GroupByCategory(reqs, enums.LevelPetite)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Requirements, 2)
	assert.Len(t, GroupByCategory(reqs, ""), 2)

	_, err := BuildChecklist(reqs, nil, "")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	list, err := BuildChecklist(reqs, []string{"2", "1", "3"}, enums.LevelGrande)
	require.NoError(t, err)
	assert.Equal(t, "Crayons", list.Required[0].Name)
	assert.Equal(t, "Blouse", list.Required[1].Name)
	assert.Len(t, list.Optional, 1)

	counts := CountByStatus([]Belonging{{Status: enums.BelongingLost}, {Status: enums.BelongingLost}, {Status: enums.BelongingInStaff}})
	assert.Equal(t, StatusCount{Status: enums.BelongingInStaff, Count: 1}, counts[0])
	assert.Equal(t, StatusCount{Status: enums.BelongingLost, Count: 2}, counts[2])
}
