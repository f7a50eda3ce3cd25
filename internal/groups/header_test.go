package groups

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/inventory-console/internal/featureflags"
	"github.com/rflorenc/inventory-console/internal/inventory"
	"github.com/rflorenc/inventory-console/internal/notify"
	"github.com/rflorenc/inventory-console/internal/rbac"
)

func TestBuildHeader(t *testing.T) {
	tests := []struct {
		name          string
		canRead       bool
		canModify     bool
		detail        Detail
		kessel        bool
		wantTitle     string
		wantLoading   bool
		wantActionsOn bool
		wantRenameOn  bool
	}{
		{"no read access shows id", false, true, Detail{Name: "prod"}, false, "g1", false, true, true},
		{"loading", true, true, Detail{Loading: true}, false, "", true, false, false},
		{"loaded name", true, true, Detail{Name: "prod", Found: true}, false, "prod", false, true, true},
		{"failed lookup falls back to id", true, true, Detail{}, false, "g1", false, true, true},
		{"no modify access", true, false, Detail{Name: "prod"}, false, "prod", false, false, false},
		{"ungrouped without kessel", true, true, Detail{Name: "Ungrouped Hosts", Ungrouped: true}, false, "Ungrouped Hosts", false, true, true},
		{"ungrouped with kessel", true, true, Detail{Name: "Ungrouped Hosts", Ungrouped: true}, true, "Ungrouped Hosts", false, true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := BuildHeader("g1", tc.canRead, tc.canModify, tc.detail, tc.kessel)
			assert.Equal(t, tc.wantTitle, h.Title)
			assert.Equal(t, tc.wantLoading, h.Loading)
			assert.Equal(t, !tc.wantActionsOn, h.ActionsDisabled)
			assert.Equal(t, !tc.wantRenameOn, h.RenameDisabled)
			assert.Equal(t, h.RenameDisabled, h.DeleteDisabled)
			require.Len(t, h.Breadcrumbs, 2)
			assert.Equal(t, ListPath, h.Breadcrumbs[0].Link)
			assert.Equal(t, h.Title, h.Breadcrumbs[1].Title)
		})
	}
}

type fakeAPI struct {
	group     inventory.Group
	fetchErr  error
	renameErr error
	deleteErr error
	fetches   int
	renamed   string
	deleted   []string
}

func (f *fakeAPI) FetchGroup(context.Context, string) (*inventory.GroupsPage, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &inventory.GroupsPage{Total: 1, Results: []inventory.Group{f.group}}, nil
}

func (f *fakeAPI) RenameGroup(_ context.Context, _ string, name string) error {
	if f.renameErr != nil {
		return f.renameErr
	}
	f.renamed = name
	f.group.Name = name
	return nil
}

func (f *fakeAPI) DeleteGroups(_ context.Context, ids []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = ids
	return nil
}

type fakePerms map[string]bool

func (p fakePerms) Check(_ context.Context, req []rbac.Required) (bool, error) {
	for _, r := range req {
		if !p[r.Permission] {
			return false, nil
		}
	}
	return true, nil
}

type errPerms struct{}

func (errPerms) Check(context.Context, []rbac.Required) (bool, error) {
	return false, errors.New("rbac down")
}

func newService(api *fakeAPI, perms Permissions, flags map[string]bool) (*Service, *notify.Store) {
	store := notify.NewStore()
	return &Service{
		API:         api,
		Permissions: perms,
		Flags:       featureflags.NewStatic(flags),
		Notifier:    store,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, store
}

var fullAccess = fakePerms{"inventory:groups:read": true, "inventory:groups:write": true}

func TestService_Header(t *testing.T) {
	api := &fakeAPI{group: inventory.Group{ID: "g1", Name: "prod"}}
	svc, _ := newService(api, fullAccess, nil)
	h := svc.Header(context.Background(), "g1")
	assert.Equal(t, "prod", h.Title)
	assert.False(t, h.ActionsDisabled)
}

func TestService_Header_NoReadSkipsLookup(t *testing.T) {
	api := &fakeAPI{group: inventory.Group{ID: "g1", Name: "prod"}}
	svc, _ := newService(api, fakePerms{}, nil)
	h := svc.Header(context.Background(), "g1")
	assert.Equal(t, "g1", h.Title)
	assert.True(t, h.ActionsDisabled)
	assert.Zero(t, api.fetches)
}

func TestService_Header_PermissionErrorDenies(t *testing.T) {
	svc, _ := newService(&fakeAPI{}, errPerms{}, nil)
	h := svc.Header(context.Background(), "g1")
	assert.False(t, h.CanRead)
	assert.False(t, h.CanModify)
}

func TestService_Rename(t *testing.T) {
	api := &fakeAPI{group: inventory.Group{ID: "g1", Name: "prod"}}
	svc, store := newService(api, fullAccess, nil)

	h, err := svc.Rename(context.Background(), "g1", "  staging ")
	require.NoError(t, err)
	assert.Equal(t, "staging", api.renamed)
	assert.Equal(t, "staging", h.Title)
	assert.Equal(t, notify.Success, store.List()[0].Variant)

	_, err = svc.Rename(context.Background(), "g1", "   ")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestService_Rename_Failure(t *testing.T) {
	api := &fakeAPI{group: inventory.Group{ID: "g1"}, renameErr: errors.New("409 conflict")}
	svc, store := newService(api, fullAccess, nil)
	_, err := svc.Rename(context.Background(), "g1", "dup")
	assert.ErrorContains(t, err, "409")
	assert.Equal(t, "rename-group-failed", store.List()[0].Key)
}

func TestService_ActionsGuarded(t *testing.T) {
	api := &fakeAPI{group: inventory.Group{ID: "g1", Name: "Ungrouped Hosts", Ungrouped: true}}

	svc, _ := newService(api, fakePerms{"inventory:groups:read": true}, nil)
	_, err := svc.Rename(context.Background(), "g1", "x")
	assert.ErrorIs(t, err, ErrNotPermitted)

	svc, _ = newService(api, fullAccess, map[string]bool{featureflags.KesselMigration: true})
	_, err = svc.Delete(context.Background(), []string{"g1"})
	assert.ErrorIs(t, err, ErrUngrouped)
	assert.Nil(t, api.deleted)

	svc, _ = newService(api, fullAccess, nil)
	next, err := svc.Delete(context.Background(), []string{"g1"})
	require.NoError(t, err)
	assert.Equal(t, ListPath, next)
	assert.Equal(t, []string{"g1"}, api.deleted)
}

func TestService_Delete_Failure(t *testing.T) {
	api := &fakeAPI{group: inventory.Group{ID: "g1"}, deleteErr: errors.New("500")}
	svc, store := newService(api, fullAccess, nil)
	_, err := svc.Delete(context.Background(), []string{"g1"})
	require.Error(t, err)
	assert.Equal(t, notify.Danger, store.List()[0].Variant)
}
