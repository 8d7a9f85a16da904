package handler_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/audit"
	"taskboard/internal/audit/handler"
	auditstore "taskboard/internal/audit/store"
	"taskboard/internal/identity"
	"taskboard/internal/identity/revocation"
	identityservice "taskboard/internal/identity/service"
	identitystore "taskboard/internal/identity/store"
	"taskboard/internal/identity/token"
	"taskboard/internal/platform/middleware"
	"taskboard/pkg/testutil"
)

type fixture struct {
	router   chi.Router
	tokens   *token.Service
	users    *identitystore.InMemoryStore
	recorder *audit.Recorder
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := identitystore.NewInMemory()
	trail := auditstore.NewInMemory()
	tokens := token.NewService("test-signing-key", time.Hour, revocation.NewMemoryList())

	recorder := audit.NewRecorder(trail, nil)
	reconstructor := audit.NewReconstructor(trail, users)
	admins := identityservice.New(users, users, tokens, nil, bcrypt.MinCost)

	router := chi.NewRouter()
	handler.New(reconstructor, admins, logger, tokens).Register(router)
	return &fixture{router: router, tokens: tokens, users: users, recorder: recorder}
}

func (f *fixture) addUser(t *testing.T, username string, admin bool) (int64, string) {
	t.Helper()
	u := &identity.User{Username: username, Email: username + "@example.com", CreatedAt: time.Now()}
	require.NoError(t, f.users.Create(context.Background(), u))
	if admin {
		role, err := f.users.FindByName(context.Background(), identity.RoleAdmin)
		require.NoError(t, err)
		require.NoError(t, f.users.Assign(context.Background(), u.ID, role.ID))
	}
	accessToken, err := f.tokens.GenerateAccessToken(u.ID)
	require.NoError(t, err)
	return u.ID, accessToken
}

func (f *fixture) recordStatusChange(t *testing.T, actorID, taskID int64, at time.Time) {
	t.Helper()
	changes := audit.Changes{}
	changes.Update("status", audit.String("to_do"), audit.String("in_progress"))
	ctx := middleware.WithTime(context.Background(), at)
	err := f.recorder.Record(ctx, audit.EntityTableTasks, taskID, audit.OperationUpdate, changes, &actorID)
	require.NoError(t, err)
}

func (f *fixture) list(t *testing.T, accessToken, query string) ([]audit.Entry, int) {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodGet, "/audit-logs"+query, nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rr := testutil.DoRequest(f.router, req)
	if rr.Code != http.StatusOK {
		return nil, rr.Code
	}
	return testutil.DecodeResponse[[]audit.Entry](t, rr), rr.Code
}

func TestAuditLogs_AdminOnly(t *testing.T) {
	f := newFixture()
	_, userToken := f.addUser(t, "alice", false)

	_, code := f.list(t, userToken, "")
	assert.Equal(t, http.StatusForbidden, code)

	req := testutil.NewJSONRequest(t, http.MethodGet, "/audit-logs", nil)
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestAuditLogs_ListNewestFirst(t *testing.T) {
	f := newFixture()
	adminID, adminToken := f.addUser(t, "root", true)

	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	f.recordStatusChange(t, adminID, 1, base)
	f.recordStatusChange(t, adminID, 2, base.Add(time.Minute))

	entries, code := f.list(t, adminToken, "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].EntityID)
	assert.Equal(t, int64(1), entries[1].EntityID)
	require.NotNil(t, entries[0].Actor)
	assert.Equal(t, "root", entries[0].Actor.Username)
	assert.Equal(t, "in_progress", entries[0].Changes["status"].New.Str)
}

func TestAuditLogs_TaskFilterAndLimit(t *testing.T) {
	f := newFixture()
	adminID, adminToken := f.addUser(t, "root", true)

	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := range 5 {
		f.recordStatusChange(t, adminID, 7, base.Add(time.Duration(i)*time.Minute))
	}
	f.recordStatusChange(t, adminID, 8, base.Add(time.Hour))

	entries, code := f.list(t, adminToken, "?task_id=7")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, entries, 5)
	for _, e := range entries {
		assert.Equal(t, int64(7), e.EntityID)
	}

	entries, code = f.list(t, adminToken, "?limit=2")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, entries, 2)

	_, code = f.list(t, adminToken, fmt.Sprintf("?limit=%d", -1))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAuditLogs_EmptyTrailIsEmptyArray(t *testing.T) {
	f := newFixture()
	_, adminToken := f.addUser(t, "root", true)

	req := testutil.NewJSONRequest(t, http.MethodGet, "/audit-logs", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "[]\n", rr.Body.String())
}
