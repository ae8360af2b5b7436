package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cybersafe_backend/internal/config"
	"cybersafe_backend/internal/model"
	"cybersafe_backend/internal/repository"
	"cybersafe_backend/internal/store"
)

// remoteStub is a minimal peer progress server.
type remoteStub struct {
	mu     sync.Mutex
	docs   map[string]model.ProgressDocument
	pushes int
	fail   bool
	delay  time.Duration
}

func newRemoteStub() *remoteStub {
	return &remoteStub{docs: make(map[string]model.ProgressDocument)}
}

func (r *remoteStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/progress/", func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		fail, delay := r.fail, r.delay
		r.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}

		userID := req.URL.Path[len("/progress/"):]
		switch req.Method {
		case http.MethodGet:
			r.mu.Lock()
			doc, ok := r.docs[userID]
			r.mu.Unlock()
			if !ok {
				http.NotFound(w, req)
				return
			}
			json.NewEncoder(w).Encode(doc)
		case http.MethodPost:
			var doc model.ProgressDocument
			if err := json.NewDecoder(req.Body).Decode(&doc); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			r.mu.Lock()
			r.docs[userID] = doc
			r.pushes++
			r.mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}
	})
	return mux
}

func (r *remoteStub) pushCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pushes
}

func newSyncFixture(t *testing.T, stub *remoteStub, policy string) (*SyncService, *repository.ProgressRepository) {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	repo := repository.NewProgressRepository(store.NewMemoryStore())
	svc := NewSyncService(repo, NewHTTPRemote(srv.URL), config.SyncConfig{
		Enabled:      true,
		Policy:       policy,
		FetchTimeout: 2 * time.Second,
	})
	return svc, repo
}

func TestOnLoginRemoteWins(t *testing.T) {
	stub := newRemoteStub()
	remoteDoc := model.DefaultProgress()
	remoteDoc.Points = 80
	stub.docs["user-1"] = remoteDoc

	svc, repo := newSyncFixture(t, stub, PolicyRemoteWins)
	ctx := context.Background()

	local := model.DefaultProgress()
	local.Points = 30
	repo.Save(ctx, model.AnonymousKey, local)

	got := svc.OnLogin(ctx, "user-1")

	assert.Equal(t, 80, got.Points, "remote replaces local wholesale")
	assert.Equal(t, "user-1", got.UserID)

	state, userID := svc.State()
	assert.Equal(t, SyncSynced, state)
	assert.Equal(t, "user-1", userID)

	assert.Equal(t, 80, repo.Load(ctx, "user-1").Points)
}

func TestOnLoginMergePolicy(t *testing.T) {
	stub := newRemoteStub()
	remoteDoc := model.DefaultProgress()
	remoteDoc.Points = 50
	remoteDoc.Badges = []string{"email-guardian"}
	stub.docs["user-1"] = remoteDoc

	svc, repo := newSyncFixture(t, stub, PolicyMerge)
	ctx := context.Background()

	local := model.DefaultProgress()
	local.Points = 70
	local.Badges = []string{"phishing-expert"}
	repo.Save(ctx, model.AnonymousKey, local)

	got := svc.OnLogin(ctx, "user-1")

	assert.Equal(t, 70, got.Points, "merge keeps the higher total")
	assert.ElementsMatch(t, []string{"phishing-expert", "email-guardian"}, got.Badges)
}

func TestOnLoginRemoteMissSeedsPush(t *testing.T) {
	stub := newRemoteStub()
	svc, repo := newSyncFixture(t, stub, PolicyRemoteWins)
	ctx := context.Background()

	local := model.DefaultProgress()
	local.Points = 42
	repo.Save(ctx, model.AnonymousKey, local)

	got := svc.OnLogin(ctx, "user-1")

	assert.Equal(t, 42, got.Points, "local survives a remote miss")
	require.Eventually(t, func() bool { return stub.pushCount() >= 1 },
		2*time.Second, 10*time.Millisecond, "local is seeded to the remote")

	stub.mu.Lock()
	seeded := stub.docs["user-1"]
	stub.mu.Unlock()
	assert.Equal(t, 42, seeded.Points)
}

func TestOnLoginRemoteFailureKeepsLocal(t *testing.T) {
	stub := newRemoteStub()
	stub.fail = true
	svc, repo := newSyncFixture(t, stub, PolicyRemoteWins)
	ctx := context.Background()

	local := model.DefaultProgress()
	local.Points = 13
	repo.Save(ctx, model.AnonymousKey, local)

	got := svc.OnLogin(ctx, "user-1")

	assert.Equal(t, 13, got.Points, "a failed fetch never loses local work")
	state, _ := svc.State()
	assert.Equal(t, SyncSynced, state)
}

func TestOnLoginFetchTimeout(t *testing.T) {
	stub := newRemoteStub()
	stub.delay = 500 * time.Millisecond

	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	repo := repository.NewProgressRepository(store.NewMemoryStore())
	svc := NewSyncService(repo, NewHTTPRemote(srv.URL), config.SyncConfig{
		Policy:       PolicyRemoteWins,
		FetchTimeout: 50 * time.Millisecond,
	})
	ctx := context.Background()

	local := model.DefaultProgress()
	local.Points = 9
	repo.Save(ctx, model.AnonymousKey, local)

	start := time.Now()
	got := svc.OnLogin(ctx, "user-1")

	assert.Less(t, time.Since(start), 400*time.Millisecond, "fetch is bounded by the timeout")
	assert.Equal(t, 9, got.Points)
}

func TestOnLoginGarbageBodyKeepsLocal(t *testing.T) {
	// A proxy in front of the remote can answer 200 with an error page.
	// That is a failed fetch, not an authoritative empty record.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("<html>proxy error page</html>"))
	}))
	t.Cleanup(srv.Close)

	repo := repository.NewProgressRepository(store.NewMemoryStore())
	svc := NewSyncService(repo, NewHTTPRemote(srv.URL), config.SyncConfig{
		Policy:       PolicyRemoteWins,
		FetchTimeout: 2 * time.Second,
	})
	ctx := context.Background()

	local := model.DefaultProgress()
	local.Points = 50
	local.Badges = []string{"phishing-expert"}
	repo.Save(ctx, model.AnonymousKey, local)

	got := svc.OnLogin(ctx, "user-1")

	assert.Equal(t, 50, got.Points, "a garbage body never wipes local work")
	assert.Equal(t, []string{"phishing-expert"}, got.Badges)
}

func TestNotifyCommitPushesWhileAuthenticating(t *testing.T) {
	stub := newRemoteStub()
	svc, _ := newSyncFixture(t, stub, PolicyRemoteWins)

	svc.mu.Lock()
	svc.state = SyncAuthenticating
	svc.userID = "user-1"
	svc.mu.Unlock()

	doc := model.DefaultProgress()
	doc.Points = 5
	svc.NotifyCommit("user-1", doc)

	require.Eventually(t, func() bool { return stub.pushCount() >= 1 },
		2*time.Second, 10*time.Millisecond, "commits in the login window still push")
}

func TestNotifyCommitPushesForSyncedUser(t *testing.T) {
	stub := newRemoteStub()
	remoteDoc := model.DefaultProgress()
	stub.docs["user-1"] = remoteDoc

	svc, _ := newSyncFixture(t, stub, PolicyRemoteWins)
	ctx := context.Background()

	svc.OnLogin(ctx, "user-1")

	doc := model.DefaultProgress()
	doc.Points = 5
	svc.NotifyCommit("user-1", doc)

	require.Eventually(t, func() bool { return stub.pushCount() >= 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestNotifyCommitIgnoresOtherKeys(t *testing.T) {
	stub := newRemoteStub()
	stub.docs["user-1"] = model.DefaultProgress()

	svc, _ := newSyncFixture(t, stub, PolicyRemoteWins)
	svc.OnLogin(context.Background(), "user-1")

	svc.NotifyCommit(model.AnonymousKey, model.DefaultProgress())

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, stub.pushCount(), "anonymous commits stay local")
}

func TestOnLogoutCopiesBackToAnonymous(t *testing.T) {
	stub := newRemoteStub()
	remoteDoc := model.DefaultProgress()
	remoteDoc.Points = 60
	stub.docs["user-1"] = remoteDoc

	svc, repo := newSyncFixture(t, stub, PolicyRemoteWins)
	ctx := context.Background()

	svc.OnLogin(ctx, "user-1")
	svc.OnLogout(ctx)

	state, userID := svc.State()
	assert.Equal(t, SyncAnonymous, state)
	assert.Empty(t, userID)

	anon := repo.Load(ctx, model.AnonymousKey)
	assert.Equal(t, 60, anon.Points)
	assert.Empty(t, anon.UserID, "identity tag is stripped")
}

func TestNilRemoteStaysLocal(t *testing.T) {
	repo := repository.NewProgressRepository(store.NewMemoryStore())
	svc := NewSyncService(repo, nil, config.SyncConfig{Policy: PolicyRemoteWins})
	ctx := context.Background()

	local := model.DefaultProgress()
	local.Points = 11
	repo.Save(ctx, model.AnonymousKey, local)

	got := svc.OnLogin(ctx, "user-1")
	assert.Equal(t, 11, got.Points)

	svc.NotifyCommit("user-1", got) // must not panic
}
