package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"cybersafe_backend/internal/config"
	"cybersafe_backend/internal/model"
	"cybersafe_backend/internal/repository"
	"cybersafe_backend/pkg/logger"
	"cybersafe_backend/pkg/monitoring"
)

// SyncState is the coordinator's session phase.
type SyncState string

const (
	SyncAnonymous      SyncState = "anonymous"
	SyncAuthenticating SyncState = "authenticating"
	SyncSynced         SyncState = "synced"
)

// Sync policies. Remote-wins replaces the local document wholesale;
// merge keeps the best of both sides.
const (
	PolicyRemoteWins = "remote_wins"
	PolicyMerge      = "merge"
)

// RemoteClient talks to a remote progress store. Fetch reports found=false
// when the remote has no document for the user.
type RemoteClient interface {
	Fetch(ctx context.Context, userID string) (model.ProgressDocument, bool, error)
	Push(ctx context.Context, userID string, doc model.ProgressDocument) error
	Reset(ctx context.Context, userID string) error
}

// HTTPRemote is the RemoteClient over plain HTTP against another
// CyberSafe instance's progress endpoints.
type HTTPRemote struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPRemote(baseURL string) *HTTPRemote {
	return &HTTPRemote{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *HTTPRemote) Fetch(ctx context.Context, userID string) (model.ProgressDocument, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/progress/%s", r.BaseURL, userID), nil)
	if err != nil {
		return model.DefaultProgress(), false, err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return model.DefaultProgress(), false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return model.DefaultProgress(), false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return model.DefaultProgress(), false, fmt.Errorf("remote fetch: status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.DefaultProgress(), false, err
	}
	// A 200 whose body is not a JSON object is a broken remote (proxy error
	// page, truncated response), not an authoritative empty record. Reported
	// as an error so the caller keeps local state.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.DefaultProgress(), false, fmt.Errorf("remote fetch: malformed body: %w", err)
	}
	return model.ValidateProgress(raw), true, nil
}

func (r *HTTPRemote) Push(ctx context.Context, userID string, doc model.ProgressDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/progress/%s", r.BaseURL, userID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("remote push: status %d", resp.StatusCode)
	}
	return nil
}

func (r *HTTPRemote) Reset(ctx context.Context, userID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/progress/%s/reset", r.BaseURL, userID), nil)
	if err != nil {
		return err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("remote reset: status %d", resp.StatusCode)
	}
	return nil
}

// SyncService reconciles local progress with a remote instance across the
// login/logout lifecycle. While anonymous all commits stay local; after a
// login reconciles, commits for that user are pushed remotely on a
// fire-and-forget basis.
type SyncService struct {
	Repo   *repository.ProgressRepository
	Remote RemoteClient

	policy       string
	fetchTimeout time.Duration

	mu     sync.Mutex
	state  SyncState
	userID string
}

func NewSyncService(repo *repository.ProgressRepository, remote RemoteClient, cfg config.SyncConfig) *SyncService {
	policy := cfg.Policy
	if policy == "" {
		policy = PolicyRemoteWins
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SyncService{
		Repo:         repo,
		Remote:       remote,
		policy:       policy,
		fetchTimeout: timeout,
		state:        SyncAnonymous,
	}
}

// State returns the current phase and bound user, for the health endpoint.
func (s *SyncService) State() (SyncState, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.userID
}

// OnLogin binds the session to userID and reconciles local progress with
// the remote copy. The fetch is bounded by the configured timeout; any
// remote failure keeps the local document so a login never loses work.
func (s *SyncService) OnLogin(ctx context.Context, userID string) model.ProgressDocument {
	s.mu.Lock()
	s.state = SyncAuthenticating
	s.userID = userID
	s.mu.Unlock()

	local := s.Repo.Load(ctx, model.AnonymousKey)

	var resolved model.ProgressDocument
	seedPush := false

	if s.Remote == nil {
		resolved = local
	} else {
		fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		remote, found, err := s.Remote.Fetch(fetchCtx, userID)
		cancel()

		switch {
		case err != nil:
			logger.Log.Warn("remote progress fetch failed, keeping local",
				zap.String("user_id", userID), zap.Error(err))
			monitoring.SyncFetchCounter.WithLabelValues("error").Inc()
			resolved = local
			seedPush = true
		case !found:
			monitoring.SyncFetchCounter.WithLabelValues("miss").Inc()
			resolved = local
			seedPush = true
		default:
			monitoring.SyncFetchCounter.WithLabelValues("hit").Inc()
			if s.policy == PolicyMerge {
				resolved = model.MergeProgress(local, remote)
			} else {
				resolved = remote
			}
		}
	}

	resolved.UserID = userID
	s.Repo.Save(ctx, userID, resolved)

	s.mu.Lock()
	s.state = SyncSynced
	s.mu.Unlock()

	if seedPush && s.Remote != nil {
		s.pushAsync(userID, resolved)
	}
	return resolved
}

// OnLogout detaches the session. The synced document is copied back to the
// anonymous key so the user keeps seeing their progress locally.
func (s *SyncService) OnLogout(ctx context.Context) {
	s.mu.Lock()
	userID := s.userID
	s.state = SyncAnonymous
	s.userID = ""
	s.mu.Unlock()

	if userID == "" {
		return
	}
	doc := s.Repo.Load(ctx, userID)
	doc.UserID = ""
	s.Repo.Save(ctx, model.AnonymousKey, doc)
}

// NotifyCommit pushes a committed document remotely when the commit belongs
// to the bound user. Commits landing while the login is still reconciling
// push too, so nothing in that window is lost from the remote. Fire and
// forget: a failed push is logged and counted, never surfaced to the caller.
func (s *SyncService) NotifyCommit(userKey string, doc model.ProgressDocument) {
	if s.Remote == nil {
		return
	}
	s.mu.Lock()
	bound := (s.state == SyncSynced || s.state == SyncAuthenticating) && s.userID == userKey
	s.mu.Unlock()
	if !bound {
		return
	}
	s.pushAsync(userKey, doc)
}

// NotifyReset mirrors a full reset to the remote when synced.
func (s *SyncService) NotifyReset(userKey string) {
	if s.Remote == nil {
		return
	}
	s.mu.Lock()
	synced := s.state == SyncSynced && s.userID == userKey
	s.mu.Unlock()
	if !synced {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
		defer cancel()
		if err := s.Remote.Reset(ctx, userKey); err != nil {
			logger.Log.Warn("remote progress reset failed", zap.String("user_id", userKey), zap.Error(err))
			monitoring.SyncPushCounter.WithLabelValues("error").Inc()
			return
		}
		monitoring.SyncPushCounter.WithLabelValues("ok").Inc()
	}()
}

func (s *SyncService) pushAsync(userID string, doc model.ProgressDocument) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
		defer cancel()
		if err := s.Remote.Push(ctx, userID, doc); err != nil {
			logger.Log.Warn("remote progress push failed", zap.String("user_id", userID), zap.Error(err))
			monitoring.SyncPushCounter.WithLabelValues("error").Inc()
			return
		}
		monitoring.SyncPushCounter.WithLabelValues("ok").Inc()
	}()
}
