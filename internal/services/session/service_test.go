package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pgrepo "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/repo/postgres"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/enums"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
)

func TestIssueThenValidateReturnsSameUser(t *testing.T) {
	svc, _, _ := newServiceForTest(t)

	issued, err := svc.Issue(context.Background(), 42, strPtr("test-agent"), strPtr("10.0.0.1"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.RefreshToken == "" {
		t.Fatalf("issued session has empty refresh token")
	}

	ref, err := svc.Validate(context.Background(), issued.RefreshToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ref.UserID != 42 {
		t.Fatalf("validate returned user %d, want 42", ref.UserID)
	}
	if ref.SessionID != issued.SessionID {
		t.Fatalf("validate returned session %d, want %d", ref.SessionID, issued.SessionID)
	}
}

func TestIssueRejectsUnknownAndInactiveUsers(t *testing.T) {
	svc, _, users := newServiceForTest(t)

	if _, err := svc.Issue(context.Background(), 999, nil, nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("issue for unknown user: got %v, want ErrUserNotFound", err)
	}

	users.deactivate(42)
	if _, err := svc.Issue(context.Background(), 42, nil, nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("issue for inactive user: got %v, want ErrUserNotFound", err)
	}
}

func TestIssueRetriesOnDuplicateToken(t *testing.T) {
	svc, store, _ := newServiceForTest(t)
	store.duplicateInserts = 2

	issued, err := svc.Issue(context.Background(), 42, nil, nil)
	if err != nil {
		t.Fatalf("issue with collisions: %v", err)
	}
	if issued.RefreshToken == "" {
		t.Fatalf("expected a token after retries")
	}
}

func TestRotateInvalidatesPresentedSecret(t *testing.T) {
	svc, _, _ := newServiceForTest(t)

	issued, err := svc.Issue(context.Background(), 42, strPtr("agent"), nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rotated, err := svc.Rotate(context.Background(), issued.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated.RefreshToken == issued.RefreshToken {
		t.Fatalf("rotate did not change the refresh token")
	}
	if rotated.UserID != 42 {
		t.Fatalf("rotated session belongs to user %d, want 42", rotated.UserID)
	}

	// Replay of the rotated-away secret must be rejected as revoked, for
	// both validate and rotate.
	if _, err := svc.Validate(context.Background(), issued.RefreshToken); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("validate replayed secret: got %v, want ErrSessionRevoked", err)
	}
	if _, err := svc.Rotate(context.Background(), issued.RefreshToken); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("rotate replayed secret: got %v, want ErrSessionRevoked", err)
	}

	// The successor stays usable.
	if _, err := svc.Validate(context.Background(), rotated.RefreshToken); err != nil {
		t.Fatalf("validate rotated secret: %v", err)
	}
}

func TestRotateCarriesForwardProvenance(t *testing.T) {
	svc, store, _ := newServiceForTest(t)

	issued, err := svc.Issue(context.Background(), 42, strPtr("agent-x"), strPtr("10.1.2.3"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rotated, err := svc.Rotate(context.Background(), issued.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}

	rec := store.byID(rotated.SessionID)
	if rec.UserAgent == nil || *rec.UserAgent != "agent-x" {
		t.Fatalf("user agent not carried forward: %+v", rec.UserAgent)
	}
	if rec.IPAddress == nil || *rec.IPAddress != "10.1.2.3" {
		t.Fatalf("ip address not carried forward: %+v", rec.IPAddress)
	}
}

func TestValidateExpiredSecretFailsEvenWhenActive(t *testing.T) {
	svc, store, _ := newServiceForTest(t)

	issued, err := svc.Issue(context.Background(), 42, nil, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := store.byID(issued.SessionID)
	if !rec.IsActive {
		t.Fatalf("fresh session should be active")
	}

	svc.now = func() time.Time { return issued.ExpiresAt.Add(time.Second) }

	if _, err := svc.Validate(context.Background(), issued.RefreshToken); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("validate expired secret: got %v, want ErrSessionExpired", err)
	}
	if _, err := svc.Rotate(context.Background(), issued.RefreshToken); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("rotate expired secret: got %v, want ErrSessionExpired", err)
	}
}

func TestValidateUnknownSecret(t *testing.T) {
	svc, _, _ := newServiceForTest(t)

	if _, err := svc.Validate(context.Background(), "no-such-token"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("validate unknown secret: got %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.Validate(context.Background(), "  "); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("validate blank secret: got %v, want ErrSessionNotFound", err)
	}
}

func TestRevokeAllForUserInvalidatesEverySession(t *testing.T) {
	svc, _, _ := newServiceForTest(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, 42, nil, nil)
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	second, err := svc.Issue(ctx, 42, nil, nil)
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}

	revoked, err := svc.RevokeAllForUser(ctx, 42)
	if err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if revoked != 2 {
		t.Fatalf("revoked %d sessions, want 2", revoked)
	}

	for _, token := range []string{first.RefreshToken, second.RefreshToken} {
		if _, err := svc.Validate(ctx, token); !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("validate after revoke-all: got %v, want ErrSessionRevoked", err)
		}
	}
}

func TestRevokeSingleSession(t *testing.T) {
	svc, _, _ := newServiceForTest(t)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, 42, nil, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := svc.Revoke(ctx, issued.SessionID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Validate(ctx, issued.RefreshToken); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("validate revoked secret: got %v, want ErrSessionRevoked", err)
	}

	if err := svc.Revoke(ctx, 99999); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("revoke unknown session: got %v, want ErrSessionNotFound", err)
	}
}

func TestConcurrentRotationsHaveExactlyOneWinner(t *testing.T) {
	svc, _, _ := newServiceForTest(t)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, 42, nil, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Rotate(ctx, issued.RefreshToken)
		}(i)
	}
	wg.Wait()

	var wins, revoked int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSessionRevoked):
			revoked++
		default:
			t.Fatalf("unexpected rotate error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("got %d rotate winners, want exactly 1", wins)
	}
	if revoked != workers-1 {
		t.Fatalf("got %d revoked losers, want %d", revoked, workers-1)
	}
}

func TestPurgeExpiredKeepsActiveRows(t *testing.T) {
	svc, store, _ := newServiceForTest(t)
	ctx := context.Background()

	stillActive, err := svc.Issue(ctx, 42, nil, nil)
	if err != nil {
		t.Fatalf("issue active: %v", err)
	}
	revokedOld, err := svc.Issue(ctx, 42, nil, nil)
	if err != nil {
		t.Fatalf("issue revoked: %v", err)
	}
	if err := svc.Revoke(ctx, revokedOld.SessionID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	// Cutoff far beyond both expiries: only the revoked row may go, the
	// active row stays even though it is long past expiry.
	cutoff := stillActive.ExpiresAt.Add(365 * 24 * time.Hour)
	purged, err := svc.PurgeExpired(ctx, cutoff)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("purged %d rows, want 1", purged)
	}
	if store.byID(stillActive.SessionID) == nil {
		t.Fatalf("purge removed a row that was still active")
	}
	if store.byID(revokedOld.SessionID) != nil {
		t.Fatalf("purge kept an expired, revoked row")
	}
}

func TestSessionsListsAuditRows(t *testing.T) {
	svc, _, _ := newServiceForTest(t)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, 42, nil, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Rotate(ctx, issued.RefreshToken); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	sessions, err := svc.Sessions(ctx, 42)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	// Rotation keeps the old row for audit, so both rows are listed.
	if len(sessions) != 2 {
		t.Fatalf("listed %d sessions, want 2", len(sessions))
	}
}

func newServiceForTest(t *testing.T) (*Service, *fakeSessionStore, *fakeUserStore) {
	t.Helper()

	store := newFakeSessionStore()
	users := newFakeUserStore(model.User{ID: 42, Email: "dev@example.com", Name: "Dev", Role: enums.RoleUser, IsActive: true})
	svc := NewService(store, users, 7*24*time.Hour)
	return svc, store, users
}

type fakeSessionStore struct {
	mu               sync.Mutex
	nextID           int64
	rows             map[int64]*model.Session
	duplicateInserts int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{rows: make(map[int64]*model.Session)}
}

func (f *fakeSessionStore) Insert(_ context.Context, userID int64, token string, userAgent, ipAddress *string, expiresAt, now time.Time) (model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.duplicateInserts > 0 {
		f.duplicateInserts--
		return model.Session{}, pgrepo.ErrDuplicateRefreshToken
	}
	for _, row := range f.rows {
		if row.RefreshToken == token {
			return model.Session{}, pgrepo.ErrDuplicateRefreshToken
		}
	}

	f.nextID++
	row := &model.Session{
		ID:           f.nextID,
		UserID:       userID,
		RefreshToken: token,
		UserAgent:    userAgent,
		IPAddress:    ipAddress,
		ExpiresAt:    expiresAt,
		IsActive:     true,
		CreatedAt:    now,
		LastUsedAt:   now,
	}
	f.rows[row.ID] = row
	return *row, nil
}

func (f *fakeSessionStore) GetByToken(_ context.Context, token string) (model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.RefreshToken == token {
			return *row, nil
		}
	}
	return model.Session{}, pgrepo.ErrSessionNotFound
}

// Rotate mirrors the storage compare-and-swap: the deactivate only matches a
// row that is still active and unexpired, under one lock with the insert.
func (f *fakeSessionStore) Rotate(_ context.Context, oldToken, newToken string, expiresAt, now time.Time) (model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var victim *model.Session
	for _, row := range f.rows {
		if row.RefreshToken == oldToken && row.IsActive && row.ExpiresAt.After(now) {
			victim = row
			break
		}
	}
	if victim == nil {
		return model.Session{}, pgrepo.ErrRotateConflict
	}

	victim.IsActive = false
	victim.LastUsedAt = now

	f.nextID++
	row := &model.Session{
		ID:           f.nextID,
		UserID:       victim.UserID,
		RefreshToken: newToken,
		UserAgent:    victim.UserAgent,
		IPAddress:    victim.IPAddress,
		ExpiresAt:    expiresAt,
		IsActive:     true,
		CreatedAt:    now,
		LastUsedAt:   now,
	}
	f.rows[row.ID] = row
	return *row, nil
}

func (f *fakeSessionStore) RevokeByID(_ context.Context, sessionID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[sessionID]
	if !ok {
		return pgrepo.ErrSessionNotFound
	}
	row.IsActive = false
	return nil
}

func (f *fakeSessionStore) RevokeAllForUser(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var revoked int64
	for _, row := range f.rows {
		if row.UserID == userID && row.IsActive {
			row.IsActive = false
			revoked++
		}
	}
	return revoked, nil
}

func (f *fakeSessionStore) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var purged int64
	for id, row := range f.rows {
		if !row.IsActive && row.ExpiresAt.Before(before) {
			delete(f.rows, id)
			purged++
		}
	}
	return purged, nil
}

func (f *fakeSessionStore) ListByUser(_ context.Context, userID int64) ([]model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sessions := make([]model.Session, 0)
	for _, row := range f.rows {
		if row.UserID == userID {
			sessions = append(sessions, *row)
		}
	}
	return sessions, nil
}

func (f *fakeSessionStore) byID(sessionID int64) *model.Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[sessionID]
	if !ok {
		return nil
	}
	copied := *row
	return &copied
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[int64]model.User
}

func newFakeUserStore(users ...model.User) *fakeUserStore {
	store := &fakeUserStore{users: make(map[int64]model.User)}
	for _, user := range users {
		store.users[user.ID] = user
	}
	return store
}

func (f *fakeUserStore) GetByID(_ context.Context, userID int64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) deactivate(userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user := f.users[userID]
	user.IsActive = false
	f.users[userID] = user
}

func strPtr(v string) *string {
	return &v
}
