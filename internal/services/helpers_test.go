package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mystrymsg/internal/logging"
	"mystrymsg/internal/models"
	"mystrymsg/internal/repositories/memory"
)

const testSecret = "test-secret-0123456789"

type fakeEmail struct {
	mu    sync.Mutex
	codes map[string]string // username -> last code
	sent  int
	err   error
}

func (f *fakeEmail) SendVerificationEmail(_ context.Context, _, username, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.codes == nil {
		f.codes = make(map[string]string)
	}
	f.codes[username] = code
	f.sent++
	return nil
}

func (f *fakeEmail) code(username string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[username]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store    *memory.Store
	email    *fakeEmail
	clock    *clock
	auth     AuthService
	accounts *accountService
	messages *messageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	email := &fakeEmail{}
	clk := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	auth := &authService{secret: []byte(testSecret), ttl: time.Hour, cost: bcrypt.MinCost}
	logger := logging.Discard()

	policy := VerificationPolicy{CodeTTL: 10 * time.Minute, MaxAttempts: 3, ResendCooldown: time.Minute}
	accounts := NewAccountService(store, auth, email, nil, logger, policy).(*accountService)
	accounts.now = clk.Now
	messages := NewMessageService(store, store, nil, logger).(*messageService)
	messages.now = clk.Now

	return &testEnv{store: store, email: email, clock: clk, auth: auth, accounts: accounts, messages: messages}
}

// verifiedAccount registers and verifies username, returning its principal.
func (e *testEnv) verifiedAccount(t *testing.T, username, email, password string) *models.Principal {
	t.Helper()
	ctx := context.Background()
	if _, err := e.accounts.Register(ctx, models.RegisterRequest{Username: username, Email: email, Password: password}); err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	p, err := e.accounts.VerifyCode(ctx, username, e.email.code(username))
	if err != nil {
		t.Fatalf("verify %s: %v", username, err)
	}
	return p
}

var errBoom = errors.New("boom")
