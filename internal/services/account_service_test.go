package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mystrymsg/internal/models"
	"mystrymsg/internal/repositories"
	"mystrymsg/internal/repositories/memory"
)

func register(t *testing.T, e *testEnv, username, email string) {
	t.Helper()
	_, err := e.accounts.Register(context.Background(), models.RegisterRequest{
		Username: username, Email: email, Password: "s3cret!",
	})
	require.NoError(t, err)
}

func TestRegisterVerifySignIn(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	username, err := e.accounts.Register(ctx, models.RegisterRequest{Username: "alice", Email: "Alice@X.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	code := e.email.code("alice")
	require.Len(t, code, 6)

	// pending accounts cannot sign in, even with the right password
	_, _, err = e.accounts.SignIn(ctx, "alice", "s3cret!")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	p, err := e.accounts.VerifyCode(ctx, "alice", code)
	require.NoError(t, err)
	assert.True(t, p.IsVerified)
	assert.Equal(t, "alice@x.com", p.Email)

	p, token, err := e.accounts.SignIn(ctx, "alice", "s3cret!")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice", p.Username)

	// sign in by email works too, case-insensitive
	_, _, err = e.accounts.SignIn(ctx, "ALICE@x.com", "s3cret!")
	require.NoError(t, err)

	claims, err := e.auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, claims.AccountID)
}

func TestRegister_Validation(t *testing.T) {
	e := newTestEnv(t)
	cases := []models.RegisterRequest{
		{Username: "a", Email: "a@x.com", Password: "s3cret!"},
		{Username: "bad name", Email: "a@x.com", Password: "s3cret!"},
		{Username: "alice", Email: "not-an-email", Password: "s3cret!"},
		{Username: "alice", Email: "a@x.com", Password: "123"},
	}
	for _, req := range cases {
		_, err := e.accounts.Register(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", req)
	}
	assert.Zero(t, e.email.sent)
}

func TestRegister_Conflicts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.verifiedAccount(t, "alice", "alice@x.com", "s3cret!")

	_, err := e.accounts.Register(ctx, models.RegisterRequest{Username: "alice", Email: "other@x.com", Password: "s3cret!"})
	require.ErrorIs(t, err, ErrUsernameTaken)
	require.ErrorIs(t, err, ErrConflict)

	_, err = e.accounts.Register(ctx, models.RegisterRequest{Username: "alice2", Email: "alice@x.com", Password: "s3cret!"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_SameEmailReissuesCode(t *testing.T) {
	e := newTestEnv(t)
	register(t, e, "bob", "bob@x.com")
	first := e.email.code("bob")

	e.clock.Advance(time.Minute)
	register(t, e, "bob", "bob@x.com")
	second := e.email.code("bob")
	assert.Equal(t, 2, e.email.sent)

	acc, err := e.store.GetByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, second, acc.VerifyCode)
	assert.Equal(t, e.clock.Now().Add(10*time.Minute), acc.VerifyCodeExpiry)
	if first != second {
		_, err = e.accounts.VerifyCode(context.Background(), "bob", first)
		assert.ErrorIs(t, err, ErrCodeInvalid)
	}
}

func TestRegister_PendingEmailNewUsername(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	register(t, e, "bob", "e@x.com")
	old, err := e.store.GetByUsername(ctx, "bob")
	require.NoError(t, err)

	e.clock.Advance(time.Minute)
	register(t, e, "robert", "e@x.com")

	_, err = e.store.GetByUsername(ctx, "bob")
	require.Error(t, err)
	_, err = e.store.GetByID(ctx, old.ID)
	require.Error(t, err, "the old id must not carry a new username")

	acc, err := e.store.GetByUsername(ctx, "robert")
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, acc.ID)
	assert.Equal(t, "e@x.com", acc.Email)

	_, err = e.accounts.VerifyCode(ctx, "robert", e.email.code("robert"))
	require.NoError(t, err)
}

func TestRegister_PendingUsernameLock(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	register(t, e, "carol", "carol@x.com")

	_, err := e.accounts.Register(ctx, models.RegisterRequest{Username: "carol", Email: "mallory@x.com", Password: "s3cret!"})
	require.ErrorIs(t, err, ErrUsernamePending)

	// once the first code lapses the stale record gives way
	e.clock.Advance(10 * time.Minute)
	_, err = e.accounts.Register(ctx, models.RegisterRequest{Username: "carol", Email: "mallory@x.com", Password: "s3cret!"})
	require.NoError(t, err)

	acc, err := e.store.GetByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "mallory@x.com", acc.Email)
	_, err = e.store.GetByEmail(ctx, "carol@x.com")
	assert.Error(t, err)
}

func TestRegister_EmailFailureKeepsAccount(t *testing.T) {
	e := newTestEnv(t)
	e.email.err = errBoom

	_, err := e.accounts.Register(context.Background(), models.RegisterRequest{Username: "dave", Email: "dave@x.com", Password: "s3cret!"})
	require.NoError(t, err)

	acc, err := e.store.GetByUsername(context.Background(), "dave")
	require.NoError(t, err)
	assert.False(t, acc.IsVerified)
}

func TestVerifyCode(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	register(t, e, "alice", "alice@x.com")
	code := e.email.code("alice")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	_, err := e.accounts.VerifyCode(ctx, "nobody", code)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.accounts.VerifyCode(ctx, "alice", "12ab")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.accounts.VerifyCode(ctx, "alice", wrong)
	assert.ErrorIs(t, err, ErrCodeInvalid)

	p, err := e.accounts.VerifyCode(ctx, "alice", code)
	require.NoError(t, err)
	assert.True(t, p.IsVerified)

	// idempotent once verified
	_, err = e.accounts.VerifyCode(ctx, "alice", code)
	assert.NoError(t, err)
}

func TestVerifyCode_ExpiryWinsOverMatch(t *testing.T) {
	e := newTestEnv(t)
	register(t, e, "alice", "alice@x.com")
	code := e.email.code("alice")

	// exactly at the expiry instant the code is already dead
	e.clock.Advance(10 * time.Minute)
	_, err := e.accounts.VerifyCode(context.Background(), "alice", code)
	require.ErrorIs(t, err, ErrCodeExpired)

	acc, err := e.store.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, acc.IsVerified)
}

func TestResendCode(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	register(t, e, "alice", "alice@x.com")

	e.clock.Advance(11 * time.Minute)
	require.NoError(t, e.accounts.ResendCode(ctx, "alice"))
	assert.Equal(t, 2, e.email.sent)

	_, err := e.accounts.VerifyCode(ctx, "alice", e.email.code("alice"))
	require.NoError(t, err)

	assert.ErrorIs(t, e.accounts.ResendCode(ctx, "alice"), ErrAlreadyVerified)
	assert.ErrorIs(t, e.accounts.ResendCode(ctx, "ghost"), ErrNotFound)

	register(t, e, "bob", "bob@x.com")
	e.clock.Advance(time.Minute)
	e.email.err = errBoom
	assert.ErrorIs(t, e.accounts.ResendCode(ctx, "bob"), ErrDependency)
}

func TestResendCode_Cooldown(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	register(t, e, "alice", "alice@x.com")
	first := e.email.code("alice")

	e.clock.Advance(59 * time.Second)
	err := e.accounts.ResendCode(ctx, "alice")
	require.ErrorIs(t, err, ErrResendThrottled)
	require.ErrorIs(t, err, ErrRateLimited)

	// re-registering with the same email is the same mailbox
	_, err = e.accounts.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@x.com", Password: "s3cret!"})
	require.ErrorIs(t, err, ErrResendThrottled)
	assert.Equal(t, 1, e.email.sent)
	assert.Equal(t, first, e.email.code("alice"))

	e.clock.Advance(time.Second)
	require.NoError(t, e.accounts.ResendCode(ctx, "alice"))
	assert.Equal(t, 2, e.email.sent)
	require.ErrorIs(t, e.accounts.ResendCode(ctx, "alice"), ErrResendThrottled)
}

func TestVerifyCode_AttemptCap(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	register(t, e, "alice", "alice@x.com")
	code := e.email.code("alice")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 2; i++ {
		_, err := e.accounts.VerifyCode(ctx, "alice", wrong)
		require.ErrorIs(t, err, ErrCodeInvalid, "attempt %d", i+1)
	}
	_, err := e.accounts.VerifyCode(ctx, "alice", wrong)
	require.ErrorIs(t, err, ErrTooManyAttempts)

	// the right code no longer works either
	_, err = e.accounts.VerifyCode(ctx, "alice", code)
	require.ErrorIs(t, err, ErrTooManyAttempts)
	acc, err := e.store.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, acc.IsVerified)
	assert.Equal(t, 3, acc.VerifyAttempts)

	// a fresh code resets the counter
	e.clock.Advance(time.Minute)
	require.NoError(t, e.accounts.ResendCode(ctx, "alice"))
	fresh := e.email.code("alice")
	wrong = "000000"
	if fresh == wrong {
		wrong = "111111"
	}
	_, err = e.accounts.VerifyCode(ctx, "alice", wrong)
	require.ErrorIs(t, err, ErrCodeInvalid)
	p, err := e.accounts.VerifyCode(ctx, "alice", fresh)
	require.NoError(t, err)
	assert.True(t, p.IsVerified)
}

// vanishingStore loses the pending record between the code check and the
// verified flag update.
type vanishingStore struct {
	*memory.Store
}

func (s vanishingStore) MarkVerified(context.Context, string) error {
	return repositories.ErrNotFound
}

func TestVerifyCode_RecordGoneBeforeMarking(t *testing.T) {
	e := newTestEnv(t)
	register(t, e, "alice", "alice@x.com")
	e.accounts.repo = vanishingStore{e.store}

	_, err := e.accounts.VerifyCode(context.Background(), "alice", e.email.code("alice"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSignIn_Failures(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.verifiedAccount(t, "alice", "alice@x.com", "s3cret!")

	for _, tc := range []struct{ id, pw string }{
		{"alice", "wrong"},
		{"ghost", "s3cret!"},
		{"", "s3cret!"},
		{"alice", ""},
	} {
		_, _, err := e.accounts.SignIn(ctx, tc.id, tc.pw)
		assert.ErrorIs(t, err, ErrInvalidCredentials, "%+v", tc)
	}
}

func TestCheckUsernameAvailable(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	ok, err := e.accounts.CheckUsernameAvailable(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	// a pending registration does not block availability
	register(t, e, "alice", "alice@x.com")
	ok, err = e.accounts.CheckUsernameAvailable(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = e.accounts.VerifyCode(ctx, "alice", e.email.code("alice"))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		ok, err = e.accounts.CheckUsernameAvailable(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, ok)
	}

	_, err = e.accounts.CheckUsernameAvailable(ctx, "no spaces")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAcceptingMessagesToggle(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.verifiedAccount(t, "alice", "alice@x.com", "s3cret!")

	on, err := e.accounts.GetAcceptingMessages(ctx, p)
	require.NoError(t, err)
	assert.True(t, on)

	got, err := e.accounts.SetAcceptingMessages(ctx, p, false)
	require.NoError(t, err)
	assert.False(t, got)

	on, err = e.accounts.GetAcceptingMessages(ctx, p)
	require.NoError(t, err)
	assert.False(t, on)

	_, err = e.accounts.SetAcceptingMessages(ctx, nil, true)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = e.accounts.GetAcceptingMessages(ctx, &models.Principal{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
