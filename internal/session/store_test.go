package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/examtester/internal/api"
	"github.com/stemsi/examtester/internal/config"
	"github.com/stemsi/examtester/internal/guard"
	"github.com/stemsi/examtester/internal/model"
	"github.com/stemsi/examtester/internal/response"
	"github.com/stemsi/examtester/internal/storage"
	"github.com/stemsi/examtester/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var student = model.User{ID: "s1", Name: "Sam Student", Email: "sam@example.com", Role: model.RoleStudent}

type fixture struct {
	fake   *testutil.FakeService
	kv     *storage.Memory
	client *api.Client
	store  *Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := testutil.NewFakeService(t)
	fake.AddUser(student, "secret1")
	kv := storage.NewMemory()
	client := api.New(&config.Config{APIURL: fake.URL(), RequestTimeout: 2 * time.Second}, kv, zerolog.Nop())
	store := NewStore(client, kv, zerolog.Nop())
	client.OnUnauthorized(store.Invalidate)
	return &fixture{fake: fake, kv: kv, client: client, store: store}
}

func (f *fixture) stored(t *testing.T, key string) (string, bool) {
	t.Helper()
	v, ok, err := f.kv.Get(context.Background(), key)
	require.NoError(t, err)
	return v, ok
}

// failingKV rejects every write.
type failingKV struct {
	*storage.Memory
}

func (failingKV) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

// switchableKV rejects writes only once full is set.
type switchableKV struct {
	*storage.Memory
	full bool
}

func (k *switchableKV) Set(ctx context.Context, key, value string) error {
	if k.full {
		return errors.New("disk full")
	}
	return k.Memory.Set(ctx, key, value)
}

func TestLoadingUntilRestore(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.store.Loading())
	assert.Equal(t, guard.Pending, guard.Decide(f.store.GuardState(), model.RoleStudent))

	f.store.Restore(context.Background())
	assert.False(t, f.store.Loading())
	assert.Nil(t, f.store.Current())
	assert.Equal(t, guard.RedirectToLogin, guard.Decide(f.store.GuardState(), model.RoleStudent))
}

func TestRestoreRequiresBothKeys(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	require.NoError(t, f.kv.Set(ctx, config.StorageKey.Token, "tok"))
	f.store.Restore(ctx)
	assert.Nil(t, f.store.Current())
	assert.False(t, f.store.Loading())

	f = newFixture(t)
	require.NoError(t, f.kv.Set(ctx, config.StorageKey.User, `{"id":"s1","name":"Sam","email":"sam@example.com","role":"student"}`))
	f.store.Restore(ctx)
	assert.Nil(t, f.store.Current())
}

func TestRestoreActiveSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.kv.Set(ctx, config.StorageKey.User, `{"id":"s1","name":"Sam Student","email":"sam@example.com","role":"student"}`))
	require.NoError(t, f.kv.Set(ctx, config.StorageKey.Token, "tok"))

	f.store.Restore(ctx)
	sess := f.store.Current()
	require.NotNil(t, sess)
	assert.Equal(t, student, sess.User)
	assert.Equal(t, "tok", f.store.Token())
	assert.Equal(t, guard.Allow, guard.Decide(f.store.GuardState(), model.RoleStudent))
	assert.Equal(t, guard.RedirectToLogin, guard.Decide(f.store.GuardState(), model.RoleTeacher))
}

func TestRestoreIgnoresCorruptUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.kv.Set(ctx, config.StorageKey.User, "{not json"))
	require.NoError(t, f.kv.Set(ctx, config.StorageKey.Token, "tok"))

	f.store.Restore(ctx)
	assert.Nil(t, f.store.Current())
	assert.False(t, f.store.Loading())
}

func TestRestoreRunsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Restore(ctx)

	require.NoError(t, f.kv.Set(ctx, config.StorageKey.User, `{"id":"s1","name":"Sam Student","email":"sam@example.com","role":"student"}`))
	require.NoError(t, f.kv.Set(ctx, config.StorageKey.Token, "tok"))
	f.store.Restore(ctx)
	assert.Nil(t, f.store.Current())
}

func TestLoginPersistsSession(t *testing.T) {
	f := newFixture(t)
	f.store.Restore(context.Background())

	sess, err := f.store.Login(context.Background(), student.Email, "secret1", model.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, student, sess.User)
	assert.Equal(t, sess.Token, f.store.Token())

	token, ok := f.stored(t, config.StorageKey.Token)
	assert.True(t, ok)
	assert.Equal(t, sess.Token, token)
	raw, ok := f.stored(t, config.StorageKey.User)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"s1","name":"Sam Student","email":"sam@example.com","role":"student"}`, raw)
}

func TestLoginFailureLeavesSessionUnchanged(t *testing.T) {
	f := newFixture(t)
	f.store.Restore(context.Background())

	_, err := f.store.Login(context.Background(), student.Email, "wrong", model.RoleStudent)
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
	assert.Nil(t, f.store.Current())
	_, ok := f.stored(t, config.StorageKey.Token)
	assert.False(t, ok)
}

func TestLoginValidatesBeforeNetwork(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Login(context.Background(), "not-an-email", "secret1", model.RoleStudent)
	require.Error(t, err)
	assert.True(t, response.IsValidation(err))

	_, err = f.store.Login(context.Background(), student.Email, "secret1", model.Role("janitor"))
	require.Error(t, err)
	assert.True(t, response.IsValidation(err))

	assert.Empty(t, f.fake.Calls())
}

func TestLoginPersistFailureKeepsSessionAbsent(t *testing.T) {
	fake := testutil.NewFakeService(t)
	fake.AddUser(student, "secret1")
	kv := failingKV{storage.NewMemory()}
	client := api.New(&config.Config{APIURL: fake.URL(), RequestTimeout: 2 * time.Second}, kv, zerolog.Nop())
	store := NewStore(client, kv, zerolog.Nop())

	_, err := store.Login(context.Background(), student.Email, "secret1", model.RoleStudent)
	require.Error(t, err)
	assert.Equal(t, "Failed to save session", err.Error())
	assert.Nil(t, store.Current())
}

func TestReloginPersistFailureEndsPreviousSession(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeService(t)
	fake.AddUser(student, "secret1")
	kv := &switchableKV{Memory: storage.NewMemory()}
	client := api.New(&config.Config{APIURL: fake.URL(), RequestTimeout: 2 * time.Second}, kv, zerolog.Nop())
	store := NewStore(client, kv, zerolog.Nop())

	_, err := store.Login(ctx, student.Email, "secret1", model.RoleStudent)
	require.NoError(t, err)
	require.NotNil(t, store.Current())

	kv.full = true
	_, err = store.Login(ctx, student.Email, "secret1", model.RoleStudent)
	require.Error(t, err)
	assert.Equal(t, "Failed to save session", err.Error())

	assert.Nil(t, store.Current())
	assert.Empty(t, store.Token())
	_, hasToken, err := kv.Get(ctx, config.StorageKey.Token)
	require.NoError(t, err)
	assert.False(t, hasToken)
	_, hasUser, err := kv.Get(ctx, config.StorageKey.User)
	require.NoError(t, err)
	assert.False(t, hasUser)
}

func TestSignupAcceptsShortPasswordAndName(t *testing.T) {
	f := newFixture(t)

	sess, err := f.store.Signup(context.Background(), "jo@example.com", "abc", model.RoleStudent, "J")
	require.NoError(t, err)
	assert.Equal(t, "J", sess.User.Name)
	assert.Equal(t, 1, f.fake.CallCount("POST", "/auth/signup"))
}

func TestSignupEstablishesSession(t *testing.T) {
	f := newFixture(t)

	sess, err := f.store.Signup(context.Background(), "tia@example.com", "secret1", model.RoleTeacher, "Tia Teacher")
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, sess.User.Role)
	assert.Equal(t, "Tia Teacher", sess.User.Name)
	assert.False(t, f.store.Loading())
	assert.Equal(t, guard.Allow, guard.Decide(f.store.GuardState(), model.RoleTeacher))
}

func TestSignupDuplicateReturnsServiceMessage(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Signup(context.Background(), student.Email, "secret1", model.RoleStudent, "Sam Again")
	require.Error(t, err)
	assert.Equal(t, "User already exists", err.Error())
}

func TestSignupValidatesName(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Signup(context.Background(), "new@example.com", "secret1", model.RoleStudent, "")
	require.Error(t, err)
	assert.True(t, response.IsValidation(err))
	assert.Empty(t, f.fake.Calls())
}

func TestLogoutClearsEverything(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Login(context.Background(), student.Email, "secret1", model.RoleStudent)
	require.NoError(t, err)

	f.store.Logout(context.Background())
	assert.Nil(t, f.store.Current())
	assert.Empty(t, f.store.Token())
	_, ok := f.stored(t, config.StorageKey.Token)
	assert.False(t, ok)
	_, ok = f.stored(t, config.StorageKey.User)
	assert.False(t, ok)

	f.store.Logout(context.Background())
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Login(context.Background(), student.Email, "secret1", model.RoleStudent)
	require.NoError(t, err)
	f.fake.RevokeTokens()

	_, err = f.client.ListExams(context.Background())
	require.Error(t, err)
	assert.Nil(t, f.store.Current())
	_, ok := f.stored(t, config.StorageKey.Token)
	assert.False(t, ok)
}

func TestCurrentReturnsCopy(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Login(context.Background(), student.Email, "secret1", model.RoleStudent)
	require.NoError(t, err)

	sess := f.store.Current()
	sess.User.Role = model.RoleAdmin
	assert.Equal(t, model.RoleStudent, f.store.Current().User.Role)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		Role:             "student",
	}).SignedString([]byte("anything"))
	require.NoError(t, err)

	got, ok := tokenExpiry(signed)
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = tokenExpiry("opaque-token")
	assert.False(t, ok)

	_, ok = tokenExpiry("")
	assert.False(t, ok)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "student"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, ok = tokenExpiry(noExp)
	assert.False(t, ok)
}

func TestTokenExpiryAfterLogin(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Login(context.Background(), student.Email, "secret1", model.RoleStudent)
	require.NoError(t, err)

	exp, ok := f.store.TokenExpiry()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(testutil.TokenTTL), exp, time.Minute)
}

func TestStoreTokenExpiryWithoutSession(t *testing.T) {
	f := newFixture(t)
	_, ok := f.store.TokenExpiry()
	assert.False(t, ok)
}
