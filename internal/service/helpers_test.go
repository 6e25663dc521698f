package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/examtester/internal/api"
	"github.com/stemsi/examtester/internal/config"
	"github.com/stemsi/examtester/internal/model"
	"github.com/stemsi/examtester/internal/storage"
	"github.com/stemsi/examtester/internal/testutil"
	"github.com/stretchr/testify/require"
)

var (
	student = model.User{ID: "s1", Name: "Sam Student", Email: "sam@example.com", Role: model.RoleStudent}
	teacher = model.User{ID: "t1", Name: "Tia Teacher", Email: "tia@example.com", Role: model.RoleTeacher}
	admin   = model.User{ID: "a1", Name: "Ada Admin", Email: "ada@example.com", Role: model.RoleAdmin}
)

// clientAs returns a gateway signed in to fake as user, plus its store.
func clientAs(t *testing.T, fake *testutil.FakeService, user model.User) (*api.Client, *storage.Memory) {
	t.Helper()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(context.Background(), config.StorageKey.Token, fake.IssueToken(user)))
	cfg := &config.Config{APIURL: fake.URL(), RequestTimeout: 2 * time.Second}
	return api.New(cfg, kv, zerolog.Nop()), kv
}

func writeFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	return path
}
