package cleanup

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"cachesweep/internal/identity"
)

const mb = 1 << 20

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// sparseFile creates a file with the given apparent size without writing
// its contents.
func sparseFile(t *testing.T, path string, size int64) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
}

// snapshot maps every path under root to its size and mode.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size := int64(0)
		if !info.IsDir() {
			size = info.Size()
		}
		out[p] = fmt.Sprintf("%s:%d", info.Mode(), size)
		return nil
	})
	require.NoError(t, err)
	return out
}

func skipIfRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
}

func plainIdentity(home string) *identity.Identity {
	uid := os.Getuid()
	return &identity.Identity{
		UID:     uid,
		EUID:    uid,
		Current: identity.User{Name: "tester", UID: uid, Home: home},
	}
}

func elevatedIdentity(home string) *identity.Identity {
	return &identity.Identity{
		UID:      0,
		EUID:     0,
		Current:  identity.User{Name: "root", UID: 0, Home: "/var/root"},
		Invoking: &identity.User{Name: "alice", UID: 501, Home: home},
	}
}

type delegateCall struct {
	User string
	Dir  string
}

// fakeDelegator records delegations and returns Err.
type fakeDelegator struct {
	Calls []delegateCall
	Err   error
}

func (f *fakeDelegator) RemoveContents(_ context.Context, as identity.User, dir string) error {
	f.Calls = append(f.Calls, delegateCall{User: as.Name, Dir: dir})
	return f.Err
}
