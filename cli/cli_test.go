package cli

import (
	"bytes"
	"context"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ViniZap4/lumi-notes/http"
	"github.com/ViniZap4/lumi-notes/repo"
)

func setup(t *testing.T) {
	t.Helper()
	t.Setenv("LUMI_HOME", t.TempDir())
	t.Setenv("LUMI_LOG_LEVEL", "error")
	t.Setenv("LUMI_EDITOR_DEBOUNCE", "10ms")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func startAPI(t *testing.T) {
	t.Helper()
	srv := http.NewServer(repo.NewMemory(), http.Config{BcryptCost: bcrypt.MinCost}, zerolog.Nop())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Shutdown() })
	t.Setenv("LUMI_API_BASE_URL", "http://"+ln.Addr().String())
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := run(t, "", args...)
	require.NoError(t, err, stderr)
	return out
}

func TestRemoteWorkflow(t *testing.T) {
	setup(t)
	startAPI(t)

	assert.Equal(t, "Not signed in\n", mustRun(t, "whoami"))
	_, _, err := run(t, "", "notes", "list")
	assert.ErrorContains(t, err, "not signed in")

	out := mustRun(t, "register", "--name", "Ada", "--email", "ada@example.com", "--password", "correct horse")
	assert.Equal(t, "Signed in as Ada <ada@example.com>\n", out)
	assert.Contains(t, mustRun(t, "whoami"), "ada@example.com")

	id := strings.TrimSpace(mustRun(t, "notes", "new", "Groceries", "--content", "milk"))
	require.NotEmpty(t, id)
	assert.Contains(t, mustRun(t, "notes", "list"), "Groceries")

	assert.Equal(t, "Renamed "+id+"\n", mustRun(t, "notes", "rename", id, "Weekly groceries"))
	shown := mustRun(t, "notes", "show", id)
	assert.Contains(t, shown, "# Weekly groceries")
	assert.Contains(t, shown, "milk")

	_, _, err = run(t, "", "notes", "rename", id, "  ")
	assert.Error(t, err)

	assert.Equal(t, "Deleted "+id+"\n", mustRun(t, "notes", "delete", id))
	assert.Equal(t, "No notes yet\n", mustRun(t, "notes", "list"))

	assert.Equal(t, "Session refreshed\n", mustRun(t, "refresh"))

	_, stderr, err := run(t, "", "--trace", "notes", "list")
	require.NoError(t, err)
	assert.Contains(t, stderr, "/api/notes")

	assert.Equal(t, "Signed out\n", mustRun(t, "logout"))
	assert.Equal(t, "Not signed in\n", mustRun(t, "whoami"))

	out, _, err = run(t, "correct horse\n", "login", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Ada")

	_, _, err = run(t, "", "login", "--email", "ada@example.com", "--password", "wrong password")
	assert.ErrorContains(t, err, "invalid email or password")
}

func TestLocalBackendNeedsNoAccount(t *testing.T) {
	setup(t)
	t.Setenv("LUMI_NOTES_BACKEND", "local")

	first := strings.TrimSpace(mustRun(t, "notes", "new", "First"))
	second := strings.TrimSpace(mustRun(t, "notes", "new", "Second", "--content", "body"))
	require.NotEmpty(t, first)
	require.NotEmpty(t, second)

	list := mustRun(t, "notes", "list")
	assert.Less(t, strings.Index(list, "Second"), strings.Index(list, "First"), "newest first")

	mustRun(t, "notes", "delete", first)
	assert.NotContains(t, mustRun(t, "notes", "list"), "First")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchReprintsOnChange(t *testing.T) {
	setup(t)
	t.Setenv("LUMI_NOTES_BACKEND", "local")
	mustRun(t, "notes", "new", "First")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd := NewRootCmd()
	var out, errOut syncBuffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"notes", "watch", "--interval", "20ms"})
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "First") }, 2*time.Second, 10*time.Millisecond)
	mustRun(t, "notes", "new", "Second")
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "Second") }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err, errOut.String())
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Equal(t, 2, strings.Count(out.String(), "ID"), "unchanged refreshes are not reprinted")
}

func TestBadConfigFails(t *testing.T) {
	setup(t)
	t.Setenv("LUMI_STORAGE_DRIVER", "floppy")
	_, _, err := run(t, "", "whoami")
	assert.ErrorContains(t, err, "storage.driver")
}
