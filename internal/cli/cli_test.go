package cli

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/database"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/server"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	registerOnce.Do(registerCommands)
	remoteURL, userFlag, tokenFlag, storeFlag = "", "", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func clientEnv(t *testing.T, remote, token string) {
	t.Helper()
	t.Setenv("LEVELUP_USER_ID", "u1")
	t.Setenv("LEVELUP_REMOTE_URL", remote)
	t.Setenv("LEVELUP_TOKEN", token)
	t.Setenv("LOCAL_STORE", "sqlite")
	t.Setenv("LOCAL_STORE_PATH", t.TempDir())
	t.Setenv("LOG_LEVEL", "error")
}

func TestCommandTree(t *testing.T) {
	registerOnce.Do(registerCommands)

	for _, path := range [][]string{
		{"serve"}, {"session", "issue"}, {"session", "revoke"}, {"run"}, {"sync"}, {"status"},
		{"task", "add"}, {"task", "update"}, {"task", "complete"}, {"task", "delete"}, {"task", "list"},
		{"flashcard", "add"}, {"flashcard", "review"}, {"flashcard", "delete"}, {"flashcard", "list"}, {"flashcard", "import"},
		{"streak", "record"}, {"streak", "show"},
		{"agent", "ask"}, {"agent", "flashcards"}, {"agent", "reward"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestOfflineCommandsUseLocalStore(t *testing.T) {
	// nothing listens on port 1
	clientEnv(t, "http://127.0.0.1:1", "")

	out, err := execute(t, "task", "add", "Write", "report", "--xp", "700", "--money", "10")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "added "), out)
	id := strings.Fields(out)[1]

	out, err = execute(t, "task", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Write report")

	out, err = execute(t, "task", "complete", id)
	require.NoError(t, err)
	assert.Equal(t, "+700 XP, +10 money (level 2, rank E)\n", out)

	out, err = execute(t, "streak", "record", "gym")
	require.NoError(t, err)
	assert.Equal(t, "gym streak: 1\n", out)

	out, err = execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "2 (rank E, 700 XP to next)")
	assert.Contains(t, out, "0 pending of 1")
	assert.Contains(t, out, "offline")

	_, err = execute(t, "task", "complete", "missing")
	assert.ErrorIs(t, err, state.ErrNotFound)

	_, err = execute(t, "sync")
	assert.ErrorContains(t, err, "unreachable")
}

func TestCommandsSyncWithGateway(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "gateway.db")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DATABASE_URL", dbPath)
	t.Setenv("LOG_LEVEL", "error")

	out, err := execute(t, "session", "issue", "u1")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	db, err := database.Open(database.TypeSQLite, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	docs := database.NewDocumentRepository(db)
	gw := server.New(server.Deps{
		Documents: docs,
		Streaks:   database.NewStreakRepository(db),
		Tokens:    database.NewSessionRepository(db),
	})
	ts := httptest.NewServer(gw.Router())
	t.Cleanup(ts.Close)
	clientEnv(t, ts.URL, token)

	_, err = execute(t, "task", "add", "Read book", "--xp", "50", "--money", "5")
	require.NoError(t, err)

	doc, err := docs.Load(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, doc.Tasks, 1)
	for _, task := range doc.Tasks {
		assert.Equal(t, "Read book", task.Title)
		assert.Equal(t, 50, task.XP)
	}

	_, err = execute(t, "streak", "record", "gym")
	require.NoError(t, err)
	out, err = execute(t, "streak", "show", "--gateway")
	require.NoError(t, err)
	assert.Regexp(t, `gym\s+1\n`, out)

	out, err = execute(t, "sync")
	require.NoError(t, err)
	assert.Equal(t, "synced\n", out)
}
