package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/gitgraph/internal/history"
	"github.com/kurobon/gitgraph/internal/layout"
	"github.com/kurobon/gitgraph/internal/refresh"
	"github.com/kurobon/gitgraph/internal/render"
)

// newRepo returns an in-memory repository with n linear commits on master.
func newRepo(t *testing.T, n int) *gogit.Repository {
	t.Helper()
	repo, err := gogit.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("file%d.txt", i)
		require.NoError(t, util.WriteFile(wt.Filesystem, name, []byte(name), 0644))
		_, err := wt.Add(name)
		require.NoError(t, err)
		_, err = wt.Commit(fmt.Sprintf("commit %d", i), &gogit.CommitOptions{
			Author: &object.Signature{Name: "Tester", Email: "test@test.com", When: base.Add(time.Duration(i) * time.Minute)},
		})
		require.NoError(t, err)
	}
	return repo
}

func newTestServer(t *testing.T, src history.Source, pageSize int) *httptest.Server {
	t.Helper()
	session := refresh.NewSession(src, pageSize, layout.DefaultSpacing)
	ts := httptest.NewServer(NewServer(session))
	t.Cleanup(ts.Close)
	return ts
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServerEndpoints(t *testing.T) {
	ts := newTestServer(t, history.NewGitSource(newRepo(t, 5)), 3)
	client := ts.Client()

	t.Run("Ping", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/ping")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "pong", decode[map[string]string](t, resp)["message"])
	})

	t.Run("Graph before reload is empty", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/graph")
		require.NoError(t, err)
		g := decode[GraphResponse](t, resp)
		assert.Empty(t, g.Nodes)
		assert.Equal(t, 0, g.State.Loaded)
	})

	t.Run("Reload", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/graph/reload", "application/json", nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		g := decode[GraphResponse](t, resp)
		assert.Len(t, g.Nodes, 3)
		assert.Len(t, g.Edges, 2)
		assert.True(t, g.State.HasMore)
		assert.Equal(t, 5, g.State.Total)
		assert.True(t, g.Nodes[0].Commit.IsHead)
		assert.Equal(t, "commit 4", g.Nodes[0].Commit.Message)
	})

	t.Run("Load more", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/graph/more", "application/json", nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		g := decode[GraphResponse](t, resp)
		assert.Len(t, g.Nodes, 5)
		assert.Len(t, g.Edges, 4)
		assert.False(t, g.State.HasMore)
		require.NoError(t, layout.Validate(layout.Result{Nodes: g.Nodes, Edges: g.Edges}))
	})

	t.Run("Text", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/graph/text?width=60")
		require.NoError(t, err)
		text := decode[TextResponse](t, resp)
		require.Len(t, text.Rows, 9)
		assert.Equal(t, "◉", text.Rows[0].Graph)
		assert.True(t, strings.HasPrefix(text.Rows[0].Info, "["))

		resp, err = client.Get(ts.URL + "/api/graph/text?format=plain")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "(master) commit 4")
	})

	t.Run("Text bad width", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/graph/text?width=wide")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Navigate", func(t *testing.T) {
		body, _ := json.Marshal(NavigateRequest{Key: "G"})
		resp, err := client.Post(ts.URL+"/api/navigate", "application/json", bytes.NewBuffer(body))
		require.NoError(t, err)
		nav := decode[NavigateResponse](t, resp)
		require.Len(t, nav.Commands, 1)
		assert.Equal(t, 4, nav.State.Index)
		assert.Equal(t, nav.State.Selected, nav.Commands[0].NodeID)

		body, _ = json.Marshal(NavigateRequest{Key: "j"})
		resp, err = client.Post(ts.URL+"/api/navigate", "application/json", bytes.NewBuffer(body))
		require.NoError(t, err)
		nav = decode[NavigateResponse](t, resp)
		assert.Empty(t, nav.Commands, "already at the bottom")
	})

	t.Run("Navigate unknown key", func(t *testing.T) {
		body, _ := json.Marshal(NavigateRequest{Key: "x"})
		resp, err := client.Post(ts.URL+"/api/navigate", "application/json", bytes.NewBuffer(body))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decode[map[string]string](t, resp)["error"], "not a navigation key")
	})

	t.Run("Invalid Method", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/graph/reload")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

type brokenSource struct{}

func (brokenSource) Commits(context.Context, int, int) (*history.Page, error) {
	return nil, errors.New("object not found")
}

func (brokenSource) WorkingTree(context.Context) (history.WorkingTreeStatus, error) {
	return history.WorkingTreeStatus{Clean: true}, nil
}

func (brokenSource) RemoteHead(context.Context) (string, bool, error) {
	return "", false, nil
}

func TestReloadFailureIsBadGateway(t *testing.T) {
	ts := newTestServer(t, brokenSource{}, 10)

	resp, err := ts.Client().Post(ts.URL+"/api/graph/reload", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "fetch failed")
}

// failingWriter accepts headers but rejects every body write.
type failingWriter struct {
	*httptest.ResponseRecorder
	writes int
}

func (f *failingWriter) Write([]byte) (int, error) {
	f.writes++
	return 0, errors.New("connection reset by peer")
}

func TestPlainTextStopsOnWriteError(t *testing.T) {
	session := refresh.NewSession(history.NewGitSource(newRepo(t, 4)), 10, layout.DefaultSpacing)
	_, err := session.Reload(context.Background())
	require.NoError(t, err)
	require.Greater(t, len(session.Text(render.Options{})), 1)

	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	w := &failingWriter{ResponseRecorder: httptest.NewRecorder()}
	req := httptest.NewRequest(http.MethodGet, "/api/graph/text?format=plain", nil)
	NewServer(session).ServeHTTP(w, req)

	assert.Equal(t, 1, w.writes, "no further lines after the first failed write")
	assert.Contains(t, logs.String(), "Server: failed to write text response: connection reset by peer")
}
