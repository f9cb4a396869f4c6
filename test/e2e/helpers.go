// Package e2e exercises the HTTP API against a real SQLite store and a fake
// LLM gateway.
package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperengineering/genscript/internal/api"
	"github.com/hyperengineering/genscript/internal/gateway"
	"github.com/hyperengineering/genscript/internal/generator"
	"github.com/hyperengineering/genscript/internal/store"
)

const testAuthKey = "e2e-auth-key"

// fakeGateway serves canned output_text replies in order and records prompts.
type fakeGateway struct {
	mu      sync.Mutex
	replies []gatewayReply
	prompts []string
	calls   atomic.Int32
	srv     *httptest.Server
}

type gatewayReply struct {
	status int
	output string
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	g := &fakeGateway{}
	g.srv = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *fakeGateway) reply(output string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, gatewayReply{status: http.StatusOK, output: output})
}

func (g *fakeGateway) fail(status int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, gatewayReply{status: status})
}

func (g *fakeGateway) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

func (g *fakeGateway) serve(w http.ResponseWriter, r *http.Request) {
	g.calls.Add(1)
	var req struct {
		Prompt string `json:"prompt"`
	}
	body, _ := io.ReadAll(r.Body)
	json.Unmarshal(body, &req)

	g.mu.Lock()
	g.prompts = append(g.prompts, req.Prompt)
	var rep gatewayReply
	if len(g.replies) > 0 {
		rep = g.replies[0]
		g.replies = g.replies[1:]
	} else {
		rep = gatewayReply{status: http.StatusOK, output: "[]"}
	}
	g.mu.Unlock()

	if rep.status != http.StatusOK {
		http.Error(w, `{"error":"upstream quota exhausted for key sk-secret"}`, rep.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"model":         "fake-model",
		"output_text":   rep.output,
		"finish_reason": "STOP",
		"usage":         map[string]int{"input_tokens": 10, "output_tokens": 20, "total_tokens": 30},
	})
}

type testEnv struct {
	router  http.Handler
	store   *store.SQLiteStore
	gateway *fakeGateway
}

// setupEnv wires the full service the way the serve command does.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "genscript.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gw := newFakeGateway(t)
	client := gateway.NewHTTPClient(gw.srv.URL, "gw-key", gateway.Options{
		ModelName:   "fake-model",
		Temperature: 0.7,
		TopP:        0.95,
	}, 5*time.Second)

	svc := generator.New(client, db, generator.Config{DefaultCount: 10, MaxCount: 50})
	handler := api.NewHandler(svc, db, testAuthKey, "e2e")

	return &testEnv{
		router:  api.NewRouter(handler),
		store:   db,
		gateway: gw,
	}
}

// do sends a request to the router. Mutating requests carry the auth key.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if method != http.MethodGet {
		req.Header.Set("Authorization", "Bearer "+testAuthKey)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}
