package offline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestWorker(t *testing.T, server *httptest.Server) *Worker {
	t.Helper()
	t.Setenv("TUTORVIEW_CACHE_DIR", t.TempDir())
	worker, err := NewWorker(server.URL, server.Client(), nil)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	t.Cleanup(worker.Close)
	return worker
}

func TestInstallCachesManifest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("asset:" + r.URL.Path))
	}))
	defer server.Close()

	worker := newTestWorker(t, server)
	manifest := Manifest{
		Root:   server.URL + "/",
		Assets: []string{server.URL + "/static/style.css", server.URL + "/static/viewer.js"},
	}
	if err := worker.Install(context.Background(), manifest); err != nil {
		t.Fatalf("Install: %v", err)
	}
	for _, asset := range manifest.All() {
		if !worker.Cached(asset) {
			t.Fatalf("asset %q not cached after install", asset)
		}
	}
}

func TestInstallIsAllOrNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/static/broken.js" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	worker := newTestWorker(t, server)
	manifest := Manifest{
		Root:   server.URL + "/",
		Assets: []string{server.URL + "/static/style.css", server.URL + "/static/broken.js"},
	}
	if err := worker.Install(context.Background(), manifest); err == nil {
		t.Fatal("expected install to fail on the missing asset")
	}
	if worker.Cached(server.URL + "/") {
		t.Fatal("root cached despite failed install")
	}
	if worker.Cached(server.URL + "/static/style.css") {
		t.Fatal("sibling asset cached despite failed install")
	}

	entries, err := os.ReadDir(worker.dir)
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("cache dir not empty after failed install: %v", entries)
	}
}

func TestServeCacheFirst(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("network body"))
	}))
	defer server.Close()

	worker := newTestWorker(t, server)
	target := server.URL + "/static/app.js"

	first, err := worker.Serve(context.Background(), http.MethodGet, target, false)
	if err != nil {
		t.Fatalf("Serve (cold): %v", err)
	}
	if first.FromCache {
		t.Fatal("cold request reported FromCache")
	}

	second, err := worker.Serve(context.Background(), http.MethodGet, target, false)
	if err != nil {
		t.Fatalf("Serve (warm): %v", err)
	}
	if !second.FromCache {
		t.Fatal("warm request should come from cache")
	}
	if string(second.Body) != "network body" {
		t.Fatalf("warm body = %q", second.Body)
	}
	if hits.Load() != 1 {
		t.Fatalf("server hits = %d, want 1", hits.Load())
	}
}

func TestServeDoesNotCacheNonQualifyingResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	crossOrigin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("other origin"))
	}))
	defer crossOrigin.Close()

	worker := newTestWorker(t, server)

	result, err := worker.Serve(context.Background(), http.MethodGet, server.URL+"/missing", false)
	if err != nil {
		t.Fatalf("Serve 404: %v", err)
	}
	if result.Status != http.StatusNotFound {
		t.Fatalf("status = %d", result.Status)
	}
	if worker.Cached(server.URL + "/missing") {
		t.Fatal("404 response was cached")
	}

	if _, err := worker.Serve(context.Background(), http.MethodPost, server.URL+"/submit", false); err != nil {
		t.Fatalf("Serve POST: %v", err)
	}
	if worker.Cached(server.URL + "/submit") {
		t.Fatal("POST response was cached")
	}

	if _, err := worker.Serve(context.Background(), http.MethodGet, crossOrigin.URL+"/lib.js", false); err != nil {
		t.Fatalf("Serve cross-origin: %v", err)
	}
	if worker.Cached(crossOrigin.URL + "/lib.js") {
		t.Fatal("cross-origin response was cached")
	}
}

func TestOfflineNavigationFallsBackToRoot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("root document"))
	}))

	worker := newTestWorker(t, server)
	if err := worker.Install(context.Background(), Manifest{Root: server.URL + "/"}); err != nil {
		t.Fatalf("Install: %v", err)
	}
	server.Close()

	result, err := worker.Serve(context.Background(), http.MethodGet, server.URL+"/some/page", true)
	if err != nil {
		t.Fatalf("navigation fallback: %v", err)
	}
	if !result.FromCache || string(result.Body) != "root document" {
		t.Fatalf("fallback result = %#v", result)
	}

	_, err = worker.Serve(context.Background(), http.MethodGet, server.URL+"/asset.js", false)
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("non-navigation err = %v, want ErrNoResponse", err)
	}
}

func TestActivatePrunesStaleNamespaces(t *testing.T) {
	root := t.TempDir()
	t.Setenv("TUTORVIEW_CACHE_DIR", root)

	stale := filepath.Join(root, namespacePrefix+"v1")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatalf("mkdir stale: %v", err)
	}
	unrelated := filepath.Join(root, "some-other-app")
	if err := os.MkdirAll(unrelated, 0o755); err != nil {
		t.Fatalf("mkdir unrelated: %v", err)
	}

	worker, err := NewWorker("http://localhost:1", nil, nil)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	defer worker.Close()

	if worker.Active() {
		t.Fatal("worker should start in the waiting state")
	}
	if err := worker.Activate(context.Background()); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !worker.Active() {
		t.Fatal("worker not active after Activate")
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale namespace survived activation")
	}
	if _, err := os.Stat(filepath.Join(root, CacheVersion)); err != nil {
		t.Fatalf("current namespace missing: %v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatalf("unrelated directory touched: %v", err)
	}
}

func TestSkipWaitingMessageActivates(t *testing.T) {
	t.Setenv("TUTORVIEW_CACHE_DIR", t.TempDir())
	worker, err := NewWorker("http://localhost:1", nil, nil)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	defer worker.Close()

	worker.Messages() <- Message{Type: MsgSkipWaiting}

	deadline := time.Now().Add(2 * time.Second)
	for !worker.Active() {
		if time.Now().After(deadline) {
			t.Fatal("worker never activated after SKIP_WAITING")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestUnknownMessageIsIgnored(t *testing.T) {
	t.Setenv("TUTORVIEW_CACHE_DIR", t.TempDir())
	worker, err := NewWorker("http://localhost:1", nil, nil)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	defer worker.Close()

	worker.Messages() <- Message{Type: "REFRESH_EVERYTHING"}
	worker.Messages() <- Message{Type: MsgSync, Payload: "annotations"}

	time.Sleep(50 * time.Millisecond)
	if worker.Active() {
		t.Fatal("unknown messages must not activate the worker")
	}
}
