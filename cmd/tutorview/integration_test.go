package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/csheth/tutorview/internal/tuitest"
)

// fakeContentServer serves a three-page document with the same envelope
// shapes the real content API uses.
func fakeContentServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/page/", func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/page/"))
		if err != nil || n < 1 || n > 3 {
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   fmt.Sprintf("Page %d does not exist", n),
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"total_pages":  3,
			"current_page": n,
			"page": map[string]any{
				"page_number": n,
				"elements": []map[string]any{
					{"type": "text", "content": map[string]any{
						"text":      fmt.Sprintf("Chapter %d heading", n),
						"font_size": 20,
					}},
					{"type": "text", "content": map[string]any{
						"text":      fmt.Sprintf("Body copy for page %d of the tutorial.", n),
						"font_size": 12,
					}},
				},
			},
		})
	})
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	})
	mux.HandleFunc("/api/bookmark", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "bookmarks": []int{}})
	})
	mux.HandleFunc("/api/notes", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "notes": map[string]string{}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestViewerPagesThroughDocument(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test builds and runs the binary")
	}

	server := fakeContentServer(t)
	binary := buildBinary(t)

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "-no-alt-screen", "-precache=false", "-server", server.URL, "-page", "1"},
		Env:     tuitest.IsolatedEnv(t.TempDir(), t.TempDir()),
		Width:   120,
		Height:  32,
		Steps: []tuitest.Step{
			{Delay: 2 * time.Second},
			{Input: tuitest.KeyRight},
			{Delay: time.Second},
			{Input: tuitest.KeyCtrlC},
		},
		Timeout:        20 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run viewer: %v", err)
	}

	if !rec.ContainsFrame("Chapter 1 heading") {
		t.Fatalf("first page never rendered; final frame:\n%s", finalPlain(rec))
	}
	if !rec.ContainsFrame("Chapter 2 heading") {
		t.Fatalf("right arrow did not advance to page 2; final frame:\n%s", finalPlain(rec))
	}
	if !rec.ContainsFrame("Page 2 / 3") {
		t.Fatalf("page indicator missing; final frame:\n%s", finalPlain(rec))
	}
}

func TestViewerShowsRetryWhenServerIsDown(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test builds and runs the binary")
	}

	binary := buildBinary(t)

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "-no-alt-screen", "-precache=false", "-server", "http://127.0.0.1:1"},
		Env:     tuitest.IsolatedEnv(t.TempDir(), t.TempDir()),
		Width:   120,
		Height:  32,
		Steps: []tuitest.Step{
			{Delay: 2 * time.Second},
			{Input: []byte("q")},
		},
		Timeout:        20 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run viewer: %v", err)
	}

	if !rec.ContainsFrame("retry") {
		t.Fatalf("failure screen missing retry hint; final frame:\n%s", finalPlain(rec))
	}
}

func buildBinary(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime caller unavailable")
	}
	cmdDir := filepath.Dir(file)

	name := "tutorview-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build viewer: %v\n%s", err, output)
	}
	return binPath
}

func finalPlain(rec *tuitest.Recording) string {
	frame, ok := rec.FinalFrame()
	if !ok {
		return "(no frames)"
	}
	return frame.Plain
}
