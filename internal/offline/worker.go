// Package offline is the cache worker: an independent execution context that
// intercepts asset fetches, serves cached copies when the network is gone,
// and manages the versioned cache namespace. It shares no state with the UI
// loop; control arrives only through its message channel.
package offline

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	cacheEnvVar     = "TUTORVIEW_CACHE_DIR"
	namespacePrefix = "tutorview-static-"

	// CacheVersion names the one namespace this build may serve from.
	// Activation deletes every other generation.
	CacheVersion = namespacePrefix + "v2"

	partialSuffix      = ".part"
	defaultHTTPTimeout = 30 * time.Second
)

// Message types accepted on the worker's channel.
const (
	MsgSkipWaiting = "SKIP_WAITING"
	MsgSync        = "SYNC"
	MsgPush        = "PUSH"
)

// Message is the structured control envelope posted to the worker.
type Message struct {
	Type    string
	Payload string
}

// ErrNoResponse reports a request that could not be served from cache or
// network. Navigation requests never see it as long as the root document is
// cached.
var ErrNoResponse = errors.New("offline: no response available")

// Manifest is the fixed static-asset list pre-populated at install time: the
// root document plus stylesheets, scripts, and pinned third-party bundles.
// Installation is all-or-nothing per attempt.
type Manifest struct {
	Root   string
	Assets []string
}

// All returns every manifest URL, root first.
func (m Manifest) All() []string {
	return append([]string{m.Root}, m.Assets...)
}

// Result is a served response.
type Result struct {
	Body      []byte
	Status    int
	FromCache bool
}

// Worker caches and serves static assets. One Worker generation owns one
// versioned directory under the cache root.
type Worker struct {
	root    string
	dir     string
	origin  string
	rootURL string
	client  *http.Client
	logger  *zap.Logger

	messages chan Message
	closed   chan struct{}
	active   atomic.Bool
	once     sync.Once
}

// NewWorker builds a worker serving the given API origin. The cache root is
// TUTORVIEW_CACHE_DIR, else the user cache dir. The worker starts in the
// waiting state; Activate (or a SKIP_WAITING message) makes it the live
// generation and prunes the others.
func NewWorker(origin string, client *http.Client, logger *zap.Logger) (*Worker, error) {
	root := os.Getenv(cacheEnvVar)
	if root == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "tutorview-cache")
		}
		root = base
	}
	dir := filepath.Join(root, CacheVersion)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Worker{
		root:     root,
		dir:      dir,
		origin:   strings.TrimRight(origin, "/"),
		client:   client,
		logger:   logger,
		messages: make(chan Message, 8),
		closed:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Messages is the control channel shared with the page context.
func (w *Worker) Messages() chan<- Message {
	return w.messages
}

// Close stops the message loop. Cached files stay on disk.
func (w *Worker) Close() {
	w.once.Do(func() { close(w.closed) })
}

// Active reports whether this generation has been activated.
func (w *Worker) Active() bool {
	return w.active.Load()
}

func (w *Worker) loop() {
	for {
		select {
		case <-w.closed:
			return
		case msg := <-w.messages:
			switch msg.Type {
			case MsgSkipWaiting:
				// Force immediate activation instead of waiting for the
				// previous generation's clients to go away.
				if err := w.Activate(context.Background()); err != nil {
					w.logger.Warn("skip-waiting activation failed", zap.Error(err))
				}
			case MsgSync:
				w.handleSync(msg.Payload)
			case MsgPush:
				w.handlePush(msg.Payload)
			default:
				w.logger.Debug("ignoring unknown worker message", zap.String("type", msg.Type))
			}
		}
	}
}

// Install pre-populates the cache with the manifest as a unit. Any fetch or
// write failure discards the attempt's partial files and returns the error;
// callers log it and carry on, since a failed install must not block later
// serving.
func (w *Worker) Install(ctx context.Context, manifest Manifest) error {
	w.rootURL = manifest.Root
	var staged []string
	cleanup := func() {
		for _, path := range staged {
			_ = os.Remove(path)
		}
	}
	for _, asset := range manifest.All() {
		partial := w.pathFor(asset) + partialSuffix
		if err := w.download(ctx, asset, partial); err != nil {
			cleanup()
			return fmt.Errorf("install %s: %w", asset, err)
		}
		staged = append(staged, partial)
	}
	for _, partial := range staged {
		final := strings.TrimSuffix(partial, partialSuffix)
		if err := os.Rename(partial, final); err != nil {
			cleanup()
			return err
		}
	}
	w.logger.Info("cache installed", zap.Int("assets", len(staged)), zap.String("namespace", CacheVersion))
	return nil
}

// Serve intercepts one request. A cached match wins outright; otherwise the
// request goes to the network, and a same-origin 200 GET response is stored
// before being returned. Non-qualifying responses pass through uncached. A
// dead network falls back to the cached root document for navigation
// requests only.
func (w *Worker) Serve(ctx context.Context, method, rawURL string, navigation bool) (*Result, error) {
	if data, err := os.ReadFile(w.pathFor(rawURL)); err == nil {
		return &Result{Body: data, Status: http.StatusOK, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return w.networkFallback(navigation, err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return w.networkFallback(navigation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return w.networkFallback(navigation, err)
	}

	if method == http.MethodGet && resp.StatusCode == http.StatusOK && w.sameOrigin(rawURL) {
		if err := w.store(rawURL, body); err != nil {
			// Degraded mode: serving still works, the copy just isn't kept.
			w.logger.Warn("cache store failed", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return &Result{Body: body, Status: resp.StatusCode}, nil
}

// Activate makes this generation live and deletes every sibling namespace
// that doesn't match CacheVersion, so at most one generation exists.
func (w *Worker) Activate(ctx context.Context) error {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	var firstErr error
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), namespacePrefix) || entry.Name() == CacheVersion {
			continue
		}
		if err := os.RemoveAll(filepath.Join(w.root, entry.Name())); err != nil {
			w.logger.Warn("stale namespace not removed", zap.String("namespace", entry.Name()), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		w.logger.Info("pruned stale cache namespace", zap.String("namespace", entry.Name()))
	}
	w.active.Store(true)
	return firstErr
}

// Cached reports whether a URL has a stored entry.
func (w *Worker) Cached(rawURL string) bool {
	info, err := os.Stat(w.pathFor(rawURL))
	return err == nil && info.Size() >= 0
}

// handleSync and handlePush are extension points; no business logic is
// implemented behind them yet.
func (w *Worker) handleSync(tag string) {
	w.logger.Debug("sync requested", zap.String("tag", tag))
}

func (w *Worker) handlePush(payload string) {
	w.logger.Debug("push received", zap.Int("bytes", len(payload)))
}

func (w *Worker) networkFallback(navigation bool, cause error) (*Result, error) {
	if navigation && w.rootURL != "" {
		if data, err := os.ReadFile(w.pathFor(w.rootURL)); err == nil {
			w.logger.Info("serving cached root for offline navigation")
			return &Result{Body: data, Status: http.StatusOK, FromCache: true}, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrNoResponse, cause)
}

func (w *Worker) download(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("asset fetch failed: %s (%s)", resp.Status, string(body))
	}
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (w *Worker) store(rawURL string, body []byte) error {
	partial := w.pathFor(rawURL) + partialSuffix
	if err := os.WriteFile(partial, body, 0o644); err != nil {
		return err
	}
	return os.Rename(partial, strings.TrimSuffix(partial, partialSuffix))
}

func (w *Worker) sameOrigin(rawURL string) bool {
	if w.origin == "" {
		return false
	}
	target, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	origin, err := url.Parse(w.origin)
	if err != nil {
		return false
	}
	return target.Scheme == origin.Scheme && target.Host == origin.Host
}

func (w *Worker) pathFor(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return filepath.Join(w.dir, hex.EncodeToString(sum[:]))
}
