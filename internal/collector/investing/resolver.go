package investing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"bondpulse/internal/config"
	apperrors "bondpulse/internal/errors"
	"bondpulse/pkg/contracts/domain"
)

// Resolver maps catalog instruments to the numeric id the history
// endpoint keys on. Ids are discovered by scraping the instrument page
// and cached per resolver instance; a miss is never cached so a later
// run can pick up newly listed instruments.
type Resolver struct {
	client         *Client
	logger         *slog.Logger
	paths          *config.Paths
	debugSnapshots bool

	mu    sync.Mutex
	cache map[string]int
}

// NewResolver creates a resolver over the shared client. paths may be
// nil when debug snapshots are disabled.
func NewResolver(client *Client, paths *config.Paths, debugSnapshots bool, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		client:         client,
		logger:         logger,
		paths:          paths,
		debugSnapshots: debugSnapshots,
		cache:          make(map[string]int),
	}
}

// Resolve returns the numeric instrument id for inst. A missing page
// is reported via apperrors.ErrInstrumentNotFound; transport and
// challenge failures come back as transient fetch errors.
func (r *Resolver) Resolve(ctx context.Context, inst domain.Instrument) (int, error) {
	r.mu.Lock()
	if id, ok := r.cache[inst.Slug]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	pageURL := r.client.PageURL(inst.Slug)
	body, status, err := r.client.FetchPage(ctx, inst.Slug)
	if err != nil {
		return 0, apperrors.NewTransientFetchError(pageURL, 0, err)
	}
	switch {
	case status == http.StatusNotFound:
		return 0, fmt.Errorf("%s: %w", inst.Slug, apperrors.ErrInstrumentNotFound)
	case status != http.StatusOK:
		return 0, apperrors.NewTransientFetchError(pageURL, status, nil)
	}

	id, ok := ExtractInstrumentID(body)
	if !ok && LooksChallenged(body) {
		r.logger.WarnContext(ctx, "instrument page looks challenged, retrying in headless browser",
			slog.String("slug", inst.Slug))
		rendered, berr := r.client.FetchPageWithBrowser(ctx, pageURL)
		if berr != nil {
			return 0, apperrors.NewTransientFetchError(pageURL, 0, berr)
		}
		body = rendered
		id, ok = ExtractInstrumentID(body)
	}
	if !ok {
		r.saveDebugSnapshot(ctx, inst, body)
		return 0, apperrors.NewParseFailureError("instrument page "+inst.Slug, nil)
	}

	r.mu.Lock()
	r.cache[inst.Slug] = id
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "resolved instrument id",
		slog.String("slug", inst.Slug), slog.Int("id", id))
	return id, nil
}

// saveDebugSnapshot writes the page markup that defeated extraction,
// for offline inspection after a site layout change.
func (r *Resolver) saveDebugSnapshot(ctx context.Context, inst domain.Instrument, body string) {
	if !r.debugSnapshots || r.paths == nil {
		return
	}
	path := r.paths.GetDebugSnapshotPath(inst.Code())
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.logger.WarnContext(ctx, "failed to create snapshot directory",
			slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		r.logger.WarnContext(ctx, "failed to save debug snapshot",
			slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	r.logger.InfoContext(ctx, "saved page snapshot for inspection",
		slog.String("slug", inst.Slug), slog.String("path", path))
}
