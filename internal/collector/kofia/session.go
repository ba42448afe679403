package kofia

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bondpulse/internal/catalog"
	"bondpulse/internal/config"
	apperrors "bondpulse/internal/errors"
	"bondpulse/internal/files"
	"bondpulse/pkg/contracts/domain"
)

// State names one position in the portal export flow.
type State string

const (
	StateStart            State = "start"
	StateMenuOpened       State = "menu_opened"
	StateSectionSelected  State = "section_selected"
	StatePeriodTabOpened  State = "period_tab_opened"
	StateDataFrameEntered State = "data_frame_entered"
	StateDateRangeSet     State = "date_range_set"
	StateSelectionApplied State = "selection_applied"
	StateExported         State = "exported"
	StateFileRetrieved    State = "file_retrieved"
	StateFailed           State = "failed"
)

// Portal widget ids. The UI is a generated frameset; these ids are
// fixed configuration, not discovered at runtime.
const (
	outerFrame   = "fraAMAKMain"
	contentFrame = "maincontent"
	dataFrame    = "tabContents1_contents_tabs2_body"

	menuImageID    = "genLv1_0_imgLv1"
	submenuTextID  = "genLv1_0_genLv2_0_txtLv2"
	periodTabID    = "tabContents1_tab_tabs2"
	startInputID   = "startDtDD_input"
	endInputID     = "endDtDD_input"
	searchButtonID = "image4"
	exportButtonID = "imgExcel"
)

// elementPollInterval paces the guarded waits inside a step.
const elementPollInterval = 250 * time.Millisecond

var (
	menuFrames    = []string{outerFrame}
	contentFrames = []string{outerFrame, contentFrame}
	dataFrames    = []string{outerFrame, contentFrame, dataFrame}
)

// Session drives one export through the portal UI as a linear state
// machine. Every transition is a single UI action guarded by a bounded
// wait; a wait that never comes true fails the session. A session is
// single use: the portal's widget state cannot be trusted after a
// failure, so there is no retry inside one.
type Session struct {
	browser         BrowserOps
	watcher         *files.DownloadWatcher
	logger          *slog.Logger
	portalURL       string
	downloadDir     string
	stepTimeout     time.Duration
	settleDelay     time.Duration
	downloadTimeout time.Duration
	state           State
}

// NewSession creates a session over an already-launched browser whose
// downloads land in downloadDir.
func NewSession(browser BrowserOps, cfg config.CollectionConfig, downloadDir string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	portalURL := cfg.PortalURL
	if portalURL == "" {
		portalURL = catalog.KofiaPortalURL
	}
	stepTimeout := cfg.StepTimeout
	if stepTimeout <= 0 {
		stepTimeout = config.DefaultStepTimeout
	}
	settleDelay := cfg.SettleDelay
	if settleDelay <= 0 {
		settleDelay = config.DefaultSettleDelay
	}
	downloadTimeout := cfg.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = config.DefaultDownloadTimeout
	}
	return &Session{
		browser:         browser,
		watcher:         files.NewDownloadWatcher(config.DownloadPollInterval, downloadTimeout, logger),
		logger:          logger,
		portalURL:       portalURL,
		downloadDir:     downloadDir,
		stepTimeout:     stepTimeout,
		settleDelay:     settleDelay,
		downloadTimeout: downloadTimeout,
		state:           StateStart,
	}
}

// State returns the session's current position in the flow.
func (s *Session) State() State {
	return s.state
}

// Run drives the full export flow for one batch and returns the path
// of the retrieved export file.
func (s *Session) Run(ctx context.Context, batch domain.PortalBatch, start, end time.Time) (string, error) {
	s.logger.InfoContext(ctx, "starting portal session",
		slog.String("batch", batch.Name),
		slog.Time("start", start),
		slog.Time("end", end))

	flow := []struct {
		next State
		act  func(context.Context) error
	}{
		{StateMenuOpened, s.openMenu},
		{StateSectionSelected, s.selectSection},
		{StatePeriodTabOpened, s.openPeriodTab},
		{StateDataFrameEntered, s.enterDataFrame},
		{StateDateRangeSet, func(ctx context.Context) error { return s.setDateRange(ctx, start, end) }},
		{StateSelectionApplied, func(ctx context.Context) error { return s.applySelection(ctx, batch) }},
		{StateExported, s.export},
	}
	for _, step := range flow {
		if err := step.act(ctx); err != nil {
			s.state = StateFailed
			return "", err
		}
		s.advance(ctx, step.next)
	}
	return s.retrieveFile(ctx)
}

// openMenu loads the portal and opens the bond data menu.
func (s *Session) openMenu(ctx context.Context) error {
	if err := s.browser.Navigate(ctx, s.portalURL); err != nil {
		return err
	}
	// The frameset engine assembles the UI well after document load
	if err := s.pause(ctx, s.settleDelay); err != nil {
		return err
	}
	if err := s.clickWhenReady(ctx, menuFrames, menuImageID, "menu image"); err != nil {
		return err
	}
	return s.pause(ctx, s.shortSettle())
}

// selectSection opens the final quoted yields submenu entry.
func (s *Session) selectSection(ctx context.Context) error {
	if err := s.clickWhenReady(ctx, menuFrames, submenuTextID, "yields submenu"); err != nil {
		return err
	}
	return s.pause(ctx, s.shortSettle())
}

// openPeriodTab switches the content frame to the by-period view.
func (s *Session) openPeriodTab(ctx context.Context) error {
	if err := s.clickWhenReady(ctx, contentFrames, periodTabID, "period tab"); err != nil {
		return err
	}
	return s.pause(ctx, s.shortSettle())
}

// enterDataFrame waits until the period tab's inner frame carries the
// query form.
func (s *Session) enterDataFrame(ctx context.Context) error {
	return s.awaitElement(ctx, dataFrames, startInputID, "query form")
}

// setDateRange clears and types both date bounds.
func (s *Session) setDateRange(ctx context.Context, start, end time.Time) error {
	if err := s.awaitElement(ctx, dataFrames, startInputID, "date inputs"); err != nil {
		return err
	}
	if err := s.browser.SetValue(ctx, dataFrames, startInputID, start.Format(config.DateFormatPortal)); err != nil {
		return fmt.Errorf("failed to set start date: %w", err)
	}
	if err := s.browser.SetValue(ctx, dataFrames, endInputID, end.Format(config.DateFormatPortal)); err != nil {
		return fmt.Errorf("failed to set end date: %w", err)
	}
	return s.pause(ctx, s.shortSettle())
}

// applySelection picks the batch's instruments. Checked state cannot
// be read back from the portal's widgets, so the selection is applied
// by blind toggling from the known fresh-load baseline: click every
// default-checked box off, then click the batch's boxes on.
func (s *Session) applySelection(ctx context.Context, batch domain.PortalBatch) error {
	baseline := catalog.PortalBaselineChecked()
	if len(baseline) > 0 {
		if err := s.awaitElement(ctx, dataFrames, baseline[0], "instrument checkboxes"); err != nil {
			return err
		}
	}
	for _, id := range baseline {
		if err := s.browser.Click(ctx, dataFrames, id); err != nil {
			return fmt.Errorf("failed to clear default selection %s: %w", id, err)
		}
	}
	if err := s.pause(ctx, s.toggleSettle()); err != nil {
		return err
	}
	for _, id := range batch.CheckboxIDs() {
		if err := s.browser.Click(ctx, dataFrames, id); err != nil {
			return fmt.Errorf("failed to select instrument %s: %w", id, err)
		}
	}
	return s.pause(ctx, s.toggleSettle())
}

// export runs the query and clicks the excel export button.
func (s *Session) export(ctx context.Context) error {
	if err := s.clickWhenReady(ctx, dataFrames, searchButtonID, "search button"); err != nil {
		return err
	}
	// The result grid re-renders with no readiness signal to wait on
	if err := s.pause(ctx, s.settleDelay); err != nil {
		return err
	}
	if err := s.clickWhenReady(ctx, dataFrames, exportButtonID, "export button"); err != nil {
		return err
	}
	return s.pause(ctx, s.settleDelay)
}

// retrieveFile polls the candidate directories for the fixed download
// name the portal serves every export under.
func (s *Session) retrieveFile(ctx context.Context) (string, error) {
	path, ok := s.watcher.Await(ctx, files.CandidateDirs(s.downloadDir), config.PortalDownloadName)
	if !ok {
		err := ctx.Err()
		if err == nil {
			err = apperrors.NewAutomationTimeoutError(string(s.state),
				"download "+config.PortalDownloadName, s.downloadTimeout)
		}
		s.state = StateFailed
		return "", err
	}
	s.advance(ctx, StateFileRetrieved)
	return path, nil
}

// clickWhenReady waits for the element and clicks it.
func (s *Session) clickWhenReady(ctx context.Context, frames []string, id, condition string) error {
	if err := s.awaitElement(ctx, frames, id, condition); err != nil {
		return err
	}
	if err := s.browser.Click(ctx, frames, id); err != nil {
		return fmt.Errorf("failed to activate %s: %w", condition, err)
	}
	return nil
}

// awaitElement polls for an element until it appears or the step
// timeout lapses.
func (s *Session) awaitElement(ctx context.Context, frames []string, id, condition string) error {
	deadline := time.Now().Add(s.stepTimeout)
	for {
		found, err := s.browser.Exists(ctx, frames, id)
		if err != nil {
			return err
		}
		if found {
			return nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return apperrors.NewAutomationTimeoutError(string(s.state), condition, s.stepTimeout)
		}
		wait := elementPollInterval
		if wait > remaining {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// advance moves the session to the next state.
func (s *Session) advance(ctx context.Context, next State) {
	s.state = next
	s.logger.DebugContext(ctx, "portal session advanced",
		slog.String("state", string(next)))
}

// shortSettle is the pause after minor UI actions; toggleSettle after
// checkbox groups. Both scale off the main settle delay, which covers
// the slow full-grid re-renders.
func (s *Session) shortSettle() time.Duration {
	return s.settleDelay / 5
}

func (s *Session) toggleSettle() time.Duration {
	return s.settleDelay / 10
}

// pause waits for d unless the context ends first.
func (s *Session) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}
