// Package browser hosts worker tabs in a headless Chrome driven over the
// DevTools protocol.
package browser

import (
	"context"
	"sort"
	"sync"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"careerpilot/internal/logger"
)

// Options configures the Chrome process.
type Options struct {
	Headless     bool
	UserAgent    string
	UserDataDir  string
	WindowWidth  int
	WindowHeight int
}

// TabInfo describes one open tab.
type TabInfo struct {
	Handle   string
	WindowID string
	URL      string
}

type tab struct {
	windowID string
	ctx      context.Context
	cancel   context.CancelFunc
}

// TabManager opens, lists and closes tabs. Chrome has no window grouping over
// the protocol, so windows are groups of tabs the manager keeps itself.
type TabManager struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	log           *zap.Logger

	mu   sync.Mutex
	tabs map[string]*tab
}

// NewTabManager starts Chrome and returns a manager bound to it.
func NewTabManager(ctx context.Context, opts Options, log *zap.Logger) (*TabManager, error) {
	log = logger.Component(log, "browser")
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Sugar().Debugf))
	// The first Run on a fresh context launches the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, errors.Wrap(err, "start browser")
	}
	return &TabManager{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		log:           log,
		tabs:          make(map[string]*tab),
	}, nil
}

// OpenTab opens url in a new tab grouped under windowID and returns its handle.
func (m *TabManager) OpenTab(ctx context.Context, url, windowID string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(m.browserCtx)
	runCtx, stop := bound(ctx, tabCtx)
	defer stop()
	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		cancel()
		return "", errors.Wrapf(err, "open tab %s", url)
	}
	c := chromedp.FromContext(tabCtx)
	if c == nil || c.Target == nil {
		cancel()
		return "", errors.New("tab has no target")
	}
	handle := c.Target.TargetID.String()

	m.mu.Lock()
	m.tabs[handle] = &tab{windowID: windowID, ctx: tabCtx, cancel: cancel}
	m.mu.Unlock()
	m.log.Debug("tab opened", zap.String(logger.FieldTab, handle), zap.String(logger.FieldURL, url))
	return handle, nil
}

// CloseTab closes the tab. Unknown handles are ignored.
func (m *TabManager) CloseTab(handle string) {
	m.mu.Lock()
	t, ok := m.tabs[handle]
	delete(m.tabs, handle)
	m.mu.Unlock()
	if ok {
		t.cancel()
		m.log.Debug("tab closed", zap.String(logger.FieldTab, handle))
	}
}

// QueryTabs lists the live tabs of windowID, sorted by handle. An empty
// windowID lists every managed tab.
func (m *TabManager) QueryTabs(ctx context.Context, windowID string) ([]TabInfo, error) {
	runCtx, stop := bound(ctx, m.browserCtx)
	defer stop()
	infos, err := chromedp.Targets(runCtx)
	if err != nil {
		return nil, errors.Wrap(err, "list targets")
	}
	live := make(map[target.ID]*target.Info, len(infos))
	for _, info := range infos {
		if info.Type == "page" {
			live[info.TargetID] = info
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []TabInfo
	for handle, t := range m.tabs {
		info, ok := live[target.ID(handle)]
		if !ok {
			// Closed from the page side.
			delete(m.tabs, handle)
			continue
		}
		if windowID != "" && t.windowID != windowID {
			continue
		}
		out = append(out, TabInfo{Handle: handle, WindowID: t.windowID, URL: info.URL})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out, nil
}

// Page returns the page of an open tab.
func (m *TabManager) Page(handle string) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tabs[handle]
	if !ok {
		return nil, errors.Newf("unknown tab %s", handle)
	}
	return &Page{ctx: t.ctx}, nil
}

// Close closes every tab and the browser.
func (m *TabManager) Close() {
	m.mu.Lock()
	for handle, t := range m.tabs {
		t.cancel()
		delete(m.tabs, handle)
	}
	m.mu.Unlock()
	m.browserCancel()
	m.allocCancel()
}

// bound derives a context from a chromedp context that is also cancelled with
// parent. Cancelling it aborts the action without closing the tab.
func bound(parent, tabCtx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(tabCtx)
	stop := context.AfterFunc(parent, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
