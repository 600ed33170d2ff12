// Package browser drives a running Chrome over the DevTools protocol and
// exposes fare result pages to the search layer.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"

	"github.com/farelab/farewatch/internal/search"
)

// DefaultCDPURL is where a locally started Chrome listens for DevTools
// connections.
const DefaultCDPURL = "http://127.0.0.1:9222"

// Browser connects to a remote Chrome instance and opens one tab per query.
// It implements search.Opener.
type Browser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc

	// NavSettle is how long a freshly navigated page gets to finish its
	// lazy result requests before the first extraction.
	NavSettle time.Duration
	// ClickSettle is the pause right after the outbound card is clicked.
	ClickSettle time.Duration
	// SwitchSettle is the pause after the page confirms it switched to
	// return options.
	SwitchSettle time.Duration
}

// Connect attaches to the Chrome instance at cdpURL. The browser itself must
// already be running; Connect never spawns one.
func Connect(cdpURL string) *Browser {
	if cdpURL == "" {
		cdpURL = DefaultCDPURL
	}
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), cdpURL)
	return &Browser{
		allocCtx:     allocCtx,
		allocCancel:  allocCancel,
		NavSettle:    2500 * time.Millisecond,
		ClickSettle:  1200 * time.Millisecond,
		SwitchSettle: 1800 * time.Millisecond,
	}
}

// Page opens a fresh tab bound to ctx. The release func closes the tab.
func (b *Browser) Page(ctx context.Context) (search.Page, func(), error) {
	tabCtx, tabCancel := chromedp.NewContext(b.allocCtx)
	stop := context.AfterFunc(ctx, tabCancel)
	release := func() {
		stop()
		tabCancel()
	}

	// Force target creation so a dead endpoint fails here, not mid-query.
	if err := chromedp.Run(tabCtx); err != nil {
		release()
		return nil, nil, eris.Wrap(err, "browser: open tab")
	}
	return &Page{ctx: tabCtx, browser: b}, release, nil
}

// Close drops the DevTools connection. Tabs opened through Page are closed
// by their release funcs.
func (b *Browser) Close() {
	b.allocCancel()
}
