package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/farelab/farewatch/internal/fare"
	"github.com/farelab/farewatch/internal/model"
	"github.com/farelab/farewatch/internal/resilience"
)

// Page is one Chrome tab showing a fare result list. It implements
// search.Page.
type Page struct {
	ctx     context.Context
	browser *Browser
}

// cardPayload is one card's raw DOM reading, produced by extractJS.
type cardPayload struct {
	Index        int    `json:"index"`
	Text         string `json:"text"`
	PriceText    string `json:"priceText"`
	TransferText string `json:"transferText"`
	HasBuy       bool   `json:"hasBuy"`
	HasStopTag   bool   `json:"hasStopTag"`
}

// Navigate loads url and lets the page settle. Navigations retry on
// transient endpoint failures.
func (p *Page) Navigate(ctx context.Context, url string) error {
	policy := resilience.DefaultPolicy()
	policy.OnRetry = resilience.RetryLogger("navigate")
	err := resilience.Do(ctx, policy, func(ctx context.Context) error {
		return chromedp.Run(p.ctx, chromedp.Navigate(url))
	})
	if err != nil {
		return eris.Wrapf(err, "browser: navigate %s", url)
	}
	return settle(ctx, p.browser.NavSettle)
}

// SelectOutbound clicks the purchase button on the card matching flight,
// then waits for the page to switch to return options. Matching tries the
// full chain first, then just its first designator.
func (p *Page) SelectOutbound(ctx context.Context, flight string) error {
	primary := strings.SplitN(flight, "+", 2)[0]
	script := fmt.Sprintf(clickOutboundJS, flight+"||"+primary)

	var clicked bool
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return eris.Wrap(err, "browser: click outbound")
	}
	if !clicked {
		return eris.Errorf("browser: outbound card not found: %s", flight)
	}

	if err := settle(ctx, p.browser.ClickSettle); err != nil {
		return err
	}
	// The phase switch is best effort: some routes rerender in place
	// without the marker text, and collection still works there.
	if err := p.waitReturnPhase(ctx, 20*time.Second); err != nil {
		zap.L().Debug("browser: return phase marker not seen", zap.Error(err))
	}
	return settle(ctx, p.browser.SwitchSettle)
}

func (p *Page) waitReturnPhase(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		var switched bool
		if err := chromedp.Run(p.ctx, chromedp.Evaluate(returnPhaseJS, &switched)); err != nil {
			return eris.Wrap(err, "browser: poll return phase")
		}
		if switched {
			return nil
		}
		if time.Now().After(deadline) {
			return eris.New("browser: timed out waiting for return options")
		}
		if err := settle(ctx, 300*time.Millisecond); err != nil {
			return err
		}
	}
}

// ExtractFares reads every visible card and normalizes each into a fare
// record. Cards missing a designator, times, price or purchase action are
// skipped.
func (p *Page) ExtractFares(ctx context.Context) ([]model.FareRecord, error) {
	var payloads []cardPayload
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(extractJS, &payloads)); err != nil {
		return nil, eris.Wrap(err, "browser: extract cards")
	}

	var out []model.FareRecord
	for _, pl := range payloads {
		rec := fare.Normalize(ctx, &domCard{page: p, payload: pl})
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// Location returns the tab's current URL.
func (p *Page) Location(ctx context.Context) (string, error) {
	var url string
	if err := chromedp.Run(p.ctx, chromedp.Location(&url)); err != nil {
		return "", eris.Wrap(err, "browser: read location")
	}
	return url, nil
}

// AtBottom reports whether the viewport has reached the end of the result
// list.
func (p *Page) AtBottom(ctx context.Context) (bool, error) {
	var atBottom bool
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(atBottomJS, &atBottom)); err != nil {
		return false, eris.Wrap(err, "browser: check scroll position")
	}
	return atBottom, nil
}

// ScrollForward advances the viewport by ~90% of its height so the page
// loads the next result batch.
func (p *Page) ScrollForward(ctx context.Context) error {
	err := chromedp.Run(p.ctx, chromedp.Evaluate(scrollForwardJS, nil))
	return eris.Wrap(err, "browser: scroll")
}

// domCard adapts one extracted payload to fare.Card. The tooltip lookup is
// the only call that goes back to the page.
type domCard struct {
	page    *Page
	payload cardPayload
}

func (c *domCard) Text() string         { return c.payload.Text }
func (c *domCard) PriceText() string    { return c.payload.PriceText }
func (c *domCard) TransferText() string { return c.payload.TransferText }
func (c *domCard) HasBuyAction() bool   { return c.payload.HasBuy }
func (c *domCard) HasStopoverTag() bool { return c.payload.HasStopTag }

func (c *domCard) StopoverDetail(ctx context.Context) (string, error) {
	script := fmt.Sprintf(stopoverJS, c.payload.Index)
	var tip string
	err := chromedp.Run(c.page.ctx, chromedp.Evaluate(script, &tip,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
	if err != nil {
		return "", eris.Wrap(err, "browser: read stopover tooltip")
	}
	return tip, nil
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
