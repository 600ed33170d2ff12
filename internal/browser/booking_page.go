package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/farelab/farewatch/internal/booking"
)

// BookingPage opens a tab for the booking flow. It implements
// booking.Opener.
func (b *Browser) BookingPage(ctx context.Context) (booking.Page, func(), error) {
	page, release, err := b.Page(ctx)
	if err != nil {
		return nil, nil, err
	}
	return page.(*Page), release, nil
}

// The booking site's result rows differ from the fare list: each row is a
// div.result-item and its select button is the tripui one.

// selectFlightJS clicks the row whose first two times match. Returns
// "clicked", "no-btn", or "" when the row is not rendered yet.
const selectFlightJS = `((dep, arr) => {
const rows = Array.from(document.querySelectorAll('div.result-item'));
const target = rows.find(r => {
	const times = r.innerText.match(/\d{2}:\d{2}/g) || [];
	return times[0] === dep && times[1] === arr;
});
if (!target) return '';
const btn = target.querySelector('button.tripui-online-btn');
if (!btn) return 'no-btn';
btn.scrollIntoView({ block: 'center' });
btn.click();
return 'clicked';
})(%q, %q)`

const continueVisibleJS = `Array.from(document.querySelectorAll('button.tripui-online-btn'))
	.some(b => b.innerText.trim() === '繼續')`

// clickContinueJS hides the dialog overlay first; it intercepts clicks when
// left in place.
const clickContinueJS = `(() => {
const dlg = document.querySelector('#dialogWrapper');
if (dlg) dlg.style.display = 'none';
const btns = Array.from(document.querySelectorAll('button.tripui-online-btn'))
	.filter(b => b.innerText.trim() === '繼續');
const btn = btns[btns.length - 1];
if (!btn) return false;
btn.click();
return true;
})()`

// bookingTextJS hides overlays, expands the flight and price detail
// sections, and returns their raw text for parsing.
const bookingTextJS = `(async () => {
const wait = ms => new Promise(r => setTimeout(r, ms));
const dlg = document.querySelector('#dialogWrapper');
if (dlg) dlg.style.display = 'none';
document.querySelectorAll('.ift-modal-wrap, [class*=modal-mask], [class*=overlay]')
	.forEach(el => { el.style.display = 'none'; });

const expand = document.querySelector('.flight-info-expand-detail');
if (expand) { expand.click(); await wait(1500); }

const toggle = Array.from(document.querySelectorAll('*'))
	.find(e => e.children.length === 0 && e.innerText.trim() === '機票（1位成人）');
if (toggle) { toggle.click(); await wait(1000); }

const flightPanel = document.querySelector('.m-flightInfo-booking');

const priceCard = Array.from(document.querySelectorAll('[class*=price]'))
	.filter(el => {
		const t = el.innerText || '';
		return t.includes('總額') && t.includes('行李') && t.includes('CNY') && t.split('\n').length <= 30;
	})
	.sort((a, b) => (a.innerText || '').length - (b.innerText || '').length)[0];

const baggage = Array.from(document.querySelectorAll('*')).find(el =>
	el.offsetParent !== null &&
	(el.innerText || '').includes('行李限額') &&
	(el.innerText || '').includes('公斤') &&
	(el.innerText || '').split('\n').length < 40
);

return {
	flightInfo: (flightPanel && flightPanel.innerText) || '',
	priceCard: (priceCard && priceCard.innerText) || '',
	baggage: (baggage && baggage.innerText) || '',
};
})()`

// SelectFlight scroll-seeks the result row matching dep/arr and clicks its
// select button. The list lazy-loads, so it scrolls in 600px steps until
// the row renders or 30s pass.
func (p *Page) SelectFlight(ctx context.Context, dep, arr string) error {
	script := fmt.Sprintf(selectFlightJS, dep, arr)
	deadline := time.Now().Add(30 * time.Second)
	scrollY := 0

	for {
		var state string
		if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, &state)); err != nil {
			return eris.Wrap(err, "browser: seek result row")
		}
		switch state {
		case "clicked":
			zap.L().Debug("browser: selected flight", zap.String("dep", dep), zap.String("arr", arr))
			return nil
		case "no-btn":
			return eris.Errorf("browser: flight %s-%s has no select button", dep, arr)
		}
		if time.Now().After(deadline) {
			return eris.Errorf("browser: flight not found: %s-%s", dep, arr)
		}

		scrollY += 600
		scrollTo := fmt.Sprintf("window.scrollTo(0, %d)", scrollY)
		if err := chromedp.Run(p.ctx, chromedp.Evaluate(scrollTo, nil)); err != nil {
			return eris.Wrap(err, "browser: scroll result list")
		}
		if err := settle(ctx, time.Second); err != nil {
			return err
		}
	}
}

// ClickContinue waits for the fare dialog's confirm button and clicks it.
func (p *Page) ClickContinue(ctx context.Context) error {
	deadline := time.Now().Add(12 * time.Second)
	for {
		var visible bool
		if err := chromedp.Run(p.ctx, chromedp.Evaluate(continueVisibleJS, &visible)); err != nil {
			return eris.Wrap(err, "browser: poll confirm button")
		}
		if visible {
			break
		}
		if time.Now().After(deadline) {
			return eris.New("browser: confirm button never appeared")
		}
		if err := settle(ctx, 300*time.Millisecond); err != nil {
			return err
		}
	}

	var clicked bool
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(clickContinueJS, &clicked)); err != nil {
		return eris.Wrap(err, "browser: click confirm")
	}
	if !clicked {
		return eris.New("browser: confirm button not clickable")
	}
	return nil
}

// BookingText expands the booking page's sections and returns their raw
// text.
func (p *Page) BookingText(ctx context.Context) (booking.PageText, error) {
	if err := settle(ctx, 3*time.Second); err != nil {
		return booking.PageText{}, err
	}

	var raw struct {
		FlightInfo string `json:"flightInfo"`
		PriceCard  string `json:"priceCard"`
		Baggage    string `json:"baggage"`
	}
	err := chromedp.Run(p.ctx, chromedp.Evaluate(bookingTextJS, &raw,
		func(params *runtime.EvaluateParams) *runtime.EvaluateParams {
			return params.WithAwaitPromise(true)
		}))
	if err != nil {
		return booking.PageText{}, eris.Wrap(err, "browser: read booking sections")
	}
	return booking.PageText{
		FlightInfo: raw.FlightInfo,
		PriceCard:  raw.PriceCard,
		Baggage:    raw.Baggage,
	}, nil
}
