// Package fare turns raw result-card text into structured fare records and
// attaches absolute date-times to them.
package fare

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/farelab/farewatch/internal/model"
)

// Card abstracts the DOM substructure of one visible result card. The
// normalizer only ever sees strings and booleans, so it stays pure and
// testable without a page.
type Card interface {
	// Text returns the whitespace-collapsed visible text of the whole card.
	Text() string
	// PriceText returns the text of the card's dedicated price element, or
	// "" when the card has none.
	PriceText() string
	// TransferText returns the text of the card's transfer annotation node,
	// or "" when the card has none.
	TransferText() string
	// HasBuyAction reports whether the card carries a visible purchase
	// button. Cards without one are decoration, not fares.
	HasBuyAction() bool
	// HasStopoverTag reports whether the card carries a dedicated stopover
	// tag element.
	HasStopoverTag() bool
	// StopoverDetail hovers the stopover tag to reveal its tooltip and
	// returns the tooltip text. Best effort: errors never invalidate the
	// card.
	StopoverDetail(ctx context.Context) (string, error)
}

var (
	designatorRe = regexp.MustCompile(`[A-Z][A-Z0-9]\d{3,4}`)
	clockRe      = regexp.MustCompile(`\b\d{2}:\d{2}\b`)
	amountRe     = regexp.MustCompile(`[¥￥]\s?([\d,]{2,7})`)

	transferCountRe = regexp.MustCompile(`(\d+)次中转`)
	transferHintRe  = regexp.MustCompile(`中转|转机|转\s*[\x{4e00}-\x{9fa5}A-Za-z]`)
	transferInfoRe  = regexp.MustCompile(`(转[^。；\n]{0,30}\d+时\d+分|中转[^。；\n]{0,20}|转机[^。；\n]{0,20})`)

	stopoverHintRe = regexp.MustCompile(`经停|停\s*[\x{4e00}-\x{9fa5}A-Za-z]{2,}`)
	stopoverInfoRe = regexp.MustCompile(`(经停[^。；\n]{0,60}|停\s*[\x{4e00}-\x{9fa5}A-Za-z]{2,8})`)

	// noiseRe marks where a card's descriptive text ends and its
	// availability/booking chrome begins.
	noiseRe   = regexp.MustCompile(`¥|￥|余\d+张|选择|選擇|预订|預訂|订|訂`)
	spaceRe   = regexp.MustCompile(`\s+`)
	tailsRe   = regexp.MustCompile(`[，,;；\s]+$`)
	nonDigits = regexp.MustCompile(`[^0-9]`)
)

// Normalize parses one card into a FareRecord. It returns nil when any
// required field is missing: no purchase action, no flight designator, fewer
// than two clock times, or no parseable amount. A nil return means "skip the
// card", never an error.
func Normalize(ctx context.Context, card Card) *model.FareRecord {
	if !card.HasBuyAction() {
		return nil
	}
	text := Clean(card.Text())
	if text == "" {
		return nil
	}

	chain := dedupe(designatorRe.FindAllString(text, -1))
	if len(chain) == 0 {
		return nil
	}
	times := clockRe.FindAllString(text, -1)
	if len(times) < 2 {
		return nil
	}
	price, ok := parsePrice(card.PriceText(), text)
	if !ok {
		return nil
	}

	transferByChain := len(chain) - 1
	transferByText := textualTransferCount(text)
	transferCount := max(transferByChain, transferByText)

	hasStopTag := card.HasStopoverTag()
	stopoverCount := 0
	if hasStopTag || stopoverHintRe.MatchString(text) {
		stopoverCount = 1
	}

	rec := &model.FareRecord{
		FlightChain:   chain,
		Flight:        model.JoinChain(chain),
		Depart:        times[0],
		Arrive:        times[1],
		Price:         price,
		SegmentCount:  len(chain),
		TransferCount: transferCount,
		StopoverCount: stopoverCount,
		RouteType:     routeType(transferCount, stopoverCount),
		TransferInfo:  transferInfo(card.TransferText(), text),
		StopoverInfo:  TrimNoise(stopoverInfoRe.FindString(text)),
	}

	// Hover for the richer tooltip only when the card advertises a stopover
	// tag; without one there is nothing to hover.
	if stopoverCount > 0 && hasStopTag {
		if detail, err := card.StopoverDetail(ctx); err != nil {
			zap.L().Debug("fare: stopover tooltip failed", zap.String("flight", rec.Flight), zap.Error(err))
		} else if detail != "" {
			rec.StopoverInfo = TrimNoise(detail)
		}
	}

	return rec
}

// Clean collapses whitespace and strips trailing punctuation.
func Clean(s string) string {
	s = spaceRe.ReplaceAllString(s, " ")
	s = tailsRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// TrimNoise cuts a fragment at the first availability/booking marker so the
// annotation does not drag half the card's chrome along with it.
func TrimNoise(s string) string {
	s = Clean(s)
	if s == "" {
		return ""
	}
	if loc := noiseRe.FindStringIndex(s); loc != nil && loc[0] > 0 {
		s = s[:loc[0]]
	}
	return Clean(s)
}

// parsePrice prefers the dedicated price element and falls back to a scan of
// the full card text. Amounts with fewer than two digits are garbage
// (truncated renders, decimal fragments) and rejected.
func parsePrice(priceText, cardText string) (model.Price, bool) {
	if m := amountRe.FindStringSubmatch(Clean(priceText)); m != nil {
		if amount, ok := parseAmount(m[1]); ok {
			return model.Price{Amount: amount, Text: Clean(priceText)}, true
		}
	}
	if m := amountRe.FindStringSubmatch(cardText); m != nil {
		if amount, ok := parseAmount(m[1]); ok {
			return model.Price{Amount: amount, Text: m[0]}, true
		}
	}
	return model.Price{}, false
}

func parseAmount(s string) (int, bool) {
	digits := nonDigits.ReplaceAllString(s, "")
	if len(digits) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func textualTransferCount(text string) int {
	if m := transferCountRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n
		}
	}
	if transferHintRe.MatchString(text) {
		return 1
	}
	return 0
}

func transferInfo(nodeText, cardText string) string {
	if info := TrimNoise(nodeText); info != "" {
		return info
	}
	return TrimNoise(transferInfoRe.FindString(cardText))
}

func routeType(transfers, stopovers int) model.RouteType {
	switch {
	case transfers > 0:
		return model.RouteTransfer
	case stopovers > 0:
		return model.RouteStopover
	default:
		return model.RouteDirect
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
