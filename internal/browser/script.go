package browser

// The in-page scripts below mirror the structure of ly.com's flight result
// list: each visible .flight-item is one fare card, its purchase button and
// price node identify it as bookable, and stopover details only exist in a
// hover tooltip.

const helpersJS = `
const visible = el => !!el && el.offsetParent !== null;
const textOf = el => ((el && el.innerText) || '').replace(/\s+/g, ' ').trim();
const cardsOf = () => Array.from(document.querySelectorAll('.flight-item')).filter(visible);
`

const extractJS = `(() => {` + helpersJS + `
return cardsOf().map((card, index) => ({
	index,
	text: textOf(card),
	priceText: textOf(card.querySelector('.price-info')
		|| card.querySelector('.head-prices')
		|| card.querySelector('.flight-price')
		|| card.querySelector('.lowestPrice')),
	transferText: textOf(card.querySelector('.arrow-item')),
	hasBuy: !!card.querySelector('.buy-btn,.btn-select,.flight-btn'),
	hasStopTag: !!Array.from(card.querySelectorAll('*')).find(el => visible(el) && textOf(el) === '经停'),
}));
})()`

// stopoverJS hovers the stopover tag of the card at index %d and reads the
// tooltip the page pops up. Returns "" when there is nothing to read.
const stopoverJS = `(async () => {` + helpersJS + `
const card = cardsOf()[%d];
if (!card) return '';
const tag = Array.from(card.querySelectorAll('*')).find(el => visible(el) && textOf(el) === '经停');
if (!tag) return '';
try {
	tag.dispatchEvent(new MouseEvent('mouseenter', { bubbles: true }));
	tag.dispatchEvent(new MouseEvent('mouseover', { bubbles: true }));
	await new Promise(r => setTimeout(r, 220));
	const tips = Array.from(document.querySelectorAll('.tooltip.popover.vue-popover-theme.open, .tooltip-inner.popover-inner'))
		.filter(visible)
		.map(textOf)
		.filter(t => t && t.includes('经停'));
	return (tips[0] || '').replace(/^经停信息\s*/, '经停 ');
} finally {
	tag.dispatchEvent(new MouseEvent('mouseout', { bubbles: true }));
	tag.dispatchEvent(new MouseEvent('mouseleave', { bubbles: true }));
}
})()`

// clickOutboundJS finds the card whose text contains the full flight chain
// (or, failing that, its first designator) and clicks its purchase button.
// The argument is "FULL||FIRST".
const clickOutboundJS = `((targetFlight) => {` + helpersJS + `
const clickCardButton = card => {
	if (!card) return false;
	const btn = Array.from(card.querySelectorAll('.flight-btn,.buy-btn,.btn-select,.tripui-online-btn')).find(visible);
	if (!btn) return false;
	btn.click();
	return true;
};
const [full, first] = targetFlight.split('||');
const cards = cardsOf();
if (clickCardButton(cards.find(card => textOf(card).includes(full)))) return true;
return clickCardButton(cards.find(card => textOf(card).includes(first)));
})(%q)`

// returnPhaseJS reports whether the page has switched to return selection.
const returnPhaseJS = `(() => {
const txt = (document.body && document.body.innerText) || '';
return txt.includes('去程已选') || txt.includes('选择返程') || txt.includes('返回日期');
})()`

const atBottomJS = `window.innerHeight + window.scrollY >= document.body.scrollHeight - 8`

const scrollForwardJS = `window.scrollBy(0, Math.max(window.innerHeight * 0.9, 700))`
