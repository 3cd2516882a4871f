package browser

import (
	"context"
	"encoding/json"

	"github.com/chromedp/chromedp"
	"github.com/cockroachdb/errors"
)

// Page is the live document of one tab.
type Page struct {
	ctx context.Context
}

// URL returns the current location.
func (p *Page) URL(ctx context.Context) (string, error) {
	var loc string
	if err := p.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", errors.Wrap(err, "read location")
	}
	return loc, nil
}

// Has reports whether selector matches an element right now. It does not wait.
func (p *Page) Has(ctx context.Context, selector string) (bool, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return false, err
	}
	var found bool
	expr := "document.querySelector(" + string(quoted) + ") !== null"
	if err := p.run(ctx, chromedp.Evaluate(expr, &found)); err != nil {
		return false, errors.Wrapf(err, "query %s", selector)
	}
	return found, nil
}

// HTML returns the serialized document.
func (p *Page) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", errors.Wrap(err, "read html")
	}
	return html, nil
}

// Links returns the absolute http(s) links of the document in page order.
func (p *Page) Links(ctx context.Context) ([]string, error) {
	var (
		loc  string
		html string
	)
	err := p.run(ctx,
		chromedp.Location(&loc),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, errors.Wrap(err, "read links")
	}
	return ExtractLinks(html, loc)
}

// Click clicks the first visible element matching selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return errors.Wrapf(err, "click %s", selector)
	}
	return nil
}

func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, stop := bound(ctx, p.ctx)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}
