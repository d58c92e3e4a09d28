package spotify

import (
	"context"
	"encoding/json"
	"net/url"
)

// List walks a paginated collection and returns every item in server order.
//
// params apply to the first request only. Each following page is fetched
// from the server's "next" link exactly as given, since it already carries
// the query. The returned slice may differ in length from the reported
// total if the collection changes mid-walk.
//
// When a Progress callback is configured, it fires at most once per
// progress interval while pages remain.
func (c *Client) List(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	lastReport := c.now()

	var page Page
	if err := c.Get(ctx, path, params, &page); err != nil {
		return nil, err
	}
	items := append([]json.RawMessage(nil), page.Items...)

	for page.Next != "" {
		if now := c.now(); now.Sub(lastReport) > c.progressInterval {
			lastReport = now
			c.reportProgress(len(items), page.Total)
		}

		next := page.Next
		page = Page{}
		if err := c.Get(ctx, next, nil, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}

	return items, nil
}

func (c *Client) reportProgress(loaded, total int) {
	if c.progress != nil {
		c.progress(loaded, total)
		return
	}
	c.logInfof("Loaded %d/%d items", loaded, total)
}
