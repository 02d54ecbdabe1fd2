package ebay

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var itemIDPattern = regexp.MustCompile(`^\d{9,15}$`)

// Canonicalize reduces any eBay item URL form to
// https://www.ebay.com/itm/<id> and returns the extracted item ID.
// Tracking parameters, hash fragments, and slug segments are dropped.
func Canonicalize(raw string) (canonical, itemID string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parsing listing URL: %w", err)
	}

	if u.Host != "" && !strings.Contains(u.Host, "ebay.") {
		return "", "", fmt.Errorf("not an eBay URL: %q", raw)
	}

	itemID = extractItemID(u)
	if itemID == "" {
		return "", "", fmt.Errorf("no item ID in URL: %q", raw)
	}

	return "https://www.ebay.com/itm/" + itemID, itemID, nil
}

func extractItemID(u *url.URL) string {
	// Path forms: /itm/123456789012 and /itm/some-title-slug/123456789012.
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segs {
		if seg != "itm" {
			continue
		}
		for _, cand := range segs[i+1:] {
			if itemIDPattern.MatchString(cand) {
				return cand
			}
		}
	}

	// Legacy query form: ?item=123456789012.
	if item := u.Query().Get("item"); itemIDPattern.MatchString(item) {
		return item
	}

	return ""
}
