package scraper

import (
	"fmt"
	"net/url"
	"strconv"
)

const pageParam = "page"

// PageURL returns the address of the given page. Page 1 is the base URL
// unmodified; later pages add a page query parameter, keeping any query the
// base URL already carries.
func PageURL(baseURL string, page int) (string, error) {
	if page <= 1 {
		return baseURL, nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set(pageParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// PageURLs lists the addresses of pages 1..total in crawl order.
func PageURLs(baseURL string, total int) ([]string, error) {
	if total <= 0 {
		return nil, nil
	}

	urls := make([]string, 0, total)
	for page := 1; page <= total; page++ {
		u, err := PageURL(baseURL, page)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}
