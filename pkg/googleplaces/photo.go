package googleplaces

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// FetchPhoto streams the image behind a photo reference. The caller owns
// the returned body. The second return value is the response content
// type, normalized to an image type.
func (c *Client) FetchPhoto(ctx context.Context, photoReference string, maxWidth int) (io.ReadCloser, string, error) {
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(maxWidth))
	params.Set("photoreference", photoReference)
	params.Set("key", c.apiKey)

	reqURL := fmt.Sprintf("%s/place/photo?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("photo fetch: unexpected status %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	return resp.Body, contentType, nil
}
