// Package googleplaces is a thin client for the Google Maps web
// services used by the recommendation pipeline: Nearby Search, Place
// Details, Text Search, Geocoding and Place Photos.
package googleplaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// Browser-like User-Agent; some image hosts reject default Go clients.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrNoResults is returned when a lookup succeeds but matches nothing.
var ErrNoResults = errors.New("googleplaces: no results")

// StatusError carries a non-OK status from the Places web service.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("places api status %s", e.Status)
	}
	return fmt.Sprintf("places api status %s: %s", e.Status, e.Message)
}

type Client struct {
	httpClient *http.Client
	apiKey     string
	language   string
	baseURL    string
	userAgent  string
}

func NewClient(apiKey, language string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		language:   language,
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

type Geometry struct {
	Location LatLng `json:"location"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Photo struct {
	PhotoReference string `json:"photo_reference"`
}

type Review struct {
	Text   string  `json:"text"`
	Rating float64 `json:"rating"`
	Likes  int     `json:"likes"`
}
