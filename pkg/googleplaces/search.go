package googleplaces

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

type textSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID string `json:"place_id"`
	} `json:"results"`
}

// FindPlace resolves a free-text query (name plus address) to a place id
// using Text Search with a location bias. The first result is taken; a
// miss returns ErrNoResults.
func (c *Client) FindPlace(ctx context.Context, query string, lat, lng float64, radius int) (string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("radius", strconv.Itoa(radius))

	var resp textSearchResponse
	if err := c.getJSON(ctx, "/place/textsearch/json", params, &resp); err != nil {
		return "", err
	}

	if resp.Status != "OK" || len(resp.Results) == 0 {
		return "", ErrNoResults
	}
	return resp.Results[0].PlaceID, nil
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry Geometry `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves a formatted address to coordinates. A miss returns
// ErrNoResults.
func (c *Client) Geocode(ctx context.Context, address string) (LatLng, error) {
	params := url.Values{}
	params.Set("address", address)

	var resp geocodeResponse
	if err := c.getJSON(ctx, "/geocode/json", params, &resp); err != nil {
		return LatLng{}, err
	}

	if resp.Status != "OK" || len(resp.Results) == 0 {
		return LatLng{}, ErrNoResults
	}
	return resp.Results[0].Geometry.Location, nil
}
