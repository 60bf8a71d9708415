package googleplaces

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// NearbySearchRequest are the parameters for one Nearby Search page.
type NearbySearchRequest struct {
	Lat      float64
	Lng      float64
	Radius   int
	Keyword  string
	MinPrice *int
	MaxPrice *int
	// PageToken continues a previous search. The provider requires a
	// short delay before a token becomes valid; callers enforce it.
	PageToken string
}

// NearbyPlace is one entry of a Nearby Search result page.
type NearbyPlace struct {
	PlaceID string  `json:"place_id"`
	Name    string  `json:"name"`
	Rating  float64 `json:"rating"`
}

type nearbyResponse struct {
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message"`
	Results       []NearbyPlace `json:"results"`
	NextPageToken string        `json:"next_page_token"`
}

// NearbySearch fetches one page of nearby places. It returns the page's
// results and the continuation token ("" when the result set is
// exhausted). A REQUEST_DENIED status is decorated with remediation
// hints since it always means a key or enablement problem.
func (c *Client) NearbySearch(ctx context.Context, req NearbySearchRequest) ([]NearbyPlace, string, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", req.Lat, req.Lng))
	params.Set("radius", strconv.Itoa(req.Radius))
	params.Set("keyword", req.Keyword)
	if req.MinPrice != nil {
		params.Set("minprice", strconv.Itoa(*req.MinPrice))
	}
	if req.MaxPrice != nil {
		params.Set("maxprice", strconv.Itoa(*req.MaxPrice))
	}
	if req.PageToken != "" {
		params.Set("pagetoken", req.PageToken)
	}

	var resp nearbyResponse
	if err := c.getJSON(ctx, "/place/nearbysearch/json", params, &resp); err != nil {
		return nil, "", err
	}

	switch resp.Status {
	case "OK":
		return resp.Results, resp.NextPageToken, nil
	case "ZERO_RESULTS":
		return nil, "", nil
	case "REQUEST_DENIED":
		return nil, "", fmt.Errorf(
			"nearby search denied (status %s: %s); check that the API key is valid, the Places API is enabled, and key restrictions allow this request",
			resp.Status, resp.ErrorMessage)
	default:
		return nil, "", &StatusError{Status: resp.Status, Message: resp.ErrorMessage}
	}
}
