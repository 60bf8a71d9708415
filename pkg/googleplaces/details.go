package googleplaces

import (
	"context"
	"net/url"
	"strings"
)

// PlaceDetails is the subset of a Place Details record the pipeline
// consumes. Which fields are populated depends on the requested field
// list.
type PlaceDetails struct {
	Name             string    `json:"name"`
	Rating           float64   `json:"rating"`
	FormattedAddress string    `json:"formatted_address"`
	Website          string    `json:"website"`
	URL              string    `json:"url"`
	Photos           []Photo   `json:"photos"`
	Reviews          []Review  `json:"reviews"`
	Geometry         *Geometry `json:"geometry"`
	EditorialSummary *struct {
		Overview string `json:"overview"`
	} `json:"editorial_summary"`
	Description string `json:"description"`
}

type detailsResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Result       *PlaceDetails `json:"result"`
}

// Details fetches the full record for one place id, restricted to the
// given field list.
func (c *Client) Details(ctx context.Context, placeID string, fields []string) (*PlaceDetails, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", strings.Join(fields, ","))

	var resp detailsResponse
	if err := c.getJSON(ctx, "/place/details/json", params, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "OK" || resp.Result == nil {
		return nil, &StatusError{Status: resp.Status, Message: resp.ErrorMessage}
	}
	return resp.Result, nil
}
