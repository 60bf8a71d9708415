package models

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// How a candidate's coordinates were obtained. Used for diagnostics when
// the resolution chain has to fall back.
const (
	CoordsFromProvider = "provider"
	CoordsFromGeocoder = "geocoded"
	CoordsFromCenter   = "center"
)

// Review is one raw user review attached to a place, before selection.
type Review struct {
	Text   string
	Rating float64
	Likes  int
}

// Place is a candidate point of interest flowing through the pipeline.
// The resolution stage fills identity, coordinates and raw source data;
// enrichment fills images and selected reviews; narrative generation
// fills Summary where the resolver did not.
type Place struct {
	ID      string
	Name    string
	Address string

	// Coordinates is nil until the resolution fallback chain has run.
	Coordinates *Coordinates
	CoordSource string

	Rating  float64
	Website string
	Summary string

	// PhotoReferences are provider photo tokens still to be fetched.
	PhotoReferences []string
	// ImageURLs are durable public URLs, in original photo order.
	ImageURLs []string

	RawReviews  []Review
	ReviewTexts []string

	// FleaMarket marks events-category candidates classified as flea
	// markets; they rank ahead of other event types.
	FleaMarket bool
}
