package models

// ResultDocument is the sole payload persisted for a completed job.
// Immutable once assembled; marker order is significant (first = most
// relevant).
type ResultDocument struct {
	RequestID   string   `json:"requestId"`
	GeneratedAt string   `json:"generatedAt"`
	TTLSeconds  int      `json:"ttlSeconds"`
	Markers     []Marker `json:"markers"`
}

// Marker is the display-ready representation of one place candidate.
type Marker struct {
	ID             string            `json:"id"`
	Coordinates    MarkerCoordinates `json:"coordinates"`
	Content        MarkerContent     `json:"content"`
	RelevanceScore float64           `json:"relevanceScore"`
	Tags           []string          `json:"tags"`
	Actions        MarkerActions     `json:"actions"`
}

type MarkerCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type MarkerContent struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	HeaderImage string     `json:"headerImage"`
	IconType    string     `json:"iconType"`
	EditorData  EditorData `json:"editorData"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt"`
}

// EditorData is an Editor.js document: an ordered list of typed blocks.
type EditorData struct {
	Time    int64   `json:"time"`
	Blocks  []Block `json:"blocks"`
	Version string  `json:"version"`
}

type Block struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type MarkerActions struct {
	Deeplink string `json:"deeplink"`
}
