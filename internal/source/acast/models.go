package acast

import "encoding/json"

// EpisodeResponse is the episode resource served by the publisher's
// acast-rest proxy.
type EpisodeResponse struct {
	Shows EpisodeShow `json:"shows"`
}

type EpisodeShow struct {
	Title       string          `json:"title"`
	PublishDate string          `json:"publishDate"`
	Summary     string          `json:"summary"`
	StreamURL   string          `json:"streamUrl"`
	Duration    json.RawMessage `json:"duration"`
	Cover       string          `json:"cover"`
}
