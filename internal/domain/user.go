package domain

// User is a tracked community member. Weight is a non-negative influence
// scalar assigned by the external community-graph builder; the pipeline
// only ever reads it.
type User struct {
	ID         string  `json:"id"`
	ScreenName string  `json:"screen_name,omitempty"`
	Name       string  `json:"name,omitempty"`
	Weight     float64 `json:"weight,omitempty"`
}
