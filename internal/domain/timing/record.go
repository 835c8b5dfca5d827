package timing

import "time"

// Record is a persisted pitch timing. Metrics are derived from Input and
// are recomputed rather than edited.
type Record struct {
	ID        string    `json:"id"`
	AthleteID string    `json:"athlete_id"`
	SessionID string    `json:"session_id,omitempty"`
	Input     Input     `json:"input"`
	Metrics   Metrics   `json:"metrics"`
	CreatedAt time.Time `json:"created_at"`
}
