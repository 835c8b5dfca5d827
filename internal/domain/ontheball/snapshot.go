package ontheball

import (
	"time"

	"github.com/catchbarrels/swinglab/internal/domain/model"
)

// Snapshot is a persisted Metrics computation for one imported batch.
// Re-importing creates a new snapshot rather than editing an old one.
type Snapshot struct {
	ID        string      `json:"id"`
	AthleteID string      `json:"athlete_id"`
	BatchID   string      `json:"batch_id"`
	Level     model.Level `json:"level"` // batch level, or the default when events carry their own
	Source    string      `json:"source"` // json or csv
	CreatedAt time.Time   `json:"created_at"`
	Metrics   Metrics     `json:"metrics"`
}
