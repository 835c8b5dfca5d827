package timing

import "github.com/catchbarrels/swinglab/internal/domain/model"

// Summary aggregates timings over a reaction-time session.
type Summary struct {
	Pitches           int      `json:"pitches"`
	AvgDecisionTimeMs *float64 `json:"avg_decision_time_ms"`
	AvgBufferMs       *float64 `json:"avg_buffer_ms"`
	AvgSwingTimeMs    *float64 `json:"avg_swing_time_ms"`
	LateCommits       int      `json:"late_commits"` // pitches with a negative buffer
}

// Summarize averages each metric over the pitches that have it.
func Summarize(records []Metrics) Summary {
	s := Summary{Pitches: len(records)}
	var decision, buffer, swing mean
	for _, r := range records {
		decision.add(r.DecisionTimeMs)
		buffer.add(r.BufferMs)
		swing.add(r.SwingTimeMs)
		if r.BufferMs != nil && *r.BufferMs < 0 {
			s.LateCommits++
		}
	}
	s.AvgDecisionTimeMs = decision.value()
	s.AvgBufferMs = buffer.value()
	s.AvgSwingTimeMs = swing.value()
	return s
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

func (m *mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	return model.Round2(m.sum / float64(m.n))
}
