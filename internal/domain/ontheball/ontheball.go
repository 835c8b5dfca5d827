// Package ontheball reduces a batch of batted-ball events into the rate
// statistics shown on an athlete's on-the-ball report.
//
// Every float field is nil when its denominator is empty, so "no data" is
// never confused with a true zero.
package ontheball

import (
	"math"

	"github.com/catchbarrels/swinglab/internal/domain/barrel"
	"github.com/catchbarrels/swinglab/internal/domain/model"
)

const percent = 100.0

// Metrics is the aggregate snapshot of one batch. It is fully derivable from
// the events and is never patched after creation.
type Metrics struct {
	TotalEvents int `json:"total_events"`
	Swings      int `json:"swings"`
	FairBalls   int `json:"fair_balls"`
	Fouls       int `json:"fouls"`
	Misses      int `json:"misses"`
	Takes       int `json:"takes"`
	Barrels     int `json:"barrels"`
	HardHits    int `json:"hard_hits"`

	// Percentages of swings.
	FairPct *float64 `json:"fair_pct"`
	FoulPct *float64 `json:"foul_pct"`
	MissPct *float64 `json:"miss_pct"`

	// Percentages of fair balls.
	BarrelRate  *float64 `json:"barrel_rate"`
	HardHitRate *float64 `json:"hard_hit_rate"`

	// Fair balls with a measured value; SD is the population SD.
	AvgEV *float64 `json:"avg_ev"`
	SdEV  *float64 `json:"sd_ev"`
	AvgLA *float64 `json:"avg_la"`
	SdLA  *float64 `json:"sd_la"`
	MaxEV *float64 `json:"max_ev"`

	// The same statistics over in-zone pitches only.
	InZoneEvents      int      `json:"inzone_events"`
	InZoneFairBalls   int      `json:"inzone_fair_balls"`
	InZoneBarrels     int      `json:"inzone_barrels"`
	InZoneHardHits    int      `json:"inzone_hard_hits"`
	InZoneBarrelRate  *float64 `json:"inzone_barrel_rate"`
	InZoneHardHitRate *float64 `json:"inzone_hard_hit_rate"`
	InZoneAvgEV       *float64 `json:"inzone_avg_ev"`
	InZoneSdEV        *float64 `json:"inzone_sd_ev"`
	InZoneAvgLA       *float64 `json:"inzone_avg_la"`
	InZoneSdLA        *float64 `json:"inzone_sd_la"`
	InZoneMaxEV       *float64 `json:"inzone_max_ev"`
	InZoneSwingPct    *float64 `json:"inzone_swing_pct"`
}

// Compute aggregates events. A non-empty level overrides each event's level
// for barrel classification.
func Compute(events []model.BattedBallEvent, level model.Level) Metrics {
	m := Metrics{TotalEvents: len(events)}

	var ev, la, zoneEV, zoneLA stats
	inZoneSwings := 0
	for i := range events {
		e := &events[i]
		switch e.Result {
		case model.ResultFair:
			m.FairBalls++
		case model.ResultFoul:
			m.Fouls++
		case model.ResultMiss:
			m.Misses++
		case model.ResultTake:
			m.Takes++
		}
		if e.InZone {
			m.InZoneEvents++
			if e.Result.IsSwing() {
				inZoneSwings++
			}
		}
		if !e.IsFair() {
			continue
		}

		c := barrel.Classify(*e, level)
		if c.IsBarrel {
			m.Barrels++
		}
		if c.IsHardHit {
			m.HardHits++
		}
		ev.add(e.ExitVelocity)
		la.add(e.LaunchAngle)

		if e.InZone {
			m.InZoneFairBalls++
			if c.IsBarrel {
				m.InZoneBarrels++
			}
			if c.IsHardHit {
				m.InZoneHardHits++
			}
			zoneEV.add(e.ExitVelocity)
			zoneLA.add(e.LaunchAngle)
		}
	}
	m.Swings = m.FairBalls + m.Fouls + m.Misses

	m.FairPct = ratio(m.FairBalls, m.Swings)
	m.FoulPct = ratio(m.Fouls, m.Swings)
	m.MissPct = ratio(m.Misses, m.Swings)

	m.BarrelRate = ratio(m.Barrels, m.FairBalls)
	m.HardHitRate = ratio(m.HardHits, m.FairBalls)
	m.AvgEV, m.SdEV, m.MaxEV = ev.mean(), ev.populationSD(), ev.maximum()
	m.AvgLA, m.SdLA = la.mean(), la.populationSD()

	m.InZoneBarrelRate = ratio(m.InZoneBarrels, m.InZoneFairBalls)
	m.InZoneHardHitRate = ratio(m.InZoneHardHits, m.InZoneFairBalls)
	m.InZoneAvgEV, m.InZoneSdEV, m.InZoneMaxEV = zoneEV.mean(), zoneEV.populationSD(), zoneEV.maximum()
	m.InZoneAvgLA, m.InZoneSdLA = zoneLA.mean(), zoneLA.populationSD()
	m.InZoneSwingPct = ratio(inZoneSwings, m.InZoneEvents)
	return m
}

// ratio returns num/den as a percentage, or nil for an empty denominator.
func ratio(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	return model.Round2(float64(num) / float64(den) * percent)
}

// stats accumulates optional measurements.
type stats struct {
	values []float64
}

func (s *stats) add(v *float64) {
	if v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
		s.values = append(s.values, *v)
	}
}

func (s *stats) avg() float64 {
	sum := 0.0
	for _, v := range s.values {
		sum += v
	}
	return sum / float64(len(s.values))
}

func (s *stats) mean() *float64 {
	if len(s.values) == 0 {
		return nil
	}
	return model.Round2(s.avg())
}

// populationSD divides by N: the batch is the whole session, not a sample.
func (s *stats) populationSD() *float64 {
	if len(s.values) == 0 {
		return nil
	}
	mu := s.avg()
	ss := 0.0
	for _, v := range s.values {
		ss += (v - mu) * (v - mu)
	}
	return model.Round2(math.Sqrt(ss / float64(len(s.values))))
}

func (s *stats) maximum() *float64 {
	if len(s.values) == 0 {
		return nil
	}
	mx := s.values[0]
	for _, v := range s.values[1:] {
		mx = math.Max(mx, v)
	}
	return model.Round2(mx)
}
