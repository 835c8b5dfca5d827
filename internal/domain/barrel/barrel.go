// Package barrel classifies batted balls as barrels using level-adjusted
// exit-velocity and launch-angle thresholds.
//
// Classification is a pure function of its inputs. Callers recompute it
// whenever exit velocity, launch angle, result or level may have changed;
// a stored flag is never treated as the source of truth.
package barrel

import (
	"strings"

	"github.com/catchbarrels/swinglab/internal/domain/model"
)

// Sweet-spot launch angle band, identical at every level.
const (
	sweetSpotMin = 8.0
	sweetSpotMax = 32.0
)

// Thresholds are the barrel criteria for one level. Bounds are inclusive.
type Thresholds struct {
	Level          model.Level `json:"level"`
	MinExitVelo    float64     `json:"min_exit_velo"`
	MinLaunchAngle float64     `json:"min_launch_angle"`
	MaxLaunchAngle float64     `json:"max_launch_angle"`
	HardHitVelo    float64     `json:"hard_hit_velo"`
}

var thresholds = map[model.Level]Thresholds{
	model.LevelMLB:     {Level: model.LevelMLB, MinExitVelo: 95, MinLaunchAngle: 10, MaxLaunchAngle: 30, HardHitVelo: 95},
	model.LevelCollege: {Level: model.LevelCollege, MinExitVelo: 90, MinLaunchAngle: 8, MaxLaunchAngle: 32, HardHitVelo: 90},
	model.LevelHS:      {Level: model.LevelHS, MinExitVelo: 85, MinLaunchAngle: 8, MaxLaunchAngle: 35, HardHitVelo: 85},
	model.LevelYouth:   {Level: model.LevelYouth, MinExitVelo: 70, MinLaunchAngle: 5, MaxLaunchAngle: 38, HardHitVelo: 70},
}

// DefaultLevel is used when a level is missing or unknown.
const DefaultLevel = model.LevelHS

// ThresholdsFor returns the criteria for level, falling back to DefaultLevel.
func ThresholdsFor(level model.Level) Thresholds {
	if t, ok := thresholds[level]; ok {
		return t
	}
	return thresholds[DefaultLevel]
}

// Classification is the outcome for one batted ball.
type Classification struct {
	IsBarrel    bool       `json:"is_barrel"`
	IsHardHit   bool       `json:"is_hard_hit"`
	IsSweetSpot bool       `json:"is_sweet_spot"`
	Thresholds  Thresholds `json:"thresholds"`
}

// Compute classifies a batted ball. Missing measurements are never a barrel.
func Compute(exitVelocity, launchAngle *float64, isFair bool, level model.Level) Classification {
	t := ThresholdsFor(level)
	c := Classification{Thresholds: t}

	if exitVelocity != nil && *exitVelocity >= t.HardHitVelo {
		c.IsHardHit = true
	}
	if launchAngle != nil && *launchAngle >= sweetSpotMin && *launchAngle <= sweetSpotMax {
		c.IsSweetSpot = true
	}
	if !isFair || exitVelocity == nil || launchAngle == nil {
		return c
	}
	c.IsBarrel = *exitVelocity >= t.MinExitVelo &&
		*launchAngle >= t.MinLaunchAngle &&
		*launchAngle <= t.MaxLaunchAngle
	return c
}

// Classify is Compute for an event. level overrides the event's own level
// when non-empty.
func Classify(e model.BattedBallEvent, level model.Level) Classification {
	if level == "" {
		level = e.Level
	}
	return Compute(e.ExitVelocity, e.LaunchAngle, e.IsFair(), level)
}

// ParseLevel maps common spellings onto a level.
func ParseLevel(s string) (model.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mlb", "pro", "professional", "milb":
		return model.LevelMLB, true
	case "college", "ncaa", "juco", "d1", "d2", "d3":
		return model.LevelCollege, true
	case "hs", "high school", "highschool", "high_school", "varsity", "jv":
		return model.LevelHS, true
	case "youth", "little league", "10u", "11u", "12u", "13u", "14u":
		return model.LevelYouth, true
	}
	return "", false
}
