// Package model contains domain value types passed between layers.
package model

import (
	"math"
	"strings"
)

// Level is the competitive level of a player. It selects barrel thresholds.
type Level string

// Supported player levels.
const (
	LevelMLB     Level = "mlb"
	LevelCollege Level = "college"
	LevelHS      Level = "hs"
	LevelYouth   Level = "youth"
)

// Levels lists every supported level from strictest to most lenient.
var Levels = []Level{LevelMLB, LevelCollege, LevelHS, LevelYouth}

// Valid reports whether l is one of the supported levels.
func (l Level) Valid() bool {
	switch l {
	case LevelMLB, LevelCollege, LevelHS, LevelYouth:
		return true
	}
	return false
}

// Result is the outcome of a single pitch.
type Result string

// Pitch outcomes.
const (
	ResultFair Result = "fair"
	ResultFoul Result = "foul"
	ResultMiss Result = "miss"
	ResultTake Result = "take"
)

// Valid reports whether r is a known outcome.
func (r Result) Valid() bool {
	switch r {
	case ResultFair, ResultFoul, ResultMiss, ResultTake:
		return true
	}
	return false
}

// IsSwing reports whether the batter offered at the pitch.
func (r Result) IsSwing() bool {
	return r == ResultFair || r == ResultFoul || r == ResultMiss
}

// ParseResult maps launch-monitor outcome strings onto a Result.
func ParseResult(s string) (Result, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fair", "in play", "inplay", "in_play", "bip", "hit", "single", "double", "triple", "home run", "hr", "out":
		return ResultFair, true
	case "foul", "foul ball", "foul tip":
		return ResultFoul, true
	case "miss", "whiff", "swinging strike", "swinging_strike", "swing and miss", "sm":
		return ResultMiss, true
	case "take", "ball", "called strike", "called_strike", "no swing":
		return ResultTake, true
	}
	return "", false
}

// BattedBallEvent is one pitch outcome from a launch monitor or pitching
// machine session. Nil measurements mean the device recorded nothing.
type BattedBallEvent struct {
	ExitVelocity *float64 `json:"exit_velocity,omitempty"` // mph
	LaunchAngle  *float64 `json:"launch_angle,omitempty"`  // degrees, signed
	Distance     *float64 `json:"distance,omitempty"`      // feet
	Result       Result   `json:"result"`
	InZone       bool     `json:"in_zone"`
	Level        Level    `json:"level,omitempty"`
}

// IsFair reports whether the ball was put in play.
func (e BattedBallEvent) IsFair() bool {
	return e.Result == ResultFair
}

// Float returns a pointer to v, for building optional measurements.
func Float(v float64) *float64 {
	return &v
}

// Round2 rounds v to two decimal places. Non-finite values yield nil so that
// NaN and Inf never reach a persisted field.
func Round2(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := math.Round(v*100) / 100
	return &r
}
