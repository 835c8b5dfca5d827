// Package flow turns the three flow-path sub-scores into leak diagnostics.
//
// A swing's momentum transfer is scored along three paths: ground (legacy
// "anchor"), power ("engine") and barrel ("whip"). A path leaks when it
// trails the overall momentum-transfer score.
package flow

import (
	"fmt"
	"math"
	"sort"
)

// Path names one flow path.
type Path string

const (
	PathNone   Path = "none"
	PathGround Path = "ground"
	PathPower  Path = "power"
	PathBarrel Path = "barrel"
)

// Paths lists the flow paths in reporting order. Leak ties resolve in this order.
var Paths = []Path{PathGround, PathPower, PathBarrel}

// Label returns the display name of p.
func (p Path) Label() string {
	switch p {
	case PathGround:
		return "Ground Flow"
	case PathPower:
		return "Power Flow"
	case PathBarrel:
		return "Barrel Flow"
	default:
		return "None"
	}
}

// ParsePath accepts current and legacy path names.
func ParsePath(s string) (Path, bool) {
	switch s {
	case "ground", "anchor":
		return PathGround, true
	case "power", "engine":
		return PathPower, true
	case "barrel", "whip":
		return PathBarrel, true
	case "none", "":
		return PathNone, true
	}
	return "", false
}

// LeakSeverity grades how far a path trails the overall score.
type LeakSeverity string

const (
	SeverityNone     LeakSeverity = "none"
	SeverityMild     LeakSeverity = "mild"
	SeverityModerate LeakSeverity = "moderate"
	SeveritySevere   LeakSeverity = "severe"
)

const (
	mildGap     = 5.0
	moderateGap = 10.0
	severeGap   = 15.0

	// LeakThreshold is the minimum gap reported as a leak.
	LeakThreshold = 10.0
)

// Severity maps gap = overall - score to a severity. A path scoring above
// overall has a negative gap and no leak.
func Severity(gap float64) LeakSeverity {
	switch {
	case gap < mildGap:
		return SeverityNone
	case gap < moderateGap:
		return SeverityMild
	case gap < severeGap:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}

// Leaks is the result of IdentifyLeaks.
type Leaks struct {
	Main      Path  `json:"main_leak"`
	Secondary *Path `json:"secondary_leak"`
}

type pathGap struct {
	path Path
	gap  float64
}

// IdentifyLeaks sorts the three path gaps from largest to smallest. Main is
// the worst path when its gap reaches LeakThreshold, else PathNone. Secondary
// is the runner-up under the same rule, else nil.
func IdentifyLeaks(ground, power, barrel, overall float64) Leaks {
	gaps := []pathGap{
		{PathGround, overall - ground},
		{PathPower, overall - power},
		{PathBarrel, overall - barrel},
	}
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].gap > gaps[j].gap })

	leaks := Leaks{Main: PathNone}
	if gaps[0].gap >= LeakThreshold {
		leaks.Main = gaps[0].path
		if gaps[1].gap >= LeakThreshold {
			p := gaps[1].path
			leaks.Secondary = &p
		}
	}
	return leaks
}

var goatyLabels = [...]string{
	"Needs Work",
	"Developing",
	"Below Average",
	"Average",
	"Above Average",
	"Excellent",
	"Elite",
}

const (
	MinBand = -3
	MaxBand = 3
)

// GoatyLabel looks up the text label for band in -3..+3.
func GoatyLabel(band int) (string, error) {
	if band < MinBand || band > MaxBand {
		return "", fmt.Errorf("%w: %d", ErrBandOutOfRange, band)
	}
	return goatyLabels[band-MinBand], nil
}

// Weights are relative weights for CombineOverall.
type Weights struct {
	Ground float64 `json:"ground" koanf:"ground"`
	Power  float64 `json:"power" koanf:"power"`
	Barrel float64 `json:"barrel" koanf:"barrel"`
}

// DefaultWeights weighs the three paths equally.
var DefaultWeights = Weights{Ground: 1, Power: 1, Barrel: 1}

// Validate rejects negative weights and an all-zero set.
func (w Weights) Validate() error {
	if w.Ground < 0 || w.Power < 0 || w.Barrel < 0 {
		return fmt.Errorf("%w: negative weight", ErrInvalidWeights)
	}
	if w.Ground+w.Power+w.Barrel <= 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrInvalidWeights)
	}
	return nil
}

// CombineOverall returns the weighted mean of the three scores rounded to 2 dp.
// It is only meant for inputs where no upstream overall score exists.
func CombineOverall(ground, power, barrel float64, w Weights) (float64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	for _, s := range []float64{ground, power, barrel} {
		if err := checkScore(s); err != nil {
			return 0, err
		}
	}
	sum := ground*w.Ground + power*w.Power + barrel*w.Barrel
	return math.Round(sum/(w.Ground+w.Power+w.Barrel)*100) / 100, nil
}

func checkScore(s float64) error {
	if math.IsNaN(s) || s < 0 || s > 100 {
		return fmt.Errorf("%w: %v", ErrScoreOutOfRange, s)
	}
	return nil
}
