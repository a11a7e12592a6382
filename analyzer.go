package swimdata

import (
	"math"
	"sort"
	"strings"

	"github.com/PeterK-end/swim-data-analyser/fitcodec"
)

// StrokeSummary aggregates the active lengths swum with one stroke.
type StrokeSummary struct {
	Stroke         string  `json:"stroke"`
	Lengths        int     `json:"lengths"`
	DistanceMeters float64 `json:"distance_meters"`
	TimeSeconds    float64 `json:"time_seconds"`
	PacePer100m    float64 `json:"pace_per_100m_seconds"`
	StrokesPerMin  float64 `json:"avg_spm"`
	StrokesPerLen  float64 `json:"avg_spl"`
	TotalStrokes   int     `json:"total_strokes"`

	strokeCode int
	cadenceSum float64
}

// Summary contains the per-stroke table of a session together with its
// subtotal, rest and total rows.
type Summary struct {
	PoolLength     float64         `json:"pool_length"`
	Strokes        []StrokeSummary `json:"strokes"`
	ActiveSeconds  float64         `json:"active_seconds"`
	RestSeconds    float64         `json:"rest_seconds"`
	TotalSeconds   float64         `json:"total_seconds"`
	TotalLengths   int             `json:"total_lengths"`
	DistanceMeters float64         `json:"distance_meters"`
	PacePer100m    float64         `json:"pace_per_100m_seconds"`
	AvgSPM         float64         `json:"avg_spm"`
	AvgSPL         float64         `json:"avg_spl"`
}

// Summarize groups the active lengths of doc by swim stroke. Groups are
// ordered by stroke code; strokes the profile does not know sort last by name.
func Summarize(doc *Document) Summary {
	var sum Summary
	if doc == nil {
		return sum
	}
	sum.PoolLength = doc.PoolLength()

	groups := make(map[string]*StrokeSummary)
	for _, l := range doc.Lengths {
		if !l.Active() {
			sum.RestSeconds += l.TotalElapsedTime
			continue
		}
		key := strings.ToLower(l.SwimStroke)
		g, ok := groups[key]
		if !ok {
			g = &StrokeSummary{Stroke: key, strokeCode: strokeCode(key)}
			groups[key] = g
		}
		g.Lengths++
		g.TimeSeconds += l.TotalElapsedTime
		g.TotalStrokes += l.TotalStrokes
		g.cadenceSum += float64(l.AvgSwimmingCadence)
	}

	for _, g := range groups {
		g.DistanceMeters = float64(g.Lengths) * sum.PoolLength
		g.PacePer100m = pace(g.TimeSeconds, g.DistanceMeters)
		g.StrokesPerLen = float64(g.TotalStrokes) / float64(g.Lengths)
		g.StrokesPerMin = g.cadenceSum / float64(g.Lengths)
		sum.Strokes = append(sum.Strokes, *g)
	}
	sort.Slice(sum.Strokes, func(i, j int) bool {
		a, b := sum.Strokes[i], sum.Strokes[j]
		if a.strokeCode != b.strokeCode {
			return a.strokeCode < b.strokeCode
		}
		return a.Stroke < b.Stroke
	})

	var spm, spl float64
	for _, g := range sum.Strokes {
		sum.TotalLengths += g.Lengths
		sum.DistanceMeters += g.DistanceMeters
		sum.ActiveSeconds += g.TimeSeconds
		spm += g.StrokesPerMin
		spl += g.StrokesPerLen
	}
	sum.TotalSeconds = sum.ActiveSeconds + sum.RestSeconds
	sum.PacePer100m = pace(sum.ActiveSeconds, sum.DistanceMeters)
	if n := len(sum.Strokes); n > 0 {
		sum.AvgSPM = spm / float64(n)
		sum.AvgSPL = spl / float64(n)
	}
	return sum
}

// strokeCode orders known strokes by their profile value.
func strokeCode(stroke string) int {
	code, err := fitcodec.ResolveEnum("swim_stroke", stroke)
	if err != nil {
		return math.MaxInt32
	}
	return int(code)
}

// pace returns seconds per 100 m.
func pace(seconds, meters float64) float64 {
	if meters <= 0 {
		return 0
	}
	return seconds / meters * 100
}
