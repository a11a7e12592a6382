package swimdata

import (
	"math"
	"sort"
	"strings"
)

// StrokeMixed labels an interval swum with more than one stroke.
const StrokeMixed = "mixed"

// bestTimeDistances are the distances, in metres, BestTimes reports.
var bestTimeDistances = map[float64]bool{
	50: true, 100: true, 200: true, 500: true, 1000: true,
	1500: true, 3000: true, 5000: true, 10000: true,
}

// Interval is one lap that contains swimming, with the lengths it spans.
type Interval struct {
	Number         int      `json:"number"`
	Lengths        []Length `json:"lengths"`
	DistanceMeters float64  `json:"distance_meters"`
	Stroke         string   `json:"stroke"`
	TimeSeconds    float64  `json:"time_seconds"`
	RestSeconds    float64  `json:"rest_seconds"`
	PacePer100m    float64  `json:"pace_per_100m_seconds"`
	AvgSPM         float64  `json:"avg_spm"`
	AvgSPL         float64  `json:"avg_spl"`
}

// Intervals splits the session at laps with active lengths. Each such lap
// claims the lengths whose message_index falls between its
// first_length_index and the next active lap's; the last one runs to the
// end. Intervals without active lengths are omitted.
func Intervals(doc *Document) []Interval {
	if doc == nil {
		return nil
	}
	var laps []Lap
	for _, lap := range doc.Laps {
		if lap.NumActiveLengths > 0 {
			laps = append(laps, lap)
		}
	}
	pool := doc.PoolLength()

	var out []Interval
	for i, lap := range laps {
		lo := lap.FirstLengthIndex
		hi := math.MaxInt
		if i+1 < len(laps) {
			hi = laps[i+1].FirstLengthIndex
		}

		iv := Interval{Number: len(out) + 1}
		var cadence float64
		var strokes int
		seen := map[string]bool{}
		for _, l := range doc.Lengths {
			idx := int(l.MessageIndex)
			if idx < lo || idx >= hi {
				continue
			}
			if !l.Active() {
				iv.RestSeconds += l.TotalElapsedTime
				continue
			}
			iv.Lengths = append(iv.Lengths, l)
			iv.TimeSeconds += l.TotalElapsedTime
			cadence += float64(l.AvgSwimmingCadence)
			strokes += l.TotalStrokes
			seen[strings.ToLower(l.SwimStroke)] = true
		}
		n := len(iv.Lengths)
		if n == 0 {
			continue
		}
		iv.DistanceMeters = float64(n) * pool
		iv.PacePer100m = pace(iv.TimeSeconds, iv.DistanceMeters)
		iv.AvgSPM = cadence / float64(n)
		iv.AvgSPL = float64(strokes) / float64(n)
		iv.Stroke = StrokeMixed
		if len(seen) == 1 {
			iv.Stroke = strings.ToLower(iv.Lengths[0].SwimStroke)
		}
		out = append(out, iv)
	}
	return out
}

// BestTime is the fastest swim of one stroke over one distance.
type BestTime struct {
	Stroke         string  `json:"stroke"`
	DistanceMeters float64 `json:"distance_meters"`
	TimeSeconds    float64 `json:"time_seconds"`
	Lengths        int     `json:"lengths"`
	StartTime      Time    `json:"start_time"`
}

// BestTimes scans consecutive runs of active lengths with the same stroke,
// ordered by start time, and keeps the fastest opening stretch of each run
// for every reported distance. Results are sorted by stroke, then distance.
func BestTimes(doc *Document) []BestTime {
	if doc == nil {
		return nil
	}
	pool := doc.PoolLength()
	if pool <= 0 {
		return nil
	}
	active := doc.ActiveLengths()
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].StartTime.Before(active[j].StartTime.Time)
	})

	type key struct {
		stroke   string
		distance float64
	}
	best := make(map[key]BestTime)
	flush := func(run []Length) {
		if len(run) == 0 {
			return
		}
		stroke := strings.ToLower(run[0].SwimStroke)
		var elapsed float64
		for i, l := range run {
			elapsed += l.TotalElapsedTime
			distance := float64(i+1) * pool
			if !bestTimeDistances[distance] {
				continue
			}
			k := key{stroke, distance}
			if cur, ok := best[k]; ok && cur.TimeSeconds <= elapsed {
				continue
			}
			best[k] = BestTime{
				Stroke:         stroke,
				DistanceMeters: distance,
				TimeSeconds:    elapsed,
				Lengths:        i + 1,
				StartTime:      run[0].StartTime,
			}
		}
	}

	var run []Length
	for _, l := range active {
		if len(run) > 0 && !strings.EqualFold(run[0].SwimStroke, l.SwimStroke) {
			flush(run)
			run = nil
		}
		run = append(run, l)
	}
	flush(run)

	out := make([]BestTime, 0, len(best))
	for _, bt := range best {
		out = append(out, bt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stroke != out[j].Stroke {
			return out[i].Stroke < out[j].Stroke
		}
		return out[i].DistanceMeters < out[j].DistanceMeters
	})
	return out
}
