package swimdata

import (
	"fmt"
	"math"
	"strings"
)

// BuildNotes turns a document into a plain-text training summary.
func BuildNotes(doc *Document) string {
	if doc == nil {
		return ""
	}
	sum := Summarize(doc)

	var b strings.Builder
	if s, ok := doc.Session(); ok {
		fmt.Fprintf(&b, "Session: %s (%s)\n", orDash(s.Sport), orDash(s.SubSport))
		if !s.StartTime.IsZero() {
			fmt.Fprintf(&b, "Start: %s\n", s.StartTime.Format("2006-01-02 15:04:05"))
		}
	}
	fmt.Fprintf(
		&b,
		"Pool %.0f m | Distance %.0f m | Swim %s | Rest %s | Total %s\n",
		sum.PoolLength,
		sum.DistanceMeters,
		formatDuration(sum.ActiveSeconds),
		formatDuration(sum.RestSeconds),
		formatDuration(sum.TotalSeconds),
	)
	if sum.TotalLengths > 0 {
		fmt.Fprintf(
			&b,
			"Pace %s /100m | SPM %.2f | SPL %.2f over %d lengths\n",
			formatPace(sum.PacePer100m),
			sum.AvgSPM,
			sum.AvgSPL,
			sum.TotalLengths,
		)
	}

	b.WriteString("\nStrokes\n")
	if len(sum.Strokes) == 0 {
		b.WriteString("- No active lengths.\n")
	}
	for _, g := range sum.Strokes {
		fmt.Fprintf(
			&b,
			"- %s: %d x %.0f m = %.0f m in %s (%s /100m, SPM %.2f, SPL %.2f)\n",
			titleCase(g.Stroke),
			g.Lengths,
			sum.PoolLength,
			g.DistanceMeters,
			formatDuration(g.TimeSeconds),
			formatPace(g.PacePer100m),
			g.StrokesPerMin,
			g.StrokesPerLen,
		)
	}

	if intervals := Intervals(doc); len(intervals) > 0 {
		b.WriteString("\nIntervals\n")
		for _, iv := range intervals {
			fmt.Fprintf(
				&b,
				"- %s: %.0f m %s in %s (%s /100m)",
				ordinal(iv.Number),
				iv.DistanceMeters,
				titleCase(iv.Stroke),
				formatDuration(iv.TimeSeconds),
				formatPace(iv.PacePer100m),
			)
			if iv.RestSeconds > 0 {
				fmt.Fprintf(&b, ", rest %s", formatDuration(iv.RestSeconds))
			}
			b.WriteByte('\n')
		}
	}

	if best := BestTimes(doc); len(best) > 0 {
		b.WriteString("\nBest Times\n")
		for _, bt := range best {
			fmt.Fprintf(&b, "- %s %.0f m: %s\n", titleCase(bt.Stroke), bt.DistanceMeters, formatPace(bt.TimeSeconds))
		}
	}

	return strings.TrimSpace(b.String())
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

// formatPace renders seconds as m:ss.
func formatPace(seconds float64) string {
	if seconds <= 0 {
		return "0:00"
	}
	s := int(math.Round(seconds))
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func titleCase(s string) string {
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
