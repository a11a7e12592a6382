package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	swimdata "github.com/PeterK-end/swim-data-analyser"
)

func printTable(w io.Writer, data [][]string) {
	table := pterm.DefaultTable
	table.Boxed = true

	str, err := table.WithHasHeader().WithData(data).Srender()
	if err != nil {
		pterm.Error.Printfln("Failed to render table: %s", err.Error())
		return
	}

	fmt.Fprintln(w, str)
}

func printSummary(w io.Writer, doc *swimdata.Document) {
	sum := swimdata.Summarize(doc)

	fmt.Fprintf(w, "Pool %s m | %d lengths | %s m | swim %s | rest %s\n\n",
		num(sum.PoolLength), sum.TotalLengths, num(sum.DistanceMeters),
		clock(sum.ActiveSeconds), clock(sum.RestSeconds))

	strokes := [][]string{{"Stroke", "Lengths", "Distance", "Time", "Pace /100m", "SPM", "SPL"}}
	for _, s := range sum.Strokes {
		strokes = append(strokes, []string{
			s.Stroke,
			strconv.Itoa(s.Lengths),
			num(s.DistanceMeters),
			clock(s.TimeSeconds),
			clock(s.PacePer100m),
			fixed(s.StrokesPerMin),
			fixed(s.StrokesPerLen),
		})
	}
	printTable(w, strokes)

	if ivs := swimdata.Intervals(doc); len(ivs) > 0 {
		rows := [][]string{{"#", "Stroke", "Distance", "Time", "Pace /100m", "Rest"}}
		for _, iv := range ivs {
			rows = append(rows, []string{
				strconv.Itoa(iv.Number),
				iv.Stroke,
				num(iv.DistanceMeters),
				clock(iv.TimeSeconds),
				clock(iv.PacePer100m),
				clock(iv.RestSeconds),
			})
		}
		printTable(w, rows)
	}

	if best := swimdata.BestTimes(doc); len(best) > 0 {
		rows := [][]string{{"Stroke", "Distance", "Time"}}
		for _, b := range best {
			rows = append(rows, []string{b.Stroke, num(b.DistanceMeters), clock(b.TimeSeconds)})
		}
		printTable(w, rows)
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// clock renders seconds as m:ss.t, or h:mm:ss past the hour.
func clock(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}

	tenths := int(seconds*10 + 0.5)
	h := tenths / 36000
	m := tenths / 600 % 60
	s := tenths / 10 % 60

	var b strings.Builder
	if h > 0 {
		fmt.Fprintf(&b, "%d:%02d:%02d", h, m, s)
		return b.String()
	}

	fmt.Fprintf(&b, "%d:%02d.%d", m, s, tenths%10)

	return b.String()
}
