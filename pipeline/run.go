package pipeline

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	swimdata "github.com/PeterK-end/swim-data-analyser"
)

const (
	manifestFile      = "manifest.json"
	documentFile      = "document.json"
	summaryFile       = "summary.json"
	messagesIndexFile = "messages_index.json"
	notesFile         = "training_summary.md"
	sourceFile        = "source.fit"
)

// export is everything derived from one FIT upload.
type export struct {
	name    string
	data    []byte
	format  string
	doc     *swimdata.Document
	report  *swimdata.DecodeReport
	summary SummaryFile
	index   MessageIndexFile
	lengths []LengthRow
	notes   string
}

func (e *export) lengthsFile() string {
	return "lengths." + formatExtension(e.format)
}

func (e *export) manifest(copySource bool, now time.Time) Manifest {
	sum := sha256.Sum256(e.data)
	files := []string{manifestFile, documentFile, summaryFile, e.lengthsFile(), messagesIndexFile, notesFile}
	if copySource {
		files = append(files, sourceFile)
	}
	return Manifest{
		FormatVersion:   ExportFormatVersion,
		GeneratedAt:     now.UTC(),
		SourceFileName:  e.name,
		SourceSHA256:    hex.EncodeToString(sum[:]),
		SourceSizeBytes: int64(len(e.data)),
		Decode:          *e.report,
		Files:           files,
		Warnings:        e.report.Warnings(),
	}
}

func prepare(name string, data []byte, format string) (*export, error) {
	format, err := normalizeFormat(format)
	if err != nil {
		return nil, err
	}

	doc, report, err := swimdata.Decode(data)
	if err != nil {
		return nil, err
	}
	if !doc.IsPoolSwim() {
		return nil, fmt.Errorf("%s is not a pool swim", name)
	}
	swimdata.RefreshAggregates(doc)

	return &export{
		name:   name,
		data:   data,
		format: format,
		doc:    doc,
		report: report,
		summary: SummaryFile{
			Summary:   swimdata.Summarize(doc),
			Intervals: swimdata.Intervals(doc),
			BestTimes: swimdata.BestTimes(doc),
		},
		index:   buildMessagesIndex(report),
		lengths: buildLengthRows(doc),
		notes:   swimdata.BuildNotes(doc),
	}, nil
}

// Run decodes a FIT file and writes the export bundle into OutDir.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.FitPath) == "" {
		return nil, fmt.Errorf("fit path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	data, err := os.ReadFile(opts.FitPath)
	if err != nil {
		return nil, fmt.Errorf("read fit file: %w", err)
	}
	e, err := prepare(filepath.Base(opts.FitPath), data, opts.Format)
	if err != nil {
		return nil, err
	}

	if err := ensureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	res := &Result{
		OutputDir:         opts.OutDir,
		ManifestPath:      filepath.Join(opts.OutDir, manifestFile),
		DocumentPath:      filepath.Join(opts.OutDir, documentFile),
		SummaryPath:       filepath.Join(opts.OutDir, summaryFile),
		LengthsPath:       filepath.Join(opts.OutDir, e.lengthsFile()),
		MessagesIndexPath: filepath.Join(opts.OutDir, messagesIndexFile),
		NotesPath:         filepath.Join(opts.OutDir, notesFile),
		Warnings:          e.report.Warnings(),
	}

	if err := writeJSON(res.DocumentPath, e.doc); err != nil {
		return nil, fmt.Errorf("write %s: %w", documentFile, err)
	}
	if err := writeJSON(res.SummaryPath, e.summary); err != nil {
		return nil, fmt.Errorf("write %s: %w", summaryFile, err)
	}
	if err := writeJSON(res.MessagesIndexPath, e.index); err != nil {
		return nil, fmt.Errorf("write %s: %w", messagesIndexFile, err)
	}

	switch e.format {
	case "csv":
		if err := writeLengthsCSVFile(res.LengthsPath, e.lengths); err != nil {
			return nil, fmt.Errorf("write lengths csv: %w", err)
		}
	case "parquet":
		if err := writeLengthsParquet(res.LengthsPath, e.lengths); err != nil {
			return nil, fmt.Errorf("write lengths parquet: %w", err)
		}
	}

	if err := os.WriteFile(res.NotesPath, []byte(e.notes), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", notesFile, err)
	}

	if opts.CopySource {
		res.SourceCopyPath = filepath.Join(opts.OutDir, sourceFile)
		if err := copyFile(opts.FitPath, res.SourceCopyPath); err != nil {
			return nil, fmt.Errorf("copy source fit file: %w", err)
		}
	}

	if err := writeJSON(res.ManifestPath, e.manifest(opts.CopySource, time.Now())); err != nil {
		return nil, fmt.Errorf("write %s: %w", manifestFile, err)
	}

	return res, nil
}

// RunBytes builds the same bundle as Run entirely in memory.
func RunBytes(opts BytesOptions) (*BytesResult, error) {
	if len(opts.FitData) == 0 {
		return nil, fmt.Errorf("fit data is required")
	}
	name := strings.TrimSpace(opts.SourceFileName)
	if name == "" {
		name = "input.fit"
	}

	e, err := prepare(name, opts.FitData, opts.Format)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte, 7)
	for fn, v := range map[string]any{
		documentFile:      e.doc,
		summaryFile:       e.summary,
		messagesIndexFile: e.index,
		manifestFile:      e.manifest(opts.CopySource, time.Now()),
	} {
		b, err := marshalJSON(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", fn, err)
		}
		files[fn] = b
	}

	var lengths []byte
	switch e.format {
	case "csv":
		var buf bytes.Buffer
		if err := writeLengthsCSV(&buf, e.lengths); err != nil {
			return nil, fmt.Errorf("write lengths csv: %w", err)
		}
		lengths = buf.Bytes()
	case "parquet":
		lengths, err = marshalLengthsParquet(e.lengths)
		if err != nil {
			return nil, fmt.Errorf("write lengths parquet: %w", err)
		}
	}
	files[e.lengthsFile()] = lengths
	files[notesFile] = []byte(e.notes)

	if opts.CopySource {
		files[sourceFile] = append([]byte(nil), opts.FitData...)
	}

	return &BytesResult{Files: files, Warnings: e.report.Warnings()}, nil
}

func normalizeFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return "", fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
	return format, nil
}

func formatExtension(format string) string {
	if format == "csv" {
		return "csv"
	}
	return "parquet"
}

func buildMessagesIndex(report *swimdata.DecodeReport) MessageIndexFile {
	return MessageIndexFile{
		Messages:    sortedCounts(report.Counts),
		Skipped:     sortedCounts(report.Skipped),
		Definitions: report.Definitions,
	}
}

func sortedCounts(m map[string]int) []MessageCount {
	if len(m) == 0 {
		return nil
	}
	out := make([]MessageCount, 0, len(m))
	for name, n := range m {
		out = append(out, MessageCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func buildLengthRows(doc *swimdata.Document) []LengthRow {
	pool := doc.PoolLength()
	rows := make([]LengthRow, 0, len(doc.Lengths))
	for _, l := range doc.Lengths {
		row := LengthRow{
			MessageIndex:       int(l.MessageIndex),
			LengthType:         l.LengthType,
			SwimStroke:         l.SwimStroke,
			TotalElapsedTime:   l.TotalElapsedTime,
			TotalTimerTime:     l.TotalTimerTime,
			TotalStrokes:       l.TotalStrokes,
			AvgSpeedKMH:        l.AvgSpeed,
			AvgSwimmingCadence: l.AvgSwimmingCadence,
			TotalCalories:      l.TotalCalories,
		}
		if !l.StartTime.IsZero() {
			row.StartTime = l.StartTime.Format(time.RFC3339)
		}
		if l.Active() && pool > 0 && l.TotalElapsedTime > 0 {
			pace := l.TotalElapsedTime * 100 / pool
			row.PacePer100m = &pace
		}
		rows = append(rows, row)
	}
	return rows
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var lengthsHeader = []string{
	"message_index", "start_time", "length_type", "swim_stroke", "total_elapsed_time", "total_timer_time",
	"total_strokes", "avg_speed_kmh", "avg_swimming_cadence", "total_calories", "pace_per_100m_seconds",
}

func writeLengthsCSVFile(path string, rows []LengthRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeLengthsCSV(f, rows)
}

func writeLengthsCSV(out io.Writer, rows []LengthRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(lengthsHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.MessageIndex),
			r.StartTime,
			r.LengthType,
			r.SwimStroke,
			formatFloat(r.TotalElapsedTime),
			formatFloat(r.TotalTimerTime),
			strconv.Itoa(r.TotalStrokes),
			formatFloat(r.AvgSpeedKMH),
			strconv.Itoa(r.AvgSwimmingCadence),
			strconv.Itoa(r.TotalCalories),
			formatFloatPtr(r.PacePer100m),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
