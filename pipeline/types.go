package pipeline

import (
	"time"

	swimdata "github.com/PeterK-end/swim-data-analyser"
)

const (
	// ExportFormatVersion identifies the on-disk layout of an export bundle.
	ExportFormatVersion = "swim_export_v1"
)

// Options configures Run.
type Options struct {
	FitPath    string
	OutDir     string
	Format     string // parquet|csv
	Overwrite  bool
	CopySource bool
}

// Result returns generated output paths.
type Result struct {
	OutputDir         string   `json:"output_dir"`
	ManifestPath      string   `json:"manifest_path"`
	DocumentPath      string   `json:"document_path"`
	SummaryPath       string   `json:"summary_path"`
	LengthsPath       string   `json:"lengths_path"`
	MessagesIndexPath string   `json:"messages_index_path"`
	NotesPath         string   `json:"notes_path"`
	SourceCopyPath    string   `json:"source_copy_path,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
}

// BytesOptions configures RunBytes. Nothing touches the filesystem.
type BytesOptions struct {
	SourceFileName string
	FitData        []byte
	Format         string
	CopySource     bool
}

// BytesResult holds every artifact keyed by file name.
type BytesResult struct {
	Files    map[string][]byte
	Warnings []string
}

// Manifest captures export metadata and pointers to exported files.
type Manifest struct {
	FormatVersion   string                `json:"format_version"`
	GeneratedAt     time.Time             `json:"generated_at"`
	SourceFileName  string                `json:"source_file_name"`
	SourceSHA256    string                `json:"source_sha256"`
	SourceSizeBytes int64                 `json:"source_size_bytes"`
	Decode          swimdata.DecodeReport `json:"decode"`
	Files           []string              `json:"files"`
	Warnings        []string              `json:"warnings,omitempty"`
}

// SummaryFile is the analysis written to summary.json.
type SummaryFile struct {
	Summary   swimdata.Summary    `json:"summary"`
	Intervals []swimdata.Interval `json:"intervals"`
	BestTimes []swimdata.BestTime `json:"best_times"`
}

// MessageIndexFile counts the decoded messages per global type.
type MessageIndexFile struct {
	Messages    []MessageCount `json:"messages"`
	Skipped     []MessageCount `json:"skipped,omitempty"`
	Definitions int            `json:"definitions"`
}

// MessageCount is one row of the message index.
type MessageCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LengthRow is one row of the lengths table.
type LengthRow struct {
	MessageIndex       int      `json:"message_index"`
	StartTime          string   `json:"start_time"`
	LengthType         string   `json:"length_type"`
	SwimStroke         string   `json:"swim_stroke"`
	TotalElapsedTime   float64  `json:"total_elapsed_time"`
	TotalTimerTime     float64  `json:"total_timer_time"`
	TotalStrokes       int      `json:"total_strokes"`
	AvgSpeedKMH        float64  `json:"avg_speed_kmh"`
	AvgSwimmingCadence int      `json:"avg_swimming_cadence"`
	TotalCalories      int      `json:"total_calories"`
	PacePer100m        *float64 `json:"pace_per_100m_seconds,omitempty"`
}
