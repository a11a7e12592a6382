package pipeline

import (
	"math"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type lengthParquetRow struct {
	MessageIndex       int32   `parquet:"name=message_index, type=INT32"`
	StartTime          string  `parquet:"name=start_time, type=BYTE_ARRAY, convertedtype=UTF8"`
	LengthType         string  `parquet:"name=length_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SwimStroke         string  `parquet:"name=swim_stroke, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TotalElapsedTime   float64 `parquet:"name=total_elapsed_time, type=DOUBLE"`
	TotalTimerTime     float64 `parquet:"name=total_timer_time, type=DOUBLE"`
	TotalStrokes       int32   `parquet:"name=total_strokes, type=INT32"`
	AvgSpeedKMH        float64 `parquet:"name=avg_speed_kmh, type=DOUBLE"`
	AvgSwimmingCadence int32   `parquet:"name=avg_swimming_cadence, type=INT32"`
	TotalCalories      int32   `parquet:"name=total_calories, type=INT32"`
	PacePer100m        float64 `parquet:"name=pace_per_100m_seconds, type=DOUBLE"`
}

func toParquetRow(r LengthRow) lengthParquetRow {
	return lengthParquetRow{
		MessageIndex:       int32(r.MessageIndex),
		StartTime:          r.StartTime,
		LengthType:         r.LengthType,
		SwimStroke:         r.SwimStroke,
		TotalElapsedTime:   r.TotalElapsedTime,
		TotalTimerTime:     r.TotalTimerTime,
		TotalStrokes:       int32(r.TotalStrokes),
		AvgSpeedKMH:        r.AvgSpeedKMH,
		AvgSwimmingCadence: int32(r.AvgSwimmingCadence),
		TotalCalories:      int32(r.TotalCalories),
		PacePer100m:        valueOrNaN(r.PacePer100m),
	}
}

// writeRows streams rows into fw and closes it.
func writeRows(fw source.ParquetFile, rows []LengthRow) error {
	pw, err := writer.NewParquetWriter(fw, new(lengthParquetRow), 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		if err := pw.Write(toParquetRow(r)); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func writeLengthsParquet(path string, rows []LengthRow) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	return writeRows(fw, rows)
}

func marshalLengthsParquet(rows []LengthRow) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	if err := writeRows(fw, rows); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
