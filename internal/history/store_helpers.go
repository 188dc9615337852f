package history

import (
	"database/sql"
	"errors"
	"time"
)

const runColumns = "id, status, workers, filters, started_at, finished_at, total, converted, failed, skipped, warnings"

const resultColumns = "id, run_id, chart_id, song_id, difficulty, source_path, status, error_kind, message, duration_ms, warnings, output_path, output_bytes, recorded_at"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type scanner interface{ Scan(dest ...any) error }

func scanRun(row scanner) (*Run, error) {
	var (
		run         Run
		status      string
		filters     sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := row.Scan(
		&run.ID,
		&status,
		&run.Workers,
		&filters,
		&startedRaw,
		&finishedRaw,
		&run.Total,
		&run.Converted,
		&run.Failed,
		&run.Skipped,
		&run.Warnings,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.Filters = filters.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func scanResult(row scanner) (*Result, error) {
	var (
		res         Result
		status      string
		sourcePath  sql.NullString
		errorKind   sql.NullString
		message     sql.NullString
		durationMs  int64
		outputPath  sql.NullString
		recordedRaw string
	)
	if err := row.Scan(
		&res.ID,
		&res.RunID,
		&res.ChartID,
		&res.SongID,
		&res.Difficulty,
		&sourcePath,
		&status,
		&errorKind,
		&message,
		&durationMs,
		&res.Warnings,
		&outputPath,
		&res.OutputBytes,
		&recordedRaw,
	); err != nil {
		return nil, err
	}
	res.Status = Status(status)
	res.SourcePath = sourcePath.String
	res.ErrorKind = errorKind.String
	res.Message = message.String
	res.Duration = time.Duration(durationMs) * time.Millisecond
	res.OutputPath = outputPath.String
	if recorded, err := parseTimeString(recordedRaw); err == nil {
		res.RecordedAt = recorded
	}
	return &res, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
