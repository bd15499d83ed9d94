package history

import (
	"database/sql"
	"errors"
	"time"
)

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id           string
		sourceURL    string
		timeRange    string
		outputPath   sql.NullString
		status       string
		failedStage  sql.NullString
		errorKind    sql.NullString
		errorMessage sql.NullString
		exitCode     sql.NullInt64
		startedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&sourceURL,
		&timeRange,
		&outputPath,
		&status,
		&failedStage,
		&errorKind,
		&errorMessage,
		&exitCode,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:           id,
		SourceURL:    sourceURL,
		TimeRange:    timeRange,
		OutputPath:   outputPath.String,
		Status:       Status(status),
		FailedStage:  failedStage.String,
		ErrorKind:    errorKind.String,
		ErrorMessage: errorMessage.String,
		ExitCode:     int(exitCode.Int64),
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout keeps a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
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
