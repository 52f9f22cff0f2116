package sim

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

// FileWriter writes entity rows, alerts and stats to JSONL files.
type FileWriter struct {
	mu        sync.Mutex
	teleFile  *os.File
	alertFile *os.File
	statsFile *os.File
	teleEnc   *json.Encoder
	alertEnc  *json.Encoder
	statsEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. alertPath or statsPath may be empty
// to skip those logs.
func NewFileWriter(telemetryPath, alertPath, statsPath string) (*FileWriter, error) {
	tf, err := os.Create(telemetryPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{teleFile: tf, teleEnc: json.NewEncoder(tf)}
	if alertPath != "" {
		af, err := os.Create(alertPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.alertFile = af
		fw.alertEnc = json.NewEncoder(af)
	}
	if statsPath != "" {
		sf, err := os.Create(statsPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.statsFile = sf
		fw.statsEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// Write logs a single entity row.
func (f *FileWriter) Write(row telemetry.EntityRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.teleEnc.Encode(row)
}

// WriteBatch logs multiple entity rows.
func (f *FileWriter) WriteBatch(rows []telemetry.EntityRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAlert logs an alert, if enabled.
func (f *FileWriter) WriteAlert(a alert.Alert) error {
	if f.alertEnc == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alertEnc.Encode(a)
}

// WriteStats logs a stats snapshot, if enabled.
func (f *FileWriter) WriteStats(s alert.Stats) error {
	if f.statsEnc == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statsEnc.Encode(s)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var errs []error
	for _, file := range []*os.File{f.teleFile, f.alertFile, f.statsFile} {
		if file != nil {
			errs = append(errs, file.Close())
		}
	}
	return errors.Join(errs...)
}
