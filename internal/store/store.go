// Package store persists closed-loop runs: one directory per run with JSON
// metadata and a CSV sample trace.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/armsim/internal/telemetry"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Kp          float64            `json:"kp"`
	Kd          float64            `json:"kd"`
	SetpointDeg float64            `json:"setpoint_deg"`
	Metrics     map[string]float64 `json:"metrics"`
}

var csvHeader = []string{"time", "angle_rad", "velocity_rad_per_sec", "volts", "current_amps", "battery_volts"}

// Save writes one run to disk and returns its generated ID.
func (s *Store) Save(meta RunMetadata, frames []telemetry.Frame) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Name, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, f := range frames {
		row := []string{
			formatFloat(f.TimeSec),
			formatFloat(f.AngleRad),
			formatFloat(f.VelocityRadPerSec),
			formatFloat(f.Volts),
			formatFloat(f.CurrentAmps),
			formatFloat(f.BatteryVolts),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadFrames reads the sample trace of a run back into memory.
func (s *Store) LoadFrames(runID string) ([]telemetry.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []telemetry.Frame{}, nil
	}

	frames := make([]telemetry.Frame, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < len(csvHeader) {
			continue
		}
		values := make([]float64, len(csvHeader))
		ok := true
		for i := range values {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				ok = false
				break
			}
			values[i] = v
		}
		if !ok {
			continue
		}
		frames = append(frames, telemetry.Frame{
			TimeSec:           values[0],
			AngleRad:          values[1],
			VelocityRadPerSec: values[2],
			Volts:             values[3],
			CurrentAmps:       values[4],
			BatteryVolts:      values[5],
		})
	}
	return frames, nil
}
