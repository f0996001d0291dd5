package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

const dateLayout = "2006-01-02"

// Values carry the raw run configuration before validation, either decoded
// from a JSON config file or collected from command-line flags.
type Values struct {
	GeoJSONPath string `json:"geojson_path"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	OutputPath  string `json:"output_path"`
	ProcessAll  *bool  `json:"process_all"`
	ReportPath  string `json:"report_path"`
}

// Config is the validated run configuration.
type Config struct {
	GeoJSONPath string
	StartDate   time.Time
	EndDate     time.Time
	OutputPath  string
	ProcessAll  bool
	ReportPath  string
}

// FromFile reads and validates a JSON config file.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var values Values
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return New(values)
}

// New validates raw values into a Config. geojson_path, start_date, end_date
// and output_path are required; process_all defaults to true.
func New(values Values) (*Config, error) {
	if values.GeoJSONPath == "" {
		return nil, errors.New("geojson_path is required")
	}
	if values.StartDate == "" {
		return nil, errors.New("start_date is required")
	}
	if values.EndDate == "" {
		return nil, errors.New("end_date is required")
	}
	if values.OutputPath == "" {
		return nil, errors.New("output_path is required")
	}

	startDate, err := time.Parse(dateLayout, values.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD", values.StartDate)
	}
	endDate, err := time.Parse(dateLayout, values.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD", values.EndDate)
	}
	if startDate.After(endDate) {
		return nil, fmt.Errorf("start_date %s is after end_date %s", values.StartDate, values.EndDate)
	}

	processAll := true
	if values.ProcessAll != nil {
		processAll = *values.ProcessAll
	}

	return &Config{
		GeoJSONPath: values.GeoJSONPath,
		StartDate:   startDate,
		// An end date covers its whole day, the way a date-only range does
		// in catalog queries.
		EndDate:    endDate.Add(24*time.Hour - time.Second),
		OutputPath: values.OutputPath,
		ProcessAll: processAll,
		ReportPath: values.ReportPath,
	}, nil
}
