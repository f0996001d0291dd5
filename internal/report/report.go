package report

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

const (
	StatusSaved  = "saved"
	StatusFailed = "failed"
)

// Row summarizes one processed scene of a run.
type Row struct {
	ItemID     string  `csv:"item_id"`
	Date       string  `csv:"date"`
	CloudCover float64 `csv:"cloud_cover"`
	MeanNDMI   float64 `csv:"mean_ndmi"`
	OutputFile string  `csv:"output_file"`
	Status     string  `csv:"status"`
	Error      string  `csv:"error"`
}

// Write saves the run summary. An empty rows slice still produces a file
// with the header, so a run that processed nothing leaves a trace.
func Write(path string, rows []Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Read loads a previously written report.
func Read(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer file.Close()

	var rows []Row
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return rows, nil
}
