package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/nandanaasingh09/NDMI-Calculator/internal/grid"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/parcel"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/report"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/stac"
)

// sentinel2Launch is the first day of the Sentinel-2 archive. The fallback
// search widens the window back to this date.
var sentinel2Launch = time.Date(2015, time.June, 23, 0, 0, 0, 0, time.UTC)

// Searcher finds catalog items for a bounding box and time window.
type Searcher interface {
	Search(ctx context.Context, params stac.SearchParams) ([]stac.Item, error)
}

// Computer derives the NDMI grid of one scene clipped to a parcel.
type Computer interface {
	Compute(item stac.Item, p *parcel.Parcel) (*grid.Grid, error)
}

// ComputeFunc adapts a plain function to the Computer interface.
type ComputeFunc func(item stac.Item, p *parcel.Parcel) (*grid.Grid, error)

func (f ComputeFunc) Compute(item stac.Item, p *parcel.Parcel) (*grid.Grid, error) {
	return f(item, p)
}

// Renderer writes the visualization for one scene and returns the file path.
type Renderer interface {
	Render(g *grid.Grid, date, outputDir string) (string, error)
}

// RenderFunc adapts a plain function to the Renderer interface.
type RenderFunc func(g *grid.Grid, date, outputDir string) (string, error)

func (f RenderFunc) Render(g *grid.Grid, date, outputDir string) (string, error) {
	return f(g, date, outputDir)
}

// Notifier reports a finished run to an external channel.
type Notifier interface {
	SendSuccess(message string) error
}

// Params configure a single run.
type Params struct {
	Parcel        *parcel.Parcel
	StartDate     time.Time
	EndDate       time.Time
	MaxCloudCover float64
	OutputDir     string
	ProcessAll    bool
	ReportPath    string
}

// Result records the outcome for one scene.
type Result struct {
	ItemID     string
	Date       string
	CloudCover float64
	MeanNDMI   float64
	OutputFile string
	Err        error
}

// Summary aggregates a whole run. NoData means neither the requested window
// nor the archive fallback produced any scene.
type Summary struct {
	Results  []Result
	Fallback bool
	NoData   bool
}

// Saved counts scenes that produced an output image.
func (s *Summary) Saved() int {
	count := 0
	for _, r := range s.Results {
		if r.Err == nil {
			count++
		}
	}
	return count
}

func (s *Summary) rows() []report.Row {
	rows := make([]report.Row, 0, len(s.Results))
	for _, r := range s.Results {
		row := report.Row{
			ItemID:     r.ItemID,
			Date:       r.Date,
			CloudCover: r.CloudCover,
			MeanNDMI:   r.MeanNDMI,
			OutputFile: r.OutputFile,
			Status:     report.StatusSaved,
		}
		if r.Err != nil {
			row.Status = report.StatusFailed
			row.Error = r.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

// Pipeline runs the search, compute and render stages for one parcel.
type Pipeline struct {
	searcher Searcher
	computer Computer
	renderer Renderer
	notifier Notifier
}

// New creates a Pipeline. The notifier may be nil.
func New(s Searcher, c Computer, r Renderer, n Notifier) *Pipeline {
	return &Pipeline{
		searcher: s,
		computer: c,
		renderer: r,
		notifier: n,
	}
}

// Run searches the catalog and processes every scene found, in catalog
// order. A scene failure is recorded in its Result and the loop moves on;
// only search and report failures abort the run.
func (p *Pipeline) Run(ctx context.Context, params Params) (*Summary, error) {
	window := stac.SearchParams{
		Bbox:          params.Parcel.Bbox,
		StartDate:     params.StartDate,
		EndDate:       params.EndDate,
		MaxCloudCover: params.MaxCloudCover,
	}
	items, err := p.searcher.Search(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}

	summary := &Summary{}
	if len(items) == 0 {
		logrus.Info("No items found for the given date range. Searching for the latest available imagery.")
		summary.Fallback = true
		window.StartDate = sentinel2Launch
		window.EndDate = clock.Now().UTC()
		items, err = p.searcher.Search(ctx, window)
		if err != nil {
			return nil, fmt.Errorf("failed to search catalog: %w", err)
		}
	}
	if len(items) == 0 {
		logrus.Info("No Sentinel-2 data found.")
		summary.NoData = true
		return summary, p.finish(params, summary)
	}

	progressBar := progressbar.Default(int64(len(items)), "Processing scenes")
	for _, item := range items {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result := p.processItem(item, params)
		summary.Results = append(summary.Results, result)
		progressBar.Add(1)

		if result.Err == nil && !params.ProcessAll {
			break
		}
	}
	fmt.Println()

	return summary, p.finish(params, summary)
}

func (p *Pipeline) processItem(item stac.Item, params Params) Result {
	result := Result{
		ItemID:     item.ID,
		Date:       item.Date(),
		CloudCover: item.Properties.CloudCover,
	}

	g, err := p.computer.Compute(item, params.Parcel)
	if err != nil {
		result.Err = err
		logrus.Errorf("Error processing item %s: %v", item.ID, err)
		return result
	}

	outputFile, err := p.renderer.Render(g, result.Date, params.OutputDir)
	if err != nil {
		result.Err = err
		logrus.Errorf("Error processing item %s: %v", item.ID, err)
		return result
	}

	result.MeanNDMI = g.Mean()
	result.OutputFile = outputFile
	logrus.Infof("NDMI calculated and saved for item %s on %s", item.ID, result.Date)
	return result
}

func (p *Pipeline) finish(params Params, summary *Summary) error {
	if params.ReportPath != "" {
		if err := report.Write(params.ReportPath, summary.rows()); err != nil {
			return err
		}
	}

	if p.notifier != nil && len(summary.Results) > 0 {
		message := fmt.Sprintf("NDMI run finished: %d of %d scenes saved to %s",
			summary.Saved(), len(summary.Results), params.OutputDir)
		if err := p.notifier.SendSuccess(message); err != nil {
			logrus.Warnf("Failed to send notification: %v", err)
		}
	}
	return nil
}
