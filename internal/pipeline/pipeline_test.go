package pipeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandanaasingh09/NDMI-Calculator/internal/grid"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/parcel"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/pipeline"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/report"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/stac"
)

// --- mocks ---

type mockSearcher struct {
	calls []stac.SearchParams
	pages [][]stac.Item
	err   error
}

func (m *mockSearcher) Search(_ context.Context, params stac.SearchParams) ([]stac.Item, error) {
	m.calls = append(m.calls, params)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.calls) > len(m.pages) {
		return nil, nil
	}
	return m.pages[len(m.calls)-1], nil
}

type mockComputer struct {
	computed []string
	failFor  map[string]error
}

func (m *mockComputer) Compute(item stac.Item, _ *parcel.Parcel) (*grid.Grid, error) {
	m.computed = append(m.computed, item.ID)
	if err, ok := m.failFor[item.ID]; ok {
		return nil, err
	}
	return grid.New([][]float64{{0.5, 0.3}})
}

type mockRenderer struct {
	dates []string
	err   error
}

func (m *mockRenderer) Render(_ *grid.Grid, date, outputDir string) (string, error) {
	m.dates = append(m.dates, date)
	if m.err != nil {
		return "", m.err
	}
	return filepath.Join(outputDir, "ndmi_"+date+".png"), nil
}

type mockNotifier struct {
	messages []string
	err      error
}

func (m *mockNotifier) SendSuccess(message string) error {
	m.messages = append(m.messages, message)
	return m.err
}

// --- tests ---

func TestRun_ProcessesAllScenes(t *testing.T) {
	searcher := &mockSearcher{pages: [][]stac.Item{{
		makeItem("item-1", "2023-06-12T10:30:00Z", 12.5),
		makeItem("item-2", "2023-06-14T10:30:00Z", 30),
	}}}
	computer := &mockComputer{}
	renderer := &mockRenderer{}
	notifier := &mockNotifier{}

	p := pipeline.New(searcher, computer, renderer, notifier)
	summary, err := p.Run(context.Background(), testParams(t))
	require.NoError(t, err)

	require.Len(t, searcher.calls, 1)
	require.Len(t, summary.Results, 2)
	assert.False(t, summary.Fallback)
	assert.False(t, summary.NoData)
	assert.Equal(t, 2, summary.Saved())

	first := summary.Results[0]
	assert.Equal(t, "item-1", first.ItemID)
	assert.Equal(t, "2023-06-12", first.Date)
	assert.InDelta(t, 12.5, first.CloudCover, 1e-9)
	assert.InDelta(t, 0.4, first.MeanNDMI, 1e-9)
	assert.Contains(t, first.OutputFile, "ndmi_2023-06-12.png")
	assert.NoError(t, first.Err)

	assert.Equal(t, []string{"2023-06-12", "2023-06-14"}, renderer.dates)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "2 of 2")
}

func TestRun_RequestedWindow(t *testing.T) {
	searcher := &mockSearcher{pages: [][]stac.Item{{makeItem("item-1", "2023-06-12T10:30:00Z", 10)}}}
	p := pipeline.New(searcher, &mockComputer{}, &mockRenderer{}, nil)

	params := testParams(t)
	_, err := p.Run(context.Background(), params)
	require.NoError(t, err)

	require.Len(t, searcher.calls, 1)
	call := searcher.calls[0]
	assert.Equal(t, params.Parcel.Bbox, call.Bbox)
	assert.Equal(t, params.StartDate, call.StartDate)
	assert.Equal(t, params.EndDate, call.EndDate)
	assert.InDelta(t, 50, call.MaxCloudCover, 1e-9)
}

func TestRun_FallbackWindow(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	pipeline.SetClock(fakeClock)
	t.Cleanup(func() {
		pipeline.SetClock(nil)
	})

	searcher := &mockSearcher{pages: [][]stac.Item{
		nil,
		{makeItem("item-1", "2020-03-01T10:30:00Z", 10)},
	}}
	p := pipeline.New(searcher, &mockComputer{}, &mockRenderer{}, nil)

	summary, err := p.Run(context.Background(), testParams(t))
	require.NoError(t, err)

	require.Len(t, searcher.calls, 2)
	fallback := searcher.calls[1]
	assert.Equal(t, time.Date(2015, time.June, 23, 0, 0, 0, 0, time.UTC), fallback.StartDate)
	assert.Equal(t, fakeClock.Now().UTC(), fallback.EndDate)

	assert.True(t, summary.Fallback)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, "2020-03-01", summary.Results[0].Date)
}

func TestRun_NoData(t *testing.T) {
	searcher := &mockSearcher{}
	computer := &mockComputer{}
	notifier := &mockNotifier{}
	p := pipeline.New(searcher, computer, &mockRenderer{}, notifier)

	params := testParams(t)
	params.ReportPath = filepath.Join(t.TempDir(), "report.csv")
	summary, err := p.Run(context.Background(), params)
	require.NoError(t, err)

	assert.True(t, summary.NoData)
	assert.Len(t, searcher.calls, 2)
	assert.Empty(t, computer.computed)
	assert.Empty(t, notifier.messages)

	rows, err := report.Read(params.ReportPath)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRun_SceneFailureContinues(t *testing.T) {
	searcher := &mockSearcher{pages: [][]stac.Item{{
		makeItem("item-1", "2023-06-12T10:30:00Z", 12.5),
		makeItem("item-2", "2023-06-14T10:30:00Z", 30),
	}}}
	computer := &mockComputer{failFor: map[string]error{"item-1": errors.New("cutline does not intersect")}}
	p := pipeline.New(searcher, computer, &mockRenderer{}, nil)

	params := testParams(t)
	params.ReportPath = filepath.Join(t.TempDir(), "report.csv")
	summary, err := p.Run(context.Background(), params)
	require.NoError(t, err)

	require.Len(t, summary.Results, 2)
	require.Error(t, summary.Results[0].Err)
	assert.NoError(t, summary.Results[1].Err)
	assert.Equal(t, 1, summary.Saved())

	rows, err := report.Read(params.ReportPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, report.StatusFailed, rows[0].Status)
	assert.Contains(t, rows[0].Error, "cutline does not intersect")
	assert.Equal(t, report.StatusSaved, rows[1].Status)
	assert.Empty(t, rows[1].Error)
}

func TestRun_StopsAfterFirstSuccess(t *testing.T) {
	searcher := &mockSearcher{pages: [][]stac.Item{{
		makeItem("item-1", "2023-06-12T10:30:00Z", 12.5),
		makeItem("item-2", "2023-06-14T10:30:00Z", 30),
		makeItem("item-3", "2023-06-17T10:30:00Z", 5),
	}}}
	computer := &mockComputer{failFor: map[string]error{"item-1": errors.New("missing assets")}}
	p := pipeline.New(searcher, computer, &mockRenderer{}, nil)

	params := testParams(t)
	params.ProcessAll = false
	summary, err := p.Run(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, []string{"item-1", "item-2"}, computer.computed)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, 1, summary.Saved())
}

func TestRun_SearchError(t *testing.T) {
	searcher := &mockSearcher{err: errors.New("connection refused")}
	p := pipeline.New(searcher, &mockComputer{}, &mockRenderer{}, nil)

	_, err := p.Run(context.Background(), testParams(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to search catalog")
}

func TestRun_ContextCancelled(t *testing.T) {
	searcher := &mockSearcher{pages: [][]stac.Item{{makeItem("item-1", "2023-06-12T10:30:00Z", 10)}}}
	computer := &mockComputer{}
	p := pipeline.New(searcher, computer, &mockRenderer{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, testParams(t))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, computer.computed)
}

func TestRun_NotifierFailureIsNotFatal(t *testing.T) {
	searcher := &mockSearcher{pages: [][]stac.Item{{makeItem("item-1", "2023-06-12T10:30:00Z", 10)}}}
	notifier := &mockNotifier{err: errors.New("webhook gone")}
	p := pipeline.New(searcher, &mockComputer{}, &mockRenderer{}, notifier)

	summary, err := p.Run(context.Background(), testParams(t))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Saved())
	assert.Len(t, notifier.messages, 1)
}

// --- helpers ---

func makeItem(id, datetime string, cloudCover float64) stac.Item {
	return stac.Item{
		ID: id,
		Properties: stac.ItemProperties{
			Datetime:   datetime,
			CloudCover: cloudCover,
		},
	}
}

func testParams(t *testing.T) pipeline.Params {
	t.Helper()
	return pipeline.Params{
		Parcel:        &parcel.Parcel{Bbox: [4]float64{10.0, 45.0, 10.1, 45.1}},
		StartDate:     time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC),
		MaxCloudCover: 50,
		OutputDir:     t.TempDir(),
		ProcessAll:    true,
	}
}
