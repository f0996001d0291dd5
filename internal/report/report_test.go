package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandanaasingh09/NDMI-Calculator/internal/report"
)

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	rows := []report.Row{
		{
			ItemID:     "S2A_32TQM_20230612_0_L2A",
			Date:       "2023-06-12",
			CloudCover: 12.5,
			MeanNDMI:   0.34,
			OutputFile: "out/ndmi_2023-06-12.png",
			Status:     report.StatusSaved,
		},
		{
			ItemID: "S2B_32TQM_20230614_0_L2A",
			Date:   "2023-06-14",
			Status: report.StatusFailed,
			Error:  "item S2B_32TQM_20230614_0_L2A is missing required assets: nir08",
		},
	}

	require.NoError(t, report.Write(path, rows))

	got, err := report.Read(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, report.Write(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "item_id,"))
}

func TestWriteBadPath(t *testing.T) {
	err := report.Write(filepath.Join(t.TempDir(), "missing", "report.csv"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create report file")
}

func TestReadMissingFile(t *testing.T) {
	_, err := report.Read(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open report file")
}
