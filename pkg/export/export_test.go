package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"match", "slot", "referee"},
		Rows: []map[string]string{
			{"match": "Lions - Bears", "slot": "MAIN", "referee": "Ana Kovac"},
			{"match": "Lions - Bears", "slot": "ASSISTANT_1", "referee": "Marko Horvat"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	content, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"match", "slot", "referee"}, records[0])
	assert.Equal(t, "Ana Kovac", records[1][2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	content, err := NewPDFExporter().Render(sampleDataset(), "Delegation Summary")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "Empty")
	assert.Error(t, err)
}

func TestRenderOfficialsSheet(t *testing.T) {
	sheet := OfficialsSheet{
		Competition: "First Division",
		HomeTeam:    "Lions",
		AwayTeam:    "Bears",
		Venue:       "Arena One, Zagreb",
		KickoffAt:   "2026-09-12 18:00",
		Notes:       "Derby game, arrive early.",
		Slots: []OfficialsSheetRow{
			{Slot: "main referee", Referee: "Ana Kovac", License: "INTERNATIONAL", City: "Zagreb", Response: "ACCEPTED"},
			{Slot: "first assistant", Referee: "Marko Horvat", License: "A", City: "Split", Response: "PENDING"},
			{Slot: "second assistant"},
			{Slot: "match delegate"},
		},
	}

	content, err := NewPDFExporter().RenderOfficialsSheet(sheet)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
	assert.Greater(t, len(content), 500)
}
