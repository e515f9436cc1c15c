package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFExporterRenderHebrewContent(t *testing.T) {
	exporter := NewPDFExporter()

	// Hebrew degrades in the built-in fonts but must never fail the render
	payload, err := exporter.Render(Dataset{
		Headers: []string{"student", "class"},
		Rows: []map[string]string{
			{"student": "דנה לוי", "class": "ט1"},
		},
	}, "unconnected")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF-")))
}

func TestPDFExporterWideDatasetLandscape(t *testing.T) {
	exporter := NewPDFExporter()

	payload, err := exporter.Render(Dataset{
		Headers: []string{"id", "year", "period", "test_id", "class", "student", "edited_by", "edited_at"},
		Rows:    []map[string]string{{"id": "1", "student": "Dana Levi"}},
	}, "assignments")
	require.NoError(t, err)
	// A4 landscape media box is 841.89 x 595.28 points
	assert.Contains(t, string(payload), "/MediaBox [0 0 841.89 595.28]")
}

func TestPDFExporterRenderRequiresHeaders(t *testing.T) {
	exporter := NewPDFExporter()

	_, err := exporter.Render(Dataset{}, "")
	require.Error(t, err)
}
