package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVRenderOrdersColumnsByHeader(t *testing.T) {
	exporter := NewCSVExporter()

	data := Dataset{
		Headers: []string{"Donor", "Quantity", "Unit"},
		Rows: []map[string]string{
			{"Unit": "kg", "Donor": "Maria Silva", "Quantity": "25.00"},
			{"Donor": "Ana Costa", "Quantity": "10.00"},
		},
	}
	out, err := exporter.Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Donor,Quantity,Unit", lines[0])
	require.Equal(t, "Maria Silva,25.00,kg", lines[1])
	// Missing cells render as empty fields.
	require.Equal(t, "Ana Costa,10.00,", lines[2])
}

func TestCSVRenderEscapesCommas(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Donor"},
		Rows:    []map[string]string{{"Donor": "Silva, Maria"}},
	})
	require.NoError(t, err)
	require.Contains(t, string(out), `"Silva, Maria"`)
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}
