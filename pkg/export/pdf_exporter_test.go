package export

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPDFRenderProducesDocument(t *testing.T) {
	exporter := NewPDFExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Donor", "Quantity"},
		Rows:    []map[string]string{{"Donor": "Maria Silva", "Quantity": "25.00"}},
	}, "Donations Report")
	require.NoError(t, err)
	require.True(t, len(out) > 0)
	require.Equal(t, "%PDF", string(out[:4]))
}

func TestPDFRenderRequiresHeaders(t *testing.T) {
	exporter := NewPDFExporter()

	_, err := exporter.Render(Dataset{}, "")
	require.Error(t, err)
}
