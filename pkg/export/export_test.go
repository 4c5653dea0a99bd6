package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderPositionalRows(t *testing.T) {
	exporter := NewCSVExporter()

	payload, err := exporter.Render(Dataset{
		Headers: []string{"Student", "Test Score", "Task Score", "Percentage", "Overall Outcome", "Notes"},
		Rows: [][]string{
			{"stu-1", "75", "0", "75", "Not Yet Competent", ""},
			{"stu-2", "80", "60", "80", "Competent", "resit passed"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student,Test Score,Task Score,Percentage,Overall Outcome,Notes", lines[0])
	assert.Equal(t, "stu-1,75,0,75,Not Yet Competent,", lines[1])
	assert.Equal(t, "stu-2,80,60,80,Competent,resit passed", lines[2])
}

func TestCSVRenderPadsShortRows(t *testing.T) {
	exporter := NewCSVExporter()

	payload, err := exporter.Render(Dataset{
		Headers: []string{"Student", "Percentage", "Notes"},
		Rows:    [][]string{{"stu-1", "75"}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(payload), "stu-1,75,")
}

func TestCSVRenderRejectsWideRows(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{
		Headers: []string{"Student"},
		Rows:    [][]string{{"stu-1", "extra"}},
	})
	require.Error(t, err)
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	exporter := NewPDFExporter()

	payload, err := exporter.Render(Dataset{
		Headers: []string{"Student", "Percentage"},
		Rows:    [][]string{{"stu-1", "75"}},
	}, "Knife Skills")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}
