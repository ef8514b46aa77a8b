package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widgetYAML = `
id: "42"
name: Acme Movers
steps:
  project-scope:
    options:
      - id: 2br
        title: 2 Bedroom
        estimation:
          base_price: 500
settings:
  tax_rate: 0.1
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEstimateFromFiles(t *testing.T) {
	dir := t.TempDir()
	widgetPath := filepath.Join(dir, "acme.yaml")
	require.NoError(t, os.WriteFile(widgetPath, []byte(widgetYAML), 0644))

	out, err := execute(t, `{"project-scope": {"selectedOption": "2br"}}`,
		"estimate", "--widget", widgetPath, "--responses", "-", "--format", "json")
	require.NoError(t, err, out)

	var report struct {
		WidgetName string `json:"widget_name"`
		Result     struct {
			TotalPrice json.Number `json:"total_price"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Equal(t, "Acme Movers", report.WidgetName)
	assert.Equal(t, "550.00", report.Result.TotalPrice.String())
}

func TestEstimateRejectsNonObjectResponses(t *testing.T) {
	dir := t.TempDir()
	widgetPath := filepath.Join(dir, "acme.yaml")
	require.NoError(t, os.WriteFile(widgetPath, []byte(widgetYAML), 0644))

	_, err := execute(t, `["2br"]`, "estimate", "--widget", widgetPath, "--responses", "-", "--format", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "responses must be an object")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "widget-estimate version")
}
