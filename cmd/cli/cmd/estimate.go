// Package cmd - estimate command
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"widget-estimate/adapters/widgets"
	"widget-estimate/core/engine"
	"widget-estimate/core/output"
	"widget-estimate/core/widget"
	"widget-estimate/internal/config"
	apperrors "widget-estimate/internal/errors"
)

var (
	outputFormat  string
	widgetFile    string
	widgetKey     string
	responsesFile string
)

// estimateCmd represents the estimate command
var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Compute an estimate from a widget configuration and responses",
	Long: `Price a set of widget responses offline.

The widget comes from a configuration file (--widget, .json/.yaml/.yml) or
from the configured widgets directory (--key). Responses are a JSON object
mapping step id to the visitor's answer; use "-" to read them from stdin.

Examples:
  widget-estimate estimate --widget acme.yaml --responses answers.json
  widget-estimate estimate --key acme --responses answers.json --format markdown
  cat answers.json | widget-estimate estimate --widget acme.json --responses -`,
	Args: cobra.NoArgs,
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (cli, json, markdown); default from config")
	estimateCmd.Flags().StringVarP(&widgetFile, "widget", "w", "", "widget configuration file")
	estimateCmd.Flags().StringVarP(&widgetKey, "key", "k", "", "widget key in the configured widgets directory")
	estimateCmd.Flags().StringVarP(&responsesFile, "responses", "r", "", "responses JSON file, or - for stdin")
	_ = estimateCmd.MarkFlagRequired("responses")
	estimateCmd.MarkFlagsMutuallyExclusive("widget", "key")
	estimateCmd.MarkFlagsOneRequired("widget", "key")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()

	format := outputFormat
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	formatter, ok := output.DefaultRegistry(cfg.Output.NoColor).Get(output.Format(format))
	if !ok {
		return fmt.Errorf("unknown output format %q (want one of %v)", format, output.DefaultRegistry(true).Formats())
	}

	responses, err := readResponses(cmd.InOrStdin(), responsesFile)
	if err != nil {
		return err
	}

	req := engine.EstimateRequest{WidgetKey: widgetKey, Responses: responses}
	var source engine.ConfigSource
	if widgetFile != "" {
		if req.Config, err = loadWidgetFile(widgetFile); err != nil {
			return err
		}
		req.WidgetKey = strings.TrimSuffix(filepath.Base(widgetFile), filepath.Ext(widgetFile))
	} else {
		provider, err := widgets.NewDirectoryProvider(cfg.Widgets.Directory)
		if err != nil {
			return err
		}
		defer provider.Close()
		source = provider
	}

	report, err := engine.NewEstimator(source).Estimate(ctx, req)
	if err != nil {
		return err
	}
	return formatter.Render(cmd.OutOrStdout(), report)
}

func readResponses(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, apperrors.Input("read responses from stdin", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Input("read responses file", err).WithContext("path", path)
	}
	return data, nil
}

func loadWidgetFile(path string) (*widget.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Input("read widget file", err).WithContext("path", path)
	}

	var cfg *widget.Configuration
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = widget.ParseYAML(data)
	default:
		cfg, err = widget.Parse(data)
	}
	if err != nil {
		return nil, apperrors.Input("decode widget file", err).WithContext("path", path)
	}
	return cfg, nil
}
