package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	apperrors "deptree/pkg/errors"
	"deptree/pkg/export"
	"deptree/pkg/filter"
	"deptree/pkg/graph"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	pkg       string
	repo      string
	testMode  string
	filterStr string
	format    string
	output    string
	maxDepth  int
	maxNodes  int
	noCache   bool
}

// exportCommand creates the export command, which materializes the full
// graph and writes it as JSON, Graphviz DOT, or a rendered SVG/PNG image.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{format: FormatJSON}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Build the dependency graph and export it",
		Long: `Build the full dependency graph and export it for other tools.

Formats:
  json  node/edge document, sorted for stable diffs (default)
  dot   Graphviz DOT
  svg   rendered image via Graphviz
  png   rendered image via Graphviz

Examples:
  deptree export --package com.google.guava:guava:33.0.0-jre --test-mode url -f dot
  deptree export --package A --repo graph.json --test-mode file -f svg -o graph.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.pkg, "package", "", "root package to analyze")
	cmd.Flags().StringVar(&opts.repo, "repo", "", "repository URL (url mode) or test graph JSON path (file mode)")
	cmd.Flags().StringVar(&opts.testMode, "test-mode", testModeURL, "dependency source: 'file' or 'url'")
	cmd.Flags().StringVar(&opts.filterStr, "filter", "", "exclude packages containing this substring")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json, dot, svg, png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "maximum dependency depth (default 50)")
	cmd.Flags().IntVar(&opts.maxNodes, "max-nodes", 0, "maximum packages to visit (default 5000)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	_ = cmd.MarkFlagRequired("package")

	return cmd
}

// runExport builds the graph and writes it in the requested format.
func (c *CLI) runExport(ctx context.Context, opts *exportOpts) error {
	if err := validateFormat(opts.format); err != nil {
		return err
	}

	src, closeSource, err := c.openSource(ctx, opts.pkg, opts.repo, opts.testMode, opts.noCache)
	if err != nil {
		return err
	}
	defer closeSource()

	logger := loggerFromContext(ctx)

	f := filter.Substring(opts.filterStr)
	if f.IsZero() {
		f = filter.Substring(c.Config.Filter)
	}

	var sp *Spinner
	if opts.testMode == testModeURL {
		sp = newSpinner(ctx, "Resolving dependency graph...")
		sp.Start()
	}
	maxNodes := c.pickLimit(opts.maxNodes, c.Config.MaxNodes)
	prog := newProgress(logger)
	g := graph.Build(ctx, opts.pkg, src.Resolve, graph.Options{
		MaxDepth: c.pickLimit(opts.maxDepth, c.Config.MaxDepth),
		MaxNodes: maxNodes,
		Filter:   f,
		Logger:   logger.Warnf,
	})
	if sp != nil {
		sp.Stop()
	}
	prog.done(fmt.Sprintf("Resolved %d packages with %d dependencies", g.Len(), g.EdgeCount()))
	warnNodeLimit(g, maxNodes)

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := writeExport(ctx, out, g, opts.format); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess("Exported %s graph", opts.format)
		printDetail("%s", opts.output)
	}
	return nil
}

func writeExport(ctx context.Context, w io.Writer, g *graph.Graph, format string) error {
	switch format {
	case FormatJSON:
		return graph.Write(g, w)
	case FormatDOT:
		_, err := io.WriteString(w, export.ToDOT(g))
		return err
	case FormatSVG:
		data, err := export.RenderSVG(ctx, export.ToDOT(g))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatPNG:
		data, err := export.RenderPNG(ctx, export.ToDOT(g))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return nil
}

func validateFormat(format string) error {
	switch format {
	case FormatJSON, FormatDOT, FormatSVG, FormatPNG:
		return nil
	}
	return apperrors.New(apperrors.ErrCodeInvalidFormat,
		"unknown format %q (available: json, dot, svg, png)", format)
}

// nopCloser wraps an io.Writer with a no-op Close method so os.Stdout can
// be used as an io.WriteCloser.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for path, or stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
