package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/graph"
	"github.com/matzehuels/groupsync/pkg/render"
)

// Graph output formats.
const (
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatPNG  = "png"
	formatPDF  = "pdf"
	formatJSON = "json"
)

var graphFormats = []string{formatDOT, formatSVG, formatPNG, formatPDF, formatJSON}

type graphOpts struct {
	format   string
	output   string
	packages bool
	locks    bool
	detailed bool
	reduce   bool
	scale    float64
}

// graphCommand exports the group structure.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the group include graph",
		Long: `Export the graph of groups, their include-group edges and (with
--packages) their required packages. Nodes on an include cycle are drawn
in red.

DOT and JSON are written to stdout unless -o is given. SVG is rendered
with embedded Graphviz; PNG and PDF additionally need rsvg-convert.`,
		Example: `  groupsync graph | dot -Tsvg > groups.svg
  groupsync graph --packages --locks --detailed -f svg -o groups.svg
  groupsync graph -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "", "output format: "+strings.Join(graphFormats, ", ")+" (default from -o extension, else dot)")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	f.BoolVar(&opts.packages, "packages", false, "add a node per required package")
	f.BoolVar(&opts.locks, "locks", false, "annotate package edges with locked pins")
	f.BoolVar(&opts.detailed, "detailed", false, "show node metadata in labels")
	f.BoolVar(&opts.reduce, "reduce", false, "drop edges implied by other paths")
	f.Float64Var(&opts.scale, "scale", 2, "PNG scale factor")
	return cmd
}

// graphFormat picks the explicit format, else the output extension, else DOT.
func graphFormat(format, output string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(output), ".")
		if format == "" || format == "gv" {
			format = formatDOT
		}
	}
	format = strings.ToLower(format)
	for _, f := range graphFormats {
		if f == format {
			return format, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown graph format %q (want %s)", format, strings.Join(graphFormats, ", "))
}

func (c *CLI) runGraph(ctx context.Context, opts graphOpts) error {
	format, err := graphFormat(opts.format, opts.output)
	if err != nil {
		return err
	}
	if (format == formatPNG || format == formatPDF) && opts.output == "" {
		return errors.New(errors.ErrCodeInvalidInput, "%s output needs -o", format)
	}

	cfg, m, err := c.loadManifest(ctx)
	if err != nil {
		return err
	}
	gopts := graph.Options{Packages: opts.packages || opts.locks}
	if opts.locks {
		if gopts.Locks, _, err = c.loadLocks(cfg, m); err != nil {
			return err
		}
	}
	g, dangling := graph.Build(m, gopts)
	for _, d := range dangling {
		c.Logger.Warn("include target does not exist", "group", d.Group.Name, "target", d.Target)
	}

	if opts.reduce {
		c.Logger.Debug("transitive reduction", "removed", g.TransitiveReduction())
	}

	highlight := make(map[string]bool)
	for _, cycle := range g.Cycles() {
		for _, id := range cycle {
			highlight[id] = true
		}
	}
	c.Logger.Debug("built graph", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "on_cycle", len(highlight))

	data, err := c.renderGraph(ctx, format, opts, g.NodeCount(), func() ([]byte, error) {
		if format == formatJSON {
			return graph.MarshalGraph(g)
		}
		return []byte(render.ToDOT(g, render.Options{Detailed: opts.detailed, Highlight: highlight})), nil
	})
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := c.Out.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", opts.output)
	}
	c.printSuccess("Wrote %s graph (%s)", format, plural(g.NodeCount(), "node"))
	c.printFile(opts.output)
	return nil
}

// renderGraph turns the DOT or JSON source into the requested format.
func (c *CLI) renderGraph(ctx context.Context, format string, opts graphOpts, nodes int, source func() ([]byte, error)) ([]byte, error) {
	src, err := source()
	if err != nil || format == formatDOT || format == formatJSON {
		return src, err
	}

	prog := newProgress(c.Logger)
	svg, err := render.RenderSVG(ctx, string(src))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render svg")
	}
	var out []byte
	switch format {
	case formatSVG:
		out = svg
	case formatPNG:
		out, err = render.ToPNG(ctx, svg, opts.scale)
	case formatPDF:
		out, err = render.ToPDF(ctx, svg)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "convert to %s", format)
	}
	prog.done("rendered graph", "nodes", nodes, "format", format)
	return out, nil
}
