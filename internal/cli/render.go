package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/brickwall/pkg/brick"
	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/pipeline"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	gallery   galleryFlags
	output    string
	formats   string
	title     string
	imageBase string
	labels    bool
	pngScale  float64
	everyPage bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [catalog]",
		Short: "Render a gallery page to HTML, SVG, JSON or PNG",
		Long: `Render lays out one page of a catalog and writes it in each requested format.

Output files are named after --output (or the catalog) with the format as
extension. With --every-page, every page is written and numbered, and the
HTML pages link to each other.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := c.options(cmd, args, &opts.gallery)
			if err != nil {
				return err
			}
			popts.Formats = parseFormats(opts.formats)
			if err := pipeline.ValidateFormats(popts.Formats); err != nil {
				return err
			}
			popts.Title = opts.title
			popts.ImageBase = opts.imageBase
			popts.Labels = opts.labels
			popts.PNGScale = opts.pngScale

			runner, err := c.newRunner(cmd, opts.gallery.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			base := basePath(opts.output, popts.CatalogPath)
			if opts.everyPage {
				return runRenderPages(cmd.Context(), runner, popts, base)
			}
			return runRender(cmd.Context(), runner, popts, base)
		},
	}

	opts.gallery.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: catalog name)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): html (default), svg, json, png (comma-separated)")
	cmd.Flags().StringVar(&opts.title, "title", "", "page title (default: catalog title)")
	cmd.Flags().StringVar(&opts.imageBase, "image-base", "", "URL prefix for image sources in HTML and JSON")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "show captions in the SVG wireframe")
	cmd.Flags().Float64Var(&opts.pngScale, "png-scale", 0, "PNG contact sheet scale")
	cmd.Flags().BoolVar(&opts.everyPage, "every-page", false, "render every page")

	return cmd
}

// runRender renders a single page.
func runRender(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, base string) error {
	prog := newProgress(opts.Logger)
	res, err := executeWithSpinner(ctx, runner, opts, "Rendering "+opts.CatalogPath)
	if err != nil {
		return err
	}

	paths, err := writeArtifacts(res, base)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", opts.CatalogPath)
	printStats(res)
	for _, p := range paths {
		printFile(p)
	}
	prog.done("render finished", "files", len(paths))
	return nil
}

// runRenderPages renders every page of the selection into numbered files.
func runRenderPages(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, base string) error {
	prog := newProgress(opts.Logger)
	opts.All = false
	opts.PageURL = func(n int) string {
		return filepath.Base(pagePath(base, n, pipeline.FormatHTML))
	}

	var files int
	for n := 0; ; n++ {
		opts.Page = n
		res, err := executeWithSpinner(ctx, runner, opts, fmt.Sprintf("Rendering page %d", n+1))
		if err != nil {
			return err
		}
		paths, err := writeArtifacts(res, pageBase(base, n))
		if err != nil {
			return err
		}
		files += len(paths)

		printSuccess("Rendered page %d of %d", n+1, max(res.Page.Count(), 1))
		printStats(res)
		for _, p := range paths {
			printFile(p)
		}
		if res.Page.IsEnd() {
			break
		}
	}
	prog.done("render finished", "files", files)
	return nil
}

// executeWithSpinner runs the pipeline behind a spinner that counts rows
// as the assembler finalizes them.
func executeWithSpinner(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, msg string) (*pipeline.Result, error) {
	spin := newSpinner(ctx, os.Stderr, msg)
	spin.Start()
	defer spin.Stop()

	opts.OnRow = rowProgress(spin, msg)
	return runner.Execute(ctx, opts)
}

// rowProgress returns an OnRow callback reporting finished rows on spin.
func rowProgress(spin *Spinner, msg string) func(brick.Row) {
	var rows, images int
	return func(r brick.Row) {
		rows++
		images += r.Len()
		spin.Update("%s: %d rows ready (%d images)", msg, rows, images)
	}
}

// pageBase is the base path of page n: base for the first page, base-N+1
// after that.
func pageBase(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n+1)
}

func pagePath(base string, n int, format string) string {
	return pageBase(base, n) + "." + format
}

// writeArtifacts writes each artifact to base.<format> in a stable order.
func writeArtifacts(res *pipeline.Result, base string) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create output dir %s", dir)
		}
	}

	var paths []string
	for _, format := range []string{pipeline.FormatHTML, pipeline.FormatSVG, pipeline.FormatJSON, pipeline.FormatPNG} {
		data, ok := res.Artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
