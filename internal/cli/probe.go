package cli

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/brickwall/pkg/cache"
	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/gallery"
	"github.com/matzehuels/brickwall/pkg/probe"
)

type probeOpts struct {
	tag     string
	workers int
	all     bool
	write   bool
	noCache bool
}

func (c *CLI) probeCommand() *cobra.Command {
	var opts probeOpts

	cmd := &cobra.Command{
		Use:   "probe [catalog]",
		Short: "Discover the natural size of catalog images",
		Long: `Probe decodes the header of every image whose size the catalog does not
declare and prints the sizes. With --write, the sizes are stored in the
catalog so later runs skip decoding.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			path := cfg.Catalog
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				return errors.New(errors.ErrCodeInvalidInput, "catalog is required")
			}

			cat, err := gallery.Load(path)
			if err != nil {
				return err
			}

			var pc cache.Cache = cache.NewNullCache()
			if !opts.noCache {
				if pc, err = cfg.Cache.OpenCache(cmd.Context()); err != nil {
					return err
				}
			}
			defer pc.Close()

			var jobs []probe.Job
			for i, it := range cat.Images {
				if opts.tag != "" && !it.HasTag(opts.tag) {
					continue
				}
				if it.HasSize() && !opts.all {
					continue
				}
				jobs = append(jobs, probe.Job{Index: i, Path: cat.Path(it)})
			}
			if len(jobs) == 0 {
				printInfo("Every image already has a size")
				return nil
			}

			logger := loggerFromContext(cmd.Context())
			prober := &probe.Prober{Workers: opts.workers, Cache: pc, Keyer: cfg.Cache.Keyer(), Logger: logger}

			prog := newProgress(logger)
			spin := newSpinner(cmd.Context(), os.Stderr, fmt.Sprintf("Probing %d images", len(jobs)))
			spin.Start()

			var results []probe.Loaded
			err = prober.Each(cmd.Context(), jobs, func(l probe.Loaded) error {
				results = append(results, l)
				spin.Update("Probing images (%d/%d)", len(results), len(jobs))
				return nil
			})
			if err != nil {
				spin.StopWithError("Probe failed")
				return err
			}
			spin.StopWithSuccess("Probed %d images", len(results))
			prog.done("probe finished", "images", len(results))

			fmt.Println(probeTable(cat, results))

			if opts.write {
				return writeSizes(path, results)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.tag, "tag", "", "only probe images with this tag")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent decoders (default GOMAXPROCS)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "also probe images with a declared size")
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "store the sizes in the catalog file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the size cache")
	return cmd
}

// probeTable renders the results in catalog order.
func probeTable(cat *gallery.Catalog, results []probe.Loaded) string {
	sorted := append([]probe.Loaded(nil), results...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	rows := make([][]string, 0, len(sorted))
	for _, l := range sorted {
		w, h := l.Size.Round()
		src := cat.Images[l.Index].Src
		status := StyleDim.Render(iconFresh)
		if l.Cached {
			status = styleCached.Render(iconCached)
		}
		rows = append(rows, []string{
			fmt.Sprint(l.Index),
			src,
			fmt.Sprintf("%d×%d", w, h),
			fmt.Sprintf("%.2f", l.Size.AspectRatio()),
			status,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Image", "Size", "Ratio", "").
		Rows(rows...).
		String()
}

// writeSizes stores probed sizes in the catalog at path. The file is parsed
// again without resolving the image root so that it is written back as
// authored.
func writeSizes(path string, results []probe.Loaded) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidCatalog, err, "read catalog %s", path)
	}
	format := gallery.FormatOf(path)
	raw, err := gallery.Parse(data, format)
	if err != nil {
		return err
	}
	for _, l := range results {
		w, h := l.Size.Round()
		raw.Images[l.Index] = raw.Images[l.Index].WithSize(w, h)
	}

	var buf bytes.Buffer
	if err := raw.Encode(&buf, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write catalog %s", path)
	}
	printSuccess("Stored %d sizes", len(results))
	printFile(path)
	return nil
}
