// Package cli implements the brickwall command-line interface.
package cli

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/brickwall/pkg/buildinfo"
	"github.com/matzehuels/brickwall/pkg/cache"
	"github.com/matzehuels/brickwall/pkg/config"
	"github.com/matzehuels/brickwall/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by the --config flag. Empty means the default path.
	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Brickwall lays out image galleries as justified brick walls",
		Long:         `Brickwall packs images into rows by aspect ratio, scales every row to a common width and renders the wall as HTML, SVG, JSON or a PNG contact sheet.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfigLevel()
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.probeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config and Runner Factory
// =============================================================================

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := c.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// applyConfigLevel sets the log level from the config file unless --verbose
// already raised it. Config errors are reported by the command that needs it.
func (c *CLI) applyConfigLevel() {
	if c.Logger.GetLevel() == log.DebugLevel {
		return
	}
	cfg, err := c.config()
	if err != nil {
		return
	}
	if lvl, err := log.ParseLevel(cfg.Logging.Level); err == nil {
		c.SetLogLevel(lvl)
	}
}

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(cmd *cobra.Command, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	var ch cache.Cache = cache.NewNullCache()
	if !noCache {
		if ch, err = cfg.Cache.OpenCache(cmd.Context()); err != nil {
			return nil, err
		}
	}
	return pipeline.NewRunner(ch, cfg.Cache.Keyer(), loggerFromContext(cmd.Context())), nil
}

// =============================================================================
// Gallery Flags
// =============================================================================

// galleryFlags are the selection and layout flags shared by the commands that
// run the pipeline.
type galleryFlags struct {
	tag        string
	page       int
	size       int
	all        bool
	width      float64
	maxBlocks  float64
	separation float64
	rowGap     float64
	workers    int
	refresh    bool
	noCache    bool
}

func (f *galleryFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.tag, "tag", "", "only include images with this tag")
	fl.IntVar(&f.page, "page", 0, "page number (zero-based)")
	fl.IntVar(&f.size, "size", 0, "images per page (default from config)")
	fl.BoolVar(&f.all, "all", false, "put every image on one page")
	fl.Float64Var(&f.width, "width", 0, "row width in pixels (default from config)")
	fl.Float64Var(&f.maxBlocks, "max-blocks", 0, "weight budget per row (default from config)")
	fl.Float64Var(&f.separation, "separation", -1, "horizontal gap between images (default from config)")
	fl.Float64Var(&f.rowGap, "row-gap", -1, "vertical gap between rows (default from config)")
	fl.IntVar(&f.workers, "workers", 0, "concurrent image decoders (default GOMAXPROCS)")
	fl.BoolVar(&f.refresh, "refresh", false, "ignore cached image sizes")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// options builds pipeline options from the config, the catalog argument and
// the flags, in increasing precedence.
func (c *CLI) options(cmd *cobra.Command, args []string, f *galleryFlags) (pipeline.Options, error) {
	cfg, err := c.config()
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := cfg.PipelineOptions()
	if len(args) > 0 {
		opts.CatalogPath = args[0]
	}
	opts.Tag = f.tag
	opts.Page = f.page
	opts.All = f.all
	opts.Workers = f.workers
	opts.Refresh = f.refresh
	if f.size > 0 {
		opts.PageSize = f.size
	}
	if f.width > 0 {
		opts.Width = f.width
	}
	if f.maxBlocks > 0 {
		opts.MaxBlocks = f.maxBlocks
	}
	if cmd.Flags().Changed("separation") {
		opts.Separation = f.separation
	}
	if cmd.Flags().Changed("row-gap") {
		opts.RowGap = f.rowGap
	}
	opts.Logger = loggerFromContext(cmd.Context())
	return opts, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatHTML}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// basePath derives the base output path from the output flag and the catalog
// path. A known format extension on output is stripped.
func basePath(output, catalog string) string {
	if output == "" {
		name := filepath.Base(catalog)
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
