package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/brickwall/internal/server"
	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/gallery"
	"github.com/matzehuels/brickwall/pkg/pipeline"
)

type serveOpts struct {
	addr    string
	timeout time.Duration
	noCache bool
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [catalog]",
		Short: "Serve a gallery over HTTP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

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
			if opts.addr == "" {
				opts.addr = cfg.Server.Addr
			}

			cat, err := gallery.Load(path)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(cmd, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			st, err := cfg.Store.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			defaults := cfg.PipelineOptions()
			defaults.Formats = []string{pipeline.FormatHTML}
			srv, err := server.New(server.Config{
				Catalog:        cat,
				CatalogPath:    path,
				Runner:         runner,
				Store:          st,
				Logger:         logger,
				Defaults:       defaults,
				ImageBase:      cfg.Server.ImageBase,
				RecordTTL:      cfg.StoreTTL(),
				RequestTimeout: opts.timeout,
			})
			if err != nil {
				return err
			}

			printInfo("Serving %s on %s", StyleValue.Render(path), StyleNumber.Render(opts.addr))
			printKeyValue("cache", cfg.Cache.Backend)
			printKeyValue("store", cfg.Store.Backend)
			printKeyValue("images", StyleNumber.Render(strconv.Itoa(cat.Len())))
			return srv.ListenAndServe(ctx, opts.addr, cfg.ReadTimeout(), cfg.WriteTimeout())
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "per-request timeout (0 disables)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	return cmd
}
