package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/pipeline"
)

func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  galleryFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "layout [catalog]",
		Short: "Print the layout of a gallery page as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(cmd, args, &flags)
			if err != nil {
				return err
			}
			opts.Formats = []string{pipeline.FormatJSON}

			runner, err := c.newRunner(cmd, flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := runner.Execute(cmd.Context(), opts)
			if err != nil {
				return err
			}
			data := res.Artifacts[pipeline.FormatJSON]

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", output)
			}
			printSuccess("Wrote layout")
			printStats(res)
			printFile(output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}
