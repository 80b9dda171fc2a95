package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/postcraft/pkg/config"
)

func (c *CLI) fontsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "Inspect and load font families",
	}
	cmd.AddCommand(c.fontsListCommand())
	cmd.AddCommand(c.fontsLoadCommand())
	return cmd
}

func (c *CLI) fontsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the families available without a download",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, _, err := c.newStack(cmd.Context(), config.BuildOptions{NoCache: true})
			if err != nil {
				return err
			}
			defer stack.Close()

			reg := stack.Renderer.Fonts().Registry()
			reg.Init()
			for _, name := range reg.Families() {
				fmt.Fprintln(os.Stdout, name)
			}
			return nil
		},
	}
}

func (c *CLI) fontsLoadCommand() *cobra.Command {
	var noCache bool
	cmd := &cobra.Command{
		Use:   "load <family>...",
		Short: "Load families the way a render would and report the outcome",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, _, err := c.newStack(cmd.Context(), config.BuildOptions{NoCache: noCache})
			if err != nil {
				return err
			}
			defer stack.Close()

			spinner := newSpinnerWithContext(cmd.Context(), "Loading fonts...")
			spinner.Start()
			results, err := stack.Renderer.Fonts().Load(cmd.Context(), args)
			spinner.Stop()
			if err != nil {
				return err
			}

			for _, r := range results {
				switch {
				case r.Loaded && r.Variants > 0:
					printSuccess("%s: %d variants downloaded", r.Family, r.Variants)
				case r.Loaded:
					printSuccess("%s: available locally", r.Family)
				}
			}
			printFontResults(results)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
