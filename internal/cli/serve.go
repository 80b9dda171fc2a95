package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/postcraft/internal/api"
	"github.com/matzehuels/postcraft/pkg/config"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			logger := loggerFromContext(ctx)
			stack, err := cfg.Build(ctx, config.BuildOptions{
				Logger:  logger,
				NoCache: noCache,
				NoFiles: !cfg.Server.AllowFiles,
			})
			if err != nil {
				return err
			}
			defer stack.Close()

			if addr == "" {
				addr = cfg.Server.Addr
			}
			srv := api.New(stack.Renderer,
				api.WithLogger(logger),
				api.WithMaxBody(cfg.Server.MaxBody),
				api.WithTimeout(cfg.Server.RequestTimeout),
			)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
