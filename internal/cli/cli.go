package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/postcraft/pkg/buildinfo"
	"github.com/matzehuels/postcraft/pkg/config"
)

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
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
		Short:        "Postcraft renders branded 1080x1080 social posts",
		Long:         `Postcraft turns a layout spec of text blocks, images and brand colors into a finished square post, recoloring template artwork to the brand palette.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/postcraft/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.fontsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the file named by --config, or the default location.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// newStack loads the config and assembles a renderer from it.
func (c *CLI) newStack(ctx context.Context, opts config.BuildOptions) (*config.Stack, config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	if opts.Logger == nil {
		opts.Logger = loggerFromContext(ctx)
	}
	stack, err := cfg.Build(ctx, opts)
	return stack, cfg, err
}
