// Package commands implements the CLI commands for sift.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/sift/internal/adapters/detector"
	"go.trai.ch/sift/internal/app"
	"go.trai.ch/sift/internal/build"
)

// CLI represents the command line interface for sift.
type CLI struct {
	app         Application
	rootCmd     *cobra.Command
	stopTracing func(context.Context) error
}

// Application represents the application logic interface.
type Application interface {
	Config(ctx context.Context, w io.Writer, opts app.ConfigOptions) error
	Files(ctx context.Context, w io.Writer, opts app.FilesOptions) error
	Clean(ctx context.Context) error
	SetLogFormat(format detector.LogFormat)
	EnableTracing() func(context.Context) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "sift",
		Short:         "Resolve hierarchical lint configurations",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringArrayP("config", "c", nil, "Configuration file, repeat to layer files (outermost parent first)")
	flags.String("root", "", "Directory configurations are resolved against (defaults to the working directory)")
	flags.Bool("ignore-parent-child", false, "Do not follow child_config and parent_config references")
	flags.Bool("enable-all-rules", false, "Enable every rule")
	flags.StringArray("only-rule", nil, "Run only this rule, repeat for more")
	flags.String("cache-path", "", "Override the cache_path option")
	flags.String("log-format", "auto", "Log format: auto, pretty, plain or json")
	flags.Bool("log-json", false, "Shorthand for --log-format=json")
	flags.Bool("trace", false, "Log a line for every traced operation")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRunE = c.setup
	rootCmd.PersistentPostRunE = c.teardown

	rootCmd.AddCommand(c.newConfigCmd())
	rootCmd.AddCommand(c.newFilesCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	err := c.rootCmd.Execute()
	if c.stopTracing != nil {
		_ = c.stopTracing(ctx)
		c.stopTracing = nil
	}
	return err
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	requested, err := detector.ParseLogFormat(mustString(cmd, "log-format"))
	if err != nil {
		return err
	}
	if mustBool(cmd, "log-json") {
		requested = detector.FormatJSON
	}
	c.app.SetLogFormat(detector.ResolveLogFormat(detector.DetectLogFormat(os.Stderr), requested))

	if mustBool(cmd, "trace") {
		c.stopTracing = c.app.EnableTracing()
	}
	return nil
}

func (c *CLI) teardown(cmd *cobra.Command, _ []string) error {
	if c.stopTracing == nil {
		return nil
	}
	stop := c.stopTracing
	c.stopTracing = nil
	return stop(cmd.Context())
}

// resolveOptions reads the persistent resolution flags.
func resolveOptions(cmd *cobra.Command) (app.ResolveOptions, error) {
	root := mustString(cmd, "root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return app.ResolveOptions{}, err
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return app.ResolveOptions{}, err
	}

	configs, _ := cmd.Flags().GetStringArray("config")
	onlyRules, _ := cmd.Flags().GetStringArray("only-rule")

	return app.ResolveOptions{
		Configs:           configs,
		RootDirectory:     root,
		IgnoreParentChild: mustBool(cmd, "ignore-parent-child"),
		EnableAllRules:    mustBool(cmd, "enable-all-rules"),
		OnlyRules:         onlyRules,
		CachePath:         mustString(cmd, "cache-path"),
	}, nil
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}
