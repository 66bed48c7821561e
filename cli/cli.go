// FILE: lixenwraith/settings/cli/cli.go

// Package cli exposes the envspec renderers as a cobra command tree.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"

	"github.com/lixenwraith/settings/envspec"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option configures the command tree
type Option func(*app)

// WithTypes sets the settings types described by every command
func WithTypes(types ...reflect.Type) Option {
	return func(a *app) {
		a.types = append(a.types, types...)
	}
}

// WithLogger replaces the console logger built from the --verbose flag
func WithLogger(logger *zap.Logger) Option {
	return func(a *app) {
		a.logger = logger
	}
}

type app struct {
	types  []reflect.Type
	logger *zap.Logger

	skipDev bool
	outDir  string
	verbose bool
}

// treeFlags are the shape flags of the json, yaml and toml commands
type treeFlags struct {
	flat bool
	code bool
}

// New returns the root command named name
func New(name string, opts ...Option) *cobra.Command {
	a := &app{}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   name,
		Short: "Generate environment templates and documentation from settings types",
		Long: `Describes the environment variables read by the registered settings types
and renders them as templates, documentation and deployment snippets.

Examples:
  ` + name + ` list                  # Show every variable
  ` + name + ` env --out-dir deploy  # Write deploy/.env.template
  ` + name + ` yaml app --flat       # Flat YAML under "app"`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.logger == nil {
				a.logger = consoleLogger(cmd.ErrOrStderr(), a.verbose)
			}
		},
	}

	root.PersistentFlags().BoolVar(&a.skipDev, "skip-dev", false, "Omit dev-only variables")
	root.PersistentFlags().StringVar(&a.outDir, "out-dir", ".", "Directory written files are placed in")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		a.printCommand("list", "Display settings details", func(s *envspec.Spec) (string, error) {
			return envspec.List(s), nil
		}),
		a.writeCommand("env", envspec.DotEnvFile, func(s *envspec.Spec) (string, error) {
			return envspec.DotEnv(s), nil
		}),
		a.writeCommand("md", envspec.MarkdownFile, func(s *envspec.Spec) (string, error) {
			return envspec.Markdown(s), nil
		}),
		a.writeCommand("values", envspec.ValuesFile, envspec.Values),
		a.printCommand("compose", "Display docker-compose style environment yaml", envspec.Compose),
		a.printCommand("k8s", "Display kubernetes style env var structure", envspec.K8s),
		a.treeCommand("json", "Display JSON settings structure", "", envspec.JSON),
		a.treeCommand("yaml", "Display YAML settings structure", envspec.DefaultYAMLRoot, envspec.YAML),
		a.treeCommand("toml", "Display TOML settings structure", "", envspec.TOML),
		a.printCommand("raw", "Display the raw structure extracted from the settings types", envspec.Raw),
	)
	return root
}

func (a *app) spec() (*envspec.Spec, error) {
	spec, err := envspec.Extract(envspec.Options{SkipDevOnly: a.skipDev}, a.types...)
	if err != nil {
		return nil, fmt.Errorf("extracting settings: %w", err)
	}
	a.logger.Debug("Extracted settings",
		zap.Int("groups", len(spec.Groups)),
		zap.Bool("skip_dev", a.skipDev))
	return spec, nil
}

// printCommand renders to standard output
func (a *app) printCommand(use, short string, render func(*envspec.Spec) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.spec()
			if err != nil {
				return err
			}
			out, err := render(spec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
}

// writeCommand renders into file under --out-dir
func (a *app) writeCommand(use, file string, render func(*envspec.Spec) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Write %q", file),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.spec()
			if err != nil {
				return err
			}
			out, err := render(spec)
			if err != nil {
				return err
			}

			path := filepath.Join(a.outDir, file)
			if err := os.MkdirAll(a.outDir, 0755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(out), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", file, err)
			}

			a.logger.Info("Artifact written", zap.String("file", file), zap.String("path", path))
			fmt.Fprintf(cmd.OutOrStdout(), "%s written to %s\n", file, path)
			return nil
		},
	}
}

// treeCommand renders a dump taking an optional root argument
func (a *app) treeCommand(use, short, defaultRoot string, render func(*envspec.Spec, envspec.TreeOptions) (string, error)) *cobra.Command {
	var flags treeFlags
	cmd := &cobra.Command{
		Use:   use + " [root]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.spec()
			if err != nil {
				return err
			}

			opts := envspec.TreeOptions{Root: defaultRoot, Flat: flags.flat, Code: flags.code}
			if len(args) == 1 {
				opts.Root = args[0]
			}
			out, err := render(spec, opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&flags.flat, "flat", false, "Flatten the output under root (no group nesting)")
	cmd.Flags().BoolVar(&flags.code, "code", false, "Use the camelCase field key, not the variable name")
	return cmd
}

// consoleLogger writes human-readable log lines to w
func consoleLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core)
}
