package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/funvibe/liketype/internal/config"
	"github.com/funvibe/liketype/pkg/liketype"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	v       *viper.Viper
	logger  *log.Logger
	checker *liketype.Checker
	paint   painter
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "liketype",
		Short: "Structural type compatibility checks",
		Long: titleStyle.Render("liketype") + subtitleStyle.Render(" - structural type compatibility checks") + `

Types are written as expressions such as List[Int], Optional[Box[T]] or
Callable[[Int], String]. Classes, protocols and type variables come from a
liketype.yaml / liketype.toml declaration file, Go packages and proto files.

` + subtitleStyle.Render("Examples:") + `
  liketype subtype 'List[Int]' 'Sequence[Int]'
  liketype instance '[1, 2, "3"]' 'List[Union[Int, String]]'
  liketype infer '{"a": [1, 2.5]}'
  liketype unify 'Map[K, V]' 'Map[String, List[Int]]'
  liketype --go-package ./shapes classes`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.String("registry", "", "declaration file (default: search for liketype.yaml upwards)")
	flags.StringSlice("go-package", nil, "Go package patterns to import")
	flags.StringSlice("proto", nil, "proto files to import")
	flags.StringSlice("proto-path", []string{"."}, "import paths for proto files")
	flags.Int("max-depth", config.DefaultMaxDepth, "value inference depth")
	flags.Int("max-sample", config.DefaultMaxSample, "sequence elements inspected during inference (<= 0 inspects all)")
	flags.BoolP("verbose", "v", false, "log fail-closed checks and imports")

	a.v.SetEnvPrefix("LIKETYPE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		a.subtypeCmd(),
		a.instanceCmd(),
		a.inferCmd(),
		a.unifyCmd(),
		a.describeCmd(),
		a.classesCmd(),
	)
	return root
}

// setup builds the logger and checker from flags and environment.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	level := log.InfoLevel
	if a.v.GetBool("verbose") {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: "liketype", Level: level})
	a.paint = newPainter(cmd.OutOrStdout())

	a.checker = liketype.New(liketype.NewRegistry(),
		liketype.WithLogger(a.logger),
		liketype.WithMaxDepth(a.v.GetInt("max-depth")),
		liketype.WithMaxSample(a.v.GetInt("max-sample")),
	)

	used, err := a.checker.LoadDeclarations(a.v.GetString("registry"), ".")
	if err != nil {
		return err
	}
	if used != "" {
		a.logger.Debug("loaded declarations", "file", used)
	}

	if pkgs := a.v.GetStringSlice("go-package"); len(pkgs) > 0 {
		if err := a.checker.ImportGo(".", pkgs...); err != nil {
			return err
		}
		a.logger.Debug("imported Go packages", "patterns", pkgs)
	}
	if protos := a.v.GetStringSlice("proto"); len(protos) > 0 {
		if err := a.checker.ImportProto(a.v.GetStringSlice("proto-path"), protos...); err != nil {
			return err
		}
		a.logger.Debug("imported proto files", "files", protos)
	}
	return nil
}

func (a *app) parse(src string) (liketype.Type, error) {
	t, err := a.checker.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", src, err)
	}
	return t, nil
}
