package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/sghaida/envreg/internal/logging"
	"github.com/sghaida/envreg/schema"
	"github.com/sghaida/envreg/synth"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "dev"

type generateFlags struct {
	schemaPath    string
	outPath       string
	pkg           string
	runtimeImport string
	frozen        bool
	vars          map[string]string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "envgen: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "envgen",
		Short:         "Generate typed environment registries from a module schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, json:<level>)")

	newLogger := func() hclog.Logger {
		return logging.NewLogger("envgen", logging.Level(logLevel), stderr)
	}

	root.AddCommand(
		newGenerateCmd(newLogger),
		newCheckCmd(newLogger),
		newVersionCmd(),
	)
	return root
}

func newGenerateCmd(newLogger func() hclog.Logger) *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Validate a schema and write the generated registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generate(f, newLogger())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.schemaPath, "schema", "s", "", "Path to the schema (.hcl, .json, .jsonc, .yaml, .yml)")
	flags.StringVarP(&f.outPath, "out", "o", "", "Output .go file path")
	flags.StringVar(&f.pkg, "package", "", "Override the package declared by the schema")
	flags.StringVar(&f.runtimeImport, "runtime-import", "", "Import path of the envreg runtime package (inferred when empty)")
	flags.BoolVar(&f.frozen, "frozen", false, "Generate a release registry that ignores persisted overrides")
	addVarFlag(flags, &f.vars)

	for _, name := range []string{"schema", "out"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
	return cmd
}

func newCheckCmd(newLogger func() hclog.Logger) *cobra.Command {
	var (
		schemaPath string
		vars       map[string]string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a schema and list its modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			g, err := schema.Load(schemaPath, schema.WithVariables(vars))
			if err != nil {
				return err
			}
			logger.Debug("schema valid", "schema", schemaPath, "digest", g.Digest())

			w := cmd.OutOrStdout()
			for _, m := range g.Modules() {
				names := make([]string, 0, len(m.Environments()))
				for _, e := range m.Environments() {
					names = append(names, e.Name())
				}
				fmt.Fprintf(w, "%s: %s (release: %s)\n", m.Name(), strings.Join(names, ", "), m.Release().Name())
			}
			fmt.Fprintf(w, "ok: %d modules\n", len(g.Modules()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "Path to the schema")
	addVarFlag(cmd.Flags(), &vars)
	if err := cmd.MarkFlagRequired("schema"); err != nil {
		panic(err)
	}
	return cmd
}

// addVarFlag registers the repeatable --var name=value flag.
func addVarFlag(fs *pflag.FlagSet, target *map[string]string) {
	fs.StringToStringVar(target, "var", nil, "HCL variable as name=value, repeatable")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the envgen version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "envgen %s\n", buildVersion())
		},
	}
}

func buildVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

func generate(f *generateFlags, logger hclog.Logger) error {
	if strings.TrimSpace(f.outPath) == "" {
		return errors.New("missing --out")
	}

	g, err := schema.Load(f.schemaPath, schema.WithVariables(f.vars))
	if err != nil {
		return err
	}

	runtimeImport := f.runtimeImport
	if runtimeImport == "" {
		runtimeImport = inferRuntimeImport(logger)
	}

	src, err := synth.Generate(g, synth.Options{
		Package:       f.pkg,
		RuntimeImport: runtimeImport,
		Frozen:        f.frozen,
		SourcePath:    sourcePathFor(f.schemaPath, f.outPath),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", f.schemaPath, err)
	}

	changed, err := writeOutput(f.outPath, src)
	if err != nil {
		return err
	}
	if !changed {
		logger.Debug("output unchanged", "out", f.outPath)
		return nil
	}
	logger.Info("generated registry", "out", f.outPath, "modules", len(g.Modules()), "frozen", f.frozen)
	return nil
}

// sourcePathFor records the schema relative to the output directory so the
// header does not depend on the working directory.
func sourcePathFor(schemaPath, outPath string) string {
	absSchema, err1 := filepath.Abs(schemaPath)
	absOutDir, err2 := filepath.Abs(filepath.Dir(outPath))
	if err1 != nil || err2 != nil {
		return filepath.ToSlash(schemaPath)
	}
	rel, err := filepath.Rel(absOutDir, absSchema)
	if err != nil {
		return filepath.ToSlash(schemaPath)
	}
	return filepath.ToSlash(rel)
}

// writeOutput writes src to path unless the file already holds the same bytes.
func writeOutput(path string, src []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(existing, src):
		return false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// -------------------------
// go.mod helpers
// -------------------------

// inferRuntimeImport derives the runtime import from the go.mod of the module
// containing envgen, so forks generate code against their own runtime.
// It falls back to synth.DefaultRuntimeImport when sources are unavailable.
func inferRuntimeImport(logger hclog.Logger) string {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		return synth.DefaultRuntimeImport
	}

	modRoot, modPath, err := findModule(filepath.Dir(thisFile))
	if err != nil {
		logger.Debug("cannot infer runtime import, using default", "error", err)
		return synth.DefaultRuntimeImport
	}
	if !dirExists(filepath.Join(modRoot, "envreg")) {
		logger.Debug("runtime package not found, using default", "module", modPath)
		return synth.DefaultRuntimeImport
	}
	return modPath + "/envreg"
}

type cmdError struct{ msg string }

func (e *cmdError) Error() string { return e.msg }

func findModule(startDir string) (modRoot string, modPath string, err error) {
	dir := startDir
	for {
		gomod := filepath.Join(dir, "go.mod")
		if fileExists(gomod) {
			b, rerr := os.ReadFile(gomod)
			if rerr != nil {
				return "", "", rerr
			}
			for _, ln := range strings.Split(string(b), "\n") {
				ln = strings.TrimSpace(ln)
				if strings.HasPrefix(ln, "module ") {
					mod := strings.Trim(strings.TrimSpace(strings.TrimPrefix(ln, "module ")), `"`)
					if mod == "" {
						return "", "", &cmdError{msg: "go.mod has empty module path at " + filepath.ToSlash(gomod)}
					}
					return dir, mod, nil
				}
			}
			return "", "", &cmdError{msg: "go.mod missing module directive at " + filepath.ToSlash(gomod)}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", &cmdError{msg: "could not find go.mod starting from " + filepath.ToSlash(startDir)}
}

func dirExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
