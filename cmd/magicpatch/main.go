package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/provide-io/magicpatch/internal/config"
	"github.com/provide-io/magicpatch/pkg/logging"
	"github.com/provide-io/magicpatch/pkg/magic"
)

const version = "0.1.0"

// Process exit codes.
const (
	ExitSuccess    = 0
	ExitUsage      = 1
	ExitValidation = 2 // file untouched
	ExitIOError    = 3
)

var (
	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorYellow = color.New(color.FgYellow)
	colorCyan   = color.New(color.FgCyan)
)

var errUsage = errors.New("missing required arguments")

type options struct {
	logLevel   string
	jsonLog    bool
	configPath string
	dryRun     bool
	version    bool
}

func getBuildTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "magicpatch %s\n", version)
	fmt.Fprintf(w, "Built: %s\n", getBuildTimestamp())
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "magicpatch <file_path> <magic_type> [<target_size_kb>] [<hash_algorithm>] [<encoding>]",
		Short: "Rewrite a file's magic number and extension",
		Long: `Rewrite the leading bytes of a file with the signature of another format,
optionally append a digest of the body and pad with random bytes up to a
minimum size, then rename the file to the new format's extension.

The file is modified in place. No backup is made.`,
		Example: `  magicpatch notes.txt png
  magicpatch notes.txt jpeg 64 sha256
  magicpatch notes.txt pdf none md5 utf-8`,
		Args:          cobra.MaximumNArgs(5),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.logLevel, config.FlagLogLevel, "", "Log level (trace, debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.jsonLog, config.FlagJSONLog, false, "Emit logs as JSON")
	cmd.Flags().StringVar(&opts.configPath, config.FlagConfig, "", "Path to a config file (YAML, JSON or TOML)")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Report what would change without touching the file")
	cmd.Flags().BoolVarP(&opts.version, "version", "V", false, "Show version information")

	return cmd
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	out := cmd.OutOrStdout()
	if opts.version {
		printVersion(out)
		return nil
	}
	if len(args) < 2 {
		fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
		return errUsage
	}

	cfg, err := config.Load(opts.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	logger := logging.NewLogger("magicpatch", cfg.LogLevel, cfg.JSONLog, cmd.ErrOrStderr())
	if cfg.File != "" {
		logger.Debug("🔧 Loaded config", "file", cfg.File)
	}

	req, err := magic.ParseRequest(args[0], args[1], argOr(args, 2, "none"), argOr(args, 3, "none"), argOr(args, 4, magic.DefaultEncoding))
	if err != nil {
		return err
	}

	patcher := magic.NewPatcher(logger)
	if opts.dryRun {
		res, err := patcher.Plan(req)
		if err != nil {
			return err
		}
		printPlan(out, res)
		return nil
	}

	res, err := patcher.Patch(req)
	if err != nil {
		return err
	}
	colorGreen.Fprintf(out, "Changed magic number of '%s' to %s and renamed to '%s'.\n", res.OriginalPath, res.Tag, res.NewPath)
	return nil
}

func printPlan(w io.Writer, res *magic.Result) {
	colorCyan.Fprintf(w, "Would change magic number of '%s' to %s and rename to '%s'.\n", res.OriginalPath, res.Tag, res.NewPath)
	fmt.Fprintf(w, "  detected:  %s\n", res.OriginalMIME)
	fmt.Fprintf(w, "  header:    %d bytes\n", res.HeaderLen)
	fmt.Fprintf(w, "  content:   %d bytes\n", res.ContentLen)
	if res.Digest != "" {
		fmt.Fprintf(w, "  digest:    %s\n", res.Digest)
	}
	if res.Padding > 0 {
		fmt.Fprintf(w, "  padding:   %d bytes\n", res.Padding)
	}
	fmt.Fprintf(w, "  size:      %d bytes\n", res.Size)
}

func argOr(args []string, i int, def string) string {
	if len(args) > i {
		return args[i]
	}
	return def
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	var ioErr *magic.IOError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errUsage):
		return ExitUsage
	case errors.Is(err, magic.ErrValidation):
		return ExitValidation
	case errors.As(err, &ioErr):
		return ExitIOError
	default:
		return ExitUsage
	}
}

func reportError(w io.Writer, err error) {
	var ioErr *magic.IOError
	switch {
	case errors.Is(err, errUsage):
		// usage already printed
	case errors.As(err, &ioErr) && ioErr.Mutated():
		colorRed.Fprintf(w, "Error: %v\n", err)
		colorYellow.Fprintf(w, "Warning: '%s' may already have been modified.\n", ioErr.Path)
	default:
		colorRed.Fprintf(w, "Error: %v\n", err)
	}
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		printVersion(os.Stdout)
		os.Exit(ExitSuccess)
	}

	if err := newRootCmd().Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
