// Package main implements the pkgguard CLI: supply-chain risk audits of an npm
// repository fleet and migration to pnpm with lifecycle scripts filtered.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/EmundoT/pkgguard/cmd"
	"github.com/EmundoT/pkgguard/internal/core"
	"github.com/EmundoT/pkgguard/internal/metrics"
	"github.com/EmundoT/pkgguard/internal/telemetry"
	"github.com/EmundoT/pkgguard/internal/tui"
	"github.com/EmundoT/pkgguard/internal/types"
	"github.com/EmundoT/pkgguard/internal/version"
)

// cliOptions holds the flags shared by every command.
type cliOptions struct {
	flags       core.NonInteractiveFlags
	configPath  string
	metricsFile string
	traceFile   string
	runID       string
	verbose     bool
}

// errUsage marks command-line mistakes; they exit with ExitInvalidArguments.
var errUsage = errors.New("invalid arguments")

// valueFlags take an argument, either "--flag value" or "--flag=value".
var valueFlags = map[string]bool{
	"--config":       true,
	"--metrics-file": true,
	"--trace-file":   true,
	"--run":          true,
}

// parseCommonFlags extracts common flags from args
// Returns: options, remainingArgs
func parseCommonFlags(args []string) (cliOptions, []string, error) {
	opts := cliOptions{}
	var remaining []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")
		if valueFlags[name] && !hasValue {
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
				return opts, nil, fmt.Errorf("%w: %s requires a value", errUsage, name)
			}
			i++
			value = args[i]
		}

		switch name {
		case "--yes", "-y":
			opts.flags.Yes = true
		case "--quiet", "-q":
			opts.flags.Mode = core.OutputQuiet
		case "--json":
			opts.flags.Mode = core.OutputJSON
		case "--verbose", "-v":
			opts.verbose = true
		case "--config":
			opts.configPath = value
		case "--metrics-file":
			opts.metricsFile = value
		case "--trace-file":
			opts.traceFile = value
		case "--run":
			opts.runID = value
		default:
			if strings.HasPrefix(arg, "-") && arg != "-" {
				return opts, nil, fmt.Errorf("%w: unknown flag %s", errUsage, arg)
			}
			remaining = append(remaining, arg)
		}
	}

	return opts, remaining, nil
}

// newCallback picks the interactive TUI only for a terminal in normal mode.
func newCallback(flags core.NonInteractiveFlags) core.UICallback {
	if flags.Yes || flags.Mode != core.OutputNormal || !tui.IsTerminal() {
		return tui.NewNonInteractiveTUICallback(flags)
	}
	return tui.NewTUICallback()
}

// newLogger returns the diagnostics logger. Warnings only unless verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		tui.PrintHelp(version.GetVersion())
		return core.ExitSuccess
	}

	command := args[0]
	switch command {
	case "--help", "-h", "help":
		tui.PrintHelp(version.GetVersion())
		return core.ExitSuccess
	case "--version", "version":
		fmt.Printf("pkgguard %s\n", version.GetFullVersion())
		return core.ExitSuccess
	}

	opts, rest, err := parseCommonFlags(args[1:])
	if err != nil {
		tui.PrintError("Usage", err.Error())
		return core.ExitInvalidArguments
	}
	logger := newLogger(os.Stderr, opts.verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, version.GetVersion(), opts.traceFile)
	if err != nil {
		tui.PrintError("Tracing", err.Error())
		return core.ExitGeneralError
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("flush traces", "error", err)
		}
	}()

	rec := metrics.NewRecorder()
	code := dispatch(ctx, command, rest, opts, rec, logger)

	if opts.metricsFile != "" {
		if err := rec.WriteTextfile(opts.metricsFile); err != nil {
			logger.Error("write metrics", "path", opts.metricsFile, "error", err)
			if code == core.ExitSuccess {
				code = core.ExitGeneralError
			}
		}
	}
	return code
}

func dispatch(ctx context.Context, command string, args []string, opts cliOptions, rec *metrics.Recorder, logger *slog.Logger) int {
	switch command {
	case "audit":
		return runAudit(ctx, opts, rec, logger)
	case "migrate":
		return runMigrate(ctx, opts, rec, logger)
	case "hook":
		if err := core.RunHook(os.Stdin, os.Stdout, os.Getenv, logger); err != nil {
			logger.Error("hook failed", "error", err)
			return core.EmitCLIErrorLine(os.Stdout, err)
		}
		return core.ExitSuccess
	case "sanitize":
		return runSanitize(args, opts, rec, logger)
	case "restore":
		return runRestore(args, opts, logger)
	case "watch":
		return runWatch(ctx, opts, rec, logger)
	case "policy":
		return runPolicy(args, opts)
	case "completion":
		if len(args) != 1 {
			tui.PrintError("Usage", "pkgguard completion <shell>\nSupported shells: bash, zsh, fish, powershell")
			return core.ExitInvalidArguments
		}
		script, err := cmd.Generate(args[0])
		if err != nil {
			tui.PrintError("Invalid Shell", err.Error())
			return core.ExitInvalidArguments
		}
		fmt.Println(script)
		return core.ExitSuccess
	default:
		tui.PrintError("Unknown command", fmt.Sprintf("%q. Run 'pkgguard help' for usage.", command))
		return core.ExitInvalidArguments
	}
}

// fail reports err through the callback and returns its exit code.
func fail(callback core.UICallback, title string, err error) int {
	code, exit := core.CLIErrorCodeForError(err), core.CLIExitCodeForError(err)
	if errors.Is(err, errUsage) {
		code, exit = core.ErrCodeInvalidArguments, core.ExitInvalidArguments
	}
	if callback.GetOutputMode() == core.OutputJSON {
		return core.EmitCLIError(code, err.Error(), exit)
	}
	callback.ShowError(title, err.Error())
	return exit
}

func newManager(opts cliOptions, callback core.UICallback, rec *metrics.Recorder, logger *slog.Logger) (*core.Manager, error) {
	executable, err := os.Executable()
	if err != nil {
		logger.Debug("cannot resolve own executable, pnpmfile will use PATH", "error", err)
		executable = ""
	}
	return core.NewManager(core.ManagerOptions{
		ConfigPath: opts.configPath,
		UI:         callback,
		Metrics:    rec,
		Logger:     logger,
		Getenv:     os.Getenv,
		Executable: executable,
	})
}

func runAudit(ctx context.Context, opts cliOptions, rec *metrics.Recorder, logger *slog.Logger) int {
	callback := newCallback(opts.flags)
	manager, err := newManager(opts, callback, rec, logger)
	if err != nil {
		return fail(callback, "Configuration", err)
	}

	result, err := manager.Audit(ctx)
	if err != nil {
		return fail(callback, "Audit Failed", err)
	}

	switch opts.flags.Mode {
	case core.OutputJSON:
		core.EmitCLISuccess(map[string]interface{}{
			"runId":   manager.Run().RunID,
			"records": result.Records,
			"summary": result.Summary,
			"report":  manager.Run().ReportPath,
		})
	case core.OutputNormal:
		tui.RenderAuditTable(os.Stdout, result.Records, result.Summary)
		callback.ShowInfo("report: " + manager.Run().ReportPath)
	}
	return core.ExitSuccess
}

func runMigrate(ctx context.Context, opts cliOptions, rec *metrics.Recorder, logger *slog.Logger) int {
	callback := newCallback(opts.flags)
	manager, err := newManager(opts, callback, rec, logger)
	if err != nil {
		return fail(callback, "Configuration", err)
	}

	confirm := func(summary types.FleetSummary) bool {
		if opts.flags.Mode == core.OutputNormal {
			fmt.Println(tui.RenderSummaryCard(summary))
		}
		return callback.AskConfirmation("Migrate fleet?",
			fmt.Sprintf("%d repositories will be migrated to pnpm in the order shown", len(summary.PrioritizedOrder)))
	}

	audit, traces, err := manager.Migrate(ctx, confirm)
	if err != nil {
		return fail(callback, "Migration Failed", err)
	}

	failed := 0
	for _, t := range traces {
		if t.Result() == types.MigrationResultFail {
			failed++
		}
	}

	switch opts.flags.Mode {
	case core.OutputJSON:
		core.EmitCLISuccess(map[string]interface{}{
			"runId":    manager.Run().RunID,
			"summary":  audit.Summary,
			"traces":   traces,
			"auditLog": manager.Run().AuditLogPath,
			"report":   manager.Run().ReportPath,
		})
	case core.OutputNormal:
		if len(traces) > 0 {
			tui.RenderMigrationResults(os.Stdout, traces)
			callback.ShowInfo("audit log: " + manager.Run().AuditLogPath)
		}
	}

	if failed > 0 {
		if opts.flags.Mode != core.OutputJSON {
			callback.ShowError("Migration incomplete", fmt.Sprintf("%d of %d repositories failed", failed, len(traces)))
		}
		return core.ExitGeneralError
	}
	return core.ExitSuccess
}

func runSanitize(paths []string, opts cliOptions, rec *metrics.Recorder, logger *slog.Logger) int {
	callback := newCallback(opts.flags)
	if len(paths) == 0 {
		return fail(callback, "Usage", fmt.Errorf("%w: pkgguard sanitize <package.json>...", errUsage))
	}

	summary, err := core.RunSanitize(paths, os.Getenv, rec, logger)
	if err != nil {
		return fail(callback, "Sanitize Failed", err)
	}

	if opts.flags.Mode == core.OutputJSON {
		core.EmitCLISuccess(summary)
		return core.ExitSuccess
	}
	callback.ShowSuccess(fmt.Sprintf("Sanitized %d manifests: %s", len(paths), core.FormatSummary(summary)))
	return core.ExitSuccess
}

func runRestore(args []string, opts cliOptions, logger *slog.Logger) int {
	callback := newCallback(opts.flags)
	if len(args) != 1 {
		return fail(callback, "Usage", fmt.Errorf("%w: pkgguard restore <repository> [--run <id>]", errUsage))
	}
	repo := args[0]

	manager, err := newManager(opts, callback, nil, logger)
	if err != nil {
		return fail(callback, "Configuration", err)
	}
	restored, err := manager.Restore(repo, opts.runID)
	if err != nil {
		return fail(callback, "Restore Failed", err)
	}

	if opts.flags.Mode == core.OutputJSON {
		core.EmitCLISuccess(map[string]interface{}{
			"repository": repo,
			"files":      restored,
		})
		return core.ExitSuccess
	}
	callback.ShowSuccess(fmt.Sprintf("Restored %d files in %s", len(restored), repo))
	for _, f := range restored {
		callback.ShowInfo("  " + f)
	}
	return core.ExitSuccess
}

func runWatch(ctx context.Context, opts cliOptions, rec *metrics.Recorder, logger *slog.Logger) int {
	callback := newCallback(opts.flags)
	manager, err := newManager(opts, callback, rec, logger)
	if err != nil {
		return fail(callback, "Configuration", err)
	}

	callback.ShowInfo(fmt.Sprintf("Watching %s and %s (Ctrl+C to stop)", manager.ConfigPath(), manager.Run().PolicyFile))
	if err := manager.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fail(callback, "Watch Failed", err)
	}
	return core.ExitSuccess
}

func runPolicy(args []string, opts cliOptions) int {
	callback := newCallback(opts.flags)
	if len(args) == 0 || args[0] != "check" || len(args) > 2 {
		return fail(callback, "Usage", fmt.Errorf("%w: pkgguard policy check [file]", errUsage))
	}
	path := core.PolicyFileName
	if len(args) == 2 {
		path = args[1]
	}

	exists := true
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		exists = false
	}
	policy, err := core.LoadScriptPolicy(path)
	if err != nil {
		return fail(callback, "Invalid Policy", err)
	}

	if opts.flags.Mode == core.OutputJSON {
		core.EmitCLISuccess(map[string]interface{}{
			"path":   path,
			"exists": exists,
			"policy": policy,
		})
		return core.ExitSuccess
	}
	if !exists {
		callback.ShowWarning("No policy file", path+" not found; the default policy strips every lifecycle script")
		return core.ExitSuccess
	}
	callback.ShowSuccess(fmt.Sprintf("%s is valid: %d allow, %d deny", path, len(policy.Allow), len(policy.Deny)))
	if policy.TrustedNamespace != "" {
		callback.ShowInfo("trusted namespace: " + policy.TrustedNamespace)
	}
	return core.ExitSuccess
}
