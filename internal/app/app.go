// Package app wires the scribe launcher: it resolves whether this launch
// becomes the primary or forwards its request to the running one.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"

	"github.com/rbright/scribe/internal/cli"
	"github.com/rbright/scribe/internal/config"
	"github.com/rbright/scribe/internal/doctor"
	"github.com/rbright/scribe/internal/endpoint"
	"github.com/rbright/scribe/internal/hypr"
	"github.com/rbright/scribe/internal/indicator"
	"github.com/rbright/scribe/internal/instance"
	"github.com/rbright/scribe/internal/ipc"
	"github.com/rbright/scribe/internal/logging"
	"github.com/rbright/scribe/internal/session"
	"github.com/rbright/scribe/internal/textenc"
	"github.com/rbright/scribe/internal/transport"
	"github.com/rbright/scribe/internal/version"
)

const binaryName = "scribe"

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	if err := logRuntime.SetLevel(cfgLoaded.Config.LogLevel); err != nil {
		logger.Warn("log level ignored", "error", err.Error())
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		if cfgLoaded.Exists {
			fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		}
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	cfg := cfgLoaded.Config
	identity := endpoint.DetectIdentity()
	topts := transport.Options{IOTimeout: cfg.IOTimeout(), DialTimeout: cfg.ConnectTimeout()}
	ep, err := selectEndpoint(cfg, parsed, identity, topts, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("select endpoint failed", "error", err.Error())
		return 1
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
		"identity", identity.String(),
		"endpoint", fmt.Sprint(ep.Addr()),
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, doctor.Input{
			Config:    cfgLoaded,
			Identity:  identity,
			Endpoint:  ep,
			Transport: topts,
		})
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandOpen:
		return r.commandOpen(ctx, cfg, parsed, ep, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandOpen(ctx context.Context, cfg config.Config, parsed cli.Parsed, ep endpoint.Endpoint, logger *slog.Logger) int {
	defer func() { _ = ep.Close() }()

	intent, err := intentFor(parsed)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	notify := indicator.NewHyprNotify(cfg.Indicator, logger)

	if parsed.NewInstance {
		logger.Info("new instance requested; skipping coordination")
		return r.runPrimary(ctx, cfg, intent, ep, nil, notify, logger)
	}
	if parsed.ListDocuments && len(intent.Files) == 0 {
		return r.listDocuments(ctx, cfg, intent, ep, logger)
	}

	result, err := instance.Resolve(ctx, ep, r.forwarder(cfg, intent, ep, logger))
	if err != nil {
		var foreign *endpoint.ForeignOwnerError
		switch {
		case errors.As(err, &foreign):
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			logger.Error("foreign socket owner", "path", foreign.Path, "owner", foreign.Owner, "uid", foreign.UID)
			notify.ShowError(ctx, err.Error())
			return 1
		case errors.Is(err, endpoint.ErrInUse):
			fmt.Fprintf(r.Stderr, "error: another %s instance started at the same time; run the command again\n", binaryName)
			logger.Warn("lost primary race", "error", err.Error())
			return 1
		case errors.Is(err, transport.ErrLockHeld):
			fmt.Fprintf(r.Stderr, "warning: %v; running without instance sharing\n", err)
			logger.Warn("loopback lock held elsewhere; running standalone", "error", err.Error())
			return r.runPrimary(ctx, cfg, intent, ep, nil, notify, logger)
		default:
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			logger.Error("resolve role failed", "error", err.Error())
			return 1
		}
	}

	if result.Role == instance.RoleSecondary {
		if result.ForwardErr != nil {
			fmt.Fprintf(r.Stderr, "warning: %v\n", result.ForwardErr)
			logger.Warn("forward failed", "error", result.ForwardErr.Error())
		} else {
			logger.Info("forwarded to running instance", "files", len(intent.Files))
		}
		return 0
	}
	return r.runPrimary(ctx, cfg, intent, ep, result.Listener, notify, logger)
}

// listDocuments prints the running instance's documents without becoming
// the primary when none answers.
func (r Runner) listDocuments(ctx context.Context, cfg config.Config, intent ipc.Intent, ep endpoint.Endpoint, logger *slog.Logger) int {
	if err := ep.Prepare(); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	conn, err := ep.Connect(ctx)
	if err != nil {
		if errors.Is(err, transport.ErrUnreachable) {
			fmt.Fprintf(r.Stderr, "error: no running %s instance\n", binaryName)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer conn.Close()

	if err := ipc.Forward(ctx, conn, intent, cfg.MaxFrameBytes, r.Stdout); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Warn("list documents failed", "error", err.Error())
		return 1
	}
	return 0
}

func (r Runner) forwarder(cfg config.Config, intent ipc.Intent, ep endpoint.Endpoint, logger *slog.Logger) instance.ForwardFunc {
	return func(ctx context.Context, conn *transport.Conn) error {
		if windowQueries(ep.Kind()) && (len(intent.Files) > 0 || intent.ForceRemote) {
			handle, err := ipc.NewClient(conn, cfg.MaxFrameBytes).RequestWindow()
			if err != nil {
				return err
			}
			if err := raiseWindow(handle); err != nil {
				logger.Debug("raise primary window failed", "error", err.Error())
			}
		}
		return ipc.Forward(ctx, conn, intent, cfg.MaxFrameBytes, r.Stdout)
	}
}

// runPrimary opens this launch's own files and serves later launches until
// ctx is done. listener is nil when running standalone.
func (r Runner) runPrimary(
	ctx context.Context,
	cfg config.Config,
	intent ipc.Intent,
	ep endpoint.Endpoint,
	listener *transport.Listener,
	notify *indicator.HyprNotify,
	logger *slog.Logger,
) int {
	controller := session.NewController(logger, notify, presenterFor(cfg, logger), session.Options{
		AllowProjectSwitch: cfg.AllowProjectSwitch,
		WindowHandle:       windowHandle(),
	})
	dispatcher := &ipc.Dispatcher{
		Editor:        controller,
		Pending:       controller.Pending(),
		Progress:      controller,
		Charset:       textenc.LocaleCharset(),
		ProjectSuffix: cfg.ProjectSuffix,
		Strict:        cfg.StrictProtocol,
		AllowWindow:   windowQueries(ep.Kind()),
		MaxFrameBytes: cfg.MaxFrameBytes,
		Logger:        logger,
	}

	stopCancel := watchCancel(ctx, controller.CancelOpen, logger)
	defer stopCancel()

	pending := controller.Pending()
	pending.GotoLine, pending.GotoColumn = intent.Line, intent.Column
	pending.ReadOnly, pending.Favorite = intent.ReadOnly, intent.Favorite
	pending.NoProjects = intent.NoProjects
	if dispatcher.OpenLocal(ctx, intent.Files) {
		logger.Info("initial open cancelled")
	}
	if intent.ListDocuments {
		for _, name := range controller.Documents() {
			fmt.Fprintln(r.Stdout, name)
		}
	}

	if listener == nil {
		logger.Info("primary running standalone")
		<-ctx.Done()
	} else {
		logger.Info("primary serving", "addr", fmt.Sprint(listener.Addr()))
		if err := ipc.Serve(ctx, listener, dispatcher, logger); err != nil {
			fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", err)
			logger.Error("ipc server failed", "error", err.Error())
			return 1
		}
	}

	logger.Info("primary shutdown",
		"documents", len(controller.Documents()),
		"project", controller.Project(),
	)
	return 0
}

func intentFor(parsed cli.Parsed) (ipc.Intent, error) {
	intent := ipc.NewIntent()
	intent.Line, intent.Column = parsed.Line, parsed.Column
	intent.ReadOnly = parsed.ReadOnly
	intent.Favorite = parsed.Favorite
	intent.NoProjects = parsed.NoProjects
	intent.ListDocuments = parsed.ListDocuments
	intent.ForceRemote = parsed.ForceRemote

	if len(parsed.Files) == 0 {
		return intent, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return intent, fmt.Errorf("resolve working directory: %w", err)
	}
	for _, arg := range parsed.Files {
		intent.Files = append(intent.Files, ipc.ResolveArgPath(cwd, arg))
	}
	return intent, nil
}

func selectEndpoint(cfg config.Config, parsed cli.Parsed, identity endpoint.Identity, topts transport.Options, logger *slog.Logger) (endpoint.Endpoint, error) {
	kind, err := endpoint.ParseKind(cfg.Transport)
	if err != nil {
		return nil, err
	}

	dir := strings.TrimSpace(cfg.SocketDir)
	if dir == "" {
		dir = config.Dir()
	}
	if kind.Resolve() == endpoint.KindUnix && parsed.SocketFile == "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("ensure socket dir: %w", err)
		}
	}

	return endpoint.Select(endpoint.Options{
		Kind:       kind,
		Prefix:     binaryName,
		Dir:        dir,
		TmpDir:     cfg.TmpDir,
		SocketFile: parsed.SocketFile,
		Identity:   identity,
		Port:       cfg.Port,
		LockDir:    lockDir(),
		Transport:  topts,
		Logger:     logger,
	})
}

func lockDir() string {
	xdg.Reload()
	if dir := strings.TrimSpace(xdg.RuntimeDir); dir != "" {
		return filepath.Join(dir, binaryName)
	}
	return filepath.Join(os.TempDir(), binaryName)
}

func presenterFor(cfg config.Config, logger *slog.Logger) session.Presenter {
	if !cfg.PresentWindow {
		return nil
	}
	if len(cfg.PresentCmd.Argv) > 0 {
		return commandPresenter{argv: cfg.PresentCmd.Argv}
	}
	if runtime.GOOS == "linux" && hypr.Available() {
		return hypr.WindowPresenter{PIDs: []int{os.Getpid(), os.Getppid()}}
	}
	logger.Debug("no window presenter available")
	return nil
}

// windowQueries reports whether the window handle exchange runs: only the
// loopback transport on Windows carries native handles worth raising.
func windowQueries(kind endpoint.Kind) bool {
	return kind == endpoint.KindTCP && runtime.GOOS == "windows"
}
