package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wax/internal/daemon"
	"wax/internal/daemonctl"
	"wax/internal/ipc"
	"wax/internal/logging"
	"wax/internal/sessionindex"
)

const detachTimeout = 10 * time.Second

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var detach bool
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the wax daemon",
		Long: "Run the wax daemon in the foreground. The daemon owns the recording session,\n" +
			"listens on <log_dir>/wax.sock, and stops any live session on SIGINT or SIGTERM.\n" +
			"With --detach, start it in the background unless one is already answering.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if detach {
				return runDetached(cmd, ctx)
			}
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}
	cmd.Flags().BoolVarP(&detach, "detach", "d", false, "Start the daemon in the background and return")
	return cmd
}

func runDetached(cmd *cobra.Command, ctx *commandContext) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	opts := daemonctl.LaunchOptions{SocketPath: ctx.socketPath(), ConfigPath: ctx.configPath()}
	result, err := daemonctl.EnsureRunning(opts.SocketPath, executable, opts, detachTimeout)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if result.Launched {
		fmt.Fprintf(out, "Daemon started (pid %d)\n", result.PID)
		return nil
	}
	fmt.Fprintf(out, "Daemon already running (pid %d)\n", result.PID)
	return nil
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runLog := logging.RunLogPath(cfg.Paths.LogDir, time.Now())
	logger, err := logging.NewFromConfig(cfg, runLog)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	index, err := sessionindex.Open(cfg)
	if err != nil {
		logger.Error("open session index", logging.Error(err))
		return err
	}

	d, err := daemon.New(cfg, index, logger, daemon.WithRunLog(runLog))
	if err != nil {
		_ = index.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// The lock comes first so a second daemon never replaces a live socket.
	if err := d.Start(signalCtx); err != nil {
		return err
	}

	ipcServer, err := ipc.NewServer(signalCtx, ctx.socketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-signalCtx.Done()
	logger.Info("wax daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}
