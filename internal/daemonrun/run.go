// Package daemonrun boots the reelsmith daemon runtime: logging, queue
// store, workflow stages, the daemon lock, and the HTTP API. It is shared
// by the reelsmithd binary and the CLI's in-process daemon command.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"reelsmith/internal/api"
	"reelsmith/internal/assembly"
	"reelsmith/internal/captioning"
	"reelsmith/internal/config"
	"reelsmith/internal/daemon"
	"reelsmith/internal/logging"
	"reelsmith/internal/narration"
	"reelsmith/internal/publishing"
	"reelsmith/internal/queue"
	"reelsmith/internal/scripting"
	"reelsmith/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
}

// Run starts the reelsmith daemon runtime and blocks until the process
// receives SIGINT or SIGTERM, or the parent context is cancelled.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.NewForDir(cfg.Paths.LogDir, level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "reelsmith.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	manager := workflow.NewManager(cfg, store, logger, buildStages(cfg, store, logger))

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	apiServer, err := api.NewServer(cfg.Paths.APIBind, cfg.Paths.APIToken, d, logger)
	if err != nil {
		return fmt.Errorf("start api server: %w", err)
	}
	defer apiServer.Close()
	apiServer.Serve()
	logger.Info("api server listening", logging.String("addr", apiServer.Addr()))

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	<-signalCtx.Done()
	logger.Info("reelsmith daemon shutting down")
	return nil
}

func buildStages(cfg *config.Config, store *queue.Store, logger *slog.Logger) workflow.StageSet {
	return workflow.StageSet{
		Scripter:  scripting.NewScripter(cfg, store, logger),
		Narrator:  narration.NewNarrator(cfg, store, logger),
		Captioner: captioning.NewCaptioner(cfg, store, logger),
		Assembler: assembly.NewAssembler(cfg, store, logger),
		Publisher: publishing.NewPublisher(cfg, store, logger),
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// logDependencySnapshot records which external integrations are usable at
// startup so a missing key or binary surfaces before the first item runs.
func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ffmpeg := cfg.FFmpegBinary()
	ffprobe := cfg.FFprobeBinary()
	logger.Info("dependency snapshot",
		logging.Bool("llm_key_present", strings.TrimSpace(cfg.LLM.APIKey) != ""),
		logging.Bool("tts_key_present", strings.TrimSpace(cfg.TTS.APIKey) != ""),
		logging.Bool("stock_enabled", cfg.Stock.Enabled),
		logging.Bool("whisper_enabled", cfg.Whisper.Enabled),
		logging.Bool("publish_enabled", cfg.Publish.Enabled),
		logging.Bool("ffmpeg_available", binaryAvailable(ffmpeg)),
		logging.String("ffmpeg_binary", ffmpeg),
		logging.Bool("ffprobe_available", binaryAvailable(ffprobe)),
		logging.String("ffprobe_binary", ffprobe),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
