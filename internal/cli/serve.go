package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpserver "DocMCP/api/http"
	"DocMCP/internal/config"
	"DocMCP/internal/telemetry"
	"DocMCP/pkg/zlog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewServeCmd 启动 MCP Server
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over HTTP (default) or stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Bool("stdio", false, "Serve MCP over stdin/stdout instead of HTTP")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	stdio, _ := cmd.Flags().GetBool("stdio")

	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	initLogger(conf, stdio)
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, conf.OtelConfig)
	if err != nil {
		zlog.Warn("tracing setup failed, continuing without it", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	app, err := NewApp(conf)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer app.Close()
	app.Store.StartFeedRelay(ctx)

	if stdio {
		zlog.Info("MCP server running on stdio")
		return server.ServeStdio(app.Server)
	}
	return serveHTTP(ctx, conf, app)
}

func serveHTTP(ctx context.Context, conf *config.Config, app *App) error {
	addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpserver.NewRouter(conf, app.Registry, app.Server, app.Hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info(fmt.Sprintf("服务器正在启动，监听地址: %s", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("服务器启动失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zlog.Info("正在关闭服务器...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	zlog.Info("服务器已关闭")
	return nil
}

func initLogger(conf *config.Config, stdio bool) {
	opts := zlog.Options{
		Level:      conf.LogConfig.Level,
		LogPath:    conf.LogConfig.LogPath,
		MaxSizeMB:  conf.LogConfig.MaxSizeMB,
		MaxBackups: conf.LogConfig.MaxBackups,
		MaxAgeDays: conf.LogConfig.MaxAgeDays,
	}
	if stdio {
		opts.Console = os.Stderr
	}
	zlog.Init(opts)
}
