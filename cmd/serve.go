// file: cmd/serve.go
// version: 2.1.0
// guid: 2e4a6c8e-0b1d-4f3a-9c5e-7a9c1e3b5d82

package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdfalk/book-library/internal/backup"
	"github.com/jdfalk/book-library/internal/config"
	"github.com/jdfalk/book-library/internal/operations"
	"github.com/jdfalk/book-library/internal/realtime"
	"github.com/jdfalk/book-library/internal/server"
	"github.com/jdfalk/book-library/internal/tui"
)

// serveFlagKeys maps serve flags to config keys. Other commands have no
// such flags and bindFlags skips them.
var serveFlagKeys = map[string]string{
	"host":            "host",
	"port":            "port",
	"rate-limit":      "rate_limit_per_minute",
	"watch-dir":       "scan_watch_dir",
	"backup-interval": "backup_interval",
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serve the library over a JSON API with server-sent events for live
updates, scan endpoints, background ISBN imports and Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			readTimeout, _ := cmd.Flags().GetDuration("read-timeout")
			writeTimeout, _ := cmd.Flags().GetDuration("write-timeout")
			idleTimeout, _ := cmd.Flags().GetDuration("idle-timeout")
			jobWorkers, _ := cmd.Flags().GetInt("job-workers")

			cfg := server.GetDefaultServerConfig()
			cfg.Host = config.AppConfig.Host
			cfg.Port = fmt.Sprintf("%d", config.AppConfig.Port)
			cfg.RateLimitPerMinute = config.AppConfig.RateLimitPerMinute
			cfg.MaxBodyBytes = config.AppConfig.MaxBodyBytes
			cfg.ReadTimeout = readTimeout
			cfg.WriteTimeout = writeTimeout
			cfg.IdleTimeout = idleTimeout

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, func(a *app) error {
				queue := operations.NewOperationQueue(jobWorkers, 100)
				defer func() {
					if err := queue.Shutdown(10 * time.Second); err != nil {
						log.Printf("[WARN] %v", err)
					}
				}()
				srv := server.NewServer(server.Deps{
					Library: a.lib,
					Lookup:  a.lookup,
					Scanner: a.scan,
					Index:   a.index,
					Hub:     realtime.NewEventHub(),
					Queue:   queue,
				}, cfg)
				if every := config.AppConfig.BackupInterval; every > 0 {
					log.Printf("[INFO] backing up to %s every %s", config.AppConfig.BackupDir, every)
					go func() { _ = backup.ScheduleBackup(ctx, every, a.createBackup) }()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Serving %d books on http://%s\n", a.lib.Len(), config.AppConfig.Addr())
				err := srv.Start(ctx, cfg)
				a.scan.Stop()
				return err
			})
		},
	}
	fs := cmd.Flags()
	fs.String("host", "", "listen host (default localhost)")
	fs.Int("port", 0, "listen port (default 8080)")
	fs.Int("rate-limit", 0, "requests per minute per client IP")
	fs.String("watch-dir", "", "folder the live scan stream watches for barcode images")
	fs.Duration("backup-interval", 0, "create a backup this often while serving (0 disables)")
	fs.Int("job-workers", 2, "background operations run at once")
	fs.Duration("read-timeout", 15*time.Second, "HTTP read timeout")
	fs.Duration("write-timeout", 0, "HTTP write timeout (0 keeps event streams open)")
	fs.Duration("idle-timeout", 60*time.Second, "HTTP idle timeout")
	return cmd
}

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the library in the terminal",
		Long: `Open an interactive list of the books. Filter by genre, change the
reading status and delete books from the keyboard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				return tui.Run(a.lib)
			})
		},
	}
}
