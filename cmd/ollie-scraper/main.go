package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/NikkeTryHard/ollie-scraper/internal/config"
	"github.com/NikkeTryHard/ollie-scraper/internal/daemon"
	"github.com/NikkeTryHard/ollie-scraper/internal/gateway"
	"github.com/NikkeTryHard/ollie-scraper/internal/notify"
	"github.com/NikkeTryHard/ollie-scraper/internal/watch"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "ollie-scraper",
		Short: "Discord channel name watcher",
		Long:  "Watches one Discord channel's name via REST polling and the Gateway,\nand raises a desktop alarm when it changes.",
	}

	root.AddCommand(runCmd(), stopCmd(), statusCmd(), testCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var (
		daemonize  bool
		configPath string
		noPoll     bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start watching (foreground or background)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if noPoll {
				cfg.Monitor.Poll = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if daemonize {
				extra := []string{"--config", configPath}
				if noPoll {
					extra = append(extra, "--no-poll")
				}
				pid, err := daemon.Start(daemon.DefaultPIDFile(), extra...)
				if err != nil {
					return err
				}
				fmt.Printf("Watcher started with PID %d\n", pid)
				return nil
			}
			return runForeground(cfg)
		},
	}
	cmd.Flags().BoolVar(&daemonize, "daemon", false, "run detached in the background")
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	cmd.Flags().BoolVar(&noPoll, "no-poll", false, "disable the REST polling path")
	return cmd
}

func runForeground(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier := notify.NewDesktopNotifier(cfg.ResolveSoundPath())
	fetcher := watch.NewChannelFetcher(cfg.Discord.APIBase, cfg.Discord.Token, cfg.Discord.ChannelID, cfg.FetchTimeout())
	watcher := watch.NewWatcher(fetcher, notifier, cfg.PollInterval())

	log.Printf("Watching channel %s", cfg.Discord.ChannelID)
	watcher.Seed(ctx)

	client := gateway.NewClient(cfg.Discord.GatewayURL, cfg.Discord.Token, cfg.Discord.ChannelID, func(name string) {
		watcher.Apply("WS", name)
	})

	if cfg.Monitor.Poll {
		go watcher.Run(ctx)
	} else {
		log.Println("Polling disabled; relying on the Gateway alone")
	}
	go client.Run(ctx)

	<-ctx.Done()
	log.Println("Shutting down...")
	notifier.Stop()
	return nil
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background watcher (and silence its alarm)",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidFile := daemon.DefaultPIDFile()
			pid, _ := pidFile.Read()
			if err := daemon.Stop(pidFile); err != nil {
				return err
			}
			fmt.Printf("Stopped watcher (PID %d)\n", pid)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the background watcher is running",
		Run: func(cmd *cobra.Command, args []string) {
			st := daemon.CurrentStatus(daemon.DefaultPIDFile())
			switch {
			case st.Running:
				fmt.Printf("running (PID %d, uptime %s)\n", st.PID, st.Uptime)
			case st.PID > 0:
				fmt.Printf("stopped (stale PID file for %d)\n", st.PID)
			default:
				fmt.Println("stopped")
			}
		},
	}
}

func testCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Fire the notification once to verify the alert chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			notifier := notify.NewDesktopNotifier(cfg.ResolveSoundPath())
			notifier.NotifyOnce("test-channel")
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	return cmd
}
