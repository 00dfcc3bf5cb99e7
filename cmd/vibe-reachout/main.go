// Command vibe-reachout mediates tool-permission decisions for an AI coding
// assistant through a Telegram chat, per spec.md.
//
// Grounded on joestump-claude-ops/cmd/claudeops/main.go's cobra root-command
// shape, minus viper: configuration here is a TOML file, not flag/env
// binding, so binding each flag into a second config source would add
// indirection the original doesn't need.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alexsavio/vibe-reachout/internal/broker"
	"github.com/alexsavio/vibe-reachout/internal/config"
	"github.com/alexsavio/vibe-reachout/internal/hook"
	"github.com/alexsavio/vibe-reachout/internal/install"
	"github.com/alexsavio/vibe-reachout/internal/logging"
)

func main() {
	var configPath string
	var socketOverride string

	root := &cobra.Command{
		Use:   "vibe-reachout",
		Short: "Telegram permission broker for an AI coding assistant",
		// No subcommand: hook mode. Reads one PermissionRequest off stdin,
		// writes one HookOutput line to stdout.
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(zerolog.WarnLevel)
			cfg, err := loadConfig(configPath, socketOverride)
			if err != nil {
				return err
			}
			os.Exit(hook.Run(cfg, os.Stdin, os.Stdout))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default: OS config dir)/vibe-reachout/config.toml")
	root.PersistentFlags().StringVar(&socketOverride, "socket", "", "override the broker's rendezvous socket path")

	botCmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the broker daemon, listening for permission requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(zerolog.InfoLevel)
			cfg, err := loadConfig(configPath, socketOverride)
			if err != nil {
				return err
			}
			return broker.Run(cfg)
		},
	}

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Register vibe-reachout as the PermissionRequest hook",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(zerolog.WarnLevel)
			return install.Run()
		},
	}

	root.AddCommand(botCmd, installCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(configPath, socketOverride string) (config.Config, error) {
	if configPath == "" {
		var err error
		configPath, err = config.FilePath()
		if err != nil {
			return config.Config{}, err
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	if socketOverride != "" {
		cfg.SocketPath = socketOverride
	}
	return cfg, nil
}
