package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nightfeed/bcskill/internal/config"
	"github.com/nightfeed/bcskill/internal/gateway"
)

var rootCmd = &cobra.Command{
	Use:   "bcskill",
	Short: "bcskill - voice skill for Baby Connect",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the skill gateway (webhook + account linking)",
	RunE:  runServe,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Create the default config file",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show effective configuration",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(serveCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Token.Secret == "" {
		return fmt.Errorf("token secret not set. Run 'bcskill onboard' and edit %s, or set BCSKILL_TOKEN_SECRET", config.ConfigPath())
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(context.Background())
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgPath := config.ConfigPath()

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		if err := config.SaveConfig(cfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s to set the token secret\n", cfgPath)
	fmt.Println("  2. Or set BCSKILL_TOKEN_SECRET in the environment")
	fmt.Println("  3. Run 'bcskill serve' and point the skill endpoint at /babyconnect")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Listen: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Upstream: %s\n", cfg.Upstream.BaseURL)
	fmt.Printf("Timezone: %s\n", cfg.Timezone)
	if cfg.Token.Secret != "" {
		fmt.Println("Token secret: set")
	} else {
		fmt.Println("Token secret: not set")
	}
	fmt.Printf("Probe: enabled=%v spec=%s\n", cfg.Probe.Enabled, cfg.Probe.Spec)

	return nil
}
