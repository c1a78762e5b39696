// Package main runs the todo-gpt HTTP service.
package main

import (
	"log"
	"os"

	"todo-gpt/backend/internal/config"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "todo-gpt",
	Short: "Todo GPT - a todo list service for GPT actions",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log.Printf("📋 Environment: %s", cfg.Server.Environment)
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		return err
	}
	defer app.cleanup()

	app.setupRoutes()
	return app.startServer(cmd.Context())
}
