package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL  string
	userID     string
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envServer := os.Getenv("CLASSTASK_SERVER")
	if envServer == "" {
		envServer = "http://localhost:8080"
	}
	envUser := os.Getenv("CLASSTASK_USER")
	envPort := os.Getenv("PORT")
	if envPort == "" {
		envPort = "8080"
	}
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   "classtask",
		Short: "Terminal client for a gamified classroom task server",
	}

	cmd.PersistentFlags().StringVar(&serverURL, "server", envServer, "server base URL")
	cmd.PersistentFlags().StringVar(&userID, "user", envUser, "user ID to act as")
	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port for the dev authority")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewClientCmd(&configPath, &serverURL, &userID))
	cmd.AddCommand(NewServeCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
