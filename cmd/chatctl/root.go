package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	dataDir   string
)

var styles = struct {
	Prompt lipgloss.Style
	Error  lipgloss.Style
	Title  lipgloss.Style
	Source lipgloss.Style
}{
	Prompt: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
	Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	Title:  lipgloss.NewStyle().Bold(true),
	Source: lipgloss.NewStyle().Faint(true),
}

var rootCmd = &cobra.Command{
	Use:   "chatctl",
	Short: "Chat with a Dify app through the relay",
	Long: `A command-line client for the Dify relay server. Streams chat turns,
keeps a local conversation history, and manages registered apps.`,
	Example: `  # Send one prompt using a registered app
  $ chatctl chat --app support "How do I reset my password?"

  # Manage apps
  $ chatctl apps list
  $ chatctl apps add --name support --provider dify --token app-xxx

  # Browse past conversations
  $ chatctl history list`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.Error.Render("Error: "+err.Error()))
	}
	return err
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "relay server base URL")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "directory for local client state")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(appsCmd)
	rootCmd.AddCommand(historyCmd)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.chatctl"
	}
	return filepath.Join(home, ".chatctl")
}

func historyPath() string {
	return filepath.Join(dataDir, "history.json")
}
