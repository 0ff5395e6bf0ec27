package main

import (
	"fmt"
	"time"

	"github.com/Davy-hou/dify-relay/internal/chat"
	"github.com/Davy-hou/dify-relay/internal/domain"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse local conversation history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past conversations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := chat.NewHistory(historyPath())
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}

		entries := history.Entries()
		if len(entries) == 0 {
			fmt.Println("No conversations yet.")
			return nil
		}
		for _, e := range entries {
			updated := time.UnixMilli(e.LastUpdated).Format("2006-01-02 15:04")
			fmt.Printf("%s  %s  %s\n", e.ID, updated, styles.Title.Render(e.Title))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one past conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := chat.NewHistory(historyPath())
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}

		msgs, ok := history.Select(args[0])
		if !ok {
			return fmt.Errorf("no history entry with id %q", args[0])
		}
		for _, m := range msgs {
			switch {
			case m.Role == domain.RoleUser:
				fmt.Println(styles.Prompt.Render("> " + m.Content))
			case m.IsError():
				fmt.Println(styles.Error.Render(m.Content))
			default:
				fmt.Println(m.Content)
			}
			fmt.Println()
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one past conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := chat.NewHistory(historyPath())
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		if err := history.Delete(args[0]); err != nil {
			return fmt.Errorf("delete history entry: %w", err)
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}
