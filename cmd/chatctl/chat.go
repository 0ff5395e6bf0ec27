package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Davy-hou/dify-relay/internal/chat"
	"github.com/Davy-hou/dify-relay/internal/domain"
	"github.com/spf13/cobra"
)

var (
	chatAppName  string
	chatResumeID string
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one prompt and stream the reply",
	Example: `  # New conversation
  $ chatctl chat --app support "How do I reset my password?"

  # Continue a past conversation
  $ chatctl chat --app support --chat 6e1f... "And what about 2FA?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatAppName, "app", "", "registered app to chat with (required)")
	chatCmd.Flags().StringVar(&chatResumeID, "chat", "", "history entry id to continue")
	_ = chatCmd.MarkFlagRequired("app")
	chatCmd.SilenceUsage = true
}

func runChat(cmd *cobra.Command, args []string) error {
	app, err := lookupApp(chatAppName)
	if err != nil {
		return err
	}

	history, err := chat.NewHistory(historyPath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}

	printed := 0
	var session *chat.Session
	onUpdate := func() {
		msgs := session.Conversation().Messages()
		last := msgs[len(msgs)-1]
		if last.IsError() {
			return
		}
		if len(last.Content) > printed {
			fmt.Print(last.Content[printed:])
			printed = len(last.Content)
		}
	}
	onNotify := func(msg string) {
		fmt.Println()
		fmt.Println(styles.Error.Render("Error: " + msg))
	}

	session = chat.NewSession(serverURL, history, onUpdate, onNotify)
	session.SelectApp(app)

	if chatResumeID != "" {
		if !session.SelectChat(chatResumeID) {
			return fmt.Errorf("no history entry with id %q", chatResumeID)
		}
	}

	prompt := strings.Join(args, " ")
	fmt.Println(styles.Prompt.Render("> " + prompt))

	if err := session.Send(cmd.Context(), prompt); err != nil {
		return err
	}
	fmt.Println()

	printSources(session.Conversation().Messages())
	return nil
}

// printSources lists knowledge citations attached to the final reply.
func printSources(msgs []domain.Message) {
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if len(last.KnowledgeSources) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(styles.Title.Render("Sources"))
	for _, src := range last.KnowledgeSources {
		line := "  - " + src.Title
		if src.Score > 0 {
			line += fmt.Sprintf(" (%.2f)", src.Score)
		}
		if src.URL != "" {
			line += " " + src.URL
		}
		fmt.Println(styles.Source.Render(line))
	}
}

// lookupApp resolves a friendly app name through the relay's registry API.
func lookupApp(name string) (domain.AppRecord, error) {
	q := url.Values{"page": {"1"}, "pageSize": {"100"}}
	resp, err := http.Get(serverURL + "/api/settings/apps?" + q.Encode())
	if err != nil {
		return domain.AppRecord{}, fmt.Errorf("list apps: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.AppRecord{}, fmt.Errorf("list apps: HTTP %d", resp.StatusCode)
	}

	var page struct {
		Items []domain.AppRecord `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return domain.AppRecord{}, fmt.Errorf("decode apps response: %w", err)
	}
	for _, app := range page.Items {
		if app.Name == name {
			return app, nil
		}
	}
	return domain.AppRecord{}, fmt.Errorf("no app named %q; run 'chatctl apps list'", name)
}
