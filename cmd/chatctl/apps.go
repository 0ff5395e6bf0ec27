package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Davy-hou/dify-relay/internal/domain"
	"github.com/spf13/cobra"
)

var (
	appName     string
	appProvider string
	appToken    string
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Manage registered apps",
}

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered apps",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(serverURL + "/api/settings/apps?page=1&pageSize=100")
		if err != nil {
			return fmt.Errorf("list apps: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("list apps: HTTP %d", resp.StatusCode)
		}

		var page struct {
			Items []domain.AppRecord `json:"items"`
			Total int                `json:"total"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			return fmt.Errorf("decode apps response: %w", err)
		}

		if page.Total == 0 {
			fmt.Println("No apps registered. Add one with 'chatctl apps add'.")
			return nil
		}
		for _, app := range page.Items {
			fmt.Printf("%s  %s  %s  %s\n", app.ID, styles.Title.Render(app.Name), app.Provider, app.CreatedAt)
		}
		return nil
	},
}

var appsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new app",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := json.Marshal(map[string]string{
			"name":     appName,
			"provider": appProvider,
			"token":    appToken,
		})
		if err != nil {
			return fmt.Errorf("marshal app: %w", err)
		}

		resp, err := http.Post(serverURL+"/api/settings/apps", "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create app: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("create app: HTTP %d", resp.StatusCode)
		}

		var rec domain.AppRecord
		if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
			return fmt.Errorf("decode created app: %w", err)
		}
		fmt.Printf("Created app %s (%s)\n", styles.Title.Render(rec.Name), rec.ID)
		return nil
	},
}

var appsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a registered app",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := json.Marshal(map[string]string{"id": args[0]})
		if err != nil {
			return fmt.Errorf("marshal delete request: %w", err)
		}

		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodDelete, serverURL+"/api/settings/apps", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create delete request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("delete app: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("delete app: HTTP %d", resp.StatusCode)
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

func init() {
	appsAddCmd.Flags().StringVar(&appName, "name", "", "friendly app name")
	appsAddCmd.Flags().StringVar(&appProvider, "provider", "dify", "provider (dify or coze)")
	appsAddCmd.Flags().StringVar(&appToken, "token", "", "provider API token")
	_ = appsAddCmd.MarkFlagRequired("name")
	_ = appsAddCmd.MarkFlagRequired("token")

	appsCmd.AddCommand(appsListCmd)
	appsCmd.AddCommand(appsAddCmd)
	appsCmd.AddCommand(appsRemoveCmd)
}
