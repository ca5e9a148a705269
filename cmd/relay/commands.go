package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kalambet/relay/internal/config"
	"github.com/kalambet/relay/internal/storage"
)

// --- seed ---

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo users, templates and workflows",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		if err := store.Seed(); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}

		printSuccess("Database seeded")
		return nil
	},
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze <text>",
	Short: "Classify a message: language, intent, sentiment, escalation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		language, _ := cmd.Flags().GetString("language")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/analyze", map[string]string{
			"text":     args[0],
			"language": language,
		})
		if err != nil {
			return err
		}

		var result struct {
			Language           string   `json:"language"`
			Intent             string   `json:"intent"`
			Sentiment          string   `json:"sentiment"`
			Confidence         float64  `json:"confidence"`
			Entities           []string `json:"entities"`
			SuggestedResponse  string   `json:"suggested_response"`
			RequiresEscalation bool     `json:"requires_escalation"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printStatus("Language", "%s", result.Language)
		printStatus("Intent", "%s", result.Intent)
		printStatus("Sentiment", "%s", result.Sentiment)
		printStatus("Confidence", "%.2f", result.Confidence)
		if len(result.Entities) > 0 {
			printStatus("Entities", "%v", result.Entities)
		}
		printStatus("Response", "%s", result.SuggestedResponse)
		if result.RequiresEscalation {
			printWarning("Requires human escalation")
		}
		return nil
	},
}

// --- send ---

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a template to a user outside of any workflow",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		templateID, _ := cmd.Flags().GetString("template")
		if userID == "" || templateID == "" {
			return fmt.Errorf("--user and --template are required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/notifications/send", map[string]string{
			"user_id":     userID,
			"template_id": templateID,
		})
		if err != nil {
			return err
		}

		var n storage.Notification
		if err := decodeJSON(resp, &n); err != nil {
			return err
		}

		if n.Status == storage.NotificationSent {
			printSuccess("Notification %s sent on %s", n.ID, n.Channel)
		} else {
			printError("Notification %s failed: %s", n.ID, n.ErrorMessage)
		}
		return nil
	},
}

// --- workflow ---

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Inspect and drive workflows",
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured workflows",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/workflows")
		if err != nil {
			return err
		}

		var workflows []storage.Workflow
		if err := decodeJSON(resp, &workflows); err != nil {
			return err
		}

		if len(workflows) == 0 {
			printWarning("No workflows configured. Run `relay seed` to install the demo set.")
			return nil
		}
		for _, w := range workflows {
			state := "active"
			if !w.IsActive {
				state = "inactive"
			}
			fmt.Printf("  %s  %s (%s, %s)\n", w.ID, colorize(colorBold, w.Name), w.TriggerType, state)
		}
		return nil
	},
}

var workflowStartCmd = &cobra.Command{
	Use:   "start <workflow-id>",
	Short: "Start a workflow instance for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		if userID == "" {
			return fmt.Errorf("--user is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/workflows/"+args[0]+"/start", map[string]string{
			"user_id": userID,
		})
		if err != nil {
			return err
		}

		var inst storage.WorkflowInstance
		if err := decodeJSON(resp, &inst); err != nil {
			return err
		}

		printSuccess("Started instance %s at step %d", inst.ID, inst.CurrentStep)
		return nil
	},
}

var workflowExecuteCmd = &cobra.Command{
	Use:   "execute <instance-id>",
	Short: "Execute the current step of a workflow instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/instances/"+args[0]+"/execute", nil)
		if err != nil {
			return err
		}

		var result struct {
			Result struct {
				Succeeded bool   `json:"succeeded"`
				Detail    string `json:"detail"`
			} `json:"result"`
			Instance storage.WorkflowInstance `json:"instance"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if result.Result.Succeeded {
			printSuccess("Step executed: %s", result.Result.Detail)
		} else {
			printWarning("Step reported failure: %s", result.Result.Detail)
		}
		printStatus("Instance", "%s step %d (%s)", result.Instance.ID, result.Instance.CurrentStep, result.Instance.Status)
		return nil
	},
}

var workflowInstancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "List active workflow instances",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/instances")
		if err != nil {
			return err
		}

		var instances []storage.WorkflowInstance
		if err := decodeJSON(resp, &instances); err != nil {
			return err
		}

		if len(instances) == 0 {
			printWarning("No active instances")
			return nil
		}
		for _, inst := range instances {
			fmt.Printf("  %s  workflow=%s user=%s step=%d\n", inst.ID, inst.WorkflowID, inst.UserID, inst.CurrentStep)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("language", "", "declared language, overrides script detection")
	sendCmd.Flags().String("user", "", "recipient user id")
	sendCmd.Flags().String("template", "", "template id to send")
	workflowStartCmd.Flags().String("user", "", "user id to run the workflow for")

	workflowCmd.AddCommand(workflowListCmd)
	workflowCmd.AddCommand(workflowStartCmd)
	workflowCmd.AddCommand(workflowExecuteCmd)
	workflowCmd.AddCommand(workflowInstancesCmd)
}

// --- users ---

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/users")
		if err != nil {
			return err
		}

		var users []storage.User
		if err := decodeJSON(resp, &users); err != nil {
			return err
		}

		for _, u := range users {
			fmt.Printf("  %s  %s <%s> %s (%s)\n", u.ID, colorize(colorBold, u.Name), u.Phone, u.Role, u.Language)
		}
		return nil
	},
}

// --- conversations ---

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "Show recent inbound and outbound messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/conversations?limit=%d", limit))
		if err != nil {
			return err
		}

		var conversations []json.RawMessage
		if err := decodeJSON(resp, &conversations); err != nil {
			return err
		}

		for _, c := range conversations {
			fmt.Printf("  %s\n", string(c))
		}
		return nil
	},
}

func init() {
	conversationsCmd.Flags().Int("limit", 20, "maximum entries to show")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
