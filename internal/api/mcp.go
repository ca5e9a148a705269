package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/relay/internal/classify"
	"github.com/kalambet/relay/internal/engine"
	"github.com/kalambet/relay/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store      *storage.Store
	Engine     *engine.Engine
	Classifier *classify.Classifier
}

// NewMCPServer creates an MCP server exposing the hub's operations as
// tools, so an assistant can drive workflows and inspect conversations.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"relay",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("relay — outbound notification workflows and inbound message classification for a worker community."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("analyze_message",
			mcp.WithDescription("Classify a message: language, intent, sentiment, confidence, entities and escalation flag."),
			mcp.WithString("text", mcp.Description("The message text to analyze"), mcp.Required()),
			mcp.WithString("language", mcp.Description("Declared language, overrides script detection")),
		),
		mcpAnalyzeMessage(deps),
	)

	s.AddTool(
		mcp.NewTool("start_workflow",
			mcp.WithDescription("Start a workflow instance for a user."),
			mcp.WithString("workflow_id", mcp.Description("Workflow to start"), mcp.Required()),
			mcp.WithString("user_id", mcp.Description("User to run it for"), mcp.Required()),
		),
		mcpStartWorkflow(deps),
	)

	s.AddTool(
		mcp.NewTool("execute_step",
			mcp.WithDescription("Execute the current step of a workflow instance and advance it."),
			mcp.WithString("instance_id", mcp.Description("Workflow instance to advance"), mcp.Required()),
		),
		mcpExecuteStep(deps),
	)

	s.AddTool(
		mcp.NewTool("send_notification",
			mcp.WithDescription("Send one template to one user outside of any workflow."),
			mcp.WithString("user_id", mcp.Description("Recipient user"), mcp.Required()),
			mcp.WithString("template_id", mcp.Description("Template to send"), mcp.Required()),
		),
		mcpSendNotification(deps),
	)

	s.AddTool(
		mcp.NewTool("recent_conversations",
			mcp.WithDescription("List recent inbound and outbound messages with their classification."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 10)")),
		),
		mcpRecentConversations(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"relay://analytics",
			"Hub Analytics",
			mcp.WithResourceDescription("Aggregate counters: users, notifications, conversations, escalations"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceAnalytics(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"relay://workflows",
			"Workflows",
			mcp.WithResourceDescription("All configured workflows as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceWorkflows(deps),
	)

	return s
}

func mcpAnalyzeMessage(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		language := req.GetString("language", "")

		result := deps.Classifier.Classify(text, language, "")
		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpStartWorkflow(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		workflowID, err := req.RequireString("workflow_id")
		if err != nil {
			return mcpError("workflow_id is required"), nil
		}
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}

		inst, err := deps.Engine.Start(ctx, workflowID, userID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to start workflow: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Started instance %s at step %d", inst.ID, inst.CurrentStep)), nil
	}
}

func mcpExecuteStep(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		instanceID, err := req.RequireString("instance_id")
		if err != nil {
			return mcpError("instance_id is required"), nil
		}

		res, err := deps.Engine.ExecuteNext(ctx, instanceID)
		if errors.Is(err, engine.ErrTerminalState) {
			return mcpError("instance is in a terminal state"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to execute step: %v", err)), nil
		}

		b, err := json.Marshal(res)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSendNotification(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}
		templateID, err := req.RequireString("template_id")
		if err != nil {
			return mcpError("template_id is required"), nil
		}

		n, err := deps.Engine.SendDirect(ctx, userID, templateID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to send: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Notification %s is %s", n.ID, n.Status)), nil
	}
}

func mcpRecentConversations(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		conversations, err := deps.Store.ListConversations(limit)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list conversations: %v", err)), nil
		}
		if len(conversations) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(conversations)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal conversations: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceAnalytics(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		snapshot, err := deps.Store.Analytics()
		if err != nil {
			return nil, fmt.Errorf("failed to compute analytics: %w", err)
		}

		b, err := json.Marshal(snapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal analytics: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceWorkflows(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		workflows, err := deps.Store.ListWorkflows()
		if err != nil {
			return nil, fmt.Errorf("failed to list workflows: %w", err)
		}

		b, err := json.Marshal(workflows)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal workflows: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
