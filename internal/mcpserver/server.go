// Package mcpserver exposes idea generation and the saved-ideas list as
// Model Context Protocol tools, so assistants can drive the pipeline over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hyperengineering/genscript/internal/gateway"
	"github.com/hyperengineering/genscript/internal/generator"
	"github.com/hyperengineering/genscript/internal/prompt"
	"github.com/hyperengineering/genscript/internal/types"
	"github.com/hyperengineering/genscript/internal/validation"
)

const (
	defaultListLimit = 20
	recentLimit      = 10
	recentURI        = "ideas://recent"
)

// Generator runs the generation pipeline.
type Generator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Result, error)
}

// IdeaLister reads saved ideas, newest first.
type IdeaLister interface {
	ListIdeas(ctx context.Context) ([]types.Idea, error)
}

// Deps holds dependencies for the MCP server.
type Deps struct {
	Generator Generator
	Ideas     IdeaLister
	Version   string
}

// New creates an MCP server with the genscript tools and resources registered.
func New(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"genscript",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("genscript generates research, business and technical-script ideas for a topic and keeps a deduplicated list of saved ideas."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("generate_ideas",
			mcp.WithDescription("Generate structured ideas for a topic using one of the generation modes."),
			mcp.WithString("topic", mcp.Description("Subject to generate ideas about"), mcp.Required()),
			mcp.WithString("mode", mcp.Description("Generation mode: research, business or technical-script (default research)")),
			mcp.WithNumber("count", mcp.Description("Number of ideas to request (default 10)")),
			mcp.WithBoolean("save", mcp.Description("Persist new ideas, skipping titles already saved")),
		),
		generateIdeas(deps),
	)

	s.AddTool(
		mcp.NewTool("list_ideas",
			mcp.WithDescription("List saved ideas, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of ideas (default 20)")),
		),
		listIdeas(deps),
	)

	s.AddTool(
		mcp.NewTool("list_modes",
			mcp.WithDescription("List the generation modes and the fields each produces."),
		),
		listModes(),
	)

	s.AddResource(
		mcp.NewResource(
			recentURI,
			"Recent Ideas",
			mcp.WithResourceDescription("The 10 most recently saved ideas as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		recentIdeas(deps),
	)

	return s
}

func generateIdeas(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		topic, err := req.RequireString("topic")
		if err != nil {
			return toolError("topic is required"), nil
		}

		res, err := deps.Generator.Generate(ctx, generator.Request{
			Topic: topic,
			Mode:  req.GetString("mode", string(types.ModeResearch)),
			Count: req.GetInt("count", 0),
			Save:  req.GetBool("save", false),
		})
		if err != nil {
			slog.Warn("mcp generation failed", "component", "mcp", "error", err)
			return toolError(describeError(err)), nil
		}

		return toolJSON(res.Response())
	}
}

func listIdeas(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", defaultListLimit)
		if limit <= 0 {
			limit = defaultListLimit
		}

		ideas, err := deps.Ideas.ListIdeas(ctx)
		if err != nil {
			return toolError(fmt.Sprintf("list ideas failed: %v", err)), nil
		}
		if len(ideas) > limit {
			ideas = ideas[:limit]
		}
		return toolJSON(types.IdeaList{Ideas: ideas})
	}
}

func listModes() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		profiles := prompt.Profiles()
		modes := make([]types.ModeInfo, 0, len(profiles))
		for _, p := range profiles {
			modes = append(modes, p.Info())
		}
		return toolJSON(modes)
	}
}

func recentIdeas(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ideas, err := deps.Ideas.ListIdeas(ctx)
		if err != nil {
			return nil, fmt.Errorf("list ideas: %w", err)
		}
		if len(ideas) > recentLimit {
			ideas = ideas[:recentLimit]
		}
		b, err := json.Marshal(types.IdeaList{Ideas: ideas})
		if err != nil {
			return nil, fmt.Errorf("marshal ideas: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      recentURI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

// describeError turns a pipeline error into a message for the calling model.
func describeError(err error) string {
	var verrs validation.Errors
	var gwErr *gateway.GatewayError
	switch {
	case errors.As(err, &verrs):
		return verrs.Error()
	case errors.Is(err, gateway.ErrEmptyOutput):
		return "the model returned an empty response; try a different topic"
	case errors.As(err, &gwErr):
		if gwErr.StatusCode != 0 {
			return fmt.Sprintf("LLM gateway returned status %d", gwErr.StatusCode)
		}
		return "LLM gateway unreachable"
	}
	return err.Error()
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return toolText(string(b)), nil
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
