package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/interviewd/internal/interview"
)

// NewMCPServer creates an MCP server exposing the interview as tools.
func NewMCPServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"interviewd",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("interviewd runs mock job interviews. Start with start_interview, then send each answer with answer."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("start_interview",
			mcp.WithDescription("Start a new mock interview from a resume and a job description."),
			mcp.WithString("resume", mcp.Description("Candidate resume as plain text"), mcp.Required()),
			mcp.WithString("job_description", mcp.Description("Job description text"), mcp.Required()),
			mcp.WithString("role", mcp.Description("Role id, see interview://roles (default software_engineer)")),
			mcp.WithString("session_id", mcp.Description("Session id to reuse; minted when empty")),
		),
		mcpStartInterview(deps),
	)

	s.AddTool(
		mcp.NewTool("answer",
			mcp.WithDescription("Send the candidate's answer and get the interviewer's next turn."),
			mcp.WithString("session_id", mcp.Description("Session id returned by start_interview"), mcp.Required()),
			mcp.WithString("message", mcp.Description("Candidate answer"), mcp.Required()),
		),
		mcpAnswer(deps),
	)

	s.AddTool(
		mcp.NewTool("get_feedback",
			mcp.WithDescription("Generate a feedback report for the interview so far without ending it."),
			mcp.WithString("session_id", mcp.Description("Session id"), mcp.Required()),
		),
		mcpGetFeedback(deps),
	)

	s.AddTool(
		mcp.NewTool("save_session",
			mcp.WithDescription("Archive a snapshot of the interview."),
			mcp.WithString("session_id", mcp.Description("Session id"), mcp.Required()),
		),
		mcpSaveSession(deps),
	)

	s.AddTool(
		mcp.NewTool("list_sessions",
			mcp.WithDescription("List archived interviews, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
		),
		mcpListSessions(deps),
	)

	s.AddTool(
		mcp.NewTool("load_session",
			mcp.WithDescription("Load an archived interview with its history."),
			mcp.WithString("id", mcp.Description("Archive id"), mcp.Required()),
		),
		mcpLoadSession(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"interview://roles",
			"Interview Roles",
			mcp.WithResourceDescription("Built-in roles with descriptions and focus areas"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRoles,
	)

	return s
}

func mcpStartInterview(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resume, err := req.RequireString("resume")
		if err != nil {
			return mcpError("resume is required"), nil
		}
		jd, err := req.RequireString("job_description")
		if err != nil {
			return mcpError("job_description is required"), nil
		}

		in := interview.StartInput{
			SessionID:      req.GetString("session_id", ""),
			Resume:         resume,
			JobDescription: jd,
			Role:           req.GetString("role", ""),
		}
		id, err := deps.Interviews.Start(ctx, in)
		if errors.Is(err, interview.ErrMissingContext) {
			return mcpError("resume and job_description must not be blank"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to start interview: %v", err)), nil
		}

		return mcpJSON(map[string]string{"session_id": id, "role": interview.RoleFor(in.Role).ID})
	}
}

func mcpAnswer(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		msg, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		res, err := deps.Interviews.Turn(ctx, id, msg)
		if err != nil {
			return mcpError(fmt.Sprintf("turn failed: %v", err)), nil
		}
		return mcpJSON(res)
	}
}

func mcpGetFeedback(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}

		report, err := deps.Interviews.Feedback(ctx, id)
		if err != nil {
			return mcpError(fmt.Sprintf("feedback failed: %v", err)), nil
		}
		return mcpText(report.Text), nil
	}
}

func mcpSaveSession(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}

		saved, err := deps.Interviews.Save(ctx, id, "")
		if err != nil {
			return mcpError(fmt.Sprintf("save failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Saved session %s", saved.ID)), nil
	}
}

func mcpListSessions(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 20)
		if limit <= 0 {
			limit = 20
		}
		if limit > 100 {
			limit = 100
		}

		sessions, err := deps.Interviews.List(ctx, limit, 0)
		if err != nil {
			return mcpError(fmt.Sprintf("list failed: %v", err)), nil
		}
		return mcpJSON(sessions)
	}
}

func mcpLoadSession(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		saved, err := deps.Interviews.Load(ctx, id)
		if err != nil {
			return mcpError(fmt.Sprintf("load failed: %v", err)), nil
		}
		return mcpJSON(saved)
	}
}

func mcpResourceRoles(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(interview.Roles())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal roles: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
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
