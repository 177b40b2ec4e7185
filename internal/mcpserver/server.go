// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes calendar tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/calendar"
	"github.com/starford/dagaz/internal/eventservice"
)

// Server wraps the MCP server with dagaz calendar tools.
type Server struct {
	mcp *server.MCPServer
	svc *eventservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *eventservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Dagaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_events",
		mcp.WithDescription("List calendar events starting within a time range. "+
			"Times are RFC 3339; time_min defaults to now, time_max to 7 days later."),
		mcp.WithString("time_min", mcp.Description("Range start, RFC 3339 (e.g. 2024-01-01T00:00:00Z)")),
		mcp.WithString("time_max", mcp.Description("Range end, RFC 3339")),
	), s.listEvents)

	s.mcp.AddTool(mcp.NewTool("get_event",
		mcp.WithDescription("Read a single calendar event by its ID."),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("Server-assigned event ID")),
	), s.getEvent)

	s.mcp.AddTool(mcp.NewTool("create_event",
		mcp.WithDescription("Create a calendar event. Start and end are RFC 3339 timestamps."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Event title")),
		mcp.WithString("start", mcp.Required(), mcp.Description("Start time, RFC 3339")),
		mcp.WithString("end", mcp.Required(), mcp.Description("End time, RFC 3339")),
		mcp.WithString("description", mcp.Description("Optional description")),
		mcp.WithString("location", mcp.Description("Optional location")),
	), s.createEvent)

	s.mcp.AddTool(mcp.NewTool("update_event",
		mcp.WithDescription("Replace an existing calendar event."),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("Server-assigned event ID")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Event title")),
		mcp.WithString("start", mcp.Required(), mcp.Description("Start time, RFC 3339")),
		mcp.WithString("end", mcp.Required(), mcp.Description("End time, RFC 3339")),
		mcp.WithString("description", mcp.Description("Optional description")),
		mcp.WithString("location", mcp.Description("Optional location")),
	), s.updateEvent)

	s.mcp.AddTool(mcp.NewTool("delete_event",
		mcp.WithDescription("Delete a calendar event by its ID."),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("Server-assigned event ID")),
	), s.deleteEvent)

	s.mcp.AddTool(mcp.NewTool("run_routines_sync",
		mcp.WithDescription("Expand the routines document over the look-ahead horizon and "+
			"create any missing calendar events. Idempotent: already-scheduled instances are skipped."),
	), s.runRoutinesSync)

	s.mcp.AddTool(mcp.NewTool("get_routines_contract",
		mcp.WithDescription("Returns the canonical routines document format. "+
			"Call this before editing the routines document."),
	), s.getRoutinesContract)

	// Resource: routines document format contract.
	s.mcp.AddResource(
		mcp.NewResource("dagaz://routines-format", "Routines Document Contract",
			mcp.WithResourceDescription("Canonical routines document format expanded by the sync engine."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRoutinesFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timeMin := time.Now()
	if raw, err := req.RequireString("time_min"); err == nil && raw != "" {
		t, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return mcp.NewToolResultError("time_min must be RFC 3339"), nil
		}
		timeMin = t
	}
	timeMax := timeMin.AddDate(0, 0, 7)
	if raw, err := req.RequireString("time_max"); err == nil && raw != "" {
		t, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return mcp.NewToolResultError("time_max must be RFC 3339"), nil
		}
		timeMax = t
	}

	events, err := s.svc.ListEvents(ctx, timeMin, timeMax)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(events, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("event_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ev, err := s.svc.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(ev, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ev, errMsg := eventFromRequest(req)
	if errMsg != "" {
		return mcp.NewToolResultError(errMsg), nil
	}
	created, err := s.svc.CreateEvent(ctx, ev)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", created.ID)), nil
}

func (s *Server) updateEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("event_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ev, errMsg := eventFromRequest(req)
	if errMsg != "" {
		return mcp.NewToolResultError(errMsg), nil
	}
	updated, err := s.svc.UpdateEvent(ctx, id, ev)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(updated, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) deleteEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("event_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) runRoutinesSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.RunSync(ctx, "mcp")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync failed after %d creations: %v", res.Created, err)), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRoutinesContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RoutinesFormatContract), nil
}

func (s *Server) readRoutinesFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "dagaz://routines-format",
			MIMEType: "text/markdown",
			Text:     RoutinesFormatContract,
		},
	}, nil
}

// eventFromRequest builds a calendar.Event from the common tool arguments.
// Returns a non-empty message on validation failure.
func eventFromRequest(req mcp.CallToolRequest) (calendar.Event, string) {
	title, err := req.RequireString("title")
	if err != nil {
		return calendar.Event{}, err.Error()
	}
	startRaw, err := req.RequireString("start")
	if err != nil {
		return calendar.Event{}, err.Error()
	}
	endRaw, err := req.RequireString("end")
	if err != nil {
		return calendar.Event{}, err.Error()
	}
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return calendar.Event{}, "start must be RFC 3339"
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return calendar.Event{}, "end must be RFC 3339"
	}

	ev := calendar.Event{Title: title, Start: start, End: end}
	if d, err := req.RequireString("description"); err == nil {
		ev.Description = d
	}
	if l, err := req.RequireString("location"); err == nil {
		ev.Location = l
	}
	return ev, ""
}
