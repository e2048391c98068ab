// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the pomodoro timer, tasks and note via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/pomodoro/internal/index"
	"github.com/starford/pomodoro/internal/models"
	"github.com/starford/pomodoro/internal/notes"
	"github.com/starford/pomodoro/internal/stats"
	"github.com/starford/pomodoro/internal/tasks"
	"github.com/starford/pomodoro/internal/timer"
)

const statsURI = "pomodoro://stats"

// ExportSearcher searches exported notes.
type ExportSearcher interface {
	Search(query string, limit int) ([]index.SearchResult, error)
}

// Server wraps the MCP server with pomodoro tools.
type Server struct {
	mcp    *server.MCPServer
	engine *timer.Engine
	tasks  *tasks.Registry
	notes  *notes.Store
	search ExportSearcher
}

// New creates a new MCP server with all tools registered. search may be nil,
// in which case search_exports is not offered.
func New(engine *timer.Engine, registry *tasks.Registry, note *notes.Store, search ExportSearcher) *Server {
	s := &Server{engine: engine, tasks: registry, notes: note, search: search}

	s.mcp = server.NewMCPServer(
		"Pomodoro",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("timer_status",
		mcp.WithDescription("Current timer mode, remaining time, cycle and the focused task."),
	), s.timerStatus)

	s.mcp.AddTool(mcp.NewTool("timer_toggle",
		mcp.WithDescription("Start the timer if paused, pause it if running."),
	), s.timerToggle)

	s.mcp.AddTool(mcp.NewTool("timer_reset",
		mcp.WithDescription("Stop the timer and restore the full duration of the current mode."),
	), s.timerReset)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks, newest first. The focused task is marked with '*'."),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Add a task to the top of the list."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Task text")),
	), s.addTask)

	s.mcp.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Toggle a task's completed flag."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task id as returned by list_tasks")),
	), s.completeTask)

	s.mcp.AddTool(mcp.NewTool("focus_task",
		mcp.WithDescription("Set the task shown beside the timer. Omit id to clear the focus."),
		mcp.WithString("id", mcp.Description("Task id, empty to clear")),
	), s.focusTask)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the session note."),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("write_note",
		mcp.WithDescription("Replace the session note text. Autosave persists it after a short delay; "+
			"set save=true to persist immediately."),
		mcp.WithString("text", mcp.Required(), mcp.Description("New note text (Markdown)")),
		mcp.WithBoolean("save", mcp.Description("Persist immediately")),
	), s.writeNote)

	s.mcp.AddTool(mcp.NewTool("export_note",
		mcp.WithDescription("Write the note as a Markdown file into the export directory."),
	), s.exportNote)

	if search != nil {
		s.mcp.AddTool(mcp.NewTool("search_exports",
			mcp.WithDescription("Full-text search through exported notes (titles, tags and body)."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		), s.searchExports)
	}

	s.mcp.AddResource(
		mcp.NewResource(statsURI, "Session Stats",
			mcp.WithResourceDescription("Completed cycles and task completion."),
			mcp.WithMIMEType("application/json"),
		),
		s.readStatsResource,
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

type statusView struct {
	State       models.TimerState    `json:"state"`
	Settings    models.TimerSettings `json:"settings"`
	Remaining   string               `json:"remaining"`
	FocusedTask string               `json:"focusedTask,omitempty"`
}

func (s *Server) status(st models.TimerState) *mcp.CallToolResult {
	out := statusView{
		State:     st,
		Settings:  s.engine.Settings(),
		Remaining: fmt.Sprintf("%02d:%02d", st.SecondsRemaining/60, st.SecondsRemaining%60),
	}
	if task, err := s.tasks.Focused(); err == nil {
		out.FocusedTask = task.Text
	}
	return jsonResult(out)
}

func (s *Server) timerStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.status(s.engine.State()), nil
}

func (s *Server) timerToggle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.status(s.engine.Toggle()), nil
}

func (s *Server) timerReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.status(s.engine.Reset()), nil
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := s.tasks.List()
	if len(list) == 0 {
		return mcp.NewToolResultText("no tasks"), nil
	}
	focused := s.tasks.FocusedID()
	lines := make([]string, 0, len(list))
	for _, t := range list {
		mark := " "
		if t.ID == focused {
			mark = "*"
		}
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s (%s)", mark, check, t.Text, t.ID))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) addTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, ok := s.tasks.Add(ctx, text)
	if !ok {
		return mcp.NewToolResultError("text must not be blank"), nil
	}
	return jsonResult(task), nil
}

func (s *Server) completeTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, ok := s.tasks.Toggle(ctx, id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("task not found: %s", id)), nil
	}
	return jsonResult(task), nil
}

func (s *Server) focusTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id != "" {
		if _, err := s.tasks.Get(id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("task not found: %s", id)), nil
		}
	}
	s.tasks.SetFocus(ctx, id)
	if id == "" {
		return mcp.NewToolResultText("focus cleared"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("focused: %s", id)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.notes.Text()), nil
}

func (s *Server) writeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.notes.SetText(text)
	if req.GetBool("save", false) {
		s.notes.Save(ctx)
		return mcp.NewToolResultText("saved"), nil
	}
	return mcp.NewToolResultText("updated"), nil
}

func (s *Server) exportNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := s.notes.Export(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("exported: %s", name)), nil
}

func (s *Server) searchExports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.search.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readStatsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := json.Marshal(stats.Compute(s.engine.State(), s.tasks.List()))
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      statsURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}
