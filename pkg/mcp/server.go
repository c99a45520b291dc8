package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/duynguyendang/tripsim/pkg/catalogue"
	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/frame"
	"github.com/duynguyendang/tripsim/pkg/logger"
	"github.com/duynguyendang/tripsim/pkg/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	catalogueURI   = "tripsim://catalogue"
	conventionsURI = "tripsim://conventions"
)

// MCPServer exposes the match service as MCP tools.
type MCPServer struct {
	svc *service.MatchService
}

// NewServer registers the tripsim tools and resources.
func NewServer(svc *service.MatchService) *server.MCPServer {
	s := server.NewMCPServer(
		"tripsim",
		"0.1.0",
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)
	ms := &MCPServer{svc: svc}

	// --- Resources ---

	s.AddResource(
		mcp.NewResource(
			catalogueURI,
			"Default Catalogue",
			mcp.WithResourceDescription("The default template catalogue in its line format"),
			mcp.WithMIMEType("text/plain"),
		),
		ms.handleCatalogue,
	)

	s.AddResource(
		mcp.NewResource(
			conventionsURI,
			"Logical Form Conventions",
			mcp.WithResourceDescription("How templates and parses are written"),
			mcp.WithMIMEType("text/markdown"),
		),
		ms.handleConventions,
	)

	// --- Tools ---

	s.AddTool(
		mcp.NewTool(
			"match_frames",
			mcp.WithDescription("Match a template rule set against a TRIPS parse and return the score, mapping and variable bindings."),
			mcp.WithString("rules", mcp.Required(), mcp.Description("Template rules in logical-form text, e.g. ((F ?x ONT::HAVE-PROPERTY :FORMAL ?f))")),
			mcp.WithString("parse", mcp.Description("Parse in logical-form text")),
			mcp.WithString("parse_json", mcp.Description("Parse as TRIPS web parser JSON, instead of parse")),
		),
		ms.handleMatch,
	)

	s.AddTool(
		mcp.NewTool(
			"grade_parse",
			mcp.WithDescription("Grade a parse against every template of a catalogue and report the best match."),
			mcp.WithString("parse", mcp.Description("Parse in logical-form text")),
			mcp.WithString("parse_json", mcp.Description("Parse as TRIPS web parser JSON, instead of parse")),
			mcp.WithString("catalogue", mcp.Description("Stored catalogue name; the default catalogue when empty")),
		),
		ms.handleGrade,
	)

	s.AddTool(
		mcp.NewTool(
			"lookup_type",
			mcp.WithDescription("Show an ontology type's ancestors and argument restrictions."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Type name, with or without the ONT:: prefix")),
		),
		ms.handleLookupType,
	)

	return s
}

// Run starts the MCP server on Stdio.
func Run(ctx context.Context, svc *service.MatchService) error {
	logger.Named("mcp").Info("starting MCP server on stdio")
	return server.ServeStdio(NewServer(svc))
}

// --- Resource Handlers ---

func (ms *MCPServer) handleCatalogue(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var b strings.Builder
	if err := catalogue.WriteText(&b, ms.svc.Defaults()); err != nil {
		return nil, fmt.Errorf("failed to render catalogue: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     b.String(),
		},
	}, nil
}

func (ms *MCPServer) handleConventions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	content := `
# Logical Form Conventions

## 1. Frames
- A frame is a list: (INDICATOR ID TYPE ... :ROLE VALUE ...).
- The indicator (SPEECHACT, F, PRO, PRO-SET, THE, A, ...) comes first, the node id second.
- (:* TYPE WORD) gives the ontology type and the lexical word.
- ONT:: and W:: prefixes are dropped on read.

## 2. Templates
- Template frames use variables (?x) where the parse has node ids or values.
- The second position of a template frame is the rule's identity variable.
- Types match when equal or when one is an ancestor of the other.

## 3. Scores
- A score is the fraction of template positions and roles satisfied by the mapped parse nodes.
- 1.0 means every template frame was fully matched.
`
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/markdown",
			Text:     content,
		},
	}, nil
}

// --- Tool Handlers ---

func (ms *MCPServer) handleMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	rules, ok := args["rules"].(string)
	if !ok {
		return mcp.NewToolResultError("rules argument required"), nil
	}
	parse, err := ms.parseArg(args)
	if err != nil {
		return toolError("parse", err), nil
	}

	out, err := ms.svc.Match(ctx, rules, parse)
	if err != nil {
		return toolError("match failed", err), nil
	}
	return jsonResult(out.Result)
}

func (ms *MCPServer) handleGrade(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	parse, err := ms.parseArg(args)
	if err != nil {
		return toolError("parse", err), nil
	}
	name, _ := args["catalogue"].(string)

	report, err := ms.svc.Grade(ctx, name, nil, parse)
	if err != nil {
		return toolError("grading failed", err), nil
	}
	return jsonResult(report)
}

func (ms *MCPServer) handleLookupType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, ok := request.GetArguments()["name"].(string)
	if !ok {
		return mcp.NewToolResultError("name argument required"), nil
	}
	info, err := ms.svc.LookupType(strings.TrimPrefix(strings.ToUpper(name), "ONT::"))
	if err != nil {
		return toolError("lookup failed", err), nil
	}
	return jsonResult(info)
}

func (ms *MCPServer) parseArg(args map[string]any) (frame.Parse, error) {
	text, _ := args["parse"].(string)
	doc, _ := args["parse_json"].(string)
	var raw json.RawMessage
	if doc != "" {
		raw = json.RawMessage(doc)
	}
	return ms.svc.ParseInput(text, raw)
}

// toolError reports err to the client along with any hints it carries.
func toolError(what string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("%s: %v", what, err)
	if hints := errors.FlattenHints(err); hints != "" {
		msg += "\nhint: " + hints
	}
	return mcp.NewToolResultError(msg)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
