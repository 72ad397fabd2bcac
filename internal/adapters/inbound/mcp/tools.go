package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/lenra-io/lenra-cli/internal/application"
	"github.com/lenra-io/lenra-cli/internal/domain"
	"github.com/lenra-io/lenra-cli/internal/domain/check"
	"github.com/lenra-io/lenra-cli/internal/domain/match"
)

// registerTools registers all lenra MCP tools on the given server.
func registerTools(s *server.MCPServer, projectPath string) {
	s.AddTool(
		mcplib.NewTool("lenra_check",
			mcplib.WithDescription("Run a check suite against the running app and return the report as JSON"),
			mcplib.WithString("suite", mcplib.Description("Suite to run: routes (default) or template")),
			mcplib.WithString("url", mcplib.Description("App URL, overriding the configured app_url")),
			mcplib.WithString("ignore", mcplib.Description("Comma-separated checkers or rules to skip (checker, checker:rule, prefix*)")),
			mcplib.WithBoolean("strict", mcplib.Description("Treat warnings as failures")),
		),
		handleCheck(projectPath),
	)

	s.AddTool(
		mcplib.NewTool("lenra_match",
			mcplib.WithDescription("Deep-compare two JSON or YAML documents and list every located mismatch"),
			mcplib.WithString("actual",
				mcplib.Required(),
				mcplib.Description("Actual document, JSON or YAML text"),
			),
			mcplib.WithString("expected",
				mcplib.Required(),
				mcplib.Description("Expected document, JSON or YAML text"),
			),
		),
		handleMatch(),
	)

	s.AddTool(
		mcplib.NewTool("lenra_manifest",
			mcplib.WithDescription("Fetch the app manifest and return it with the routes it declares, each rendered once and validated against its result schema"),
			mcplib.WithString("url", mcplib.Description("App URL, overriding the configured app_url")),
		),
		handleManifest(projectPath),
	)

	s.AddTool(
		mcplib.NewTool("lenra_list_rules",
			mcplib.WithDescription("List the checkers and rules of a suite with their qualified ignore names, without calling the app"),
			mcplib.WithString("suite", mcplib.Description("Suite to list: routes (default) or template")),
		),
		handleListRules(projectPath),
	)
}

func handleCheck(projectPath string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		args := request.GetArguments()
		suiteName, _ := args["suite"].(string)
		url, _ := args["url"].(string)
		ignoreStr, _ := args["ignore"].(string)
		strict, _ := args["strict"].(bool)

		suite, err := application.ParseSuite(suiteName)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		svc, cfg, err := newServices(projectPath, url)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		report, err := svc.Run(ctx, suite, cfg, application.RunOptions{
			ProjectPath: projectPath,
			URL:         cfg.AppURL,
			Ignore:      check.NewIgnoreList(append(cfg.Ignore, strings.Split(ignoreStr, ",")...)...),
			Strict:      strict || cfg.Strict,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("check failed: %v", err)), nil
		}
		return jsonResult(report)
	}
}

type matchResult struct {
	Equal      bool             `json:"equal"`
	Mismatches []match.Mismatch `json:"mismatches"`
}

func handleMatch() server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		actualText, err := request.RequireString("actual")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		expectedText, err := request.RequireString("expected")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		actual, err := parseDocument(actualText)
		if err != nil {
			return errorResult(fmt.Sprintf("parsing actual: %v", err)), nil
		}
		expected, err := parseDocument(expectedText)
		if err != nil {
			return errorResult(fmt.Sprintf("parsing expected: %v", err)), nil
		}

		mismatches := match.Compare(actual, expected)
		if mismatches == nil {
			mismatches = []match.Mismatch{}
		}
		return jsonResult(matchResult{Equal: len(mismatches) == 0, Mismatches: mismatches})
	}
}

// parseDocument decodes JSON with exact numbers, falling back to YAML.
func parseDocument(text string) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	if err := dec.Decode(&v); err == nil {
		return v, nil
	}
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return match.StringKeys(v), nil
}

type routeInfo struct {
	Path   string         `json:"path"`
	View   string         `json:"view"`
	Schema string         `json:"schema"`
	Props  map[string]any `json:"props,omitempty"`
	Level  domain.Level   `json:"level"`
}

type manifestResult struct {
	Document any         `json:"document"`
	Routes   []routeInfo `json:"routes"`
}

func handleManifest(projectPath string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		url, _ := request.GetArguments()["url"].(string)
		svc, _, err := newServices(projectPath, url)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		doc, def, err := svc.Manifest(ctx)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		result := manifestResult{Document: doc, Routes: []routeInfo{}}
		for _, r := range def.Routes() {
			result.Routes = append(result.Routes, routeInfo{
				Path:   r.Path(),
				View:   r.View(),
				Schema: string(r.Schema()),
				Props:  r.Props(),
				Level:  svc.CheckRoute(ctx, r),
			})
		}
		return jsonResult(result)
	}
}

type ruleInfo struct {
	Name        string `json:"name"`
	Qualified   string `json:"qualified"`
	Description string `json:"description,omitempty"`
	Ignored     bool   `json:"ignored,omitempty"`
}

type checkerInfo struct {
	Name    string     `json:"name"`
	Ignored bool       `json:"ignored,omitempty"`
	Rules   []ruleInfo `json:"rules"`
}

func handleListRules(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		suiteName, _ := request.GetArguments()["suite"].(string)
		suite, err := application.ParseSuite(suiteName)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		svc, cfg, err := newServices(projectPath, "")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		checkers, err := svc.ListCheckers(suite, cfg)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		ignore := check.NewIgnoreList(cfg.Ignore...)

		out := make([]checkerInfo, 0, len(checkers))
		for _, c := range checkers {
			info := checkerInfo{Name: c.Name, Ignored: ignore.Ignores(c.Name), Rules: []ruleInfo{}}
			for _, r := range c.Rules {
				info.Rules = append(info.Rules, ruleInfo{
					Name:        r.Name,
					Qualified:   c.Name + check.Separator + r.Name,
					Description: r.Description,
					Ignored:     ignore.Ignores(c.Name, r.Name),
				})
			}
			out = append(out, info)
		}
		return jsonResult(out)
	}
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
