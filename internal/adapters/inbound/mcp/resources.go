package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lenra-io/lenra-cli/internal/adapters/outbound/config"
	"github.com/lenra-io/lenra-cli/internal/adapters/outbound/schema"
	"github.com/lenra-io/lenra-cli/internal/domain"
)

// Resource URIs.
const (
	ConfigURI       = "lenra://config"
	schemaURIPrefix = "lenra://schemas/"
)

// SchemaURI returns the resource URI of a result schema.
func SchemaURI(kind domain.SchemaKind) string { return schemaURIPrefix + string(kind) }

// registerResources registers all lenra MCP resources on the given server.
func registerResources(s *server.MCPServer, projectPath string) {
	for _, kind := range schema.Kinds() {
		s.AddResource(
			mcplib.NewResource(
				SchemaURI(kind),
				fmt.Sprintf("%s result schema", kind),
				mcplib.WithResourceDescription(fmt.Sprintf("JSON schema every %s route response must satisfy", kind)),
				mcplib.WithMIMEType("application/schema+json"),
			),
			handleSchemaResource(kind),
		)
	}

	s.AddResource(
		mcplib.NewResource(
			ConfigURI,
			"Check configuration",
			mcplib.WithResourceDescription("Effective "+config.FileName+" of the project, defaults applied"),
			mcplib.WithMIMEType("application/json"),
		),
		handleConfigResource(projectPath),
	)
}

func handleSchemaResource(kind domain.SchemaKind) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		data, err := schema.Document(kind)
		if err != nil {
			return nil, err
		}
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      SchemaURI(kind),
				MIMEType: "application/schema+json",
				Text:     string(data),
			},
		}, nil
	}
}

func handleConfigResource(projectPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		cfg, err := config.New().Load(projectPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling config: %w", err)
		}

		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      ConfigURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}
