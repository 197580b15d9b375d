package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/vijay-prabhu/emlsave/internal/locator"
)

// Resource defines an MCP resource
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceDefinitions lists all available resources
var ResourceDefinitions = []Resource{
	{
		URI:         "emlsave://last-save",
		Name:        "Last Save",
		Description: "Result of the most recent save_message call in this session",
		MimeType:    "text/plain",
	},
	{
		URI:         "emlsave://encodings",
		Name:        "Identifier Encodings",
		Description: "Encodings applied to message identifiers, in trial order",
		MimeType:    "text/plain",
	},
}

// resourcesListResult is the response for resources/list
type resourcesListResult struct {
	Resources []Resource `json:"resources"`
}

// readResourceParams is the params for resources/read
type readResourceParams struct {
	URI string `json:"uri"`
}

// readResourceResult is the response for resources/read
type readResourceResult struct {
	Contents []resourceContent `json:"contents"`
}

type resourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

func (s *Server) readResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "emlsave://last-save":
		s.mu.Lock()
		last := s.lastSave
		s.mu.Unlock()

		if last == nil {
			return "No message saved yet.", nil
		}
		return fmt.Sprintf("Saved %q to %s\nStrategy: %s\nReconstructed: %t\nSize: %d bytes\n",
			last.Subject, last.Location, last.Strategy, last.Reconstructed, last.Size), nil

	case "emlsave://encodings":
		var b strings.Builder
		for i, enc := range locator.Order {
			fmt.Fprintf(&b, "%d. %s\n", i+1, enc)
		}
		return b.String(), nil

	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}
