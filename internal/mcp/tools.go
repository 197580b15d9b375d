package mcp

// Tool represents an MCP tool definition
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolDefinitions contains all available MCP tools
var ToolDefinitions = []Tool{
	{
		Name:        "save_message",
		Description: "Save a mailbox message as an .eml file. Give the message id from the mail client, or set latest to save the newest Inbox message. Returns where the file was written and which retrieval strategy worked.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{
					"type":        "string",
					"description": "Message identifier as shown by the mail client",
				},
				"subject": map[string]any{
					"type":        "string",
					"description": "Message subject, used for the filename and the subject-search fallback",
				},
				"latest": map[string]any{
					"type":        "boolean",
					"description": "Save the newest Inbox message instead of id",
				},
			},
		},
	},
	{
		Name:        "list_candidates",
		Description: "List the encodings of a message identifier in the order they are tried against the mail API.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{
					"type":        "string",
					"description": "Message identifier",
				},
			},
			"required": []string{"id"},
		},
	},
	{
		Name:        "inspect_message",
		Description: "Read the headers (subject, addresses, date, content type) of a saved .eml file.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Path of the message file",
				},
			},
			"required": []string{"path"},
		},
	},
	{
		Name:        "auth_status",
		Description: "Show the cached mailbox accounts and token expiry without prompting for sign-in.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
}
