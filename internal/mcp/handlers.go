package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/vijay-prabhu/emlsave/internal/eml"
	"github.com/vijay-prabhu/emlsave/internal/locator"
	"github.com/vijay-prabhu/emlsave/internal/session"
)

func (s *Server) registerHandlers() {
	s.handlers["save_message"] = s.handleSaveMessage
	s.handlers["list_candidates"] = s.handleListCandidates
	s.handlers["inspect_message"] = s.handleInspectMessage
	s.handlers["auth_status"] = s.handleAuthStatus
}

func (s *Server) handleSaveMessage(ctx context.Context, params json.RawMessage) (any, error) {
	var p SaveRequest
	if params != nil {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
	}

	if p.Latest && p.ID != "" {
		return nil, errors.New("give either id or latest, not both")
	}
	if !p.Latest && p.ID == "" {
		return nil, locator.ErrInvalidIdentifier
	}

	out, err := s.mailbox.Save(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%w\n%s", err, session.Describe(err))
	}

	s.mu.Lock()
	s.lastSave = out
	s.mu.Unlock()

	return out, nil
}

type candidatesParams struct {
	ID string `json:"id"`
}

func (s *Server) handleListCandidates(ctx context.Context, params json.RawMessage) (any, error) {
	var p candidatesParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	seq, err := locator.Candidates(p.ID)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

type inspectParams struct {
	Path string `json:"path"`
}

func (s *Server) handleInspectMessage(ctx context.Context, params json.RawMessage) (any, error) {
	var p inspectParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if p.Path == "" {
		return nil, errors.New("path is required")
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, err
	}
	return eml.Inspect(data)
}

func (s *Server) handleAuthStatus(ctx context.Context, params json.RawMessage) (any, error) {
	return s.mailbox.Status(ctx)
}
