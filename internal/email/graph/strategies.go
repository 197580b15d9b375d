package graph

import (
	"context"
	"net/url"
	"slices"

	"github.com/vijay-prabhu/emlsave/internal/credential"
	"github.com/vijay-prabhu/emlsave/internal/fetch"
)

// Strategy names, in trial order
const (
	StrategyMIME          = "mime"
	StrategyResolveMIME   = "resolve-mime"
	StrategyStructured    = "structured"
	StrategySubjectSearch = "subject-search"
)

// Scopes are the delegated permissions the strategies need
func (c *Client) Scopes() []string {
	if len(c.Permissions) > 0 {
		return c.Permissions
	}
	return slices.Clone(credential.DefaultGraphScopes)
}

// Strategies returns the retrieval strategies in priority order
func (c *Client) Strategies() []fetch.Strategy {
	strategies := []fetch.Strategy{
		{Name: StrategyMIME, Run: c.runMIME},
		{Name: StrategyResolveMIME, Run: c.runResolveMIME},
		{Name: StrategyStructured, Run: c.runStructured},
	}
	if c.SubjectSearch {
		strategies = append(strategies, fetch.Strategy{Name: StrategySubjectSearch, Once: true, Run: c.runSubjectSearch})
	}
	return strategies
}

func (c *Client) runMIME(ctx context.Context, req fetch.Request) (fetch.Result, error) {
	payload, err := c.FetchMIME(ctx, req.Token, req.Candidate.Value)
	if err != nil {
		return fetch.Result{}, err
	}
	return fetch.Result{Payload: payload}, nil
}

func (c *Client) runResolveMIME(ctx context.Context, req fetch.Request) (fetch.Result, error) {
	id, err := c.Resolve(ctx, req.Token, req.Candidate.Value)
	if err != nil {
		return fetch.Result{}, err
	}
	c.logger.Debug("identifier resolved", "canonical", id)

	payload, err := c.FetchMIME(ctx, req.Token, url.PathEscape(id))
	if err != nil {
		return fetch.Result{}, err
	}
	return fetch.Result{Payload: payload}, nil
}

func (c *Client) runStructured(ctx context.Context, req fetch.Request) (fetch.Result, error) {
	rec, err := c.FetchStructured(ctx, req.Token, req.Candidate.Value)
	if err != nil {
		return fetch.Result{}, err
	}
	return fetch.Result{Record: rec}, nil
}

func (c *Client) runSubjectSearch(ctx context.Context, req fetch.Request) (fetch.Result, error) {
	if req.Item.Subject == "" {
		return fetch.Result{}, fetch.ErrSkipped
	}

	id, err := c.SearchBySubject(ctx, req.Token, req.Item.Subject)
	if err != nil {
		return fetch.Result{}, err
	}

	payload, err := c.FetchMIME(ctx, req.Token, url.PathEscape(id))
	if err != nil {
		return fetch.Result{}, err
	}
	return fetch.Result{Payload: payload}, nil
}
