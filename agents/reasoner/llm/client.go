// ABOUTME: Client routes a Request to a named Provider and applies a RetryPolicy around the call.
// ABOUTME: Functional-option construction mirrors the rest of the domain's Option pattern (agentruntime, teamservice).
package llm

import (
	"context"
	"fmt"
)

// Client multiplexes Requests across registered Providers.
type Client struct {
	providers       map[string]Provider
	defaultProvider string
	retry           RetryPolicy
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithProvider registers a Provider under name. The first provider
// registered becomes the default absent WithDefaultProvider.
func WithProvider(name string, p Provider) Option {
	return func(c *Client) {
		c.providers[name] = p
		if c.defaultProvider == "" {
			c.defaultProvider = name
		}
	}
}

// WithDefaultProvider overrides which provider handles a Request that
// leaves Provider unset.
func WithDefaultProvider(name string) Option {
	return func(c *Client) { c.defaultProvider = name }
}

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// NewClient builds a Client from the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{providers: make(map[string]Provider), retry: DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete resolves req.Provider (or the client's default) and issues the
// call through Retry.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	name := req.Provider
	if name == "" {
		name = c.defaultProvider
	}
	p, ok := c.providers[name]
	if !ok {
		return nil, &RequestError{Kind: ErrInvalidRequest, Provider: name, Cause: fmt.Errorf("no provider registered for %q", name)}
	}

	var resp *Response
	err := Retry(ctx, c.retry, func() error {
		var callErr error
		resp, callErr = p.Complete(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
