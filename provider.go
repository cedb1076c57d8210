package claimcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenFactory allows callers to override how token sources are built.
type TokenFactory func(context.Context, SourceParams) (oauth2.TokenSource, error)

// ProviderConfig defines the token endpoint used by default.
type ProviderConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	TokenFactory TokenFactory
}

// Provider fetches access tokens from an OAuth2 token endpoint so their
// claims can be checked. It caches token sources per
// (token URL, client, scopes) combination.
type Provider struct {
	mu       sync.RWMutex
	factory  TokenFactory
	entries  map[providerKey]*tokenSourceEntry
	defaults SourceParams
}

type providerKey struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       string
}

type tokenSourceEntry struct {
	source oauth2.TokenSource
}

// SourceParams describes a client-credentials grant.
type SourceParams struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// TokenOption customizes the behaviour for a single Token call.
type TokenOption func(*SourceParams)

// WithClient overrides the client credentials used for the grant.
func WithClient(id, secret string) TokenOption {
	return func(p *SourceParams) {
		p.ClientID = id
		p.ClientSecret = secret
	}
}

// WithScopes replaces the requested scopes.
func WithScopes(scopes ...string) TokenOption {
	return func(p *SourceParams) {
		p.Scopes = append([]string(nil), scopes...)
	}
}

// NewProvider constructs a Provider using the supplied defaults.
func NewProvider(cfg ProviderConfig) *Provider {
	factory := cfg.TokenFactory
	if factory == nil {
		factory = defaultFactory
	}
	return &Provider{
		factory: factory,
		entries: make(map[providerKey]*tokenSourceEntry),
		defaults: SourceParams{
			TokenURL:     cfg.TokenURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       append([]string(nil), cfg.Scopes...),
		},
	}
}

// Token returns an access token for the configured client.
func (p *Provider) Token(ctx context.Context, opts ...TokenOption) (string, error) {
	params := cloneParams(p.defaults)
	for _, opt := range opts {
		opt(&params)
	}
	if strings.TrimSpace(params.TokenURL) == "" {
		return "", errors.New("token URL is required")
	}

	key := providerKey{
		TokenURL:     params.TokenURL,
		ClientID:     params.ClientID,
		ClientSecret: params.ClientSecret,
		Scopes:       strings.Join(params.Scopes, " "),
	}

	entry, err := p.getOrCreate(ctx, key, params)
	if err != nil {
		return "", err
	}

	tok, err := entry.source.Token()
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("empty access token returned")
	}
	return tok.AccessToken, nil
}

// CheckToken fetches a token and runs it through v.
func (p *Provider) CheckToken(ctx context.Context, v *Validator, opts ...TokenOption) (*CallerClaims, error) {
	token, err := p.Token(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return v.Check(token)
}

func (p *Provider) getOrCreate(ctx context.Context, key providerKey, params SourceParams) (*tokenSourceEntry, error) {
	p.mu.RLock()
	entry, ok := p.entries[key]
	p.mu.RUnlock()
	if ok {
		return entry, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok = p.entries[key]; ok {
		return entry, nil
	}

	ts, err := p.factory(persistentContext(ctx), params)
	if err != nil {
		return nil, err
	}
	entry = &tokenSourceEntry{source: oauth2.ReuseTokenSource(nil, ts)}
	p.entries[key] = entry
	return entry, nil
}

func defaultFactory(ctx context.Context, params SourceParams) (oauth2.TokenSource, error) {
	if params.ClientID == "" {
		return nil, errors.New("client id is required")
	}
	cfg := clientcredentials.Config{
		ClientID:     params.ClientID,
		ClientSecret: params.ClientSecret,
		TokenURL:     params.TokenURL,
		Scopes:       params.Scopes,
	}
	return cfg.TokenSource(ctx), nil
}

func cloneParams(in SourceParams) SourceParams {
	out := in
	if len(in.Scopes) > 0 {
		out.Scopes = append([]string(nil), in.Scopes...)
	}
	return out
}

// persistentContext keeps request-scoped values but drops cancellation, since
// the cached token source outlives the call that created it.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
