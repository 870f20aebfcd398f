package github

import (
	"testing"

	"repo-clipboard/internal/config"
	"repo-clipboard/internal/git/github/graphql"
	"repo-clipboard/internal/git/github/rest"
)

func TestNewResolver(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.Config
		wantGraphQL bool
	}{
		{name: "REST by default", cfg: &config.Config{GitHubToken: "test-token"}},
		{name: "GraphQL when enabled", cfg: &config.Config{GitHubToken: "test-token", GitHubUseGraphQL: true}, wantGraphQL: true},
		{name: "REST without token", cfg: &config.Config{GitHubUseGraphQL: true}},
		{name: "REST unauthenticated", cfg: &config.Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewResolver(tt.cfg, nil)

			_, isGraphQL := resolver.(*graphql.Resolver)
			_, isREST := resolver.(*rest.Resolver)
			if tt.wantGraphQL && !isGraphQL {
				t.Errorf("expected GraphQL resolver, got %T", resolver)
			}
			if !tt.wantGraphQL && !isREST {
				t.Errorf("expected REST resolver, got %T", resolver)
			}
		})
	}
}
