package graphql

import (
	"context"
	"net/http"

	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// newClient creates a new GitHub GraphQL client with authentication. base
// carries transport settings; nil means http.DefaultClient.
func newClient(token string, base *http.Client) *githubv4.Client {
	return githubv4.NewClient(authenticatedClient(token, base))
}

func authenticatedClient(token string, base *http.Client) *http.Client {
	ctx := context.Background()
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	src := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	return oauth2.NewClient(ctx, src)
}
