package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shurcooL/githubv4"

	"repo-clipboard/internal/git/types"
)

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// fakeGitHub answers the two queries the resolver sends
func fakeGitHub(t *testing.T) (*Resolver, *[]graphqlRequest) {
	t.Helper()
	var seen []graphqlRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q, expected bearer token", got)
		}

		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("invalid request body: %v", err)
			return
		}
		seen = append(seen, req)

		w.Header().Set("Content-Type", "application/json")
		repo := req.Variables["repo"]
		switch {
		case strings.Contains(req.Query, "defaultBranchRef") && repo == "widgets":
			fmt.Fprint(w, `{"data":{"repository":{"defaultBranchRef":{"name":"trunk"}}}}`)
		case strings.Contains(req.Query, "defaultBranchRef"):
			fmt.Fprint(w, `{"data":{"repository":{"defaultBranchRef":null}}}`)
		case req.Variables["qualifiedName"] == "refs/heads/main":
			fmt.Fprint(w, `{"data":{"repository":{"ref":{"target":{"oid":"feedbeef"}}}}}`)
		default:
			fmt.Fprint(w, `{"data":{"repository":{"ref":null}}}`)
		}
	}))
	t.Cleanup(srv.Close)

	client := githubv4.NewEnterpriseClient(srv.URL, authenticatedClient("secret", srv.Client()))
	return &Resolver{client: client}, &seen
}

func TestResolver_DefaultBranch(t *testing.T) {
	r, seen := fakeGitHub(t)

	branch, err := r.DefaultBranch(context.Background(), "https://github.com/acme/widgets.git")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if branch != "trunk" {
		t.Errorf("DefaultBranch() = %s, expected trunk", branch)
	}
	if (*seen)[0].Variables["owner"] != "acme" {
		t.Errorf("owner variable = %v, expected acme", (*seen)[0].Variables["owner"])
	}

	branch, err = r.DefaultBranch(context.Background(), "git@github.com:acme/empty.git")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if branch != types.FallbackBranch {
		t.Errorf("DefaultBranch() = %s, expected %s for empty repository", branch, types.FallbackBranch)
	}
}

func TestResolver_BranchTip(t *testing.T) {
	r, _ := fakeGitHub(t)

	sha, err := r.BranchTip(context.Background(), "https://github.com/acme/widgets", "main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sha != "feedbeef" {
		t.Errorf("BranchTip() = %s, expected feedbeef", sha)
	}

	_, err = r.BranchTip(context.Background(), "https://github.com/acme/widgets", "gone")
	if !errors.Is(err, types.ErrBranchNotFound) {
		t.Errorf("expected ErrBranchNotFound, got %v", err)
	}
}

func TestResolver_RejectsOtherHosts(t *testing.T) {
	r := NewResolver("secret", nil)

	if r.Supports("https://gitlab.com/acme/widgets") {
		t.Error("expected non-GitHub URL to be unsupported")
	}
	if _, err := r.DefaultBranch(context.Background(), "https://gitlab.com/acme/widgets"); !errors.Is(err, types.ErrUnsupportedRemote) {
		t.Errorf("expected ErrUnsupportedRemote, got %v", err)
	}
}
