package mirror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "demo"},
		{name: "dots dashes underscores", input: "my-repo_v2.0"},
		{name: "empty", input: "", wantErr: true},
		{name: "parent directory", input: "..", wantErr: true},
		{name: "current directory", input: ".", wantErr: true},
		{name: "hidden", input: ".git", wantErr: true},
		{name: "embedded dot dot", input: "a..b", wantErr: true},
		{name: "slash", input: "org/repo", wantErr: true},
		{name: "backslash", input: `org\repo`, wantErr: true},
		{name: "absolute", input: "/etc", wantErr: true},
		{name: "space", input: "my repo", wantErr: true},
		{name: "leading dash", input: "-rf", wantErr: true},
		{name: "too long", input: string(make([]byte, 200)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidName), "expected ErrInvalidName, got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateBranch(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "main"},
		{input: "release/1.2"},
		{input: "feature-x"},
		{input: "", wantErr: true},
		{input: "--upload-pack=evil", wantErr: true},
		{input: "a..b", wantErr: true},
		{input: "HEAD@{1}", wantErr: true},
		{input: "topic/", wantErr: true},
		{input: "branch.lock", wantErr: true},
		{input: "has space", wantErr: true},
		{input: "tilde~1", wantErr: true},
		{input: "glob*", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateBranch(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBranch)
				return
			}
			assert.NoError(t, err)
		})
	}
}
