package aggregate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"repo-clipboard/internal/tokens"
)

// BinaryPolicy decides what happens when a matched file is not text
type BinaryPolicy string

const (
	// BinaryAbort fails the whole aggregation with a ReadError
	BinaryAbort BinaryPolicy = "abort"
	// BinarySkip leaves the file out and lists it in Result.Skipped
	BinarySkip BinaryPolicy = "skip"
)

// Options tunes document assembly
type Options struct {
	BinaryPolicy BinaryPolicy
	Preamble     string
	TokenBudget  int // 0 disables the budget check
}

// Result is the outcome of one aggregation. Success is false with an empty
// Document when no files matched.
type Result struct {
	Success       bool
	Message       string
	Document      string
	Tokens        int
	Files         []string
	Skipped       []string
	ExceedsBudget bool
}

// Engine resolves patterns inside a mirror and concatenates the matched files
type Engine struct {
	counter tokens.Counter
	opts    Options
}

// NewEngine creates an engine that sizes documents with counter
func NewEngine(counter tokens.Counter, opts Options) *Engine {
	if opts.BinaryPolicy == "" {
		opts.BinaryPolicy = BinaryAbort
	}
	return &Engine{
		counter: counter,
		opts:    opts,
	}
}

// Aggregate builds one delimited document from the files patterns select in
// mirrorPath. A missing mirror is ErrRepositoryNotFound; an empty match set is
// a non-fatal Result with Success false. Under BinaryAbort a file that is not
// text aborts the call with a *ReadError.
func (e *Engine) Aggregate(ctx context.Context, mirrorPath string, patterns []string) (*Result, error) {
	info, err := os.Stat(mirrorPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, mirrorPath)
		}
		return nil, fmt.Errorf("failed to inspect mirror %s: %w", mirrorPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRepositoryNotFound, mirrorPath)
	}

	files, err := Resolve(mirrorPath, patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		slog.Info("No files matched", "mirror", mirrorPath, "patterns", patterns)
		return &Result{Success: false, Message: NoMatchesMessage}, nil
	}

	var doc strings.Builder
	if e.opts.Preamble != "" {
		doc.WriteString(strings.TrimRight(e.opts.Preamble, "\n"))
		doc.WriteString("\n\n")
	}

	result := &Result{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := readText(file.Path)
		if err != nil {
			if errors.Is(err, ErrBinaryContent) && e.opts.BinaryPolicy == BinarySkip {
				slog.Warn("Skipping non-text file", "file", file.RelPath)
				result.Skipped = append(result.Skipped, file.RelPath)
				continue
			}
			return nil, &ReadError{Path: file.RelPath, Err: err}
		}

		writeSection(&doc, file.RelPath, content)
		result.Files = append(result.Files, file.RelPath)
	}

	if len(result.Files) == 0 {
		return &Result{Success: false, Message: NoMatchesMessage, Skipped: result.Skipped}, nil
	}

	result.Success = true
	result.Document = doc.String()
	result.Tokens = e.counter.Count(result.Document)
	result.Message = fmt.Sprintf("Generated content with %d tokens", result.Tokens)

	if e.opts.TokenBudget > 0 && result.Tokens > e.opts.TokenBudget {
		result.ExceedsBudget = true
		result.Message += fmt.Sprintf(" (exceeds budget of %d)", e.opts.TokenBudget)
		slog.Warn("Aggregated document exceeds token budget", "tokens", result.Tokens, "budget", e.opts.TokenBudget)
	}

	slog.Debug("Aggregated files", "mirror", mirrorPath, "files", len(result.Files), "tokens", result.Tokens)
	return result, nil
}

// SectionHeader is the delimiter line written before each file
func SectionHeader(relPath string) string {
	return "# File: " + relPath + "\n"
}

func writeSection(doc *strings.Builder, relPath, content string) {
	doc.WriteString(SectionHeader(relPath))
	doc.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		doc.WriteByte('\n')
	}
	doc.WriteByte('\n')
}

// readText returns the file content, rejecting NUL bytes and invalid UTF-8
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return "", ErrBinaryContent
	}
	return string(data), nil
}
