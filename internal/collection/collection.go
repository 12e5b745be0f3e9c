// Package collection loads the document list and the cleaned token stream of
// every listed document. Documents are identified by their 1-based position
// in the list; a listed document whose token file is absent is reported in a
// skip list instead of aborting the load.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/artifact"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/errors"
)

// Document is one listed document. Tokens is nil when the document was skipped.
type Document struct {
	ID     int
	Name   string
	Tokens []string
}

// Skip records a listed document that could not be read.
type Skip struct {
	DocID int
	Name  string
	Path  string
	Err   error
}

// Collection is the loaded corpus. Docs has one entry per listed document, in
// list order, including skipped ones.
type Collection struct {
	Docs    []Document
	Skipped []Skip
	skipped map[int]struct{}
}

// Len is the number of listed documents (N).
func (c *Collection) Len() int {
	return len(c.Docs)
}

// IsSkipped reports whether the document with the given ID was not loaded.
func (c *Collection) IsSkipped(docID int) bool {
	_, ok := c.skipped[docID]
	return ok
}

// Loaded returns the documents whose token files were read.
func (c *Collection) Loaded() []Document {
	out := make([]Document, 0, len(c.Docs)-len(c.Skipped))
	for _, d := range c.Docs {
		if !c.IsSkipped(d.ID) {
			out = append(out, d)
		}
	}
	return out
}

// SkippedNames lists skipped document names in document order.
func (c *Collection) SkippedNames() []string {
	names := make([]string, 0, len(c.Skipped))
	for _, s := range c.Skipped {
		names = append(names, s.Name)
	}
	return names
}

// Loader reads documents from a collection directory.
type Loader struct {
	dir       string
	docList   string
	extension string
	workers   int
	logger    *slog.Logger
}

// NewLoader builds a Loader for cfg reading token files with the given
// extension (for example ".stp" or ".flt").
func NewLoader(cfg config.CollectionConfig, extension string, workers int) *Loader {
	if workers < 1 {
		workers = 1
	}
	return &Loader{
		dir:       cfg.Dir,
		docList:   cfg.DocListPath(),
		extension: extension,
		workers:   workers,
		logger:    slog.Default().With("component", "collection"),
	}
}

// ReadDocList returns the non-blank, trimmed lines of the document list.
func ReadDocList(path string) ([]string, error) {
	var names []string
	err := artifact.ReadLines("document list", path, func(_ int, line string) error {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
		return nil
	})
	return names, err
}

// Load reads the document list and every token file. Missing directory or
// list is fatal; a missing token file is recorded in Skipped.
func (l *Loader) Load(ctx context.Context) (*Collection, error) {
	info, err := os.Stat(l.dir)
	if err != nil || !info.IsDir() {
		return nil, apperrors.MissingResource("collection directory", l.dir)
	}
	names, err := ReadDocList(l.docList)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, len(names))
	errs := make([]error, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, name := range names {
		docs[i] = Document{ID: i + 1, Name: name}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tokens, err := ReadTokens(l.TokenPath(name))
			if err != nil {
				errs[i] = err
				return nil
			}
			docs[i].Tokens = tokens
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading collection: %w", err)
	}

	c := &Collection{Docs: docs, skipped: make(map[int]struct{})}
	for i, err := range errs {
		if err == nil {
			continue
		}
		if !apperrors.Is(err, apperrors.ErrDocumentMissing) {
			return nil, fmt.Errorf("reading document %s: %w", names[i], err)
		}
		c.Skipped = append(c.Skipped, Skip{DocID: i + 1, Name: names[i], Path: l.TokenPath(names[i]), Err: err})
		c.skipped[i+1] = struct{}{}
		l.logger.Warn("document skipped", "doc", names[i], "doc_id", i+1, "error", err)
	}
	l.logger.Info("collection loaded",
		"dir", l.dir,
		"extension", l.extension,
		"listed", len(docs),
		"skipped", len(c.Skipped),
	)
	return c, nil
}

// TokenPath returns the token file path for a document name.
func (l *Loader) TokenPath(name string) string {
	return filepath.Join(l.dir, name+l.extension)
}

// ReadTokens splits a token file on whitespace. A missing file yields
// ErrDocumentMissing.
func ReadTokens(path string) ([]string, error) {
	data, err := artifact.ReadAll("document", path)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrMissingResource) {
			return nil, fmt.Errorf("%s: %w", path, apperrors.ErrDocumentMissing)
		}
		return nil, err
	}
	tokens := strings.Fields(string(data))
	if tokens == nil {
		tokens = []string{}
	}
	return tokens, nil
}

// FromTokens builds an in-memory collection, one document per token slice.
// A nil slice marks a skipped document.
func FromTokens(names []string, tokens [][]string) *Collection {
	c := &Collection{Docs: make([]Document, len(names)), skipped: make(map[int]struct{})}
	for i, name := range names {
		c.Docs[i] = Document{ID: i + 1, Name: name, Tokens: tokens[i]}
		if tokens[i] == nil {
			c.Skipped = append(c.Skipped, Skip{DocID: i + 1, Name: name, Err: apperrors.ErrDocumentMissing})
			c.skipped[i+1] = struct{}{}
		}
	}
	return c
}
