// Package repl is the interactive query loop: one query per line, ranked
// results rendered to the terminal, an empty line or end of input ends the
// session. Lines starting with ':' change the session's model, width or limit.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/errors"
)

const prompt = "query> "

type Searcher interface {
	Resolve(opts executor.Options) (executor.Options, error)
	Execute(ctx context.Context, q *parser.Query, opts executor.Options) (*executor.SearchResult, error)
}

type styles struct {
	header  lipgloss.Style
	rank    lipgloss.Style
	name    lipgloss.Style
	score   lipgloss.Style
	muted   lipgloss.Style
	failure lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		rank:    r.NewStyle().Width(5).Align(lipgloss.Right).Foreground(lipgloss.Color("8")),
		name:    r.NewStyle().PaddingLeft(1).Foreground(lipgloss.Color("15")),
		score:   r.NewStyle().Foreground(lipgloss.Color("10")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		failure: r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

type REPL struct {
	search Searcher
	in     io.Reader
	out    io.Writer
	opts   executor.Options
	styles styles
}

// New creates a loop reading from in and rendering to out. opts are the
// session's initial search options.
func New(search Searcher, in io.Reader, out io.Writer, opts executor.Options) *REPL {
	return &REPL{
		search: search,
		in:     in,
		out:    out,
		opts:   opts,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// Run reads queries until an empty line, end of input or ctx cancellation.
// Invalid queries and commands are reported and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil
		}
		if strings.HasPrefix(line, ":") {
			r.command(line)
			continue
		}
		res, err := r.search.Execute(ctx, parser.Parse(line), r.opts)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrInvalidInput) {
				r.fail(err)
				continue
			}
			return err
		}
		r.render(res)
	}
}

func (r *REPL) command(line string) {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) != 2 {
		r.fail(fmt.Errorf("usage: :model cosine|proximity, :k N, :limit N"))
		return
	}
	next := r.opts
	switch fields[0] {
	case "model":
		m, err := ranker.ParseModel(fields[1])
		if err != nil {
			r.fail(err)
			return
		}
		next.Model = m
	case "k", "limit":
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			r.fail(fmt.Errorf("%s must be a positive integer", fields[0]))
			return
		}
		if fields[0] == "k" {
			next.K = n
		} else {
			next.Limit = n
		}
	default:
		r.fail(fmt.Errorf("unknown command %q", fields[0]))
		return
	}
	resolved, err := r.search.Resolve(next)
	if err != nil {
		r.fail(err)
		return
	}
	r.opts = next
	fmt.Fprintln(r.out, r.styles.muted.Render(describe(resolved)))
}

func (r *REPL) render(res *executor.SearchResult) {
	header := fmt.Sprintf("%d of %d results for %q (%s)", len(res.Results), res.TotalHits, res.Query, describe(executor.Options{Model: res.Model, K: res.K}))
	fmt.Fprintln(r.out, r.styles.header.Render(header))
	if len(res.UnknownTerms) > 0 {
		fmt.Fprintln(r.out, r.styles.muted.Render("not in vocabulary: "+strings.Join(res.UnknownTerms, " ")))
	}
	for i, d := range res.Results {
		fmt.Fprintln(r.out,
			r.styles.rank.Render(strconv.Itoa(i+1)+".")+
				r.styles.name.Render(fmt.Sprintf("%s (%d)", d.Name, d.DocID))+" "+
				r.styles.score.Render(strconv.FormatFloat(d.Score, 'f', 4, 64)),
		)
	}
}

func (r *REPL) fail(err error) {
	fmt.Fprintln(r.out, r.styles.failure.Render("error: "+err.Error()))
}

func describe(opts executor.Options) string {
	s := "model=" + string(opts.Model)
	if opts.Model == ranker.ModelProximity {
		s += " k=" + strconv.Itoa(opts.K)
	}
	if opts.Limit > 0 {
		s += " limit=" + strconv.Itoa(opts.Limit)
	}
	return s
}
