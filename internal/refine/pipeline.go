// Package refine rewrites the body of existing venue records, one file at a
// time with a fixed pause between generation calls.
package refine

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/casimadrid/casi-cli/internal/config"
	"github.com/casimadrid/casi-cli/internal/content"
	"github.com/casimadrid/casi-cli/internal/ledger"
	"github.com/casimadrid/casi-cli/internal/textgen"
)

// Deps are the collaborators of a run.
type Deps struct {
	Generator textgen.Generator
	Ledger    *ledger.Ledger[ledger.RefineEntry]
	Store     *content.Store
	// Rand drives the author draw; nil uses the global source.
	Rand *rand.Rand
	// Now defaults to time.Now.
	Now func() time.Time
	// Sleep defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Pipeline runs refinement.
type Pipeline struct {
	cfg     *config.Config
	deps    Deps
	authors *WeightedChoice[string]
}

// New creates a Pipeline with the author table from cfg.Refine.Authors.
func New(cfg *config.Config, deps Deps) (*Pipeline, error) {
	table := make([]Weighted[string], 0, len(cfg.Refine.Authors))
	for _, a := range cfg.Refine.Authors {
		table = append(table, Weighted[string]{Weight: a.Weight, Value: a.Name})
	}
	authors, err := NewWeightedChoice(table)
	if err != nil {
		return nil, eris.Wrap(err, "refine: author table")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Sleep == nil {
		deps.Sleep = sleep
	}
	return &Pipeline{cfg: cfg, deps: deps, authors: authors}, nil
}

// Run refines target alone when it is not empty, bypassing the ledger, and
// otherwise every content file not yet in the refinement ledger. A file that
// fails is logged and skipped. A ledger save failure is fatal.
func (p *Pipeline) Run(ctx context.Context, target string) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Single: strings.TrimSpace(target) != ""}
	log := zap.L().With(zap.String("run_id", res.RunID))

	// SELECT_FILES
	files, err := p.selectFiles(strings.TrimSpace(target))
	if err != nil {
		return nil, err
	}
	res.Selected = len(files)
	log.Info("refine: selected files", zap.Int("count", len(files)), zap.Bool("single", res.Single))

	for i, name := range files {
		// WAIT
		if i > 0 {
			delay := p.cfg.Refine.Delay()
			log.Info("refine: waiting before next file", zap.Duration("delay", delay))
			if err := p.deps.Sleep(ctx, delay); err != nil {
				res.Interrupted = true
				log.Warn("refine: interrupted", zap.Int("remaining", len(files)-i))
				break
			}
		}

		item := p.refineOne(ctx, name)
		res.add(item)
		fileLog := log.With(zap.String("file", item.Filename))
		if item.Status == StatusFailed {
			fileLog.Warn("refine: file failed", zap.Error(item.Err))
			continue
		}
		fileLog.Info("refine: rewrote file", zap.String("spot", item.SpotName), zap.String("author", item.Author))

		// MARK_DONE
		if res.Single {
			continue
		}
		p.deps.Ledger.Append(ledger.RefineEntry{
			Filename:  item.Filename,
			SpotName:  item.SpotName,
			RefinedAt: p.deps.Now().UTC(),
		})
		if err := p.deps.Ledger.Save(); err != nil {
			return res, eris.Wrap(err, "refine: save ledger")
		}
	}

	log.Info("refine: done",
		zap.Int("selected", res.Selected),
		zap.Int("refined", res.Refined),
		zap.Int("failed", res.Failed),
		zap.Bool("interrupted", res.Interrupted),
	)
	return res, nil
}

func (p *Pipeline) selectFiles(target string) ([]string, error) {
	if target != "" {
		return []string{target}, nil
	}
	names, err := p.deps.Store.List()
	if err != nil {
		return nil, eris.Wrap(err, "refine: list content")
	}
	pending := names[:0]
	for _, n := range names {
		if !p.deps.Ledger.Has(n) {
			pending = append(pending, n)
		}
	}
	return pending, nil
}

// refineOne runs PARSE, GENERATE and REWRITE for one file.
func (p *Pipeline) refineOne(ctx context.Context, name string) ItemResult {
	item := ItemResult{Filename: filepath.Base(name), Status: StatusFailed}

	doc, err := p.deps.Store.Read(name)
	if err != nil {
		item.Err = err
		return item
	}
	item.Path = doc.Path

	title, _ := doc.Header.Get("title")
	if title == "" {
		title = strings.TrimSuffix(item.Filename, filepath.Ext(item.Filename))
	}
	neighborhood, _ := doc.Header.Get("neighborhood")
	item.SpotName = title
	item.Author = p.authors.Draw(p.deps.Rand)

	out, err := p.deps.Generator.Generate(ctx, textgen.Request{
		Purpose:     textgen.PurposeRewrite,
		Prompt:      rewritePrompt(title, neighborhood, doc.Body),
		Temperature: p.cfg.Refine.Temperature,
		MaxTokens:   p.cfg.Refine.MaxTokens,
	})
	if err != nil {
		item.Err = eris.Wrapf(err, "refine: generate %s", item.Filename)
		return item
	}

	data, err := content.BuildMDX(doc.Header, normalizeBody(out), item.Author)
	if err != nil {
		item.Err = err
		return item
	}
	if err := p.deps.Store.Overwrite(doc.Path, data); err != nil {
		item.Err = err
		return item
	}

	item.Status = StatusRefined
	return item
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
