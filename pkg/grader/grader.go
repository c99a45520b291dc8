// Package grader picks the rule set that best explains a parse.
package grader

import (
	"context"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/frame"
	"github.com/duynguyendang/tripsim/pkg/logger"
	"github.com/duynguyendang/tripsim/pkg/matcher"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Candidate is a described rule set competing for a parse.
type Candidate struct {
	Description string        `json:"description"`
	Rules       frame.RuleSet `json:"-"`
}

// Graded is the outcome for one candidate. Exactly one of Result and Err is
// set.
type Graded struct {
	Index       int             `json:"index"`
	Description string          `json:"description"`
	Result      *matcher.Result `json:"result,omitempty"`
	Err         error           `json:"-"`
	Error       string          `json:"error,omitempty"`
	Cached      bool            `json:"cached,omitempty"`
}

// Score is the candidate's score, or 0 if it failed.
func (g Graded) Score() float64 {
	if g.Result == nil {
		return 0
	}
	return g.Result.Score
}

// Report lists every candidate in input order.
type Report struct {
	RunID  string   `json:"run_id"`
	Graded []Graded `json:"graded"`
	// Best indexes Graded.
	Best int `json:"best"`
}

// Winner returns the best candidate.
func (r *Report) Winner() Graded {
	return r.Graded[r.Best]
}

// cacheKey hashes the rendered rule set and parse. Role order and variable
// spelling both show in a Result's bindings, so they are part of the key.
type cacheKey struct {
	rules, parse uint64
}

// Grader runs a matcher over candidate rule sets. Cached results are handed
// out as copies.
type Grader struct {
	engine *matcher.Engine
	cache  *expirable.LRU[cacheKey, *matcher.Result]
	log    *zap.SugaredLogger
}

// Option configures a Grader.
type Option func(*Grader)

// WithCache keeps up to size results for ttl, keyed by rule set and parse
// fingerprints. A zero ttl never expires entries.
func WithCache(size int, ttl time.Duration) Option {
	return func(g *Grader) {
		if size > 0 {
			g.cache = expirable.NewLRU[cacheKey, *matcher.Result](size, nil, ttl)
		}
	}
}

// WithLogger sets the grader's logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(g *Grader) { g.log = l }
}

// New returns a grader using engine.
func New(engine *matcher.Engine, opts ...Option) *Grader {
	g := &Grader{engine: engine}
	for _, opt := range opts {
		opt(g)
	}
	g.log = logger.Or(g.log, "grader")
	return g
}

// Grade matches parse against every candidate and selects the one with the
// strictly highest score; the first candidate wins ties. Candidates needing
// more frames than the parse has are reported with their error and skipped.
// Any other matching error aborts grading.
func (g *Grader) Grade(ctx context.Context, candidates []Candidate, parse frame.Parse) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Best: -1}
	log := g.log.With(logger.FieldRunID, report.RunID)
	parseKey := xxhash.Sum64String(parse.String())

	for i, c := range candidates {
		graded := Graded{Index: i, Description: c.Description}
		key := cacheKey{rules: xxhash.Sum64String(c.Rules.String()), parse: parseKey}

		res, hit := g.lookup(key)
		if hit {
			graded.Cached = true
		} else {
			var err error
			res, err = g.engine.Match(ctx, c.Rules, parse)
			switch {
			case errors.Is(err, errors.ErrInsufficientParseNodes):
				graded.Err = err
				graded.Error = err.Error()
				report.Graded = append(report.Graded, graded)
				log.Debugw("candidate skipped",
					logger.FieldDescription, c.Description,
					logger.FieldError, err)
				continue
			case err != nil:
				return nil, errors.Wrapf(err, "grade candidate %d (%s)", i, c.Description)
			}
			if g.cache != nil {
				g.cache.Add(key, res.Clone())
			}
		}

		graded.Result = res
		report.Graded = append(report.Graded, graded)
		log.Debugw("candidate scored",
			logger.FieldDescription, c.Description,
			logger.FieldScore, res.Score,
			"cached", graded.Cached)

		if report.Best < 0 || res.Score > report.Graded[report.Best].Score() {
			report.Best = i
		}
	}

	if report.Best < 0 {
		return report, errors.WithHint(
			errors.Wrapf(errors.ErrNoCandidates, "none of %d candidates could be matched", len(candidates)),
			"add templates with fewer frames or check the parse")
	}

	w := report.Winner()
	log.Infow("graded parse",
		logger.FieldCandidates, len(candidates),
		logger.FieldDescription, w.Description,
		logger.FieldScore, w.Score())
	return report, nil
}

func (g *Grader) lookup(key cacheKey) (*matcher.Result, bool) {
	if g.cache == nil {
		return nil, false
	}
	res, ok := g.cache.Get(key)
	if !ok {
		return nil, false
	}
	return res.Clone(), true
}
