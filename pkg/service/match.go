// Package service holds the operations shared by the REST and MCP surfaces.
package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/duynguyendang/tripsim/internal/manager"
	"github.com/duynguyendang/tripsim/pkg/catalogue"
	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/export"
	"github.com/duynguyendang/tripsim/pkg/frame"
	"github.com/duynguyendang/tripsim/pkg/grader"
	"github.com/duynguyendang/tripsim/pkg/lf"
	"github.com/duynguyendang/tripsim/pkg/logger"
	"github.com/duynguyendang/tripsim/pkg/matcher"
	"github.com/duynguyendang/tripsim/pkg/ontology"
	"go.uber.org/zap"
)

// CatalogueSource lists stored catalogues and their entries.
type CatalogueSource interface {
	List() ([]manager.CatalogueMetadata, error)
	Entries(name string) ([]catalogue.Entry, error)
}

// Options tunes the service.
type Options struct {
	Workers           int
	OntologyCacheSize int
	GraderCacheSize   int
	GraderCacheTTL    time.Duration
	Logger            *zap.SugaredLogger
}

// MatchService matches and grades parses against templates.
type MatchService struct {
	ontology   *ontology.Hierarchy
	engine     *matcher.Engine
	grader     *grader.Grader
	catalogues CatalogueSource
	defaults   []catalogue.Entry
	log        *zap.SugaredLogger
}

// New builds a service. h, catalogues and defaults may be nil; without an
// ontology terms compare by spelling.
func New(h *ontology.Hierarchy, catalogues CatalogueSource, defaults []catalogue.Entry, opts Options) (*MatchService, error) {
	log := logger.Or(opts.Logger, "service")

	var ctx ontology.Context = ontology.Empty
	if h != nil {
		ctx = h
		if opts.OntologyCacheSize > 0 {
			cached, err := ontology.NewCached(h, opts.OntologyCacheSize)
			if err != nil {
				return nil, errors.Wrap(err, "ontology cache")
			}
			ctx = cached
		}
	}

	engine := matcher.New(ctx, matcher.WithWorkers(opts.Workers), matcher.WithLogger(log.Named("matcher")))
	return &MatchService{
		ontology:   h,
		engine:     engine,
		grader:     grader.New(engine, grader.WithCache(opts.GraderCacheSize, opts.GraderCacheTTL), grader.WithLogger(log.Named("grader"))),
		catalogues: catalogues,
		defaults:   defaults,
		log:        log,
	}, nil
}

// Engine returns the matching engine.
func (s *MatchService) Engine() *matcher.Engine { return s.engine }

// ParseInput reads a parse given either as logical-form text or as TRIPS
// JSON. Exactly one must be set.
func (s *MatchService) ParseInput(text string, doc json.RawMessage) (frame.Parse, error) {
	hasText, hasDoc := strings.TrimSpace(text) != "", len(doc) > 0 && string(doc) != "null"
	switch {
	case hasText && hasDoc:
		return nil, errors.Wrap(errors.ErrInvalidInput, "give the parse as text or json, not both")
	case hasText:
		return lf.ParseNodes(text)
	case hasDoc:
		nodes, err := lf.ParseJSON(doc)
		return frame.Parse(nodes), err
	}
	return nil, errors.Wrap(errors.ErrInvalidInput, "missing parse")
}

// Outcome is a match with the inputs it was computed from.
type Outcome struct {
	Rules  frame.RuleSet
	Parse  frame.Parse
	Result *matcher.Result
}

// Match reads the template text and matches it against parse.
func (s *MatchService) Match(ctx context.Context, rulesText string, parse frame.Parse) (*Outcome, error) {
	if strings.TrimSpace(rulesText) == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "missing rules")
	}
	rules, err := lf.ParseRules(rulesText)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.Match(ctx, rules, parse)
	if err != nil {
		return nil, err
	}
	return &Outcome{Rules: rules, Parse: parse, Result: res}, nil
}

// Graph renders an outcome for D3.
func (s *MatchService) Graph(o *Outcome) (*export.D3Graph, error) {
	return export.NewD3Transformer(s.engine).Transform(o.Rules, o.Parse, o.Result)
}

// Grade grades parse against inline entries if given, otherwise the named
// stored catalogue, otherwise the default catalogue.
func (s *MatchService) Grade(ctx context.Context, catalogueName string, entries []catalogue.Entry, parse frame.Parse) (*grader.Report, error) {
	source := "inline"
	switch {
	case len(entries) > 0:
	case catalogueName != "":
		var err error
		if entries, err = s.CatalogueEntries(catalogueName); err != nil {
			return nil, err
		}
		source = catalogueName
	default:
		entries = s.defaults
		source = "default"
	}
	if len(entries) == 0 {
		return nil, errors.WithHint(
			errors.Wrap(errors.ErrInvalidInput, "no templates to grade against"),
			"name a catalogue or configure catalogue.file")
	}

	s.log.Debugw("grading", logger.FieldCatalogue, source, logger.FieldCandidates, len(entries))
	return s.grader.Grade(ctx, catalogue.Candidates(entries), parse)
}

// Catalogues lists the stored catalogues.
func (s *MatchService) Catalogues() ([]manager.CatalogueMetadata, error) {
	if s.catalogues == nil {
		return []manager.CatalogueMetadata{}, nil
	}
	return s.catalogues.List()
}

// CatalogueEntries returns a stored catalogue's entries.
func (s *MatchService) CatalogueEntries(name string) ([]catalogue.Entry, error) {
	if s.catalogues == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "catalogue %s: no catalogue directory configured", name)
	}
	return s.catalogues.Entries(name)
}

// Defaults returns the default catalogue.
func (s *MatchService) Defaults() []catalogue.Entry { return s.defaults }

// TypeInfo describes an ontology type.
type TypeInfo struct {
	Name      string              `json:"name"`
	Ancestors []string            `json:"ancestors"`
	Arguments []ontology.Argument `json:"arguments"`
}

// LookupType describes an ontology type.
func (s *MatchService) LookupType(name string) (*TypeInfo, error) {
	if s.ontology == nil {
		return nil, errors.Wrap(errors.ErrNotFound, "no ontology loaded")
	}
	e, ok := s.ontology.Lookup(name)
	if !ok {
		err := errors.Wrapf(errors.ErrNotFound, "ontology type %q", name)
		if sugg := s.Suggest(name); len(sugg) > 0 {
			err = errors.WithHintf(err, "did you mean %s?", strings.Join(sugg, ", "))
		}
		return nil, err
	}
	ancestors, err := s.ontology.Ancestors(e.Name())
	if err != nil {
		return nil, err
	}
	args, err := s.ontology.Arguments(e.Name())
	if err != nil {
		return nil, err
	}
	if ancestors == nil {
		ancestors = []string{}
	}
	if args == nil {
		args = []ontology.Argument{}
	}
	return &TypeInfo{Name: e.Name(), Ancestors: ancestors, Arguments: args}, nil
}

// Suggest returns known type names close to name.
func (s *MatchService) Suggest(name string) []string {
	if s.ontology == nil {
		return nil
	}
	return s.ontology.Suggest(name, 3)
}

// Distance counts the hierarchy edges between two types.
func (s *MatchService) Distance(a, b string) (int, error) {
	if s.ontology == nil {
		return 0, errors.Wrap(errors.ErrNotFound, "no ontology loaded")
	}
	return s.ontology.Distance(a, b)
}
