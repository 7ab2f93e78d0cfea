package pipeline

import (
	"errors"

	"rolls/internal"
	"rolls/internal/ranks"
	"rolls/internal/schema"
)

// Processor turns one date-filtered batch into a sorted roll and its
// statistics. It holds configuration only and is safe for concurrent use.
type Processor struct {
	schema     schema.Schema
	ranks      ranks.Tables
	mode       ParseMode
	orgSuffix  string
	parser     *NameParser
	aggregator Aggregator
}

type Option func(*Processor)

func WithRanks(t ranks.Tables) Option {
	return func(p *Processor) { p.ranks = t }
}

func WithMode(m ParseMode) Option {
	return func(p *Processor) { p.mode = m }
}

func WithOrgSuffix(suffix string) Option {
	return func(p *Processor) { p.orgSuffix = suffix }
}

func NewProcessor(s schema.Schema, opts ...Option) (*Processor, error) {
	p := &Processor{
		schema:    s,
		ranks:     ranks.Default(),
		mode:      ModeLenient,
		orgSuffix: DefaultOrgSuffix,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := p.ranks.Validate(); err != nil {
		return nil, err
	}
	p.parser = NewNameParser(p.ranks, s.Grammar, p.mode, p.orgSuffix)
	p.aggregator = NewAggregator(s, p.ranks)
	return p, nil
}

func (p *Processor) Mode() ParseMode { return p.mode }

// Process runs extraction, dedup, parsing, bucketing and counting over batch.
// It never fails: unusable tokens are skipped and reported in the result.
func (p *Processor) Process(batch internal.Batch) internal.Result {
	entries := p.Extract(batch)
	unique := dedupeEntries(entries)

	parsed := make([]internal.ParsedName, 0, len(unique))
	var skipped []internal.SkippedEntry
	for _, e := range unique {
		name, err := p.parser.Parse(e.Text)
		if err != nil {
			reason := "unparseable"
			if errors.Is(err, ErrNoRankPattern) {
				reason = "no_rank"
			}
			skipped = append(skipped, internal.SkippedEntry{Text: e.Text, Section: e.Section, Reason: reason})
			continue
		}
		name.Section = e.Section
		parsed = append(parsed, name)
	}

	buckets := p.aggregator.Group(parsed)
	stats := p.aggregator.Count(buckets, len(skipped))
	return Assemble(buckets, stats, skipped)
}

// Extract yields every raw entry of the batch in row, then column, order.
func (p *Processor) Extract(batch internal.Batch) []internal.RawEntry {
	var out []internal.RawEntry
	for _, row := range batch.Rows {
		cols := MapColumns(p.schema, len(row.Cells))
		out = append(out, ExtractRow(LabelRow(row, cols), p.schema.CommaSection)...)
	}
	return out
}

// ParseName exposes the configured parser for single tokens.
func (p *Processor) ParseName(token string) (internal.ParsedName, error) {
	return p.parser.Parse(token)
}
