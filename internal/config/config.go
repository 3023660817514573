// Package config parses the reducer's YAML configuration document (JSON
// is accepted too, since it is a YAML subset for this grammar) into a
// validated reduce.Config, rejecting unknown fields at load time rather
// than silently ignoring typos in a pipeline operator's config file.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/logreduce/logreduce/pkg/coerce"
	"github.com/logreduce/logreduce/pkg/merge"
	"github.com/logreduce/logreduce/pkg/predicate"
	"github.com/logreduce/logreduce/pkg/reduce"
)

// document mirrors the on-disk shape exactly (§4.4/§4.9): field names
// are exactly as specified, and yaml.Strict rejects anything else.
// merge_strategies/date_formats decode via yaml.MapSlice rather than a
// plain map, since configuration order must survive into
// reduce.Config.MergeStrategies for deterministic tie-breaks.
type document struct {
	ExpireAfterMS   int64         `yaml:"expire_after_ms"`
	FlushPeriodMS   int64         `yaml:"flush_period_ms"`
	GroupBy         []string      `yaml:"group_by"`
	MergeStrategies yaml.MapSlice `yaml:"merge_strategies"`
	StartsWhen      string        `yaml:"starts_when"`
	EndsWhen        string        `yaml:"ends_when"`
	DateFormats     yaml.MapSlice `yaml:"date_formats"`
}

// Load parses data as the reducer configuration document and builds a
// validated reduce.Config. Predicate strings are compiled with the
// jq-style predicate.JQCondition; an embedding application that needs a
// different predicate sublanguage should build reduce.Config directly
// instead of going through this loader.
func Load(data []byte, logger *slog.Logger) (*reduce.Config, error) {
	var doc document
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	opts := reduce.Config{
		ExpireAfter: time.Duration(doc.ExpireAfterMS) * time.Millisecond,
		FlushPeriod: time.Duration(doc.FlushPeriodMS) * time.Millisecond,
		GroupBy:     doc.GroupBy,
	}

	for _, item := range doc.MergeStrategies {
		path, name, err := stringPair(item)
		if err != nil {
			return nil, fmt.Errorf("config: merge_strategies: %w", err)
		}
		opts.MergeStrategies = append(opts.MergeStrategies, reduce.FieldStrategy{
			Path:     path,
			Strategy: merge.Strategy(name),
		})
	}
	for _, item := range doc.DateFormats {
		path, format, err := stringPair(item)
		if err != nil {
			return nil, fmt.Errorf("config: date_formats: %w", err)
		}
		opts.DateFormats = append(opts.DateFormats, coerce.FieldFormat{Path: path, Format: format})
	}

	if doc.StartsWhen != "" {
		cond, err := predicate.NewJQCondition(doc.StartsWhen)
		if err != nil {
			return nil, fmt.Errorf("config: starts_when: %w", err)
		}
		opts.StartsWhen = cond
	}
	if doc.EndsWhen != "" {
		cond, err := predicate.NewJQCondition(doc.EndsWhen)
		if err != nil {
			return nil, fmt.Errorf("config: ends_when: %w", err)
		}
		opts.EndsWhen = cond
	}

	cfg, err := reduce.NewConfig(opts)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func stringPair(item yaml.MapItem) (key, value string, err error) {
	k, ok := item.Key.(string)
	if !ok {
		return "", "", fmt.Errorf("non-string key %v", item.Key)
	}
	v, ok := item.Value.(string)
	if !ok {
		return "", "", fmt.Errorf("non-string value for %q", k)
	}
	return k, v, nil
}
