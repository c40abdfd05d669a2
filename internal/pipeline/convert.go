// Package pipeline wires the XML reader, the mapping table and the dataset
// writer into the convert operation.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"slices"

	"xmlrecords/internal/dataset"
	"xmlrecords/internal/diagnostic"
	"xmlrecords/internal/log"
	"xmlrecords/internal/mapping"
	"xmlrecords/internal/partition"
	"xmlrecords/internal/progress"
	"xmlrecords/internal/xmlread"
)

// DefaultOutDir is the output directory when none is given.
const DefaultOutDir = "out_by_year"

// Config describes one conversion.
type Config struct {
	XMLPath string
	OutDir  string
	// Table defaults to the identity table.
	Table         *mapping.Table
	RecordTag     string
	Policy        mapping.Policy
	PartitionKeys []string
	PartitionMode partition.Mode
	FilePattern   string
	// NoAttributes leaves attributes of record elements out.
	NoAttributes bool
}

// Result describes a finished conversion.
type Result struct {
	dataset.Summary
	// Usage reports unused table entries and unmapped tags.
	Usage diagnostic.Diagnostics
}

type Converter struct {
	logger log.Logger
	bar    progress.Bar
}

type Option func(*Converter)

func WithLogger(l log.Logger) Option {
	return func(c *Converter) {
		c.logger = log.NewLogger(l).WithFields(log.Fields{log.ModuleField: "converter"})
	}
}

// WithProgress advances bar once per converted record.
func WithProgress(bar progress.Bar) Option {
	return func(c *Converter) {
		if bar != nil {
			c.bar = bar
		}
	}
}

func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		logger: log.NewNoopLogger(),
		bar:    progress.NoopBar{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Convert reads cfg.XMLPath and writes the partitioned dataset.
func (c *Converter) Convert(ctx context.Context, cfg Config) (*Result, error) {
	reader, err := xmlread.Open(cfg.XMLPath, c.readerOptions(cfg)...)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return c.run(ctx, reader, cfg)
}

// ConvertReader is Convert with the document read from src.
func (c *Converter) ConvertReader(ctx context.Context, src io.Reader, cfg Config) (*Result, error) {
	return c.run(ctx, xmlread.NewReader(src, c.readerOptions(cfg)...), cfg)
}

func (c *Converter) readerOptions(cfg Config) []xmlread.Option {
	return []xmlread.Option{
		xmlread.WithRecordTag(cfg.RecordTag),
		xmlread.WithAttributes(!cfg.NoAttributes),
		xmlread.WithLogger(c.logger),
	}
}

func (c *Converter) run(ctx context.Context, reader *xmlread.Reader, cfg Config) (*Result, error) {
	table := cfg.Table
	if table == nil {
		table = mapping.Identity()
	}

	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}

	namer, err := partition.NewNamer(cfg.FilePattern)
	if err != nil {
		return nil, err
	}

	keys := partitionKeys(cfg.PartitionKeys, table)
	c.logger.Debug("partitioning", log.Fields{"keys": keys, "file_pattern": namer.Pattern()})

	writer, err := dataset.NewWriter(cfg.OutDir,
		dataset.WithPartitioner(partition.New(
			partition.WithKeys(keys...),
			partition.WithMode(cfg.PartitionMode),
		)),
		dataset.WithNamer(namer),
		dataset.WithLogger(c.logger),
	)
	if err != nil {
		return nil, err
	}

	usage := mapping.NewUsage(table)

	for rec, err := range reader.Records() {
		if err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("conversion interrupted: %w", err)
		}

		usage.Observe(rec)
		p := writer.Add(table.Apply(rec, cfg.Policy))

		if err := c.bar.Add(1); err != nil {
			c.logger.Warn(err, "updating progress")
		}

		c.logger.Trace("record converted", log.Fields{log.PartitionField: p})
	}

	summary, err := writer.Flush()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Summary: summary,
		Usage:   usage.Diagnostics(cfg.XMLPath, cfg.Policy),
	}

	for _, d := range res.Usage.Warnings {
		c.logger.Warn(nil, d.String())
	}

	for _, d := range res.Usage.Infos {
		c.logger.Debug(d.String())
	}

	return res, nil
}

// partitionKeys follows the configured keys with the names the table gives
// them, so that records still partition when the table renames a key.
func partitionKeys(keys []string, table *mapping.Table) []string {
	if len(keys) == 0 {
		keys = partition.DefaultKeys
	}

	out := slices.Clone(keys)

	for _, key := range keys {
		if target, ok := table.TargetOf(key); ok && !slices.Contains(out, target) {
			out = append(out, target)
		}
	}

	return out
}
