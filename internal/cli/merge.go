package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"xmlrecords/internal/log"
	"xmlrecords/internal/mapping"
	"xmlrecords/internal/merge"
	"xmlrecords/internal/pipeline"
	"xmlrecords/internal/progress"
	"xmlrecords/internal/xmlread"
)

const defaultMergeOut = "merged.xml"

func (a *app) mergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge a converted dataset back into one XML file",
		Example: `
	xmlrecords merge --indir out_by_year --mapping mapping.yaml --out merged.xml
	xmlrecords merge --prefer json`,
		RunE: withSignalWatcher(a.merge),
	}

	cmd.Flags().String("indir", pipeline.DefaultOutDir, "Directory of the converted dataset")
	cmd.Flags().String("mapping", "", "Mapping table used for the conversion. The identity table is used if not set")
	cmd.Flags().String("out", defaultMergeOut, "XML file to write")
	cmd.Flags().String("root-tag", merge.DefaultRootTag, "Tag of the document element")
	cmd.Flags().String("record-tag", xmlread.DefaultRecordTag, "Tag of the record elements")
	cmd.Flags().String("prefer", string(merge.PreferNone), "Format that wins when the JSON and YAML files of a partition disagree. One of json, yaml. Disagreement is an error if not set")
	cmd.Flags().Bool("progress", false, "Show a progress bar")

	bindFlags(a.v, "merge", cmd.Flags(),
		"indir", "mapping", "out", "root-tag", "record-tag", "prefer", "progress")

	return cmd
}

func (a *app) merge(_ context.Context, cmd *cobra.Command) error {
	opts := a.cfg.Merge

	table, err := mapping.LoadFile(opts.Mapping)
	if err != nil {
		return err
	}

	prefer, err := merge.ParsePrefer(opts.Prefer)
	if err != nil {
		return err
	}

	logger := a.logger(cmd)
	logger.Info("merging", log.Fields{log.PathField: opts.InDir, "out": opts.Out})

	var bar progress.Bar = progress.NoopBar{}
	if opts.Progress {
		bar = progress.NewBarTo(cmd.ErrOrStderr(), -1, "merging partitions")
	}

	sp := startSpinner(cmd, !opts.Progress, fmt.Sprintf("merging %s...", opts.InDir))

	summary, err := merge.New(table,
		merge.WithRootTag(opts.RootTag),
		merge.WithRecordTag(opts.RecordTag),
		merge.WithPrefer(prefer),
		merge.WithLogger(logger),
		merge.WithProgress(bar),
	).MergeFile(opts.InDir, opts.Out)

	_ = bar.Close()

	if err != nil {
		sp.fail(err)
		return err
	}

	msg := fmt.Sprintf("%d record(s) from %d partition(s) merged into %s", summary.Records, summary.Partitions, opts.Out)
	sp.success(msg)

	_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)

	return err
}
