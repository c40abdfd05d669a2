package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"xmlrecords/internal/log"
	"xmlrecords/internal/mapping"
	"xmlrecords/internal/partition"
	"xmlrecords/internal/pipeline"
	"xmlrecords/internal/progress"
	"xmlrecords/internal/xmlread"
)

var errMissingXML = errors.New("--xml is required")

func (a *app) convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert an XML file into JSON and YAML files partitioned by year",
		Example: `
	xmlrecords convert --xml people.xml --mapping mapping.yaml
	xmlrecords convert --xml people.xml --outdir out --unmapped drop --file-pattern 'people_{{ .Partition }}'`,
		RunE: withSignalWatcher(a.convert),
	}

	cmd.Flags().String("xml", "", "XML file to convert")
	cmd.Flags().String("mapping", "", "Mapping table file (.json, .yaml, .yml or .xml). The identity table is used if not set")
	cmd.Flags().String("outdir", pipeline.DefaultOutDir, "Directory where the partition files are written")
	cmd.Flags().String("record-tag", xmlread.DefaultRecordTag, "Tag of the record elements")
	cmd.Flags().String("unmapped", string(mapping.PolicyPassthrough), "What to do with fields the mapping does not name. One of passthrough, drop")
	cmd.Flags().StringSlice("partition-key", partition.DefaultKeys, "Fields holding the partition value, in order of preference")
	cmd.Flags().String("partition-mode", string(partition.ModeYear), "How the partition is taken from its field. One of year, value")
	cmd.Flags().String("file-pattern", partition.DefaultPattern, "Template of the partition file names, without extension. Sprig functions are available")
	cmd.Flags().Bool("no-attributes", false, "Ignore the attributes of record elements")
	cmd.Flags().Bool("progress", false, "Show a progress bar")

	bindFlags(a.v, "convert", cmd.Flags(),
		"xml", "mapping", "outdir", "record-tag", "unmapped",
		"partition-key", "partition-mode", "file-pattern", "no-attributes", "progress")

	return cmd
}

func (a *app) convert(ctx context.Context, cmd *cobra.Command) error {
	opts := a.cfg.Convert
	if opts.XML == "" {
		return errMissingXML
	}

	table, err := mapping.LoadFile(opts.Mapping)
	if err != nil {
		return err
	}

	policy, err := mapping.ParsePolicy(opts.Unmapped)
	if err != nil {
		return err
	}

	mode, err := partition.ParseMode(opts.PartitionMode)
	if err != nil {
		return err
	}

	logger := a.logger(cmd)
	logger.Info("converting", log.Fields{log.PathField: opts.XML, "outdir": opts.OutDir})

	var bar progress.Bar = progress.NoopBar{}
	if opts.Progress {
		bar = progress.NewBarTo(cmd.ErrOrStderr(), -1, "converting records")
	}

	sp := startSpinner(cmd, !opts.Progress, fmt.Sprintf("converting %s...", opts.XML))

	res, err := pipeline.NewConverter(
		pipeline.WithLogger(logger),
		pipeline.WithProgress(bar),
	).Convert(ctx, pipeline.Config{
		XMLPath:       opts.XML,
		OutDir:        opts.OutDir,
		Table:         table,
		RecordTag:     opts.RecordTag,
		Policy:        policy,
		PartitionKeys: opts.PartitionKeys,
		PartitionMode: mode,
		FilePattern:   opts.FilePattern,
		NoAttributes:  opts.NoAttributes,
	})

	_ = bar.Close()

	if err != nil {
		sp.fail(err)
		return err
	}

	msg := fmt.Sprintf("%d record(s) written to %d partition(s) in %s", res.Records, res.Partitions, opts.OutDir)
	if n := len(res.Usage.Warnings); n > 0 {
		sp.warning(fmt.Sprintf("%s, %d mapping warning(s)", msg, n))
	} else {
		sp.success(msg)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)

	return err
}
