package cli

import (
	"context"

	"github.com/spf13/cobra"

	"xmlrecords/internal/log"
	"xmlrecords/internal/mapping"
	"xmlrecords/internal/pipeline"
	"xmlrecords/internal/schema"
	"xmlrecords/internal/validate"
)

func (a *app) validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the JSON and YAML files of a converted dataset",
		Long: `Re-reads every .json, .yaml and .yml file of the directory and reports
unparsable files, missing fields, schema type mismatches and partitions whose
JSON and YAML files disagree. Exits with code 1 when any failure is found.`,
		Example: `
	xmlrecords validate --indir out_by_year --mapping mapping.yaml
	xmlrecords validate --schema schema.yaml --json`,
		RunE: withSignalWatcher(a.validate),
	}

	cmd.Flags().String("indir", pipeline.DefaultOutDir, "Directory of the converted dataset")
	cmd.Flags().String("mapping", "", "Mapping table whose target keys every record must have")
	cmd.Flags().String("schema", "", "Schema file with the field types to check")
	cmd.Flags().Bool("json", false, "Output the validation report in JSON format")

	bindFlags(a.v, "validate", cmd.Flags(), "indir", "mapping", "schema", "json")

	return cmd
}

func (a *app) validate(_ context.Context, cmd *cobra.Command) error {
	opts := a.cfg.Validate
	logger := a.logger(cmd)

	vopts := []validate.Option{validate.WithLogger(logger)}

	if opts.Mapping != "" {
		table, err := mapping.LoadFile(opts.Mapping)
		if err != nil {
			return err
		}

		vopts = append(vopts, validate.WithFields(table.Targets()...))
	}

	if opts.Schema != "" {
		s, err := schema.LoadFile(opts.Schema)
		if err != nil {
			return err
		}

		vopts = append(vopts, validate.WithSchema(s))
	}

	sp := startSpinner(cmd, !opts.JSON, "validating "+opts.InDir+"...")

	report, err := validate.New(vopts...).ValidateDir(opts.InDir)
	if err != nil {
		sp.fail(err)
		return err
	}

	if report.HasFailures() {
		sp.warning("validation found failures")
	} else {
		sp.success("validation passed")
	}

	logger.Info("validation finished", log.Fields{log.PathField: opts.InDir, "failures": report.Failures()})

	if err := print(cmd, report, opts.JSON); err != nil {
		return err
	}

	if report.HasFailures() {
		return ErrValidationFailed
	}

	return nil
}
