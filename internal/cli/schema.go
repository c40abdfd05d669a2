package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"xmlrecords/internal/inspect"
	"xmlrecords/internal/log"
	"xmlrecords/internal/schema"
)

var errMissingSchema = errors.New("--schema is required")

func (a *app) schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Check the record elements of an XML file against a schema",
		Long: `Walks every record element of the XML file and reports missing fields,
unexpected fields and type mismatches. Exits with code 1 when any element does
not conform.`,
		Example: `
	xmlrecords schema --xml people.xml --schema schema.yaml
	xmlrecords schema --xml people.xml --schema schema.json --print`,
		RunE: withSignalWatcher(a.schema),
	}

	cmd.Flags().String("xml", "", "XML file to check")
	cmd.Flags().String("schema", "", "Schema file (.json, .yaml or .yml)")
	cmd.Flags().Bool("print", false, "Print the values of the schema fields of every element as JSON")
	cmd.Flags().Bool("json", false, "Output the report in JSON format")

	bindFlags(a.v, "schema", cmd.Flags(), "xml", "schema", "print", "json")

	return cmd
}

func (a *app) schema(_ context.Context, cmd *cobra.Command) error {
	opts := a.cfg.Schema

	switch {
	case opts.XML == "":
		return errMissingXML
	case opts.Schema == "":
		return errMissingSchema
	}

	s, err := schema.LoadFile(opts.Schema)
	if err != nil {
		return err
	}

	logger := a.logger(cmd)

	report, err := inspect.New(s, inspect.WithLogger(logger)).InspectFile(opts.XML)
	if err != nil {
		return err
	}

	logger.Info("schema check finished", log.Fields{
		log.PathField: opts.XML,
		"elements":    len(report.Elements),
		"conforming":  report.Conforming(),
	})

	if opts.Print {
		values, err := report.ValuesJSON()
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(values)); err != nil {
			return err
		}
	} else if err := print(cmd, report, opts.JSON); err != nil {
		return err
	}

	if !report.Conforms() {
		return ErrValidationFailed
	}

	return nil
}
