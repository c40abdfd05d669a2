// Package main provides the CLI entrypoint for xmlrecords.
//
// xmlrecords is a record conversion tool that:
//   - Converts the record elements of an XML file into JSON and YAML files
//     partitioned by year, renaming fields through a mapping table
//   - Validates a converted dataset
//   - Merges a converted dataset back into one XML file
//   - Checks the records of an XML file against a schema
package main

import (
	"os"

	"xmlrecords/internal/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:]))
}
