package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/goopy-dev/goopy-sheets/reconcile"
)

var PutCmd = Put{
	command:  command{},
	file:     "",
	replace:  false,
	dryrun:   false,
	logRange: "",
}

// Put appends the records in a TSV file to a worksheet.
type Put struct {
	command
	file     string
	replace  bool
	dryrun   bool
	logRange string
}

func (c *Put) FlagSet() *flag.FlagSet {
	flagset := c.flagset("put")

	flagset.StringVar(&c.file, "file", c.file, "TSV file")
	flagset.BoolVar(&c.replace, "replace", c.replace, "Clears the existing worksheet rows before appending the TSV records")
	flagset.BoolVar(&c.dryrun, "dryrun", c.dryrun, "Logs the records without inserting them")
	flagset.StringVar(&c.logRange, "log-range", c.logRange, "Audit log worksheet range e.g. 'Log!A1:E'")

	return flagset
}

func (c *Put) Execute(args ...any) error {
	options := args[0].(*Options)

	if err := c.configure(options); err != nil {
		return err
	}

	defer c.log.Sync()

	if strings.TrimSpace(c.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	f, err := os.Open(c.file)
	if err != nil {
		return err
	}

	defer f.Close()

	records, err := tsvToRecords(f)
	if err != nil {
		return fmt.Errorf("invalid TSV file (%w)", err)
	}

	ctx := context.Background()

	s, err := c.open(ctx)
	if err != nil {
		return err
	}

	audit, err := c.audit(s, c.logRange)
	if err != nil {
		return err
	}

	if c.replace && !c.dryrun {
		area, err := s.store.Clear(ctx, s.reconciler.Spreadsheet(), s.reconciler.Worksheet())
		if err != nil {
			return err
		}

		c.log.Infof("Cleared worksheet rows %v", area)
	}

	count, err := c.put(ctx, s.reconciler, records)
	if ferr := c.flush(ctx, audit, 0); ferr != nil {
		if err != nil {
			c.log.Warnf("%v", ferr)
		} else {
			err = ferr
		}
	}

	if err != nil {
		return err
	}

	c.log.Infof("Uploaded %d records from TSV file %v to Google Sheets", count, c.file)

	return nil
}

func (c *Put) put(ctx context.Context, r *reconcile.Reconciler, records []map[string]any) (int, error) {
	if c.dryrun {
		for i, record := range records {
			c.log.Infof("Record %v. %v", i+1, record)
		}

		return 0, nil
	}

	rows, err := r.InsertRows(ctx, records)
	if err != nil {
		return 0, err
	}

	for i, row := range rows {
		c.log.Debugf("Record %v. inserted as %v", i+1, row.ID)
	}

	return len(rows), nil
}

func (c *Put) Name() string {
	return "put"
}

func (c *Put) Description() string {
	return "Appends the records in a TSV file to a Google Sheets worksheet"
}

func (c *Put) Usage() string {
	return "--spreadsheet <url|key|name> [--worksheet <id|name>] --file <file>"
}

func (c *Put) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] put [options] --spreadsheet <spreadsheet> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Appends every record in a TSV file as a new worksheet row. The TSV header names are")
	fmt.Println("  matched to the worksheet columns after normalisation. With --replace the existing")
	fmt.Println("  rows are cleared first.")
	fmt.Println()

	helpOptions(c.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println()
	fmt.Println(`    goopy-sheets --debug put --credentials "credentials.json" \`)
	fmt.Println(`                             --spreadsheet "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                             --worksheet "Inventory" \`)
	fmt.Println(`                             --file "example.tsv"`)
	fmt.Println()
}
