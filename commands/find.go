package commands

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goopy-dev/goopy-sheets/reconcile"
)

var FindCmd = Find{
	command: command{},
	columns: "",
	pattern: "",
	out:     os.Stdout,
}

// Find lists the worksheet rows matching a filter.
type Find struct {
	command
	columns string
	pattern string
	out     io.Writer
}

func (cmd *Find) Name() string {
	return "find"
}

func (cmd *Find) Description() string {
	return "Lists the worksheet rows matching a filter"
}

func (cmd *Find) Usage() string {
	return "--spreadsheet <url|key|name> [--worksheet <id|name>] --columns <columns> --pattern <regex>"
}

func (cmd *Find) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] find [options] --spreadsheet <spreadsheet> --columns <columns> --pattern <regex>\n", APP)
	fmt.Println()
	fmt.Println("  Prints the rows for which any of the listed columns starts with a match for the")
	fmt.Println("  pattern as TSV, prefixed with the row index. Empty cells never match.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    goopy-sheets find --spreadsheet "Inventory" --columns "owner,assignee" --pattern "alice|bob"`)
	fmt.Println()
}

func (cmd *Find) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("find")

	flagset.StringVar(&cmd.columns, "columns", cmd.columns, "Comma separated list of the columns to match")
	flagset.StringVar(&cmd.pattern, "pattern", cmd.pattern, "Regular expression matched against the start of each cell")

	return flagset
}

func (cmd *Find) Execute(args ...any) error {
	options := args[0].(*Options)

	if err := cmd.configure(options); err != nil {
		return err
	}

	defer cmd.log.Sync()

	if err := cmd.validate(); err != nil {
		return err
	}

	ctx := context.Background()

	s, err := cmd.open(ctx)
	if err != nil {
		return err
	}

	count, err := cmd.find(ctx, s.reconciler)
	if err != nil {
		return err
	}

	cmd.log.Infof("Found %d matching rows", count)

	return nil
}

func (cmd *Find) find(ctx context.Context, r *reconcile.Reconciler) (int, error) {
	header, err := r.ColumnHeaders(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := r.FilterRows(ctx, columns(cmd.columns), cmd.pattern)
	if err != nil {
		return 0, err
	}

	w := csv.NewWriter(cmd.out)
	w.Comma = '\t'

	record := []string{"row"}
	for _, k := range header {
		record = append(record, string(k))
	}

	if err := w.Write(record); err != nil {
		return 0, err
	}

	count := 0
	for ix, row := range rows {
		record := []string{fmt.Sprintf("%v", ix)}
		for _, k := range header {
			v, _ := row.Get(k)
			record = append(record, strings.TrimSpace(v))
		}

		if err := w.Write(record); err != nil {
			return count, err
		}

		count++
	}

	w.Flush()

	return count, w.Error()
}

func (cmd *Find) validate() error {
	if len(columns(cmd.columns)) == 0 {
		return fmt.Errorf("--columns is a required option")
	}

	if cmd.pattern == "" {
		return fmt.Errorf("--pattern is a required option")
	}

	return nil
}
