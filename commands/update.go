package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/goopy-dev/goopy-sheets/reconcile"
)

var UpdateCmd = Update{
	command:      command{},
	columns:      "",
	pattern:      "",
	column:       "",
	value:        "",
	onlyEmpty:    false,
	dryrun:       false,
	logRange:     "",
	logRetention: 0,
}

// Update sets a single column of every worksheet row matching a filter.
type Update struct {
	command
	columns      string
	pattern      string
	column       string
	value        string
	onlyEmpty    bool
	dryrun       bool
	logRange     string
	logRetention uint
}

func (cmd *Update) Name() string {
	return "update"
}

func (cmd *Update) Description() string {
	return "Sets a column in every worksheet row matching a filter"
}

func (cmd *Update) Usage() string {
	return "--spreadsheet <url|key|name> --columns <columns> --pattern <regex> --column <column> --value <value>"
}

func (cmd *Update) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] update [options] --spreadsheet <spreadsheet> --columns <columns> --pattern <regex> --column <column> --value <value>\n", APP)
	fmt.Println()
	fmt.Println("  Sets the --column cell to --value in every row for which any of the --columns cells")
	fmt.Println("  starts with a match for --pattern. With --only-empty rows with a non-empty target")
	fmt.Println("  cell are left unchanged. With --dryrun the changes are logged but not written.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    goopy-sheets update --spreadsheet "Inventory" \`)
	fmt.Println(`                        --columns "owner" --pattern "alice" \`)
	fmt.Println(`                        --column "status" --value "returned" \`)
	fmt.Println(`                        --only-empty --log-range "Log!A1:E"`)
	fmt.Println()
}

func (cmd *Update) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("update")

	flagset.StringVar(&cmd.columns, "columns", cmd.columns, "Comma separated list of the columns to match")
	flagset.StringVar(&cmd.pattern, "pattern", cmd.pattern, "Regular expression matched against the start of each cell")
	flagset.StringVar(&cmd.column, "column", cmd.column, "Column to update")
	flagset.StringVar(&cmd.value, "value", cmd.value, "New value for the updated column")
	flagset.BoolVar(&cmd.onlyEmpty, "only-empty", cmd.onlyEmpty, "Only updates empty cells")
	flagset.BoolVar(&cmd.dryrun, "dryrun", cmd.dryrun, "Logs the changes without updating the worksheet")
	flagset.StringVar(&cmd.logRange, "log-range", cmd.logRange, "Audit log worksheet range e.g. 'Log!A1:E'")
	flagset.UintVar(&cmd.logRetention, "log-retention", cmd.logRetention, "Audit log records older than 'log-retention' days are pruned. Defaults to the configured retention")

	return flagset
}

func (cmd *Update) Execute(args ...any) error {
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

	audit, err := cmd.audit(s, cmd.logRange)
	if err != nil {
		return err
	}

	opts := reconcile.UpdateOptions{
		OnlyUpdateEmptyCells: cmd.onlyEmpty,
		DryRun:               cmd.dryrun,
	}

	row, err := s.reconciler.UpdateSheet(ctx, columns(cmd.columns), cmd.pattern, cmd.column, cmd.value, opts)
	if err != nil {
		if ferr := cmd.flush(ctx, audit, cmd.logRetention); ferr != nil {
			cmd.log.Warnf("%v", ferr)
		}

		return err
	}

	if err := cmd.flush(ctx, audit, cmd.logRetention); err != nil {
		return err
	}

	switch {
	case cmd.dryrun:
		cmd.log.Infof("Dry run - worksheet not updated")
	case row == nil:
		cmd.log.Infof("No rows updated")
	default:
		cmd.log.Infof("Updated worksheet (last updated row %v)", row.ID)
	}

	return nil
}

func (cmd *Update) validate() error {
	if len(columns(cmd.columns)) == 0 {
		return fmt.Errorf("--columns is a required option")
	}

	if cmd.pattern == "" {
		return fmt.Errorf("--pattern is a required option")
	}

	if strings.TrimSpace(cmd.column) == "" {
		return fmt.Errorf("--column is a required option")
	}

	return nil
}
