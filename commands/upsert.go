package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/goopy-dev/goopy-sheets/reconcile"
)

var UpsertCmd = Upsert{
	command:      command{},
	columns:      "",
	pattern:      "",
	fields:       fields{},
	noInsert:     false,
	dryrun:       false,
	logRange:     "",
	logRetention: 0,
}

// Upsert replaces every worksheet row matching a filter, or inserts a new row if
// nothing matches.
type Upsert struct {
	command
	columns      string
	pattern      string
	fields       fields
	noInsert     bool
	dryrun       bool
	logRange     string
	logRetention uint
}

// fields is a repeatable --set column=value flag.
type fields map[string]any

func (f fields) String() string {
	list := []string{}
	for k, v := range f {
		list = append(list, fmt.Sprintf("%v=%v", k, v))
	}

	return strings.Join(list, ",")
}

func (f fields) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return fmt.Errorf("invalid field '%s' - expected <column>=<value>", s)
	}

	f[strings.TrimSpace(k)] = v

	return nil
}

func (cmd *Upsert) Name() string {
	return "upsert"
}

func (cmd *Upsert) Description() string {
	return "Replaces the worksheet rows matching a filter or inserts a new row"
}

func (cmd *Upsert) Usage() string {
	return "--spreadsheet <url|key|name> --columns <columns> --pattern <regex> --set <column=value> ..."
}

func (cmd *Upsert) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] upsert [options] --spreadsheet <spreadsheet> --columns <columns> --pattern <regex> --set <column=value> ...\n", APP)
	fmt.Println()
	fmt.Println("  Replaces every row for which any of the --columns cells starts with a match for")
	fmt.Println("  --pattern with the --set fields. Columns without a --set field are cleared. If no")
	fmt.Println("  row matches the fields are inserted as a new row unless --no-insert is specified.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    goopy-sheets upsert --spreadsheet "Inventory" \`)
	fmt.Println(`                        --columns "serial" --pattern "SN-0042$" \`)
	fmt.Println(`                        --set "serial=SN-0042" --set "owner=carol" --set "status=assigned"`)
	fmt.Println()
}

func (cmd *Upsert) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("upsert")

	flagset.StringVar(&cmd.columns, "columns", cmd.columns, "Comma separated list of the columns to match")
	flagset.StringVar(&cmd.pattern, "pattern", cmd.pattern, "Regular expression matched against the start of each cell")
	flagset.Var(cmd.fields, "set", "Row field as <column>=<value>. May be repeated")
	flagset.BoolVar(&cmd.noInsert, "no-insert", cmd.noInsert, "Does not insert a new row if no row matches")
	flagset.BoolVar(&cmd.dryrun, "dryrun", cmd.dryrun, "Logs the changes without updating the worksheet")
	flagset.StringVar(&cmd.logRange, "log-range", cmd.logRange, "Audit log worksheet range e.g. 'Log!A1:E'")
	flagset.UintVar(&cmd.logRetention, "log-retention", cmd.logRetention, "Audit log records older than 'log-retention' days are pruned. Defaults to the configured retention")

	return flagset
}

func (cmd *Upsert) Execute(args ...any) error {
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

	opts := reconcile.UpsertOptions{
		Insert: !cmd.noInsert,
		DryRun: cmd.dryrun,
	}

	row, err := s.reconciler.UpdateSheetByRow(ctx, columns(cmd.columns), cmd.pattern, cmd.fields, opts)
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

func (cmd *Upsert) validate() error {
	if len(columns(cmd.columns)) == 0 {
		return fmt.Errorf("--columns is a required option")
	}

	if cmd.pattern == "" {
		return fmt.Errorf("--pattern is a required option")
	}

	if len(cmd.fields) == 0 {
		return fmt.Errorf("at least one --set field is required")
	}

	return nil
}
