package commands

import (
	"context"
	"flag"
	"fmt"
)

var AuthoriseCmd = Authorise{
	command: command{},
}

// Authorise runs the OAuth2 authorisation flow and caches the tokens, then checks that
// the spreadsheet and worksheet can be resolved with them.
type Authorise struct {
	command
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises goopy-sheets to access a Google Sheets spreadsheet"
}

func (cmd *Authorise) Usage() string {
	return "--credentials <file> --spreadsheet <url|key|name>"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] authorise [options] --spreadsheet <spreadsheet>\n", APP)
	fmt.Println()
	fmt.Println("  Authorises goopy-sheets to access Google Sheets and Google Drive and stores the")
	fmt.Println("  authorisation tokens in the tokens directory for use by the other commands.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    goopy-sheets authorise --credentials "credentials.json" --spreadsheet "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms"`)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	return cmd.flagset("authorise")
}

func (cmd *Authorise) Execute(args ...any) error {
	options := args[0].(*Options)

	if err := cmd.configure(options); err != nil {
		return err
	}

	defer cmd.log.Sync()

	s, err := cmd.open(context.Background())
	if err != nil {
		return fmt.Errorf("authorisation error (%w)", err)
	}

	cmd.log.Infof("Authorised access to spreadsheet %v (tokens in %v)", s.reconciler.Spreadsheet(), cmd.conf.Tokens)

	return nil
}
