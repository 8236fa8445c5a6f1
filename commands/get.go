package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

var GetCmd = Get{
	command: command{
		workdir:     "",
		credentials: "",
		tokens:      "",
		spreadsheet: "",
		worksheet:   "",
		debug:       false,
	},

	fields:    "",
	delimiter: `\t`,
	format:    "tsv",
	file:      "",
}

type Get struct {
	command
	fields    string
	delimiter string
	format    string
	file      string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Downloads a Google Sheets worksheet to a local TSV or XLSX file"
}

func (cmd *Get) Usage() string {
	return "--spreadsheet <url|key|name> [--worksheet <id|name>] [--fields <fields>] [--format tsv|xlsx] --file <file>"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] get [options] --spreadsheet <spreadsheet> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads a Google Sheets worksheet to a delimited text or Excel file. The header row")
	fmt.Println("  contains the normalised column names (lower case, without spaces or underscores).")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    goopy-sheets --debug get --credentials "credentials.json" \`)
	fmt.Println(`                             --spreadsheet "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                             --worksheet "Inventory" \`)
	fmt.Println(`                             --fields "name,status" \`)
	fmt.Println(`                             --file "inventory.tsv"`)
	fmt.Println()
	fmt.Println(`    goopy-sheets get --spreadsheet "Inventory" --format xlsx --file "inventory.xlsx"`)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.fields, "fields", cmd.fields, "Comma separated list of columns to download. Defaults to all columns")
	flagset.StringVar(&cmd.delimiter, "delimiter", cmd.delimiter, `Field delimiter for text files. Defaults to '\t'`)
	flagset.StringVar(&cmd.format, "format", cmd.format, "File format (tsv or xlsx). Defaults to tsv")
	flagset.StringVar(&cmd.file, "file", cmd.file, "File name. Defaults to '<spreadsheet> - <yyyy-mm-dd HHmmss>.<format>'")

	return flagset
}

func (cmd *Get) Execute(args ...any) error {
	options := args[0].(*Options)

	if err := cmd.configure(options); err != nil {
		return err
	}

	defer cmd.log.Sync()

	// ... check parameters
	format := strings.ToLower(strings.TrimSpace(cmd.format))
	if format != "tsv" && format != "xlsx" {
		return fmt.Errorf("invalid --format '%v' - expected 'tsv' or 'xlsx'", cmd.format)
	}

	delimiter, err := parseDelimiter(cmd.delimiter)
	if err != nil {
		return err
	}

	ctx := context.Background()

	s, err := cmd.open(ctx)
	if err != nil {
		return err
	}

	file := cmd.file
	if strings.TrimSpace(file) == "" {
		file = fmt.Sprintf("%v - %v.%v", s.reconciler.Spreadsheet(), time.Now().Format("2006-01-02 150405"), format)
	}

	if err := cmd.download(ctx, s.reconciler, file, format, delimiter); err != nil {
		return err
	}

	cmd.log.Infof("Retrieved worksheet to file %s", file)

	return nil
}

type downloader interface {
	Download(ctx context.Context, w io.Writer, fieldnames []string, delimiter rune) error
	DownloadXLSX(ctx context.Context, w io.Writer, fieldnames []string, sheet string) error
}

// download writes the worksheet to a temporary file in the destination directory and
// then renames it, so that the rename never crosses a filesystem boundary.
func (cmd *Get) download(ctx context.Context, r downloader, file, format string, delimiter rune) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+APP+"-*")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	switch format {
	case "xlsx":
		err = r.DownloadXLSX(ctx, tmp, columns(cmd.fields), "Sheet1")
	default:
		err = r.Download(ctx, tmp, columns(cmd.fields), delimiter)
	}

	if err != nil {
		return fmt.Errorf("error downloading worksheet (%w)", err)
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), file)
}

// parseDelimiter accepts a single character or a \t escape. Line breaks and quotes are
// not valid CSV delimiters.
func parseDelimiter(s string) (rune, error) {
	switch s {
	case `\t`, "tab":
		return '\t', nil
	case `\n`, `\r`, "\n", "\r", `"`:
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}

	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("invalid delimiter %q - expected a single character", s)
	}

	r, _ := utf8.DecodeRuneInString(s)

	return r, nil
}
