package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/goopy-dev/goopy-sheets/config"
	"github.com/goopy-dev/goopy-sheets/google"
	"github.com/goopy-dev/goopy-sheets/logger"
	"github.com/goopy-dev/goopy-sheets/reconcile"
)

const APP = "goopy-sheets"

type Options struct {
	Config string
	Debug  bool
}

// command holds the options shared by all the spreadsheet commands. Options left
// empty on the command line are taken from the configuration.
type command struct {
	workdir     string
	credentials string
	tokens      string
	spreadsheet string
	worksheet   string
	debug       bool

	conf *config.Config
	log  *zap.SugaredLogger
}

type session struct {
	store      *google.Store
	reconciler *reconcile.Reconciler
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.workdir, "workdir", c.workdir, fmt.Sprintf("Directory for working files (tokens, etc). Defaults to %v", DEFAULT_WORKDIR))
	flagset.StringVar(&c.credentials, "credentials", c.credentials, fmt.Sprintf("Path for the 'credentials.json' file. Defaults to %v", DEFAULT_CREDENTIALS))
	flagset.StringVar(&c.tokens, "tokens", c.tokens, "Directory for the authorisation tokens. Defaults to <workdir>/.google")
	flagset.StringVar(&c.spreadsheet, "spreadsheet", c.spreadsheet, "Spreadsheet URL, key or name")
	flagset.StringVar(&c.worksheet, "worksheet", c.worksheet, "Worksheet ID or name. Defaults to the first worksheet")

	return flagset
}

// configure merges the command line options with the configuration file and creates
// the command logger.
func (c *command) configure(options *Options) error {
	c.debug = options.Debug

	workdir := DEFAULT_WORKDIR
	if c.workdir != "" {
		workdir = c.workdir
	}

	credentials := DEFAULT_CREDENTIALS
	if c.credentials != "" {
		credentials = c.credentials
	}

	conf, err := config.Load(options.Config, workdir, credentials)
	if err != nil {
		return err
	}

	if c.workdir != "" {
		conf.Workdir = c.workdir
	}

	if c.credentials != "" {
		conf.Credentials = c.credentials
	}

	if c.tokens != "" {
		conf.Tokens = c.tokens
	}

	if c.spreadsheet != "" {
		conf.Spreadsheet = c.spreadsheet
	}

	if c.worksheet != "" {
		conf.Worksheet = c.worksheet
	}

	if c.debug {
		conf.Log.Level = "debug"
	}

	l, err := logger.New(conf.Log)
	if err != nil {
		return err
	}

	c.conf = conf
	c.log = l.Sugar()

	return nil
}

// open authorises access to Google Sheets and binds a reconciler to the configured
// spreadsheet and worksheet.
func (c *command) open(ctx context.Context) (*session, error) {
	if strings.TrimSpace(c.conf.Credentials) == "" {
		return nil, fmt.Errorf("--credentials is a required option")
	}

	if strings.TrimSpace(c.conf.Spreadsheet) == "" {
		return nil, fmt.Errorf("--spreadsheet is a required option")
	}

	client, err := google.Authorize(c.conf.Credentials, c.conf.Tokens, os.Stdin, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("authentication/authorization error (%w)", err)
	}

	store, err := google.NewStoreWithClient(ctx, client)
	if err != nil {
		return nil, err
	}

	spreadsheet := spreadsheetKey(c.conf.Spreadsheet)

	c.log.Debugf("spreadsheet:%s  worksheet:%s", spreadsheet, c.conf.Worksheet)

	r, err := reconcile.Open(ctx, store, spreadsheet, c.conf.Worksheet, c.log)
	if err != nil {
		return nil, err
	}

	return &session{
		store:      store,
		reconciler: r,
	}, nil
}

// audit attaches an audit log journal to the session reconciler if a log range is
// configured.
func (c *command) audit(s *session, area string) (*google.AuditLog, error) {
	if area == "" {
		area = c.conf.Audit.Range
	}

	if strings.TrimSpace(area) == "" {
		return nil, nil
	}

	audit, err := google.NewAuditLog(s.store, s.reconciler.Spreadsheet(), area)
	if err != nil {
		return nil, err
	}

	s.reconciler.WithJournal(audit)

	return audit, nil
}

func (c *command) flush(ctx context.Context, audit *google.AuditLog, retention uint) error {
	if audit == nil {
		return nil
	}

	if err := audit.Flush(ctx); err != nil {
		return err
	}

	if retention == 0 {
		retention = c.conf.Audit.Retention
	}

	if retention > 0 {
		pruned, err := audit.Prune(ctx, retention)
		if err != nil {
			return fmt.Errorf("error pruning audit log (%w)", err)
		}

		c.log.Infof("Pruned %d records from audit log", pruned)
	}

	return nil
}

// spreadsheetKey extracts the spreadsheet key from a Google Sheets URL. Anything else is
// returned unchanged and resolved as either a key or a name.
func spreadsheetKey(spreadsheet string) string {
	match := regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`).FindStringSubmatch(strings.TrimSpace(spreadsheet))
	if len(match) < 2 {
		return strings.TrimSpace(spreadsheet)
	}

	return match[1]
}

func columns(s string) []string {
	list := []string{}
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}

	return list
}

func helpOptions(flagset *flag.FlagSet) {
	count := 0
	flag.VisitAll(func(f *flag.Flag) {
		count++
	})

	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})

	if count > 0 {
		fmt.Println()
		fmt.Println("  Options:")
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
		})
	}
}
