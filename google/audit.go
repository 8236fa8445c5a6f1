package google

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/goopy-dev/goopy-sheets/reconcile"
)

// AuditLog is a reconcile.Journal that appends a record of every applied change to a
// 'log' worksheet range e.g. 'Log!A1:E'. Changes are buffered until Flush.
type AuditLog struct {
	store       *Store
	spreadsheet string
	area        string
	changes     []reconcile.Change
}

var columns = map[string]int{
	"timestamp": 0,
	"action":    1,
	"row":       2,
	"before":    3,
	"after":     4,
}

func NewAuditLog(store *Store, spreadsheet, area string) (*AuditLog, error) {
	if match := regexp.MustCompile(`(.+?)!.*`).FindStringSubmatch(strings.TrimSpace(area)); len(match) < 2 {
		return nil, fmt.Errorf("invalid log-range '%s' - expected something like 'Log!A1:E'", area)
	}

	return &AuditLog{
		store:       store,
		spreadsheet: spreadsheet,
		area:        area,
	}, nil
}

func (l *AuditLog) Record(change reconcile.Change) {
	l.changes = append(l.changes, change)
}

// Flush appends the buffered changes to the log worksheet. The columns are matched by
// header name if the log range has a header row, otherwise the default column order is
// used.
func (l *AuditLog) Flush(ctx context.Context) error {
	if len(l.changes) == 0 {
		return nil
	}

	response, err := l.store.sheets.Spreadsheets.Values.Get(l.spreadsheet, l.area).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to retrieve column headers from log sheet (%w)", err)
	}

	index := logIndex(response.Values)

	width := 0
	for _, v := range index {
		if v >= width {
			width = v + 1
		}
	}

	rows := sheets.ValueRange{
		Values: [][]any{},
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	for _, change := range l.changes {
		row := make([]any, width)
		for i := range row {
			row[i] = ""
		}

		_, area, _ := strings.Cut(change.Row.ID, "#")
		values := map[string]string{
			"timestamp": timestamp,
			"action":    string(change.Action),
			"row":       area,
			"before":    reconcile.FormatRecord(change.Old),
			"after":     reconcile.FormatRecord(change.New),
		}

		for k, v := range values {
			if ix, ok := index[k]; ok {
				row[ix] = v
			}
		}

		rows.Values = append(rows.Values, row)
	}

	if _, err := l.store.sheets.Spreadsheets.Values.Append(l.spreadsheet, l.area, &rows).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("error writing log to Google Sheets (%w)", err)
	}

	l.changes = nil

	return nil
}

// Prune deletes the log records with a timestamp more than 'retention' days old.
func (l *AuditLog) Prune(ctx context.Context, retention uint) (int, error) {
	ss, err := l.store.getSpreadsheet(ctx, l.spreadsheet)
	if err != nil {
		return 0, err
	}

	sheet, err := logSheet(ss, l.area)
	if err != nil {
		return 0, err
	}

	response, err := l.store.sheets.Spreadsheets.Values.Get(l.spreadsheet, l.area).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to retrieve data from log sheet (%w)", err)
	}

	before := time.Now().
		In(time.Local).
		Add(time.Hour * time.Duration(-24*(int(retention)-1))).
		Truncate(24 * time.Hour)

	cutoff := time.Date(before.Year(), before.Month(), before.Day(), 0, 0, 0, 0, before.Location())
	offset := top(l.area) - 1
	list := []int{}
	deleted := 0

	ix, ok := logIndex(response.Values)["timestamp"]
	if !ok {
		return 0, nil
	}

	for row, record := range response.Values {
		if ix >= len(record) {
			continue
		}

		timestamp, err := time.ParseInLocation("2006-01-02 15:04:05", fmt.Sprintf("%v", record[ix]), time.Local)
		if err == nil && timestamp.Before(cutoff) {
			list = append(list, row+offset)
		}
	}

	if len(list) == 0 {
		return 0, nil
	}

	sort.Ints(list)

	ranges := [][2]int{}
	start := list[0]
	last := list[0]
	for _, row := range list[1:] {
		if row != last+1 {
			ranges = append(ranges, [2]int{start, last})
			start = row
		}

		last = row
	}
	ranges = append(ranges, [2]int{start, last})

	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{},
	}

	for _, r := range ranges {
		rq.Requests = append(rq.Requests, &sheets.Request{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheet.SheetId,
					Dimension:  "ROWS",
					StartIndex: int64(r[0] - deleted),
					EndIndex:   int64(r[1] - deleted + 1),
				},
			},
		})

		deleted += r[1] - r[0] + 1
	}

	if _, err := l.store.sheets.Spreadsheets.BatchUpdate(l.spreadsheet, &rq).Context(ctx).Do(); err != nil {
		return 0, err
	}

	return deleted, nil
}

// logIndex maps the log columns to their position in the log range. The first row is a
// header row if it names any of the log columns, otherwise the default order is used.
func logIndex(values [][]any) map[string]int {
	if len(values) == 0 {
		return columns
	}

	index := map[string]int{}
	for i, v := range values[0] {
		k := string(reconcile.Normalize(fmt.Sprintf("%v", v)))
		if _, ok := columns[k]; ok {
			index[k] = i
		}
	}

	if len(index) == 0 {
		return columns
	}

	return index
}

func logSheet(spreadsheet *sheets.Spreadsheet, area string) (*sheets.SheetProperties, error) {
	name := regexp.MustCompile(`(.+?)!.*`).FindStringSubmatch(area)[1]
	name = strings.Trim(name, "'")

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && strings.EqualFold(strings.TrimSpace(sheet.Properties.Title), strings.TrimSpace(name)) {
			return sheet.Properties, nil
		}
	}

	return nil, fmt.Errorf("unable to identify worksheet for '%s'", area)
}

// top returns the first row number of an A1 range e.g. 2 for 'Log!A2:E'. Defaults to 1.
func top(area string) int {
	match := regexp.MustCompile(`!\$?[a-zA-Z]*\$?([0-9]+)`).FindStringSubmatch(area)
	if len(match) < 2 {
		return 1
	}

	if row, err := strconv.Atoi(match[1]); err == nil && row > 0 {
		return row
	}

	return 1
}
