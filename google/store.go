package google

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/goopy-dev/goopy-sheets/reconcile"
)

const SPREADSHEET = "application/vnd.google-apps.spreadsheet"

// Store implements reconcile.Store on top of the Google Sheets and Google Drive APIs.
//
// The first row of a worksheet is the header row. Data rows follow it and end at the
// first blank row. Worksheets are identified by their numeric sheet ID, with an empty
// ID denoting the first worksheet in the spreadsheet.
type Store struct {
	sheets *sheets.Service
	drive  *drive.Service
}

func NewStore(sheets *sheets.Service, drive *drive.Service) *Store {
	return &Store{
		sheets: sheets,
		drive:  drive,
	}
}

// NewStoreWithClient creates the Sheets and Drive services for an authorised HTTP client.
func NewStoreWithClient(ctx context.Context, client *http.Client) (*Store, error) {
	s, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%w)", err)
	}

	d, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create new Drive client (%w)", err)
	}

	return NewStore(s, d), nil
}

func (s *Store) Headers(ctx context.Context, spreadsheet, worksheet string) ([]reconcile.ColumnKey, error) {
	sheet, err := s.getSheet(ctx, spreadsheet, worksheet)
	if err != nil {
		return nil, err
	}

	return s.headers(ctx, spreadsheet, sheet.Title)
}

func (s *Store) Rows(ctx context.Context, spreadsheet, worksheet string) ([]reconcile.Row, error) {
	sheet, err := s.getSheet(ctx, spreadsheet, worksheet)
	if err != nil {
		return nil, err
	}

	response, err := s.sheets.Spreadsheets.Values.Get(spreadsheet, quote(sheet.Title)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve data from sheet (%w)", err)
	}

	if len(response.Values) == 0 {
		return nil, fmt.Errorf("%w: '%s' has no header row", reconcile.ErrEmptySheet, sheet.Title)
	}

	keys, err := makeIndex(response.Values[0])
	if err != nil {
		return nil, err
	}

	right, err := excelize.ColumnNumberToName(len(keys))
	if err != nil {
		return nil, err
	}

	rows := []reconcile.Row{}
	for i, record := range response.Values[1:] {
		if blank(record) {
			break
		}

		n := i + 2
		row := reconcile.Row{
			ID:     fmt.Sprintf("%s#%s!A%d:%s%d", spreadsheet, quote(sheet.Title), n, right, n),
			Keys:   keys,
			Values: make(map[reconcile.ColumnKey]string, len(keys)),
		}

		for j, k := range keys {
			v := ""
			if j < len(record) && record[j] != nil {
				v = fmt.Sprintf("%v", record[j])
			}

			row.Values[k] = v
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// UpdateRow replaces the values of a row previously returned by Rows. Columns that are
// not in the replacement are cleared. Only the cells whose value changes are written, so
// formulas and text in the untouched cells are left as they are.
func (s *Store) UpdateRow(ctx context.Context, row reconcile.Row, replacement map[reconcile.ColumnKey]string) (*reconcile.Row, error) {
	spreadsheet, area, ok := strings.Cut(row.ID, "#")
	if !ok || spreadsheet == "" || area == "" {
		return nil, fmt.Errorf("invalid row ID '%s'", row.ID)
	}

	match := regexp.MustCompile(`^(.+)!\$?[a-zA-Z]+\$?([0-9]+)(?::.*)?$`).FindStringSubmatch(area)
	if len(match) < 3 {
		return nil, fmt.Errorf("invalid row ID '%s'", row.ID)
	}

	title := match[1]
	n := match[2]

	record, err := makeRecord(row.Keys, replacement)
	if err != nil {
		return nil, err
	}

	rq := sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             []*sheets.ValueRange{},
	}

	for i, k := range row.Keys {
		if v := record[i].(string); v != row.Values[k] {
			column, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return nil, err
			}

			cell := fmt.Sprintf("%s!%s%s", title, column, n)
			rq.Data = append(rq.Data, &sheets.ValueRange{
				Range:  cell,
				Values: [][]any{{v}},
			})
		}
	}

	if len(rq.Data) > 0 {
		if _, err := s.sheets.Spreadsheets.Values.BatchUpdate(spreadsheet, &rq).Context(ctx).Do(); err != nil {
			return nil, err
		}
	}

	return makeRow(row.ID, row.Keys, record), nil
}

// InsertRow appends a row after the last data row of the worksheet.
func (s *Store) InsertRow(ctx context.Context, spreadsheet, worksheet string, fields map[reconcile.ColumnKey]string) (*reconcile.Row, error) {
	rows, err := s.InsertRows(ctx, spreadsheet, worksheet, []map[reconcile.ColumnKey]string{fields})
	if err != nil {
		return nil, err
	} else if len(rows) != 1 {
		return nil, fmt.Errorf("expected 1 inserted row, got %v", len(rows))
	}

	return &rows[0], nil
}

// InsertRows appends rows after the last data row of the worksheet with a single
// Values.Append request. Either every record is valid and sent or nothing is.
func (s *Store) InsertRows(ctx context.Context, spreadsheet, worksheet string, records []map[reconcile.ColumnKey]string) ([]reconcile.Row, error) {
	if len(records) == 0 {
		return []reconcile.Row{}, nil
	}

	sheet, err := s.getSheet(ctx, spreadsheet, worksheet)
	if err != nil {
		return nil, err
	}

	keys, err := s.headers(ctx, spreadsheet, sheet.Title)
	if err != nil {
		return nil, err
	}

	values := sheets.ValueRange{
		Values: [][]any{},
	}

	for _, fields := range records {
		record, err := makeRecord(keys, fields)
		if err != nil {
			return nil, err
		}

		values.Values = append(values.Values, record)
	}

	response, err := s.sheets.Spreadsheets.Values.Append(spreadsheet, quote(sheet.Title)+"!A1", &values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("error appending rows to Google Sheets (%w)", err)
	}

	updated := ""
	if response.Updates != nil {
		updated = response.Updates.UpdatedRange
	}

	ids := rowIDs(spreadsheet, updated, len(values.Values))
	rows := make([]reconcile.Row, 0, len(values.Values))
	for i, record := range values.Values {
		rows = append(rows, *makeRow(ids[i], keys, record))
	}

	return rows, nil
}

func (s *Store) LookupSpreadsheet(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("missing spreadsheet key")
	}

	if _, err := s.sheets.Spreadsheets.Get(key).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return err
	}

	return nil
}

// SpreadsheetKeyByName searches Google Drive for spreadsheets with exactly the given name.
func (s *Store) SpreadsheetKeyByName(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escape(name), SPREADSHEET)
	page := ""
	matches := []string{}

	for {
		call := s.drive.Files.List().
			Q(q).
			Fields("nextPageToken, files(id, name)").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true)

		if page != "" {
			call.PageToken(page)
		}

		files, err := call.Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to search Google Drive (%w)", err)
		}

		for _, f := range files.Files {
			if f.Name == name {
				matches = append(matches, f.Id)
			}
		}

		if page = files.NextPageToken; page == "" {
			break
		}
	}

	switch len(matches) {
	case 0:
		return "", &reconcile.NameResolutionError{Kind: "spreadsheet", Name: name, Err: reconcile.ErrNotFound}

	case 1:
		return matches[0], nil

	default:
		return "", &reconcile.NameResolutionError{Kind: "spreadsheet", Name: name, Matches: len(matches), Err: reconcile.ErrAmbiguous}
	}
}

func (s *Store) LookupWorksheet(ctx context.Context, spreadsheet, id string) error {
	_, err := s.getSheet(ctx, spreadsheet, id)

	return err
}

func (s *Store) WorksheetIDByName(ctx context.Context, spreadsheet, name string) (string, error) {
	ss, err := s.getSpreadsheet(ctx, spreadsheet)
	if err != nil {
		return "", err
	}

	title := spreadsheet
	if ss.Properties != nil {
		title = ss.Properties.Title
	}

	matches := []*sheets.SheetProperties{}
	for _, sheet := range ss.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == name {
			matches = append(matches, sheet.Properties)
		}
	}

	switch len(matches) {
	case 0:
		return "", &reconcile.NameResolutionError{Kind: "worksheet", Name: name, Spreadsheet: title, Err: reconcile.ErrNotFound}

	case 1:
		return strconv.FormatInt(matches[0].SheetId, 10), nil

	default:
		return "", &reconcile.NameResolutionError{Kind: "worksheet", Name: name, Spreadsheet: title, Matches: len(matches), Err: reconcile.ErrAmbiguous}
	}
}

// Clear clears every data row of a worksheet, leaving the header row in place. Returns
// the cleared range.
func (s *Store) Clear(ctx context.Context, spreadsheet, worksheet string) (string, error) {
	sheet, err := s.getSheet(ctx, spreadsheet, worksheet)
	if err != nil {
		return "", err
	}

	rows := int64(0)
	if sheet.GridProperties != nil {
		rows = sheet.GridProperties.RowCount
	}

	if rows < 2 {
		return "", nil
	}

	area := fmt.Sprintf("%v!2:%v", quote(sheet.Title), rows)
	rq := sheets.BatchClearValuesRequest{
		Ranges: []string{area},
	}

	if _, err := s.sheets.Spreadsheets.Values.BatchClear(spreadsheet, &rq).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("error clearing worksheet (%w)", err)
	}

	return area, nil
}

func (s *Store) getSpreadsheet(ctx context.Context, spreadsheet string) (*sheets.Spreadsheet, error) {
	ss, err := s.sheets.Spreadsheets.Get(spreadsheet).
		Fields("spreadsheetId", "properties.title", "sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spreadsheet (%w)", err)
	}

	return ss, nil
}

func (s *Store) getSheet(ctx context.Context, spreadsheet, worksheet string) (*sheets.SheetProperties, error) {
	ss, err := s.getSpreadsheet(ctx, spreadsheet)
	if err != nil {
		return nil, err
	}

	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return nil, fmt.Errorf("spreadsheet %s has no worksheets", spreadsheet)
	}

	if worksheet == "" {
		return ss.Sheets[0].Properties, nil
	}

	id, err := strconv.ParseInt(worksheet, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid worksheet ID '%s'", worksheet)
	}

	for _, sheet := range ss.Sheets {
		if sheet.Properties != nil && sheet.Properties.SheetId == id {
			return sheet.Properties, nil
		}
	}

	return nil, fmt.Errorf("%w: no worksheet with ID %v in spreadsheet %s", reconcile.ErrNotFound, id, spreadsheet)
}

func (s *Store) headers(ctx context.Context, spreadsheet, title string) ([]reconcile.ColumnKey, error) {
	response, err := s.sheets.Spreadsheets.Values.Get(spreadsheet, quote(title)+"!1:1").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve column headers from sheet (%w)", err)
	}

	if len(response.Values) == 0 {
		return nil, fmt.Errorf("%w: '%s' has no header row", reconcile.ErrEmptySheet, title)
	}

	return makeIndex(response.Values[0])
}

func makeIndex(header []any) ([]reconcile.ColumnKey, error) {
	keys := []reconcile.ColumnKey{}
	index := map[reconcile.ColumnKey]bool{}

	for _, v := range header {
		h := fmt.Sprintf("%v", v)
		k := reconcile.Normalize(h)
		if k == "" {
			break
		}

		if index[k] {
			return nil, fmt.Errorf("%w '%s'", reconcile.ErrDuplicateColumn, h)
		}

		index[k] = true
		keys = append(keys, k)
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: missing/invalid header row", reconcile.ErrEmptySheet)
	}

	return keys, nil
}

func makeRecord(keys []reconcile.ColumnKey, fields map[reconcile.ColumnKey]string) ([]any, error) {
	index := make(map[reconcile.ColumnKey]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}

	record := make([]any, len(keys))
	for i := range record {
		record[i] = ""
	}

	for k, v := range fields {
		ix, ok := index[k]
		if !ok {
			return nil, fmt.Errorf("%w '%s'", reconcile.ErrUnknownColumn, k)
		}

		record[ix] = v
	}

	return record, nil
}

func makeRow(id string, keys []reconcile.ColumnKey, record []any) *reconcile.Row {
	row := reconcile.Row{
		ID:     id,
		Keys:   keys,
		Values: make(map[reconcile.ColumnKey]string, len(keys)),
	}

	for i, k := range keys {
		row.Values[k] = fmt.Sprintf("%v", record[i])
	}

	return &row
}

// rowIDs splits an appended range such as 'Sheet1'!A6:C8 into one row ID per row. The
// IDs are left empty if the range cannot be parsed.
func rowIDs(spreadsheet, updated string, count int) []string {
	ids := make([]string, count)

	match := regexp.MustCompile(`^(.+)!([a-zA-Z]+)([0-9]+):([a-zA-Z]+)([0-9]+)$`).FindStringSubmatch(updated)
	if len(match) < 6 {
		return ids
	}

	top, _ := strconv.Atoi(match[3])
	bottom, _ := strconv.Atoi(match[5])
	if bottom-top+1 != count {
		return ids
	}

	for i := range ids {
		ids[i] = fmt.Sprintf("%s#%s!%s%d:%s%d", spreadsheet, match[1], match[2], top+i, match[4], top+i)
	}

	return ids
}

func blank(record []any) bool {
	for _, v := range record {
		if v != nil && strings.TrimSpace(fmt.Sprintf("%v", v)) != "" {
			return false
		}
	}

	return true
}

func quote(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func escape(name string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(name)
}
