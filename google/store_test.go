package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/goopy-dev/goopy-sheets/reconcile"
)

type fake struct {
	values  [][]any
	updates map[string][]any
	appends [][]any
	files   []map[string]string
	log     [][]any
	deleted []*sheets.DimensionRange
	cleared []string
}

func (f *fake) ServeHTTP(w http.ResponseWriter, rq *http.Request) {
	path := rq.URL.Path
	reply := func(v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	switch {
	case strings.HasPrefix(path, "/drive/v3/files"):
		q := rq.URL.Query().Get("q")
		files := []map[string]string{}
		for _, file := range f.files {
			if strings.Contains(q, "name = '"+file["name"]+"'") {
				files = append(files, file)
			}
		}
		reply(map[string]any{"files": files})

	case path == "/v4/spreadsheets/1BxiMVs0XRA5":
		reply(map[string]any{
			"spreadsheetId": "1BxiMVs0XRA5",
			"properties":    map[string]any{"title": "Inventory"},
			"sheets": []any{
				map[string]any{"properties": map[string]any{"sheetId": 0, "title": "Sheet1", "gridProperties": map[string]any{"rowCount": 1000}}},
				map[string]any{"properties": map[string]any{"sheetId": 1572, "title": "Archive"}},
				map[string]any{"properties": map[string]any{"sheetId": 1573, "title": "Archive"}},
				map[string]any{"properties": map[string]any{"sheetId": 1574, "title": "Log"}},
			},
		})

	case path == "/v4/spreadsheets/1BxiMVs0XRA5/values:batchUpdate":
		var batch sheets.BatchUpdateValuesRequest
		json.NewDecoder(rq.Body).Decode(&batch)
		for _, vr := range batch.Data {
			f.updates[vr.Range] = vr.Values[0]
		}
		reply(map[string]any{"spreadsheetId": "1BxiMVs0XRA5", "totalUpdatedCells": len(batch.Data)})

	case path == "/v4/spreadsheets/1BxiMVs0XRA5/values:batchClear":
		var batch sheets.BatchClearValuesRequest
		json.NewDecoder(rq.Body).Decode(&batch)
		f.cleared = append(f.cleared, batch.Ranges...)
		reply(map[string]any{"spreadsheetId": "1BxiMVs0XRA5", "clearedRanges": batch.Ranges})

	case path == "/v4/spreadsheets/1BxiMVs0XRA5:batchUpdate":
		var batch sheets.BatchUpdateSpreadsheetRequest
		json.NewDecoder(rq.Body).Decode(&batch)
		for _, r := range batch.Requests {
			f.deleted = append(f.deleted, r.DeleteDimension.Range)
		}
		reply(map[string]any{"spreadsheetId": "1BxiMVs0XRA5"})

	case strings.HasPrefix(path, "/v4/spreadsheets/1BxiMVs0XRA5/values/"):
		area := strings.TrimPrefix(path, "/v4/spreadsheets/1BxiMVs0XRA5/values/")

		switch {
		case rq.Method == http.MethodGet && area == "'Sheet1'!1:1":
			reply(map[string]any{"range": area, "values": f.values[:1]})

		case rq.Method == http.MethodGet && area == "'Sheet1'":
			reply(map[string]any{"range": area, "values": f.values})

		case rq.Method == http.MethodGet && area == "Log!A1:E":
			reply(map[string]any{"range": area, "values": f.log})

		case rq.Method == http.MethodPost && strings.HasSuffix(area, ":append"):
			var vr sheets.ValueRange
			json.NewDecoder(rq.Body).Decode(&vr)
			f.appends = append(f.appends, vr.Values...)
			reply(map[string]any{"updates": map[string]any{"updatedRange": fmt.Sprintf("Sheet1!A6:C%d", 5+len(vr.Values))}})

		default:
			http.NotFound(w, rq)
		}

	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`))
	}
}

func setup(t *testing.T) (*Store, *fake) {
	f := fake{
		values: [][]any{
			{"Name", "Status", "Card Number"},
			{"alice", "", "6001001"},
			{"bob", "done"},
			{"carol", "new", "6001003"},
			{},
			{"dave", "orphaned", "6001004"},
		},
		updates: map[string][]any{},
		files: []map[string]string{
			{"id": "1BxiMVs0XRA5", "name": "Inventory"},
			{"id": "2CyjNWt1YSB6", "name": "Payroll"},
			{"id": "3DzkOXu2ZTC7", "name": "Payroll"},
		},
	}

	srv := httptest.NewServer(&f)
	t.Cleanup(srv.Close)

	ctx := context.Background()

	s, err := sheets.NewService(ctx, option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("Error creating Sheets service (%v)", err)
	}

	d, err := drive.NewService(ctx, option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/drive/v3/"))
	if err != nil {
		t.Fatalf("Error creating Drive service (%v)", err)
	}

	return NewStore(s, d), &f
}

func TestRows(t *testing.T) {
	expected := []reconcile.Row{
		{
			ID:     "1BxiMVs0XRA5#'Sheet1'!A2:C2",
			Keys:   []reconcile.ColumnKey{"name", "status", "cardnumber"},
			Values: map[reconcile.ColumnKey]string{"name": "alice", "status": "", "cardnumber": "6001001"},
		},
		{
			ID:     "1BxiMVs0XRA5#'Sheet1'!A3:C3",
			Keys:   []reconcile.ColumnKey{"name", "status", "cardnumber"},
			Values: map[reconcile.ColumnKey]string{"name": "bob", "status": "done", "cardnumber": ""},
		},
		{
			ID:     "1BxiMVs0XRA5#'Sheet1'!A4:C4",
			Keys:   []reconcile.ColumnKey{"name", "status", "cardnumber"},
			Values: map[reconcile.ColumnKey]string{"name": "carol", "status": "new", "cardnumber": "6001003"},
		},
	}

	store, _ := setup(t)

	rows, err := store.Rows(context.Background(), "1BxiMVs0XRA5", "0")
	if err != nil {
		t.Fatalf("Unexpected error returned from Rows (%v)", err)
	}

	if !reflect.DeepEqual(rows, expected) {
		t.Errorf("Incorrect rows\n   expected: %v\n   got:      %v\n", expected, rows)
	}
}

func TestHeaders(t *testing.T) {
	expected := []reconcile.ColumnKey{"name", "status", "cardnumber"}

	store, _ := setup(t)

	headers, err := store.Headers(context.Background(), "1BxiMVs0XRA5", "")
	if err != nil {
		t.Fatalf("Unexpected error returned from Headers (%v)", err)
	}

	if !reflect.DeepEqual(headers, expected) {
		t.Errorf("Incorrect headers\n   expected: %v\n   got:      %v\n", expected, headers)
	}
}

func TestHeadersWithDuplicateColumn(t *testing.T) {
	store, f := setup(t)
	f.values[0] = []any{"Name", "Status", "STATUS"}

	if _, err := store.Headers(context.Background(), "1BxiMVs0XRA5", ""); !errors.Is(err, reconcile.ErrDuplicateColumn) {
		t.Errorf("Expected ErrDuplicateColumn, got %v", err)
	}
}

func TestUpdateRow(t *testing.T) {
	store, f := setup(t)

	rows, err := store.Rows(context.Background(), "1BxiMVs0XRA5", "0")
	if err != nil {
		t.Fatalf("Unexpected error returned from Rows (%v)", err)
	}

	row, err := store.UpdateRow(context.Background(), rows[1], map[reconcile.ColumnKey]string{"name": "bob", "status": "X"})
	if err != nil {
		t.Fatalf("Unexpected error returned from UpdateRow (%v)", err)
	}

	expected := map[string][]any{
		"'Sheet1'!B3": {"X"},
	}

	if !reflect.DeepEqual(f.updates, expected) {
		t.Errorf("Incorrect update\n   expected: %v\n   got:      %v\n", expected, f.updates)
	}

	if row.ID != rows[1].ID || row.Values["status"] != "X" || row.Values["cardnumber"] != "" {
		t.Errorf("Incorrect updated row %v", row)
	}
}

func TestUpdateRowOnlyWritesChangedCells(t *testing.T) {
	store, f := setup(t)

	rows, err := store.Rows(context.Background(), "1BxiMVs0XRA5", "0")
	if err != nil {
		t.Fatalf("Unexpected error returned from Rows (%v)", err)
	}

	// unchanged 'name', cleared 'card number'
	if _, err := store.UpdateRow(context.Background(), rows[2], map[reconcile.ColumnKey]string{"name": "carol", "status": "done"}); err != nil {
		t.Fatalf("Unexpected error returned from UpdateRow (%v)", err)
	}

	expected := map[string][]any{
		"'Sheet1'!B4": {"done"},
		"'Sheet1'!C4": {""},
	}

	if !reflect.DeepEqual(f.updates, expected) {
		t.Errorf("Incorrect update\n   expected: %v\n   got:      %v\n", expected, f.updates)
	}

	// no-op update
	f.updates = map[string][]any{}
	if _, err := store.UpdateRow(context.Background(), rows[0], rows[0].Record()); err != nil {
		t.Fatalf("Unexpected error returned from UpdateRow (%v)", err)
	}

	if len(f.updates) != 0 {
		t.Errorf("Expected no updates for unchanged row, got %v", f.updates)
	}
}

func TestUpdateRowWithUnknownColumn(t *testing.T) {
	store, f := setup(t)

	rows, _ := store.Rows(context.Background(), "1BxiMVs0XRA5", "0")

	_, err := store.UpdateRow(context.Background(), rows[0], map[reconcile.ColumnKey]string{"colour": "red"})
	if !errors.Is(err, reconcile.ErrUnknownColumn) {
		t.Errorf("Expected ErrUnknownColumn, got %v", err)
	}

	if len(f.updates) != 0 {
		t.Errorf("Expected no updates, got %v", f.updates)
	}
}

func TestInsertRow(t *testing.T) {
	store, f := setup(t)

	row, err := store.InsertRow(context.Background(), "1BxiMVs0XRA5", "0", map[reconcile.ColumnKey]string{"name": "eve", "cardnumber": "6001005"})
	if err != nil {
		t.Fatalf("Unexpected error returned from InsertRow (%v)", err)
	}

	expected := [][]any{{"eve", "", "6001005"}}
	if !reflect.DeepEqual(f.appends, expected) {
		t.Errorf("Incorrect append\n   expected: %v\n   got:      %v\n", expected, f.appends)
	}

	if row.ID != "1BxiMVs0XRA5#Sheet1!A6:C6" {
		t.Errorf("Incorrect row ID - expected:%v, got:%v", "1BxiMVs0XRA5#Sheet1!A6:C6", row.ID)
	}
}

func TestInsertRows(t *testing.T) {
	store, f := setup(t)

	records := []map[reconcile.ColumnKey]string{
		{"name": "eve", "cardnumber": "6001005"},
		{"name": "frank", "status": "new"},
		{"name": "grace"},
	}

	rows, err := store.InsertRows(context.Background(), "1BxiMVs0XRA5", "0", records)
	if err != nil {
		t.Fatalf("Unexpected error returned from InsertRows (%v)", err)
	}

	expected := [][]any{
		{"eve", "", "6001005"},
		{"frank", "new", ""},
		{"grace", "", ""},
	}

	if !reflect.DeepEqual(f.appends, expected) {
		t.Errorf("Incorrect append\n   expected: %v\n   got:      %v\n", expected, f.appends)
	}

	ids := []string{}
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	expectedIDs := []string{"1BxiMVs0XRA5#Sheet1!A6:C6", "1BxiMVs0XRA5#Sheet1!A7:C7", "1BxiMVs0XRA5#Sheet1!A8:C8"}
	if !reflect.DeepEqual(ids, expectedIDs) {
		t.Errorf("Incorrect row IDs\n   expected: %v\n   got:      %v\n", expectedIDs, ids)
	}
}

func TestInsertRowsWithUnknownColumn(t *testing.T) {
	store, f := setup(t)

	records := []map[reconcile.ColumnKey]string{
		{"name": "eve"},
		{"colour": "red"},
	}

	if _, err := store.InsertRows(context.Background(), "1BxiMVs0XRA5", "0", records); !errors.Is(err, reconcile.ErrUnknownColumn) {
		t.Errorf("Expected ErrUnknownColumn, got %v", err)
	}

	if len(f.appends) != 0 {
		t.Errorf("Expected no appends, got %v", f.appends)
	}
}

func TestResolve(t *testing.T) {
	store, _ := setup(t)
	ctx := context.Background()

	if key, err := reconcile.ResolveSpreadsheet(ctx, store, "1BxiMVs0XRA5"); err != nil || key != "1BxiMVs0XRA5" {
		t.Errorf("Error resolving spreadsheet by key - got %v (%v)", key, err)
	}

	if key, err := reconcile.ResolveSpreadsheet(ctx, store, "Inventory"); err != nil || key != "1BxiMVs0XRA5" {
		t.Errorf("Error resolving spreadsheet by name - got %v (%v)", key, err)
	}

	if _, err := reconcile.ResolveSpreadsheet(ctx, store, "Payroll"); !errors.Is(err, reconcile.ErrAmbiguous) {
		t.Errorf("Expected ErrAmbiguous for duplicate spreadsheet names, got %v", err)
	}

	if _, err := reconcile.ResolveSpreadsheet(ctx, store, "Budget"); !errors.Is(err, reconcile.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown spreadsheet, got %v", err)
	}

	if id, err := reconcile.ResolveWorksheet(ctx, store, "1BxiMVs0XRA5", "Sheet1"); err != nil || id != "0" {
		t.Errorf("Error resolving worksheet by name - got %v (%v)", id, err)
	}

	if id, err := reconcile.ResolveWorksheet(ctx, store, "1BxiMVs0XRA5", "1572"); err != nil || id != "1572" {
		t.Errorf("Error resolving worksheet by ID - got %v (%v)", id, err)
	}

	var ierr *reconcile.IdResolutionError
	if _, err := reconcile.ResolveWorksheet(ctx, store, "1BxiMVs0XRA5", "Archive"); !errors.As(err, &ierr) || !errors.Is(err, reconcile.ErrAmbiguous) {
		t.Errorf("Expected ambiguous IdResolutionError for duplicate worksheet names, got %v", err)
	}
}

func TestClear(t *testing.T) {
	store, f := setup(t)

	area, err := store.Clear(context.Background(), "1BxiMVs0XRA5", "0")
	if err != nil {
		t.Fatalf("Unexpected error returned from Clear (%v)", err)
	}

	if area != "'Sheet1'!2:1000" {
		t.Errorf("Incorrect cleared range - expected:%v, got:%v", "'Sheet1'!2:1000", area)
	}

	if !reflect.DeepEqual(f.cleared, []string{"'Sheet1'!2:1000"}) {
		t.Errorf("Incorrect batch clear request - expected:%v, got:%v", []string{"'Sheet1'!2:1000"}, f.cleared)
	}
}
