package reconcile

import (
	"context"
)

// ResolveSpreadsheet identifies a spreadsheet given either its key or its name. The value
// is tried as a key first. If both lookups fail the returned *KeyResolutionError holds
// both causes.
func ResolveSpreadsheet(ctx context.Context, r Resolver, nameOrKey string) (string, error) {
	asKey := r.LookupSpreadsheet(ctx, nameOrKey)
	if asKey == nil {
		return nameOrKey, nil
	}

	key, asName := r.SpreadsheetKeyByName(ctx, nameOrKey)
	if asName != nil {
		return "", &KeyResolutionError{
			Key:    nameOrKey,
			AsKey:  asKey,
			AsName: asName,
		}
	}

	return key, nil
}

// ResolveWorksheet identifies a worksheet in a spreadsheet given either its id or its
// name. An empty value resolves to the first worksheet. If both lookups fail the returned
// *IdResolutionError holds both causes.
func ResolveWorksheet(ctx context.Context, r Resolver, spreadsheet string, nameOrID string) (string, error) {
	asID := r.LookupWorksheet(ctx, spreadsheet, nameOrID)
	if asID == nil {
		return nameOrID, nil
	}

	id, asName := r.WorksheetIDByName(ctx, spreadsheet, nameOrID)
	if asName != nil {
		return "", &IdResolutionError{
			ID:          nameOrID,
			Spreadsheet: spreadsheet,
			AsID:        asID,
			AsName:      asName,
		}
	}

	return id, nil
}
