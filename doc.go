// Copyright 2026 the goopy-sheets authors. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package goopy-sheets finds, updates and upserts the rows of Google Sheets worksheets.

goopy-sheets can be used from the command line or from a cron job to keep a worksheet in step with
another system. Rows are selected by matching a regular expression against the start of one or more
columns, with column names compared after normalisation (lower case, no spaces or underscores).

goopy-sheets supports the following commands:

  - authorise, to authorise access to Google Sheets and cache the tokens
  - get, to download a Google Sheets worksheet as a TSV or XLSX file
  - find, to list the worksheet rows matching a filter
  - update, to set a column in every worksheet row matching a filter
  - upsert, to replace the worksheet rows matching a filter or insert a new row
  - put, to append (or with --replace, overwrite) the records in a TSV file to a Google Sheets worksheet
*/
package sheets
