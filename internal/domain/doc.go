// Package domain models the warehouse contact directory.
//
// # Data Source
//
// Warehouse contacts are maintained in a spreadsheet that is "Published to
// web". The sheet is exported as CSV through the visualization endpoint:
//
//	https://docs.google.com/spreadsheets/d/<SPREADSHEET_ID>/gviz/tq?tqx=out:csv&sheet=<SHEET_NAME>
//
// The export needs no authentication. When the sheet is not published, or its
// sharing settings block anonymous readers, the endpoint answers 200 with an
// HTML sign-in page instead of CSV. [LooksLikeErrorPage] detects that case.
//
// # Sheet Conventions
//
// Columns are positional, in the order given by [Columns]:
//
//	id, city, contact, manager, email, chatLink
//
// The first row may be a header. It is recognized only by its first cell,
// which must read "id" in any case ("ID", "Id", "id"). No other header
// metadata is used; renamed columns further right are not detected.
//
// Short rows are padded with empty strings. Rows whose id is blank after
// trimming are dropped; nothing else is validated per field.
//
// Ids are not required to be unique. Lookups are case-insensitive and return
// the first matching row, see [Find].
//
// # Fallback
//
// A fixed table ([DefaultFallback]) ships with the binary and is served
// whenever the sheet cannot be fetched, is not CSV, or maps to zero records.
// A load result is either entirely remote or entirely fallback.
package domain
