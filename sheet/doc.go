// Package sheet builds the row index of one language variant of a sheet and
// exposes it as a Table.
//
// A Table is immutable once loaded and safe for concurrent use. Rows are
// addressed either by identifier (Row, Subrow) or by position (RowIDAt), where
// positions enumerate identifiers in page order.
package sheet
