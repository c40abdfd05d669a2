// Package partition decides which partition a record belongs to and how the
// files of a partition are named.
//
// The partition value is read from the first configured key that holds a
// non-empty scalar. In year mode a four-digit year is extracted from it:
//
//	"1815-12-10" -> "1815"
//	"10-12-1815" -> "1815"
//	"c. 1990"    -> "1990"
//
// Records without a usable value fall into the Unknown partition.
package partition
