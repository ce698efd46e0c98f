package exporter

import (
	"strconv"

	"github.com/ginjaninja78/ecf-block-splitter/internal/types"
)

// DefaultPlaceholder names a column the template has no name for.
const DefaultPlaceholder = "No_name"

// Reconcile fits a header list to a table's column count: short lists are
// padded with the placeholder, long lists are truncated from the end.
// The input is never modified. Reconcile(Reconcile(h, n), n) == Reconcile(h, n).
func Reconcile(headers types.HeaderList, columnCount int, placeholder string) types.HeaderList {
	if columnCount < 0 {
		columnCount = 0
	}
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}

	out := make(types.HeaderList, columnCount)
	n := copy(out, headers)
	for i := n; i < columnCount; i++ {
		out[i] = placeholder
	}
	return out
}

// DefaultLabels returns positional column labels "0", "1", ... used when a
// block code has no header template.
func DefaultLabels(columnCount int) types.HeaderList {
	labels := make(types.HeaderList, 0, columnCount)
	for i := 0; i < columnCount; i++ {
		labels = append(labels, strconv.Itoa(i))
	}
	return labels
}
