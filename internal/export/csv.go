// Package export renders transactions for download.
package export

import (
	"fmt"
	"io"
	"strings"

	"marketflow/internal/core"
)

// csvHeader is the fixed column order of the download format. Re-importing a
// file produced here maps cleanly back onto the recognized headers.
const csvHeader = "Date,Type,Category,Description,Amount,CreatedBy"

// utf8BOM keeps Excel from mangling non-ASCII category names.
const utf8BOM = "\xEF\xBB\xBF"

// WriteCSV streams all transactions as CSV. Category and description are
// always quoted since they routinely carry commas.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	var b strings.Builder
	b.WriteString(utf8BOM)
	b.WriteString(csvHeader)
	b.WriteByte('\n')

	for _, t := range txs {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s\n",
			t.Date,
			t.Kind,
			quote(t.Category),
			quote(t.Description),
			t.Amount.String(),
			t.CreatedBy,
		)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FileName names the download after the export date.
func FileName(date string) string {
	return "marketing-budget-" + date + ".csv"
}
