// Package export builds CSV backup artifacts and materializes them into the
// local export directory.
package export

import (
	"strconv"
	"strings"
	"time"

	"pocketledger/internal/database/repository"
	"pocketledger/internal/money"
)

// header is the fixed 9-column CSV header. Column order is part of the file
// format and must not change.
const header = "id,description,amount_native,currency_code,fx_rate_to_base,base_amount,date,category,notes"

const (
	bom  = "\uFEFF"
	crlf = "\r\n"
)

// BuildCSV renders expenses as CSV text: UTF-8 BOM, fixed header, one CRLF
// terminated line per expense in input order (including after the final row).
// Pure and deterministic; identical input yields byte-identical output.
func BuildCSV(expenses []repository.Expense, categories []repository.Category) string {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	var b strings.Builder
	// ~64 bytes per row is a comfortable overestimate; avoids regrowth on
	// large exports.
	b.Grow(len(bom) + len(header) + 2 + len(expenses)*64)
	b.WriteString(bom)
	b.WriteString(header)
	b.WriteString(crlf)

	for _, e := range expenses {
		category := ""
		if e.CategoryID != nil {
			category = names[*e.CategoryID]
		}
		notes := ""
		if e.Notes != nil {
			notes = *e.Notes
		}
		fields := []string{
			strconv.FormatInt(e.ID, 10),
			e.Description,
			money.Format2(e.AmountNative),
			e.CurrencyCode,
			money.Format6(e.FxRateToBase),
			money.Format2(e.BaseAmount),
			e.Date,
			category,
			notes,
		}
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapeField(f))
		}
		b.WriteString(crlf)
	}
	return b.String()
}

// escapeField applies RFC 4180 quoting: fields containing a quote, comma,
// CR, LF or leading/trailing whitespace get wrapped in double quotes with
// embedded quotes doubled. Everything else passes through unquoted.
func escapeField(s string) string {
	if s == "" {
		return s
	}
	needsQuoting := strings.ContainsAny(s, "\",\r\n") ||
		s != strings.TrimSpace(s)
	if !needsQuoting {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Filename returns the timestamped backup filename for t, using UTC
// wall-clock components: expenses_backup_YYYYMMDD_HHMMSS.csv.
func Filename(t time.Time) string {
	return "expenses_backup_" + t.UTC().Format("20060102_150405") + ".csv"
}
