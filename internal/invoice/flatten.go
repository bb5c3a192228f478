package invoice

// Row is one spreadsheet row: invoice header fields followed by one line
// item's fields.
type Row []any

// RowHeader lists the column names produced by Flatten, in order.
var RowHeader = []string{
	"invoice_number",
	"invoice_date",
	"vendor_name",
	"ship_to_name",
	"ship_to_location",
	"item_name",
	"quantity",
	"total_weight",
	"unit_measure",
	"unit_price",
	"total_price",
}

// Flatten projects a normalized invoice document into one row per line
// item, repeating the invoice-level fields on every row. An invoice with
// no line items produces no rows. Fields default to "" when absent or
// null; the document should already be fully shaped after Reconcile, but
// the flattener does not rely on that.
func Flatten(doc *Object) []Row {
	if doc == nil {
		return nil
	}
	items, _ := asSequence(field(doc, "line_items"))

	number := cell(field(doc, "invoice_number"))
	date := cell(field(doc, "invoice_date"))
	vendorName := cell(field(field(doc, "vendor"), "name"))
	shipToName := cell(field(field(doc, "ship_to"), "name"))
	shipToLocation := cell(field(field(doc, "ship_to"), "location"))

	rows := make([]Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, Row{
			number,
			date,
			vendorName,
			shipToName,
			shipToLocation,
			cell(field(item, "item_name")),
			cell(field(item, "quantity")),
			cell(field(item, "total_weight")),
			cell(field(item, "unit_measure")),
			cell(field(item, "unit_price")),
			cell(field(item, "total_price")),
		})
	}
	return rows
}

// field fetches a key from a mapping-like value, returning nil when the
// value is not a mapping or lacks the key
func field(value any, key string) any {
	lookup, ok := asMapping(value)
	if !ok {
		return nil
	}
	v, _ := lookup(key)
	return v
}

// cell renders a value for a spreadsheet cell. Nulls become "" rather
// than nil: the Sheets API skips null cells, which would shift every
// column after them.
func cell(value any) any {
	if value == nil {
		return ""
	}
	return value
}
