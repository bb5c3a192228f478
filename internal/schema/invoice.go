package schema

// Invoice returns the schema every extracted invoice is normalized
// against. The property order here defines the key order of exported
// JSON, so reordering fields is a visible output change.
func Invoice() *Node {
	return Object(
		Prop("invoice_number", String("The unique identifier for the invoice")),
		Prop("invoice_date", String("The date the invoice was issued")),
		Prop("vendor", Object(
			Prop("name", String("Vendor company name")),
			Prop("address", String("Vendor address")),
			Prop("tel", String("Vendor contact phone number")),
		)),
		Prop("ship_to", Object(
			Prop("name", String("Name of the receiving business or location")),
			Prop("location", String("Short location name extracted from the ship-to name")),
			Prop("address", String("Delivery address")),
		)),
		Prop("line_items", Array(Object(
			Prop("item_name", String("Name of the item")),
			Prop("total_weight", Number("Total weight")),
			Prop("unit_measure", String("Unit of measurement (e.g., cs, bg, pk)")),
			Prop("quantity", Number("Quantity of the item")),
			Prop("unit_price", Number("Price per unit")),
			Prop("total_price", Number("Total price for the line item")),
		))),
	)
}
