package warehouse

// Destination table schemas are pinned here so a load can never make the
// warehouse infer column types from NDJSON content.

// OrderSchema returns the pinned column schema of the orders table.
func OrderSchema() []Column {
	return []Column{
		{Name: "order_id", Type: "STRING", Mode: "REQUIRED"},
		{Name: "order_number", Type: "STRING", Mode: "NULLABLE"},
		{Name: "customer_name", Type: "STRING", Mode: "NULLABLE"},
		{Name: "customer_phone", Type: "STRING", Mode: "NULLABLE"},
		{Name: "address", Type: "STRING", Mode: "NULLABLE"},
		{Name: "region", Type: "STRING", Mode: "NULLABLE"},
		{Name: "pharmacy_unit_id", Type: "STRING", Mode: "NULLABLE"},
		{Name: "delivery_man", Type: "STRING", Mode: "NULLABLE"},
		{Name: "delivery_man_name", Type: "STRING", Mode: "NULLABLE"},
		{Name: "status", Type: "STRING", Mode: "NULLABLE"},
		{Name: "price_number", Type: "FLOAT", Mode: "NULLABLE"},
		{Name: "rating", Type: "FLOAT", Mode: "NULLABLE"},
		{Name: "delivery_time_minutes", Type: "FLOAT", Mode: "NULLABLE"},
		{Name: "review_comment", Type: "STRING", Mode: "NULLABLE"},
		{Name: "review_date", Type: "TIMESTAMP", Mode: "NULLABLE"},
		{Name: "created_at", Type: "TIMESTAMP", Mode: "REQUIRED"},
		{Name: "updated_at", Type: "TIMESTAMP", Mode: "NULLABLE"},
		{Name: "items", Type: "STRING", Mode: "NULLABLE"},
		{Name: "status_history", Type: "STRING", Mode: "NULLABLE"},
		{Name: "item_count", Type: "INTEGER", Mode: "NULLABLE"},
		{Name: "license_plate", Type: "STRING", Mode: "NULLABLE"},
	}
}

// RunSchema returns the pinned column schema of the delivery runs table.
func RunSchema() []Column {
	return []Column{
		{Name: "run_id", Type: "STRING", Mode: "REQUIRED"},
		{Name: "deliveryman_id", Type: "STRING", Mode: "REQUIRED"},
		{Name: "motorcycle_id", Type: "STRING", Mode: "NULLABLE"},
		{Name: "pharmacy_unit_id", Type: "STRING", Mode: "REQUIRED"},
		{Name: "order_ids", Type: "STRING", Mode: "REPEATED"},
		{Name: "start_time", Type: "TIMESTAMP", Mode: "REQUIRED"},
		{Name: "end_time", Type: "TIMESTAMP", Mode: "NULLABLE"},
		{Name: "total_distance", Type: "FLOAT", Mode: "REQUIRED"},
		{Name: "status", Type: "STRING", Mode: "REQUIRED"},
		{Name: "checkpoint_count", Type: "INTEGER", Mode: "NULLABLE"},
	}
}
