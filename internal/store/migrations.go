package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Products table - the catalog the classifier resolves against.
		// Position mirrors the classifier's class index ordering.
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			price REAL NOT NULL CHECK(price >= 0),
			discount REAL NOT NULL DEFAULT 0 CHECK(discount >= 0 AND discount <= 1),
			position INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sales table - one row per settled transaction
		`CREATE TABLE IF NOT EXISTS sales (
			id TEXT PRIMARY KEY,
			method TEXT NOT NULL CHECK(method IN ('cash', 'qr')),
			total REAL NOT NULL,
			tendered REAL NOT NULL DEFAULT 0,
			change REAL NOT NULL DEFAULT 0,
			settled_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sale items table - the grouped bill lines of a settled sale
		`CREATE TABLE IF NOT EXISTS sale_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sale_id TEXT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			unit_price REAL NOT NULL,
			quantity INTEGER NOT NULL,
			discount REAL NOT NULL DEFAULT 0,
			line_total REAL NOT NULL
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_products_position ON products(position)`,
		`CREATE INDEX IF NOT EXISTS idx_sale_items_sale_id ON sale_items(sale_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_settled_at ON sales(settled_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
