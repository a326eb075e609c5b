package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/kirana/internal/checkout"
)

// Sale is a journaled settled transaction.
type Sale struct {
	ID        string
	Method    checkout.Method
	Total     float64
	Tendered  float64
	Change    float64
	SettledAt time.Time
	Lines     []checkout.BillLine
}

// SaleRepository journals settled transactions. The core session keeps no
// state across restarts; this journal is a settlement side effect only.
type SaleRepository struct {
	db *sql.DB
}

// Sales returns the sale repository for this store.
func (s *Store) Sales() *SaleRepository {
	return &SaleRepository{db: s.db}
}

// Record journals a settlement and returns the generated sale id.
func (r *SaleRepository) Record(settlement checkout.Settlement) (string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.New().String()
	now := time.Now()

	_, err = tx.Exec(
		`INSERT INTO sales (id, method, total, tendered, change, settled_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(settlement.Method), settlement.Total, settlement.Tendered, settlement.Change, now,
	)
	if err != nil {
		return "", err
	}

	for _, line := range settlement.Lines {
		_, err = tx.Exec(
			`INSERT INTO sale_items (sale_id, name, unit_price, quantity, discount, line_total)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, line.Name, line.UnitPrice, line.Quantity, line.Discount, line.LineTotal,
		)
		if err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// GetByID retrieves a journaled sale with its bill lines.
func (r *SaleRepository) GetByID(id string) (*Sale, error) {
	s := &Sale{}
	var method string

	err := r.db.QueryRow(
		`SELECT id, method, total, tendered, change, settled_at
		 FROM sales WHERE id = ?`,
		id,
	).Scan(&s.ID, &method, &s.Total, &s.Tendered, &s.Change, &s.SettledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Method = checkout.Method(method)

	rows, err := r.db.Query(
		`SELECT name, unit_price, quantity, discount, line_total
		 FROM sale_items WHERE sale_id = ? ORDER BY id ASC`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line checkout.BillLine
		if err := rows.Scan(&line.Name, &line.UnitPrice, &line.Quantity, &line.Discount, &line.LineTotal); err != nil {
			return nil, err
		}
		s.Lines = append(s.Lines, line)
	}
	return s, rows.Err()
}

// List retrieves journaled sales, most recent first, without their lines.
func (r *SaleRepository) List() ([]*Sale, error) {
	rows, err := r.db.Query(
		`SELECT id, method, total, tendered, change, settled_at
		 FROM sales ORDER BY settled_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []*Sale
	for rows.Next() {
		s := &Sale{}
		var method string
		if err := rows.Scan(&s.ID, &method, &s.Total, &s.Tendered, &s.Change, &s.SettledAt); err != nil {
			return nil, err
		}
		s.Method = checkout.Method(method)
		sales = append(sales, s)
	}
	return sales, rows.Err()
}
