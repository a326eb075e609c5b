package store

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Product is a catalog entry the classifier resolves against. Discount is a
// fraction in [0, 1]. Position is the classifier class index.
type Product struct {
	ID        string
	Name      string
	Price     float64
	Discount  float64
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductRepository provides catalog operations.
type ProductRepository struct {
	db *sql.DB
}

// Products returns the product repository for this store.
func (s *Store) Products() *ProductRepository {
	return &ProductRepository{db: s.db}
}

// Upsert inserts a product or replaces the existing row with the same id.
func (r *ProductRepository) Upsert(p *Product) error {
	now := time.Now()
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO products (id, name, price, discount, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   price = excluded.price,
		   discount = excluded.discount,
		   position = excluded.position,
		   updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Price, p.Discount, p.Position, now, now,
	)
	return err
}

// GetByID retrieves a product by its id.
func (r *ProductRepository) GetByID(id string) (*Product, error) {
	p := &Product{}
	err := r.db.QueryRow(
		`SELECT id, name, price, discount, position, created_at, updated_at
		 FROM products WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Discount, &p.Position, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List retrieves the whole catalog ordered by position, which is also the
// classifier's class index order.
func (r *ProductRepository) List() ([]*Product, error) {
	rows, err := r.db.Query(
		`SELECT id, name, price, discount, position, created_at, updated_at
		 FROM products ORDER BY position ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p := &Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Discount, &p.Position, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Delete removes a product by id.
func (r *ProductRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ImportCSV loads products from the legacy catalog format:
//
//	Product_ID,Product_Name,Price,Discount
//	1001,Oat Biscuits,$10.00,10%
//
// Prices carry a "$" prefix and discounts a "%" suffix. Row order defines
// the classifier class index. Returns the number of imported rows.
func (r *ProductRepository) ImportCSV(src io.Reader) (int, error) {
	reader := csv.NewReader(src)

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read catalog header: %w", err)
	}
	if len(header) < 4 {
		return 0, fmt.Errorf("catalog header has %d columns, want 4", len(header))
	}

	count := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read catalog row %d: %w", count+1, err)
		}

		price, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(record[2]), "$"), 64)
		if err != nil {
			return count, fmt.Errorf("catalog row %d: bad price %q: %w", count+1, record[2], err)
		}
		percent, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(record[3]), "%"), 64)
		if err != nil {
			return count, fmt.Errorf("catalog row %d: bad discount %q: %w", count+1, record[3], err)
		}

		p := &Product{
			ID:       strings.TrimSpace(record[0]),
			Name:     strings.TrimSpace(record[1]),
			Price:    price,
			Discount: percent / 100.0,
			Position: count,
		}
		if err := r.Upsert(p); err != nil {
			return count, fmt.Errorf("import product %s: %w", p.ID, err)
		}
		count++
	}

	return count, nil
}
