package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"larder/internal/model"
)

// GroceryStoreStore persists physical store records. Stores carry no
// ownership; any authenticated user may create, edit, or delete one.
// TODO: scope stores to a household once the clients send one.
type GroceryStoreStore struct {
	db *sql.DB
}

func NewGroceryStoreStore(db *sql.DB) *GroceryStoreStore {
	return &GroceryStoreStore{db: db}
}

func scanGroceryStore(scanner interface{ Scan(...any) error }) (*model.GroceryStore, error) {
	var g model.GroceryStore
	var lat, lon sql.NullFloat64
	err := scanner.Scan(&g.ID, &g.Name, &lat, &lon, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		g.Latitude = &lat.Float64
	}
	if lon.Valid {
		g.Longitude = &lon.Float64
	}
	return &g, nil
}

const groceryStoreCols = `id, name, latitude, longitude, created_at`

func (s *GroceryStoreStore) Create(name string, latitude, longitude *float64) (*model.GroceryStore, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO grocery_stores (id, name, latitude, longitude) VALUES (?, ?, ?, ?)`,
		id, name, nullFloat(latitude), nullFloat(longitude),
	)
	if err != nil {
		return nil, fmt.Errorf("insert grocery store: %w", err)
	}
	return s.GetByID(id)
}

func (s *GroceryStoreStore) GetByID(id string) (*model.GroceryStore, error) {
	row := s.db.QueryRow(`SELECT `+groceryStoreCols+` FROM grocery_stores WHERE id = ?`, id)
	g, err := scanGroceryStore(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get grocery store: %w", err)
	}
	return g, nil
}

func (s *GroceryStoreStore) List() ([]model.GroceryStore, error) {
	rows, err := s.db.Query(`SELECT ` + groceryStoreCols + ` FROM grocery_stores ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list grocery stores: %w", err)
	}
	defer rows.Close()

	var stores []model.GroceryStore
	for rows.Next() {
		g, err := scanGroceryStore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grocery store: %w", err)
		}
		stores = append(stores, *g)
	}
	return stores, rows.Err()
}

func (s *GroceryStoreStore) Update(id, name string, latitude, longitude *float64) (*model.GroceryStore, error) {
	result, err := s.db.Exec(
		`UPDATE grocery_stores SET name = ?, latitude = ?, longitude = ? WHERE id = ?`,
		name, nullFloat(latitude), nullFloat(longitude), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update grocery store: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(id)
}

func (s *GroceryStoreStore) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM grocery_stores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete grocery store: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
