package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"larder/internal/model"
)

// ListStore persists grocery lists and their items.
//
// The household/list relation is stored once, on the list row. Household
// views query lists by household_id instead of keeping a mirrored list-id set
// on the household, so there is no back-reference to drift out of sync.
// Items are rows with stable ids, so appends, edits, and completion toggles
// are single atomic statements and concurrent edits from two members cannot
// overwrite each other.
type ListStore struct {
	db *sql.DB
}

func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{db: db}
}

func scanGroceryList(scanner interface{ Scan(...any) error }) (*model.GroceryList, error) {
	var l model.GroceryList
	var householdID sql.NullString
	var dueDate sql.NullString
	var completed int

	err := scanner.Scan(
		&l.ID, &l.OwnerID, &l.Name, &householdID, &l.HouseholdName,
		&l.Priority, &dueDate, &completed, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if householdID.Valid {
		l.HouseholdID = &householdID.String
	}
	if dueDate.Valid {
		l.DueDate = &dueDate.String
	}
	l.Completed = completed != 0
	return &l, nil
}

const listCols = `id, owner_id, name, household_id, household_name, priority, due_date, completed, created_at`

func scanItem(scanner interface{ Scan(...any) error }) (*model.Item, error) {
	var it model.Item
	var completed int
	err := scanner.Scan(&it.ID, &it.ListID, &it.Name, &it.Quantity, &it.Brand, &completed, &it.Position, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	it.Completed = completed != 0
	return &it, nil
}

const itemCols = `id, list_id, name, quantity, brand, completed, position, created_at`

// Create inserts a new list for ownerID. When householdID is set the list is
// linked to that household and the household's display name is denormalized
// onto the list; a missing household yields ErrNotFound and no list is
// created. Initial items, if any, are written in the same transaction.
func (s *ListStore) Create(ownerID, name, priority string, dueDate, householdID *string, items []model.Item) (*model.GroceryList, error) {
	var householdName string
	if householdID != nil {
		row := s.db.QueryRow(`SELECT name FROM households WHERE id = ?`, *householdID)
		if err := row.Scan(&householdName); err == sql.ErrNoRows {
			return nil, ErrNotFound
		} else if err != nil {
			return nil, fmt.Errorf("get household name: %w", err)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	var hid sql.NullString
	if householdID != nil {
		hid = sql.NullString{String: *householdID, Valid: true}
	}
	var due sql.NullString
	if dueDate != nil {
		due = sql.NullString{String: *dueDate, Valid: true}
	}

	if _, err := tx.Exec(
		`INSERT INTO grocery_lists (id, owner_id, name, household_id, household_name, priority, due_date) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, name, hid, householdName, priority, due,
	); err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}

	for i, it := range items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO list_items (id, list_id, name, quantity, brand, position) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), id, it.Name, qty, it.Brand, i,
		); err != nil {
			return nil, fmt.Errorf("insert item %q: %w", it.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns the list, or ErrNotFound.
func (s *ListStore) GetByID(id string) (*model.GroceryList, error) {
	row := s.db.QueryRow(`SELECT `+listCols+` FROM grocery_lists WHERE id = ?`, id)
	l, err := scanGroceryList(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

func (s *ListStore) queryLists(query string, args ...any) ([]model.GroceryList, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	defer rows.Close()

	var lists []model.GroceryList
	for rows.Next() {
		l, err := scanGroceryList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

// ListByOwner returns every list owned by the user, including household-linked
// ones.
func (s *ListStore) ListByOwner(ownerID string) ([]model.GroceryList, error) {
	return s.queryLists(
		`SELECT `+listCols+` FROM grocery_lists WHERE owner_id = ? ORDER BY created_at DESC`,
		ownerID,
	)
}

// ListByHousehold returns the lists linked to a household. This query IS the
// household→list relation; nothing else records it.
func (s *ListStore) ListByHousehold(householdID string) ([]model.GroceryList, error) {
	return s.queryLists(
		`SELECT `+listCols+` FROM grocery_lists WHERE household_id = ? ORDER BY created_at DESC`,
		householdID,
	)
}

// Update changes list metadata. Only the owner may update.
func (s *ListStore) Update(id, requestingUser, name, priority string, dueDate *string) (*model.GroceryList, error) {
	l, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if l.OwnerID != requestingUser {
		return nil, ErrAccessDenied
	}

	var due sql.NullString
	if dueDate != nil {
		due = sql.NullString{String: *dueDate, Valid: true}
	}
	if _, err := s.db.Exec(
		`UPDATE grocery_lists SET name = ?, priority = ?, due_date = ? WHERE id = ?`,
		name, priority, due, id,
	); err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}
	return s.GetByID(id)
}

// SetCompleted sets the list-level completion flag.
func (s *ListStore) SetCompleted(id string, completed bool) (*model.GroceryList, error) {
	c := 0
	if completed {
		c = 1
	}
	result, err := s.db.Exec(`UPDATE grocery_lists SET completed = ? WHERE id = ?`, c, id)
	if err != nil {
		return nil, fmt.Errorf("set completed: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(id)
}

// Delete removes the list and its items. Only the owner may delete; the
// ownership check runs against the stored record. No household cleanup is
// needed since the relation lives on the list row.
func (s *ListStore) Delete(id, requestingUser string) error {
	l, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if l.OwnerID != requestingUser {
		return ErrAccessDenied
	}

	if _, err := s.db.Exec(`DELETE FROM grocery_lists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return nil
}

// AttachToHousehold links the list to a household and refreshes the
// denormalized household name. The requesting user must be a member of the
// target household.
func (s *ListStore) AttachToHousehold(listID, householdID, requestingUser string) (*model.GroceryList, error) {
	if _, err := s.GetByID(listID); err != nil {
		return nil, err
	}

	var householdName string
	row := s.db.QueryRow(`SELECT name FROM households WHERE id = ?`, householdID)
	if err := row.Scan(&householdName); err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get household name: %w", err)
	}

	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, requestingUser,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}

	if _, err := s.db.Exec(
		`UPDATE grocery_lists SET household_id = ?, household_name = ? WHERE id = ?`,
		householdID, householdName, listID,
	); err != nil {
		return nil, fmt.Errorf("attach list: %w", err)
	}
	return s.GetByID(listID)
}

// DetachFromHousehold unlinks the list, making it private to its owner again.
func (s *ListStore) DetachFromHousehold(listID string) (*model.GroceryList, error) {
	result, err := s.db.Exec(
		`UPDATE grocery_lists SET household_id = NULL, household_name = '' WHERE id = ?`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("detach list: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(listID)
}

// --- Item methods ---

// AddItem appends an item to the list as a single insert. There is no
// read-modify-write of an item array, so concurrent additions from two
// clients both land.
func (s *ListStore) AddItem(listID, name string, quantity int, brand string) (*model.Item, error) {
	if _, err := s.GetByID(listID); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		quantity = 1
	}

	id := uuid.NewString()
	if _, err := s.db.Exec(
		`INSERT INTO list_items (id, list_id, name, quantity, brand, position)
		 VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM list_items WHERE list_id = ?))`,
		id, listID, name, quantity, brand, listID,
	); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return s.GetItemByID(id)
}

// GetItemByID returns the item, or ErrNotFound.
func (s *ListStore) GetItemByID(id string) (*model.Item, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM list_items WHERE id = ?`, id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// ListItems returns the list's items, incomplete first, in insertion order
// within each group.
func (s *ListStore) ListItems(listID string) ([]model.Item, error) {
	rows, err := s.db.Query(
		`SELECT `+itemCols+` FROM list_items WHERE list_id = ? ORDER BY completed ASC, position ASC, created_at ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// UpdateItem replaces the item's editable fields.
func (s *ListStore) UpdateItem(id, name string, quantity int, brand string) (*model.Item, error) {
	if quantity <= 0 {
		quantity = 1
	}
	result, err := s.db.Exec(
		`UPDATE list_items SET name = ?, quantity = ?, brand = ? WHERE id = ?`,
		name, quantity, brand, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetItemByID(id)
}

// RemoveItem deletes the item by its stable id.
func (s *ListStore) RemoveItem(id string) error {
	result, err := s.db.Exec(`DELETE FROM list_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleItemCompleted flips the item's completion flag in one statement, so
// the toggle is its own inverse even under concurrent calls.
func (s *ListStore) ToggleItemCompleted(id string) (*model.Item, error) {
	result, err := s.db.Exec(`UPDATE list_items SET completed = 1 - completed WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("toggle item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetItemByID(id)
}

// ClearCompleted deletes every completed item on the list and returns the
// number removed.
func (s *ListStore) ClearCompleted(listID string) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM list_items WHERE list_id = ? AND completed = 1`,
		listID,
	)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
