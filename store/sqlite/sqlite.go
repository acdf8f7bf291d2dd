/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements schedule.TxStore and medicine.Directory using SQLite. The
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  medicines:    Treatment definitions including rule fields and stock
  consumptions: Recorded dose events, keyed by (medicine, scheduled minute)
  users:        Minimal identity records for notification addressing
  supervisors:  Who watches whom

INVARIANT ENFORCEMENT:
  The unique index on consumptions(medicine_id, scheduled_at) is the
  ground truth for duplicate rejection: concurrent inserts for the same
  slot race at the database, and the loser gets a duplicate error.
  Foreign keys cascade medicine deletion to its consumption history.

TIME ENCODING:
  Dates are stored as "2006-01-02", slot times as "2006-01-02 15:04"
  (minute-truncated on the way in). Both orderings are lexicographic, so
  range queries compare strings directly.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/medtrack.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - schedule/store.go: Interface definitions
  - schedule/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/medtrack-engine/medicine"
	"github.com/warp/medtrack-engine/schedule"
)

// Store implements schedule.TxStore and medicine.Directory using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection; the pool must not
	// open a second one.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS medicines (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		interval_days INTEGER,
		days_json TEXT NOT NULL DEFAULT 'null',
		hours_json TEXT NOT NULL DEFAULT 'null',
		stock INTEGER,
		stock_warning INTEGER,
		presentation TEXT,
		dose_unit TEXT,
		dose_amount TEXT,
		instructions TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_medicines_user
		ON medicines(user_id);

	CREATE TABLE IF NOT EXISTS consumptions (
		id TEXT PRIMARY KEY,
		medicine_id TEXT NOT NULL REFERENCES medicines(id) ON DELETE CASCADE,
		scheduled_at TEXT NOT NULL,
		real_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: at most one recorded consumption per (medicine, minute).
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_consumption_slot
		ON consumptions(medicine_id, scheduled_at);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS supervisors (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		supervisor_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		PRIMARY KEY (user_id, supervisor_id)
	);
	`
	_, err := s.db.Exec(schemaSQL)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so every query helper can
// run standalone or inside WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// MEDICINE STORE (schedule.MedicineStore interface)
// =============================================================================

func (s *Store) SaveMedicine(ctx context.Context, m schedule.Medicine) error {
	return saveMedicine(ctx, s.db, m)
}

func saveMedicine(ctx context.Context, db dbtx, m schedule.Medicine) error {
	daysJSON, err := json.Marshal(m.Days)
	if err != nil {
		return fmt.Errorf("failed to encode days: %w", err)
	}
	hoursJSON, err := json.Marshal(m.Hours)
	if err != nil {
		return fmt.Errorf("failed to encode hours: %w", err)
	}

	var endDate any
	if m.EndDate != nil {
		endDate = m.EndDate.String()
	}
	var interval any
	if m.Interval != nil {
		interval = *m.Interval
	}
	var stock, warning any
	if m.Stock != nil {
		stock = *m.Stock
	}
	if m.StockWarning != nil {
		warning = *m.StockWarning
	}

	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO medicines
		(id, user_id, name, start_date, end_date, active, interval_days, days_json,
		 hours_json, stock, stock_warning, presentation, dose_unit, dose_amount,
		 instructions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			active = excluded.active,
			interval_days = excluded.interval_days,
			days_json = excluded.days_json,
			hours_json = excluded.hours_json,
			stock = excluded.stock,
			stock_warning = excluded.stock_warning,
			presentation = excluded.presentation,
			dose_unit = excluded.dose_unit,
			dose_amount = excluded.dose_amount,
			instructions = excluded.instructions,
			updated_at = excluded.updated_at
	`
	_, err = db.ExecContext(ctx, query,
		m.ID, m.UserID, m.Name,
		m.StartDate.String(), endDate, m.Active,
		interval, string(daysJSON), string(hoursJSON),
		stock, warning,
		m.Presentation, m.DoseUnit, m.DoseAmount.String(), m.Instructions,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save medicine: %w", err)
	}
	return nil
}

const medicineColumns = `id, user_id, name, start_date, end_date, active, interval_days,
	days_json, hours_json, stock, stock_warning, presentation, dose_unit,
	dose_amount, instructions`

func (s *Store) GetMedicine(ctx context.Context, id schedule.MedicineID) (*schedule.Medicine, error) {
	return getMedicine(ctx, s.db, id)
}

func getMedicine(ctx context.Context, db dbtx, id schedule.MedicineID) (*schedule.Medicine, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+medicineColumns+` FROM medicines WHERE id = ?`, id)
	m, err := scanMedicine(row)
	if err == sql.ErrNoRows {
		return nil, schedule.ErrMedicineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}
	return m, nil
}

func (s *Store) ListMedicines(ctx context.Context, userID schedule.UserID) ([]schedule.Medicine, error) {
	return listMedicines(ctx, s.db, userID)
}

func listMedicines(ctx context.Context, db dbtx, userID schedule.UserID) ([]schedule.Medicine, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+medicineColumns+` FROM medicines WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}
	defer rows.Close()

	var result []schedule.Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medicine: %w", err)
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedicine(row rowScanner) (*schedule.Medicine, error) {
	var (
		m          schedule.Medicine
		startDate  string
		endDate    sql.NullString
		interval   sql.NullInt64
		daysJSON   string
		hoursJSON  string
		stock      sql.NullInt64
		warning    sql.NullInt64
		doseAmount string
	)

	err := row.Scan(&m.ID, &m.UserID, &m.Name, &startDate, &endDate, &m.Active,
		&interval, &daysJSON, &hoursJSON, &stock, &warning,
		&m.Presentation, &m.DoseUnit, &doseAmount, &m.Instructions)
	if err != nil {
		return nil, err
	}

	m.StartDate, err = schedule.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("bad start_date %q: %w", startDate, err)
	}
	if endDate.Valid {
		d, err := schedule.ParseDate(endDate.String)
		if err != nil {
			return nil, fmt.Errorf("bad end_date %q: %w", endDate.String, err)
		}
		m.EndDate = &d
	}
	if interval.Valid {
		n := int(interval.Int64)
		m.Interval = &n
	}
	if stock.Valid {
		n := int(stock.Int64)
		m.Stock = &n
	}
	if warning.Valid {
		n := int(warning.Int64)
		m.StockWarning = &n
	}
	if err := json.Unmarshal([]byte(daysJSON), &m.Days); err != nil {
		return nil, fmt.Errorf("bad days_json: %w", err)
	}
	if err := json.Unmarshal([]byte(hoursJSON), &m.Hours); err != nil {
		return nil, fmt.Errorf("bad hours_json: %w", err)
	}
	if m.DoseAmount, err = decimal.NewFromString(doseAmount); err != nil {
		m.DoseAmount = decimal.Zero
	}
	return &m, nil
}

func (s *Store) DeleteMedicine(ctx context.Context, id schedule.MedicineID) error {
	return deleteMedicine(ctx, s.db, id)
}

func deleteMedicine(ctx context.Context, db dbtx, id schedule.MedicineID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medicine: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrMedicineNotFound
	}
	return nil
}

func (s *Store) UpdateStock(ctx context.Context, id schedule.MedicineID, stock int) error {
	return updateStock(ctx, s.db, id, stock)
}

func updateStock(ctx context.Context, db dbtx, id schedule.MedicineID, stock int) error {
	res, err := db.ExecContext(ctx,
		`UPDATE medicines SET stock = ?, updated_at = ? WHERE id = ?`,
		stock, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrMedicineNotFound
	}
	return nil
}

// =============================================================================
// CONSUMPTION STORE (schedule.ConsumptionStore interface)
// =============================================================================

func (s *Store) InsertConsumption(ctx context.Context, c schedule.Consumption) error {
	return insertConsumption(ctx, s.db, c)
}

func insertConsumption(ctx context.Context, db dbtx, c schedule.Consumption) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO consumptions (id, medicine_id, scheduled_at, real_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.MedicineID,
		c.ScheduledAt.String(),
		schedule.SlotTimeOf(c.RealAt).String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &schedule.DuplicateConsumptionError{MedicineID: c.MedicineID, ScheduledAt: c.ScheduledAt}
		}
		return fmt.Errorf("failed to insert consumption: %w", err)
	}
	return nil
}

func (s *Store) DeleteConsumption(ctx context.Context, medicineID schedule.MedicineID, scheduledAt schedule.SlotTime) error {
	return deleteConsumption(ctx, s.db, medicineID, scheduledAt)
}

func deleteConsumption(ctx context.Context, db dbtx, medicineID schedule.MedicineID, scheduledAt schedule.SlotTime) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM consumptions WHERE medicine_id = ? AND scheduled_at = ?`,
		medicineID, scheduledAt.String())
	if err != nil {
		return fmt.Errorf("failed to delete consumption: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrConsumptionNotFound
	}
	return nil
}

func (s *Store) LoadConsumptions(ctx context.Context, medicineID schedule.MedicineID, w schedule.Window) ([]schedule.Consumption, error) {
	return loadConsumptions(ctx, s.db, medicineID, w)
}

func loadConsumptions(ctx context.Context, db dbtx, medicineID schedule.MedicineID, w schedule.Window) ([]schedule.Consumption, error) {
	// Slot times sort lexicographically; the window end is padded to the
	// last minute of its day to keep the range inclusive.
	rows, err := db.QueryContext(ctx, `
		SELECT id, medicine_id, scheduled_at, real_at
		FROM consumptions
		WHERE medicine_id = ? AND scheduled_at >= ? AND scheduled_at <= ?
		ORDER BY scheduled_at ASC`,
		medicineID, w.Start.String()+" 00:00", w.End.String()+" 23:59")
	if err != nil {
		return nil, fmt.Errorf("failed to load consumptions: %w", err)
	}
	defer rows.Close()

	var result []schedule.Consumption
	for rows.Next() {
		var (
			c            schedule.Consumption
			scheduledRaw string
			realRaw      string
		)
		if err := rows.Scan(&c.ID, &c.MedicineID, &scheduledRaw, &realRaw); err != nil {
			return nil, fmt.Errorf("failed to scan consumption: %w", err)
		}
		if c.ScheduledAt, err = schedule.ParseSlotTime(scheduledRaw); err != nil {
			return nil, fmt.Errorf("bad scheduled_at %q: %w", scheduledRaw, err)
		}
		realAt, err := schedule.ParseSlotTime(realRaw)
		if err != nil {
			return nil, fmt.Errorf("bad real_at %q: %w", realRaw, err)
		}
		c.RealAt = realAt.Time
		c.Consumed = true
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) HasConsumption(ctx context.Context, medicineID schedule.MedicineID, scheduledAt schedule.SlotTime) (bool, error) {
	return hasConsumption(ctx, s.db, medicineID, scheduledAt)
}

func hasConsumption(ctx context.Context, db dbtx, medicineID schedule.MedicineID, scheduledAt schedule.SlotTime) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM consumptions WHERE medicine_id = ? AND scheduled_at = ?`,
		medicineID, scheduledAt.String(),
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// TRANSACTIONAL STORE (schedule.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. An error from fn rolls
// back, nil commits.
func (s *Store) WithTx(ctx context.Context, fn func(schedule.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txView{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txView routes every Store call through the open transaction.
type txView struct {
	tx *sql.Tx
}

func (v *txView) SaveMedicine(ctx context.Context, m schedule.Medicine) error {
	return saveMedicine(ctx, v.tx, m)
}

func (v *txView) GetMedicine(ctx context.Context, id schedule.MedicineID) (*schedule.Medicine, error) {
	return getMedicine(ctx, v.tx, id)
}

func (v *txView) ListMedicines(ctx context.Context, userID schedule.UserID) ([]schedule.Medicine, error) {
	return listMedicines(ctx, v.tx, userID)
}

func (v *txView) DeleteMedicine(ctx context.Context, id schedule.MedicineID) error {
	return deleteMedicine(ctx, v.tx, id)
}

func (v *txView) UpdateStock(ctx context.Context, id schedule.MedicineID, stock int) error {
	return updateStock(ctx, v.tx, id, stock)
}

func (v *txView) InsertConsumption(ctx context.Context, c schedule.Consumption) error {
	return insertConsumption(ctx, v.tx, c)
}

func (v *txView) DeleteConsumption(ctx context.Context, medicineID schedule.MedicineID, scheduledAt schedule.SlotTime) error {
	return deleteConsumption(ctx, v.tx, medicineID, scheduledAt)
}

func (v *txView) LoadConsumptions(ctx context.Context, medicineID schedule.MedicineID, w schedule.Window) ([]schedule.Consumption, error) {
	return loadConsumptions(ctx, v.tx, medicineID, w)
}

func (v *txView) HasConsumption(ctx context.Context, medicineID schedule.MedicineID, scheduledAt schedule.SlotTime) (bool, error) {
	return hasConsumption(ctx, v.tx, medicineID, scheduledAt)
}

// =============================================================================
// USER DIRECTORY (medicine.Directory interface)
// =============================================================================

// SaveUser inserts or updates an identity record.
func (s *Store) SaveUser(ctx context.Context, u medicine.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		u.ID, u.Name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// AddSupervisor links a supervisor to a user. Idempotent.
func (s *Store) AddSupervisor(ctx context.Context, userID, supervisorID schedule.UserID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO supervisors (user_id, supervisor_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id, supervisor_id) DO NOTHING`,
		userID, supervisorID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to add supervisor: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id schedule.UserID) (*medicine.User, error) {
	var u medicine.User
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *Store) Supervisors(ctx context.Context, id schedule.UserID) ([]medicine.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name
		FROM supervisors sv
		JOIN users u ON u.id = sv.supervisor_id
		WHERE sv.user_id = ?
		ORDER BY u.id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list supervisors: %w", err)
	}
	defer rows.Close()

	var result []medicine.User
	for rows.Next() {
		var u medicine.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("failed to scan supervisor: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// =============================================================================
// SWEEP QUERIES (background low-stock scan)
// =============================================================================

// ListLowStockMedicines returns active medicines sitting at or below their
// warning threshold.
func (s *Store) ListLowStockMedicines(ctx context.Context) ([]schedule.Medicine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+medicineColumns+` FROM medicines
		 WHERE active = TRUE AND stock IS NOT NULL AND stock_warning IS NOT NULL
		   AND stock <= stock_warning
		 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list low-stock medicines: %w", err)
	}
	defer rows.Close()

	var result []schedule.Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medicine: %w", err)
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
