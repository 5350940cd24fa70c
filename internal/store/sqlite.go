package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"voicebank/internal/models"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var ErrInvalidAmount = errors.New("amount must be a positive whole number of rupees")

// Store is the transaction store. Writes go through a single-connection
// writer handle; ad-hoc queries run on a separate handle opened with
// query_only so that no executed text can change state.
type Store struct {
	writer *sql.DB
	reader *sql.DB
	logger *slog.Logger
}

// Open opens the database at path, applies pending migrations and returns
// a ready store. path must be a file; both handles share it.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	writer, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.PingContext(ctx); err != nil {
		writer.Close()
		return nil, fmt.Errorf("ping writer: %w", err)
	}

	s := &Store{writer: writer, logger: logger}
	if err := s.migrate(); err != nil {
		writer.Close()
		return nil, err
	}

	reader, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=query_only(1)", path))
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	if err := reader.PingContext(ctx); err != nil {
		writer.Close()
		reader.Close()
		return nil, fmt.Errorf("ping reader: %w", err)
	}
	s.reader = reader

	logger.Info("transaction store ready", "path", path)
	return s, nil
}

// migrate applies the embedded schema. The migrate instance is not closed
// because closing it would close the writer handle as well.
func (s *Store) migrate() error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.writer, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			s.logger.Debug("no new migrations to apply")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	s.logger.Info("migrations applied")
	return nil
}

func (s *Store) Close() error {
	return errors.Join(s.reader.Close(), s.writer.Close())
}

func (s *Store) Ping(ctx context.Context) error {
	return s.reader.PingContext(ctx)
}

var seedRows = []models.Transaction{
	{Date: time.Date(2024, 12, 1, 10, 30, 0, 0, time.UTC), Beneficiary: "Rahul Kumar", Amount: 5000, Category: models.CategoryTransfer, Method: models.MethodUPI},
	{Date: time.Date(2024, 12, 1, 14, 20, 0, 0, time.UTC), Beneficiary: "Swiggy", Amount: 450, Category: models.CategoryFood, Method: models.MethodCard},
	{Date: time.Date(2024, 12, 2, 9, 15, 0, 0, time.UTC), Beneficiary: "Uber", Amount: 280, Category: models.CategoryTransport, Method: models.MethodWallet},
	{Date: time.Date(2024, 12, 2, 18, 45, 0, 0, time.UTC), Beneficiary: "Amazon", Amount: 1200, Category: models.CategoryShopping, Method: models.MethodCard},
	{Date: time.Date(2024, 12, 3, 12, 0, 0, 0, time.UTC), Beneficiary: "Netflix", Amount: 799, Category: models.CategoryEntertainment, Method: models.MethodCard},
}

// Seed inserts the starter transactions when the table is empty and
// reports how many rows it wrote.
func (s *Store) Seed(ctx context.Context) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, row := range seedRows {
		if _, err := tx.ExecContext(ctx, insertSQL, storedDate(row.Date), row.Beneficiary, row.Amount, row.Category, row.Method); err != nil {
			return 0, fmt.Errorf("seed %s: %w", row.Beneficiary, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}

	s.logger.Info("seeded transactions", "count", len(seedRows))
	return len(seedRows), nil
}

// storedDate renders t the way the date column holds it: UTC without a zone.
func storedDate(t time.Time) string {
	return t.UTC().Format(models.DateLayout)
}

const insertSQL = `INSERT INTO transactions (date, beneficiary, amount, category, method) VALUES (?, ?, ?, ?, ?)`

// Insert appends one transaction and returns its id.
func (s *Store) Insert(ctx context.Context, t models.Transaction) (int64, error) {
	if t.Amount <= 0 {
		return 0, ErrInvalidAmount
	}

	res, err := s.writer.ExecContext(ctx, insertSQL, storedDate(t.Date), t.Beneficiary, t.Amount, t.Category, t.Method)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// Execute runs one read-only query and returns its rows in order.
func (s *Store) Execute(ctx context.Context, q models.Query) (models.QueryResult, error) {
	rows, err := s.reader.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := models.QueryResult{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(models.Row, len(cols))
		for i, col := range cols {
			switch v := values[i].(type) {
			case nil:
			case []byte:
				row[col] = string(v)
			case time.Time:
				row[col] = storedDate(v)
			default:
				row[col] = v
			}
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
