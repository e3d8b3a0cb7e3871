package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finwell/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteRepository)(nil)

// SQLiteRepository persists categories, transactions and budgets in SQLite.
// Amounts are stored as integer cents and sums are computed in SQL.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

// DSN builds a modernc connection string with foreign keys enforced on every
// pooled connection.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Categories

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (owner_id, name, type, created_at) VALUES (?, ?, ?, ?)`,
		c.Owner, c.Name, string(c.Type), r.now().Unix())
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	c.ID = id

	slog.InfoContext(ctx, "Category saved to SQLite", "id", id, "owner_id", c.Owner, "type", c.Type)
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ? WHERE id = ? AND owner_id = ?`,
		c.Name, string(c.Type), c.ID, c.Owner)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, owner string, id int64) (core.Category, error) {
	var c core.Category
	var typ string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, type FROM categories WHERE id = ? AND owner_id = ?`,
		id, owner).Scan(&c.ID, &c.Owner, &c.Name, &typ)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Type = core.CategoryType(typ)
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, owner string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, type FROM categories WHERE owner_id = ? ORDER BY id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var typ string
		if err := rows.Scan(&c.ID, &c.Owner, &c.Name, &typ); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.CategoryType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCategory removes dependents explicitly so the cascade holds even on
// connections opened without foreign key enforcement.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, owner string, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	txRes, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE category_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category transactions: %w", err)
	}
	budRes, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE category_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category budgets: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	txCount, _ := txRes.RowsAffected()
	budCount, _ := budRes.RowsAffected()
	slog.InfoContext(ctx, "Category deleted",
		"id", id,
		"owner_id", owner,
		"transactions_removed", txCount,
		"budgets_removed", budCount)
	return nil
}

// Transactions

const transactionColumns = `t.id, t.owner_id, t.category_id, c.name, c.type, t.amount_cents, t.date, t.description`

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := r.now().Unix()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (owner_id, category_id, amount_cents, date, description, created_at, updated_at)
		 SELECT ?, id, ?, ?, ?, ?, ? FROM categories WHERE id = ? AND owner_id = ?`,
		t.Owner, core.ToCents(t.Amount), t.Date.String(), t.Description, now, now, t.Category.ID, t.Owner)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return core.Transaction{}, fmt.Errorf("category %d: %w", t.Category.ID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"owner_id", t.Owner,
		"category_id", t.Category.ID,
		"amount_cents", core.ToCents(t.Amount),
		"date", t.Date.String())

	return r.GetTransaction(ctx, t.Owner, id)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET category_id = ?, amount_cents = ?, date = ?, description = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?
		   AND EXISTS (SELECT 1 FROM categories WHERE id = ? AND owner_id = ?)`,
		t.Category.ID, core.ToCents(t.Amount), t.Date.String(), t.Description, r.now().Unix(),
		t.ID, t.Owner, t.Category.ID, t.Owner)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	return r.GetTransaction(ctx, t.Owner, t.ID)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions t JOIN categories c ON c.id = t.category_id
		 WHERE t.id = ? AND t.owner_id = ?`, id, owner)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, owner string, f core.TransactionFilter) ([]core.Transaction, error) {
	where, args := transactionWhere(owner, f)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions t JOIN categories c ON c.id = t.category_id
		 WHERE `+where+` ORDER BY t.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SumTransactions(ctx context.Context, owner string, categoryID int64, dr core.DateRange) (decimal.Decimal, error) {
	where, args := transactionWhere(owner, core.TransactionFilter{
		Start:      dr.From,
		End:        dr.To,
		CategoryID: categoryID,
	})
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(t.amount_cents), 0) FROM transactions t WHERE `+where, args...).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	return core.FromCents(cents), nil
}

func transactionWhere(owner string, f core.TransactionFilter) (string, []any) {
	clauses := []string{"t.owner_id = ?"}
	args := []any{owner}
	if !f.Start.IsZero() {
		clauses = append(clauses, "t.date >= ?")
		args = append(args, f.Start.String())
	}
	if !f.End.IsZero() {
		clauses = append(clauses, "t.date <= ?")
		args = append(args, f.End.String())
	}
	if f.Month != 0 {
		clauses = append(clauses, "CAST(strftime('%m', t.date) AS INTEGER) = ?")
		args = append(args, f.Month)
	}
	if f.Year != 0 {
		clauses = append(clauses, "CAST(strftime('%Y', t.date) AS INTEGER) = ?")
		args = append(args, f.Year)
	}
	if f.CategoryID != 0 {
		clauses = append(clauses, "t.category_id = ?")
		args = append(args, f.CategoryID)
	}
	return strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t     core.Transaction
		typ   string
		cents int64
		date  string
	)
	if err := row.Scan(&t.ID, &t.Owner, &t.Category.ID, &t.Category.Name, &typ, &cents, &date, &t.Description); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	t.Category.Owner = t.Owner
	t.Category.Type = core.CategoryType(typ)
	t.Amount = core.FromCents(cents)
	t.Date = d
	return t, nil
}

// Budgets

const budgetColumns = `b.id, b.owner_id, b.category_id, c.name, c.type, b.amount_cents, b.period, b.created_at`

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (owner_id, category_id, amount_cents, period, created_at, updated_at)
		 SELECT ?, id, ?, ?, ?, ? FROM categories WHERE id = ? AND owner_id = ?`,
		b.Owner, core.ToCents(b.Amount), b.Period.String(), now.Unix(), now.Unix(), b.Category.ID, b.Owner)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return core.Budget{}, fmt.Errorf("category %d: %w", b.Category.ID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved to SQLite",
		"id", id,
		"owner_id", b.Owner,
		"category_id", b.Category.ID,
		"period", b.Period.String())

	return r.GetBudget(ctx, b.Owner, id)
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets
		 SET category_id = ?, amount_cents = ?, period = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?
		   AND EXISTS (SELECT 1 FROM categories WHERE id = ? AND owner_id = ?)`,
		b.Category.ID, core.ToCents(b.Amount), b.Period.String(), r.now().Unix(),
		b.ID, b.Owner, b.Category.ID, b.Owner)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	return r.GetBudget(ctx, b.Owner, b.ID)
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, owner string, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+`
		 FROM budgets b JOIN categories c ON c.id = b.category_id
		 WHERE b.id = ? AND b.owner_id = ?`, id, owner)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) FindBudget(ctx context.Context, owner string, categoryID int64, p core.Period) (core.Budget, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+`
		 FROM budgets b JOIN categories c ON c.id = b.category_id
		 WHERE b.owner_id = ? AND b.category_id = ? AND b.period = ?
		 ORDER BY b.id DESC LIMIT 1`, owner, categoryID, p.String())
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("find budget: %w", err)
	}
	return b, true, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, owner string, p *core.Period) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + `
		 FROM budgets b JOIN categories c ON c.id = b.category_id
		 WHERE b.owner_id = ?`
	args := []any{owner}
	if p != nil {
		query += ` AND b.period = ?`
		args = append(args, p.String())
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY b.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b       core.Budget
		typ     string
		cents   int64
		period  string
		created int64
	)
	if err := row.Scan(&b.ID, &b.Owner, &b.Category.ID, &b.Category.Name, &typ, &cents, &period, &created); err != nil {
		return core.Budget{}, err
	}
	p, err := core.ParsePeriod(period)
	if err != nil {
		return core.Budget{}, fmt.Errorf("stored period %q: %w", period, err)
	}
	b.Category.Owner = b.Owner
	b.Category.Type = core.CategoryType(typ)
	b.Amount = core.FromCents(cents)
	b.Period = p
	b.CreatedAt = time.Unix(created, 0).UTC()
	return b, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
