// Package postgresql реализует хранилище учётных записей на PostgreSQL
// через database/sql и драйвер pgx. Схема применяется миграциями при открытии.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/migrations"
	"github.com/magabrotheeeer/user-management/internal/models"
)

const uniqueViolation = "23505"

const selectColumns = `uid, full_name, email, password_hash, role, status, last_login, created_at`

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и применяет миграции.
func New(ctx context.Context, dsn string) (*Storage, error) {
	const op = "postgresql.New"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{DB: db}, nil
}

func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return fmt.Errorf("%s: %w", op, apperr.ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrStore, err)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var (
		a         models.Account
		role      string
		status    string
		lastLogin sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.PasswordHash,
		&role, &status, &lastLogin, &a.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if a.Role, err = models.ParseRole(role); err != nil {
		return nil, err
	}
	if a.Status, err = models.ParseStatus(status); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		a.LastLogin = &t
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

// validID отсекает ID, которые не могут быть UUID: такой учётной записи нет.
func validID(op, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

// Create сохраняет новую учётную запись.
func (s *Storage) Create(ctx context.Context, account *models.Account) error {
	const op = "postgresql.Create"

	query := `INSERT INTO users (uid, full_name, email, password_hash, role, status, last_login, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := s.DB.ExecContext(ctx, query,
		account.ID, account.FullName, account.Email, account.PasswordHash,
		string(account.Role), string(account.Status), account.LastLogin, account.CreatedAt); err != nil {
		return storeErr(op, err)
	}
	return nil
}

// GetByID возвращает учётную запись по ID.
func (s *Storage) GetByID(ctx context.Context, id string) (*models.Account, error) {
	const op = "postgresql.GetByID"
	if err := validID(op, id); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM users WHERE uid = $1`, id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, storeErr(op, err)
	}
	return a, nil
}

// GetByEmail возвращает учётную запись по email.
func (s *Storage) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "postgresql.GetByEmail"

	row := s.DB.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM users WHERE email = $1`, email)
	a, err := scanAccount(row)
	if err != nil {
		return nil, storeErr(op, err)
	}
	return a, nil
}

// UpdateProfile меняет имя и email и возвращает обновлённую запись.
func (s *Storage) UpdateProfile(ctx context.Context, id, fullName, email string) (*models.Account, error) {
	const op = "postgresql.UpdateProfile"
	if err := validID(op, id); err != nil {
		return nil, err
	}

	query := `UPDATE users SET full_name = $2, email = $3
			  WHERE uid = $1
			  RETURNING ` + selectColumns
	a, err := scanAccount(s.DB.QueryRowContext(ctx, query, id, fullName, email))
	if err != nil {
		return nil, storeErr(op, err)
	}
	return a, nil
}

func (s *Storage) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, storeErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr(op, err)
	}
	return n, nil
}

// UpdatePassword перезаписывает хэш пароля.
func (s *Storage) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const op = "postgresql.UpdatePassword"
	if err := validID(op, id); err != nil {
		return err
	}

	n, err := s.exec(ctx, op, `UPDATE users SET password_hash = $2 WHERE uid = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

// SetStatus меняет статус. Условие role <> 'admin' не даёт изменить администратора.
func (s *Storage) SetStatus(ctx context.Context, id string, status models.Status) error {
	const op = "postgresql.SetStatus"
	if err := validID(op, id); err != nil {
		return err
	}

	n, err := s.exec(ctx, op, `UPDATE users SET status = $2 WHERE uid = $1 AND role <> 'admin'`, id, string(status))
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err = s.GetByID(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: admin status is immutable: %w", op, apperr.ErrForbidden)
}

// TouchLastLogin записывает время последнего входа.
func (s *Storage) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	const op = "postgresql.TouchLastLogin"
	if err := validID(op, id); err != nil {
		return err
	}

	n, err := s.exec(ctx, op, `UPDATE users SET last_login = $2 WHERE uid = $1`, id, at.UTC())
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

// List возвращает страницу учётных записей в порядке создания.
func (s *Storage) List(ctx context.Context, offset, limit int) ([]*models.Account, error) {
	const op = "postgresql.List"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM users ORDER BY created_at, uid LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Account, 0, limit)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return result, nil
}

// Count возвращает число учётных записей.
func (s *Storage) Count(ctx context.Context) (int64, error) {
	const op = "postgresql.Count"

	var n int64
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, storeErr(op, err)
	}
	return n, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close(_ context.Context) error {
	return s.DB.Close()
}
