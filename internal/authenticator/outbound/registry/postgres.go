package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	defaultTableName = "authenticator_secrets"

	createTable = `create table if not exists %[1]s (
	name text primary key,
	secret text not null,
	updated_at timestamptz not null default now()
)`
	selectAll = "select name, secret from %[1]s"
	upsertRow = "insert into %[1]s (name, secret, updated_at) values ($1, $2, now()) " +
		"on conflict (name) do update set secret = excluded.secret, updated_at = excluded.updated_at"
)

var ErrInvalidTableName = errors.New("registry: invalid postgres table name")

// Commander defines the pgx operations used by the postgres backend.
type Commander interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresBackend stores one row per account.
type PostgresBackend struct {
	db    Commander
	table string
}

// NewPostgresBackend creates the table when missing.
func NewPostgresBackend(ctx context.Context, db Commander, table string) (*PostgresBackend, error) {
	if table == "" {
		table = defaultTableName
	}
	if !validIdentifier(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}

	if _, err := db.Exec(ctx, fmt.Sprintf(createTable, table)); err != nil {
		return nil, err
	}

	return &PostgresBackend{db: db, table: table}, nil
}

func (p *PostgresBackend) Name() string { return DriverPostgres }

func (p *PostgresBackend) Load(ctx context.Context) (map[string]string, error) {
	rows, err := p.db.Query(ctx, fmt.Sprintf(selectAll, p.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	secrets := map[string]string{}
	for rows.Next() {
		var name, secret string
		if err := rows.Scan(&name, &secret); err != nil {
			return nil, err
		}
		secrets[name] = secret
	}

	return secrets, rows.Err()
}

// Store upserts the changed rows in one transaction.
func (p *PostgresBackend) Store(ctx context.Context, _, changed map[string]string) (err error) {
	if len(changed) == 0 {
		return nil
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	sql := fmt.Sprintf(upsertRow, p.table)
	batch := &pgx.Batch{}
	for name, secret := range changed {
		batch.Queue(sql, name, secret)
	}

	br := tx.SendBatch(ctx, batch)
	for range batch.Len() {
		if _, err = br.Exec(); err != nil {
			return errors.Join(err, br.Close())
		}
	}
	if err = br.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func validIdentifier(s string) bool {
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
