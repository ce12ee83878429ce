package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/groblegark/linklens/internal/model"
)

// linkColumns is the column list used for SELECT statements on the links table.
const linkColumns = `source_id, target_id, link_type, created_at, created_by`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Get implements linkstore.Store. A missing pair is an empty type, not an error.
func (s *PostgresStore) Get(ctx context.Context, source, target string) (string, error) {
	return queryGetLinkType(ctx, s.db, source, target)
}

// Put implements linkstore.Store. An existing record for the pair is replaced.
func (s *PostgresStore) Put(ctx context.Context, link *model.Link) error {
	return queryPutLink(ctx, s.db, link)
}

// Delete implements linkstore.Store.
func (s *PostgresStore) Delete(ctx context.Context, source, target string) (bool, error) {
	return queryDeleteLink(ctx, s.db, source, target)
}

// List implements linkstore.Store, returning records sorted by source then target.
func (s *PostgresStore) List(ctx context.Context) ([]*model.Link, error) {
	return queryListLinks(ctx, s.db)
}

func queryGetLinkType(ctx context.Context, db executor, source, target string) (string, error) {
	var typ string
	err := db.QueryRowContext(ctx,
		`SELECT link_type FROM links WHERE source_id = $1 AND target_id = $2`,
		source, target,
	).Scan(&typ)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return typ, nil
}

func queryPutLink(ctx context.Context, db executor, l *model.Link) error {
	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO links (source_id, target_id, link_type, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_id, target_id)
		DO UPDATE SET link_type = EXCLUDED.link_type, created_by = EXCLUDED.created_by`,
		l.Source,
		l.Target,
		string(l.Type),
		createdAt,
		l.CreatedBy,
	)
	return err
}

func queryDeleteLink(ctx context.Context, db executor, source, target string) (bool, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM links WHERE source_id = $1 AND target_id = $2`,
		source, target,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func queryListLinks(ctx context.Context, db executor) ([]*model.Link, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links ORDER BY source_id, target_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*model.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func scanLink(rows *sql.Rows) (*model.Link, error) {
	var l model.Link
	var typ string
	if err := rows.Scan(&l.Source, &l.Target, &typ, &l.CreatedAt, &l.CreatedBy); err != nil {
		return nil, err
	}
	l.Type = model.LinkType(typ)
	return &l, nil
}
