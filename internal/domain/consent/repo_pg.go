package consent

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

type consentRepoPG struct {
	pool *pgxpool.Pool
}

func NewConsentRepo(pool *pgxpool.Pool) ConsentRepository {
	return &consentRepoPG{pool: pool}
}

func (r *consentRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const consentCols = `id, elder_id, group_id, granted_to, scope, status, granted_by, granted_at, revoked_at`

func (r *consentRepoPG) Create(ctx context.Context, c *Consent) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consent (id, elder_id, group_id, granted_to, scope, status, granted_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.ElderID, c.GroupID, c.GrantedTo, c.Scope, c.Status, c.GrantedBy,
	)
	return err
}

func (r *consentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consent, error) {
	return scanConsent(r.conn(ctx).QueryRow(ctx, `SELECT `+consentCols+` FROM consent WHERE id = $1`, id))
}

func (r *consentRepoPG) Update(ctx context.Context, c *Consent) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE consent SET status=$2, revoked_at=$3 WHERE id = $1`,
		c.ID, c.Status, c.RevokedAt,
	)
	return err
}

func (r *consentRepoPG) ListByElder(ctx context.Context, elderID uuid.UUID) ([]*Consent, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+consentCols+` FROM consent WHERE elder_id = $1 ORDER BY granted_at`, elderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConsents(rows)
}

func (r *consentRepoPG) FindGranted(ctx context.Context, userID, elderID uuid.UUID) ([]*Consent, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+consentCols+` FROM consent
		WHERE granted_to = $1 AND elder_id = $2 AND status = 'granted'`, userID, elderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConsents(rows)
}

func (r *consentRepoPG) RecordAccess(ctx context.Context, e *AccessEntry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO access_log (id, user_id, elder_id, resource)
		VALUES ($1,$2,$3,$4)`,
		e.ID, e.UserID, e.ElderID, e.Resource,
	)
	return err
}

func (r *consentRepoPG) ListAccess(ctx context.Context, elderID uuid.UUID, limit, offset int) ([]*AccessEntry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM access_log WHERE elder_id = $1`, elderID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, user_id, elder_id, resource, occurred_at
		FROM access_log WHERE elder_id = $1
		ORDER BY occurred_at DESC LIMIT $2 OFFSET $3`, elderID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*AccessEntry
	for rows.Next() {
		var e AccessEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ElderID, &e.Resource, &e.OccurredAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, &e)
	}
	return entries, total, nil
}

func scanConsent(row pgx.Row) (*Consent, error) {
	var c Consent
	err := row.Scan(&c.ID, &c.ElderID, &c.GroupID, &c.GrantedTo, &c.Scope, &c.Status,
		&c.GrantedBy, &c.GrantedAt, &c.RevokedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectConsents(rows pgx.Rows) ([]*Consent, error) {
	var consents []*Consent
	for rows.Next() {
		var c Consent
		if err := rows.Scan(&c.ID, &c.ElderID, &c.GroupID, &c.GrantedTo, &c.Scope, &c.Status,
			&c.GrantedBy, &c.GrantedAt, &c.RevokedAt); err != nil {
			return nil, err
		}
		consents = append(consents, &c)
	}
	return consents, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
