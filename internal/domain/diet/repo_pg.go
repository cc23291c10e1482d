package diet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

type dietRepoPG struct {
	pool *pgxpool.Pool
}

func NewDietRepo(pool *pgxpool.Pool) DietRepository {
	return &dietRepoPG{pool: pool}
}

func (r *dietRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const entryCols = `id, elder_id, group_id, meal_type, description, logged_by, consumed_at, violations, created_at`

func (r *dietRepoPG) CreateEntry(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO diet_entry (id, elder_id, group_id, meal_type, description, logged_by, consumed_at, violations)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.ElderID, e.GroupID, e.MealType, e.Description, e.LoggedBy, e.ConsumedAt, e.Violations,
	)
	return err
}

func (r *dietRepoPG) GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return scanEntry(r.conn(ctx).QueryRow(ctx, `SELECT `+entryCols+` FROM diet_entry WHERE id = $1`, id))
}

func (r *dietRepoPG) ListEntries(ctx context.Context, elderID uuid.UUID, from, to time.Time) ([]*Entry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+entryCols+` FROM diet_entry
		WHERE elder_id = $1 AND consumed_at >= $2 AND consumed_at < $3
		ORDER BY consumed_at`, elderID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntryRows(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *dietRepoPG) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM diet_entry WHERE id = $1`, id)
	return err
}

func (r *dietRepoPG) AddRestriction(ctx context.Context, restriction *Restriction) error {
	restriction.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO diet_restriction (id, elder_id, substance, reason)
		VALUES ($1,$2,$3,$4)`,
		restriction.ID, restriction.ElderID, restriction.Substance, restriction.Reason,
	)
	return err
}

func (r *dietRepoPG) GetRestriction(ctx context.Context, id uuid.UUID) (*Restriction, error) {
	var restriction Restriction
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, elder_id, substance, reason, created_at
		FROM diet_restriction WHERE id = $1`, id).
		Scan(&restriction.ID, &restriction.ElderID, &restriction.Substance, &restriction.Reason, &restriction.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &restriction, nil
}

func (r *dietRepoPG) ListRestrictions(ctx context.Context, elderID uuid.UUID) ([]*Restriction, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, elder_id, substance, reason, created_at
		FROM diet_restriction WHERE elder_id = $1 ORDER BY substance`, elderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restrictions []*Restriction
	for rows.Next() {
		var restriction Restriction
		if err := rows.Scan(&restriction.ID, &restriction.ElderID, &restriction.Substance,
			&restriction.Reason, &restriction.CreatedAt); err != nil {
			return nil, err
		}
		restrictions = append(restrictions, &restriction)
	}
	return restrictions, nil
}

func (r *dietRepoPG) RemoveRestriction(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM diet_restriction WHERE id = $1`, id)
	return err
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.ElderID, &e.GroupID, &e.MealType, &e.Description,
		&e.LoggedBy, &e.ConsumedAt, &e.Violations, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEntryRows(rows pgx.Rows) (*Entry, error) {
	var e Entry
	err := rows.Scan(&e.ID, &e.ElderID, &e.GroupID, &e.MealType, &e.Description,
		&e.LoggedBy, &e.ConsumedAt, &e.Violations, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
