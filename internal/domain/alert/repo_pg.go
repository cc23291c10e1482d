package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

type alertRepoPG struct {
	pool *pgxpool.Pool
}

func NewAlertRepo(pool *pgxpool.Pool) AlertRepository {
	return &alertRepoPG{pool: pool}
}

func (r *alertRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const alertCols = `id, group_id, elder_id, severity, category, message, status,
	action_taken, false_positive, raised_by, created_at, resolved_at, updated_at`

func (r *alertRepoPG) Create(ctx context.Context, a *Alert) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO alert (id, group_id, elder_id, severity, category, message, status, action_taken, false_positive, raised_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.GroupID, a.ElderID, a.Severity, a.Category, a.Message, a.Status,
		a.ActionTaken, a.FalsePositive, a.RaisedBy,
	)
	return err
}

func (r *alertRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Alert, error) {
	return scanAlert(r.conn(ctx).QueryRow(ctx, `SELECT `+alertCols+` FROM alert WHERE id = $1`, id))
}

func (r *alertRepoPG) Update(ctx context.Context, a *Alert) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE alert SET status=$2, action_taken=$3, false_positive=$4, resolved_at=$5, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Status, a.ActionTaken, a.FalsePositive, a.ResolvedAt,
	)
	return err
}

func (r *alertRepoPG) ListByGroup(ctx context.Context, groupID uuid.UUID, status string, limit, offset int) ([]*Alert, int, error) {
	countQuery := `SELECT COUNT(*) FROM alert WHERE group_id = $1`
	dataQuery := `SELECT ` + alertCols + ` FROM alert WHERE group_id = $1`
	args := []interface{}{groupID}
	if status != "" {
		countQuery += ` AND status = $2`
		dataQuery += ` AND status = $2`
		args = append(args, status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataQuery += ` ORDER BY created_at DESC LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	alerts, err := collectAlerts(rows)
	if err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

func (r *alertRepoPG) ListWindow(ctx context.Context, groupID uuid.UUID, from, to time.Time) ([]*Alert, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+alertCols+` FROM alert
		WHERE group_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at`, groupID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.GroupID, &a.ElderID, &a.Severity, &a.Category, &a.Message, &a.Status,
		&a.ActionTaken, &a.FalsePositive, &a.RaisedBy, &a.CreatedAt, &a.ResolvedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAlerts(rows pgx.Rows) ([]*Alert, error) {
	var alerts []*Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.GroupID, &a.ElderID, &a.Severity, &a.Category, &a.Message, &a.Status,
			&a.ActionTaken, &a.FalsePositive, &a.RaisedBy, &a.CreatedAt, &a.ResolvedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, &a)
	}
	return alerts, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
