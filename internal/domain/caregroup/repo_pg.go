package caregroup

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

type groupRepoPG struct {
	pool *pgxpool.Pool
}

func NewGroupRepo(pool *pgxpool.Pool) GroupRepository {
	return &groupRepoPG{pool: pool}
}

func (r *groupRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const groupCols = `id, name, created_by, alert_sensitivity,
	recommended_sensitivity, recommendation_reason, recommended_at, created_at, updated_at`

func (r *groupRepoPG) Create(ctx context.Context, g *CareGroup) error {
	g.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO care_group (id, name, created_by, alert_sensitivity)
		VALUES ($1,$2,$3,$4)`,
		g.ID, g.Name, g.CreatedBy, g.AlertSensitivity,
	)
	return err
}

func (r *groupRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*CareGroup, error) {
	return scanGroup(r.conn(ctx).QueryRow(ctx, `SELECT `+groupCols+` FROM care_group WHERE id = $1`, id))
}

func (r *groupRepoPG) Update(ctx context.Context, g *CareGroup) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE care_group SET name=$2, alert_sensitivity=$3,
			recommended_sensitivity=$4, recommendation_reason=$5, recommended_at=$6, updated_at=NOW()
		WHERE id = $1`,
		g.ID, g.Name, g.AlertSensitivity,
		g.RecommendedSensitivity, g.RecommendationReason, g.RecommendedAt,
	)
	return err
}

func (r *groupRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM care_group WHERE id = $1`, id)
	return err
}

func (r *groupRepoPG) ListForUser(ctx context.Context, userID uuid.UUID) ([]*CareGroup, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT g.id, g.name, g.created_by, g.alert_sensitivity,
			g.recommended_sensitivity, g.recommendation_reason, g.recommended_at, g.created_at, g.updated_at
		FROM care_group g
		JOIN care_group_member m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGroups(rows)
}

func (r *groupRepoPG) ListAll(ctx context.Context) ([]*CareGroup, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+groupCols+` FROM care_group ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGroups(rows)
}

func (r *groupRepoPG) AddMember(ctx context.Context, m *Member) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO care_group_member (id, group_id, user_id, role, relationship)
		VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.GroupID, m.UserID, m.Role, m.Relationship,
	)
	return err
}

func (r *groupRepoPG) GetMember(ctx context.Context, groupID, userID uuid.UUID) (*Member, error) {
	var m Member
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, group_id, user_id, role, relationship, joined_at
		FROM care_group_member WHERE group_id = $1 AND user_id = $2`, groupID, userID).
		Scan(&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.Relationship, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *groupRepoPG) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*Member, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, group_id, user_id, role, relationship, joined_at
		FROM care_group_member WHERE group_id = $1 ORDER BY joined_at`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.Relationship, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	return members, nil
}

func (r *groupRepoPG) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM care_group_member WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	return err
}

func scanGroup(row pgx.Row) (*CareGroup, error) {
	var g CareGroup
	err := row.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.AlertSensitivity,
		&g.RecommendedSensitivity, &g.RecommendationReason, &g.RecommendedAt, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func collectGroups(rows pgx.Rows) ([]*CareGroup, error) {
	var groups []*CareGroup
	for rows.Next() {
		var g CareGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.AlertSensitivity,
			&g.RecommendedSensitivity, &g.RecommendationReason, &g.RecommendedAt, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, &g)
	}
	return groups, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
