package shift

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

type shiftRepoPG struct {
	pool *pgxpool.Pool
}

func NewShiftRepo(pool *pgxpool.Pool) ShiftRepository {
	return &shiftRepoPG{pool: pool}
}

func (r *shiftRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const shiftCols = `id, group_id, elder_id, caregiver_id, scheduled_start, scheduled_end,
	clock_in_at, clock_out_at, status, handoff_summary, created_at, updated_at`

func (r *shiftRepoPG) Create(ctx context.Context, s *Shift) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO shift (id, group_id, elder_id, caregiver_id, scheduled_start, scheduled_end, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.GroupID, s.ElderID, s.CaregiverID, s.ScheduledStart, s.ScheduledEnd, s.Status,
	)
	return err
}

func (r *shiftRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Shift, error) {
	return scanShift(r.conn(ctx).QueryRow(ctx, `SELECT `+shiftCols+` FROM shift WHERE id = $1`, id))
}

func (r *shiftRepoPG) Update(ctx context.Context, s *Shift) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE shift SET scheduled_start=$2, scheduled_end=$3, clock_in_at=$4, clock_out_at=$5,
			status=$6, handoff_summary=$7, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.ScheduledStart, s.ScheduledEnd, s.ClockInAt, s.ClockOutAt, s.Status, s.HandoffSummary,
	)
	return err
}

func (r *shiftRepoPG) ListByGroup(ctx context.Context, groupID uuid.UUID, from, to time.Time) ([]*Shift, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+shiftCols+` FROM shift
		WHERE group_id = $1 AND scheduled_start < $3 AND scheduled_end > $2
		ORDER BY scheduled_start`, groupID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectShifts(rows)
}

func (r *shiftRepoPG) ListByCaregiver(ctx context.Context, caregiverID uuid.UUID, from, to time.Time) ([]*Shift, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+shiftCols+` FROM shift
		WHERE caregiver_id = $1 AND scheduled_start < $3 AND scheduled_end > $2
		ORDER BY scheduled_start`, caregiverID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectShifts(rows)
}

func (r *shiftRepoPG) ListOverlapping(ctx context.Context, caregiverID uuid.UUID, start, end time.Time) ([]*Shift, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+shiftCols+` FROM shift
		WHERE caregiver_id = $1 AND status IN ('scheduled','in_progress')
			AND scheduled_start < $3 AND scheduled_end > $2`, caregiverID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectShifts(rows)
}

func (r *shiftRepoPG) AddNote(ctx context.Context, n *Note) error {
	n.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO shift_note (id, shift_id, author_id, content)
		VALUES ($1,$2,$3,$4)`,
		n.ID, n.ShiftID, n.AuthorID, n.Content,
	)
	return err
}

func (r *shiftRepoPG) ListNotes(ctx context.Context, shiftID uuid.UUID) ([]*Note, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, shift_id, author_id, content, created_at
		FROM shift_note WHERE shift_id = $1 ORDER BY created_at`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.ShiftID, &n.AuthorID, &n.Content, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, &n)
	}
	return notes, nil
}

func scanShift(row pgx.Row) (*Shift, error) {
	var s Shift
	err := row.Scan(&s.ID, &s.GroupID, &s.ElderID, &s.CaregiverID, &s.ScheduledStart, &s.ScheduledEnd,
		&s.ClockInAt, &s.ClockOutAt, &s.Status, &s.HandoffSummary, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectShifts(rows pgx.Rows) ([]*Shift, error) {
	var shifts []*Shift
	for rows.Next() {
		var s Shift
		if err := rows.Scan(&s.ID, &s.GroupID, &s.ElderID, &s.CaregiverID, &s.ScheduledStart, &s.ScheduledEnd,
			&s.ClockInAt, &s.ClockOutAt, &s.Status, &s.HandoffSummary, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		shifts = append(shifts, &s)
	}
	return shifts, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
