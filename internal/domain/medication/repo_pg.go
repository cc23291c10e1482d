package medication

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

type medicationRepoPG struct {
	pool *pgxpool.Pool
}

func NewMedicationRepo(pool *pgxpool.Pool) MedicationRepository {
	return &medicationRepoPG{pool: pool}
}

func (r *medicationRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const medCols = `id, elder_id, group_id, name, dosage, instructions, prescribed_by, active, created_at, updated_at`

func (r *medicationRepoPG) Create(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medication (id, elder_id, group_id, name, dosage, instructions, prescribed_by, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.ElderID, m.GroupID, m.Name, m.Dosage, m.Instructions, m.PrescribedBy, m.Active,
	)
	return err
}

func (r *medicationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return scanMedication(r.conn(ctx).QueryRow(ctx, `SELECT `+medCols+` FROM medication WHERE id = $1`, id))
}

func (r *medicationRepoPG) Update(ctx context.Context, m *Medication) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medication SET name=$2, dosage=$3, instructions=$4, prescribed_by=$5, active=$6, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.Dosage, m.Instructions, m.PrescribedBy, m.Active,
	)
	return err
}

func (r *medicationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medication WHERE id = $1`, id)
	return err
}

func (r *medicationRepoPG) ListByElder(ctx context.Context, elderID uuid.UUID, activeOnly bool) ([]*Medication, error) {
	query := `SELECT ` + medCols + ` FROM medication WHERE elder_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY name`

	rows, err := r.conn(ctx).Query(ctx, query, elderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []*Medication
	for rows.Next() {
		m, err := scanMedicationRows(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, nil
}

func (r *medicationRepoPG) AddSchedule(ctx context.Context, s *Schedule) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medication_schedule (id, medication_id, time_of_day, days_of_week, active)
		VALUES ($1,$2,$3,$4,$5)`,
		s.ID, s.MedicationID, s.TimeOfDay, s.DaysOfWeek, s.Active,
	)
	return err
}

func (r *medicationRepoPG) GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	var s Schedule
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, medication_id, time_of_day, days_of_week, active, created_at
		FROM medication_schedule WHERE id = $1`, id).
		Scan(&s.ID, &s.MedicationID, &s.TimeOfDay, &s.DaysOfWeek, &s.Active, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *medicationRepoPG) ListSchedules(ctx context.Context, medicationID uuid.UUID) ([]*Schedule, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, medication_id, time_of_day, days_of_week, active, created_at
		FROM medication_schedule WHERE medication_id = $1 ORDER BY time_of_day`, medicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*Schedule
	for rows.Next() {
		var s Schedule
		if err := rows.Scan(&s.ID, &s.MedicationID, &s.TimeOfDay, &s.DaysOfWeek, &s.Active, &s.CreatedAt); err != nil {
			return nil, err
		}
		schedules = append(schedules, &s)
	}
	return schedules, nil
}

func (r *medicationRepoPG) RemoveSchedule(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medication_schedule WHERE id = $1`, id)
	return err
}

func (r *medicationRepoPG) ListActiveSchedules(ctx context.Context) ([]*ScheduleWithMedication, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT s.id, s.medication_id, s.time_of_day, s.days_of_week, s.active, s.created_at,
			m.id, m.elder_id, m.group_id, m.name, m.dosage, m.instructions, m.prescribed_by, m.active, m.created_at, m.updated_at
		FROM medication_schedule s
		JOIN medication m ON m.id = s.medication_id
		WHERE s.active AND m.active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ScheduleWithMedication
	for rows.Next() {
		var s Schedule
		var m Medication
		if err := rows.Scan(
			&s.ID, &s.MedicationID, &s.TimeOfDay, &s.DaysOfWeek, &s.Active, &s.CreatedAt,
			&m.ID, &m.ElderID, &m.GroupID, &m.Name, &m.Dosage, &m.Instructions, &m.PrescribedBy, &m.Active, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &ScheduleWithMedication{Schedule: &s, Medication: &m})
	}
	return out, nil
}

func (r *medicationRepoPG) LogDose(ctx context.Context, d *DoseLog) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO dose_log (id, medication_id, schedule_id, elder_id, scheduled_for, status, logged_by, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.MedicationID, d.ScheduleID, d.ElderID, d.ScheduledFor, d.Status, d.LoggedBy, d.Notes,
	)
	return err
}

func (r *medicationRepoPG) ListDoseLogs(ctx context.Context, elderID uuid.UUID, from, to time.Time) ([]*DoseLog, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, medication_id, schedule_id, elder_id, scheduled_for, status, logged_by, notes, created_at
		FROM dose_log
		WHERE elder_id = $1 AND scheduled_for >= $2 AND scheduled_for < $3
		ORDER BY scheduled_for`, elderID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*DoseLog
	for rows.Next() {
		var d DoseLog
		if err := rows.Scan(&d.ID, &d.MedicationID, &d.ScheduleID, &d.ElderID, &d.ScheduledFor,
			&d.Status, &d.LoggedBy, &d.Notes, &d.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &d)
	}
	return logs, nil
}

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.ElderID, &m.GroupID, &m.Name, &m.Dosage, &m.Instructions,
		&m.PrescribedBy, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanMedicationRows(rows pgx.Rows) (*Medication, error) {
	var m Medication
	err := rows.Scan(&m.ID, &m.ElderID, &m.GroupID, &m.Name, &m.Dosage, &m.Instructions,
		&m.PrescribedBy, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
