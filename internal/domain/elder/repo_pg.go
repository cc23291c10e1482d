package elder

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

type elderRepoPG struct {
	pool *pgxpool.Pool
}

func NewElderRepo(pool *pgxpool.Pool) ElderRepository {
	return &elderRepoPG{pool: pool}
}

func (r *elderRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const elderCols = `id, group_id, first_name, last_name, birth_date, conditions, allergies, languages, notes,
	latitude, longitude, address, city,
	emergency_contact_name, emergency_contact_phone, created_at, updated_at`

func (r *elderRepoPG) Create(ctx context.Context, e *Elder) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO elder (id, group_id, first_name, last_name, birth_date, conditions, allergies, languages, notes,
			latitude, longitude, address, city, emergency_contact_name, emergency_contact_phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		e.ID, e.GroupID, e.FirstName, e.LastName, e.BirthDate, e.Conditions, e.Allergies, e.Languages, e.Notes,
		e.Latitude, e.Longitude, e.Address, e.City, e.EmergencyContactName, e.EmergencyContactPhone,
	)
	return err
}

func (r *elderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Elder, error) {
	return scanElder(r.conn(ctx).QueryRow(ctx, `SELECT `+elderCols+` FROM elder WHERE id = $1`, id))
}

func (r *elderRepoPG) Update(ctx context.Context, e *Elder) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE elder SET
			first_name=$2, last_name=$3, birth_date=$4, conditions=$5, allergies=$6, languages=$7, notes=$8,
			latitude=$9, longitude=$10, address=$11, city=$12,
			emergency_contact_name=$13, emergency_contact_phone=$14, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.FirstName, e.LastName, e.BirthDate, e.Conditions, e.Allergies, e.Languages, e.Notes,
		e.Latitude, e.Longitude, e.Address, e.City,
		e.EmergencyContactName, e.EmergencyContactPhone,
	)
	return err
}

func (r *elderRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM elder WHERE id = $1`, id)
	return err
}

func (r *elderRepoPG) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*Elder, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+elderCols+` FROM elder WHERE group_id = $1 ORDER BY created_at`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var elders []*Elder
	for rows.Next() {
		e, err := scanElderRows(rows)
		if err != nil {
			return nil, err
		}
		elders = append(elders, e)
	}
	return elders, nil
}

func scanElder(row pgx.Row) (*Elder, error) {
	var e Elder
	err := row.Scan(
		&e.ID, &e.GroupID, &e.FirstName, &e.LastName, &e.BirthDate, &e.Conditions, &e.Allergies, &e.Languages, &e.Notes,
		&e.Latitude, &e.Longitude, &e.Address, &e.City,
		&e.EmergencyContactName, &e.EmergencyContactPhone, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanElderRows(rows pgx.Rows) (*Elder, error) {
	var e Elder
	err := rows.Scan(
		&e.ID, &e.GroupID, &e.FirstName, &e.LastName, &e.BirthDate, &e.Conditions, &e.Allergies, &e.Languages, &e.Notes,
		&e.Latitude, &e.Longitude, &e.Address, &e.City,
		&e.EmergencyContactName, &e.EmergencyContactPhone, &e.CreatedAt, &e.UpdatedAt,
	)
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
