package agency

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

type agencyRepoPG struct {
	pool *pgxpool.Pool
}

func NewAgencyRepo(pool *pgxpool.Pool) AgencyRepository {
	return &agencyRepoPG{pool: pool}
}

func (r *agencyRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *agencyRepoPG) Create(ctx context.Context, a *Agency) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO agency (id, name, phone, email, address, created_by)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.Name, a.Phone, a.Email, a.Address, a.CreatedBy,
	)
	return err
}

func (r *agencyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Agency, error) {
	var a Agency
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, phone, email, address, created_by, created_at, updated_at
		FROM agency WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Phone, &a.Email, &a.Address, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *agencyRepoPG) Update(ctx context.Context, a *Agency) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE agency SET name=$2, phone=$3, email=$4, address=$5, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Name, a.Phone, a.Email, a.Address,
	)
	return err
}

func (r *agencyRepoPG) List(ctx context.Context) ([]*Agency, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, phone, email, address, created_by, created_at, updated_at
		FROM agency ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agencies []*Agency
	for rows.Next() {
		var a Agency
		if err := rows.Scan(&a.ID, &a.Name, &a.Phone, &a.Email, &a.Address, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		agencies = append(agencies, &a)
	}
	return agencies, nil
}

const profileCols = `id, user_id, agency_id, bio, languages, skills, availability_days,
	years_experience, trust_score, hourly_rate, latitude, longitude, verified, active,
	created_at, updated_at`

func (r *agencyRepoPG) CreateProfile(ctx context.Context, p *CaregiverProfile) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO caregiver_profile (id, user_id, agency_id, bio, languages, skills,
			availability_days, years_experience, trust_score, hourly_rate, latitude, longitude,
			verified, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		p.ID, p.UserID, p.AgencyID, p.Bio, p.Languages, p.Skills,
		p.AvailabilityDays, p.YearsExperience, p.TrustScore, p.HourlyRate, p.Latitude, p.Longitude,
		p.Verified, p.Active,
	)
	return err
}

func (r *agencyRepoPG) GetProfile(ctx context.Context, id uuid.UUID) (*CaregiverProfile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM caregiver_profile WHERE id = $1`, id))
}

func (r *agencyRepoPG) GetProfileByUser(ctx context.Context, userID uuid.UUID) (*CaregiverProfile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM caregiver_profile WHERE user_id = $1`, userID))
}

func (r *agencyRepoPG) UpdateProfile(ctx context.Context, p *CaregiverProfile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE caregiver_profile SET agency_id=$2, bio=$3, languages=$4, skills=$5,
			availability_days=$6, years_experience=$7, trust_score=$8, hourly_rate=$9,
			latitude=$10, longitude=$11, verified=$12, active=$13, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.AgencyID, p.Bio, p.Languages, p.Skills,
		p.AvailabilityDays, p.YearsExperience, p.TrustScore, p.HourlyRate,
		p.Latitude, p.Longitude, p.Verified, p.Active,
	)
	return err
}

// ListMatchable returns the matching pool: verified, active profiles.
func (r *agencyRepoPG) ListMatchable(ctx context.Context) ([]*CaregiverProfile, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+profileCols+` FROM caregiver_profile WHERE verified AND active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func (r *agencyRepoPG) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]*CaregiverProfile, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+profileCols+` FROM caregiver_profile WHERE agency_id = $1 ORDER BY created_at`, agencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProfiles(rows)
}

const docCols = `id, profile_id, kind, file_name, extracted_text, summary, status,
	reviewed_by, review_note, submitted_at, reviewed_at`

func (r *agencyRepoPG) CreateDocument(ctx context.Context, d *VerificationDocument) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO verification_document (id, profile_id, kind, file_name, extracted_text, summary, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		d.ID, d.ProfileID, d.Kind, d.FileName, d.ExtractedText, d.Summary, d.Status,
	)
	return err
}

func (r *agencyRepoPG) GetDocument(ctx context.Context, id uuid.UUID) (*VerificationDocument, error) {
	return scanDocument(r.conn(ctx).QueryRow(ctx,
		`SELECT `+docCols+` FROM verification_document WHERE id = $1`, id))
}

func (r *agencyRepoPG) UpdateDocument(ctx context.Context, d *VerificationDocument) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE verification_document SET status=$2, reviewed_by=$3, review_note=$4, reviewed_at=$5
		WHERE id = $1`,
		d.ID, d.Status, d.ReviewedBy, d.ReviewNote, d.ReviewedAt,
	)
	return err
}

func (r *agencyRepoPG) ListDocuments(ctx context.Context, profileID uuid.UUID) ([]*VerificationDocument, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+docCols+` FROM verification_document WHERE profile_id = $1 ORDER BY submitted_at`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (r *agencyRepoPG) ListPendingDocuments(ctx context.Context) ([]*VerificationDocument, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+docCols+` FROM verification_document WHERE status = 'pending' ORDER BY submitted_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func scanProfile(row pgx.Row) (*CaregiverProfile, error) {
	var p CaregiverProfile
	err := row.Scan(&p.ID, &p.UserID, &p.AgencyID, &p.Bio, &p.Languages, &p.Skills,
		&p.AvailabilityDays, &p.YearsExperience, &p.TrustScore, &p.HourlyRate,
		&p.Latitude, &p.Longitude, &p.Verified, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProfiles(rows pgx.Rows) ([]*CaregiverProfile, error) {
	var profiles []*CaregiverProfile
	for rows.Next() {
		var p CaregiverProfile
		if err := rows.Scan(&p.ID, &p.UserID, &p.AgencyID, &p.Bio, &p.Languages, &p.Skills,
			&p.AvailabilityDays, &p.YearsExperience, &p.TrustScore, &p.HourlyRate,
			&p.Latitude, &p.Longitude, &p.Verified, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, &p)
	}
	return profiles, nil
}

func scanDocument(row pgx.Row) (*VerificationDocument, error) {
	var d VerificationDocument
	err := row.Scan(&d.ID, &d.ProfileID, &d.Kind, &d.FileName, &d.ExtractedText, &d.Summary,
		&d.Status, &d.ReviewedBy, &d.ReviewNote, &d.SubmittedAt, &d.ReviewedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDocuments(rows pgx.Rows) ([]*VerificationDocument, error) {
	var docs []*VerificationDocument
	for rows.Next() {
		var d VerificationDocument
		if err := rows.Scan(&d.ID, &d.ProfileID, &d.Kind, &d.FileName, &d.ExtractedText, &d.Summary,
			&d.Status, &d.ReviewedBy, &d.ReviewNote, &d.SubmittedAt, &d.ReviewedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
