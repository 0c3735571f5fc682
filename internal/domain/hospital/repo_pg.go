package hospital

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthconnect/healthconnect/pkg/pagination"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const hospitalColumns = `id, name, city, address, contact_number, email, website,
	total_beds, available_beds, icu_beds, emergency_beds,
	facilities, facility_status, medical_specialties,
	rating, notes, last_updated, created_at`

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	h.ID = uuid.New()
	if h.FacilityStatus == nil {
		h.FacilityStatus = map[string]string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO hospital (
			id, name, city, address, contact_number, email, website,
			total_beds, available_beds, icu_beds, emergency_beds,
			facilities, facility_status, medical_specialties,
			rating, notes, last_updated
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW())`,
		h.ID, h.Name, h.City, h.Address, h.ContactNumber, h.Email, h.Website,
		h.TotalBeds, h.AvailableBeds, h.ICUBeds, h.EmergencyBeds,
		h.Facilities, h.FacilityStatus, h.MedicalSpecialties,
		h.Rating, h.Notes,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+hospitalColumns+` FROM hospital WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, h *Hospital) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE hospital SET
			name = $2, city = $3, address = $4, contact_number = $5, email = $6, website = $7,
			total_beds = $8, available_beds = $9, icu_beds = $10, emergency_beds = $11,
			facilities = $12, facility_status = $13, medical_specialties = $14,
			rating = $15, notes = $16, last_updated = $17
		WHERE id = $1`,
		h.ID, h.Name, h.City, h.Address, h.ContactNumber, h.Email, h.Website,
		h.TotalBeds, h.AvailableBeds, h.ICUBeds, h.EmergencyBeds,
		h.Facilities, h.FacilityStatus, h.MedicalSpecialties,
		h.Rating, h.Notes, h.LastUpdated,
	)
	return err
}

// searchFilter builds the WHERE tail and arguments for a directory search.
// City and facility match as unanchored case-insensitive substrings, so
// ?city=pun finds Pune and ?facility=icu finds "ICU Ward".
func searchFilter(params SearchParams) (string, []interface{}) {
	var clauses string
	var args []interface{}
	idx := 1

	if params.City != "" {
		clauses += fmt.Sprintf(` AND city ILIKE $%d`, idx)
		args = append(args, "%"+params.City+"%")
		idx++
	}
	if params.Facility != "" {
		clauses += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM unnest(facilities) f WHERE f ILIKE $%d)`, idx)
		args = append(args, "%"+params.Facility+"%")
		idx++
	}
	if params.AvailableOnly {
		clauses += ` AND available_beds > 0`
	}
	if params.Search != "" {
		clauses += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		args = append(args, "%"+params.Search+"%")
		idx++
	}
	return clauses, args
}

// orderClause maps client sort keys onto columns. The key set matches what
// the frontend sends; anything else means no explicit ordering. Request
// strings never reach the SQL directly.
func orderClause(sortBy string) string {
	switch sortBy {
	case "availableBeds":
		return ` ORDER BY available_beds DESC`
	case "name":
		return ` ORDER BY name ASC`
	case "lastUpdated":
		return ` ORDER BY last_updated DESC`
	}
	return ``
}

func (r *repoPG) Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Hospital, int, error) {
	filter, args := searchFilter(params)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hospital WHERE 1=1`+filter, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + hospitalColumns + ` FROM hospital WHERE 1=1` + filter +
		orderClause(params.SortBy) + ` ` + pagination.Params{Limit: limit, Offset: offset}.SQL()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var hospitals []*Hospital
	for rows.Next() {
		h, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		hospitals = append(hospitals, h)
	}
	return hospitals, total, rows.Err()
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Hospital, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+hospitalColumns+` FROM hospital ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hospitals []*Hospital
	for rows.Next() {
		h, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		hospitals = append(hospitals, h)
	}
	return hospitals, rows.Err()
}

func (r *repoPG) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	opts := &FilterOptions{}

	rows, err := r.pool.Query(ctx, `SELECT DISTINCT city FROM hospital ORDER BY city`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, err
		}
		opts.Cities = append(opts.Cities, city)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	frows, err := r.pool.Query(ctx, `SELECT DISTINCT unnest(facilities) AS f FROM hospital ORDER BY f`)
	if err != nil {
		return nil, err
	}
	defer frows.Close()
	for frows.Next() {
		var facility string
		if err := frows.Scan(&facility); err != nil {
			return nil, err
		}
		opts.Facilities = append(opts.Facilities, facility)
	}
	return opts, frows.Err()
}

func (r *repoPG) scan(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(
		&h.ID, &h.Name, &h.City, &h.Address, &h.ContactNumber, &h.Email, &h.Website,
		&h.TotalBeds, &h.AvailableBeds, &h.ICUBeds, &h.EmergencyBeds,
		&h.Facilities, &h.FacilityStatus, &h.MedicalSpecialties,
		&h.Rating, &h.Notes, &h.LastUpdated, &h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *repoPG) scanRow(rows pgx.Rows) (*Hospital, error) {
	var h Hospital
	err := rows.Scan(
		&h.ID, &h.Name, &h.City, &h.Address, &h.ContactNumber, &h.Email, &h.Website,
		&h.TotalBeds, &h.AvailableBeds, &h.ICUBeds, &h.EmergencyBeds,
		&h.Facilities, &h.FacilityStatus, &h.MedicalSpecialties,
		&h.Rating, &h.Notes, &h.LastUpdated, &h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
