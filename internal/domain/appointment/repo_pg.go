package appointment

import (
	"context"
	"fmt"
	"time"

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

const apptColumns = `a.id, a.user_id, a.hospital_id, a.date, a.time_slot, a.reason,
	a.status, a.reminder_sent, a.created_at, u.username, u.email, h.name`

const apptJoins = ` FROM appointment a
	JOIN app_user u ON u.id = a.user_id
	JOIN hospital h ON h.id = a.hospital_id`

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointment (id, user_id, hospital_id, date, time_slot, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, a.HospitalID, a.Date, a.TimeSlot, a.Reason, a.Status,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+apptColumns+apptJoins+` WHERE a.id = $1`, id))
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+apptColumns+apptJoins+` WHERE a.user_id = $1 ORDER BY a.date DESC, a.time_slot DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *repoPG) ListByHospital(ctx context.Context, hospitalID uuid.UUID, f Filters, limit, offset int) ([]*Appointment, int, error) {
	where := ` WHERE a.hospital_id = $1`
	args := []interface{}{hospitalID}
	idx := 2

	if f.Status != "" {
		where += fmt.Sprintf(` AND a.status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Date != "" {
		where += fmt.Sprintf(` AND a.date = $%d`, idx)
		args = append(args, f.Date)
		idx++
	}
	if f.Search != "" {
		where += fmt.Sprintf(` AND u.username ILIKE $%d`, idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+apptJoins+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + apptColumns + apptJoins + where +
		` ORDER BY a.date ASC, a.time_slot ASC ` + pagination.Params{Limit: limit, Offset: offset}.SQL()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	appts, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return appts, total, nil
}

func (r *repoPG) Stats(ctx context.Context, hospitalID uuid.UUID) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Pending'),
			COUNT(*) FILTER (WHERE status = 'Confirmed'),
			COUNT(*) FILTER (WHERE status = 'Cancelled'),
			COUNT(*) FILTER (WHERE status = 'Completed')
		FROM appointment WHERE hospital_id = $1`, hospitalID).
		Scan(&s.Total, &s.Pending, &s.Confirmed, &s.Cancelled, &s.Completed)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE appointment SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

func (r *repoPG) DueForReminder(ctx context.Context, from, to time.Time) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+apptJoins+`
		WHERE a.status = 'Confirmed'
		  AND a.reminder_sent = false
		  AND (a.date + a.time_slot::time) >= $1
		  AND (a.date + a.time_slot::time) < $2`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *repoPG) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE appointment SET reminder_sent = true WHERE id = $1`, id)
	return err
}

func (r *repoPG) scan(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.UserID, &a.HospitalID, &a.Date, &a.TimeSlot, &a.Reason,
		&a.Status, &a.ReminderSent, &a.CreatedAt, &a.PatientName, &a.PatientEmail, &a.HospitalName,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) collect(rows pgx.Rows) ([]*Appointment, error) {
	var appts []*Appointment
	for rows.Next() {
		var a Appointment
		err := rows.Scan(
			&a.ID, &a.UserID, &a.HospitalID, &a.Date, &a.TimeSlot, &a.Reason,
			&a.Status, &a.ReminderSent, &a.CreatedAt, &a.PatientName, &a.PatientEmail, &a.HospitalName,
		)
		if err != nil {
			return nil, err
		}
		appts = append(appts, &a)
	}
	return appts, rows.Err()
}
