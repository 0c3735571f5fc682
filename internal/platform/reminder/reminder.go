// Package reminder sends appointment reminder emails. A daily job finds
// confirmed appointments starting in the next 24 to 25 hours that have not
// been reminded yet, mails each patient once, and marks them so a rerun never
// mails twice.
package reminder

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthconnect/healthconnect/internal/domain/appointment"
)

// AppointmentSource is the slice of appointment storage the job needs.
type AppointmentSource interface {
	DueForReminder(ctx context.Context, from, to time.Time) ([]*appointment.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

// Mailer delivers one email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	addr string // host:port
	from string
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) SendEmail(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)
	return smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg))
}

// Job is the daily reminder sweep.
type Job struct {
	appts  AppointmentSource
	mailer Mailer
	hour   int // local hour of day to run at
	logger zerolog.Logger
	now    func() time.Time
}

func NewJob(appts AppointmentSource, mailer Mailer, hour int, logger zerolog.Logger) *Job {
	return &Job{
		appts:  appts,
		mailer: mailer,
		hour:   hour,
		logger: logger.With().Str("component", "reminder").Logger(),
		now:    time.Now,
	}
}

// Run performs one sweep. Per-appointment failures are logged and skipped so
// one bad address never blocks the rest; the appointment stays unmarked and
// is retried on the next sweep.
func (j *Job) Run(ctx context.Context) error {
	now := j.now()
	due, err := j.appts.DueForReminder(ctx, now.Add(24*time.Hour), now.Add(25*time.Hour))
	if err != nil {
		return fmt.Errorf("find due appointments: %w", err)
	}

	sent := 0
	for _, a := range due {
		if a.PatientEmail == "" {
			j.logger.Warn().Str("appointment_id", a.ID.String()).Msg("no patient email on record")
			continue
		}
		subject := fmt.Sprintf("Reminder: appointment at %s tomorrow", a.HospitalName)
		body := fmt.Sprintf(
			"Hello %s,\r\n\r\nThis is a reminder of your appointment at %s on %s at %s.\r\nReason: %s\r\n\r\nHealthConnect",
			a.PatientName, a.HospitalName, a.Date.Format("2 January 2006"), a.TimeSlot, a.Reason,
		)
		if err := j.mailer.SendEmail(ctx, a.PatientEmail, subject, body); err != nil {
			j.logger.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("reminder email failed")
			continue
		}
		if err := j.appts.MarkReminderSent(ctx, a.ID); err != nil {
			j.logger.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("could not mark reminder sent")
			continue
		}
		sent++
	}

	j.logger.Info().Int("due", len(due)).Int("sent", sent).Msg("reminder sweep finished")
	return nil
}

// Start runs the job once a day at the configured hour until ctx is
// cancelled.
func (j *Job) Start(ctx context.Context) {
	go func() {
		for {
			timer := time.NewTimer(time.Until(j.nextRun()))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				if err := j.Run(ctx); err != nil {
					j.logger.Error().Err(err).Msg("reminder sweep failed")
				}
			}
		}
	}()
}

func (j *Job) nextRun() time.Time {
	now := j.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), j.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
