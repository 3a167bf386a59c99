package store

import (
	"context"

	"github.com/pkg/errors"

	"fortuneone-chat-backend/internal/db"
	"fortuneone-chat-backend/internal/types"
)

// BookingLog records confirmed bookings in PostgreSQL. It is optional: when
// no database is configured the pipeline runs without one.
type BookingLog struct {
	db *db.DB
}

func NewBookingLog(database *db.DB) *BookingLog {
	return &BookingLog{db: database}
}

// Record inserts one confirmed booking. Conversation turns treat a failure
// here as soft; the confirmation is already on its way to the client.
func (bl *BookingLog) Record(ctx context.Context, businessID, sessionID string, conf *types.BookingConfirmation) error {
	if conf == nil || conf.BookingID == "" {
		return errors.New("booking confirmation is required")
	}

	query := `
		INSERT INTO bookings (booking_id, business_id, session_id, service_name, booked_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (booking_id) DO NOTHING
	`
	_, err := bl.db.ExecContext(ctx, query, conf.BookingID, businessID, sessionID, conf.ServiceName, conf.Time)
	return errors.Wrap(err, "failed to record booking")
}
