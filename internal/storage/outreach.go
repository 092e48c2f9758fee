package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neexbeast/tripmate/internal/trip"
)

const (
	EmailQueued    = "queued"
	ContactNew     = "new"
	ContactByEmail = "email"
	ContactByPhone = "phone"
)

// QueuedEmail is a request to mail a trip to someone. Delivery happens
// outside this service; rows wait in email_queue with status queued.
type QueuedEmail struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Recipient string    `json:"recipient_email"`
	TripFrom  string    `json:"trip_from"`
	TripTo    string    `json:"trip_to"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactSubmission is a contact-form message, optionally tied to the trip
// the visitor was looking at.
type ContactSubmission struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Message          string    `json:"message,omitempty"`
	PreferredContact string    `json:"preferred_contact"`
	SessionID        string    `json:"session_id,omitempty"`
	TripFrom         string    `json:"trip_from,omitempty"`
	TripTo           string    `json:"trip_to,omitempty"`
	TripDuration     string    `json:"trip_duration,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// QueueTripEmail stores a request to send plan to recipient.
func (r *Repository) QueueTripEmail(ctx context.Context, sessionID, recipient string, plan trip.Plan) (*QueuedEmail, error) {
	dataJSON, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("marshaling trip plan: %w", err)
	}

	e := &QueuedEmail{
		ID:        r.newID().String(),
		SessionID: sessionID,
		Recipient: recipient,
		TripFrom:  string(plan.From),
		TripTo:    string(plan.To),
		Status:    EmailQueued,
	}

	const q = `
		INSERT INTO email_queue (id, session_id, recipient_email, trip_from, trip_to, data, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err = r.q.QueryRow(ctx, q, e.ID, e.SessionID, e.Recipient, e.TripFrom, e.TripTo, dataJSON, e.Status).
		Scan(&e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting queued email: %w", err)
	}
	return e, nil
}

// SaveContact stores a contact-form submission as new. An empty preferred
// contact means email.
func (r *Repository) SaveContact(ctx context.Context, c ContactSubmission) (*ContactSubmission, error) {
	c.ID = r.newID().String()
	c.Status = ContactNew
	if c.PreferredContact == "" {
		c.PreferredContact = ContactByEmail
	}

	const q = `
		INSERT INTO contact_submissions
			(id, name, email, phone, message, preferred_contact, session_id, trip_from, trip_to, trip_duration, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`
	err := r.q.QueryRow(ctx, q,
		c.ID, c.Name, c.Email, c.Phone, c.Message, c.PreferredContact,
		c.SessionID, c.TripFrom, c.TripTo, c.TripDuration, c.Status,
	).Scan(&c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting contact submission: %w", err)
	}
	return &c, nil
}
