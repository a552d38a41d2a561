package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. ID is the stored identifier rendered as
// a string: the hex form of a generated ObjectID for new records, or the
// raw string some legacy records were written with.
type User struct {
	ID           string    `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IDNumber     string    `json:"id_number"`
	Birthdate    string    `json:"birthdate"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Appointment is a counseling request. UserID is the owning-user
// reference as stored, which may be either identifier form; resolving
// it goes through the store's reconciliation.
type Appointment struct {
	ID            string    `json:"_id"`
	UserID        string    `json:"user_id"`
	Date          string    `json:"date"`
	PreferredTime string    `json:"preferred_time"`
	ConcernType   string    `json:"concern_type"`
	Status        Status    `json:"status"`
	Attended      bool      `json:"attended"`
	CreatedAt     time.Time `json:"created_at"`
}

// OwnerSummary is the requester identity attached to each row of the
// staff listing. Unresolvable owners render as Unknown / N/A.
type OwnerSummary struct {
	Username string `json:"username"`
	IDNumber string `json:"id_number"`
}

// AppointmentWithOwner is one row of the staff view: the appointment
// left-joined with its requester.
type AppointmentWithOwner struct {
	Appointment
	Owner OwnerSummary `json:"user_info"`
}

// UnknownOwner is the summary used when the owning user cannot be
// resolved under either identifier form.
var UnknownOwner = OwnerSummary{Username: "Unknown", IDNumber: "N/A"}
