package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"counseling-scheduler-api/internal/model"
)

type appointmentDoc struct {
	ID            any          `bson:"_id"`
	UserID        any          `bson:"user_id"`
	Date          string       `bson:"date"`
	PreferredTime string       `bson:"preferred_time"`
	ConcernType   string       `bson:"concern_type"`
	Status        model.Status `bson:"status"`
	Attended      bool         `bson:"attended"`
	CreatedAt     time.Time    `bson:"created_at"`
}

func (d *appointmentDoc) toModel() *model.Appointment {
	status := d.Status
	if status == "" {
		status = model.StatusPending
	}
	return &model.Appointment{
		ID:            idString(d.ID),
		UserID:        idString(d.UserID),
		Date:          d.Date,
		PreferredTime: d.PreferredTime,
		ConcernType:   d.ConcernType,
		Status:        status,
		Attended:      d.Attended,
		CreatedAt:     d.CreatedAt,
	}
}

// CreateAppointment inserts a new request for the given owner. Status
// always starts Pending; a caller-supplied status never reaches the
// store. The owner reference is stored as given, not re-derived from
// the owner's record, which is why reads reconcile both forms.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) (string, error) {
	doc := appointmentDoc{
		ID:            primitive.NewObjectID(),
		UserID:        ownerRef(a.UserID),
		Date:          a.Date,
		PreferredTime: a.PreferredTime,
		ConcernType:   a.ConcernType,
		Status:        model.StatusPending,
		Attended:      false,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := s.appointments().InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert appointment: %w", err)
	}

	a.ID = idString(doc.ID)
	a.UserID = idString(doc.UserID)
	a.Status = model.StatusPending
	a.Attended = false
	a.CreatedAt = doc.CreatedAt
	return a.ID, nil
}

func (s *Store) AppointmentByID(ctx context.Context, id string) (*model.Appointment, error) {
	d, _, err := s.findAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.toModel(), nil
}

// AppointmentsByOwner lists one user's appointments, newest date first.
func (s *Store) AppointmentsByOwner(ctx context.Context, ownerID string) ([]model.Appointment, error) {
	return s.listAppointments(ctx, ownerFilter(ownerID), bson.D{{Key: "date", Value: -1}})
}

// ListAppointments is the unfiltered administrative view, newest first.
func (s *Store) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	return s.listAppointments(ctx, bson.M{}, bson.D{{Key: "created_at", Value: -1}})
}

func (s *Store) listAppointments(ctx context.Context, filter bson.M, sort bson.D) ([]model.Appointment, error) {
	cur, err := s.appointments().Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer cur.Close(ctx)

	var out []model.Appointment
	for cur.Next(ctx) {
		var d appointmentDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode appointment: %w", err)
		}
		out = append(out, *d.toModel())
	}
	return out, cur.Err()
}

type joinedDoc struct {
	appointmentDoc `bson:",inline"`
	Owner          *userDoc `bson:"owner"`
}

// ListWithOwners joins every appointment to its requester for the staff
// view, sorted by date then preferred time. The join matches the owner
// reference against both stored forms of the user id; rows whose owner
// still cannot be resolved get a second chance through a direct lookup
// and are returned with the Unknown placeholder otherwise.
func (s *Store) ListWithOwners(ctx context.Context) ([]model.AppointmentWithOwner, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from": "users",
			"let":  bson.M{"ref": "$user_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$or": bson.A{
					bson.M{"$eq": bson.A{"$_id", "$$ref"}},
					bson.M{"$eq": bson.A{bson.M{"$toString": "$_id"}, "$$ref"}},
				}}}},
			},
			"as": "owner",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$owner",
			"preserveNullAndEmptyArrays": true,
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "date", Value: 1},
			{Key: "preferred_time", Value: 1},
		}}},
	}

	cur, err := s.appointments().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("join appointments: %w", err)
	}
	defer cur.Close(ctx)

	var out []model.AppointmentWithOwner
	for cur.Next(ctx) {
		var d joinedDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode joined appointment: %w", err)
		}
		row := model.AppointmentWithOwner{
			Appointment: *d.toModel(),
			Owner:       model.UnknownOwner,
		}
		switch {
		case d.Owner != nil:
			row.Owner = ownerSummary(d.Owner.toModel())
		case row.UserID != "":
			// representation mismatch the join can't express; retry directly
			if u, err := s.UserByID(ctx, row.UserID); err == nil {
				row.Owner = ownerSummary(u)
			}
		}
		out = append(out, row)
	}
	return out, cur.Err()
}

func ownerSummary(u *model.User) model.OwnerSummary {
	sum := model.OwnerSummary{Username: u.Username, IDNumber: u.IDNumber}
	if sum.Username == "" {
		sum.Username = model.UnknownOwner.Username
	}
	if sum.IDNumber == "" {
		sum.IDNumber = model.UnknownOwner.IDNumber
	}
	return sum
}

// UpdateStatus moves an appointment through the workflow. It reports
// whether the stored value actually changed; re-setting the current
// status is a no-op success.
func (s *Store) UpdateStatus(ctx context.Context, id string, next model.Status) (bool, error) {
	if !model.ValidStatus(next) {
		return false, model.ErrInvalidStatus
	}

	d, filter, err := s.findAppointment(ctx, id)
	if err != nil {
		return false, err
	}
	current := d.Status
	if current == "" {
		current = model.StatusPending
	}
	if !model.CanTransition(current, next) {
		return false, ErrRestrictedTransition
	}

	res, err := s.appointments().UpdateOne(ctx, filter, bson.M{"$set": bson.M{"status": next}})
	if err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

// UpdateAttended toggles the attendance flag, independent of status.
func (s *Store) UpdateAttended(ctx context.Context, id string, attended bool) (bool, error) {
	_, filter, err := s.findAppointment(ctx, id)
	if err != nil {
		return false, err
	}
	res, err := s.appointments().UpdateOne(ctx, filter, bson.M{"$set": bson.M{"attended": attended}})
	if err != nil {
		return false, fmt.Errorf("update attended: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

// findAppointment resolves both identifier representations and also
// returns the filter that matched, so updates hit the same document.
func (s *Store) findAppointment(ctx context.Context, id string) (*appointmentDoc, bson.M, error) {
	for _, f := range idFilters(id) {
		var d appointmentDoc
		err := s.appointments().FindOne(ctx, f).Decode(&d)
		if err == nil {
			return &d, f, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, fmt.Errorf("find appointment: %w", err)
		}
	}
	return nil, nil, ErrNotFound
}
