package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"counseling-scheduler-api/internal/auth"
	"counseling-scheduler-api/internal/model"
)

func setup(t *testing.T) *Store {
	t.Helper()
	_ = godotenv.Load("../../.env")
	uri := os.Getenv("MONGO_URI")
	dbName := os.Getenv("MONGO_DB_NAME")
	if uri == "" || dbName == "" {
		t.Skip("MONGO_URI or MONGO_DB_NAME not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	st := New(client.Database(dbName))
	if err := st.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	return st
}

func newUser(t *testing.T, st *Store) *model.User {
	t.Helper()
	suffix := uuid.New().String()[:8]
	hash, _ := auth.HashPassword("testpass123")
	u := &model.User{
		Username:     "test-" + suffix,
		PasswordHash: hash,
		IDNumber:     "ID-" + suffix,
		Birthdate:    "2000-01-01",
	}
	if _, err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func newAppointment(t *testing.T, st *Store, ownerID, date string) *model.Appointment {
	t.Helper()
	a := &model.Appointment{
		UserID:        ownerID,
		Date:          date,
		PreferredTime: "09:00",
		ConcernType:   "Anxiety",
	}
	if _, err := st.CreateAppointment(context.Background(), a); err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return a
}

// ----- users -----

func TestCreateUserAndFind(t *testing.T) {
	st := setup(t)
	u := newUser(t, st)

	got, err := st.UserByUsername(context.Background(), u.Username)
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if got.Username != u.Username {
		t.Errorf("username mismatch: %s", got.Username)
	}
	if got.Role != model.RoleUser {
		t.Errorf("expected default role user, got %s", got.Role)
	}
	if got.PasswordHash == "testpass123" || strings.Contains(got.PasswordHash, "testpass123") {
		t.Error("stored hash must not contain the plaintext")
	}

	byNum, err := st.UserByIDNumber(context.Background(), u.IDNumber)
	if err != nil {
		t.Fatalf("find by id number: %v", err)
	}
	if byNum.ID != got.ID {
		t.Error("id-number lookup found a different user")
	}
}

func TestCreateUserDuplicates(t *testing.T) {
	st := setup(t)
	u := newUser(t, st)

	hash, _ := auth.HashPassword("testpass123")
	_, err := st.CreateUser(context.Background(), &model.User{
		Username: u.Username, PasswordHash: hash,
		IDNumber: "ID-" + uuid.New().String()[:8], Birthdate: "2000-01-01",
	})
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}

	_, err = st.CreateUser(context.Background(), &model.User{
		Username: "test-" + uuid.New().String()[:8], PasswordHash: hash,
		IDNumber: u.IDNumber, Birthdate: "2000-01-01",
	})
	if !errors.Is(err, ErrDuplicateIDNumber) {
		t.Errorf("expected ErrDuplicateIDNumber, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	st := setup(t)
	u := newUser(t, st)

	got, err := st.Authenticate(context.Background(), u.Username, "testpass123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Error("authenticated a different user")
	}

	// wrong password and unknown username are indistinguishable
	_, errWrong := st.Authenticate(context.Background(), u.Username, "wrongpass")
	_, errUnknown := st.Authenticate(context.Background(), "nobody-"+uuid.New().String()[:8], "testpass123")
	if !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", errWrong)
	}
	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", errUnknown)
	}
}

func TestUserByIDBothForms(t *testing.T) {
	st := setup(t)
	u := newUser(t, st)

	// generated form
	got, err := st.UserByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("lookup by generated id: %v", err)
	}
	if got.Username != u.Username {
		t.Error("wrong user")
	}

	// legacy record written with a raw string _id
	legacyID := "legacy-user-" + uuid.New().String()[:8]
	_, err = st.users().InsertOne(context.Background(), bson.M{
		"_id": legacyID, "username": "legacy-" + uuid.New().String()[:8],
		"password_hash": "x", "id_number": "LEG-" + uuid.New().String()[:8],
		"birthdate": "1999-01-01", "role": "user", "created_at": time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed legacy user: %v", err)
	}
	legacy, err := st.UserByID(context.Background(), legacyID)
	if err != nil {
		t.Fatalf("lookup by legacy string id: %v", err)
	}
	if legacy.ID != legacyID {
		t.Errorf("legacy id mismatch: %s", legacy.ID)
	}
}

// ----- appointments -----

func TestCreateAppointmentForcesPending(t *testing.T) {
	st := setup(t)
	u := newUser(t, st)

	a := &model.Appointment{
		UserID:        u.ID,
		Date:          "2025-01-10",
		PreferredTime: "09:00",
		ConcernType:   "Anxiety",
		Status:        model.StatusApproved, // client trying to self-approve
	}
	id, err := st.CreateAppointment(context.Background(), a)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Status != model.StatusPending {
		t.Errorf("expected Pending, got %s", a.Status)
	}

	got, err := st.AppointmentByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != model.StatusPending {
		t.Errorf("stored status should be Pending, got %s", got.Status)
	}
	if got.Attended {
		t.Error("attended should default to false")
	}
}

func TestAppointmentByIDBothForms(t *testing.T) {
	st := setup(t)
	u := newUser(t, st)
	a := newAppointment(t, st, u.ID, "2025-02-01")

	if _, err := st.AppointmentByID(context.Background(), a.ID); err != nil {
		t.Fatalf("lookup by generated id: %v", err)
	}

	legacyID := "legacy-appt-" + uuid.New().String()[:8]
	_, err := st.appointments().InsertOne(context.Background(), bson.M{
		"_id": legacyID, "user_id": u.ID, "date": "2024-01-01",
		"preferred_time": "10:00", "concern_type": "Academic",
		"status": "Pending", "attended": false, "created_at": time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed legacy appointment: %v", err)
	}
	got, err := st.AppointmentByID(context.Background(), legacyID)
	if err != nil {
		t.Fatalf("lookup by legacy string id: %v", err)
	}
	if got.ID != legacyID {
		t.Errorf("legacy id mismatch: %s", got.ID)
	}
}

func TestAppointmentsByOwnerBothForms(t *testing.T) {
	st := setup(t)
	u := newUser(t, st)

	newAppointment(t, st, u.ID, "2025-03-01")
	// second appointment whose owner reference was written as the raw
	// hex string instead of the ObjectID form
	_, err := st.appointments().InsertOne(context.Background(), bson.M{
		"_id": "mixed-ref-" + uuid.New().String()[:8], "user_id": u.ID,
		"date": "2025-03-05", "preferred_time": "11:00", "concern_type": "Career",
		"status": "Pending", "attended": false, "created_at": time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed string-ref appointment: %v", err)
	}

	apts, err := st.AppointmentsByOwner(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(apts) != 2 {
		t.Fatalf("expected both reference forms to match, got %d", len(apts))
	}
	// descending by date
	if apts[0].Date < apts[1].Date {
		t.Errorf("expected date desc, got %s then %s", apts[0].Date, apts[1].Date)
	}
}

func TestUpdateStatusWorkflow(t *testing.T) {
	st := setup(t)
	u := newUser(t, st)
	a := newAppointment(t, st, u.ID, "2025-04-01")
	ctx := context.Background()

	// invalid value rejected before any mutation
	if _, err := st.UpdateStatus(ctx, a.ID, "NotARealStatus"); !errors.Is(err, model.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}

	// pending can only be approved or rejected
	if _, err := st.UpdateStatus(ctx, a.ID, model.StatusCancelled); !errors.Is(err, ErrRestrictedTransition) {
		t.Errorf("expected ErrRestrictedTransition, got %v", err)
	}

	changed, err := st.UpdateStatus(ctx, a.ID, model.StatusApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !changed {
		t.Error("approve should report a change")
	}

	// setting the same value again is a no-op success
	changed, err = st.UpdateStatus(ctx, a.ID, model.StatusApproved)
	if err != nil {
		t.Fatalf("repeat approve: %v", err)
	}
	if changed {
		t.Error("repeat approve should be a no-op")
	}

	// once out of Pending the restriction no longer applies
	changed, err = st.UpdateStatus(ctx, a.ID, model.StatusCancelled)
	if err != nil {
		t.Fatalf("cancel approved: %v", err)
	}
	if !changed {
		t.Error("cancel should report a change")
	}

	if _, err := st.UpdateStatus(ctx, "does-not-exist", model.StatusApproved); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateAttended(t *testing.T) {
	st := setup(t)
	u := newUser(t, st)
	a := newAppointment(t, st, u.ID, "2025-05-01")
	ctx := context.Background()

	changed, err := st.UpdateAttended(ctx, a.ID, true)
	if err != nil {
		t.Fatalf("mark attended: %v", err)
	}
	if !changed {
		t.Error("expected a change")
	}

	changed, err = st.UpdateAttended(ctx, a.ID, true)
	if err != nil {
		t.Fatalf("repeat mark: %v", err)
	}
	if changed {
		t.Error("repeat mark should be a no-op")
	}

	got, _ := st.AppointmentByID(ctx, a.ID)
	if !got.Attended {
		t.Error("attended flag not persisted")
	}
	if got.Status != model.StatusPending {
		t.Error("attendance must not touch status")
	}

	if _, err := st.UpdateAttended(ctx, "does-not-exist", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListWithOwners(t *testing.T) {
	st := setup(t)
	u := newUser(t, st)
	a := newAppointment(t, st, u.ID, "2025-06-01")

	// orphan: owner reference that resolves to nothing
	orphanID := "orphan-" + uuid.New().String()[:8]
	_, err := st.appointments().InsertOne(context.Background(), bson.M{
		"_id": orphanID, "user_id": "ghost-" + uuid.New().String()[:8],
		"date": "2025-06-02", "preferred_time": "14:00", "concern_type": "Other",
		"status": "Pending", "attended": false, "created_at": time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed orphan: %v", err)
	}

	rows, err := st.ListWithOwners(context.Background())
	if err != nil {
		t.Fatalf("list with owners: %v", err)
	}

	var foundOwned, foundOrphan bool
	for _, r := range rows {
		if r.ID == a.ID {
			foundOwned = true
			if r.Owner.Username != u.Username {
				t.Errorf("expected owner %s, got %s", u.Username, r.Owner.Username)
			}
			if r.Owner.IDNumber != u.IDNumber {
				t.Errorf("expected id number %s, got %s", u.IDNumber, r.Owner.IDNumber)
			}
		}
		if r.ID == orphanID {
			foundOrphan = true
			if r.Owner != model.UnknownOwner {
				t.Errorf("orphan should carry the Unknown placeholder, got %+v", r.Owner)
			}
		}
	}
	if !foundOwned {
		t.Error("owned appointment missing from the joined listing")
	}
	if !foundOrphan {
		t.Error("left join must keep appointments with unresolvable owners")
	}

	// ascending by (date, preferred_time)
	for i := 1; i < len(rows); i++ {
		prev := fmt.Sprintf("%s %s", rows[i-1].Date, rows[i-1].PreferredTime)
		cur := fmt.Sprintf("%s %s", rows[i].Date, rows[i].PreferredTime)
		if prev > cur {
			t.Errorf("rows out of order: %q before %q", prev, cur)
			break
		}
	}
}

func TestListAppointmentsNewestFirst(t *testing.T) {
	st := setup(t)
	u := newUser(t, st)
	newAppointment(t, st, u.ID, "2025-07-01")
	newAppointment(t, st, u.ID, "2025-07-02")

	apts, err := st.ListAppointments(context.Background())
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(apts) < 2 {
		t.Fatalf("expected at least 2 appointments, got %d", len(apts))
	}
	for i := 1; i < len(apts); i++ {
		if apts[i-1].CreatedAt.Before(apts[i].CreatedAt) {
			t.Error("expected created_at desc")
			break
		}
	}
}
