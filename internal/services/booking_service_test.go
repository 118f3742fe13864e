package services

import (
	"database/sql"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recyconnect/recyconnect-backend/internal/database"
	"github.com/recyconnect/recyconnect-backend/internal/models"
	"github.com/recyconnect/recyconnect-backend/pkg/push"
)

var bookingColumns = []string{
	"id", "user_id", "ngo_id", "waste_type", "notes", "status",
	"booking_date", "points_awarded", "otp", "otp_expiry",
}

var detailColumns = []string{
	"id", "user_id", "ngo_id", "waste_type", "notes", "status",
	"booking_date", "points_awarded", "otp", "otp_expiry",
	"user_name", "ngo_name", "reviewed",
}

var ngoColumns = []string{
	"id", "user_id", "address", "contact_number", "accepted_waste_types",
	"status", "created_at", "updated_at",
}

var userColumns = []string{
	"id", "name", "email", "password_hash", "role", "eco_points",
	"created_at", "updated_at",
}

type fakeMail struct {
	sent chan string
}

func newFakeMail() *fakeMail {
	return &fakeMail{sent: make(chan string, 4)}
}

func (f *fakeMail) Send(to, subject, body string) error {
	f.sent <- body
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newMockDB(t *testing.T) (database.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &database.PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}, mock
}

func newBookingService(t *testing.T) (*BookingService, sqlmock.Sqlmock, *fakeMail) {
	db, mock := newMockDB(t)
	logger := testLogger()
	mail := newFakeMail()

	notifications := NewNotificationService(database.NewNotificationRepository(db), push.NopPublisher{}, logger)
	svc := NewBookingService(
		db,
		database.NewBookingRepository(db),
		database.NewUserRepository(db),
		database.NewNgoRepository(db),
		notifications,
		mail,
		logger,
		24*time.Hour,
	)
	return svc, mock, mail
}

type bookingFixture struct {
	bookingID uuid.UUID
	userID    uuid.UUID
	ngoID     uuid.UUID
	ngoUserID uuid.UUID
}

func newFixture() bookingFixture {
	return bookingFixture{
		bookingID: uuid.New(),
		userID:    uuid.New(),
		ngoID:     uuid.New(),
		ngoUserID: uuid.New(),
	}
}

func (f bookingFixture) ngoRows() *sqlmock.Rows {
	return sqlmock.NewRows(ngoColumns).AddRow(
		f.ngoID.String(), f.ngoUserID.String(), "12 Main St", "+94771234567",
		"{plastic,paper}", "ACTIVE", time.Now(), time.Now(),
	)
}

func (f bookingFixture) bookingRows(status models.BookingStatus, otp interface{}, expiry interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(bookingColumns).AddRow(
		f.bookingID.String(), f.userID.String(), f.ngoID.String(), "plastic",
		nil, string(status), time.Now(), 0, otp, expiry,
	)
}

func (f bookingFixture) detailRows(status models.BookingStatus, points int) *sqlmock.Rows {
	return sqlmock.NewRows(detailColumns).AddRow(
		f.bookingID.String(), f.userID.String(), f.ngoID.String(), "plastic",
		nil, string(status), time.Now(), points, nil, nil,
		"Amara", "Green Earth", false,
	)
}

func (f bookingFixture) ownerRows() *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).AddRow(
		f.userID.String(), "Amara", "amara@example.com", "hash", "USER", 0,
		time.Now(), time.Now(),
	)
}

func TestCreateBookingNgoRoleRejected(t *testing.T) {
	svc, _, _ := newBookingService(t)

	_, err := svc.Create(uuid.New(), models.RoleNGO, &models.CreateBookingRequest{
		NgoID:     uuid.New(),
		WasteType: "plastic",
	})

	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestCreateBookingUnknownNgo(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	mock.ExpectQuery(`FROM ngos\s+WHERE id`).
		WithArgs(f.ngoID).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Create(f.userID, models.RoleUser, &models.CreateBookingRequest{
		NgoID:     f.ngoID,
		WasteType: "plastic",
	})

	assert.ErrorIs(t, err, ErrNgoNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	mock.ExpectQuery(`FROM ngos\s+WHERE id`).
		WithArgs(f.ngoID).
		WillReturnRows(f.ngoRows())
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`AS reviewed`).
		WillReturnRows(f.detailRows(models.BookingStatusPending, 0))

	booking, err := svc.Create(f.userID, models.RoleUser, &models.CreateBookingRequest{
		NgoID:     f.ngoID,
		WasteType: "plastic",
		Notes:     "two bags",
	})

	require.NoError(t, err)
	assert.Equal(t, "PENDING", booking.Status)
	assert.Equal(t, "plastic", booking.WasteType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptBooking(t *testing.T) {
	svc, mock, mail := newBookingService(t)
	f := newFixture()

	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusPending, nil, nil))
	mock.ExpectExec(`SET status = 'ACCEPTED'`).
		WithArgs(f.bookingID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM users\s+WHERE id`).
		WithArgs(f.userID).
		WillReturnRows(f.ownerRows())
	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`AS reviewed`).
		WillReturnRows(f.detailRows(models.BookingStatusAccepted, 0))

	booking, err := svc.Accept(f.ngoUserID, f.bookingID)

	require.NoError(t, err)
	assert.Equal(t, "ACCEPTED", booking.Status)

	select {
	case body := <-mail.sent:
		assert.Regexp(t, regexp.MustCompile(`\b\d{6}\b`), body)
	case <-time.After(2 * time.Second):
		t.Fatal("expected an OTP email to be sent")
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptBookingNotFound(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Accept(f.ngoUserID, f.bookingID)

	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptBookingNotOwnedByNgo(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	otherNgo := newFixture()
	otherNgo.bookingID = f.bookingID

	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(otherNgo.bookingRows(models.BookingStatusPending, nil, nil))
	mock.ExpectRollback()

	_, err := svc.Accept(f.ngoUserID, f.bookingID)

	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptBookingAlreadyAccepted(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusAccepted, "123456", time.Now().Add(time.Hour)))
	mock.ExpectRollback()

	_, err := svc.Accept(f.ngoUserID, f.bookingID)

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResendOTPRequiresAcceptedBooking(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusPending, nil, nil))
	mock.ExpectRollback()

	err := svc.ResendOTP(f.ngoUserID, f.bookingID)

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResendOTPReplacesCode(t *testing.T) {
	svc, mock, mail := newBookingService(t)
	f := newFixture()

	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusAccepted, "123456", time.Now().Add(time.Hour)))
	mock.ExpectExec(`SET otp = \$2`).
		WithArgs(f.bookingID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM users\s+WHERE id`).
		WithArgs(f.userID).
		WillReturnRows(f.ownerRows())

	err := svc.ResendOTP(f.ngoUserID, f.bookingID)

	require.NoError(t, err)

	select {
	case body := <-mail.sent:
		assert.Regexp(t, regexp.MustCompile(`\b\d{6}\b`), body)
	case <-time.After(2 * time.Second):
		t.Fatal("expected an OTP email to be sent")
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectBooking(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusPending, nil, nil))
	mock.ExpectExec(`SET status = \$2`).
		WithArgs(f.bookingID, "REJECTED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`AS reviewed`).
		WillReturnRows(f.detailRows(models.BookingStatusRejected, 0))

	booking, err := svc.Reject(f.ngoUserID, f.bookingID)

	require.NoError(t, err)
	assert.Equal(t, "REJECTED", booking.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingNotOwner(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusPending, nil, nil))
	mock.ExpectRollback()

	err := svc.Cancel(uuid.New(), f.bookingID)

	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBooking(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusPending, nil, nil))
	mock.ExpectExec(`SET status = \$2`).
		WithArgs(f.bookingID, "CANCELLED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM ngos\s+WHERE id`).
		WithArgs(f.ngoID).
		WillReturnRows(f.ngoRows())
	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.Cancel(f.userID, f.bookingID)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteBooking(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusAccepted, "123456", time.Now().Add(time.Hour)))
	mock.ExpectExec(`SET eco_points`).
		WithArgs(f.userID, 50).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET eco_points`).
		WithArgs(f.ngoUserID, 25).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET status = 'COMPLETED'`).
		WithArgs(f.bookingID, 50).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`AS reviewed`).
		WillReturnRows(f.detailRows(models.BookingStatusCompleted, 50))

	booking, err := svc.CompleteWithOTP(f.ngoUserID, f.bookingID, "123456")

	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", booking.Status)
	assert.Equal(t, 50, booking.PointsAwarded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteBookingWrongOTP(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusAccepted, "123456", time.Now().Add(time.Hour)))
	mock.ExpectRollback()

	_, err := svc.CompleteWithOTP(f.ngoUserID, f.bookingID, "654321")

	assert.ErrorIs(t, err, ErrOTPInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteBookingExpiredOTP(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusAccepted, "123456", time.Now().Add(-time.Minute)))
	mock.ExpectRollback()

	_, err := svc.CompleteWithOTP(f.ngoUserID, f.bookingID, "123456")

	assert.ErrorIs(t, err, ErrOTPExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteBookingNotAccepted(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusPending, nil, nil))
	mock.ExpectRollback()

	_, err := svc.CompleteWithOTP(f.ngoUserID, f.bookingID, "123456")

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteBookingTwice(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	f := newFixture()

	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusCompleted, nil, nil))
	mock.ExpectRollback()

	_, err := svc.CompleteWithOTP(f.ngoUserID, f.bookingID, "123456")

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Walks a booking through create, accept and OTP completion end to end,
// using the code delivered by email to close the loop.
func TestBookingLifecycle(t *testing.T) {
	svc, mock, mail := newBookingService(t)
	f := newFixture()

	// Create
	mock.ExpectQuery(`FROM ngos\s+WHERE id`).
		WithArgs(f.ngoID).
		WillReturnRows(f.ngoRows())
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`AS reviewed`).
		WillReturnRows(f.detailRows(models.BookingStatusPending, 0))

	created, err := svc.Create(f.userID, models.RoleUser, &models.CreateBookingRequest{
		NgoID:     f.ngoID,
		WasteType: "plastic",
	})
	require.NoError(t, err)
	require.Equal(t, "PENDING", created.Status)

	// Accept
	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusPending, nil, nil))
	mock.ExpectExec(`SET status = 'ACCEPTED'`).
		WithArgs(f.bookingID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM users\s+WHERE id`).
		WithArgs(f.userID).
		WillReturnRows(f.ownerRows())
	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`AS reviewed`).
		WillReturnRows(f.detailRows(models.BookingStatusAccepted, 0))

	accepted, err := svc.Accept(f.ngoUserID, f.bookingID)
	require.NoError(t, err)
	require.Equal(t, "ACCEPTED", accepted.Status)

	var otp string
	select {
	case body := <-mail.sent:
		otp = regexp.MustCompile(`\b\d{6}\b`).FindString(body)
		require.Len(t, otp, 6)
	case <-time.After(2 * time.Second):
		t.Fatal("expected an OTP email")
	}

	// Complete with the emailed code
	mock.ExpectQuery(`FROM ngos\s+WHERE user_id`).
		WithArgs(f.ngoUserID).
		WillReturnRows(f.ngoRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(f.bookingID).
		WillReturnRows(f.bookingRows(models.BookingStatusAccepted, otp, time.Now().Add(24*time.Hour)))
	mock.ExpectExec(`SET eco_points`).
		WithArgs(f.userID, 50).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET eco_points`).
		WithArgs(f.ngoUserID, 25).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET status = 'COMPLETED'`).
		WithArgs(f.bookingID, 50).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`AS reviewed`).
		WillReturnRows(f.detailRows(models.BookingStatusCompleted, 50))

	completed, err := svc.CompleteWithOTP(f.ngoUserID, f.bookingID, otp)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", completed.Status)
	assert.Equal(t, 50, completed.PointsAwarded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateOTPFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 100; i++ {
		otp, err := generateOTP()
		require.NoError(t, err)
		assert.Regexp(t, pattern, otp)
	}
}
