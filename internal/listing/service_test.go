// AngelaMos | 2026
// service_test.go

package listing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imotor-app/marketplace-api/internal/entitlement"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
	)
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewService(
		db, NewRepository(db), entitlement.NewStore(db), logger,
	), mock
}

func entitlementRows(limit, used int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "name",
		"standard_limit", "featured_limit", "premium_limit",
		"standard_used", "featured_used", "premium_used",
		"bundled_package",
	}).AddRow("user-1", "u@example.com", "U", limit, 0, 0, used, 0, 0, false)
}

func validCreateRequest() CreateRequest {
	return CreateRequest{
		VIN:         "WAUZZZ8V5KA000001",
		Title:       "Clean Audi A3",
		Price:       "54000",
		FeaturedAs:  "standard",
		BrandID:     1,
		LocationID:  2,
		CommunityID: 3,
		Car:         &CarDetailsRequest{FuelType: "petrol"},
	}
}

func TestCreate_GatedInsertIncrementsUsage(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT(.|\s)+FROM users(.|\s)+FOR UPDATE`).
		WithArgs("user-1").
		WillReturnRows(entitlementRows(3, 1))
	mock.ExpectQuery(`SELECT product_id, failed_at`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "failed_at"}))
	mock.ExpectQuery(`INSERT INTO listings`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_date"}).
			AddRow(int64(42), time.Now()))
	mock.ExpectQuery(`INSERT INTO cars`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(`UPDATE users(.|\s)+standard_used`).
		WithArgs("user-1", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d, err := svc.Create(
		context.Background(), "user-1", VehicleCar, validCreateRequest(),
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, int64(42), d.Listing.ID)
	assert.Equal(t, StatusInReview, d.Listing.PublishStatus)
	assert.Equal(t, VehicleCar, d.Listing.VehicleType)
	require.NotNil(t, d.Car)
	assert.Equal(t, int64(42), d.Car.ListingID)
}

func TestCreate_DeniedAtLimit(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT(.|\s)+FROM users(.|\s)+FOR UPDATE`).
		WithArgs("user-1").
		WillReturnRows(entitlementRows(3, 3))
	mock.ExpectQuery(`SELECT product_id, failed_at`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "failed_at"}))
	mock.ExpectRollback()

	_, err := svc.Create(
		context.Background(), "user-1", VehicleCar, validCreateRequest(),
	)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	var quotaErr *entitlement.QuotaError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, "limit reached for standard, limit = 3", quotaErr.Error())
}

func TestCreate_RejectsUnknownTier(t *testing.T) {
	svc, _ := newTestService(t)

	req := validCreateRequest()
	req.FeaturedAs = "platinum"

	_, err := svc.Create(context.Background(), "user-1", VehicleCar, req)
	assert.ErrorIs(t, err, entitlement.ErrNoTier)
}

func TestCreate_RejectsUnknownVehicleType(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(
		context.Background(), "user-1", "spaceship", validCreateRequest(),
	)
	require.Error(t, err)
}

func listingRow(status int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "featured_as", "publish_status", "user_id",
	}).AddRow(int64(42), "standard", status, "user-1")
}

func TestSetPublishStatus_DemoteReleasesQuotaSlot(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT(.|\s)+FROM listings(.|\s)+WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(listingRow(StatusPublished))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE listings(.|\s)+publish_status`).
		WithArgs(int64(42), StatusDemoted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users(.|\s)+standard_used`).
		WithArgs("user-1", -1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.SetPublishStatus(context.Background(), 42, StatusDemoted)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPublishStatus_RepublishTakesQuotaSlot(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT(.|\s)+FROM listings(.|\s)+WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(listingRow(StatusDemoted))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE listings(.|\s)+publish_status`).
		WithArgs(int64(42), StatusPublished).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT(.|\s)+FROM users(.|\s)+FOR UPDATE`).
		WithArgs("user-1").
		WillReturnRows(entitlementRows(3, 1))
	mock.ExpectQuery(`SELECT product_id, failed_at`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "failed_at"}))
	mock.ExpectExec(`UPDATE users(.|\s)+standard_used`).
		WithArgs("user-1", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.SetPublishStatus(context.Background(), 42, StatusPublished)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPublishStatus_RepublishDeniedAtLimit(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT(.|\s)+FROM listings(.|\s)+WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(listingRow(StatusDemoted))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE listings(.|\s)+publish_status`).
		WithArgs(int64(42), StatusPublished).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT(.|\s)+FROM users(.|\s)+FOR UPDATE`).
		WithArgs("user-1").
		WillReturnRows(entitlementRows(3, 3))
	mock.ExpectQuery(`SELECT product_id, failed_at`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "failed_at"}))
	mock.ExpectRollback()

	err := svc.SetPublishStatus(context.Background(), 42, StatusPublished)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	var quotaErr *entitlement.QuotaError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, "limit reached for standard, limit = 3", quotaErr.Error())
}

// Approving an in-review listing keeps it live, so no counter moves.
func TestSetPublishStatus_ApprovalKeepsCounters(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT(.|\s)+FROM listings(.|\s)+WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(listingRow(StatusInReview))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE listings(.|\s)+publish_status`).
		WithArgs(int64(42), StatusPublished).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.SetPublishStatus(context.Background(), 42, StatusPublished)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlugify(t *testing.T) {
	slug := slugify("Clean  Audi A3, 2021!")
	assert.Regexp(t, `^clean-audi-a3-2021-[0-9a-f]{8}$`, slug)

	// Two listings with the same title still get distinct slugs.
	assert.NotEqual(t, slugify("same title"), slugify("same title"))
}
