// AngelaMos | 2026
// demotion_test.go

package listing

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imotor-app/marketplace-api/internal/entitlement"
)

func newDemotionTx(t *testing.T) (*sqlx.Tx, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
	)
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	mock.ExpectBegin()

	db := sqlx.NewDb(mockDB, "sqlmock")
	tx, err := db.Beginx()
	require.NoError(t, err)

	return tx, mock
}

func TestDemoteOldest_OldestFirstWithIDTiebreak(t *testing.T) {
	tx, mock := newDemotionTx(t)
	exec := NewDemotionExecutor(slog.New(slog.NewTextHandler(io.Discard, nil)))

	mock.ExpectQuery(`SELECT id(.|\s)+FROM listings(.|\s)+ORDER BY created_date ASC, id ASC`).
		WithArgs("user-1", "standard", StatusInReview, StatusPublished, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(int64(11)).AddRow(int64(12)).AddRow(int64(15)))

	for _, id := range []int64{11, 12, 15} {
		mock.ExpectExec(`UPDATE listings(.|\s)+SET publish_status`).
			WithArgs(id, StatusDemoted).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	demoted, err := exec.DemoteOldest(
		context.Background(), tx, "user-1", entitlement.TierStandard, 3,
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 3, demoted)
}

func TestDemoteOldest_SkipsVanishedListings(t *testing.T) {
	tx, mock := newDemotionTx(t)
	exec := NewDemotionExecutor(slog.New(slog.NewTextHandler(io.Discard, nil)))

	mock.ExpectQuery(`SELECT id(.|\s)+FROM listings`).
		WithArgs("user-1", "featured", StatusInReview, StatusPublished, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(int64(21)).AddRow(int64(22)))

	// Listing 21 was deleted between planning and execution.
	mock.ExpectExec(`UPDATE listings(.|\s)+SET publish_status`).
		WithArgs(int64(21), StatusDemoted).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE listings(.|\s)+SET publish_status`).
		WithArgs(int64(22), StatusDemoted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	demoted, err := exec.DemoteOldest(
		context.Background(), tx, "user-1", entitlement.TierFeatured, 2,
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, demoted)
}

func TestDemoteOldest_ZeroCountIsNoOp(t *testing.T) {
	tx, mock := newDemotionTx(t)
	exec := NewDemotionExecutor(slog.New(slog.NewTextHandler(io.Discard, nil)))

	demoted, err := exec.DemoteOldest(
		context.Background(), tx, "user-1", entitlement.TierPremium, 0,
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, demoted)
}
