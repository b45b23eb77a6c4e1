// AngelaMos | 2026
// service_test.go

package entitlement

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	notices []Notice
}

func (n *recordingNotifier) NotifyEntitlement(_, _ string, notice Notice) {
	n.notices = append(n.notices, notice)
}

type noopDemoter struct{}

func (noopDemoter) DemoteOldest(
	_ context.Context, _ *sqlx.Tx, _ string, _ Tier, _ int,
) (int, error) {
	return 0, nil
}

func newTestService(
	t *testing.T,
	demoter Demoter,
	notifier Notifier,
) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
	)
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	store := NewStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewService(
		db, store, NewReconciler(testCatalog()), demoter, notifier, logger,
	), mock
}

func recordRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "name",
		"standard_limit", "featured_limit", "premium_limit",
		"standard_used", "featured_used", "premium_used",
		"bundled_package",
	}).AddRow("user-1", "u@example.com", "U", 3, 0, 0, 1, 0, 0, false)
}

func TestApplyEvent_AddonPurchase(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, mock := newTestService(t, noopDemoter{}, notifier)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO processed_webhook_events`).
		WithArgs("evt_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT(.|\s)+FROM users(.|\s)+FOR UPDATE`).
		WithArgs("user-1").
		WillReturnRows(recordRows())
	mock.ExpectQuery(`SELECT product_id, failed_at`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "failed_at"}))
	mock.ExpectExec(`UPDATE users`).
		WithArgs("user-1", 4, 0, 0, 1, 0, 0, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.ApplyEvent(context.Background(), Event{
		ID:        "evt_1",
		Type:      EventCheckoutCompleted,
		UserID:    "user-1",
		ProductID: "prod_std",
		Quantity:  1,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, notifier.notices, 1)
	assert.Equal(t, NoticeSubscriptionConfirmed, notifier.notices[0].Kind)
}

func TestApplyEvent_DuplicateEventSkipsWork(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, mock := newTestService(t, noopDemoter{}, notifier)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO processed_webhook_events`).
		WithArgs("evt_dup").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := svc.ApplyEvent(context.Background(), Event{
		ID:        "evt_dup",
		Type:      EventCheckoutCompleted,
		UserID:    "user-1",
		ProductID: "prod_std",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, notifier.notices)
}

type countingDemoter struct {
	calls   []Demotion
	demoted int
}

func (d *countingDemoter) DemoteOldest(
	_ context.Context, _ *sqlx.Tx, _ string, t Tier, count int,
) (int, error) {
	d.calls = append(d.calls, Demotion{Tier: t, Count: count})
	return d.demoted, nil
}

func TestApplyEvent_CancellationDemotes(t *testing.T) {
	notifier := &recordingNotifier{}
	demoter := &countingDemoter{demoted: 2}
	svc, mock := newTestService(t, demoter, notifier)

	rows := sqlmock.NewRows([]string{
		"id", "email", "name",
		"standard_limit", "featured_limit", "premium_limit",
		"standard_used", "featured_used", "premium_used",
		"bundled_package",
	}).AddRow("user-1", "u@example.com", "U", 5, 0, 0, 5, 0, 0, false)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO processed_webhook_events`).
		WithArgs("evt_cancel").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT(.|\s)+FROM users(.|\s)+FOR UPDATE`).
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT product_id, failed_at`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "failed_at"}))
	// Usage drops by what the demoter actually flipped, not the ask.
	mock.ExpectExec(`UPDATE users`).
		WithArgs("user-1", 3, 0, 0, 3, 0, 0, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.ApplyEvent(context.Background(), Event{
		ID:        "evt_cancel",
		Type:      EventSubscriptionDeleted,
		UserID:    "user-1",
		ProductID: "prod_std",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []Demotion{{Tier: TierStandard, Count: 2}}, demoter.calls)
	assert.Empty(t, notifier.notices)
}

func TestApplyEvent_StoreFailureRollsBack(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, mock := newTestService(t, noopDemoter{}, notifier)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO processed_webhook_events`).
		WithArgs("evt_err").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT(.|\s)+FROM users(.|\s)+FOR UPDATE`).
		WithArgs("missing-user").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := svc.ApplyEvent(context.Background(), Event{
		ID:        "evt_err",
		Type:      EventCheckoutCompleted,
		UserID:    "missing-user",
		ProductID: "prod_std",
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, notifier.notices)
}
