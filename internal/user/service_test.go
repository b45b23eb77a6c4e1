// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imotor-app/marketplace-api/internal/core"
	"github.com/imotor-app/marketplace-api/internal/mailer"
)

type captureMailer struct {
	messages []mailer.Message
	notify   chan struct{}
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	m.messages = append(m.messages, msg)
	m.notify <- struct{}{}
	return nil
}

func newTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "pgx"), mock
}

func TestGenerateVerificationCode(t *testing.T) {
	seen := make(map[string]bool)
	pattern := regexp.MustCompile(`^[0-9]{6}$`)

	for range 50 {
		code, err := generateVerificationCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}

	// 50 draws from a million values collide vanishingly rarely.
	assert.Greater(t, len(seen), 40)
}

func TestCreateQueuesVerificationEmail(t *testing.T) {
	db, mock := newTestDB(t)

	fake := &captureMailer{notify: make(chan struct{}, 1)}
	dispatcher := mailer.NewDispatcher(fake, 4, slog.Default())
	defer dispatcher.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(
			sqlmock.AnyArg(),
			"buyer@example.com",
			"argon2id$hash",
			"Buyer One",
			RoleUser,
			sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows(
			[]string{"created_at", "updated_at", "token_version"},
		).AddRow(time.Now(), time.Now(), 0))

	svc := NewService(NewRepository(db), dispatcher)

	info, err := svc.Create(
		context.Background(),
		"Buyer@Example.com",
		"argon2id$hash",
		"Buyer One",
	)
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", info.Email)
	assert.False(t, info.Verified)

	<-fake.notify
	require.Len(t, fake.messages, 1)
	assert.Equal(t, "Email Verification Code", fake.messages[0].Subject)
	assert.Equal(t, "buyer@example.com", fake.messages[0].ToEmail)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyEmailWrongCode(t *testing.T) {
	db, mock := newTestDB(t)

	mock.ExpectExec(`UPDATE users`).
		WithArgs("buyer@example.com", "000000").
		WillReturnResult(sqlmock.NewResult(0, 0))

	svc := NewService(NewRepository(db), nil)

	err := svc.VerifyEmail(context.Background(), "buyer@example.com", "000000")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
