// AngelaMos | 2026
// service.go

package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/imotor-app/marketplace-api/internal/core"
)

// Demoter unpublishes a user's oldest live listings of a tier. It returns
// how many rows it actually flipped, which can be fewer than asked when
// listings were deleted since the usage counter last moved.
type Demoter interface {
	DemoteOldest(
		ctx context.Context,
		tx *sqlx.Tx,
		userID string,
		t Tier,
		count int,
	) (int, error)
}

// Notifier delivers entitlement notices. Implementations must not block;
// delivery failures are the notifier's problem, not the reconciler's.
type Notifier interface {
	NotifyEntitlement(email, name string, n Notice)
}

type Service struct {
	db         *sqlx.DB
	store      Store
	reconciler *Reconciler
	demoter    Demoter
	notifier   Notifier
	logger     *slog.Logger
}

func NewService(
	db *sqlx.DB,
	store Store,
	reconciler *Reconciler,
	demoter Demoter,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		db:         db,
		store:      store,
		reconciler: reconciler,
		demoter:    demoter,
		notifier:   notifier,
		logger:     logger,
	}
}

// ApplyEvent processes one authenticated billing event. The event id claim,
// the record update, and any demotions commit in a single transaction, so a
// crash mid-way leaves the event unclaimed and the retry does the full
// work. Notices go out only after commit.
func (s *Service) ApplyEvent(ctx context.Context, evt Event) error {
	var out Outcome
	var processed bool

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		fresh, err := s.store.MarkEventProcessed(ctx, tx, evt.ID)
		if err != nil {
			return err
		}
		if !fresh {
			return nil
		}
		processed = true

		rec, err := s.store.LoadForUpdate(ctx, tx, evt.UserID)
		if err != nil {
			return err
		}

		out = s.reconciler.Reconcile(*rec, evt, time.Now().UTC())

		for _, d := range out.Demotions {
			demoted, err := s.demoter.DemoteOldest(
				ctx, tx, evt.UserID, d.Tier, d.Count,
			)
			if err != nil {
				return err
			}

			out.Record.SetUsed(
				d.Tier, out.Record.Used(d.Tier)-demoted,
			)

			if demoted < d.Count {
				s.logger.WarnContext(ctx, "demotion found fewer live listings than expected",
					"user_id", evt.UserID,
					"tier", string(d.Tier),
					"requested", d.Count,
					"demoted", demoted,
				)
			}
		}

		return s.store.Save(ctx, tx, &out.Record)
	})
	if err != nil {
		return err
	}

	if !processed {
		s.logger.InfoContext(ctx, "duplicate billing event skipped",
			"event_id", evt.ID,
			"event_type", string(evt.Type),
		)
		return nil
	}

	s.logger.InfoContext(ctx, "billing event applied",
		"event_id", evt.ID,
		"event_type", string(evt.Type),
		"user_id", evt.UserID,
		"demotions", len(out.Demotions),
		"notices", len(out.Notices),
	)

	for _, n := range out.Notices {
		s.notifier.NotifyEntitlement(out.Record.Email, out.Record.Name, n)
	}

	return nil
}

// Get returns the current entitlement record for a user.
func (s *Service) Get(ctx context.Context, userID string) (*Record, error) {
	return s.store.Load(ctx, userID)
}
