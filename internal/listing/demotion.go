// AngelaMos | 2026
// demotion.go

package listing

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/imotor-app/marketplace-api/internal/entitlement"
)

// DemotionExecutor unpublishes a user's oldest live listings of a tier
// when their entitlement shrinks below current usage. It runs inside the
// billing event's transaction so the visibility change and the counter
// update commit together.
type DemotionExecutor struct {
	logger *slog.Logger
}

func NewDemotionExecutor(logger *slog.Logger) *DemotionExecutor {
	return &DemotionExecutor{logger: logger}
}

var _ entitlement.Demoter = (*DemotionExecutor)(nil)

func (e *DemotionExecutor) DemoteOldest(
	ctx context.Context,
	tx *sqlx.Tx,
	userID string,
	t entitlement.Tier,
	count int,
) (int, error) {
	if count <= 0 {
		return 0, nil
	}

	repo := NewRepository(tx)

	ids, err := repo.OldestLiveIDs(ctx, userID, t, count)
	if err != nil {
		return 0, err
	}

	demoted, err := repo.DemoteByIDs(ctx, ids)
	if err != nil {
		return demoted, err
	}

	e.logger.InfoContext(ctx, "listings demoted",
		"user_id", userID,
		"tier", string(t),
		"planned", count,
		"demoted", demoted,
	)

	return demoted, nil
}
