// AngelaMos | 2026
// gate_test.go

package entitlement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCreate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		tier    Tier
		wantErr error
	}{
		{
			name:    "under limit passes",
			rec:     Record{StandardLimit: 3, StandardUsed: 2},
			tier:    TierStandard,
			wantErr: nil,
		},
		{
			name:    "at limit is rejected",
			rec:     Record{StandardLimit: 3, StandardUsed: 3},
			tier:    TierStandard,
			wantErr: &QuotaError{Tier: TierStandard, Limit: 3},
		},
		{
			name:    "zero limit rejects the first create",
			rec:     Record{FeaturedLimit: 0, FeaturedUsed: 0},
			tier:    TierFeatured,
			wantErr: &QuotaError{Tier: TierFeatured, Limit: 0},
		},
		{
			name:    "usage above limit is rejected",
			rec:     Record{PremiumLimit: 2, PremiumUsed: 5},
			tier:    TierPremium,
			wantErr: &QuotaError{Tier: TierPremium, Limit: 2},
		},
		{
			name:    "unknown tier",
			rec:     Record{StandardLimit: 3},
			tier:    Tier("gold"),
			wantErr: ErrNoTier,
		},
		{
			name:    "empty tier",
			rec:     Record{StandardLimit: 3},
			tier:    Tier(""),
			wantErr: ErrNoTier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCreate(&tt.rec, tt.tier)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantErr.Error(), err.Error())
		})
	}
}

func TestQuotaErrorMessage(t *testing.T) {
	err := CheckCreate(&Record{StandardLimit: 3, StandardUsed: 3}, TierStandard)
	require.Error(t, err)

	var qe *QuotaError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "limit reached for standard, limit = 3", qe.Error())
}
