package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/purchasability"
	"custodia/pkg/domain"
)

var assetID = domain.AssetIDFromBytes([]byte(strings.Repeat("\xaa", domain.AssetIDLength)))

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()

	t.Run("nil cache misses and accepts writes", func(t *testing.T) {
		var v *Verdicts
		_, hit, err := v.Get(ctx, assetID, 1)
		require.NoError(t, err)
		assert.False(t, hit)
		require.NoError(t, v.Set(ctx, assetID, 1, purchasability.Verdict{purchasability.ValidForPurchase}))
	})

	t.Run("nil client behaves the same", func(t *testing.T) {
		v := New(nil)
		_, hit, err := v.Get(ctx, assetID, 1)
		require.NoError(t, err)
		assert.False(t, hit)
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	verdict := purchasability.Verdict{
		purchasability.NotInPharmacy,
		purchasability.TemperatureTooLow,
	}
	decoded, err := decode(encode(verdict))
	require.NoError(t, err)
	assert.Equal(t, verdict, decoded)
}

func TestDecodeRejectsMalformedEntries(t *testing.T) {
	_, err := decode("100,0")
	require.Error(t, err)

	_, err = decode("a,b,c,d,e,f,g,h,i,j")
	require.Error(t, err)
}

func TestCacheKeyIncludesHandoverCount(t *testing.T) {
	assert.NotEqual(t, cacheKey(assetID, 1), cacheKey(assetID, 2))
}
