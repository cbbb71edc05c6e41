package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custodia/pkg/domain-errors"
)

func TestParseAssetID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAssetID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAsset))
	})

	t.Run("rejects bare 0x prefix", func(t *testing.T) {
		_, err := ParseAssetID("0x")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAsset))
	})

	t.Run("rejects non-hex input", func(t *testing.T) {
		_, err := ParseAssetID("not-hex-at-all")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAsset))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseAssetID("0xdeadbeef")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAsset))
	})

	t.Run("accepts 32 bytes with prefix", func(t *testing.T) {
		hex32 := "0x" + strings.Repeat("ab", AssetIDLength)
		id, err := ParseAssetID(hex32)
		require.NoError(t, err)
		assert.Len(t, string(id), AssetIDLength)
		assert.Equal(t, hex32, id.Hex())
	})

	t.Run("accepts 32 bytes without prefix", func(t *testing.T) {
		id, err := ParseAssetID(strings.Repeat("cd", AssetIDLength))
		require.NoError(t, err)
		assert.False(t, id.IsEmpty())
	})
}

func TestParseIdentity(t *testing.T) {
	_, err := ParseIdentity("   ")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	id, err := ParseIdentity("0xeceffab2caf1ec535d407d366d747b575018d65e")
	require.NoError(t, err)
	assert.False(t, id.IsZero())
}

func TestParticipantCategories(t *testing.T) {
	t.Run("parse accepts supported values", func(t *testing.T) {
		for _, s := range []string{"vendor", "carrier", "pharmacy", "producer", "transporter"} {
			c, err := ParseParticipantCategory(s)
			require.NoError(t, err, s)
			assert.True(t, c.IsValid())
		}
	})

	t.Run("parse rejects unknown values", func(t *testing.T) {
		_, err := ParseParticipantCategory("wholesaler")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCategory))
	})

	t.Run("transport categories", func(t *testing.T) {
		assert.True(t, CategoryCarrier.IsTransport())
		assert.True(t, CategoryTransporter.IsTransport())
		assert.False(t, CategoryVendor.IsTransport())
		assert.False(t, CategoryPharmacy.IsTransport())
		assert.False(t, CategoryProducer.IsTransport())
	})
}

func TestParseCarrierCategory(t *testing.T) {
	for _, s := range []string{"not_applicable", "truck", "ship", "airplane"} {
		_, err := ParseCarrierCategory(s)
		require.NoError(t, err, s)
	}

	_, err := ParseCarrierCategory("bicycle")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCategory))
}
