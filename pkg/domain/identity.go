// Package domain holds the value types shared across the custody core:
// participant identities, asset identifiers, and the category enums.
//
// Values are opaque to the core: identities are compared for equality only;
// asset identifiers are fixed-length byte strings. Construct via the Parse
// functions at trust boundaries; direct casting bypasses validation.
package domain

import (
	"encoding/hex"
	"strings"

	dErrors "custodia/pkg/domain-errors"
)

// Identity is an opaque, globally unique participant identifier. The core
// never interprets its structure; it only compares identities for equality.
type Identity string

// NoIdentity is the zero value returned by failed lookups.
const NoIdentity Identity = ""

// ParseIdentity constructs an Identity from external input.
//
// Errors: CodeBadRequest when the value is empty or whitespace.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoIdentity, dErrors.New(dErrors.CodeBadRequest, "identity cannot be empty")
	}
	return Identity(s), nil
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool { return i == NoIdentity }

// String returns the string representation of the identity.
func (i Identity) String() string { return string(i) }

// AssetIDLength is the required identifier length in bytes.
const AssetIDLength = 32

// AssetID is an opaque fixed-length asset identifier (32 raw bytes).
type AssetID string

// ParseAssetID constructs an AssetID from a hex-encoded string, with or
// without a 0x prefix.
//
// Errors: CodeInvalidAsset when the value is empty, not valid hex, or not
// exactly 32 bytes long.
func ParseAssetID(s string) (AssetID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidAsset, "asset id is empty")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidAsset, "asset id is not valid hex")
	}
	if len(raw) != AssetIDLength {
		return "", dErrors.Newf(dErrors.CodeInvalidAsset, "asset id must be %d bytes, got %d", AssetIDLength, len(raw))
	}
	return AssetID(raw), nil
}

// AssetIDFromBytes wraps raw bytes without length validation. Intended for
// tests and storage rehydration where the bytes were validated on the way in.
func AssetIDFromBytes(b []byte) AssetID { return AssetID(b) }

// IsEmpty reports whether the identifier has no bytes.
func (id AssetID) IsEmpty() bool { return len(id) == 0 }

// Hex returns the 0x-prefixed hex encoding used on the wire and in logs.
func (id AssetID) Hex() string { return "0x" + hex.EncodeToString([]byte(id)) }
