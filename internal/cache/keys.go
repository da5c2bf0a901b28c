// internal/cache/keys.go
// Key taxonomy for the cache-aside layer. Every cached aggregate has exactly
// one key shape, so invalidation after a write can enumerate the affected
// keys instead of flushing whole families.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Kb28022004/toperNoteBackend/internal/model"
)

// Key family prefixes, used as metric labels and for targeted invalidation.
const (
	FamilyListing     = "listing"
	FamilyMarketplace = "marketplace"
	FamilyDetail      = "detail"
	FamilyProfile     = "profile"
	FamilyDirectory   = "directory"
)

// ListingKey caches the admin review queue for one status.
func ListingKey(status model.ProfileStatus) string {
	return fmt.Sprintf("%s:%s", FamilyListing, status)
}

// DocumentListingKey caches the admin document queue for one status.
func DocumentListingKey(status model.DocumentStatus) string {
	return fmt.Sprintf("%s:doc:%s", FamilyListing, status)
}

// MarketplaceKey caches one page of the public marketplace for one filter
// combination. Only anonymous traffic is served from it.
func MarketplaceKey(filter model.MarketplaceFilter, page, limit int) string {
	return fmt.Sprintf("%s:%s:%d:%d", FamilyMarketplace, filterHash(filter), page, limit)
}

// DetailKey caches the identity-independent portion of a document detail.
func DetailKey(documentID string) string {
	return fmt.Sprintf("%s:%s", FamilyDetail, documentID)
}

// ProfileKey caches a contributor's public profile aggregate, keyed by the
// contributor's user ID.
func ProfileKey(contributorID string) string {
	return fmt.Sprintf("%s:%s", FamilyProfile, contributorID)
}

// DirectoryKey caches the approved-contributor directory.
func DirectoryKey() string {
	return FamilyDirectory + ":all-contributors"
}

// Family extracts the key family prefix for metric labels.
func Family(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// filterHash canonicalizes a marketplace filter into a short stable token.
// Field order is fixed and values are lowercased, so equivalent filters
// always share a cache entry.
func filterHash(filter model.MarketplaceFilter) string {
	canonical := strings.ToLower(fmt.Sprintf("s=%s|c=%s|b=%s",
		filter.Subject, filter.Class, filter.Board))
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8])
}
