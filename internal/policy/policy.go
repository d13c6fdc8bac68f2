// Package policy holds the tier-access decision shared by every
// enforcement point. It must stay dependency-free so the edge build
// links the exact same code the origin API evaluates.
package policy

import "strings"

// Tier is an ordered access class.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPremium
}

// ParseTier normalizes raw input into a Tier.
func ParseTier(raw string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", false
	}
	return t, true
}

// CanAccess decides whether a subject of subjectTier may read a resource
// of resourceTier. Premium subjects read everything; free subjects read
// only free resources. Unknown tiers never grant access.
func CanAccess(subjectTier, resourceTier Tier) bool {
	if !subjectTier.Valid() || !resourceTier.Valid() {
		return false
	}
	if subjectTier == TierPremium {
		return true
	}
	return resourceTier == TierFree
}

// TierFromPath derives a resource tier from its URI prefix. Anything
// outside /premium/ is served as free content.
func TierFromPath(path string) Tier {
	if strings.HasPrefix(path, "/premium/") {
		return TierPremium
	}
	return TierFree
}
