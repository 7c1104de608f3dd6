package listings

import "strings"

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
)

// SearchParams filters the public catalog. Zero values disable a filter;
// Available defaults to true the way the catalog only shows bookable listings.
type SearchParams struct {
	Category      Category
	MinPriceCents int64
	MaxPriceCents int64
	City          string
	MinBedrooms   int
	Owner         OwnerID
	Available     *bool
	AnyAvailable  bool
	Limit         int
	Offset        int
}

type SearchResult struct {
	Items []*Listing
	Total int
}

// Normalized returns a copy with defaults applied and bounds enforced.
func (p SearchParams) Normalized() SearchParams {
	out := p
	out.City = strings.ToLower(strings.TrimSpace(p.City))
	if out.Limit <= 0 {
		out.Limit = defaultSearchLimit
	}
	if out.Limit > maxSearchLimit {
		out.Limit = maxSearchLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	if out.MinPriceCents < 0 {
		out.MinPriceCents = 0
	}
	if out.Available == nil && !out.AnyAvailable {
		available := true
		out.Available = &available
	}
	return out
}

// Matches reports whether the listing satisfies the normalized params.
func (p SearchParams) Matches(l *Listing) bool {
	if l == nil {
		return false
	}
	if p.Category != "" && l.Category != p.Category {
		return false
	}
	if p.MinPriceCents > 0 && l.PriceCents < p.MinPriceCents {
		return false
	}
	if p.MaxPriceCents > 0 && l.PriceCents > p.MaxPriceCents {
		return false
	}
	if p.City != "" && !strings.Contains(strings.ToLower(l.Address.City), p.City) {
		return false
	}
	if p.MinBedrooms > 0 && l.Extras.Bedrooms < p.MinBedrooms {
		return false
	}
	if p.Owner != "" && l.Owner != p.Owner {
		return false
	}
	if !p.AnyAvailable && p.Available != nil && l.Available != *p.Available {
		return false
	}
	return true
}
