package tram

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"aonbas.x341.dev/internal/models"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Z0-9]`)

// CatalogSource provides the full stop catalog a Resolver searches.
type CatalogSource interface {
	FetchAllStops(ctx context.Context) ([]models.Stop, error)
}

// Resolver finds a stop from a user supplied identifier.
type Resolver struct {
	source CatalogSource
}

func NewResolver(source CatalogSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve matches query against the full catalog. Strategies are tried in
// order and the first hit wins:
//  1. numeric id
//  2. GTFS code, case-insensitive
//  3. GTFS code with everything but A-Z and 0-9 stripped from both sides
//  4. GTFS code or name containing the query, case-insensitive
//
// found is false when nothing matches. err is only set when the catalog
// could not be loaded.
func (r *Resolver) Resolve(ctx context.Context, query string) (stop models.Stop, found bool, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.Stop{}, false, nil
	}

	stops, err := r.source.FetchAllStops(ctx)
	if err != nil {
		return models.Stop{}, false, err
	}

	s, ok := matchStop(stops, query)
	return s, ok, nil
}

func matchStop(stops []models.Stop, query string) (models.Stop, bool) {
	upper := strings.ToUpper(query)

	if id, err := strconv.Atoi(query); err == nil {
		for _, s := range stops {
			if s.HasID() && *s.ID == id {
				return s, true
			}
		}
	}

	for _, s := range stops {
		if s.GtfsCode != nil && strings.EqualFold(s.Code(), query) {
			return s, true
		}
	}

	if sanitized := sanitizeCode(upper); sanitized != upper {
		for _, s := range stops {
			if s.GtfsCode == nil {
				continue
			}
			if sanitizeCode(strings.ToUpper(s.Code())) == sanitized {
				return s, true
			}
		}
	}

	for _, s := range stops {
		if s.GtfsCode != nil && strings.Contains(strings.ToUpper(*s.GtfsCode), upper) {
			return s, true
		}
		if s.Name != nil && strings.Contains(strings.ToUpper(*s.Name), upper) {
			return s, true
		}
	}

	return models.Stop{}, false
}

func sanitizeCode(upper string) string {
	return nonAlphanumeric.ReplaceAllString(upper, "")
}

// ResolveStop resolves query against this client's full stop catalog.
func (c *Client) ResolveStop(ctx context.Context, query string) (models.Stop, bool, error) {
	return NewResolver(c).Resolve(ctx, query)
}
