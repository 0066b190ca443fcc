// Package library searches a project's placements and their generated
// assets by prompt.
package library

import (
	"context"
	"log/slog"
	"slices"

	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service/resolve"
)

const DefaultLimit = 20

type Library struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Library {
	return &Library{
		log: log,
	}
}

// Filter narrows a search.
type Filter struct {
	Query string
	Kinds []models.PlacementKind
	Limit int
}

// Hit is a matched placement with every generated version of its asset.
type Hit struct {
	Placement models.Placement `json:"placement"`
	Rank      int              `json:"rank"`
	Versions  []models.Asset   `json:"versions"`
	// Active is the version the timeline shows, 0 when none exists.
	Active int `json:"active"`
}

// Search ranks placements by how well their prompt matches the query.
// An empty query lists every placement in timeline order.
func (l *Library) Search(
	ctx context.Context,
	placements []models.Placement,
	assets []models.Asset,
	active models.ActiveVersions,
	filter Filter,
) []Hit {
	const op = "Library.Search"

	log := l.log.With(
		slog.String("op", op),
		slog.String("query", filter.Query),
	)

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	ranked := filterRank(placements, filter.Query, filter.Kinds)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	hits := make([]Hit, 0, len(ranked))
	for _, pr := range ranked {
		h := Hit{
			Placement: pr.placement,
			Rank:      pr.rank,
			Versions:  Versions(pr.placement, assets),
		}
		if a, ok := resolve.MatchAsset(pr.placement, assets, active); ok {
			h.Active = a.Version
		}
		hits = append(hits, h)
	}

	log.Debug("search done", slog.Int("hits", len(hits)))

	return hits
}

// Versions lists the assets generated for p, oldest version first.
func Versions(p models.Placement, assets []models.Asset) []models.Asset {
	typ, _, ok := resolve.AssetFor(p.Kind)
	if !ok {
		return []models.Asset{}
	}

	out := make([]models.Asset, 0)
	for _, a := range assets {
		if a.Type == typ && a.Matches(p.PlacementNumber) {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Asset) int {
		return a.Version - b.Version
	})

	return out
}
