package library

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/GintGld/kshana-timeline/internal/models"
)

var (
	normalizeTransformer transform.Transformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	transformer                                = transform.Chain(normalizeTransformer, unicodeFoldTransformer{})
)

// noMatch ranks placements the query does not match at all.
const noMatch = -1

type placementRank struct {
	placement models.Placement
	rank      int
}

func rankCmp(pr1, pr2 placementRank) int {
	if pr1.rank != pr2.rank {
		return pr1.rank - pr2.rank
	}
	if pr1.placement.StartTime < pr2.placement.StartTime {
		return -1
	}
	if pr1.placement.StartTime > pr2.placement.StartTime {
		return 1
	}
	return 0
}

// filterRank returns placements whose prompt matches the query,
// sorted by rank ascending.
func filterRank(placements []models.Placement, query string, kinds []models.PlacementKind) []placementRank {
	q := stringTransform(query)
	out := make([]placementRank, 0, len(placements))

	for _, p := range placements {
		if len(kinds) > 0 && !slices.Contains(kinds, p.Kind) {
			continue
		}
		if r := rank(q, stringTransform(p.Prompt)); r != noMatch {
			out = append(out, placementRank{placement: p, rank: r})
		}
	}

	slices.SortStableFunc(out, rankCmp)

	return out
}

// rank prefers subsequence matches of the whole query and falls back
// to per-word Levenshtein distance so typos still match.
func rank(query, prompt string) int {
	if query == "" {
		return 0
	}
	if r := fuzzy.RankMatch(query, prompt); r >= 0 {
		return r
	}

	best := noMatch
	for _, qw := range strings.Fields(query) {
		limit := max(1, utf8.RuneCountInString(qw)/3)
		found := false
		for _, pw := range strings.Fields(prompt) {
			d := fuzzy.LevenshteinDistance(qw, pw)
			if d <= limit {
				found = true
				// Typo matches rank behind every subsequence match.
				if r := len(prompt) + d; best == noMatch || r > best {
					best = r
				}
				break
			}
		}
		if !found {
			return noMatch
		}
	}

	return best
}

func stringTransform(s string) (transformed string) {
	var err error
	transformed, _, err = transform.String(transformer, s)
	if err != nil {
		transformed = s
	}

	return
}

type unicodeFoldTransformer struct{ transform.NopResetter }

func (unicodeFoldTransformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	// Ranging over a string yields utf8.RuneError for each invalid byte
	// and advances by one byte.
	for _, r := range string(src) {
		size := utf8.RuneLen(r)
		if r == utf8.RuneError {
			size = 1
		}
		r = unicode.ToLower(r)
		if utf8.RuneLen(r) > len(dst[nDst:]) {
			err = transform.ErrShortDst
			break
		}
		nDst += utf8.EncodeRune(dst[nDst:], r)
		nSrc += size
	}
	return nDst, nSrc, err
}
