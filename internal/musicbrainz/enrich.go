package musicbrainz

import (
	"context"
	"fmt"

	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
)

// DefaultMinScore is the lowest search score trusted for an update
const DefaultMinScore = 90

// PersonSearcher finds a person by name; Client implements it
type PersonSearcher interface {
	SearchPerson(ctx context.Context, name string) (*Artist, error)
}

// EnrichOptions controls EnrichComposers
type EnrichOptions struct {
	MinScore int  // Matches scoring below this are skipped (default DefaultMinScore)
	DryRun   bool // Report changes without writing them
}

// Change is a life-span update found for one composer
type Change struct {
	ComposerID int64
	Composer   string
	Match      string
	MBID       string
	Score      int
	Born       *int // nil when the catalog already has a value or MusicBrainz has none
	Died       *int
}

// EnrichResult summarizes an enrichment run
type EnrichResult struct {
	Checked  int
	NoMatch  int
	LowScore int
	Changes  []Change
	Errors   []error
}

// EnrichComposers looks up every composer missing a birth or death year and
// fills in the missing years. Years already stored are never overwritten.
func EnrichComposers(ctx context.Context, db *store.Store, searcher PersonSearcher, opts EnrichOptions) (*EnrichResult, error) {
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}

	composers, err := db.ListComposersMissingDates(ctx)
	if err != nil {
		return nil, err
	}

	result := &EnrichResult{}
	for _, c := range composers {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Checked++

		artist, err := searcher.SearchPerson(ctx, c.Name)
		if err != nil {
			util.WarnLog("Failed to look up '%s': %v", c.Name, err)
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", c.Name, err))
			continue
		}
		if artist == nil {
			result.NoMatch++
			continue
		}
		if artist.Score < opts.MinScore {
			util.DebugLog("MusicBrainz: low confidence match (%d) for '%s', skipping", artist.Score, c.Name)
			result.LowScore++
			continue
		}

		born, died := artist.LifeSpan.Years()
		if c.Born != nil {
			born = nil
		}
		if c.Died != nil {
			died = nil
		}
		if born == nil && died == nil {
			result.NoMatch++
			continue
		}

		change := Change{
			ComposerID: c.ID,
			Composer:   c.Name,
			Match:      artist.Name,
			MBID:       artist.ID,
			Score:      artist.Score,
			Born:       born,
			Died:       died,
		}

		if !opts.DryRun {
			if err := db.UpdateComposerDates(ctx, c.ID, born, died); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", c.Name, err))
				continue
			}
		}
		result.Changes = append(result.Changes, change)
	}

	return result, nil
}
