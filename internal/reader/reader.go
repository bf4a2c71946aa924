// Package reader runs condition evaluation across the tiles of a read,
// fanning sparse tile filtering out over a bounded worker pool and collecting
// per-tile selections.
package reader

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cubedb/cube/internal/condition"
	"github.com/cubedb/cube/internal/config"
	"github.com/cubedb/cube/internal/logging"
	"github.com/cubedb/cube/internal/metrics"
	"github.com/cubedb/cube/internal/schema"
	"github.com/cubedb/cube/internal/selection"
	"github.com/cubedb/cube/internal/tile"
)

// TileInput pairs one tile with the metadata of its fragment.
type TileInput struct {
	Tile *tile.Tile
	Meta *tile.FragmentMeta
}

// Result is the outcome of filtering one tile.
type Result struct {
	Selection *selection.Selection
	Count     uint64
}

// Reader filters tiles against a query condition.
type Reader struct {
	schema      *schema.Schema
	cond        *condition.Condition
	concurrency int
	batchCells  uint64
	logger      *logging.Logger
}

// New creates a reader for one condition. The condition is rewritten against
// the schema once so enumeration lookups happen before any tile is touched.
func New(cond *condition.Condition, params condition.Params, cfg *config.Config, logger *logging.Logger) (*Reader, error) {
	if err := cond.Check(params.Schema); err != nil {
		return nil, err
	}
	rewritten, err := cond.RewriteForSchema(params.Schema)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.New()
	}
	return &Reader{
		schema:      params.Schema,
		cond:        rewritten,
		concurrency: cfg.Eval.GetConcurrency(),
		batchCells:  uint64(cfg.Eval.GetBatchCells()),
		logger:      logger,
	}, nil
}

// FilterTiles evaluates the condition over every input tile and returns one
// selection per tile, ordered as the inputs were. Evaluation stops at the
// first error or context cancellation.
func (r *Reader) FilterTiles(ctx context.Context, inputs []TileInput) ([]Result, error) {
	results := make([]Result, len(inputs))
	sem := make(chan struct{}, r.concurrency)
	errCh := make(chan error, len(inputs))

	var wg sync.WaitGroup
	for i, in := range inputs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, in TileInput) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := r.filterTile(in)
			metrics.IncTileFiltered(err)
			if err != nil {
				errCh <- err
				return
			}
			results[i] = res
		}(i, in)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Reader) filterTile(in TileInput) (Result, error) {
	t := in.Tile
	start := time.Now()

	bm := make([]uint8, t.CellCount())
	for i := range bm {
		bm[i] = 1
	}
	params := condition.Params{Schema: r.schema, FragmentMeta: in.Meta}

	// Evaluate in batches so tree-walk temporaries stay bounded on big tiles.
	var count uint64
	var err error
	for off := uint64(0); off < t.CellCount(); off += r.batchCells {
		end := off + r.batchCells
		if end > t.CellCount() {
			end = t.CellCount()
		}
		var n uint64
		n, err = condition.ApplySparseRange(r.cond, params, t, off, bm[off:end])
		if err != nil {
			break
		}
		count += n
	}
	metrics.ObserveApply("sparse", t.CellCount(), time.Since(start).Seconds(), err)
	if err != nil {
		r.logger.Error("condition apply failed",
			"fragment", t.Fragment(), "tile", t.Index(), "error", err)
		return Result{}, err
	}

	sel := selection.FromBitmap(t.Fragment(), t.Index(), bm)
	return Result{Selection: sel, Count: count}, nil
}

// EncodeCondition serializes a condition for persistence, compressing when
// the storage configuration asks for it. condition.Decode accepts either
// form.
func EncodeCondition(cfg *config.Config, c *condition.Condition) []byte {
	if cfg == nil {
		cfg = config.Default()
	}
	if cfg.Storage.CompressConditions {
		return c.EncodeCompressed()
	}
	return c.Encode()
}

// MergeSlabs flattens per-tile selections back into an ordered slab list,
// tiles ordered by fragment then tile index.
func MergeSlabs(inputs []TileInput, results []Result) []tile.Slab {
	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := inputs[order[a]].Tile, inputs[order[b]].Tile
		if ta.Fragment() != tb.Fragment() {
			return ta.Fragment() < tb.Fragment()
		}
		return ta.Index() < tb.Index()
	})

	var out []tile.Slab
	for _, i := range order {
		if results[i].Selection == nil {
			continue
		}
		out = append(out, results[i].Selection.ToSlabs(inputs[i].Tile)...)
	}
	return out
}
