package plan

import (
	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/errs"
	"github.com/bisegni/ixscan/pkg/expr"
	"github.com/bisegni/ixscan/pkg/keys"
	"github.com/bisegni/ixscan/pkg/storage"
)

// EvaluateBounds resolves r against b into the physical range to read. Every
// bound expression is evaluated once. The result is half-open:
//
//	inclusive low P  -> keys >= P
//	exclusive low P  -> keys >= PrefixEnd(P)
//	inclusive high P -> keys <  PrefixEnd(P)
//	exclusive high P -> keys <  P
//
// so a bound on a column prefix includes or excludes every key sharing it.
func EvaluateBounds(codec *keys.Codec, ix *database.Index, r IndexKeyRange, b expr.Bindings) (storage.KeyRange, error) {
	lower, upper := codec.IndexSpan(ix)
	if r.Low != nil {
		p, err := encodeBound(codec, ix, r.Low, b, "low")
		if err != nil {
			return storage.KeyRange{}, err
		}
		if r.Low.Inclusive {
			lower = p
		} else {
			lower = keys.PrefixEnd(p)
		}
	}
	if r.High != nil {
		p, err := encodeBound(codec, ix, r.High, b, "high")
		if err != nil {
			return storage.KeyRange{}, err
		}
		if r.High.Inclusive {
			upper = keys.PrefixEnd(p)
		} else {
			upper = p
		}
	}
	return storage.HalfOpen(lower, upper), nil
}

func encodeBound(codec *keys.Codec, ix *database.Index, bound *IndexBound, b expr.Bindings, side string) ([]byte, error) {
	if len(bound.Values) > len(ix.Columns) {
		return nil, errs.Newf(errs.KindBinding, side+" bound",
			"%d values exceed the %d columns of index %s", len(bound.Values), len(ix.Columns), ix.Name)
	}
	values := make([]interface{}, len(bound.Values))
	for i, e := range bound.Values {
		v, err := e.Evaluate(b)
		if err != nil {
			return nil, err
		}
		col := ix.Columns[i]
		c, err := col.Type.Coerce(v)
		if err != nil {
			return nil, errs.Newf(errs.KindBinding, side+" bound", "column %s: %v", col.Name, err)
		}
		values[i] = c
	}
	key, err := codec.EncodePrefix(ix, values)
	if err != nil {
		return nil, errs.New(errs.KindBinding, side+" bound", err)
	}
	return key, nil
}
