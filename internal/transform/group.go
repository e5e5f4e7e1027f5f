package transform

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// Stat is a reduced value. Valid is false when the group had no values;
// Value is then zero and must not be drawn.
type Stat struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// NoValue is the marker for an empty reduction.
var NoValue = Stat{}

func (s Stat) String() string {
	if !s.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%g", s.Value)
}

// Reducer folds a group's values into one Stat.
type Reducer func(xs []float64) Stat

// Sum adds the values.
func Sum(xs []float64) Stat {
	if len(xs) == 0 {
		return NoValue
	}
	var t float64
	for _, x := range xs {
		t += x
	}
	return Stat{Value: t, Valid: true}
}

// Mean averages the values.
func Mean(xs []float64) Stat {
	if len(xs) == 0 {
		return NoValue
	}
	return Stat{Value: stats.Mean(xs), Valid: true}
}

// Min returns the smallest value.
func Min(xs []float64) Stat {
	if len(xs) == 0 {
		return NoValue
	}
	lo, _ := stats.Bounds(xs)
	return Stat{Value: lo, Valid: true}
}

// Max returns the largest value.
func Max(xs []float64) Stat {
	if len(xs) == 0 {
		return NoValue
	}
	_, hi := stats.Bounds(xs)
	return Stat{Value: hi, Valid: true}
}

// Median returns the middle value.
func Median(xs []float64) Stat {
	return Quantile(0.5)(xs)
}

// Quantile returns a reducer for the q'th quantile.
func Quantile(q float64) Reducer {
	return func(xs []float64) Stat {
		if len(xs) == 0 {
			return NoValue
		}
		v := stats.Sample{Xs: xs}.Quantile(q)
		if math.IsNaN(v) {
			return NoValue
		}
		return Stat{Value: v, Valid: true}
	}
}

// ParseReducer maps a name (sum, mean, min, max, median) to a Reducer.
func ParseReducer(name string) (Reducer, error) {
	switch name {
	case "sum":
		return Sum, nil
	case "mean", "avg":
		return Mean, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	case "median":
		return Median, nil
	}
	return nil, fmt.Errorf("unknown reducer %q", name)
}

// Group holds the values that share an outer and inner key.
type Group[O, I cmp.Ordered] struct {
	Outer  O
	Inner  I
	Values []float64
}

// Reduce folds the group with r.
func (g Group[O, I]) Reduce(r Reducer) Stat {
	return r(g.Values)
}

// GroupBy groups items by (outer, inner). Items for which value reports false
// still create their group, so an all-absent group reduces to NoValue rather
// than disappearing. Groups are sorted by outer then inner key.
func GroupBy[T any, O, I cmp.Ordered](items []T, outer func(T) O, inner func(T) I, value func(T) (float64, bool)) []Group[O, I] {
	type key struct {
		o O
		i I
	}
	idx := make(map[key]int)
	var groups []Group[O, I]
	for _, it := range items {
		k := key{outer(it), inner(it)}
		j, ok := idx[k]
		if !ok {
			j = len(groups)
			idx[k] = j
			groups = append(groups, Group[O, I]{Outer: k.o, Inner: k.i})
		}
		if v, ok := value(it); ok {
			groups[j].Values = append(groups[j].Values, v)
		}
	}
	sort.SliceStable(groups, func(a, b int) bool {
		if c := cmp.Compare(groups[a].Outer, groups[b].Outer); c != 0 {
			return c < 0
		}
		return cmp.Less(groups[a].Inner, groups[b].Inner)
	})
	return groups
}

// Reduced is one reduced group.
type Reduced[O, I cmp.Ordered] struct {
	Outer O
	Inner I
	Stat  Stat
}

// ReduceAll reduces every group with r, keeping order.
func ReduceAll[O, I cmp.Ordered](groups []Group[O, I], r Reducer) []Reduced[O, I] {
	out := make([]Reduced[O, I], len(groups))
	for i, g := range groups {
		out[i] = Reduced[O, I]{Outer: g.Outer, Inner: g.Inner, Stat: g.Reduce(r)}
	}
	return out
}

// Keys returns the sorted distinct keys produced by key.
func Keys[T any, K cmp.Ordered](items []T, key func(T) K) []K {
	seen := make(map[K]bool)
	var out []K
	for _, it := range items {
		k := key(it)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
