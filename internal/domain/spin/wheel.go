// Package spin runs the once-per-day weighted prize wheel.
package spin

import (
	"errors"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/random"
)

type Bucket struct {
	Reward money.Amount
	Weight int
}

// DefaultTable is the production prize table.
var DefaultTable = []Bucket{
	{Reward: money.Cents(0), Weight: 10},
	{Reward: money.Cents(20), Weight: 25},
	{Reward: money.Cents(50), Weight: 20},
	{Reward: money.Cents(100), Weight: 15},
	{Reward: money.Cents(200), Weight: 10},
	{Reward: money.Cents(500), Weight: 5},
	{Reward: money.Cents(1000), Weight: 1},
}

// Wheel samples by inverse CDF over the table in its given order.
type Wheel struct {
	buckets    []Bucket
	cumulative []int
}

func NewWheel(buckets []Bucket) (*Wheel, error) {
	if len(buckets) == 0 {
		return nil, errors.New("spin table is empty")
	}
	w := &Wheel{buckets: buckets, cumulative: make([]int, len(buckets))}
	total := 0
	for i, b := range buckets {
		if b.Weight <= 0 {
			return nil, errors.New("spin weights must be positive")
		}
		total += b.Weight
		w.cumulative[i] = total
	}
	return w, nil
}

func (w *Wheel) Total() int {
	return w.cumulative[len(w.cumulative)-1]
}

// Pick maps a draw in [0, Total()) to its bucket: bucket i covers
// [cumulative[i-1], cumulative[i]).
func (w *Wheel) Pick(draw int) money.Amount {
	for i, upto := range w.cumulative {
		if draw < upto {
			return w.buckets[i].Reward
		}
	}
	return w.buckets[len(w.buckets)-1].Reward
}

func (w *Wheel) Spin(rnd random.Source) money.Amount {
	return w.Pick(rnd.IntN(w.Total()))
}
