// Package vectorindex holds an in-memory flat index answering exact nearest
// neighbour queries under Euclidean distance.
package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	// ErrEmptyIndex is returned when searching an index with no entries.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrDimensionMismatch is returned when a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidEntry is returned when adding an entry without an ID.
	ErrInvalidEntry = errors.New("entry id cannot be empty")
)

// Entry is a labelled vector.
type Entry struct {
	ID     string
	Vector []float32
}

// Match is the result of a search.
type Match struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// Index is a flat L2 index with a fixed dimension. Entries are append only.
// Searches run concurrently with each other; Add takes the write lock.
type Index struct {
	mu      sync.RWMutex
	dim     int
	entries []Entry
}

// New creates an empty index for vectors of length dim.
func New(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	return &Index{dim: dim}, nil
}

// Dimension returns the vector length the index accepts.
func (i *Index) Dimension() int {
	return i.dim
}

// Len returns the number of entries.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Add appends an entry. The vector is copied.
func (i *Index) Add(id string, vec []float32) error {
	if id == "" {
		return ErrInvalidEntry
	}
	if len(vec) != i.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), i.dim)
	}

	v := make([]float32, len(vec))
	copy(v, vec)

	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = append(i.entries, Entry{ID: id, Vector: v})
	return nil
}

// Search returns the entry nearest to vec. Ties go to the earliest added entry.
func (i *Index) Search(vec []float32) (Match, error) {
	matches, err := i.SearchK(vec, 1)
	if err != nil {
		return Match{}, err
	}
	return matches[0], nil
}

// SearchK returns up to k entries ordered by ascending distance.
func (i *Index) SearchK(vec []float32, k int) ([]Match, error) {
	if len(vec) != i.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), i.dim)
	}
	if k < 1 {
		k = 1
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(i.entries) == 0 {
		return nil, ErrEmptyIndex
	}
	if k > len(i.entries) {
		k = len(i.entries)
	}

	// Insertion into a sorted slice of at most k; k is small.
	best := make([]Match, 0, k)
	for _, e := range i.entries {
		d := squaredL2(vec, e.Vector)
		if len(best) == k && d >= best[k-1].Distance {
			continue
		}
		pos := len(best)
		for pos > 0 && best[pos-1].Distance > d {
			pos--
		}
		if len(best) < k {
			best = append(best, Match{})
		}
		copy(best[pos+1:], best[pos:len(best)-1])
		best[pos] = Match{ID: e.ID, Distance: d}
	}

	for j := range best {
		best[j].Distance = math.Sqrt(best[j].Distance)
	}
	return best, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
