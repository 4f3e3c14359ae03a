package crawl

import (
	"sync"

	"github.com/fwojciec/docmirror/bloom"
)

// Entry is a discovered URL awaiting traversal.
type Entry struct {
	URL   string
	Depth int
}

// Frontier is an in-memory FIFO work queue with Bloom filter deduplication.
// FIFO order makes the traversal breadth-first: shallower pages are always
// fetched and written before deeper ones, which keeps partial output
// predictable when a run is interrupted.
//
// Frontier is safe for concurrent use by multiple goroutines.
type Frontier struct {
	mu    sync.Mutex
	seen  *bloom.Filter
	queue []Entry
	head  int
}

// NewFrontier creates a new Frontier sized for n expected URLs
// with the given false positive rate for deduplication.
func NewFrontier(n uint, fpRate float64) *Frontier {
	return &Frontier{
		seen: bloom.NewFilter(n, fpRate),
	}
}

// Push adds an entry to the back of the queue.
// The URL is normalized (fragment stripped, trailing slash folded) for the
// seen check only, so URLs differing just by fragment or trailing slash are
// considered duplicates; the entry keeps its original URL because a trailing
// slash is significant for path mapping (it selects index.md). Check and
// insert happen under one lock, so two concurrent pushes of the same URL
// admit exactly one entry. Returns false if the URL has already been seen.
func (f *Frontier) Push(e Entry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen.TestAndAdd(Normalize(e.URL)) {
		return false
	}

	f.queue = append(f.queue, e)
	return true
}

// Mark records a URL as seen without queueing it, so rejected URLs
// (out of scope, beyond the depth bound) are counted once per run.
func (f *Frontier) Mark(rawURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen.Add(Normalize(rawURL))
}

// Pop removes and returns the oldest entry.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.head >= len(f.queue) {
		return Entry{}, false
	}
	e := f.queue[f.head]
	f.queue[f.head] = Entry{}
	f.head++

	// Reclaim consumed prefix once it dominates the backing array
	if f.head > 64 && f.head*2 >= len(f.queue) {
		f.queue = append([]Entry(nil), f.queue[f.head:]...)
		f.head = 0
	}
	return e, true
}

// Len returns the number of entries waiting in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) - f.head
}

// Seen returns true if the URL has been queued or processed.
// The URL is normalized before checking.
func (f *Frontier) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.Test(Normalize(rawURL))
}
