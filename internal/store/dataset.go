package store

import (
	"container/list"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
)

const defaultMaxOpenBands = 64

// Dataset is the explicit store-access component: it is constructed once
// and passed by reference to every caller, replacing any notion of a
// process-wide cached accessor. Open band handles are kept in a bounded
// LRU cache; eviction closes the least recently used handle. The bound
// should exceed the number of bands concurrently in flight, since a caller
// must not retain a *Band across requests.
type Dataset struct {
	root    string
	maxOpen int

	mu   sync.Mutex
	byID map[string]*list.Element
	lru  *list.List // front is most recently used
}

type cacheEntry struct {
	id   string
	band *Band
}

// DatasetOption configures a Dataset.
type DatasetOption func(*Dataset)

// WithMaxOpenBands bounds how many band handles stay open at once.
func WithMaxOpenBands(n int) DatasetOption {
	return func(d *Dataset) {
		if n > 0 {
			d.maxOpen = n
		}
	}
}

func NewDataset(root string, opts ...DatasetOption) *Dataset {
	d := &Dataset{
		root:    root,
		maxOpen: defaultMaxOpenBands,
		byID:    make(map[string]*list.Element),
		lru:     list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BandInfo pairs a band id with its metadata for listings.
type BandInfo struct {
	ID   string `json:"id"`
	Meta Meta   `json:"meta"`
}

// Bands enumerates every published band under the data root, ordered by id
// (numerically when ids are numeric).
func (d *Dataset) Bands() ([]BandInfo, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("store: reading data root: %w", err)
	}

	var infos []BandInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := bandIDFromDir(entry.Name())
		if id == "" {
			continue
		}
		meta, err := readMeta(bandDir(d.root, id) + "/" + metaFile)
		if err != nil {
			if os.IsNotExist(err) {
				continue // unpublished leftovers
			}
			return nil, fmt.Errorf("store: reading metadata for band %s: %w", id, err)
		}
		infos = append(infos, BandInfo{ID: id, Meta: meta})
	}
	sort.Slice(infos, func(i, j int) bool { return lessBandID(infos[i].ID, infos[j].ID) })
	return infos, nil
}

func lessBandID(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	if aErr == nil && bErr == nil {
		return ai < bi
	}
	return a < b
}

// Band returns an open handle for the band id, opening and caching it on
// first use. Unknown ids yield ErrBandNotFound.
func (d *Dataset) Band(id string) (*Band, error) {
	d.mu.Lock()
	if el, ok := d.byID[id]; ok {
		d.lru.MoveToFront(el)
		b := el.Value.(*cacheEntry).band
		d.mu.Unlock()
		return b, nil
	}
	d.mu.Unlock()

	// Open outside the lock; mapping a large matrix should not block other
	// lookups.
	b, err := openBand(d.root, id)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.byID[id]; ok {
		// Lost the race; keep the winner's handle.
		d.lru.MoveToFront(el)
		b.Close()
		return el.Value.(*cacheEntry).band, nil
	}
	d.byID[id] = d.lru.PushFront(&cacheEntry{id: id, band: b})
	for d.lru.Len() > d.maxOpen {
		oldest := d.lru.Back()
		entry := oldest.Value.(*cacheEntry)
		d.lru.Remove(oldest)
		delete(d.byID, entry.id)
		entry.band.Close()
	}
	return b, nil
}

// Close releases every cached band handle.
func (d *Dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for el := d.lru.Front(); el != nil; el = el.Next() {
		if err := el.Value.(*cacheEntry).band.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.lru.Init()
	d.byID = make(map[string]*list.Element)
	return errors.Join(errs...)
}
