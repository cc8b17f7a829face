package plateau

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/plateau/internal/sweep"
)

// Session owns the analysis state for one loaded dataset: the records, their
// classification and the lazily built indexes. Everything derived is scoped
// to the session, so reloading a dataset is a whole-session swap and no
// stale index can leak across datasets.
type Session struct {
	DatasetID string
	Source    string
	LoadedAt  time.Time

	Records []sweep.Record
	Class   Classification
	Index   *IndexManager
}

// NewSession classifies a dataset and prepares its index manager.
// maxRecords is the defensive cutoff for pathological sweeps; zero means
// no limit.
func NewSession(ds *sweep.Dataset, maxRecords int) (*Session, error) {
	if ds == nil {
		return nil, fmt.Errorf("nil dataset")
	}
	if maxRecords > 0 && len(ds.Records) > maxRecords {
		return nil, fmt.Errorf("sweep has %d records, above the configured limit of %d", len(ds.Records), maxRecords)
	}

	class := Classify(ds.Records)
	sess := &Session{
		DatasetID: ds.ID,
		Source:    ds.Source,
		LoadedAt:  time.Now(),
		Records:   ds.Records,
		Class:     class,
		Index:     NewIndexManager(ds.Records, class),
	}

	log.Info().
		Str("dataset", ds.ID).
		Int("records", len(ds.Records)).
		Int("strategies", len(class.Keys)).
		Int("skipped", class.Skipped).
		Msg("analysis session ready")
	return sess, nil
}

// Holder publishes the active session to concurrent readers. Swapping in a
// freshly built session is the only write; readers always see either the
// old or the new session, never a rebuild in progress.
type Holder struct {
	mu  sync.RWMutex
	cur *Session
}

// NewHolder wraps an initial session, which may be nil until the first load.
func NewHolder(initial *Session) *Holder {
	return &Holder{cur: initial}
}

// Current returns the active session, or nil when nothing is loaded.
func (h *Holder) Current() *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cur
}

// Swap publishes a new session and returns the one it replaced.
func (h *Holder) Swap(next *Session) *Session {
	h.mu.Lock()
	prev := h.cur
	h.cur = next
	h.mu.Unlock()
	return prev
}
