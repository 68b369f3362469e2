package docstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memRecord struct {
	seq int64
	doc Document
}

// MemoryStore is an in-process Store. It backs tests and the
// STORE_BACKEND=memory development mode.
type MemoryStore struct {
	mu          sync.Mutex
	seq         int64
	collections map[string]map[string]*memRecord
	subs        map[string]map[chan Snapshot]struct{}

	now   func() time.Time
	newID func() string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*memRecord),
		subs:        make(map[string]map[chan Snapshot]struct{}),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// SetClock overrides the timestamp source used for CreatedAt.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) ListAll(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(collection), nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, collection string) (<-chan Snapshot, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	if s.subs[collection] == nil {
		s.subs[collection] = make(map[chan Snapshot]struct{})
	}
	s.subs[collection][ch] = struct{}{}
	offer(ch, Snapshot{Collection: collection, Docs: s.listLocked(collection)})
	s.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[collection], ch)
			if len(s.subs[collection]) == 0 {
				delete(s.subs, collection)
			}
			close(ch)
			s.mu.Unlock()
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-done:
		}
	}()
	return ch, unsubscribe, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	norm, err := normalize(data)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.seq++
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]*memRecord)
	}
	s.collections[collection][id] = &memRecord{
		seq: s.seq,
		doc: Document{ID: id, CreatedAt: s.now(), Data: norm},
	}
	s.publishLocked(collection)
	return id, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	norm, err := normalize(partial)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	merged := make(map[string]any, len(rec.doc.Data)+len(norm))
	for k, v := range rec.doc.Data {
		merged[k] = v
	}
	for k, v := range norm {
		merged[k] = v
	}
	rec.doc.Data = merged
	s.publishLocked(collection)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection][id]; !ok {
		return nil
	}
	delete(s.collections[collection], id)
	s.publishLocked(collection)
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.collections[collection][id]
	if !ok {
		return nil, nil
	}
	doc := copyDocument(rec.doc)
	return &doc, nil
}

func (s *MemoryStore) listLocked(collection string) []Document {
	recs := make([]*memRecord, 0, len(s.collections[collection]))
	for _, rec := range s.collections[collection] {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	docs := make([]Document, len(recs))
	for i, rec := range recs {
		docs[i] = copyDocument(rec.doc)
	}
	return docs
}

func (s *MemoryStore) publishLocked(collection string) {
	subs := s.subs[collection]
	if len(subs) == 0 {
		return
	}
	for ch := range subs {
		offer(ch, Snapshot{Collection: collection, Docs: s.listLocked(collection)})
	}
}

// copyDocument hands out a copy callers may mutate freely. Values are
// JSON-native, so a normalize round trip is a deep copy.
func copyDocument(d Document) Document {
	data, err := normalize(d.Data)
	if err != nil {
		data = map[string]any{}
	}
	return Document{ID: d.ID, CreatedAt: d.CreatedAt, Data: data}
}
