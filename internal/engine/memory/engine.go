package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/engine"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/textmatch"
)

const (
	// DefaultFuzzyFloor is the minimum typo-tolerant score for a fuzzy result.
	DefaultFuzzyFloor = 0.3

	// DefaultSuggestFloor is the minimum loose score for a "did you mean" name.
	DefaultSuggestFloor = 0.15

	// ctxCheckEvery is how many documents are scored between context checks.
	ctxCheckEvery = 256
)

// document is an indexed material with its name pre-analyzed.
type document struct {
	material domain.Material
	name     textmatch.Prepared
	brand    string
	desc     string
}

// idSet is the payload stored at each trie key and posting list.
type idSet map[int64]struct{}

// Engine is an in-memory implementation of the SearchEngine interface.
// Names are indexed by padded trigram postings for fuzzy candidate lookup and
// by a patricia trie of word-start suffixes for autocomplete.
// Thread-safe via sync.RWMutex.
type Engine struct {
	mu       sync.RWMutex
	docs     map[int64]*document
	postings map[string]idSet
	prefixes *patricia.Trie

	fuzzyFloor   float64
	suggestFloor float64
}

var _ engine.SearchEngine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithFuzzyFloor sets the minimum score a fuzzy match must reach.
func WithFuzzyFloor(f float64) Option {
	return func(e *Engine) { e.fuzzyFloor = f }
}

// WithSuggestFloor sets the minimum score a "did you mean" name must reach.
func WithSuggestFloor(f float64) Option {
	return func(e *Engine) { e.suggestFloor = f }
}

// New creates a new in-memory search engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		docs:         make(map[int64]*document),
		postings:     make(map[string]idSet),
		prefixes:     patricia.NewTrie(),
		fuzzyFloor:   DefaultFuzzyFloor,
		suggestFloor: DefaultSuggestFloor,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index adds or replaces a single material in the in-memory index.
func (e *Engine) Index(_ context.Context, material *domain.Material) error {
	if material == nil {
		return errors.New("material is nil")
	}
	doc, err := newDocument(*material)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.remove(doc.material.ID)
	e.add(doc)
	return nil
}

// BulkIndex adds or replaces multiple materials. Nothing is indexed when any
// material is invalid.
func (e *Engine) BulkIndex(ctx context.Context, materials []domain.Material) error {
	docs := make([]*document, 0, len(materials))
	for i := range materials {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		doc, err := newDocument(materials[i])
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, doc := range docs {
		e.remove(doc.material.ID)
		e.add(doc)
	}
	return nil
}

// Replace swaps the whole index for materials. Readers see either the old
// corpus or the new one, never a mix.
func (e *Engine) Replace(ctx context.Context, materials []domain.Material) error {
	next := New(WithFuzzyFloor(e.fuzzyFloor), WithSuggestFloor(e.suggestFloor))
	if err := next.BulkIndex(ctx, materials); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.docs = next.docs
	e.postings = next.postings
	e.prefixes = next.prefixes
	return nil
}

// Delete removes a material from the in-memory index by its ID.
func (e *Engine) Delete(_ context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.remove(id)
	return nil
}

// Get returns a copy of the indexed material with the given ID.
func (e *Engine) Get(_ context.Context, id int64) (*domain.Material, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	doc, ok := e.docs[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	m := doc.material
	return &m, nil
}

// Count returns the number of indexed materials.
func (e *Engine) Count(_ context.Context) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.docs), nil
}

func newDocument(m domain.Material) (*document, error) {
	m.Normalize()
	if m.Name == "" {
		return nil, errors.New("material name is required")
	}
	name := textmatch.Prepare(m.Name)
	return &document{
		material: m,
		name:     name,
		brand:    textmatch.Normalize(m.Brand),
		desc:     textmatch.Normalize(m.Description),
	}, nil
}

// wordStarts returns every suffix of a normalized name that begins a word,
// the name itself first.
func wordStarts(name string) []string {
	keys := []string{name}
	for i := 0; i < len(name); i++ {
		if name[i] == ' ' && i+1 < len(name) {
			keys = append(keys, name[i+1:])
		}
	}
	return keys
}

// add must be called with the write lock held.
func (e *Engine) add(doc *document) {
	id := doc.material.ID
	e.docs[id] = doc
	for _, g := range doc.name.Trigrams {
		set, ok := e.postings[g]
		if !ok {
			set = make(idSet)
			e.postings[g] = set
		}
		set[id] = struct{}{}
	}
	for _, key := range wordStarts(doc.name.Text) {
		if item := e.prefixes.Get(patricia.Prefix(key)); item != nil {
			item.(idSet)[id] = struct{}{}
			continue
		}
		e.prefixes.Insert(patricia.Prefix(key), idSet{id: {}})
	}
}

// remove must be called with the write lock held.
func (e *Engine) remove(id int64) {
	doc, ok := e.docs[id]
	if !ok {
		return
	}
	delete(e.docs, id)
	for _, g := range doc.name.Trigrams {
		if set, ok := e.postings[g]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(e.postings, g)
			}
		}
	}
	for _, key := range wordStarts(doc.name.Text) {
		item := e.prefixes.Get(patricia.Prefix(key))
		if item == nil {
			continue
		}
		set := item.(idSet)
		delete(set, id)
		if len(set) == 0 {
			e.prefixes.Delete(patricia.Prefix(key))
		}
	}
}
