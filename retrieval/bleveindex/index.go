package bleveindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/google/uuid"

	"github.com/mohammad-safakhou/schoolchat/models"
)

const rrfK = 60 // reciprocal-rank-fusion constant

const maxResults = 100

// Embedder produces semantic vectors for indexing and querying.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

type docVector struct {
	ID  string    `json:"id"`
	Vec []float32 `json:"vec"`
}

type storedDoc struct {
	ID      string         `json:"id"`
	Passage models.Passage `json:"passage"`
	Vec     []float32      `json:"vec,omitempty"`
}

// Index is a local hybrid knowledge index: bleve provides the lexical
// (BM25-style) ranking, in-memory vectors provide the semantic ranking,
// and the two are fused with reciprocal rank fusion. Passage metadata and
// vectors live in a JSON sidecar next to the bleve directory so the index
// survives restarts.
type Index struct {
	idx     bleve.Index
	emb     Embedder
	docPath string

	mu      sync.RWMutex
	meta    map[string]models.Passage
	vectors []docVector
}

// Open opens (or creates) the index at path. emb may be nil for a
// lexical-only index.
func Open(path string, emb Embedder) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("opening bleve index: %w", err)
	}
	x := &Index{
		idx:     idx,
		emb:     emb,
		docPath: path + ".docs.json",
		meta:    make(map[string]models.Passage),
	}
	if err := x.loadSidecar(); err != nil {
		return nil, err
	}
	return x, nil
}

// NewMemOnly builds a throwaway in-memory index.
func NewMemOnly(emb Embedder) (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{idx: idx, emb: emb, meta: make(map[string]models.Passage)}, nil
}

func (x *Index) loadSidecar() error {
	data, err := os.ReadFile(x.docPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading index sidecar: %w", err)
	}
	var docs []storedDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("parsing index sidecar: %w", err)
	}
	for _, d := range docs {
		x.meta[d.ID] = d.Passage
		if len(d.Vec) > 0 {
			x.vectors = append(x.vectors, docVector{ID: d.ID, Vec: d.Vec})
		}
	}
	return nil
}

// Flush persists passage metadata and vectors to the sidecar file.
func (x *Index) Flush() error {
	if x.docPath == "" {
		return nil
	}
	x.mu.RLock()
	vecs := make(map[string][]float32, len(x.vectors))
	for _, v := range x.vectors {
		vecs[v.ID] = v.Vec
	}
	docs := make([]storedDoc, 0, len(x.meta))
	for id, p := range x.meta {
		docs = append(docs, storedDoc{ID: id, Passage: p, Vec: vecs[id]})
	}
	x.mu.RUnlock()
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	data, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	return os.WriteFile(x.docPath, data, 0o644)
}

func (x *Index) Close() error {
	if err := x.Flush(); err != nil {
		return err
	}
	return x.idx.Close()
}

// Add indexes one passage, embedding its text when an embedder is wired.
func (x *Index) Add(ctx context.Context, p models.Passage) error {
	id := uuid.NewString()
	if err := x.idx.Index(id, map[string]interface{}{
		"text":   p.Text,
		"origin": p.Origin,
		"domain": p.Domain,
	}); err != nil {
		return err
	}

	var vec []float32
	if x.emb != nil {
		vecs, err := x.emb.CreateEmbedding(ctx, []string{p.Text})
		if err != nil {
			return fmt.Errorf("embedding passage: %w", err)
		}
		if len(vecs) == 1 {
			vec = vecs[0]
		}
	}

	x.mu.Lock()
	x.meta[id] = p
	if vec != nil {
		x.vectors = append(x.vectors, docVector{ID: id, Vec: vec})
	}
	x.mu.Unlock()
	return nil
}

// Count reports the number of indexed passages.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.meta)
}

type hit struct {
	id   string
	rank int
}

// Retrieve runs the hybrid search: BM25 and vector rankings fused with
// RRF, optionally restricted to passages indexed under the given domain.
// If embedding the query fails, results degrade to lexical-only rather
// than failing the request.
func (x *Index) Retrieve(ctx context.Context, query, domain string, k int) ([]models.Passage, error) {
	if k <= 0 || k > maxResults {
		k = 10
	}

	bmHits, err := x.lexicalSearch(query, domain, k)
	if err != nil {
		return nil, err
	}

	var vecHits []hit
	if x.emb != nil {
		if qvecs, err := x.emb.CreateEmbedding(ctx, []string{query}); err == nil && len(qvecs) == 1 {
			vecHits = x.vectorSearch(qvecs[0], domain, k)
		}
	}

	fused := fuseRRF(bmHits, vecHits, k)

	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]models.Passage, 0, len(fused))
	for _, f := range fused {
		p, ok := x.meta[f.id]
		if !ok {
			continue
		}
		p.Score = f.score
		out = append(out, p)
	}
	return out, nil
}

func (x *Index) lexicalSearch(q, domain string, k int) ([]hit, error) {
	query := bleve.NewMatchQuery(q)
	searchReq := bleve.NewSearchRequestOptions(query, k*3, 0, false)
	res, err := x.idx.Search(searchReq)
	if err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	var out []hit
	for _, h := range res.Hits {
		if !x.matchesDomain(h.ID, domain) {
			continue
		}
		out = append(out, hit{id: h.ID, rank: len(out) + 1})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

func (x *Index) vectorSearch(q []float32, domain string, k int) []hit {
	x.mu.RLock()
	defer x.mu.RUnlock()
	type scored struct {
		id    string
		score float64
	}
	var scoreds []scored
	for _, v := range x.vectors {
		if !x.matchesDomain(v.ID, domain) {
			continue
		}
		scoreds = append(scoreds, scored{id: v.ID, score: cosine(q, v.Vec)})
	}
	sort.Slice(scoreds, func(i, j int) bool { return scoreds[i].score > scoreds[j].score })
	var out []hit
	for i, sc := range scoreds {
		out = append(out, hit{id: sc.id, rank: i + 1})
		if len(out) >= k {
			break
		}
	}
	return out
}

// matchesDomain assumes the read lock is held.
func (x *Index) matchesDomain(id, domain string) bool {
	if domain == "" {
		return true
	}
	return x.meta[id].Domain == domain
}

type fusedHit struct {
	id    string
	score float64
}

func fuseRRF(a, b []hit, k int) []fusedHit {
	scores := map[string]float64{}
	order := []string{}
	add := func(list []hit) {
		for _, h := range list {
			if _, ok := scores[h.id]; !ok {
				order = append(order, h.id)
			}
			scores[h.id] += 1.0 / float64(rrfK+h.rank)
		}
	}
	add(a)
	add(b)

	out := make([]fusedHit, 0, len(order))
	for _, id := range order {
		out = append(out, fusedHit{id: id, score: scores[id]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
