package retrieval

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/schoolchat/models"
	"github.com/mohammad-safakhou/schoolchat/retrieval/bleveindex"
)

// Retriever supplies, per query, an ordered sequence of passages with
// relevance scores. Results come back hybrid-ranked (lexical + semantic)
// so the downstream reranker can trust the order as its tie-break.
type Retriever interface {
	Retrieve(ctx context.Context, query, domain string, k int) ([]models.Passage, error)
}

type IndexType string

const (
	IndexTypeBleve IndexType = "bleve"
)

// NewRetriever opens the configured knowledge index. The embedder may be
// nil, in which case retrieval is lexical-only.
func NewRetriever(t IndexType, path string, emb bleveindex.Embedder) (Retriever, error) {
	switch t {
	case IndexTypeBleve:
		return bleveindex.Open(path, emb)
	}
	return nil, fmt.Errorf("invalid index type: %s", t)
}
