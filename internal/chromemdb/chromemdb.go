package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"

	"document-qa/internal/helper"
	"document-qa/internal/models"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTopK = 5

	metaPage  = "page"
	metaChunk = "chunk"
	metaSeq   = "seq"
)

var errPrecomputedOnly = errors.New("index only accepts precomputed embeddings")

// Index holds the chunks of one uploaded document and their vectors in an
// in-memory chromem-go collection. It is built once and never modified.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	chunks     []models.Chunk
	seq        map[string]int
}

// Build stores every chunk with its vector. It fails with models.ErrEmptyIndex
// when there is nothing to index.
func Build(ctx context.Context, chunks []models.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) == 0 {
		return nil, models.ErrEmptyIndex
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	name, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection("doc-"+name, map[string]string{"hnsw:space": "cosine"}, precomputedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	idx := &Index{
		db:         db,
		collection: collection,
		chunks:     make([]models.Chunk, len(chunks)),
		seq:        make(map[string]int, len(chunks)),
	}
	copy(idx.chunks, chunks)

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		id := chunk.SourceID()
		if _, dup := idx.seq[id]; dup {
			return nil, fmt.Errorf("duplicate source id %s", id)
		}
		if chunk.Text == "" {
			return nil, fmt.Errorf("chunk %s has no text", id)
		}
		idx.seq[id] = i
		docs[i] = chromem.Document{
			ID:        id,
			Content:   chunk.Text,
			Metadata:  createMetadata(chunk, i),
			Embedding: vectors[i],
		}
	}

	log.Debug().Msgf("Adding %d documents to vector database", len(docs))
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to add documents: %w", err)
	}
	return idx, nil
}

func createMetadata(chunk models.Chunk, seq int) map[string]string {
	return map[string]string{
		metaPage:  strconv.Itoa(chunk.Page),
		metaChunk: strconv.Itoa(chunk.ChunkIndex),
		metaSeq:   strconv.Itoa(seq),
	}
}

func precomputedOnly(ctx context.Context, text string) ([]float32, error) {
	return nil, errPrecomputedOnly
}

// Len returns the number of indexed chunks.
func (i *Index) Len() int {
	return len(i.chunks)
}

// Chunks returns the indexed chunks in insertion order.
func (i *Index) Chunks() []models.Chunk {
	out := make([]models.Chunk, len(i.chunks))
	copy(out, i.chunks)
	return out
}

// Search returns at most k chunks nearest to query, nearest first. Equal
// similarities keep insertion order. k <= 0 means DefaultTopK.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]models.Chunk, error) {
	if i.collection == nil {
		return nil, fmt.Errorf("index is closed")
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}
	if k <= 0 {
		k = DefaultTopK
	}

	// rank everything so ties at the cut-off are resolved by insertion order
	results, err := i.collection.QueryEmbedding(ctx, query, i.collection.Count(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].Similarity != results[b].Similarity {
			return results[a].Similarity > results[b].Similarity
		}
		return i.seq[results[a].ID] < i.seq[results[b].ID]
	})

	if k > len(results) {
		k = len(results)
	}
	out := make([]models.Chunk, 0, k)
	for _, r := range results[:k] {
		out = append(out, i.chunks[i.seq[r.ID]])
	}
	log.Debug().Int("k", k).Int("indexed", len(i.chunks)).Msg("Similarity search")
	return out, nil
}

// Close drops the collection.
func (i *Index) Close() error {
	if i == nil || i.collection == nil {
		return nil
	}
	if err := i.db.DeleteCollection(i.collection.Name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	i.collection = nil
	return nil
}
