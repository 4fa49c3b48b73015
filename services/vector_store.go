package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"

	"github.com/Kolawole99/henry-capstone/models"
)

const (
	// DefaultCollection backs queries that are not scoped to any agent.
	DefaultCollection = "nexus_mind_docs"

	agentCollectionPrefix = "agent_"

	chunkSize    = 1000
	chunkOverlap = 200

	// DefaultTopK is the number of chunks retrieved per query.
	DefaultTopK = 3

	metaFileID     = "file_id"
	metaSourceFile = "source_file"
	metaChunkNum   = "chunk_num"
)

// CollectionManager resolves agent identifiers to collection-bound
// VectorStore instances. It is the only place collection names are formed, so
// an id-formatting bug cannot leak documents across agents. Instances are
// cached per collection, which also gives all ingest/delete callers for one
// collection a shared per-file lock table.
//
// CollectionManager is safe for concurrent use.
type CollectionManager struct {
	client   chromago.Client
	embedder Embedder
	logger   *zap.Logger

	mu     sync.Mutex
	stores map[string]*VectorStore
}

// NewCollectionManager builds a manager over an existing Chroma client.
func NewCollectionManager(client chromago.Client, embedder Embedder, logger *zap.Logger) *CollectionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollectionManager{
		client:   client,
		embedder: embedder,
		logger:   logger,
		stores:   make(map[string]*VectorStore),
	}
}

// collectionNameFor is the single mapping from agent identifier to collection
// name. An empty agentID maps to the shared default collection.
func collectionNameFor(agentID string) string {
	if agentID == "" {
		return DefaultCollection
	}
	return agentCollectionPrefix + agentID
}

// ForAgent returns the store bound to the given agent's collection. An empty
// agentID yields the default collection.
func (m *CollectionManager) ForAgent(ctx context.Context, agentID string) (*VectorStore, error) {
	return m.forCollection(ctx, collectionNameFor(agentID))
}

// Default returns the store bound to the shared default collection.
func (m *CollectionManager) Default(ctx context.Context) (*VectorStore, error) {
	return m.forCollection(ctx, DefaultCollection)
}

func (m *CollectionManager) forCollection(ctx context.Context, name string) (*VectorStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[name]; ok {
		return store, nil
	}

	collection, err := m.client.GetOrCreateCollection(
		ctx,
		name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("created_by", "rag_service"),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: get or create collection %q: %v", ErrStoreUnavailable, name, err)
	}

	store := NewVectorStore(collection, m.embedder, m.logger)
	m.stores[name] = store
	m.logger.Info("collection ready", zap.String("collection", name))
	return store, nil
}

// VectorStore owns chunking, embedding-backed insertion, nearest-neighbor
// lookup and per-file deletion for exactly one collection. An instance never
// multiplexes across collections; handing the wrong agent id to the
// CollectionManager is the only way data could cross agents.
type VectorStore struct {
	collection chromago.Collection
	embedder   Embedder
	logger     *zap.Logger

	mu        sync.Mutex
	fileLocks map[string]*sync.Mutex
}

// NewVectorStore binds a store to a single collection.
func NewVectorStore(collection chromago.Collection, embedder Embedder, logger *zap.Logger) *VectorStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VectorStore{
		collection: collection,
		embedder:   embedder,
		logger:     logger,
		fileLocks:  make(map[string]*sync.Mutex),
	}
}

// fileLock serializes ingest and delete for one file identifier. Concurrent
// ingestion and deletion of the same file must not interleave, or deletion
// could miss chunks inserted after its metadata scan.
func (s *VectorStore) fileLock(fileID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.fileLocks[fileID]
	if !ok {
		lock = &sync.Mutex{}
		s.fileLocks[fileID] = lock
	}
	return lock
}

// IngestFile loads the file at path, splits it into overlapping chunks, tags
// every chunk with fileID and the source filename, embeds them and inserts
// the whole set with a single batched add, so a retrieval in flight never
// sees a partially inserted file. Returns the number of chunks inserted.
func (s *VectorStore) IngestFile(ctx context.Context, path, fileID string) (int, error) {
	lock := s.fileLock(fileID)
	lock.Lock()
	defer lock.Unlock()

	content, err := ExtractTextFromFile(path)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", path, err)
	}
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
	chunks, err := splitter.SplitText(content)
	if err != nil {
		return 0, fmt.Errorf("split %s: %w", path, err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	sourceFile := filepath.Base(path)
	ids := make([]chromago.DocumentID, 0, len(chunks))
	embeds := make([]embeddings.Embedding, 0, len(chunks))
	metadatas := make([]chromago.DocumentMetadata, 0, len(chunks))
	for i, chunk := range chunks {
		vector, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d of %s: %w", i, path, err)
		}
		ids = append(ids, chromago.DocumentID(fmt.Sprintf("%s-chunk%d", fileID, i)))
		embeds = append(embeds, embeddings.NewEmbeddingFromFloat32(vector))
		metadatas = append(metadatas, chromago.NewDocumentMetadata(
			chromago.NewStringAttribute(metaFileID, fileID),
			chromago.NewStringAttribute(metaSourceFile, sourceFile),
			chromago.NewIntAttribute(metaChunkNum, int64(i)),
		))
	}

	err = s.collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(chunks...),
		chromago.WithEmbeddings(embeds...),
		chromago.WithMetadatas(metadatas...),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: add chunks for %s: %v", ErrStoreUnavailable, fileID, err)
	}

	s.logger.Info("ingested file",
		zap.String("file_id", fileID),
		zap.String("source", sourceFile),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// DeleteFile removes every chunk tagged with fileID from the collection as a
// set and returns the count removed. A fileID with no matching chunks yields
// 0 and no error.
func (s *VectorStore) DeleteFile(ctx context.Context, fileID string) (int, error) {
	lock := s.fileLock(fileID)
	lock.Lock()
	defer lock.Unlock()

	results, err := s.collection.Get(ctx,
		chromago.WithWhereGet(chromago.EqString(metaFileID, fileID)),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: lookup chunks for %s: %v", ErrStoreUnavailable, fileID, err)
	}

	ids := results.GetIDs()
	if len(ids) == 0 {
		return 0, nil
	}

	if err := s.collection.Delete(ctx, chromago.WithIDsDelete(ids...)); err != nil {
		return 0, fmt.Errorf("%w: delete chunks for %s: %v", ErrStoreUnavailable, fileID, err)
	}

	s.logger.Info("deleted file chunks",
		zap.String("file_id", fileID),
		zap.Int("chunks", len(ids)))
	return len(ids), nil
}

// Retrieve returns the k nearest chunks to query within this store's
// collection, ordered by decreasing similarity. k <= 0 selects DefaultTopK.
func (s *VectorStore) Retrieve(ctx context.Context, query string, k int) ([]models.SourceDocument, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query collection: %v", ErrStoreUnavailable, err)
	}

	var docs []models.SourceDocument
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	if len(documentGroups) == 0 {
		return docs, nil
	}
	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		sourceDoc := models.SourceDocument{Text: doc.ContentString()}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			fileID, sourceFile := decodeChunkMetadata(metadataGroups[0][i], s.logger)
			sourceDoc.FileID = fileID
			sourceDoc.SourceFile = sourceFile
		}
		docs = append(docs, sourceDoc)
	}
	return docs, nil
}

// Count reports the number of chunks currently in the collection.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count collection: %v", ErrStoreUnavailable, err)
	}
	return int(count), nil
}

// decodeChunkMetadata pulls the file tags out of a chunk's metadata. The
// chroma metadata type has no public accessor for arbitrary keys, so it goes
// through a JSON round trip.
func decodeChunkMetadata(metadata chromago.DocumentMetadata, logger *zap.Logger) (fileID, sourceFile string) {
	if metadata == nil {
		return "", ""
	}
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		logger.Warn("could not marshal chunk metadata", zap.Error(err))
		return "", ""
	}
	var metaMap map[string]any
	if err := json.Unmarshal(jsonBytes, &metaMap); err != nil {
		logger.Warn("could not unmarshal chunk metadata", zap.Error(err))
		return "", ""
	}
	if v, ok := metaMap[metaFileID].(string); ok {
		fileID = v
	}
	if v, ok := metaMap[metaSourceFile].(string); ok {
		sourceFile = v
	}
	return fileID, sourceFile
}
