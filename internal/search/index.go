package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/lehuagavin/genslides/internal/domain"
)

// SearchIndex wraps a Bleve index over projects and slides.
//
// All public methods are safe for concurrent use. The mutex guards the index
// handle while Rebuild swaps it.
type SearchIndex struct {
	index  bleve.Index
	path   string // empty for an in-memory index
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage; empty keeps the index in memory
	Logger   *slog.Logger // Uses discard if nil
}

// mappingVersion is bumped whenever the index mapping changes so stale on-disk
// indexes are dropped at startup.
const mappingVersion = "1"

const batchSize = 500

// NewSearchIndex creates or opens a search index. An existing index that cannot
// be opened or was built with an older mapping is removed and recreated.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &SearchIndex{index: index, logger: logger}, nil
	}

	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	needsRebuild := false

	if _, err := os.Stat(indexPath); err == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, rebuilding", "version", mappingVersion)
			needsRebuild = true
		case string(existing) != mappingVersion:
			logger.Info("search index mapping changed, rebuilding",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		default:
			index, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("failed to open search index, recreating", "path", indexPath, "error", err)
				needsRebuild = true
			}
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
	}

	if index == nil {
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened search index", "path", indexPath)
	}

	return &SearchIndex{index: index, path: indexPath, logger: logger}, nil
}

// Close releases the index.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocuments indexes docs in batches.
func (s *SearchIndex) IndexDocuments(docs []*SearchDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(docs)
}

func (s *SearchIndex) indexLocked(docs []*SearchDocument) error {
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// IndexProject replaces every document belonging to p, so slides removed since
// the last save disappear from results.
func (s *SearchIndex) IndexProject(p *domain.Project) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.removeLocked(p.Slug); err != nil {
		return err
	}
	return s.indexLocked(DocumentsFromProject(p))
}

// RemoveProject deletes every document belonging to slug.
func (s *SearchIndex) RemoveProject(slug string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.removeLocked(slug)
}

func (s *SearchIndex) removeLocked(slug string) error {
	q := bleve.NewTermQuery(slug)
	q.SetField("slug")

	for {
		req := bleve.NewSearchRequestOptions(q, batchSize, 0, false)
		res, err := s.index.Search(req)
		if err != nil {
			return fmt.Errorf("find documents for %s: %w", slug, err)
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := s.index.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("delete documents for %s: %w", slug, err)
		}
	}
}

// DocumentCount returns the number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and reindexes projects from scratch. It blocks every
// other operation while it runs.
func (s *SearchIndex) Rebuild(projects []*domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index

	var docs []*SearchDocument
	for _, p := range projects {
		docs = append(docs, DocumentsFromProject(p)...)
	}
	if err := s.indexLocked(docs); err != nil {
		return err
	}

	s.logger.Info("rebuilt search index", "projects", len(projects), "documents", len(docs))
	return nil
}

// ProjectSaved keeps the index in step with the project store.
func (s *SearchIndex) ProjectSaved(p *domain.Project) {
	if err := s.IndexProject(p); err != nil {
		s.logger.Warn("failed to index project", "slug", p.Slug, "error", err)
	}
}

// ProjectDeleted drops a deleted project's documents.
func (s *SearchIndex) ProjectDeleted(slug string) {
	if err := s.RemoveProject(slug); err != nil {
		s.logger.Warn("failed to remove project from index", "slug", slug, "error", err)
	}
}
