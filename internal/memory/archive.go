package memory

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/vinayprograms/agentkit/logging"
)

// Archive is a full-text index over interaction records. Unlike the bounded
// store it is unbounded and persistent; it exists so that evicted context can
// still be recalled by keyword search.
type Archive struct {
	mu     sync.Mutex
	index  bleve.Index
	logger *logging.Logger
}

// archiveDocument is the indexed shape of a record.
type archiveDocument struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Hit is one archive search result.
type Hit struct {
	ID    string
	Kind  Kind
	Text  string
	Score float64
}

// NewArchive opens or creates the index at path.
func NewArchive(path string) (*Archive, error) {
	var index bleve.Index
	var err error

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		index, err = bleve.New(path, buildArchiveMapping())
		if err != nil {
			return nil, fmt.Errorf("creating archive index: %w", err)
		}
	} else {
		index, err = bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening archive index: %w", err)
		}
	}

	return &Archive{
		index:  index,
		logger: logging.New().WithComponent("archive"),
	}, nil
}

// buildArchiveMapping creates the index mapping for records.
func buildArchiveMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	dateFieldMapping := bleve.NewDateTimeFieldMapping()

	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	docMapping.AddFieldMappingsAt("kind", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("created_at", dateFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name
	return indexMapping
}

// Index stores a record under its id. The text is the searchable rendering
// of the record's payload, produced by the caller.
func (a *Archive) Index(rec Record, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc := archiveDocument{
		ID:        rec.ID,
		Kind:      string(rec.Kind),
		Text:      text,
		CreatedAt: rec.Timestamp,
	}
	if err := a.index.Index(rec.ID, doc); err != nil {
		return fmt.Errorf("indexing record: %w", err)
	}
	return nil
}

// Search returns up to limit hits matching the query, best first.
func (a *Archive) Search(queryText string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	searchReq := bleve.NewSearchRequest(bleve.NewMatchQuery(queryText))
	searchReq.Size = limit
	searchReq.Fields = []string{"*"}

	result, err := a.index.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("archive search failed: %w", err)
	}

	var hits []Hit
	for _, hit := range result.Hits {
		text, _ := hit.Fields["text"].(string)
		kind, _ := hit.Fields["kind"].(string)
		hits = append(hits, Hit{
			ID:    hit.ID,
			Kind:  Kind(kind),
			Text:  text,
			Score: hit.Score,
		})
	}
	return hits, nil
}

// Count returns the number of indexed documents.
func (a *Archive) Count() (uint64, error) {
	return a.index.DocCount()
}

// Close releases the underlying index.
func (a *Archive) Close() error {
	return a.index.Close()
}
