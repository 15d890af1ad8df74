package kb

import (
	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/search/query"

	"github.com/tastebud-ai/tastebud/models"
)

// lexicalIndex is a mem-only BM25 index over chunk texts. It backs the
// retriever's keyword fallback when the embedding capability is down.
// restaurant_id is indexed as an untokenized field so scoped searches
// filter inside the query rather than over the hit list.
type lexicalIndex struct {
	index bleve.Index
}

type lexicalDoc struct {
	Text         string `json:"text"`
	RestaurantID string `json:"restaurant_id"`
}

type lexicalHit struct {
	id    string
	score float64
}

func newLexicalIndex() (*lexicalIndex, error) {
	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = keyword.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("text", bleve.NewTextFieldMapping())
	doc.AddFieldMappingsAt("restaurant_id", idField)

	mapping := bleve.NewIndexMapping()
	mapping.DefaultMapping = doc

	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, err
	}
	return &lexicalIndex{index: index}, nil
}

func (l *lexicalIndex) add(chunk models.DocumentChunk) error {
	return l.index.Index(chunk.ID, lexicalDoc{Text: chunk.Text, RestaurantID: chunk.RestaurantID})
}

func (l *lexicalIndex) remove(id string) {
	_ = l.index.Delete(id)
}

func (l *lexicalIndex) search(queryText string, k int, scope string) ([]lexicalHit, error) {
	match := bleve.NewMatchQuery(queryText)
	match.SetField("text")

	var q query.Query = match
	if scope != "" {
		owner := bleve.NewTermQuery(scope)
		owner.SetField("restaurant_id")
		q = bleve.NewConjunctionQuery(match, owner)
	}

	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	res, err := l.index.Search(req)
	if err != nil {
		return nil, err
	}
	out := make([]lexicalHit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, lexicalHit{id: hit.ID, score: hit.Score})
	}
	return out, nil
}
