package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Field names in the index.
const (
	fieldName = "name"
	fieldID   = "id"
)

// buildIndexMapping maps entity names as single keyword terms so a wildcard
// query matches any substring of the whole name, hyphens included.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = keyword.Name
	nameFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(fieldName, nameFieldMapping)

	idFieldMapping := bleve.NewNumericFieldMapping()
	idFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(fieldID, idFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

// docID zero-pads id so that sorting on _id is numeric order.
func docID(id int) string {
	return fmt.Sprintf("%05d", id)
}
