package embedded

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/esmodel/internal/domain/schema"
)

type createBody struct {
	Settings map[string]any `json:"settings"`
	Mappings struct {
		Properties schema.Properties `json:"properties"`
	} `json:"mappings"`
}

// analyzers maps Elasticsearch analyzer names onto registered bleve analyzers.
// Other names fall back to the index default.
var analyzers = map[string]string{
	"standard": "standard",
	"simple":   "simple",
	"keyword":  "keyword",
	"english":  "en",
}

// buildMapping turns a property table into a bleve index mapping. Unmapped
// fields stay dynamically indexed.
func buildMapping(props schema.Properties) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	if err := addProperties(doc, props); err != nil {
		return nil, err
	}
	im.DefaultMapping = doc
	if err := im.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mapping: %w", err)
	}
	return im, nil
}

func addProperties(doc *mapping.DocumentMapping, props schema.Properties) error {
	for name, p := range props {
		typ := p.Type
		if typ == "" && len(p.Properties) > 0 {
			typ = schema.Object
		}
		if typ.HasProperties() {
			sub := bleve.NewDocumentMapping()
			if err := addProperties(sub, p.Properties); err != nil {
				return err
			}
			doc.AddSubDocumentMapping(name, sub)
			continue
		}
		fm, err := fieldMapping(name, typ, p.Params)
		if err != nil {
			return err
		}
		doc.AddFieldMappingsAt(name, fm)
	}
	return nil
}

func fieldMapping(name string, typ schema.Type, params map[string]any) (*mapping.FieldMapping, error) {
	switch {
	case typ == schema.Text || typ == schema.Completion:
		fm := bleve.NewTextFieldMapping()
		if a, ok := params["analyzer"].(string); ok {
			if bleveName, known := analyzers[a]; known {
				fm.Analyzer = bleveName
			}
		}
		return fm, nil
	case typ == schema.Keyword || typ == schema.IP:
		return bleve.NewKeywordFieldMapping(), nil
	case typ.IsNumeric():
		return bleve.NewNumericFieldMapping(), nil
	case typ == schema.Date || typ == schema.DateNanos:
		return bleve.NewDateTimeFieldMapping(), nil
	case typ == schema.Boolean:
		return bleve.NewBooleanFieldMapping(), nil
	case typ == schema.GeoPoint:
		return bleve.NewGeoPointFieldMapping(), nil
	case typ == schema.GeoShape:
		// shapes stay in the source only
		fm := bleve.NewTextFieldMapping()
		fm.Index = false
		return fm, nil
	}
	return nil, fmt.Errorf("no handler declared for field [%s] of type [%s]", name, typ)
}
