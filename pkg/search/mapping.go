package search

import (
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

const segmentType = "segment"

func BuildIndexMapping(defaultAnalyzer string) *mapping.IndexMappingImpl {
	if defaultAnalyzer == "" {
		defaultAnalyzer = standard.Name
	}
	idx := mapping.NewIndexMapping()
	idx.DefaultAnalyzer = defaultAnalyzer
	idx.TypeField = "type"

	// 文本
	text := mapping.NewTextFieldMapping()
	text.Store = true
	text.Index = true
	text.Analyzer = defaultAnalyzer
	text.IncludeInAll = true
	text.IncludeTermVectors = true // 高亮更精准

	// 关键词
	kw := mapping.NewTextFieldMapping()
	kw.Store = true
	kw.Index = true
	kw.Analyzer = keyword.Name
	kw.IncludeInAll = false

	// 数值
	num := mapping.NewNumericFieldMapping()
	num.Store = true
	num.Index = true

	segment := mapping.NewDocumentMapping()
	segment.Dynamic = false
	segment.AddFieldMappingsAt("text", text)
	segment.AddFieldMappingsAt("mediaId", kw)
	segment.AddFieldMappingsAt("segmentId", kw)
	segment.AddFieldMappingsAt("start", num)
	segment.AddFieldMappingsAt("end", num)
	idx.AddDocumentMapping(segmentType, segment)

	def := mapping.NewDocumentMapping()
	def.Dynamic = false
	idx.DefaultMapping = def
	return idx
}
