package rerank

import (
	"strings"

	"github.com/mohammad-safakhou/schoolchat/models"
)

// archiveExts mark a passage as originating from a static archival
// document rather than a live page.
var archiveExts = []string{".pdf", ".doc", ".docx"}

// ClassifySource decides whether a passage came from a live website or an
// archival document. Website is the default: the whole point of reranking
// is to surface current site content, so an ambiguous or empty origin is
// never penalised into the archive bucket. The secondary locator (storage
// URI) is checked by substring because object keys often carry the
// extension mid-path.
func ClassifySource(origin, locator string) models.SourceType {
	o := strings.ToLower(origin)
	for _, ext := range archiveExts {
		if strings.HasSuffix(o, ext) {
			return models.SourceArchive
		}
	}
	if l := strings.ToLower(locator); l != "" {
		for _, ext := range archiveExts {
			if strings.Contains(l, ext) {
				return models.SourceArchive
			}
		}
	}
	return models.SourceWebsite
}
