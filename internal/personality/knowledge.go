package personality

import (
	"embed"
	"io/fs"
	"path"
	"strings"

	"github.com/chatguus/chatguus-backend/internal/search"
)

//go:embed knowledge/*.md
var knowledgeFS embed.FS

// Knowledge maps a tenant id to its FAQ index.
type Knowledge map[string]search.Index

var stopwords = []string{
	"de", "het", "een", "en", "van", "is", "in", "op", "je", "jullie", "wat", "zijn",
	"hoe", "kan", "ik", "er", "voor", "met", "the", "a", "an", "is", "are", "what",
	"how", "can", "i", "you", "your", "of", "to", "for", "and",
}

// minKnowledgeScore discards weak matches so a FAQ answer is only used when
// the question clearly names its topic.
const minKnowledgeScore = 0.3

// LoadKnowledge indexes every embedded knowledge/<tenant-id>.md document.
func LoadKnowledge() (Knowledge, error) {
	files, err := fs.Glob(knowledgeFS, "knowledge/*.md")
	if err != nil {
		return nil, err
	}
	out := make(Knowledge, len(files))
	for _, name := range files {
		f, err := knowledgeFS.Open(name)
		if err != nil {
			return nil, err
		}
		entries, err := search.ParseMarkdown(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		id := strings.TrimSuffix(path.Base(name), ".md")
		out[id] = search.NewIndex(entries,
			search.WithStopwords(stopwords),
			search.WithMinScore(minKnowledgeScore),
		)
	}
	return out, nil
}

// Lookup returns the best FAQ answer of tenantID for question.
func (k Knowledge) Lookup(tenantID, question string) (search.Result, bool) {
	idx, ok := k[tenantID]
	if !ok || idx == nil {
		return search.Result{}, false
	}
	res := idx.TopK(question, 1)
	if len(res) == 0 {
		return search.Result{}, false
	}
	return res[0], true
}
