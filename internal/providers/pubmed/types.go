package pubmed

import (
	"encoding/json"
	"fmt"
)

// esearchResponse is the JSON envelope of esearch.fcgi (retmode=json).
type esearchResponse struct {
	ESearchResult esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count    string   `json:"count"`
	RetMax   string   `json:"retmax"`
	RetStart string   `json:"retstart"`
	IDList   []string `json:"idlist"`
	// ErrorList is present when the query phrase was not found. A
	// populated phrasenotfound list is a normal empty outcome.
	ErrorList *esearchErrorList `json:"errorlist,omitempty"`
}

type esearchErrorList struct {
	PhraseNotFound []string `json:"phrasesnotfound"`
	FieldNotFound  []string `json:"fieldsnotfound"`
}

// esummaryResponse is the JSON envelope of esummary.fcgi (retmode=json).
// The "result" object mixes a "uids" index array with one document per
// UID key, so it must be decoded in two passes.
type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// summaryDoc is a single document summary under its UID key.
type summaryDoc struct {
	UID             string          `json:"uid"`
	Title           string          `json:"title"`
	PubDate         string          `json:"pubdate"`
	EPubDate        string          `json:"epubdate"`
	Authors         []summaryAuthor `json:"authors"`
	ELocationID     string          `json:"elocationid"`
	ArticleIDs      []articleID     `json:"articleids"`
	FullJournalName string          `json:"fulljournalname"`
	Source          string          `json:"source"`
}

type summaryAuthor struct {
	Name     string `json:"name"`
	AuthType string `json:"authtype"`
}

type articleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}

// docs extracts the per-UID summary documents in the order given by the
// "uids" index array.
func (r *esummaryResponse) docs() ([]summaryDoc, error) {
	if r.Result == nil {
		return nil, nil
	}

	rawUIDs, ok := r.Result["uids"]
	if !ok {
		return nil, nil
	}

	var uids []string
	if err := json.Unmarshal(rawUIDs, &uids); err != nil {
		return nil, fmt.Errorf("decoding uids index: %w", err)
	}

	docs := make([]summaryDoc, 0, len(uids))
	for _, uid := range uids {
		raw, ok := r.Result[uid]
		if !ok {
			continue
		}
		var doc summaryDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decoding summary for uid %s: %w", uid, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
