package europepmc

// searchResponse is the JSON envelope of the Europe PMC REST search
// endpoint (format=json, resultType=core).
type searchResponse struct {
	HitCount   int        `json:"hitCount"`
	ResultList resultList `json:"resultList"`
}

type resultList struct {
	Results []result `json:"result"`
}

// result is a single Europe PMC work. Only the fields the engine
// normalizes are decoded.
type result struct {
	ID                   string        `json:"id"`
	Source               string        `json:"source"`
	PMID                 string        `json:"pmid"`
	DOI                  string        `json:"doi"`
	Title                string        `json:"title"`
	AuthorString         string        `json:"authorString"`
	AuthorList           *authorList   `json:"authorList"`
	AbstractText         string        `json:"abstractText"`
	PubYear              string        `json:"pubYear"`
	FirstPublicationDate string        `json:"firstPublicationDate"`
	JournalInfo          *journalInfo  `json:"journalInfo"`
	KeywordList          *keywordList  `json:"keywordList"`
	FullTextURLList      *fullTextURLs `json:"fullTextUrlList"`
}

type authorList struct {
	Authors []author `json:"author"`
}

type author struct {
	FullName  string `json:"fullName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type journalInfo struct {
	Journal journal `json:"journal"`
}

type journal struct {
	Title string `json:"title"`
}

type keywordList struct {
	Keywords []string `json:"keyword"`
}

type fullTextURLs struct {
	FullTextURL []fullTextURL `json:"fullTextUrl"`
}

type fullTextURL struct {
	URL           string `json:"url"`
	DocumentStyle string `json:"documentStyle"`
}
