package types

// ChunkRecord is one bounded segment of extracted text, the unit of
// embedding and retrieval. Index preserves document order within a source.
type ChunkRecord struct {
	Source string
	Text   string
	Index  int
}

// Page is one crawled web page after HTML cleaning.
type Page struct {
	URL  string
	Text string
}

// AskResponse is the payload returned by POST /ask.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}
