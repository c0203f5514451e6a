package model

// IndexEntry is the document stored in the Elasticsearch vector index, one
// per text segment. SegmentID ("{pdf_id}_{segment_index}") is used as the ES
// document id, which makes re-indexing the same segment an overwrite rather
// than a duplicate.
type IndexEntry struct {
	SegmentID string    `json:"-"`
	PDFID     uint      `json:"pdf_id"`
	Filename  string    `json:"filename"`
	Text      string    `json:"text"`
	Vector    []float32 `json:"vector"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
}

// SearchHit is one ranked result of a k-NN query against the vector index.
type SearchHit struct {
	PDFID    uint    `json:"pdfId"`
	Filename string  `json:"filename"`
	Text     string  `json:"text"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
}
