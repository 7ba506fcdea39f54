package vectorstore

// Payload is the metadata stored alongside each indexed vector. The book tag
// scopes similarity search to one document set.
type Payload struct {
	Content    string `json:"content"`
	Chapter    string `json:"chapter"`
	Section    string `json:"section"`
	ChapterURL string `json:"chapter_url"`
	ChapterID  string `json:"chapter_id"`
	Book       string `json:"book"`
}

// Point is the persisted unit in the vector store.
type Point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// ScoredPoint is a similarity search hit.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload Payload
}

// CollectionInfo summarises an existing collection.
type CollectionInfo struct {
	PointsCount int64
	VectorSize  int
	Distance    string
}
