package models

import "time"

// Document is the unit of ingestion: one uploaded PDF.
// Immutable after creation except for the user-editable Tags list.
type Document struct {
	ID           string    `json:"id" bson:"_id"`
	Filename     string    `json:"filename" bson:"filename"`
	ClusterID    string    `json:"cluster_id" bson:"cluster_id"`
	ByteSize     int64     `json:"byte_size" bson:"byte_size"`
	SectionCount int       `json:"section_count" bson:"section_count"`
	Tags         []string  `json:"tags,omitempty" bson:"tags,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at" bson:"uploaded_at"`
}

// Section is a contiguous, titled chunk of a document's extracted text.
// Sections of a document are totally ordered by Ordinal and carry
// non-decreasing page numbers. The embedding is computed once at ingestion
// time and only recomputed when the text changes.
type Section struct {
	DocumentID string    `json:"document_id" bson:"document_id"`
	Ordinal    int       `json:"ordinal" bson:"ordinal"`
	Title      string    `json:"title" bson:"title"`
	Text       string    `json:"text" bson:"text"`
	Page       int       `json:"page" bson:"page"`
	WordCount  int       `json:"word_count" bson:"word_count"`
	Embedding  []float32 `json:"-" bson:"embedding,omitempty"`
}

// Key returns the identifier a section is indexed under.
func (s *Section) Key() string {
	return sectionKey(s.DocumentID, s.Ordinal)
}

// SectionKey builds the index identifier for a (document, ordinal) pair.
func SectionKey(documentID string, ordinal int) string {
	return sectionKey(documentID, ordinal)
}

func sectionKey(documentID string, ordinal int) string {
	// Ordinals are small; fixed-width keeps keys sortable for debugging.
	const digits = "0123456789"
	buf := []byte{'0', '0', '0', '0', '0', '0'}
	for i := len(buf) - 1; i >= 0 && ordinal > 0; i-- {
		buf[i] = digits[ordinal%10]
		ordinal /= 10
	}
	return documentID + ":" + string(buf)
}
