package domain

import "time"

type SourceType string

const (
	SourceDOM SourceType = "DOM"
	SourcePDF SourceType = "PDF"
)

// PageSnapshot is what the client captures from the active tab.
type PageSnapshot struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	HTML        string `json:"html"`
}

type RawContent struct {
	SourceType SourceType `json:"source_type"`
	Text       string     `json:"text"`
	HTML       string     `json:"html,omitempty"`
	URL        string     `json:"url"`
	Timestamp  time.Time  `json:"timestamp"`
}

type PdfSourceType string

const (
	PdfSourceDriveViewer    PdfSourceType = "drive_viewer"
	PdfSourceEmbed          PdfSourceType = "embed"
	PdfSourceIframe         PdfSourceType = "iframe"
	PdfSourceObject         PdfSourceType = "object"
	PdfSourcePage           PdfSourceType = "page"
	PdfSourceBlob           PdfSourceType = "blob"
	PdfSourceAttachmentLink PdfSourceType = "attachment_link"
)

type PdfSource struct {
	URL    string        `json:"url"`
	Type   PdfSourceType `json:"type"`
	FileID string        `json:"file_id,omitempty"`
}

type PdfStrategy string

const (
	StrategyStructured    PdfStrategy = "structured"
	StrategyByteHeuristic PdfStrategy = "byte_heuristic"
)

type PdfText struct {
	Text     string      `json:"text"`
	Strategy PdfStrategy `json:"strategy"`
	Pages    int         `json:"pages,omitempty"`
}

// Blob is a fetched remote payload.
type Blob struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// PageExtraction is the in-page result: DOM content, or the located PDF source.
type PageExtraction struct {
	SourceType SourceType `json:"source_type"`
	Content    RawContent `json:"content"`
	PdfSource  *PdfSource `json:"pdf_source,omitempty"`
	Tier       string     `json:"tier,omitempty"`
}

// FieldRequest is the material handed to the field extraction service.
// PDF carries the original bytes for providers that accept documents inline.
type FieldRequest struct {
	Content RawContent
	PDF     []byte
}
