// Package dom extracts invoice text from a captured page: site-specific selector
// cascades for webmail and document viewers, then a generic body fallback.
package dom

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

const (
	DefaultMinChars     = 100
	DefaultMaxHTMLChars = 50000
)

const (
	hostWebmail = "mail.google.com"
	hostDocs    = "docs.google.com"
	hostDrive   = "drive.google.com"
)

type Options struct {
	MinChars     int
	MaxHTMLChars int
}

type Extractor struct {
	opts Options
	now  func() time.Time
}

func New(opts Options) *Extractor {
	if opts.MinChars <= 0 {
		opts.MinChars = DefaultMinChars
	}
	if opts.MaxHTMLChars <= 0 {
		opts.MaxHTMLChars = DefaultMaxHTMLChars
	}
	return &Extractor{opts: opts, now: time.Now}
}

type page struct {
	url  *url.URL
	raw  string
	ct   string
	doc  *goquery.Document
	host string
}

func parse(snapshot domain.PageSnapshot) (*page, error) {
	u, err := url.Parse(strings.TrimSpace(snapshot.URL))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse page url", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot.HTML))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse page html", err)
	}
	return &page{
		url:  u,
		raw:  snapshot.URL,
		ct:   strings.ToLower(strings.TrimSpace(snapshot.ContentType)),
		doc:  doc,
		host: strings.ToLower(u.Hostname()),
	}, nil
}

// Extract classifies the page and returns either DOM content or the PDF source to fetch.
func (e *Extractor) Extract(ctx context.Context, snapshot domain.PageSnapshot) (domain.PageExtraction, error) {
	if err := ctx.Err(); err != nil {
		return domain.PageExtraction{}, err
	}
	p, err := parse(snapshot)
	if err != nil {
		return domain.PageExtraction{}, err
	}

	if classify(p) == domain.SourcePDF {
		src := findPdfSource(p)
		if src == nil {
			return domain.PageExtraction{}, domain.WrapError(domain.ErrExtraction, "locate pdf", errors.New("page looks like a PDF but no PDF source was found"))
		}
		return domain.PageExtraction{
			SourceType: domain.SourcePDF,
			PdfSource:  src,
			Content: domain.RawContent{
				SourceType: domain.SourcePDF,
				URL:        snapshot.URL,
				Timestamp:  e.now().UTC(),
			},
		}, nil
	}

	text, tier := e.cascade(p)
	if text == "" {
		return domain.PageExtraction{}, domain.WrapError(
			domain.ErrExtraction,
			"extract page text",
			fmt.Errorf("no content of at least %d characters found on page", e.opts.MinChars),
		)
	}

	return domain.PageExtraction{
		SourceType: domain.SourceDOM,
		Tier:       tier,
		Content: domain.RawContent{
			SourceType: domain.SourceDOM,
			Text:       text,
			HTML:       e.structuredHTML(p),
			URL:        snapshot.URL,
			Timestamp:  e.now().UTC(),
		},
	}, nil
}

// Classify reports whether the snapshot should be treated as a PDF.
func (e *Extractor) Classify(snapshot domain.PageSnapshot) (domain.SourceType, error) {
	p, err := parse(snapshot)
	if err != nil {
		return "", err
	}
	return classify(p), nil
}

// FindPdfSource locates the PDF referenced by the page, or nil.
func (e *Extractor) FindPdfSource(snapshot domain.PageSnapshot) (*domain.PdfSource, error) {
	p, err := parse(snapshot)
	if err != nil {
		return nil, err
	}
	return findPdfSource(p), nil
}

func classify(p *page) domain.SourceType {
	if pageIsPDF(p) {
		return domain.SourcePDF
	}
	viewers := p.doc.Find("embed, iframe, object").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return elementReferencesPDF(s)
	})
	if viewers.Length() > 0 || driveViewerSource(p) != nil {
		return domain.SourcePDF
	}
	return domain.SourceDOM
}

func pageIsPDF(p *page) bool {
	if strings.HasPrefix(p.ct, "application/pdf") {
		return true
	}
	return referencesPDF(p.url.Path)
}

type tier struct {
	name string
	run  func(*goquery.Document) string
}

func (e *Extractor) tiersFor(p *page) []tier {
	var tiers []tier
	switch p.host {
	case hostWebmail:
		tiers = append(tiers, webmailTiers...)
	case hostDocs, hostDrive:
		tiers = append(tiers, viewerTiers...)
	}
	return append(tiers, tier{name: "generic", run: genericText})
}

// cascade returns the first tier output reaching the minimum length.
func (e *Extractor) cascade(p *page) (string, string) {
	for _, t := range e.tiersFor(p) {
		text := strings.TrimSpace(t.run(p.doc))
		if utf8.RuneCountInString(text) >= e.opts.MinChars {
			return text, t.name
		}
	}
	return "", ""
}

const genericStripped = "script, style, noscript, iframe, svg, img, video, audio, canvas, picture"

func genericText(doc *goquery.Document) string {
	body := doc.Find("body").First().Clone()
	body.Find(genericStripped).Remove()
	return visibleText(body)
}

const structuredStripped = "script, style, img, video, audio, iframe"

// structuredHTML keeps table layout as context for the extraction service.
func (e *Extractor) structuredHTML(p *page) string {
	body := p.doc.Find("body").First().Clone()
	body.Find(structuredStripped).Remove()
	markup, err := goquery.OuterHtml(body)
	if err != nil {
		return ""
	}
	return truncateRunes(markup, e.opts.MaxHTMLChars)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
