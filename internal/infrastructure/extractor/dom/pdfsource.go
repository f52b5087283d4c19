package dom

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

var viewerFileID = regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`)

// findPdfSource walks the discovery order: viewer iframe, embed, iframe, object,
// the page itself, blob/data iframes, then visible attachment links.
func findPdfSource(p *page) *domain.PdfSource {
	if src := driveViewerSource(p); src != nil {
		return src
	}

	for _, candidate := range []struct {
		selector string
		attr     string
		kind     domain.PdfSourceType
	}{
		{"embed", "src", domain.PdfSourceEmbed},
		{"iframe", "src", domain.PdfSourceIframe},
		{"object", "data", domain.PdfSourceObject},
	} {
		var found *domain.PdfSource
		p.doc.Find(candidate.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !elementReferencesPDF(s) {
				return true
			}
			ref, _ := s.Attr(candidate.attr)
			resolved := resolve(p.url, ref)
			if resolved == "" || strings.HasPrefix(resolved, "about:") {
				return true
			}
			found = &domain.PdfSource{URL: resolved, Type: candidate.kind}
			return false
		})
		if found != nil {
			return found
		}
	}

	if pageIsPDF(p) {
		return &domain.PdfSource{URL: p.raw, Type: domain.PdfSourcePage}
	}

	var blob *domain.PdfSource
	p.doc.Find("iframe[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		src = strings.TrimSpace(src)
		if strings.HasPrefix(src, "blob:") || strings.HasPrefix(src, "data:") {
			blob = &domain.PdfSource{URL: src, Type: domain.PdfSourceBlob}
			return false
		}
		return true
	})
	if blob != nil {
		return blob
	}

	var link *domain.PdfSource
	p.doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !referencesPDF(href) || !isRendered(s.Get(0)) {
			return true
		}
		if resolved := resolve(p.url, href); resolved != "" {
			link = &domain.PdfSource{URL: resolved, Type: domain.PdfSourceAttachmentLink}
			return false
		}
		return true
	})
	return link
}

func driveViewerSource(p *page) *domain.PdfSource {
	var found *domain.PdfSource
	p.doc.Find("iframe[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		u, err := url.Parse(resolve(p.url, src))
		if err != nil {
			return true
		}
		host := strings.ToLower(u.Hostname())
		if host != hostDrive && host != hostDocs {
			return true
		}
		m := viewerFileID.FindStringSubmatch(u.Path)
		if m == nil {
			return true
		}
		found = &domain.PdfSource{
			URL:    "https://drive.google.com/uc?export=download&id=" + m[1],
			Type:   domain.PdfSourceDriveViewer,
			FileID: m[1],
		}
		return false
	})
	return found
}

func elementReferencesPDF(s *goquery.Selection) bool {
	if typ, ok := s.Attr("type"); ok && strings.EqualFold(strings.TrimSpace(typ), "application/pdf") {
		return true
	}
	for _, attr := range []string{"src", "data"} {
		if v, ok := s.Attr(attr); ok && referencesPDF(v) {
			return true
		}
	}
	return false
}

// referencesPDF reports whether a URL path ends in .pdf, ignoring query and fragment.
func referencesPDF(ref string) bool {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	return strings.HasSuffix(ref, ".pdf")
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "blob:") || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "about:") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
