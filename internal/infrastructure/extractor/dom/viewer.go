package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var viewerTiers = []tier{
	{name: "viewer_words", run: viewerWords},
	{name: "viewer_canvas", run: viewerCanvas},
	{name: "viewer_text_layer", run: viewerTextLayer},
	{name: "viewer_main", run: viewerMain},
	{name: "viewer_page", run: viewerPage},
}

var viewerChrome = strings.Join([]string{
	"nav",
	"header",
	"footer",
	"[role=navigation]",
	"[role=menubar]",
	"[role=menu]",
	"[role=toolbar]",
	"[role=banner]",
	".docs-menubar",
	".goog-toolbar",
	"#docs-chrome",
}, ", ")

// viewerWords reads the editor's word nodes.
func viewerWords(doc *goquery.Document) string {
	var words []string
	doc.Find(".kix-wordhtmlgenerator-word-node").Each(func(_ int, s *goquery.Selection) {
		words = append(words, s.Text())
	})
	return strings.Join(strings.Fields(strings.Join(words, " ")), " ")
}

// viewerCanvas reads the accessible labels kept next to canvas-rendered tiles.
func viewerCanvas(doc *goquery.Document) string {
	var labels []string
	doc.Find(".kix-canvas-tile-content [aria-label]").Each(func(_ int, s *goquery.Selection) {
		if label, ok := s.Attr("aria-label"); ok && strings.TrimSpace(label) != "" {
			labels = append(labels, strings.TrimSpace(label))
		}
	})
	if len(labels) > 0 {
		return strings.Join(labels, " ")
	}
	parent := doc.Find(".kix-canvas-tile-content").First().Parent()
	if parent.Length() == 0 {
		return ""
	}
	return visibleText(parent)
}

// viewerTextLayer reads rendered PDF text layers, one block per page.
func viewerTextLayer(doc *goquery.Document) string {
	var pages []string
	doc.Find(".textLayer").Each(func(_ int, layer *goquery.Selection) {
		var spans []string
		layer.Find("span").Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				spans = append(spans, t)
			}
		})
		if len(spans) > 0 {
			pages = append(pages, strings.Join(spans, " "))
		}
	})
	return strings.Join(pages, "\n\n")
}

func viewerMain(doc *goquery.Document) string {
	main := doc.Find("[role=main], main").First()
	if main.Length() == 0 {
		return ""
	}
	clone := main.Clone()
	clone.Find(viewerChrome).Remove()
	return visibleText(clone)
}

func viewerPage(doc *goquery.Document) string {
	body := doc.Find("body").First().Clone()
	body.Find(viewerChrome).Remove()
	body.Find(genericStripped).Remove()
	return visibleText(body)
}
