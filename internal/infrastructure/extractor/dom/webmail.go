package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var webmailTiers = []tier{
	{name: "webmail_bodies", run: webmailBodies},
	{name: "webmail_message", run: webmailMessage},
	{name: "webmail_view", run: webmailView},
}

var webmailChrome = strings.Join([]string{
	"[role=navigation]",
	"[role=toolbar]",
	"[role=banner]",
	"[role=menu]",
	"[role=button]",
	"[role=search]",
	"header",
	"nav",
	".G-atb",
	".aeH",
	".ha",
	".gb_",
}, ", ")

// webmailBodies joins every rendered message body with blank lines.
func webmailBodies(doc *goquery.Document) string {
	bodies := renderedOnly(doc.Find("div.a3s"))
	if bodies.Length() == 0 {
		bodies = renderedOnly(doc.Find("div.ii.gt"))
	}
	var parts []string
	bodies.Each(func(_ int, s *goquery.Selection) {
		if text := visibleText(s); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

func renderedOnly(sel *goquery.Selection) *goquery.Selection {
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return isRendered(s.Get(0))
	})
}

func webmailMessage(doc *goquery.Document) string {
	msg := doc.Find(".adn, [role=listitem]").First()
	if msg.Length() == 0 {
		return ""
	}
	clone := msg.Clone()
	clone.Find(webmailChrome).Remove()
	return visibleText(clone)
}

func webmailView(doc *goquery.Document) string {
	view := doc.Find("[role=main]").First()
	if view.Length() == 0 {
		return ""
	}
	clone := view.Clone()
	clone.Find(webmailChrome).Remove()
	return visibleText(clone)
}
