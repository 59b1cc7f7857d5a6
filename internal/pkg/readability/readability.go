// Package readability pulls the main article text out of an HTML page.
package readability

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const minArticleChars = 200

var noiseSelectors = "script, style, noscript, template, iframe, svg, nav, header, footer, aside, form, button"

var blockSelectors = "h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, td"

type Article struct {
	Title string
	Text  string
}

// Extract parses r as HTML and returns its readable content. The container is
// chosen in order: <article>, <main> or [role=main], the parent holding the
// most paragraph text, then <body>.
func Extract(r io.Reader) (Article, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Article{}, fmt.Errorf("parse html failed: %w", err)
	}

	article := Article{Title: title(doc)}
	doc.Find(noiseSelectors).Remove()

	for _, selector := range []string{"article", "main, [role=main]"} {
		if text := blockText(doc.Find(selector).First()); len(text) >= minArticleChars {
			article.Text = text
			return article, nil
		}
	}

	if best := densestParagraphParent(doc); best != nil {
		if text := blockText(best); text != "" {
			article.Text = text
			return article, nil
		}
	}

	article.Text = blockText(doc.Find("body"))
	return article, nil
}

func title(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	return normalizeSpace(doc.Find("title").First().Text())
}

func densestParagraphParent(doc *goquery.Document) *goquery.Selection {
	type candidate struct {
		sel   *goquery.Selection
		score int
	}
	byNode := make(map[any]*candidate)
	var best *candidate

	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		parent := p.Parent()
		if parent.Length() == 0 {
			return
		}
		c, ok := byNode[parent.Get(0)]
		if !ok {
			c = &candidate{sel: parent}
			byNode[parent.Get(0)] = c
		}
		c.score += len(normalizeSpace(p.Text()))
		if best == nil || c.score > best.score {
			best = c
		}
	})

	if best == nil {
		return nil
	}
	return best.sel
}

func blockText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}

	parts := make([]string, 0)
	sel.Find(blockSelectors).Each(func(_ int, block *goquery.Selection) {
		// Nested blocks (p inside li/blockquote) are emitted by their outermost match.
		if block.ParentsFiltered(blockSelectors).Length() > 0 {
			return
		}
		if text := normalizeSpace(block.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return normalizeSpace(sel.Text())
	}
	return strings.Join(parts, "\n\n")
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
