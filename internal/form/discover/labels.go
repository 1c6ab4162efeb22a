// -- internal/form/discover/labels.go --
package discover

import (
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// InferLabel finds the human question a control is asking, trying the
// strongest signal first:
//
//	aria-label, <label for=...>, a wrapping <label>, aria-labelledby,
//	placeholder, the enclosing fieldset's legend, then the nearest
//	preceding heading or text block.
//
// Returns "" when no signal yields visible text.
func InferLabel(doc, node *html.Node) string {
	if label := cleanText(htmlquery.SelectAttr(node, "aria-label")); label != "" {
		return label
	}

	if id := htmlquery.SelectAttr(node, "id"); id != "" {
		if lab := htmlquery.FindOne(doc, `//label[@for=`+xpathLiteral(id)+`]`); lab != nil {
			if text := visibleText(lab); text != "" {
				return text
			}
		}
	}

	if wrap := ancestor(node, "label"); wrap != nil {
		if text := labelTextExcluding(wrap, node); text != "" {
			return text
		}
	}

	if refs := htmlquery.SelectAttr(node, "aria-labelledby"); refs != "" {
		var parts []string
		for _, ref := range strings.Fields(refs) {
			if target := htmlquery.FindOne(doc, `//*[@id=`+xpathLiteral(ref)+`]`); target != nil {
				if text := visibleText(target); text != "" {
					parts = append(parts, text)
				}
			}
		}
		if len(parts) > 0 {
			return cleanText(strings.Join(parts, " "))
		}
	}

	if ph := cleanText(htmlquery.SelectAttr(node, "placeholder")); ph != "" {
		return ph
	}
	if ph := cleanText(htmlquery.SelectAttr(node, "aria-placeholder")); ph != "" {
		return ph
	}

	if fs := ancestor(node, "fieldset"); fs != nil {
		if legend := htmlquery.FindOne(fs, "./legend"); legend != nil {
			if text := visibleText(legend); text != "" {
				return text
			}
		}
	}

	return nearestHeading(node)
}

// groupLabel names a radio or checkbox group. The per-control labels
// are the option labels, so the question comes from the group's
// fieldset legend or surrounding heading instead.
func groupLabel(doc, first *html.Node) string {
	if fs := ancestor(first, "fieldset"); fs != nil {
		if legend := htmlquery.FindOne(fs, "./legend"); legend != nil {
			if text := visibleText(legend); text != "" {
				return text
			}
		}
	}
	if grp := ancestorWithRole(first, "radiogroup", "group"); grp != nil {
		if label := cleanText(htmlquery.SelectAttr(grp, "aria-label")); label != "" {
			return label
		}
		if refs := htmlquery.SelectAttr(grp, "aria-labelledby"); refs != "" {
			var parts []string
			for _, ref := range strings.Fields(refs) {
				if target := htmlquery.FindOne(doc, `//*[@id=`+xpathLiteral(ref)+`]`); target != nil {
					parts = append(parts, visibleText(target))
				}
			}
			if text := cleanText(strings.Join(parts, " ")); text != "" {
				return text
			}
		}
	}
	return nearestHeading(first)
}

// controlLabel names a single radio button or checkbox, which becomes
// an option label inside its group.
func controlLabel(doc, node *html.Node) string {
	if label := cleanText(htmlquery.SelectAttr(node, "aria-label")); label != "" {
		return label
	}
	if id := htmlquery.SelectAttr(node, "id"); id != "" {
		if lab := htmlquery.FindOne(doc, `//label[@for=`+xpathLiteral(id)+`]`); lab != nil {
			if text := visibleText(lab); text != "" {
				return text
			}
		}
	}
	if wrap := ancestor(node, "label"); wrap != nil {
		if text := labelTextExcluding(wrap, node); text != "" {
			return text
		}
	}
	// Checkbox markup often puts the text in a sibling span.
	for sib := node.NextSibling; sib != nil; sib = sib.NextSibling {
		if text := visibleText(sib); text != "" {
			return text
		}
	}
	return cleanText(htmlquery.SelectAttr(node, "value"))
}

// nearestHeading walks up and back through the document looking for a
// short text block that reads like a question. Bounded so a control at
// the bottom of a long page cannot adopt the page title.
func nearestHeading(node *html.Node) string {
	hops := 0
	for n := node; n != nil && hops < 6; n = n.Parent {
		hops++
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type != html.ElementNode {
				continue
			}
			tag := strings.ToLower(prev.Data)
			switch tag {
			case "script", "style", "input", "select", "textarea", "button":
				continue
			}
			text := visibleText(prev)
			if text != "" && len(text) <= 200 {
				return text
			}
		}
	}
	return ""
}

// labelTextExcluding extracts a wrapping label's text minus whatever
// the embedded control itself renders, e.g. a select's option list.
func labelTextExcluding(label, control *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == control {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
			return
		}
		if n.Type == html.ElementNode && isInvisibleElement(n) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(label)
	return cleanText(b.String())
}

func visibleText(n *html.Node) string {
	if n.Type == html.TextNode {
		return cleanText(n.Data)
	}
	if n.Type == html.ElementNode && isInvisibleElement(n) {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := visibleText(c); text != "" {
			b.WriteString(text)
			b.WriteString(" ")
		}
	}
	return cleanText(b.String())
}

// isInvisibleElement judges visibility from the static markup alone.
// Computed styles are not available on a snapshot; inline styles and
// the standard hiding attributes cover the common cases.
func isInvisibleElement(n *html.Node) bool {
	if htmlquery.ExistsAttr(n, "hidden") {
		return true
	}
	if htmlquery.SelectAttr(n, "aria-hidden") == "true" {
		return true
	}
	style := strings.ToLower(htmlquery.SelectAttr(n, "style"))
	if strings.Contains(style, "display:none") || strings.Contains(style, "display: none") {
		return true
	}
	if strings.Contains(style, "visibility:hidden") || strings.Contains(style, "visibility: hidden") {
		return true
	}
	return false
}

func hiddenByAncestry(n *html.Node) bool {
	for a := n; a != nil; a = a.Parent {
		if a.Type == html.ElementNode && isInvisibleElement(a) {
			return true
		}
	}
	return false
}

func ancestor(n *html.Node, tag string) *html.Node {
	for a := n.Parent; a != nil; a = a.Parent {
		if a.Type == html.ElementNode && strings.EqualFold(a.Data, tag) {
			return a
		}
	}
	return nil
}

func ancestorWithRole(n *html.Node, roles ...string) *html.Node {
	for a := n.Parent; a != nil; a = a.Parent {
		if a.Type != html.ElementNode {
			continue
		}
		role := htmlquery.SelectAttr(a, "role")
		for _, want := range roles {
			if role == want {
				return a
			}
		}
	}
	return nil
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// xpathLiteral quotes a string for embedding in an XPath expression.
// Values containing single quotes need the concat form.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ",") + ")"
}
