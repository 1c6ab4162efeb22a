// -- internal/form/discover/locator.go --
package discover

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// UniqueXPath builds an XPath expression addressing exactly one node.
// A stable id attribute on the node or an ancestor anchors the path;
// otherwise the path is positional from the document root.
func UniqueXPath(node *html.Node) string {
	if node == nil {
		return ""
	}

	var path []string
	for n := node; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		tag := strings.ToLower(n.Data)
		if tag == "" {
			continue
		}

		if id := htmlquery.SelectAttr(n, "id"); stableID(id) {
			path = append(path, fmt.Sprintf(`//*[@id='%s']`, id))
			break
		}

		// 1-based position among same-tag element siblings.
		index := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && strings.ToLower(prev.Data) == tag {
				index++
			}
		}
		path = append(path, fmt.Sprintf("%s[%d]", tag, index))
	}

	if len(path) == 0 {
		return "/"
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	xpath := strings.Join(path, "/")
	if !strings.HasPrefix(xpath, "//*[@id=") {
		xpath = "/" + xpath
	}
	return xpath
}

// stableID rejects ids that cannot anchor an XPath across page loads
// or inside a quoted literal. React's useId emits colons; several
// form builders stamp ids with long hex or numeric suffixes that
// change per render.
func stableID(id string) bool {
	if id == "" {
		return false
	}
	if strings.ContainsAny(id, `':"`) {
		return false
	}
	digits := 0
	for _, r := range id {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	// Mostly-numeric ids are almost always generated.
	return digits*2 <= len(id)
}
