// -- internal/form/fill/scripts.go --
package fill

import (
	"fmt"
	"sort"
	"strings"
)

// multiSelectScript toggles the options of a native multi-select to
// exactly the wanted set and reports how many ended up selected.
func multiSelectScript(locator string, wanted map[string]bool) string {
	labels := make([]string, 0, len(wanted))
	for l := range wanted {
		labels = append(labels, jsString(l))
	}
	sort.Strings(labels)

	return fmt.Sprintf(`(() => {
	const node = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!node) { throw new Error("no element matches locator"); }
	const wanted = new Set([%s]);
	let selected = 0;
	for (const opt of Array.from(node.options || [])) {
		const hit = wanted.has(opt.label.trim().toLowerCase()) ||
			wanted.has(opt.text.trim().toLowerCase()) ||
			wanted.has(opt.value.trim().toLowerCase());
		opt.selected = hit;
		if (hit) { selected++; }
	}
	node.dispatchEvent(new Event("input", {bubbles: true}));
	node.dispatchEvent(new Event("change", {bubbles: true}));
	return selected;
})()`, jsString(locator), strings.Join(labels, ", "))
}

// clickFirstOptionScript commits whatever entry a filtered dropdown
// widget lists first. Returns the clicked entry's text, or "" when the
// widget shows no clickable options.
func clickFirstOptionScript() string {
	return `(() => {
	const visible = (el) => {
		const style = window.getComputedStyle(el);
		if (style.display === "none" || style.visibility === "hidden") { return false; }
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	};
	const options = Array.from(document.querySelectorAll('[role="option"]'));
	for (const opt of options) {
		if (!visible(opt) || opt.getAttribute("aria-disabled") === "true") { continue; }
		const text = (opt.textContent || "").trim();
		opt.scrollIntoView({block: "center"});
		opt.click();
		return text;
	}
	return "";
})()`
}
