package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates all the text nodes under node (the same as jQuery's .text()).
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// RawText returns the untrimmed text of the i-th node in sel, or "" if it does not exist.
func RawText(sel *goquery.Selection, i int) string {
	if i < 0 || i >= len(sel.Nodes) {
		return ""
	}
	return GetText(sel.Nodes[i])
}

// Text is RawText with the surrounding whitespace (including non-breaking spaces) trimmed.
func Text(sel *goquery.Selection, i int) string {
	return strings.TrimSpace(RawText(sel, i))
}
