package sidecar

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// node is a schema-free XML element.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Nodes   []node     `xml:",any"`
}

func newNode(tag, text string, attrs ...xml.Attr) node {
	return node{XMLName: xml.Name{Local: tag}, Text: text, Attrs: attrs}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func parseNode(data []byte) (node, error) {
	var root node
	if err := xml.Unmarshal(data, &root); err != nil {
		return node{}, fmt.Errorf("parse nfo: %w", err)
	}
	root.trim()
	return root, nil
}

// trim drops the indentation whitespace of container elements.
func (n *node) trim() {
	if len(n.Nodes) > 0 && strings.TrimSpace(n.Text) == "" {
		n.Text = ""
	}
	for i := range n.Nodes {
		n.Nodes[i].trim()
	}
}

func (n *node) marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(n, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode nfo: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// child returns the index of the first child named tag, or -1.
func (n *node) child(tag string) int {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == tag {
			return i
		}
	}
	return -1
}

// text returns the trimmed text of the first child named tag.
func (n *node) text(tag string) (string, bool) {
	i := n.child(tag)
	if i < 0 {
		return "", false
	}
	return strings.TrimSpace(n.Nodes[i].Text), true
}

func (n *node) append(child node) {
	n.Nodes = append(n.Nodes, child)
}

// setText makes the first tag child hold value, adding it when missing.
func (n *node) setText(tag, value string, attrs ...xml.Attr) bool {
	i := n.child(tag)
	if i < 0 {
		n.append(newNode(tag, value, attrs...))
		return true
	}
	if n.Nodes[i].Text == value {
		return false
	}
	n.Nodes[i].Text = value
	return true
}

func (n *node) attrValue(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
