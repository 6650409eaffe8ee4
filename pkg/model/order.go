package model

import (
	"sort"

	"gopkg.in/yaml.v3"
)

// keyOrder records the document order of "properties" keys for a schema
// node and its nested nodes. JSON is a subset of YAML, so yaml.v3 nodes give
// us key order without a second JSON tokenizer.
type keyOrder struct {
	keys     []string
	children map[string]*keyOrder
	items    *keyOrder
}

func parseKeyOrder(raw []byte) *keyOrder {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return orderFromNode(doc.Content[0])
	}
	return orderFromNode(&doc)
}

func orderFromNode(node *yaml.Node) *keyOrder {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	out := &keyOrder{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "properties":
			if value.Kind != yaml.MappingNode {
				continue
			}
			for j := 0; j+1 < len(value.Content); j += 2 {
				name := value.Content[j].Value
				out.keys = append(out.keys, name)
				if child := orderFromNode(value.Content[j+1]); child != nil {
					if out.children == nil {
						out.children = make(map[string]*keyOrder)
					}
					out.children[name] = child
				}
			}
		case "items":
			out.items = orderFromNode(value)
		}
	}
	return out
}

func (o *keyOrder) child(name string) *keyOrder {
	if o == nil {
		return nil
	}
	return o.children[name]
}

// orderedNames arranges names using the UI order (with "*" standing for the
// remaining names) and falls back to document order, then lexical order for
// anything the document order does not know.
func orderedNames(names map[string]struct{}, doc *keyOrder, uiOrder []string) []string {
	base := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	if doc != nil {
		for _, key := range doc.keys {
			if _, ok := names[key]; ok {
				if _, dup := seen[key]; !dup {
					base = append(base, key)
					seen[key] = struct{}{}
				}
			}
		}
	}
	var rest []string
	for name := range names {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	base = append(base, rest...)

	if len(uiOrder) == 0 {
		return base
	}

	placed := make(map[string]struct{}, len(base))
	var head, tail []string
	wildcard := false
	for _, key := range uiOrder {
		if key == "*" {
			wildcard = true
			continue
		}
		if _, ok := names[key]; !ok {
			continue
		}
		if _, dup := placed[key]; dup {
			continue
		}
		placed[key] = struct{}{}
		if wildcard {
			tail = append(tail, key)
		} else {
			head = append(head, key)
		}
	}
	out := append([]string(nil), head...)
	for _, key := range base {
		if _, ok := placed[key]; !ok {
			out = append(out, key)
		}
	}
	return append(out, tail...)
}

