package doctree

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parse builds a document tree from YAML text, keeping comments, key order,
// and block/flow styles. Empty input yields an empty block mapping.
func Parse(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewMapping(StyleBlock), nil
	}

	root, err := fromYAML(doc.Content[0])
	if err != nil {
		return nil, err
	}

	// Comments attached to the document itself stay with the root
	if doc.HeadComment != "" && root.HeadComment == "" {
		root.HeadComment = doc.HeadComment
	}
	if doc.FootComment != "" && root.FootComment == "" {
		root.FootComment = doc.FootComment
	}

	return root, nil
}

// Marshal serializes the tree back to YAML text with two-space indentation.
func (n *Node) Marshal() ([]byte, error) {
	ynode := toYAML(n)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ynode); err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}

	plain := make(map[string]struct{})
	collectPlainSeqScalars(n, plain)
	return restoreFlowPlainScalars(buf.Bytes(), plain), nil
}

// collectPlainSeqScalars records the values of plain-style scalars that sit
// inside sequences. The encoder single-quotes them on output when the
// sequence renders in flow style; Marshal uses the set to undo that.
func collectPlainSeqScalars(n *Node, set map[string]struct{}) {
	if n == nil {
		return
	}
	switch n.Kind {
	case Mapping:
		for _, e := range n.entries {
			collectPlainSeqScalars(e.Value, set)
		}
	case Sequence:
		for _, item := range n.items {
			if item.Kind == Scalar && item.scalarStyle == 0 {
				set[item.Value] = struct{}{}
			}
			collectPlainSeqScalars(item, set)
		}
	}
}

// restoreFlowPlainScalars rewrites encoder output so scalars the tree holds
// in plain style come back out plain inside flow sequences. yaml.v3 quotes
// any flow-context scalar containing a colon, which would reformat every
// "endpoints: [a:e1-1, b:e1-2]" line on save even though the parser accepts
// the plain form.
func restoreFlowPlainScalars(data []byte, plain map[string]struct{}) []byte {
	if len(plain) == 0 || bytes.IndexByte(data, '\'') < 0 {
		return data
	}

	var out bytes.Buffer
	out.Grow(len(data))
	brackets, braces := 0, 0

	for i := 0; i < len(data); {
		switch c := data[i]; c {
		case '#':
			if i == 0 || data[i-1] == ' ' || data[i-1] == '\t' || data[i-1] == '\n' {
				j := i
				for j < len(data) && data[j] != '\n' {
					j++
				}
				out.Write(data[i:j])
				i = j
				continue
			}
			out.WriteByte(c)
			i++
		case '"':
			j := i + 1
			for j < len(data) && data[j] != '"' {
				if data[j] == '\\' {
					j++
				}
				j++
			}
			if j < len(data) {
				j++
			}
			out.Write(data[i:j])
			i = j
		case '\'':
			j := i + 1
			for j < len(data) {
				if data[j] != '\'' {
					j++
					continue
				}
				if j+1 < len(data) && data[j+1] == '\'' {
					j += 2
					continue
				}
				break
			}
			if j >= len(data) {
				out.Write(data[i:])
				return out.Bytes()
			}
			inner := data[i+1 : j]
			if _, ok := plain[string(inner)]; ok && brackets > 0 && braces == 0 && plainFlowSafe(inner) {
				out.Write(inner)
			} else {
				out.Write(data[i : j+1])
			}
			i = j + 1
		case '[':
			brackets++
			out.WriteByte(c)
			i++
		case ']':
			if brackets > 0 {
				brackets--
			}
			out.WriteByte(c)
			i++
		case '{':
			braces++
			out.WriteByte(c)
			i++
		case '}':
			if braces > 0 {
				braces--
			}
			out.WriteByte(c)
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.Bytes()
}

// plainFlowSafe reports whether a value parses back as the same plain scalar
// when written unquoted in a flow sequence. Only colon-bearing identifier
// strings qualify; everything else the encoder quoted for a reason.
func plainFlowSafe(s []byte) bool {
	if len(s) == 0 || s[0] == ':' || s[len(s)-1] == ':' {
		return false
	}
	colon := false
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.' || c == '/':
		case c == ':':
			colon = true
		default:
			return false
		}
	}
	return colon
}

func fromYAML(y *yaml.Node) (*Node, error) {
	switch y.Kind {
	case yaml.AliasNode:
		// Aliases are expanded; the anchor itself is not preserved on output
		if y.Alias == nil {
			return nil, fmt.Errorf("alias node with no target at line %d", y.Line)
		}
		return fromYAML(y.Alias)

	case yaml.MappingNode:
		n := NewMapping(styleOf(y))
		n.HeadComment = y.HeadComment
		n.LineComment = y.LineComment
		n.FootComment = y.FootComment
		for i := 0; i+1 < len(y.Content); i += 2 {
			keyNode, valNode := y.Content[i], y.Content[i+1]
			value, err := fromYAML(valNode)
			if err != nil {
				return nil, err
			}
			n.entries = append(n.entries, &entry{
				Key:         keyNode.Value,
				Value:       value,
				HeadComment: keyNode.HeadComment,
				LineComment: keyNode.LineComment,
				FootComment: keyNode.FootComment,
			})
		}
		return n, nil

	case yaml.SequenceNode:
		n := NewSequence(styleOf(y))
		n.HeadComment = y.HeadComment
		n.LineComment = y.LineComment
		n.FootComment = y.FootComment
		for _, item := range y.Content {
			child, err := fromYAML(item)
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, child)
		}
		return n, nil

	case yaml.ScalarNode:
		return &Node{
			Kind:        Scalar,
			Value:       y.Value,
			tag:         y.Tag,
			scalarStyle: uint32(y.Style),
			HeadComment: y.HeadComment,
			LineComment: y.LineComment,
			FootComment: y.FootComment,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d at line %d", y.Kind, y.Line)
	}
}

func toYAML(n *Node) *yaml.Node {
	switch n.Kind {
	case Mapping:
		y := &yaml.Node{
			Kind:        yaml.MappingNode,
			Tag:         "!!map",
			Style:       yamlStyle(n.Style),
			HeadComment: n.HeadComment,
			LineComment: n.LineComment,
			FootComment: n.FootComment,
		}
		for _, e := range n.entries {
			key := &yaml.Node{
				Kind:        yaml.ScalarNode,
				Tag:         "!!str",
				Value:       e.Key,
				HeadComment: e.HeadComment,
				LineComment: e.LineComment,
				FootComment: e.FootComment,
			}
			y.Content = append(y.Content, key, toYAML(e.Value))
		}
		return y

	case Sequence:
		y := &yaml.Node{
			Kind:        yaml.SequenceNode,
			Tag:         "!!seq",
			Style:       yamlStyle(n.Style),
			HeadComment: n.HeadComment,
			LineComment: n.LineComment,
			FootComment: n.FootComment,
		}
		for _, item := range n.items {
			y.Content = append(y.Content, toYAML(item))
		}
		return y

	default:
		tag := n.tag
		if tag == "" {
			tag = "!!str"
		}
		return &yaml.Node{
			Kind:        yaml.ScalarNode,
			Tag:         tag,
			Value:       n.Value,
			Style:       yaml.Style(n.scalarStyle),
			HeadComment: n.HeadComment,
			LineComment: n.LineComment,
			FootComment: n.FootComment,
		}
	}
}

func styleOf(y *yaml.Node) Style {
	if y.Style&yaml.FlowStyle != 0 {
		return StyleFlow
	}
	return StyleBlock
}

func yamlStyle(s Style) yaml.Style {
	if s == StyleFlow {
		return yaml.FlowStyle
	}
	return 0
}
