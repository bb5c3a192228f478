package schema

import "fmt"

// Kind identifies the shape a Node describes
type Kind int

const (
	// KindObject is a mapping with a fixed, ordered set of properties
	KindObject Kind = iota
	// KindArray is a sequence of elements sharing one item schema
	KindArray
	// KindString is a leaf holding free text
	KindString
	// KindNumber is a leaf holding a numeric value
	KindNumber
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Property is one named field of an object node. Property order is
// significant: it defines the key order of normalized output.
type Property struct {
	Name   string
	Schema *Node
}

// Node describes the expected shape of a document at one position.
// Nodes are built once at startup and shared read-only; nothing in this
// package or its callers mutates a Node after construction.
type Node struct {
	Kind        Kind
	Description string
	Properties  []Property // object nodes only
	Items       *Node      // array nodes only
}

// Object creates an object node with the given properties, in order
func Object(props ...Property) *Node {
	return &Node{Kind: KindObject, Properties: props}
}

// Prop pairs a field name with its schema
func Prop(name string, n *Node) Property {
	return Property{Name: name, Schema: n}
}

// Array creates an array node whose elements follow items
func Array(items *Node) *Node {
	return &Node{Kind: KindArray, Items: items}
}

// String creates a text leaf node
func String(description string) *Node {
	return &Node{Kind: KindString, Description: description}
}

// Number creates a numeric leaf node
func Number(description string) *Node {
	return &Node{Kind: KindNumber, Description: description}
}

// Leaf reports whether the node is a scalar leaf (neither object nor array)
func (n *Node) Leaf() bool {
	return n.Kind != KindObject && n.Kind != KindArray
}

// Property returns the child schema for a named object property
func (n *Node) Property(name string) (*Node, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// Validate checks the structural invariants of the whole tree: object
// nodes must declare at least one property, array nodes exactly one item
// schema, and leaves neither. A failure here is a configuration error;
// normalization never validates.
func (n *Node) Validate() error {
	return n.validate("$")
}

func (n *Node) validate(path string) error {
	if n == nil {
		return fmt.Errorf("%s: nil schema node", path)
	}
	switch n.Kind {
	case KindObject:
		if len(n.Properties) == 0 {
			return fmt.Errorf("%s: object node has no properties", path)
		}
		seen := make(map[string]bool, len(n.Properties))
		for _, p := range n.Properties {
			if p.Name == "" {
				return fmt.Errorf("%s: object node has an unnamed property", path)
			}
			if seen[p.Name] {
				return fmt.Errorf("%s: duplicate property %q", path, p.Name)
			}
			seen[p.Name] = true
			if err := p.Schema.validate(path + "." + p.Name); err != nil {
				return err
			}
		}
		if n.Items != nil {
			return fmt.Errorf("%s: object node must not have an item schema", path)
		}
	case KindArray:
		if n.Items == nil {
			return fmt.Errorf("%s: array node has no item schema", path)
		}
		if len(n.Properties) > 0 {
			return fmt.Errorf("%s: array node must not have properties", path)
		}
		if err := n.Items.validate(path + "[]"); err != nil {
			return err
		}
	default:
		if len(n.Properties) > 0 || n.Items != nil {
			return fmt.Errorf("%s: leaf node must not have children", path)
		}
	}
	return nil
}
