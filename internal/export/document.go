// Package export defines the canonical document tree produced by data-domain
// handlers. The same model backs the user-facing data export and the
// per-domain inputs to an erasure run; it is built by one writer, merged in a
// deterministic order, serialized once, and then discarded.
package export

import "strings"

// Document is the tree root. It holds zero or more Domain nodes in the order
// they were attached.
type Document struct {
	Domains []*Domain
}

// Domain groups everything one data-owning feature knows about a user.
type Domain struct {
	// Name is the stable machine identifier, e.g. "loginguard_tfa".
	Name string
	// Description is human text shown alongside the exported data.
	Description string
	Items       []*Item
}

// Item is one exported record. ID is the domain-local identifier of the
// record, empty when the domain has no per-record identity.
type Item struct {
	ID      string
	Columns []Column
}

// Column is a single name/value pair of an item. Values are stored escaped.
type Column struct {
	Name  string
	Value string
}

// NewDocument returns an empty document root.
func NewDocument() *Document {
	return &Document{}
}

// AddDomain appends a new domain node and returns it for population.
func (d *Document) AddDomain(name, description string) *Domain {
	dom := &Domain{Name: name, Description: description}
	d.Domains = append(d.Domains, dom)
	return dom
}

// Merge adopts all of the donor's top-level domain children, appending them
// after the receiver's existing children in the donor's order. Nothing is
// ever discarded or reordered. The donor's nodes are deep-copied so the two
// trees never share writers.
func (d *Document) Merge(donor *Document) {
	if donor == nil {
		return
	}
	for _, dom := range donor.Domains {
		d.Domains = append(d.Domains, dom.clone())
	}
}

func (dom *Domain) clone() *Domain {
	out := &Domain{Name: dom.Name, Description: dom.Description}
	for _, item := range dom.Items {
		ci := &Item{ID: item.ID}
		ci.Columns = append(ci.Columns, item.Columns...)
		out.Items = append(out.Items, ci)
	}
	return out
}

// AddItem appends a new item node and returns it for population.
func (dom *Domain) AddItem(id string) *Item {
	item := &Item{ID: id}
	dom.Items = append(dom.Items, item)
	return item
}

// AddColumn attaches a name/value pair, escaping the value for safe
// serialization. Escaping happens here, at attach time, so the serializer
// can emit values verbatim without double-escaping.
func (i *Item) AddColumn(name, value string) *Item {
	i.Columns = append(i.Columns, Column{Name: name, Value: Escape(value)})
	return i
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape replaces XML/HTML-special characters in a value.
func Escape(s string) string {
	return escaper.Replace(s)
}
