package export

import (
	"bytes"
	"fmt"
)

// columnAliases maps internal store column names to the canonical names used
// in the serialized output. Serialization consults this table explicitly;
// anything absent passes through unchanged.
var columnAliases = map[string]string{
	"created_on":    "created",
	"modified_on":   "modified",
	"requester_ip":  "ip",
	"user_id":       "userid",
	"last_used_on":  "lastused",
	"register_date": "registered",
}

// Serializer renders a Document as the canonical nested element structure:
// root → domain[name,description] → item[id?] → column[name]. Output is
// byte-stable for a given tree: element order follows tree order and no map
// iteration reaches the wire.
type Serializer struct {
	aliases map[string]string
}

// NewSerializer returns a serializer using the default column alias table.
func NewSerializer() *Serializer {
	return &Serializer{aliases: columnAliases}
}

// WithAliases overrides the alias table; intended for tests and callers that
// export to systems expecting different canonical names.
func (s *Serializer) WithAliases(aliases map[string]string) *Serializer {
	return &Serializer{aliases: aliases}
}

// Serialize writes the document tree as XML. Column values were escaped when
// attached and are emitted verbatim; names and attributes are escaped here
// because they may carry handler-supplied text.
func (s *Serializer) Serialize(doc *Document) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString("<export>\n")
	for _, dom := range doc.Domains {
		fmt.Fprintf(&buf, "  <domain name=%q description=%q>\n", Escape(dom.Name), Escape(dom.Description))
		for _, item := range dom.Items {
			if item.ID != "" {
				fmt.Fprintf(&buf, "    <item id=%q>\n", Escape(item.ID))
			} else {
				buf.WriteString("    <item>\n")
			}
			for _, col := range item.Columns {
				name := col.Name
				if alias, ok := s.aliases[name]; ok {
					name = alias
				}
				fmt.Fprintf(&buf, "      <column name=%q>%s</column>\n", Escape(name), col.Value)
			}
			buf.WriteString("    </item>\n")
		}
		buf.WriteString("  </domain>\n")
	}
	buf.WriteString("</export>\n")
	return buf.Bytes()
}
