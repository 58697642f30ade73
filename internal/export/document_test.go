package export

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type DocumentSuite struct {
	suite.Suite
}

func TestDocumentSuite(t *testing.T) {
	suite.Run(t, new(DocumentSuite))
}

func (s *DocumentSuite) TestAddDomainPreservesOrder() {
	doc := NewDocument()
	doc.AddDomain("ars_log", "Download history")
	doc.AddDomain("loginguard_tfa", "Two-factor methods")
	doc.AddDomain("actionlog", "Actions")

	s.Require().Len(doc.Domains, 3)
	s.Equal("ars_log", doc.Domains[0].Name)
	s.Equal("loginguard_tfa", doc.Domains[1].Name)
	s.Equal("actionlog", doc.Domains[2].Name)
}

func (s *DocumentSuite) TestMergeAppendsInDonorOrder() {
	root := NewDocument()
	root.AddDomain("profile", "Account profile")

	donor := NewDocument()
	donor.AddDomain("ars_log", "Download history")
	donor.AddDomain("ars_dlidlabels", "Labels")

	root.Merge(donor)

	s.Require().Len(root.Domains, 3)
	s.Equal("profile", root.Domains[0].Name)
	s.Equal("ars_log", root.Domains[1].Name)
	s.Equal("ars_dlidlabels", root.Domains[2].Name)
}

func (s *DocumentSuite) TestMergeNeverDiscards() {
	root := NewDocument()
	root.AddDomain("dup", "first")

	donor := NewDocument()
	donor.AddDomain("dup", "second")

	root.Merge(donor)

	// Same-named domains are both kept; merge is append-only.
	s.Require().Len(root.Domains, 2)
	s.Equal("first", root.Domains[0].Description)
	s.Equal("second", root.Domains[1].Description)
}

func (s *DocumentSuite) TestMergeDeepCopies() {
	donor := NewDocument()
	dom := donor.AddDomain("ars_log", "Download history")
	dom.AddItem("1").AddColumn("filename", "release.zip")

	root := NewDocument()
	root.Merge(donor)

	// Mutating the donor after the merge must not leak into the receiver.
	dom.AddItem("2")
	dom.Items[0].Columns[0].Value = "tampered"

	s.Require().Len(root.Domains[0].Items, 1)
	s.Equal("release.zip", root.Domains[0].Items[0].Columns[0].Value)
}

func (s *DocumentSuite) TestMergeNilDonorIsNoop() {
	root := NewDocument()
	root.AddDomain("profile", "Account profile")
	root.Merge(nil)
	s.Len(root.Domains, 1)
}

func (s *DocumentSuite) TestAddColumnEscapesValue() {
	doc := NewDocument()
	item := doc.AddDomain("actionlog", "Actions").AddItem("7")
	item.AddColumn("action", `login <script>&"quoted"'`)

	s.Equal("login &lt;script&gt;&amp;&quot;quoted&quot;&#39;", item.Columns[0].Value)
}

func (s *DocumentSuite) TestItemWithoutID() {
	doc := NewDocument()
	dom := doc.AddDomain("profile", "Account profile")
	item := dom.AddItem("")
	item.AddColumn("username", "jdoe")

	s.Empty(dom.Items[0].ID)
	s.Equal("jdoe", dom.Items[0].Columns[0].Value)
}
