package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"datacustody/internal/domain"
	"datacustody/internal/export"
)

// fakeHandler is a scriptable domain handler for dispatcher tests.
type fakeHandler struct {
	name    string
	doc     *export.Document
	report  domain.DeletionReport
	lines   []string
	err     error
	panics  bool
	deletes int
}

func (f *fakeHandler) Name() string { return f.name }

func (f *fakeHandler) Export(context.Context, int64) (*export.Document, error) {
	if f.panics {
		panic("handler exploded")
	}
	return f.doc, f.err
}

func (f *fakeHandler) Delete(context.Context, int64, domain.WipeType) (domain.DeletionReport, error) {
	if f.panics {
		panic("handler exploded")
	}
	f.deletes++
	return f.report, f.err
}

func (f *fakeHandler) Bulletpoints(context.Context, int64, domain.WipeType) ([]string, error) {
	if f.panics {
		panic("handler exploded")
	}
	return f.lines, f.err
}

func docWith(name string) *export.Document {
	doc := export.NewDocument()
	doc.AddDomain(name, "test domain")
	return doc
}

type DispatcherSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.logger = slog.New(slog.DiscardHandler)
}

func (s *DispatcherSuite) dispatcher(opts []Option, handlers ...Handler) *Dispatcher {
	registry, err := NewRegistry(handlers...)
	s.Require().NoError(err)
	return New(registry, s.logger, opts...)
}

func (s *DispatcherSuite) TestExportAllMergesInRegistryOrder() {
	d := s.dispatcher(nil,
		&fakeHandler{name: "profile", doc: docWith("users")},
		&fakeHandler{name: "ars", doc: docWith("ars_log")},
		&fakeHandler{name: "loginguard", doc: docWith("loginguard_tfa")},
	)

	doc, failures := d.ExportAll(context.Background(), 42)

	s.Empty(failures)
	s.Require().Len(doc.Domains, 3)
	s.Equal("users", doc.Domains[0].Name)
	s.Equal("ars_log", doc.Domains[1].Name)
	s.Equal("loginguard_tfa", doc.Domains[2].Name)
}

func (s *DispatcherSuite) TestExportAllParallelKeepsOrder() {
	d := s.dispatcher([]Option{WithParallel()},
		&fakeHandler{name: "profile", doc: docWith("users")},
		&fakeHandler{name: "ars", doc: docWith("ars_log")},
		&fakeHandler{name: "loginguard", doc: docWith("loginguard_tfa")},
	)

	for i := 0; i < 20; i++ {
		doc, failures := d.ExportAll(context.Background(), 42)
		s.Empty(failures)
		s.Require().Len(doc.Domains, 3)
		s.Equal("users", doc.Domains[0].Name)
		s.Equal("ars_log", doc.Domains[1].Name)
		s.Equal("loginguard_tfa", doc.Domains[2].Name)
	}
}

func (s *DispatcherSuite) TestFailingDomainDoesNotStopOthers() {
	boom := errors.New("store down")
	healthy := &fakeHandler{name: "ars", report: domain.DeletionReport{"log": {"1", "2"}}}
	d := s.dispatcher(nil,
		&fakeHandler{name: "profile", err: boom},
		healthy,
	)

	reports, failures := d.DeleteAll(context.Background(), 42, domain.WipeTypeUser)

	s.Equal(1, healthy.deletes)
	s.Require().Len(failures, 1)
	s.Equal("profile", failures[0].Domain)
	s.ErrorIs(failures[0].Err, boom)

	s.Len(reports, 1)
	s.Contains(reports, "ars")
	s.NotContains(reports, "profile")
}

func (s *DispatcherSuite) TestPanickingDomainIsIsolated() {
	healthy := &fakeHandler{name: "ars", report: domain.DeletionReport{"log": {"1"}}}
	d := s.dispatcher(nil,
		&fakeHandler{name: "profile", panics: true},
		healthy,
	)

	reports, failures := d.DeleteAll(context.Background(), 42, domain.WipeTypeUser)

	s.Equal(1, healthy.deletes)
	s.Require().Len(failures, 1)
	s.Equal("profile", failures[0].Domain)
	s.Contains(failures[0].Err.Error(), "panicked")
	s.Contains(reports, "ars")
}

func (s *DispatcherSuite) TestDeleteAllOmitsEmptyReports() {
	d := s.dispatcher(nil,
		&fakeHandler{name: "profile", report: domain.NewDeletionReport()},
		&fakeHandler{name: "loginguard", report: nil},
		&fakeHandler{name: "ars", report: domain.DeletionReport{"dlid": {"9"}}},
	)

	reports, failures := d.DeleteAll(context.Background(), 42, domain.WipeTypeAdmin)

	s.Empty(failures)
	s.Len(reports, 1)
	s.Contains(reports, "ars")
}

func (s *DispatcherSuite) TestBulletpointsConcatenateInOrder() {
	d := s.dispatcher(nil,
		&fakeHandler{name: "profile", lines: []string{"anonymize account"}},
		&fakeHandler{name: "ars", lines: []string{"erase 3 downloads", "erase 1 label"}},
	)

	lines, failures := d.BulletpointsAll(context.Background(), 42, domain.WipeTypeUser)

	s.Empty(failures)
	s.Equal([]string{"anonymize account", "erase 3 downloads", "erase 1 label"}, lines)
}

func (s *DispatcherSuite) TestRegistryRejectsDuplicateNames() {
	_, err := NewRegistry(
		&fakeHandler{name: "ars"},
		&fakeHandler{name: "ars"},
	)
	s.Require().Error(err)
	s.Contains(err.Error(), "ars")
}
