package ars

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"datacustody/internal/domain"
)

type HandlerSuite struct {
	suite.Suite
	store   *InMemoryStore
	handler *Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	downloaded := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s.store = NewInMemoryStore(
		[]LogEntry{
			{ID: 1, UserID: 42, Filename: "release-1.0.zip", Version: "1.0", DownloadedOn: downloaded},
			{ID: 2, UserID: 42, Filename: "release-1.1.zip", Version: "1.1", DownloadedOn: downloaded.Add(24 * time.Hour)},
			{ID: 3, UserID: 42, Filename: "release-2.0.zip", Version: "2.0", DownloadedOn: downloaded.Add(48 * time.Hour)},
			{ID: 4, UserID: 7, Filename: "release-1.0.zip", Version: "1.0", DownloadedOn: downloaded},
		},
		[]DownloadID{
			{ID: 9, UserID: 42, Label: "JD-2025"},
		},
	)
	s.handler = NewHandler(s.store)
}

func (s *HandlerSuite) TestExportBuildsBothDomains() {
	doc, err := s.handler.Export(context.Background(), 42)
	s.Require().NoError(err)

	s.Require().Len(doc.Domains, 2)
	logs := doc.Domains[0]
	s.Equal("ars_log", logs.Name)
	s.Require().Len(logs.Items, 3)
	s.Equal("1", logs.Items[0].ID)
	s.Equal("filename", logs.Items[0].Columns[0].Name)
	s.Equal("release-1.0.zip", logs.Items[0].Columns[0].Value)

	labels := doc.Domains[1]
	s.Equal("ars_dlidlabels", labels.Name)
	s.Require().Len(labels.Items, 1)
	s.Equal("JD-2025", labels.Items[0].Columns[0].Value)
}

func (s *HandlerSuite) TestExportUserWithNoData() {
	doc, err := s.handler.Export(context.Background(), 999)
	s.Require().NoError(err)

	// Domains are present but empty.
	s.Require().Len(doc.Domains, 2)
	s.Empty(doc.Domains[0].Items)
	s.Empty(doc.Domains[1].Items)
}

func (s *HandlerSuite) TestDeleteReportsIdentifiersByLabel() {
	report, err := s.handler.Delete(context.Background(), 42, domain.WipeTypeUser)
	s.Require().NoError(err)

	s.Equal([]string{"1", "2", "3"}, report["log"])
	s.Equal([]string{"9"}, report["dlid"])

	// Other users' rows survive.
	logs, err := s.store.ListLogsByUser(context.Background(), 7)
	s.Require().NoError(err)
	s.Len(logs, 1)
}

func (s *HandlerSuite) TestDeleteUserWithNoDataReturnsEmptyReport() {
	report, err := s.handler.Delete(context.Background(), 999, domain.WipeTypeUser)
	s.Require().NoError(err)
	s.True(report.Empty())
}

func (s *HandlerSuite) TestBulletpoints() {
	lines, err := s.handler.Bulletpoints(context.Background(), 42, domain.WipeTypeUser)
	s.Require().NoError(err)
	s.Equal([]string{
		"Erase 3 download log record(s)",
		"Erase 1 download identity label(s)",
	}, lines)

	lines, err = s.handler.Bulletpoints(context.Background(), 999, domain.WipeTypeUser)
	s.Require().NoError(err)
	s.Empty(lines)
}
