// Package ars owns the automated-release-system domain: per-user download
// logs and the download identity labels attached to them.
package ars

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"datacustody/internal/domain"
	"datacustody/internal/export"
)

// LogEntry is one recorded download.
type LogEntry struct {
	ID           int64
	UserID       int64
	Filename     string
	Version      string
	DownloadedOn time.Time
}

// DownloadID is a watermark label assigned to a user's downloads.
type DownloadID struct {
	ID     int64
	UserID int64
	Label  string
}

type Store interface {
	ListLogsByUser(ctx context.Context, userID int64) ([]LogEntry, error)
	ListDownloadIDsByUser(ctx context.Context, userID int64) ([]DownloadID, error)
	DeleteLogsByUser(ctx context.Context, userID int64) ([]int64, error)
	DeleteDownloadIDsByUser(ctx context.Context, userID int64) ([]int64, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Name() string { return "ars" }

func (h *Handler) Export(ctx context.Context, userID int64) (*export.Document, error) {
	logs, err := h.store.ListLogsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list download logs: %w", err)
	}
	labels, err := h.store.ListDownloadIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list download ids: %w", err)
	}

	doc := export.NewDocument()

	logDom := doc.AddDomain("ars_log", "Download history")
	for _, l := range logs {
		logDom.AddItem(strconv.FormatInt(l.ID, 10)).
			AddColumn("filename", l.Filename).
			AddColumn("version", l.Version).
			AddColumn("downloaded_on", l.DownloadedOn.UTC().Format(time.RFC3339))
	}

	idDom := doc.AddDomain("ars_dlidlabels", "Download identity labels")
	for _, d := range labels {
		idDom.AddItem(strconv.FormatInt(d.ID, 10)).
			AddColumn("label", d.Label)
	}

	return doc, nil
}

func (h *Handler) Delete(ctx context.Context, userID int64, _ domain.WipeType) (domain.DeletionReport, error) {
	logIDs, err := h.store.DeleteLogsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("delete download logs: %w", err)
	}
	labelIDs, err := h.store.DeleteDownloadIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("delete download ids: %w", err)
	}

	report := domain.NewDeletionReport()
	for _, id := range logIDs {
		report.Add("log", strconv.FormatInt(id, 10))
	}
	for _, id := range labelIDs {
		report.Add("dlid", strconv.FormatInt(id, 10))
	}
	return report, nil
}

func (h *Handler) Bulletpoints(ctx context.Context, userID int64, _ domain.WipeType) ([]string, error) {
	logs, err := h.store.ListLogsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count download logs: %w", err)
	}
	labels, err := h.store.ListDownloadIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count download ids: %w", err)
	}

	var points []string
	if len(logs) > 0 {
		points = append(points, fmt.Sprintf("Erase %d download log record(s)", len(logs)))
	}
	if len(labels) > 0 {
		points = append(points, fmt.Sprintf("Erase %d download identity label(s)", len(labels)))
	}
	return points, nil
}
