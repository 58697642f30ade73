package wipe

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"datacustody/internal/dispatch"
	"datacustody/internal/domain"
	"datacustody/internal/export"
	"datacustody/internal/user"
	"datacustody/pkg/requestcontext"
)

const confirmPhrase = "DELETE MY ACCOUNT AND ALL MY DATA"

// stubHandler is a scriptable domain handler.
type stubHandler struct {
	name   string
	report domain.DeletionReport
	lines  []string
	err    error
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) Export(context.Context, int64) (*export.Document, error) {
	return export.NewDocument(), h.err
}

func (h *stubHandler) Delete(context.Context, int64, domain.WipeType) (domain.DeletionReport, error) {
	return h.report, h.err
}

func (h *stubHandler) Bulletpoints(context.Context, int64, domain.WipeType) ([]string, error) {
	return h.lines, h.err
}

// failingStore rejects every write.
type failingStore struct{}

func (failingStore) Record(context.Context, *AuditRecord) error { return errors.New("disk full") }
func (failingStore) ListByUser(context.Context, int64) ([]*AuditRecord, error) {
	return nil, errors.New("disk full")
}

// recordingSink captures every event it receives.
type recordingSink struct {
	events []SavedEvent
}

func (s *recordingSink) Name() string { return "recording" }
func (s *recordingSink) RecordSaved(_ context.Context, ev SavedEvent) error {
	s.events = append(s.events, ev)
	return nil
}

// fixedEligibility answers the lifecycle re-check with a constant.
type fixedEligibility struct {
	eligible bool
	err      error
}

func (f fixedEligibility) Eligible(context.Context, int64) (bool, error) {
	return f.eligible, f.err
}

type ServiceSuite struct {
	suite.Suite
	logger *slog.Logger
	users  *user.InMemoryStore
	store  *InMemoryStore
	sink   *recordingSink
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.logger = slog.New(slog.DiscardHandler)
	s.users = user.NewInMemoryStore(domain.User{
		ID:           42,
		Username:     "jdoe",
		Name:         "Jane Doe",
		Email:        "jane@example.com",
		RegisterDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.store = NewInMemoryStore()
	s.sink = &recordingSink{}
}

func (s *ServiceSuite) service(store Store, opts []Option, handlers ...dispatch.Handler) *Service {
	registry, err := dispatch.NewRegistry(handlers...)
	s.Require().NoError(err)
	dispatcher := dispatch.New(registry, s.logger)
	notifier := NewNotifier(s.logger, nil, s.sink)
	return NewService(dispatcher, store, notifier, s.users, NewMemoryLocker(), confirmPhrase, s.logger, opts...)
}

func (s *ServiceSuite) TestSelfServiceRequiresConfirmationPhrase() {
	svc := s.service(s.store, nil, &stubHandler{name: "ars", report: domain.DeletionReport{"log": {"1"}}})

	_, err := svc.Execute(context.Background(), Request{
		UserID:        42,
		Type:          domain.WipeTypeUser,
		ConfirmPhrase: "delete my account",
	})
	s.Require().ErrorIs(err, ErrConfirmationMismatch)

	// Nothing was persisted and nothing was notified.
	records, listErr := s.store.ListByUser(context.Background(), 42)
	s.Require().NoError(listErr)
	s.Empty(records)
	s.Empty(s.sink.events)
}

func (s *ServiceSuite) TestConfirmationPhraseToleratesSurroundingWhitespace() {
	svc := s.service(s.store, nil, &stubHandler{name: "ars", report: domain.DeletionReport{"log": {"1"}}})

	rec, err := svc.Execute(context.Background(), Request{
		UserID:        42,
		Type:          domain.WipeTypeUser,
		ConfirmPhrase: "  " + confirmPhrase + "\n",
	})
	s.Require().NoError(err)
	s.NotNil(rec)
}

func (s *ServiceSuite) TestAdminWipeSkipsConfirmation() {
	svc := s.service(s.store, nil, &stubHandler{name: "ars", report: domain.DeletionReport{"log": {"1"}}})

	rec, err := svc.Execute(context.Background(), Request{UserID: 42, Type: domain.WipeTypeAdmin})
	s.Require().NoError(err)
	s.Equal(domain.WipeTypeAdmin, rec.Type)
}

func (s *ServiceSuite) TestInvalidTypeRejected() {
	svc := s.service(s.store, nil, &stubHandler{name: "ars"})

	_, err := svc.Execute(context.Background(), Request{UserID: 42, Type: domain.WipeType("bogus")})
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid wipe type")
}

func (s *ServiceSuite) TestFailedDomainAbsentFromAuditItems() {
	svc := s.service(s.store, nil,
		&stubHandler{name: "profile", err: errors.New("store down")},
		&stubHandler{name: "ars", report: domain.DeletionReport{"log": {"1", "2", "3"}, "dlid": {"7"}}},
	)

	rec, err := svc.Execute(context.Background(), Request{UserID: 42, Type: domain.WipeTypeAdmin})
	s.Require().NoError(err)

	// The failed domain is missing from Items; the healthy one is recorded.
	s.NotContains(rec.Items, "profile")
	s.Require().Contains(rec.Items, "ars")
	s.Equal([]string{"1", "2", "3"}, rec.Items["ars"]["log"])
	s.Equal([]string{"7"}, rec.Items["ars"]["dlid"])
}

func (s *ServiceSuite) TestAuditWrittenEvenWhenEveryDomainFails() {
	svc := s.service(s.store, nil,
		&stubHandler{name: "profile", err: errors.New("down")},
		&stubHandler{name: "ars", err: errors.New("down too")},
	)

	rec, err := svc.Execute(context.Background(), Request{UserID: 42, Type: domain.WipeTypeAdmin})
	s.Require().NoError(err)
	s.Empty(rec.Items)

	records, err := s.store.ListByUser(context.Background(), 42)
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *ServiceSuite) TestAuditPersistenceFailureIsFatal() {
	svc := s.service(failingStore{}, nil, &stubHandler{name: "ars", report: domain.DeletionReport{"log": {"1"}}})

	_, err := svc.Execute(context.Background(), Request{UserID: 42, Type: domain.WipeTypeAdmin})
	s.Require().Error(err)
	s.Contains(err.Error(), "persist wipe audit")
	s.Empty(s.sink.events)
}

func (s *ServiceSuite) TestNotificationCarriesPreDeletionSnapshot() {
	svc := s.service(s.store, nil, &stubHandler{
		name:   "ars",
		report: domain.DeletionReport{"log": {"1"}},
		lines:  []string{"Erase 1 download log record(s)"},
	})

	_, err := svc.Execute(context.Background(), Request{UserID: 42, Type: domain.WipeTypeAdmin})
	s.Require().NoError(err)

	s.Require().Len(s.sink.events, 1)
	ev := s.sink.events[0]
	s.Equal("jane@example.com", ev.User.Email)
	s.Equal([]string{"Erase 1 download log record(s)"}, ev.Bulletpoints)
	s.False(ev.Replaying)
}

func (s *ServiceSuite) TestReplaySuppressesExternalEffectsButPersists() {
	svc := s.service(s.store, nil, &stubHandler{name: "ars", report: domain.DeletionReport{"log": {"1"}}})

	ctx := requestcontext.WithReplay(context.Background(), true)
	_, err := svc.Execute(ctx, Request{UserID: 42, Type: domain.WipeTypeAdmin})
	s.Require().NoError(err)

	// The event still reaches sinks, flagged so they individually no-op.
	s.Require().Len(s.sink.events, 1)
	s.True(s.sink.events[0].Replaying)

	records, err := s.store.ListByUser(context.Background(), 42)
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *ServiceSuite) TestLifecycleRecheckBlocksActiveUser() {
	svc := s.service(s.store, []Option{WithEligibilityChecker(fixedEligibility{eligible: false})},
		&stubHandler{name: "ars", report: domain.DeletionReport{"log": {"1"}}})

	_, err := svc.Execute(context.Background(), Request{UserID: 42, Type: domain.WipeTypeLifecycle})
	s.Require().ErrorIs(err, ErrNotEligible)

	records, listErr := s.store.ListByUser(context.Background(), 42)
	s.Require().NoError(listErr)
	s.Empty(records)
}

func (s *ServiceSuite) TestLifecycleRecheckAllowsEligibleUser() {
	svc := s.service(s.store, []Option{WithEligibilityChecker(fixedEligibility{eligible: true})},
		&stubHandler{name: "ars", report: domain.DeletionReport{"log": {"1"}}})

	rec, err := svc.Execute(context.Background(), Request{UserID: 42, Type: domain.WipeTypeLifecycle})
	s.Require().NoError(err)
	s.Equal(domain.WipeTypeLifecycle, rec.Type)
}

func (s *ServiceSuite) TestConcurrentWipeRejected() {
	locker := NewMemoryLocker()
	release, err := locker.Acquire(context.Background(), 42)
	s.Require().NoError(err)
	defer release()

	registry, err := dispatch.NewRegistry(&stubHandler{name: "ars"})
	s.Require().NoError(err)
	svc := NewService(
		dispatch.New(registry, s.logger),
		s.store,
		NewNotifier(s.logger, nil),
		s.users,
		locker,
		confirmPhrase,
		s.logger,
	)

	_, err = svc.Execute(context.Background(), Request{UserID: 42, Type: domain.WipeTypeAdmin})
	s.Require().ErrorIs(err, ErrWipeInProgress)
}

func (s *ServiceSuite) TestActorAndTimeTakenFromContext() {
	svc := s.service(s.store, nil, &stubHandler{name: "ars", report: domain.DeletionReport{"log": {"1"}}})

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithActorID(context.Background(), 7)
	ctx = requestcontext.WithTime(ctx, now)
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", "cli")

	rec, err := svc.Execute(ctx, Request{UserID: 42, Type: domain.WipeTypeAdmin})
	s.Require().NoError(err)
	s.Equal(int64(7), rec.CreatedBy)
	s.Equal(now, rec.CreatedOn)
	s.Equal("203.0.113.9", rec.RequesterIP)
}

func (s *ServiceSuite) TestActorDefaultsToSubjectUser() {
	svc := s.service(s.store, nil, &stubHandler{name: "ars", report: domain.DeletionReport{"log": {"1"}}})

	rec, err := svc.Execute(context.Background(), Request{
		UserID:        42,
		Type:          domain.WipeTypeUser,
		ConfirmPhrase: confirmPhrase,
	})
	s.Require().NoError(err)
	s.Equal(int64(42), rec.CreatedBy)
}

func (s *ServiceSuite) TestPreviewUnknownUser() {
	svc := s.service(s.store, nil, &stubHandler{name: "ars", lines: []string{"x"}})

	_, err := svc.Preview(context.Background(), 999, domain.WipeTypeUser)
	s.Require().Error(err)
}

func (s *ServiceSuite) TestPreviewConcatenatesLines() {
	svc := s.service(s.store, nil,
		&stubHandler{name: "profile", lines: []string{"anonymize account"}},
		&stubHandler{name: "ars", lines: []string{"erase downloads"}},
	)

	lines, err := svc.Preview(context.Background(), 42, domain.WipeTypeUser)
	s.Require().NoError(err)
	s.Equal([]string{"anonymize account", "erase downloads"}, lines)
}
