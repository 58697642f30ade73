package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"datacustody/internal/dispatch"
	"datacustody/internal/domain"
	"datacustody/internal/export"
	"datacustody/internal/wipe"
	"datacustody/pkg/platform/middleware/auth"
	"datacustody/pkg/platform/sentinel"
	"datacustody/pkg/testutil"
)

const signingKey = "test-signing-key"

// fakeWipes is a scriptable WipeService.
type fakeWipes struct {
	previewLines []string
	previewErr   error
	executeRec   *wipe.AuditRecord
	executeErr   error
	executedReq  wipe.Request
	audits       []*wipe.AuditRecord
	auditsErr    error
}

func (f *fakeWipes) Preview(context.Context, int64, domain.WipeType) ([]string, error) {
	return f.previewLines, f.previewErr
}

func (f *fakeWipes) Execute(_ context.Context, req wipe.Request) (*wipe.AuditRecord, error) {
	f.executedReq = req
	return f.executeRec, f.executeErr
}

func (f *fakeWipes) ListAudits(context.Context, int64) ([]*wipe.AuditRecord, error) {
	return f.audits, f.auditsErr
}

// fakeConsents is a scriptable ConsentService.
type fakeConsents struct {
	record    domain.ConsentRecord
	findErr   error
	effective bool
	toggled   *bool
}

func (f *fakeConsents) Toggle(_ context.Context, userID int64, enabled bool) (domain.ConsentRecord, error) {
	f.toggled = &enabled
	return domain.ConsentRecord{UserID: userID, Enabled: enabled, CreatedOn: time.Now().UTC()}, nil
}

func (f *fakeConsents) Find(context.Context, int64) (domain.ConsentRecord, error) {
	return f.record, f.findErr
}

func (f *fakeConsents) HasConsented(context.Context, int64, bool) (bool, error) {
	return f.effective, nil
}

// fakeExporter returns a canned document.
type fakeExporter struct {
	doc      *export.Document
	failures []dispatch.Failure
}

func (f *fakeExporter) ExportAll(context.Context, int64) (*export.Document, []dispatch.Failure) {
	return f.doc, f.failures
}

type HandlersSuite struct {
	suite.Suite
	wipes    *fakeWipes
	consents *fakeConsents
	exporter *fakeExporter
	router   http.Handler
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func (s *HandlersSuite) SetupTest() {
	doc := export.NewDocument()
	doc.AddDomain("ars_log", "Download history").
		AddItem("1").
		AddColumn("filename", "release.zip")

	s.wipes = &fakeWipes{
		executeRec: &wipe.AuditRecord{
			ID:     uuid.New(),
			UserID: 42,
			Type:   domain.WipeTypeUser,
			Items:  map[string]domain.DeletionReport{"ars": {"log": {"1"}}},
		},
	}
	s.consents = &fakeConsents{findErr: sentinel.ErrNotFound}
	s.exporter = &fakeExporter{doc: doc}

	logger := slog.New(slog.DiscardHandler)
	handler := NewHandler(s.wipes, s.consents, s.exporter, export.NewSerializer(), logger, nil,
		HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }},
	)
	s.router = NewRouter(handler, auth.NewValidator(signingKey), logger)
}

func (s *HandlersSuite) token(subject string, admin bool) string {
	claims := auth.Claims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	s.Require().NoError(err)
	return signed
}

func (s *HandlersSuite) authed(req *http.Request, subject string, admin bool) *http.Request {
	req.Header.Set("Authorization", "Bearer "+s.token(subject, admin))
	return req
}

func (s *HandlersSuite) TestHealthz() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal("OK", (*body)["status"])
}

func (s *HandlersSuite) TestMetricsExposed() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *HandlersSuite) TestMissingTokenRejected() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/users/42/export"))
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}

func (s *HandlersSuite) TestForeignUserForbidden() {
	req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/users/42/export"), "7", false)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
}

func (s *HandlersSuite) TestAdminMayActOnAnyUser() {
	req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/users/42/export"), "7", true)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *HandlersSuite) TestExportServesXML() {
	req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/users/42/export"), "42", false)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal("application/xml; charset=utf-8", rr.Header().Get("Content-Type"))
	s.Empty(rr.Header().Get("X-Export-Incomplete"))

	body := string(testutil.ReadBody(s.T(), rr))
	s.Contains(body, `<domain name="ars_log"`)
	s.Contains(body, "release.zip")
}

func (s *HandlersSuite) TestExportMarksIncompleteOnDomainFailure() {
	s.exporter.failures = []dispatch.Failure{{Domain: "loginguard", Err: errors.New("down")}}

	req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/users/42/export"), "42", false)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal("true", rr.Header().Get("X-Export-Incomplete"))
}

func (s *HandlersSuite) TestWipePreview() {
	s.wipes.previewLines = []string{"Erase 3 download log record(s)"}

	req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/users/42/wipe/preview?type=user"), "42", false)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal([]any{"Erase 3 download log record(s)"}, (*body)["bulletpoints"])
}

func (s *HandlersSuite) TestWipePreviewInvalidType() {
	req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/users/42/wipe/preview?type=everything"), "42", false)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlersSuite) TestWipeExecute() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/42/wipe", map[string]string{
		"type":           "user",
		"confirm_phrase": "DELETE MY ACCOUNT AND ALL MY DATA",
	})
	rr := testutil.DoRequest(s.router, s.authed(req, "42", false))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal(domain.WipeTypeUser, s.wipes.executedReq.Type)
	s.Equal("DELETE MY ACCOUNT AND ALL MY DATA", s.wipes.executedReq.ConfirmPhrase)

	rec := testutil.UnmarshalResponse[wipe.AuditRecord](s.T(), rr)
	s.Equal(int64(42), rec.UserID)
}

func (s *HandlersSuite) TestWipeExecuteConfirmationMismatch() {
	s.wipes.executeErr = wipe.ErrConfirmationMismatch

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/42/wipe", map[string]string{
		"type":           "user",
		"confirm_phrase": "nope",
	})
	rr := testutil.DoRequest(s.router, s.authed(req, "42", false))

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	body := testutil.UnmarshalResponse[map[string]string](s.T(), rr)
	s.Equal("confirmation_mismatch", (*body)["error"])
}

func (s *HandlersSuite) TestWipeExecuteConflictWhenRunning() {
	s.wipes.executeErr = wipe.ErrWipeInProgress

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/42/wipe", map[string]string{"type": "user"})
	rr := testutil.DoRequest(s.router, s.authed(req, "42", false))
	testutil.AssertStatus(s.T(), rr, http.StatusConflict)
}

func (s *HandlersSuite) TestLifecycleWipeNotAllowedOverAPI() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/42/wipe", map[string]string{"type": "lifecycle"})
	rr := testutil.DoRequest(s.router, s.authed(req, "42", true))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlersSuite) TestAdminWipeNeedsAdminRole() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/42/wipe", map[string]string{"type": "admin"})
	rr := testutil.DoRequest(s.router, s.authed(req, "42", false))
	testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
}

func (s *HandlersSuite) TestListAuditsEmptyIsArray() {
	req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/users/42/audits"), "42", false)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal("[]\n", rr.Body.String())
}

func (s *HandlersSuite) TestToggleConsent() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/users/42/consent", map[string]bool{"enabled": true})
	rr := testutil.DoRequest(s.router, s.authed(req, "42", false))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Require().NotNil(s.consents.toggled)
	s.True(*s.consents.toggled)
}

func (s *HandlersSuite) TestToggleConsentRequiresExplicitFlag() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/users/42/consent", map[string]string{})
	rr := testutil.DoRequest(s.router, s.authed(req, "42", false))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlersSuite) TestGetConsentReportsEffectiveAnswer() {
	s.consents.effective = true

	req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/users/42/consent"), "42", false)
	req.Header.Set("DNT", "1")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal(true, (*body)["effective"])
	s.Equal(true, (*body)["dnt"])
	s.Nil((*body)["stored"])
}
