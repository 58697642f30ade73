package email

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datacustody/internal/domain"
	"datacustody/internal/wipe"
	pkgemail "datacustody/pkg/email"
)

// captureSender records outbound mail, optionally failing per recipient.
type captureSender struct {
	sent    []pkgemail.Message
	failFor map[string]error
}

func (c *captureSender) Send(_ context.Context, msg pkgemail.Message) error {
	if err, ok := c.failFor[msg.To]; ok {
		return err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func sampleEvent() wipe.SavedEvent {
	return wipe.SavedEvent{
		Record: &wipe.AuditRecord{
			ID:          uuid.New(),
			UserID:      42,
			CreatedBy:   42,
			CreatedOn:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			RequesterIP: "203.0.113.9",
			Type:        domain.WipeTypeUser,
		},
		User: domain.User{
			ID:       42,
			Username: "jdoe",
			Name:     "Jane Doe",
			Email:    "jane@example.com",
		},
		Bulletpoints: []string{"Erase 3 download log record(s)", "Remove 1 two-factor authentication method(s)"},
	}
}

func newSink(sender pkgemail.Sender, admins []string) *Sink {
	return New(sender, admins, "example.org", slog.New(slog.DiscardHandler))
}

func TestRecordSavedMailsUserAndAdmins(t *testing.T) {
	sender := &captureSender{}
	sink := newSink(sender, []string{"dpo@example.org", "ops@example.org"})

	require.NoError(t, sink.RecordSaved(context.Background(), sampleEvent()))

	require.Len(t, sender.sent, 3)
	assert.Equal(t, "jane@example.com", sender.sent[0].To)
	assert.Equal(t, "dpo@example.org", sender.sent[1].To)
	assert.Equal(t, "ops@example.org", sender.sent[2].To)

	// The user mail carries the rendered bulletpoint list.
	assert.Contains(t, sender.sent[0].Body, "- Erase 3 download log record(s)")
	assert.Contains(t, sender.sent[0].Body, "Jane")
}

func TestRecordSavedSkipsUserWithoutEmail(t *testing.T) {
	sender := &captureSender{}
	sink := newSink(sender, []string{"dpo@example.org"})

	ev := sampleEvent()
	ev.User.Email = ""
	require.NoError(t, sink.RecordSaved(context.Background(), ev))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "dpo@example.org", sender.sent[0].To)
}

func TestRecordSavedIsolatesPerRecipientFailures(t *testing.T) {
	sender := &captureSender{failFor: map[string]error{
		"jane@example.com": errors.New("mailbox gone"),
	}}
	sink := newSink(sender, []string{"dpo@example.org"})

	err := sink.RecordSaved(context.Background(), sampleEvent())
	require.Error(t, err)

	// The admin mail still went out despite the user mail failing.
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "dpo@example.org", sender.sent[0].To)
}

func TestRecordSavedNoopsOnReplay(t *testing.T) {
	sender := &captureSender{}
	sink := newSink(sender, []string{"dpo@example.org"})

	ev := sampleEvent()
	ev.Replaying = true
	require.NoError(t, sink.RecordSaved(context.Background(), ev))
	assert.Empty(t, sender.sent)
}
