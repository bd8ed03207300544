package mailer

import (
	"context"
	"testing"

	"github.com/dalemusser/cityfix/internal/app/system/notify"
	"github.com/dalemusser/waffle/pantry/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Worker(t *testing.T) {
	e, err := Render(Config{BaseURL: "https://city.test"}, notify.TemplateAssignedWorker, map[string]string{
		notify.KeyComplaintID:    "c1",
		notify.KeyComplaintTitle: "Pothole <Main St>",
		notify.KeyWorkerName:     "Ana",
	})
	require.NoError(t, err)

	assert.Contains(t, e.Subject, "[CityFix]")
	assert.Contains(t, e.TextBody, "Hello Ana")
	assert.Contains(t, e.TextBody, "https://city.test/complaints/c1")
	// html/template escapes user-supplied text
	assert.Contains(t, e.HTMLBody, "Pothole &lt;Main St&gt;")
}

func TestRender_Citizen(t *testing.T) {
	e, err := Render(Config{SiteName: "Springfield 311"}, notify.TemplateAssignedCitizen, map[string]string{
		notify.KeyComplaintTitle: "Broken light",
		notify.KeyWorkerName:     "Bo",
	})
	require.NoError(t, err)
	assert.Equal(t, "[Springfield 311] Your complaint is in progress", e.Subject)
	assert.Contains(t, e.TextBody, "assigned to Bo")
	assert.NotContains(t, e.HTMLBody, "Track complaint")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := Render(Config{}, "nope", nil)
	assert.Error(t, err)
}

func TestSend_NotConfigured(t *testing.T) {
	m := New(Config{})
	err := m.Send(context.Background(), Email{To: "a@b.test"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSend_PassesBothBodies(t *testing.T) {
	m := New(Config{Host: "smtp.test", From: "noreply@city.test", FromName: "CityFix", User: "u", Pass: "p"})
	var got email.Message
	m.send = func(_ context.Context, msg email.Message) error {
		got = msg
		return nil
	}

	err := m.Send(context.Background(), Email{To: "w@city.test", Subject: "Hi", TextBody: "plain", HTMLBody: "<p>html</p>"})
	require.NoError(t, err)

	assert.Equal(t, []string{"w@city.test"}, got.To)
	assert.Equal(t, "Hi", got.Subject)
	assert.Equal(t, "plain", got.TextBody)
	assert.Equal(t, "<p>html</p>", got.HTMLBody)
	assert.Equal(t, 587, m.Config().Port)
}

func TestSend_BadRecipient(t *testing.T) {
	m := New(Config{Host: "smtp.test", From: "noreply@city.test"})
	m.send = func(context.Context, email.Message) error {
		t.Fatal("should not send")
		return nil
	}
	assert.Error(t, m.Send(context.Background(), Email{To: "not an address"}))
}

func TestSend_CancelledContext(t *testing.T) {
	m := New(Config{Host: "smtp.test", From: "noreply@city.test"})
	m.send = func(context.Context, email.Message) error {
		t.Fatal("should not send")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Email{To: "w@city.test"}), context.Canceled)
}
