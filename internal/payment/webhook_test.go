package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testWebhookSecret = "whsec_test"

func sign(t *testing.T, payload string) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestWebhookVerifier_CompletedSession(t *testing.T) {
	v := NewWebhookVerifier(testWebhookSecret)
	payload := `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session","payment_status":"paid"}}}`

	id, ok, err := v.CompletedSessionID([]byte(payload), sign(t, payload))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cs_test_1", id)
}

func TestWebhookVerifier_OtherEventIgnored(t *testing.T) {
	v := NewWebhookVerifier(testWebhookSecret)
	payload := `{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`

	_, ok, err := v.CompletedSessionID([]byte(payload), sign(t, payload))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWebhookVerifier_BadSignature(t *testing.T) {
	v := NewWebhookVerifier(testWebhookSecret)
	payload := `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1"}}}`

	_, _, err := v.CompletedSessionID([]byte(payload), "t=1,v1=deadbeef")
	require.Error(t, err)
}

func TestWebhookVerifier_Enabled(t *testing.T) {
	assert.False(t, NewWebhookVerifier("").Enabled())
	assert.True(t, NewWebhookVerifier(testWebhookSecret).Enabled())
}
