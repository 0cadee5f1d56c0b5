package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/moonventures/cardpurchases/internal/creditlimit"
	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCredential implements azcore.TokenCredential for testing.
type MockCredential struct{}

func (m *MockCredential) GetToken(ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{
		Token:     "mock-token",
		ExpiresOn: time.Now().Add(1 * time.Hour),
	}, nil
}

func newTestEmailService(t *testing.T, handler http.HandlerFunc) *EmailService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("COMMUNICATION_SERVICES_ENDPOINT", server.URL)
	t.Setenv("SENDER_EMAIL", "sender@test.com")

	service, err := NewEmailService(&MockCredential{})
	require.NoError(t, err)
	return service
}

func TestEmailService_SendEmail(t *testing.T) {
	var got emailRequest
	service := newTestEmailService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails:send", r.URL.Path)
		assert.Equal(t, "Bearer mock-token", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
	})

	err := service.SendEmail(context.Background(), []string{"recipient@test.com"}, "Test Subject", "Test Body")
	require.NoError(t, err)

	assert.Equal(t, "sender@test.com", got.SenderAddress)
	require.Len(t, got.Recipients.To, 1)
	assert.Equal(t, "recipient@test.com", got.Recipients.To[0].Address)
	assert.Equal(t, "Test Subject", got.Content.Subject)
	assert.Empty(t, got.Attachments)
}

func TestEmailService_SendEmail_Attachment(t *testing.T) {
	var got emailRequest
	service := newTestEmailService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	})

	err := service.SendEmail(context.Background(), []string{"a@test.com"}, "Sub", "Body",
		Attachment{Name: "nota.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
		Attachment{Name: "raw.bin", Content: []byte{1, 2}},
	)
	require.NoError(t, err)

	require.Len(t, got.Attachments, 2)
	assert.Equal(t, "nota.pdf", got.Attachments[0].Name)
	assert.Equal(t, "application/pdf", got.Attachments[0].ContentType)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF")), got.Attachments[0].ContentInBase64)
	assert.Equal(t, "application/octet-stream", got.Attachments[1].ContentType)
}

func TestEmailService_SendEmail_Error(t *testing.T) {
	service := newTestEmailService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Error"))
	})

	err := service.SendEmail(context.Background(), []string{"recipient@test.com"}, "Sub", "Body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestEmailService_SendEmail_NoRecipients(t *testing.T) {
	service := newTestEmailService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	assert.Error(t, service.SendEmail(context.Background(), nil, "Sub", "Body"))
}

func TestEmailService_SendConfirmationEmail(t *testing.T) {
	var got emailRequest
	service := newTestEmailService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	})

	msg := models.Confirmation{
		To:       []string{"ana@moon.com"},
		Supplier: "Kalunga <SP>",
		Fields:   []models.Field{{Label: "Valor", Value: "R$ 1.234,56"}},
		Warnings: []string{"Cotação indisponível"},
	}
	receipt := &Attachment{Name: "nota.pdf", ContentType: "application/pdf", Content: []byte("x")}
	require.NoError(t, service.SendConfirmationEmail(context.Background(), msg, receipt))

	assert.Equal(t, "Compra registrada - Kalunga <SP>", got.Content.Subject)
	assert.Contains(t, got.Content.HTML, "R$ 1.234,56")
	assert.Contains(t, got.Content.HTML, "Cotação indisponível")
	assert.Len(t, got.Attachments, 1)
}

func TestRenderReminderBody(t *testing.T) {
	holder := models.Cardholder{ID: "ana", Name: "Ana"}
	dues := []creditlimit.Due{{
		Row:     models.PurchaseRow{Supplier: "Dell", InstallmentValue: decimal.RequireFromString("1234.5")},
		Label:   "2/3",
		DueDate: time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC),
	}}

	body := RenderReminderBody(holder, dues)
	assert.Contains(t, body, "Olá, Ana")
	assert.Contains(t, body, "05/11/2026")
	assert.Contains(t, body, "2/3")
	assert.Contains(t, body, "R$ 1.234,50")
}

func TestRenderWarningSection_Empty(t *testing.T) {
	assert.Empty(t, RenderWarningSection(nil))
	assert.True(t, strings.Contains(RenderWarningSection([]string{"a & b"}), "a &amp; b"))
}
