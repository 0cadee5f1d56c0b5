package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/moonventures/cardpurchases/internal/creditlimit"
	"github.com/moonventures/cardpurchases/internal/models"
)

// EmailService handles sending emails via Azure Communication Services REST API.
type EmailService struct {
	endpoint   string
	sender     string
	cred       azcore.TokenCredential
	httpClient *http.Client
}

// NewEmailService creates a new EmailService instance.
// If cred is nil, it defaults to using DefaultAzureCredential.
func NewEmailService(cred azcore.TokenCredential) (*EmailService, error) {
	endpoint := os.Getenv("COMMUNICATION_SERVICES_ENDPOINT")
	if endpoint == "" {
		return nil, fmt.Errorf("COMMUNICATION_SERVICES_ENDPOINT environment variable is required")
	}

	sender := os.Getenv("SENDER_EMAIL")
	if sender == "" {
		return nil, fmt.Errorf("SENDER_EMAIL environment variable is required")
	}

	if cred == nil {
		var err error
		cred, err = newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
	}

	return &EmailService{
		endpoint:   endpoint,
		sender:     sender,
		cred:       cred,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type emailAddress struct {
	Address string `json:"address"`
}

type emailRecipients struct {
	To []emailAddress `json:"to"`
}

type emailContent struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Attachment is a file attached to an outgoing email.
type Attachment struct {
	Name        string
	ContentType string
	Content     []byte
}

type emailAttachment struct {
	Name            string `json:"name"`
	ContentType     string `json:"contentType"`
	ContentInBase64 string `json:"contentInBase64"`
}

type emailRequest struct {
	SenderAddress string            `json:"senderAddress"`
	Content       emailContent      `json:"content"`
	Recipients    emailRecipients   `json:"recipients"`
	Attachments   []emailAttachment `json:"attachments,omitempty"`
}

// SendEmail sends an email to the specified recipients using the REST API.
func (s *EmailService) SendEmail(ctx context.Context, to []string, subject, body string, attachments ...Attachment) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	// Get access token
	token, err := s.cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{"https://communication.azure.com//.default"},
	})
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	// Construct request body
	recipients := make([]emailAddress, len(to))
	for i, email := range to {
		recipients[i] = emailAddress{Address: email}
	}

	reqBody := emailRequest{
		SenderAddress: s.sender,
		Content: emailContent{
			Subject: subject,
			HTML:    body,
		},
		Recipients: emailRecipients{
			To: recipients,
		},
	}
	for _, a := range attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		reqBody.Attachments = append(reqBody.Attachments, emailAttachment{
			Name:            a.Name,
			ContentType:     contentType,
			ContentInBase64: base64.StdEncoding.EncodeToString(a.Content),
		})
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	// Construct HTTP request
	url := fmt.Sprintf("%s/emails:send?api-version=2023-03-31", s.endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.Token)

	// Send request
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	slog.Info("email sent successfully", "recipients", to, "attachments", len(attachments))
	return nil
}

// SendConfirmationEmail sends the purchase confirmation, attaching the
// receipt when one is given.
func (s *EmailService) SendConfirmationEmail(ctx context.Context, msg models.Confirmation, receipt *Attachment) error {
	subject := fmt.Sprintf("Compra registrada - %s", msg.Supplier)
	body := RenderConfirmationBody(msg)
	if receipt == nil {
		return s.SendEmail(ctx, msg.To, subject, body)
	}
	return s.SendEmail(ctx, msg.To, subject, body, *receipt)
}

// SendReminderEmail sends the upcoming-installments reminder to a cardholder.
func (s *EmailService) SendReminderEmail(ctx context.Context, holder models.Cardholder, dues []creditlimit.Due) error {
	subject := fmt.Sprintf("Parcelas a vencer - %s", holder.Name)
	return s.SendEmail(ctx, []string{holder.Email}, subject, RenderReminderBody(holder, dues))
}
