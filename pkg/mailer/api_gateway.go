package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// APIGateway sends email through an HTTP mail provider API
type APIGateway struct {
	apiURL      string
	apiKey      string
	fromAddress string
	httpClient  *http.Client
	logger      *logrus.Logger
}

// NewAPIGateway creates a new API mail gateway
func NewAPIGateway(apiURL, apiKey, fromAddress string, logger *logrus.Logger) *APIGateway {
	return &APIGateway{
		apiURL:      apiURL,
		apiKey:      apiKey,
		fromAddress: fromAddress,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send delivers an email via the provider API
func (g *APIGateway) Send(to, subject, body string) error {
	payload := sendRequest{
		From:    g.fromAddress,
		To:      to,
		Subject: subject,
		Body:    body,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.apiURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}

	g.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("Email sent")

	return nil
}
