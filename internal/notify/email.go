package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const postmarkURL = "https://api.postmarkapp.com/email"

// EmailClient sends campaign email through Postmark.
type EmailClient struct {
	serverToken string
	fromEmail   string
	httpClient  *http.Client
}

type EmailOption func(*EmailClient)

func WithHTTPClient(c *http.Client) EmailOption {
	return func(cl *EmailClient) {
		cl.httpClient = c
	}
}

func NewEmailClient(serverToken, fromEmail string, opts ...EmailOption) *EmailClient {
	c := &EmailClient{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *EmailClient) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendCampaign sends a campaign email. The open pixel and click link carry
// signed tracking tokens; clickURL may be empty when tracking is disabled.
func (c *EmailClient) SendCampaign(toEmail, subject, body, clickURL, openPixelURL string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	textBody := body
	htmlBody := fmt.Sprintf("<p>%s</p>", body)
	if clickURL != "" {
		textBody = fmt.Sprintf("%s\n\nBook your next visit: %s", body, clickURL)
		htmlBody = fmt.Sprintf(`<p>%s</p><p><a href="%s">Book your next visit</a></p>`, body, clickURL)
	}
	if openPixelURL != "" {
		htmlBody += fmt.Sprintf(`<img src="%s" width="1" height="1" alt="">`, openPixelURL)
	}

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", postmarkURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark returned %d", resp.StatusCode)
	}
	return nil
}
