package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"
)

// Client delivers documents to a Telegram channel via the Bot API.
type Client struct {
	botToken   string
	chatID     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Telegram Bot API client
func NewClient(botToken, chatID string, timeout time.Duration) *Client {
	return &Client{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  "https://api.telegram.org",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// DeliveryError represents a failed delivery. Non-fatal to artifact
// production, fatal to the distribution outcome.
type DeliveryError struct {
	Message string
	Err     error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery failed: %s: %v", e.Message, e.Err)
	}
	return "delivery failed: " + e.Message
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// SendDocument uploads the document to the configured channel with a
// caption, using the sendDocument multipart endpoint.
func (c *Client) SendDocument(ctx context.Context, document []byte, filename, caption string) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", c.chatID); err != nil {
		return &DeliveryError{Message: "building request", Err: err}
	}
	if err := writer.WriteField("caption", caption); err != nil {
		return &DeliveryError{Message: "building request", Err: err}
	}

	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return &DeliveryError{Message: "building request", Err: err}
	}
	if _, err := part.Write(document); err != nil {
		return &DeliveryError{Message: "building request", Err: err}
	}
	if err := writer.Close(); err != nil {
		return &DeliveryError{Message: "building request", Err: err}
	}

	url := fmt.Sprintf("%s/bot%s/sendDocument", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return &DeliveryError{Message: "creating request", Err: err}
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{Message: "sending request", Err: err}
	}
	defer resp.Body.Close()

	var telegramResp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description,omitempty"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&telegramResp); err != nil {
		return &DeliveryError{Message: fmt.Sprintf("decoding response (status %d)", resp.StatusCode), Err: err}
	}

	if !telegramResp.OK {
		return &DeliveryError{Message: fmt.Sprintf("telegram API error (status %d): %s", resp.StatusCode, telegramResp.Description)}
	}

	return nil
}
