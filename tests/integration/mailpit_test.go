//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// MailpitClient reads what the mail server under test delivered to Mailpit.
type MailpitClient struct {
	apiURL string
	http   *http.Client
}

func NewMailpitClient(apiURL string) *MailpitClient {
	return &MailpitClient{apiURL: apiURL, http: &http.Client{Timeout: 10 * time.Second}}
}

type mailAddress struct {
	Name    string `json:"Name"`
	Address string `json:"Address"`
}

// mailMessage is a message summary. Text and HTML are only present when the
// message is fetched on its own.
type mailMessage struct {
	ID      string        `json:"ID"`
	From    mailAddress   `json:"From"`
	To      []mailAddress `json:"To"`
	Subject string        `json:"Subject"`
	Text    string        `json:"Text"`
	HTML    string        `json:"HTML"`
}

func (c *MailpitClient) getJSON(path string, query url.Values, v any) error {
	target := c.apiURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	resp, err := c.http.Get(target)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// Search returns summaries of messages addressed to email, newest first.
func (c *MailpitClient) Search(email string) ([]mailMessage, error) {
	var result struct {
		Messages []mailMessage `json:"messages"`
	}
	err := c.getJSON("/api/v1/search", url.Values{"query": {"to:" + email}}, &result)
	return result.Messages, err
}

// GetMessageByID returns a message with its bodies.
func (c *MailpitClient) GetMessageByID(id string) (*mailMessage, error) {
	var msg mailMessage
	if err := c.getJSON("/api/v1/message/"+url.PathEscape(id), nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// WaitForRecipient polls until at least count messages addressed to email arrive.
func (c *MailpitClient) WaitForRecipient(email string, count int, timeout time.Duration) ([]mailMessage, error) {
	deadline := time.Now().Add(timeout)
	for {
		messages, err := c.Search(email)
		if err == nil && len(messages) >= count {
			return messages, nil
		}
		if time.Now().After(deadline) {
			if err != nil {
				return messages, fmt.Errorf("waiting for mail to %s: %w", email, err)
			}
			return messages, fmt.Errorf("waiting for %d messages to %s: got %d", count, email, len(messages))
		}
		time.Sleep(100 * time.Millisecond)
	}
}
