package notifier

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"vintedwatch/internal/misc"
)

type logger interface {
	Debugf(format string, v ...any)
	Errorf(format string, v ...any)
}

// Telegram delivers notification messages through the Telegram Bot API.
type Telegram struct {
	Client *http.Client
	Token  string
	Logger logger
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers a Markdown message to the recipient chat. Delivery is
// best-effort; the caller decides what to do with a failure.
func (t Telegram) Send(recipientID string, message string) error {
	reqBody, err := json.Marshal(sendMessageRequest{
		ChatID:    recipientID,
		Text:      message,
		ParseMode: "Markdown",
	})
	if err != nil {
		return errors.Wrapf(err, "Send: error marshalling sendMessage request for ChatID: %s", recipientID)
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/bot"+t.Token+"/sendMessage", bytes.NewReader(reqBody))
	if err != nil {
		return errors.Wrap(err, "Send: error creating sendMessage request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "Send: error doing sendMessage request for ChatID: %s", recipientID)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logger.Errorf("Send: Error closing response body, ChatID: %s, err: %v", recipientID, err)
		}
	}()

	respBody, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300000))
	if err != nil {
		return errors.Wrapf(err, "Send: error reading sendMessage response body, status: %s", resp.Status)
	}
	var sendResp sendMessageResponse
	if err = json.Unmarshal(respBody, &sendResp); err != nil {
		return errors.Wrapf(err, "Send: error unmarshalling sendMessage response body: %s", misc.BytesLimit(respBody, 500))
	}
	if !sendResp.OK {
		return errors.Errorf("Send: sendMessage rejected for ChatID: %s, status: %s, description: %s",
			recipientID, resp.Status, sendResp.Description)
	}
	t.Logger.Debugf("Send: Message delivered to ChatID: %s", recipientID)
	return nil
}
