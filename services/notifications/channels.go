package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/slack-go/slack"

	"ryotgo/models"
)

// Sender delivers one rendered notification to one configured platform.
// Every channel implements this the same way regardless of transport,
// so Dispatch can treat them uniformly.
type Sender func(ctx context.Context, settings models.NotificationPlatformSettings, content models.UserNotificationContent) error

var httpClient = &http.Client{Timeout: 15 * time.Second}

// senders maps each supported platform kind to its delivery function.
var senders = map[models.NotificationPlatformKind]Sender{
	models.PlatformDiscord:    sendDiscord,
	models.PlatformSlack:      sendSlack,
	models.PlatformEmail:      sendEmail,
	models.PlatformTelegram:   sendTelegram,
	models.PlatformGotify:     sendGotify,
	models.PlatformNtfy:       sendNtfy,
	models.PlatformPushOver:   sendPushOver,
	models.PlatformPushSafer:  sendPushSafer,
	models.PlatformPushBullet: sendPushBullet,
	models.PlatformApprise:    sendApprise,
}

// sendDiscord posts an embed to a Discord webhook URL. Discord has no
// official Go SDK in the retrieval pack, so this is a direct webhook
// POST, the same shape the teacher's own alerting uses.
func sendDiscord(ctx context.Context, s models.NotificationPlatformSettings, content models.UserNotificationContent) error {
	if s.DiscordWebhook == "" {
		return fmt.Errorf("discord webhook url not configured")
	}
	body := map[string]any{
		"embeds": []map[string]any{{
			"title":       content.Title,
			"description": content.Text,
			"image":       map[string]string{"url": content.ImageURL},
		}},
	}
	return postJSON(ctx, s.DiscordWebhook, body)
}

// sendSlack posts a message via slack-go/slack's webhook helper.
func sendSlack(ctx context.Context, s models.NotificationPlatformSettings, content models.UserNotificationContent) error {
	if s.SlackWebhook == "" {
		return fmt.Errorf("slack webhook url not configured")
	}
	msg := &slack.WebhookMessage{
		Text: content.Title + "\n" + content.Text,
	}
	return slack.PostWebhookContext(ctx, s.SlackWebhook, msg)
}

// sendEmail delivers through SendGrid's transactional API.
func sendEmail(ctx context.Context, s models.NotificationPlatformSettings, content models.UserNotificationContent) error {
	if s.EmailAddress == "" {
		return fmt.Errorf("email address not configured")
	}
	from := sgmail.NewEmail("ryotgo", "notifications@ryotgo.local")
	to := sgmail.NewEmail("", s.EmailAddress)
	message := sgmail.NewSingleEmail(from, content.Title, to, content.Text, "<p>"+content.Text+"</p>")
	client := sendgrid.NewSendClient(sendgridAPIKey)
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// sendgridAPIKey is set once at startup by Configure; sendgrid-go's
// client is constructed per-send so each call picks up the current key.
var sendgridAPIKey string

// Configure sets process-wide delivery credentials that don't belong on
// a per-user NotificationPlatformSettings row (the SendGrid account
// key is an operator credential, not a user one).
func Configure(sendgridKey string) {
	sendgridAPIKey = sendgridKey
}

func sendTelegram(ctx context.Context, s models.NotificationPlatformSettings, content models.UserNotificationContent) error {
	if s.TelegramToken == "" || s.TelegramChatID == "" {
		return fmt.Errorf("telegram token/chat id not configured")
	}
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.TelegramToken)
	return postJSON(ctx, endpoint, map[string]any{
		"chat_id": s.TelegramChatID,
		"text":    content.Title + "\n" + content.Text,
	})
}

func sendGotify(ctx context.Context, s models.NotificationPlatformSettings, content models.UserNotificationContent) error {
	if s.GotifyURL == "" || s.GotifyToken == "" {
		return fmt.Errorf("gotify url/token not configured")
	}
	endpoint := s.GotifyURL + "/message?token=" + url.QueryEscape(s.GotifyToken)
	return postJSON(ctx, endpoint, map[string]any{"title": content.Title, "message": content.Text, "priority": 5})
}

func sendNtfy(ctx context.Context, s models.NotificationPlatformSettings, content models.UserNotificationContent) error {
	if s.NtfyURL == "" || s.NtfyTopic == "" {
		return fmt.Errorf("ntfy url/topic not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.NtfyURL+"/"+s.NtfyTopic, bytes.NewBufferString(content.Text))
	if err != nil {
		return err
	}
	req.Header.Set("Title", content.Title)
	return doRequest(req)
}

func sendPushOver(ctx context.Context, s models.NotificationPlatformSettings, content models.UserNotificationContent) error {
	if s.PushOverToken == "" || s.PushOverUserKey == "" {
		return fmt.Errorf("pushover token/user key not configured")
	}
	form := url.Values{"token": {s.PushOverToken}, "user": {s.PushOverUserKey}, "title": {content.Title}, "message": {content.Text}}
	return postForm(ctx, "https://api.pushover.net/1/messages.json", form)
}

func sendPushSafer(ctx context.Context, s models.NotificationPlatformSettings, content models.UserNotificationContent) error {
	if s.PushSaferKey == "" {
		return fmt.Errorf("pushsafer key not configured")
	}
	form := url.Values{"k": {s.PushSaferKey}, "t": {content.Title}, "m": {content.Text}}
	return postForm(ctx, "https://www.pushsafer.com/api", form)
}

func sendPushBullet(ctx context.Context, s models.NotificationPlatformSettings, content models.UserNotificationContent) error {
	if s.PushBulletToken == "" {
		return fmt.Errorf("pushbullet token not configured")
	}
	req, err := newJSONRequest(ctx, "https://api.pushbullet.com/v2/pushes", map[string]any{
		"type": "note", "title": content.Title, "body": content.Text,
	})
	if err != nil {
		return err
	}
	req.Header.Set("Access-Token", s.PushBulletToken)
	return doRequest(req)
}

// sendApprise proxies to a locally-run Apprise API server
// (github.com/caronc/apprise-api), the catch-all channel covering any
// service Apprise supports that isn't modeled with its own kind here.
func sendApprise(ctx context.Context, s models.NotificationPlatformSettings, content models.UserNotificationContent) error {
	if s.AppriseURL == "" {
		return fmt.Errorf("apprise url not configured")
	}
	return postJSON(ctx, s.AppriseURL, map[string]any{"title": content.Title, "body": content.Text})
}

func postJSON(ctx context.Context, endpoint string, body any) error {
	req, err := newJSONRequest(ctx, endpoint, body)
	if err != nil {
		return err
	}
	return doRequest(req)
}

func newJSONRequest(ctx context.Context, endpoint string, body any) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func postForm(ctx context.Context, endpoint string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return doRequest(req)
}

func doRequest(req *http.Request) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s responded with status %s", req.URL.Host, resp.Status)
	}
	return nil
}
