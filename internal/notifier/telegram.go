package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"TickerBot/internal/model"
)

const (
	maxCaptionLen = 1024
	maxMessageLen = 4096
)

// APIError is a Bot API response with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// BotCommand is one entry of the slash-command menu.
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// Telegram talks to the Bot API. Outbound calls share one rate limiter.
type Telegram struct {
	BaseURL  string
	BotToken string
	Client   *http.Client
	Limiter  *rate.Limiter
	Log      *logrus.Entry
}

// NewTelegram creates a client with optional proxy support.
func NewTelegram(baseURL, botToken, proxyURL string, ratePerSecond float64, log *logrus.Entry) *Telegram {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if ratePerSecond <= 0 {
		ratePerSecond = 25
	}
	return &Telegram{
		BaseURL:  baseURL,
		BotToken: botToken,
		Client:   &http.Client{Transport: transport},
		Limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		Log:      log,
	}
}

func (t *Telegram) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.BaseURL, t.BotToken, method)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// call posts a JSON payload; result may be nil.
func (t *Telegram) call(ctx context.Context, method string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}
	return t.post(ctx, method, "application/json", body, result, true)
}

func (t *Telegram) post(ctx context.Context, method, contentType string, body []byte, result any, limited bool) error {
	if limited && t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.Client.Do(req)
	if err != nil {
		// the URL carries the token; keep it out of the error
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	var ar apiResponse
	if err := json.Unmarshal(data, &ar); err != nil {
		return fmt.Errorf("telegram %s: status %d, body: %.200s", method, resp.StatusCode, data)
	}
	if !ar.OK {
		apiErr := &APIError{Method: method, Code: ar.ErrorCode, Description: ar.Description}
		if ar.Parameters != nil {
			apiErr.RetryAfter = ar.Parameters.RetryAfter
		}
		return apiErr
	}
	if result != nil {
		if err := json.Unmarshal(ar.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// truncate cuts text to at most limit bytes on a rune boundary.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

type replyParameters struct {
	MessageID                int64 `json:"message_id"`
	AllowSendingWithoutReply bool  `json:"allow_sending_without_reply"`
}

func replyTo(messageID int64) *replyParameters {
	if messageID == 0 {
		return nil
	}
	return &replyParameters{MessageID: messageID, AllowSendingWithoutReply: true}
}

// Send sends an HTML message to chatID, optionally as a reply.
func (t *Telegram) Send(ctx context.Context, chatID int64, text string, replyToID int64) error {
	text = truncate(text, maxMessageLen)
	payload := struct {
		ChatID             int64            `json:"chat_id"`
		Text               string           `json:"text"`
		ParseMode          string           `json:"parse_mode"`
		LinkPreviewOptions map[string]bool  `json:"link_preview_options"`
		ReplyParameters    *replyParameters `json:"reply_parameters,omitempty"`
	}{chatID, text, "HTML", map[string]bool{"is_disabled": true}, replyTo(replyToID)}
	return t.call(ctx, "sendMessage", payload, nil)
}

// SendPhoto uploads a PNG with an optional HTML caption.
func (t *Telegram) SendPhoto(ctx context.Context, chatID int64, photo model.Photo, caption string, replyToID int64) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{"chat_id": strconv.FormatInt(chatID, 10)}
	if caption != "" {
		fields["caption"] = caption
		fields["parse_mode"] = "HTML"
	}
	if rp := replyTo(replyToID); rp != nil {
		b, _ := json.Marshal(rp)
		fields["reply_parameters"] = string(b)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile("photo", photo.Name)
	if err != nil {
		return fmt.Errorf("create photo part: %w", err)
	}
	if _, err := part.Write(photo.Data); err != nil {
		return fmt.Errorf("write photo: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}
	return t.post(ctx, "sendPhoto", w.FormDataContentType(), buf.Bytes(), nil, true)
}

// SendChatAction shows "typing" or "upload_photo" for about five seconds.
func (t *Telegram) SendChatAction(ctx context.Context, chatID int64, action string) error {
	payload := map[string]any{"chat_id": chatID, "action": action}
	return t.call(ctx, "sendChatAction", payload, nil)
}

// DeleteMessage removes a message; the bot needs delete rights in groups.
func (t *Telegram) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	payload := map[string]any{"chat_id": chatID, "message_id": messageID}
	return t.call(ctx, "deleteMessage", payload, nil)
}

// SetCommands registers the slash-command menu.
func (t *Telegram) SetCommands(ctx context.Context, commands []BotCommand) error {
	return t.call(ctx, "setMyCommands", map[string]any{"commands": commands}, nil)
}

// GetMe returns the bot's username, used to recognise /cmd@name mentions.
func (t *Telegram) GetMe(ctx context.Context) (string, error) {
	var me struct {
		Username string `json:"username"`
	}
	if err := t.call(ctx, "getMe", map[string]any{}, &me); err != nil {
		return "", err
	}
	return me.Username, nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *Telegram) SendWithRetry(ctx context.Context, chatID int64, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, chatID, text, 0)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := time.Duration(1<<uint(i)) * time.Second
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			backoff = time.Duration(apiErr.RetryAfter) * time.Second
		}
		t.Log.Warnf("telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
