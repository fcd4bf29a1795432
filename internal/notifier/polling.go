package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"TickerBot/internal/model"
)

// InteractionHandler is called once per parsed command, on its own goroutine.
type InteractionHandler func(ctx context.Context, in model.Interaction)

// Update is the subset of a Bot API update the bot reads.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
	From      *struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
	} `json:"from"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

// ParseCommand splits "/cmd@bot arg1 arg2" into a lowercased command and its args.
// Commands addressed to a different bot are rejected when botName is set.
func ParseCommand(text, botName string) (command string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") || len(fields[0]) == 1 {
		return "", nil, false
	}
	command = strings.TrimPrefix(fields[0], "/")
	if name, mention, found := strings.Cut(command, "@"); found {
		if botName != "" && !strings.EqualFold(mention, botName) {
			return "", nil, false
		}
		command = name
	}
	return strings.ToLower(command), fields[1:], command != ""
}

// toInteraction converts a message to an Interaction; ok is false for non-commands.
func toInteraction(m *Message, botName string) (model.Interaction, bool) {
	cmd, args, ok := ParseCommand(m.Text, botName)
	if !ok {
		return model.Interaction{}, false
	}
	in := model.Interaction{
		ID:         uuid.NewString(),
		ChatID:     m.Chat.ID,
		MessageID:  m.MessageID,
		Command:    cmd,
		Args:       args,
		ReceivedAt: time.Now(),
	}
	if m.From != nil {
		in.User = m.From.Username
		if in.User == "" {
			in.User = fmt.Sprintf("%s#%d", m.From.FirstName, m.From.ID)
		}
	}
	return in, true
}

// GetUpdates long-polls for new updates after offset.
func (t *Telegram) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	body, err := json.Marshal(map[string]any{
		"offset":          offset,
		"timeout":         timeout,
		"allowed_updates": []string{"message"},
	})
	if err != nil {
		return nil, err
	}
	rctx, cancel := context.WithTimeout(ctx, time.Duration(timeout+10)*time.Second)
	defer cancel()

	var updates []Update
	if err := t.post(rctx, "getUpdates", "application/json", body, &updates, false); err != nil {
		return nil, err
	}
	return updates, nil
}

// StartPolling long-polls for commands until ctx is cancelled, then waits for
// in-flight handlers to return.
func (t *Telegram) StartPolling(ctx context.Context, botName string, pollTimeout int, handler InteractionHandler) {
	var wg sync.WaitGroup
	defer wg.Wait()

	var offset int64
	for {
		if ctx.Err() != nil {
			t.Log.Info("telegram polling stopped")
			return
		}

		updates, err := t.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			t.Log.Warnf("polling request failed: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			in, ok := toInteraction(u.Message, botName)
			if !ok {
				continue
			}
			t.Log.WithFields(logrus.Fields{"id": in.ID, "user": in.User, "chat": in.ChatID}).Infof("received /%s", in.Command)
			wg.Add(1)
			go func() {
				defer wg.Done()
				handler(ctx, in)
			}()
		}
	}
}
