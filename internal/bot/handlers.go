package bot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"ttsbot/internal/broadcast"
	"ttsbot/internal/speech"
	kit "ttsbot/internal/transport"
	logx "ttsbot/pkg/logx"
)

func (d *Dispatcher) reply(ctx context.Context, m *kit.Message, text string, opt *kit.SendOptions) error {
	_, err := d.adapter.SendText(ctx, kit.ChatTarget{ChatID: m.ChatID}, text, opt)
	return err
}

func (d *Dispatcher) handleStart(ctx context.Context, m *kit.Message) error {
	d.log.Info("start command", logx.Int64("user", m.FromID))
	d.reg.MarkActive(m.FromID)
	return d.reply(ctx, m, welcomeMessage, &kit.SendOptions{ReplyMarkup: mainMenu()})
}

func (d *Dispatcher) handleHelp(ctx context.Context, m *kit.Message) error {
	d.log.Info("help command", logx.Int64("user", m.FromID))
	text := helpMessage
	if d.isAdmin(m.FromID) {
		text += "\n\n" + broadcastHelp
	}
	return d.reply(ctx, m, text, &kit.SendOptions{ReplyMarkup: mainMenu()})
}

func (d *Dispatcher) handleLang(ctx context.Context, m *kit.Message) error {
	d.log.Info("lang command", logx.Int64("user", m.FromID))
	current := speech.Name(d.prefs.Get(m.FromID), "English (default)")
	text := languagePrompt + "\n\nCurrent language: " + current
	return d.reply(ctx, m, text, &kit.SendOptions{ReplyMarkup: languageMenu()})
}

func (d *Dispatcher) handleBroadcast(ctx context.Context, m *kit.Message, args string) error {
	d.log.Info("broadcast command", logx.Int64("user", m.FromID))

	out := d.bcast.Run(ctx, m.FromID, args)
	switch out.Status {
	case broadcast.Unauthorized:
		return d.reply(ctx, m, broadcastUnauthorized, nil)
	case broadcast.EmptyMessage:
		return d.reply(ctx, m, broadcastUsage, nil)
	case broadcast.NoRecipients:
		return d.reply(ctx, m, broadcastNoUsers, nil)
	default:
		return d.reply(ctx, m, fmt.Sprintf(broadcastSuccessFmt, out.Sent), nil)
	}
}

// handleText runs the synthesis pipeline for a free-text message.
//
// The artifact is deleted exactly once, whether or not the voice send
// succeeds; synthesis failures surface to the user only as the generic
// error message.
func (d *Dispatcher) handleText(ctx context.Context, m *kit.Message) error {
	if strings.TrimSpace(m.Text) == "" {
		return nil
	}
	if utf8.RuneCountInString(m.Text) > maxTextRunes {
		d.log.Warn("text too long", logx.Int64("user", m.FromID), logx.Int("len", utf8.RuneCountInString(m.Text)))
		return d.reply(ctx, m, textTooLongMessage, nil)
	}

	chat := kit.ChatTarget{ChatID: m.ChatID}
	// Show the recording indicator while synthesis runs.
	_ = d.adapter.SendChatAction(ctx, chat, kit.ActionRecordVoice)

	lang := d.prefs.Get(m.FromID)
	path, err := d.synth.Synthesize(ctx, m.Text, lang)
	if err != nil {
		d.log.Error("synthesis failed", logx.Int64("user", m.FromID), logx.String("lang", lang), logx.Err(err))
		return d.reply(ctx, m, errorMessage, nil)
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil {
			d.log.Warn("artifact cleanup failed", logx.String("path", path), logx.Err(rmErr))
		}
	}()

	if err := d.adapter.SendVoice(ctx, chat, path); err != nil {
		d.log.Error("voice send failed", logx.Int64("user", m.FromID), logx.Err(err))
		return d.reply(ctx, m, errorMessage, nil)
	}
	return nil
}

// handleCallback edits the originating menu message in place. Unrecognized
// payloads are acked and ignored.
func (d *Dispatcher) handleCallback(ctx context.Context, cb *kit.Callback) error {
	// Ack first so the client spinner clears even if the edit fails.
	_ = d.adapter.AnswerCallback(ctx, cb.ID)

	ref := kit.MessageRef{ChatID: cb.ChatID, MessageID: cb.MessageID}
	data := strings.TrimSpace(cb.Data)

	switch {
	case data == cbChangeLang:
		return d.adapter.EditText(ctx, ref, languagePrompt, &kit.SendOptions{ReplyMarkup: languageMenu()})

	case data == cbHelp:
		return d.adapter.EditText(ctx, ref, helpMessage, &kit.SendOptions{ReplyMarkup: mainMenu()})

	case data == cbAbout:
		return d.adapter.EditText(ctx, ref, aboutMessage, &kit.SendOptions{ReplyMarkup: mainMenu()})

	case strings.HasPrefix(data, cbLangPrefix):
		code := strings.TrimPrefix(data, cbLangPrefix)
		if err := d.prefs.Set(cb.FromID, code); err != nil {
			d.log.Warn("invalid language selection", logx.Int64("user", cb.FromID), logx.String("code", code))
			return d.adapter.EditText(ctx, ref, invalidLanguageMessage, nil)
		}
		d.log.Info("language changed", logx.Int64("user", cb.FromID), logx.String("code", code))
		text := fmt.Sprintf(languageChangedFmt, speech.Name(code, code))
		return d.adapter.EditText(ctx, ref, text, &kit.SendOptions{ReplyMarkup: mainMenu()})

	default:
		// No defined behavior for unknown payloads; must not crash.
		return nil
	}
}
