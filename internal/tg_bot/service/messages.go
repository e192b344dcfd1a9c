package service

import (
	"html"
	"strings"
	"time"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/callback"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/constant"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendMessage sends an HTML message to the specified chat with optional reply and markup.
// Arguments:
//   - chatID: the ID of the chat to send the message to.
//   - text: the HTML content of the message.
//   - replyToID: the ID of the message to reply to (0 if no reply).
//   - markup: an optional keyboard or inline markup (nil if none).
//
// Returns the sent message or an error if the message fails to send.
func (b *TgBotServices) sendMessage(chatID int64, text string, replyToID int, markup interface{}) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if replyToID != 0 {
		msg.ReplyToMessageID = replyToID
	}
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := b.Bot.Send(msg)
	if err != nil {
		b.log.WithError(err).Errorf("Failed to send message to chat %d", chatID)
	}
	return sent, err
}

// editMessage replaces the text and the inline keyboard of a message.
// An edit that changes nothing is not an error.
func (b *TgBotServices) editMessage(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	if _, err := b.Bot.Request(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return err
	}
	return nil
}

// render shows a screen. It edits the message that carried the pressed
// button when nav says so and falls back to a new message when that message
// can not be edited anymore (deleted, or a photo).
func (b *TgBotServices) render(ev *Event, nav callback.Nav, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	if nav.Edit() && ev.MessageID != 0 {
		err := b.editMessage(ev.ChatID, ev.MessageID, text, markup)
		if err == nil {
			return nil
		}
		b.log.WithError(err).Debugf("Failed to edit message %d, sending a new one", ev.MessageID)
	}
	_, err := b.sendMessage(ev.ChatID, text, 0, markup)
	return err
}

// deleteMessages deletes messages of a chat. Failures are logged only: the
// user may have deleted them already.
func (b *TgBotServices) deleteMessages(chatID int64, ids ...int) {
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, err := b.Bot.Request(tgbotapi.NewDeleteMessage(chatID, id)); err != nil {
			b.log.WithError(err).Debugf("Failed to delete message %d in chat %d", id, chatID)
		}
	}
}

// transient sends a message that deletes itself after the warning TTL.
func (b *TgBotServices) transient(ev *Event, text string) {
	sent, err := b.sendMessage(ev.ChatID, text, 0, nil)
	if err != nil {
		return
	}
	time.AfterFunc(b.settings.WarningTTL, func() {
		b.deleteMessages(ev.ChatID, sent.MessageID)
	})
}

func (b *TgBotServices) warning(ev *Event, text string) {
	b.transient(ev, constant.EMOJI_WARNING+" "+html.EscapeString(text))
}

func (b *TgBotServices) shortReply(ev *Event, text string) {
	b.transient(ev, constant.EMOJI_CHECK_MARK+" "+html.EscapeString(text))
}

// prompt asks a question that is answered by the next text message.
// It returns the id of the prompt so it can be cleaned up with the job.
func (b *TgBotServices) prompt(ev *Event, text string) (int, error) {
	markup := tgbotapi.ForceReply{ForceReply: true, InputFieldPlaceholder: "Type your answer"}
	sent, err := b.sendMessage(ev.ChatID, text, 0, markup)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// sendDocument uploads a file to the chat.
func (b *TgBotServices) sendDocument(chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeHTML
	if _, err := b.Bot.Send(doc); err != nil {
		b.log.WithError(err).Errorf("Failed to send document %s to chat %d", name, chatID)
		return err
	}
	return nil
}

// sendPhoto uploads an image with an optional inline keyboard.
func (b *TgBotServices) sendPhoto(chatID int64, name string, data []byte, caption string, markup *tgbotapi.InlineKeyboardMarkup) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		photo.ReplyMarkup = markup
	}
	if _, err := b.Bot.Send(photo); err != nil {
		b.log.WithError(err).Errorf("Failed to send photo %s to chat %d", name, chatID)
		return err
	}
	return nil
}

// button creates an inline button carrying an action token.
func button(text string, key callback.ActionKey, params ...string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, callback.To(key, params...).String())
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

// keyboard builds an inline keyboard and appends the Back and Close row.
// Buttons whose token exceeds the callback data limit are dropped.
func (b *TgBotServices) keyboard(nav callback.Nav, rows ...[]tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	last := row()
	if back := nav.BackToken(); back != "" {
		last = append(last, tgbotapi.NewInlineKeyboardButtonData(constant.BUTTON_TEXT_BACK, back))
	}
	last = append(last, button(constant.BUTTON_TEXT_CLOSE, callback.ActionClose))
	rows = append(rows, last)

	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, r := range rows {
		kept := r[:0:0]
		for _, btn := range r {
			if btn.CallbackData != nil && !callback.Fits(*btn.CallbackData) {
				b.log.Warnf("Dropped button %q: callback data %q is too long", btn.Text, *btn.CallbackData)
				continue
			}
			kept = append(kept, btn)
		}
		if len(kept) > 0 {
			out = append(out, kept)
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}

func escape(s string) string {
	return html.EscapeString(s)
}

func bold(s string) string {
	return "<b>" + html.EscapeString(s) + "</b>"
}

func code(s string) string {
	return "<code>" + html.EscapeString(s) + "</code>"
}

func link(text, url string) string {
	return `<a href="` + html.EscapeString(url) + `">` + html.EscapeString(text) + "</a>"
}

// spoiler hides a secret behind a tap.
func spoiler(s string) string {
	return "<tg-spoiler>" + html.EscapeString(s) + "</tg-spoiler>"
}

func checkbox(on bool) string {
	if on {
		return constant.EMOJI_CHECK_MARK
	}
	return constant.EMOJI_EMPTY
}
