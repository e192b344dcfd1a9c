package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/callback"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/jobs"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// profileField describes one editable field of the auto-fill profile.
type profileField struct {
	key   string
	label string
	hint  string
	get   func(*models.ProfileInfo) string
	set   func(*models.ProfileInfo, string)
	check func(b *TgBotServices, s string) bool
}

func notEmpty(_ *TgBotServices, s string) bool { return s != "" }

var profileFields = []profileField{
	{"fn", "First name", "", func(p *models.ProfileInfo) string { return p.FirstName }, func(p *models.ProfileInfo, s string) { p.FirstName = s }, notEmpty},
	{"ln", "Last name", "", func(p *models.ProfileInfo) string { return p.LastName }, func(p *models.ProfileInfo, s string) { p.LastName = s }, notEmpty},
	{"g", "Gender", "male, female or other", func(p *models.ProfileInfo) string { return p.Gender }, func(p *models.ProfileInfo, s string) { p.Gender = strings.ToLower(s) }, func(_ *TgBotServices, s string) bool {
		switch strings.ToLower(s) {
		case "male", "female", "other":
			return true
		}
		return false
	}},
	{"bd", "Date of birth", "YYYY-MM-DD", func(p *models.ProfileInfo) string { return p.Birthday }, func(p *models.ProfileInfo, s string) { p.Birthday = s }, func(b *TgBotServices, s string) bool { return isBirthday(s, b.now()) }},
	{"ct", "City", "", func(p *models.ProfileInfo) string { return p.City }, func(p *models.ProfileInfo, s string) { p.City = s }, notEmpty},
	{"st", "State", "", func(p *models.ProfileInfo) string { return p.State }, func(p *models.ProfileInfo, s string) { p.State = s }, notEmpty},
	{"pc", "Postcode", "digits only", func(p *models.ProfileInfo) string { return p.PostCode }, func(p *models.ProfileInfo, s string) { p.PostCode = s }, func(_ *TgBotServices, s string) bool { return isPostCode(s) }},
	{"ph", "Phone", "international format, e.g. +14155552671", func(p *models.ProfileInfo) string { return p.Phone }, func(p *models.ProfileInfo, s string) { p.Phone = s }, func(_ *TgBotServices, s string) bool { return isPhone(s) }},
}

func findProfileField(key string) (profileField, bool) {
	for _, f := range profileFields {
		if f.key == key {
			return f, true
		}
	}
	return profileField{}, false
}

// Card fields. cardNew expects the whole card as "number,MM/YY,cvc".
const (
	cardNumber = "num"
	cardExpiry = "exp"
	cardCVC    = "cvc"
	cardNew    = "new"
)

type profilePayload struct {
	Field string `json:"field"`
	Card  int    `json:"card,omitempty"`
}

func maskCard(number string) string {
	if len(number) <= 4 {
		return number
	}
	return "•••• " + number[len(number)-4:]
}

func (b *TgBotServices) showAutoFill(ctx context.Context, ev *Event, _ string, nav callback.Nav) error {
	return b.renderAutoFill(ctx, ev, nav, false)
}

func (b *TgBotServices) refreshAutoFill(ctx context.Context, ev *Event, _ string, nav callback.Nav) error {
	if err := b.renderAutoFill(ctx, ev, nav, true); err != nil {
		return err
	}
	b.refreshed(ev)
	return nil
}

func (b *TgBotServices) renderAutoFill(ctx context.Context, ev *Event, nav callback.Nav, force bool) error {
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	p, err := b.profile(ctx, address, force)
	if err != nil {
		return err
	}

	text := []string{bold(constant.BUTTON_TEXT_AUTO_FILL), ""}
	var rows [][]tgbotapi.InlineKeyboardButton
	var pair []tgbotapi.InlineKeyboardButton
	for _, f := range profileFields {
		value := f.get(&p.Profile)
		if value == "" {
			value = "not set"
		}
		text = append(text, f.label+": "+escape(value))
		pair = append(pair, button(constant.EMOJI_PENCIL+" "+f.label, callback.ActionUpdateProfile, f.key))
		if len(pair) == 2 {
			rows = append(rows, pair)
			pair = nil
		}
	}
	if len(pair) > 0 {
		rows = append(rows, pair)
	}
	rows = append(rows,
		row(button(fmt.Sprintf("%s (%d)", constant.BUTTON_TEXT_CARDS, len(p.Cards)), callback.ActionProfileCards)),
		row(button(constant.BUTTON_TEXT_REFRESH, callback.ActionRefreshAutoFill)),
	)
	return b.render(ev, nav, lines(text...), b.keyboard(menuNav(nav), rows...))
}

func (b *TgBotServices) updateProfile(ctx context.Context, ev *Event, key string, _ callback.Nav) error {
	f, ok := findProfileField(key)
	if !ok {
		return fmt.Errorf("%w: unknown profile field %q", callback.ErrParams, key)
	}
	if _, err := b.ownerAddress(ctx, ev); err != nil {
		return err
	}
	text := "Send your " + strings.ToLower(f.label)
	if f.hint != "" {
		text += " (" + f.hint + ")"
	}
	return b.ask(ctx, ev, models.JobUpdateProfile, profilePayload{Field: f.key}, text+".")
}

func (b *TgBotServices) showCards(ctx context.Context, ev *Event, _ string, nav callback.Nav) error {
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	p, err := b.profile(ctx, address, false)
	if err != nil {
		return err
	}

	text := []string{bold(fmt.Sprintf("%s (%d)", constant.BUTTON_TEXT_CARDS, len(p.Cards))), ""}
	if len(p.Cards) == 0 {
		text = append(text, "No cards stored yet.")
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(p.Cards)+1)
	for i, c := range p.Cards {
		label := maskCard(c.CardNumber) + " · " + c.ExpireDate
		rows = append(rows, row(button(label, callback.ActionSelectCard, strconv.Itoa(i))))
	}
	rows = append(rows, row(button(constant.BUTTON_TEXT_ADD_CARD, callback.ActionUpdateCard, cardNew, strconv.Itoa(len(p.Cards)))))
	return b.render(ev, nav, lines(text...), b.keyboard(childNav(nav, callback.To(callback.ActionAutoFill)), rows...))
}

func cardAt(p *models.Profile, params string) (int, models.Card, error) {
	index, err := strconv.Atoi(params)
	if err != nil {
		return 0, models.Card{}, fmt.Errorf("%w: card %q", callback.ErrParams, params)
	}
	if index < 0 || index >= len(p.Cards) {
		return 0, models.Card{}, errNotFound("card", params)
	}
	return index, p.Cards[index], nil
}

func (b *TgBotServices) showCard(ctx context.Context, ev *Event, params string, nav callback.Nav) error {
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	p, err := b.profile(ctx, address, false)
	if err != nil {
		return err
	}
	index, c, err := cardAt(p, params)
	if err != nil {
		return err
	}
	cvc, err := b.Vault.Reveal(c.CVC)
	if err != nil {
		return fmt.Errorf("card %d: %w", index, err)
	}

	i := strconv.Itoa(index)
	text := lines(
		bold(constant.EMOJI_CARD+" "+maskCard(c.CardNumber)),
		"",
		"Number: "+code(c.CardNumber),
		"Expires: "+code(c.ExpireDate),
		"CVC: "+spoiler(cvc),
	)
	markup := b.keyboard(childNav(nav, callback.To(callback.ActionProfileCards)),
		row(
			button(constant.EMOJI_PENCIL+" Number", callback.ActionUpdateCard, cardNumber, i),
			button(constant.EMOJI_PENCIL+" Expiry", callback.ActionUpdateCard, cardExpiry, i),
			button(constant.EMOJI_PENCIL+" CVC", callback.ActionUpdateCard, cardCVC, i),
		),
		row(button(constant.BUTTON_TEXT_DELETE, callback.ActionDeleteCard, i)),
	)
	return b.render(ev, nav, text, markup)
}

// updateCard asks for one field of card, or for a whole new card.
// Params are "<field>_<index>".
func (b *TgBotServices) updateCard(ctx context.Context, ev *Event, params string, _ callback.Nav) error {
	parts, err := callback.SplitParams(params, 2)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("%w: card %q", callback.ErrParams, parts[1])
	}
	if _, err = b.ownerAddress(ctx, ev); err != nil {
		return err
	}

	var text string
	switch parts[0] {
	case cardNew:
		text = "Send the card as " + code("number,MM/YY,cvc") + "."
	case cardNumber:
		text = "Send the card number."
	case cardExpiry:
		text = "Send the expiry date as " + code("MM/YY") + "."
	case cardCVC:
		text = "Send the CVC."
	default:
		return fmt.Errorf("%w: unknown card field %q", callback.ErrParams, parts[0])
	}
	return b.ask(ctx, ev, models.JobUpdateProfile, profilePayload{Field: "card." + parts[0], Card: index}, text)
}

func (b *TgBotServices) deleteCard(ctx context.Context, ev *Event, params string, nav callback.Nav) error {
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	p, err := b.profile(ctx, address, false)
	if err != nil {
		return err
	}
	index, _, err := cardAt(p, params)
	if err != nil {
		return err
	}
	updated := *p
	updated.Cards = append(append([]models.Card(nil), p.Cards[:index]...), p.Cards[index+1:]...)
	if err = b.saveProfile(ctx, address, updated); err != nil {
		return err
	}
	b.shortReply(ev, "Card deleted.")
	return b.showCards(ctx, ev, "", nav)
}

func (b *TgBotServices) saveProfile(ctx context.Context, address string, p models.Profile) error {
	if err := b.Vault.UpdateProfile(ctx, address, p); err != nil {
		return err
	}
	_, err := b.profile(ctx, address, true)
	return err
}

func (b *TgBotServices) replyUpdateProfile(ctx context.Context, ev *Event, job *models.Job) error {
	payload, err := jobs.Payload[profilePayload](job)
	if err != nil {
		return err
	}
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}

	if field, ok := strings.CutPrefix(payload.Field, "card."); ok {
		return b.replyUpdateCard(ctx, ev, address, field, payload.Card)
	}

	f, ok := findProfileField(payload.Field)
	if !ok {
		return fmt.Errorf("unknown profile field %q", payload.Field)
	}
	if !f.check(b, ev.Text) {
		msg := "This is not a valid " + strings.ToLower(f.label)
		if f.hint != "" {
			msg += " (" + f.hint + ")"
		}
		return userErrorf("%s.", msg)
	}
	p, err := b.profile(ctx, address, false)
	if err != nil {
		return err
	}
	updated := *p
	f.set(&updated.Profile, ev.Text)
	if err = b.saveProfile(ctx, address, updated); err != nil {
		return err
	}
	b.shortReply(ev, f.label+" updated.")
	return b.showAutoFill(ctx, ev, "", callback.Nav{})
}

func (b *TgBotServices) replyUpdateCard(ctx context.Context, ev *Event, address, field string, index int) error {
	p, err := b.profile(ctx, address, false)
	if err != nil {
		return err
	}
	updated := *p
	updated.Cards = append([]models.Card(nil), p.Cards...)

	if field == cardNew {
		card, err := b.parseCard(ev.Text)
		if err != nil {
			return err
		}
		updated.Cards = append(updated.Cards, card)
		index = len(updated.Cards) - 1
	} else {
		if index < 0 || index >= len(updated.Cards) {
			return errNotFound("card", strconv.Itoa(index))
		}
		c := &updated.Cards[index]
		switch field {
		case cardNumber:
			number := normalizeCardNumber(ev.Text)
			if !isCardNumber(number) {
				return userErrorf("This is not a valid card number.")
			}
			c.CardNumber = number
		case cardExpiry:
			if !isCardExpiry(ev.Text) {
				return userErrorf("The expiry date must look like MM/YY.")
			}
			c.ExpireDate = ev.Text
		case cardCVC:
			if !isCVC(ev.Text) {
				return userErrorf("The CVC must have 3 or 4 digits.")
			}
			if c.CVC, err = b.Vault.Seal(ev.Text); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown card field %q", field)
		}
	}

	if err = b.saveProfile(ctx, address, updated); err != nil {
		return err
	}
	b.shortReply(ev, "Card saved.")
	return b.showCard(ctx, ev, strconv.Itoa(index), callback.Nav{})
}

// parseCard reads "number,MM/YY,cvc" and seals the CVC.
func (b *TgBotServices) parseCard(s string) (models.Card, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return models.Card{}, userErrorf("Send the card as number,MM/YY,cvc.")
	}
	number := normalizeCardNumber(strings.TrimSpace(parts[0]))
	expiry := strings.TrimSpace(parts[1])
	cvc := strings.TrimSpace(parts[2])
	switch {
	case !isCardNumber(number):
		return models.Card{}, userErrorf("This is not a valid card number.")
	case !isCardExpiry(expiry):
		return models.Card{}, userErrorf("The expiry date must look like MM/YY.")
	case !isCVC(cvc):
		return models.Card{}, userErrorf("The CVC must have 3 or 4 digits.")
	}
	sealed, err := b.Vault.Seal(cvc)
	if err != nil {
		return models.Card{}, err
	}
	return models.Card{CardNumber: number, CVC: sealed, ExpireDate: expiry}, nil
}
