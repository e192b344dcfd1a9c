package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/api"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/callback"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/jobs"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type credentialField string

const (
	credentialUsername credentialField = "username"
	credentialEmail    credentialField = "email"
	credentialPassword credentialField = "password"
)

type credentialToggle int

const (
	toggleAutoLogin credentialToggle = iota
	toggleAutoFill
	toggleProtect
)

type credentialPayload struct {
	ID    string          `json:"id"`
	Field credentialField `json:"field"`
}

var credentialColumns = []api.Column{
	{Title: "Websites", Key: "websites"},
	{Title: "Email", Key: "email"},
	{Title: "Username", Key: "username"},
	{Title: "Password", Key: "password"},
	{Title: "Auto Login", Key: "autoLogin"},
	{Title: "AutoFill", Key: "autoFill"},
	{Title: "Protect Item", Key: "protect"},
	{Title: "Note", Key: "note"},
}

func credentialName(c models.Credential) string {
	if len(c.URL) == 0 {
		return "Untitled"
	}
	return detectNameFromDomain(c.URL[0])
}

func (b *TgBotServices) showCredentials(ctx context.Context, ev *Event, _ string, nav callback.Nav) error {
	return b.renderCredentials(ctx, ev, nav, false)
}

func (b *TgBotServices) refreshCredentials(ctx context.Context, ev *Event, _ string, nav callback.Nav) error {
	if err := b.renderCredentials(ctx, ev, nav, true); err != nil {
		return err
	}
	b.refreshed(ev)
	return nil
}

func (b *TgBotServices) renderCredentials(ctx context.Context, ev *Event, nav callback.Nav, force bool) error {
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	list, err := b.credentials(ctx, address, force)
	if err != nil {
		return err
	}

	text := []string{bold(fmt.Sprintf("%s (%d)", constant.BUTTON_TEXT_WEB2_LOGINS, len(list))), ""}
	if len(list) == 0 {
		text = append(text, "No logins stored yet. Download the template, fill it in and import it.")
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list)+2)
	for _, c := range list {
		label := credentialName(c)
		if c.Username != "" {
			label += " · " + c.Username
		} else if c.Email != "" {
			label += " · " + c.Email
		}
		rows = append(rows, row(button(label, callback.ActionSelectCredential, c.ID)))
	}
	rows = append(rows,
		row(
			button(constant.BUTTON_TEXT_TEMPLATE, callback.ActionTemplateCredentials),
			button(constant.BUTTON_TEXT_IMPORT, callback.ActionImportCredentials),
		),
		row(button(constant.BUTTON_TEXT_REFRESH, callback.ActionRefreshWeb2Logins)),
	)
	return b.render(ev, nav, lines(text...), b.keyboard(menuNav(nav), rows...))
}

func (b *TgBotServices) showCredential(ctx context.Context, ev *Event, id string, nav callback.Nav) error {
	return b.renderCredential(ctx, ev, id, nav, false)
}

func (b *TgBotServices) refreshCredential(ctx context.Context, ev *Event, id string, nav callback.Nav) error {
	if err := b.renderCredential(ctx, ev, id, nav, true); err != nil {
		return err
	}
	b.refreshed(ev)
	return nil
}

func (b *TgBotServices) renderCredential(ctx context.Context, ev *Event, id string, nav callback.Nav, force bool) error {
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	list, err := b.credentials(ctx, address, force)
	if err != nil {
		return err
	}
	c, err := findCredential(list, id)
	if err != nil {
		return err
	}
	password, err := b.Vault.Reveal(c.Password)
	if err != nil {
		return fmt.Errorf("credential %s: %w", c.ID, err)
	}

	sites := make([]string, 0, len(c.URL))
	for _, u := range c.URL {
		sites = append(sites, link(getDomain(u), u))
	}
	text := []string{
		bold(constant.EMOJI_KEY + " " + credentialName(c)),
		"",
		"Websites: " + strings.Join(sites, ", "),
		"Email: " + code(c.Email),
		"Username: " + code(c.Username),
		"Password: " + spoiler(password),
		"",
		checkbox(c.AutoLogin) + " Auto login",
		checkbox(c.AutoFill) + " Auto fill",
		checkbox(c.IsProtect) + " Protect item",
	}
	if c.Note != "" {
		text = append(text, "", "Note: "+escape(c.Note))
	}

	markup := b.keyboard(childNav(nav, callback.To(callback.ActionWeb2Logins)),
		row(
			button(constant.EMOJI_PENCIL+" Username", callback.ActionEditCredentialUsername, c.ID),
			button(constant.EMOJI_PENCIL+" Email", callback.ActionEditCredentialEmail, c.ID),
			button(constant.EMOJI_PENCIL+" Password", callback.ActionEditCredentialPassword, c.ID),
		),
		row(
			button(checkbox(c.AutoLogin)+" Auto login", callback.ActionToggleCredentialAutoLogin, c.ID),
			button(checkbox(c.AutoFill)+" Auto fill", callback.ActionToggleCredentialAutoFill, c.ID),
		),
		row(button(checkbox(c.IsProtect)+" Protect item", callback.ActionToggleCredentialProtect, c.ID)),
		row(
			button(constant.BUTTON_TEXT_REFRESH, callback.ActionRefreshCredential, c.ID),
			button(constant.BUTTON_TEXT_DELETE, callback.ActionDeleteCredential, c.ID),
		),
	)
	return b.render(ev, nav, lines(text...), markup)
}

func (b *TgBotServices) editCredential(field credentialField) HandlerFunc {
	return func(ctx context.Context, ev *Event, id string, _ callback.Nav) error {
		address, err := b.ownerAddress(ctx, ev)
		if err != nil {
			return err
		}
		list, err := b.credentials(ctx, address, false)
		if err != nil {
			return err
		}
		c, err := findCredential(list, id)
		if err != nil {
			return err
		}
		return b.ask(ctx, ev, models.JobUpdateCredential, credentialPayload{ID: c.ID, Field: field},
			fmt.Sprintf("Send the new %s for %s.", field, bold(credentialName(c))))
	}
}

func (b *TgBotServices) replyUpdateCredential(ctx context.Context, ev *Event, job *models.Job) error {
	p, err := jobs.Payload[credentialPayload](job)
	if err != nil {
		return err
	}
	value := ev.Text
	if p.Field == credentialPassword {
		value = ev.RawText
	}
	switch p.Field {
	case credentialUsername:
		if !isUsername(value) {
			return userErrorf("A username may contain letters, digits, dots and underscores.")
		}
	case credentialEmail:
		if !isEmail(value) {
			return userErrorf("This is not a valid email address.")
		}
	case credentialPassword:
		if strings.TrimSpace(value) == "" {
			return userErrorf("The password can not be empty.")
		}
	default:
		return fmt.Errorf("unknown credential field %q", p.Field)
	}

	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	list, err := b.credentials(ctx, address, false)
	if err != nil {
		return err
	}
	c, err := findCredential(list, p.ID)
	if err != nil {
		return err
	}
	switch p.Field {
	case credentialUsername:
		c.Username = value
	case credentialEmail:
		c.Email = value
	case credentialPassword:
		if c.Password, err = b.Vault.Seal(value); err != nil {
			return err
		}
	}
	if err = b.Vault.UpdateCredential(ctx, address, c); err != nil {
		return err
	}
	if _, err = b.credentials(ctx, address, true); err != nil {
		return err
	}
	b.shortReply(ev, fmt.Sprintf("The %s was updated.", p.Field))
	return b.showCredential(ctx, ev, c.ID, callback.Nav{})
}

func (b *TgBotServices) toggleCredential(toggle credentialToggle) HandlerFunc {
	return func(ctx context.Context, ev *Event, id string, nav callback.Nav) error {
		address, err := b.ownerAddress(ctx, ev)
		if err != nil {
			return err
		}
		list, err := b.credentials(ctx, address, false)
		if err != nil {
			return err
		}
		c, err := findCredential(list, id)
		if err != nil {
			return err
		}
		switch toggle {
		case toggleAutoLogin:
			c.AutoLogin = !c.AutoLogin
		case toggleAutoFill:
			c.AutoFill = !c.AutoFill
		case toggleProtect:
			c.IsProtect = !c.IsProtect
		}
		if err = b.Vault.UpdateCredential(ctx, address, c); err != nil {
			return err
		}
		if _, err = b.credentials(ctx, address, true); err != nil {
			return err
		}
		return b.showCredential(ctx, ev, c.ID, nav)
	}
}

func (b *TgBotServices) deleteCredential(ctx context.Context, ev *Event, id string, nav callback.Nav) error {
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	if err = b.Vault.DeleteCredentials(ctx, address, []string{id}); err != nil {
		return err
	}
	if _, err = b.credentials(ctx, address, true); err != nil {
		return err
	}
	b.shortReply(ev, "Login deleted.")
	return b.showCredentials(ctx, ev, "", nav)
}

func (b *TgBotServices) sendCredentialsTemplate(_ context.Context, ev *Event, _ string, _ callback.Nav) error {
	data, err := api.BuildSheet(credentialColumns, []map[string]string{{
		"websites":  "google.com, accounts.google.com",
		"email":     "john@example.com",
		"username":  "john.doe",
		"password":  "Secret#123",
		"autoLogin": "yes",
		"autoFill":  "yes",
		"protect":   "no",
		"note":      "Personal account",
	}})
	if err != nil {
		return err
	}
	return b.sendDocument(ev.ChatID, "web2_logins_template.xlsx", data,
		"Fill in one login per row, replace the example and import the file.")
}

func (b *TgBotServices) importCredentials(ctx context.Context, ev *Event, _ string, _ callback.Nav) error {
	if _, err := b.ownerAddress(ctx, ev); err != nil {
		return err
	}
	return b.ask(ctx, ev, models.JobImportCredentials, struct{}{},
		"Send the filled "+bold("Web2 Logins")+" template as an .xlsx file.")
}

func (b *TgBotServices) replyImportCredentials(ctx context.Context, ev *Event, _ *models.Job) error {
	records, err := b.readDocument(ctx, ev, credentialColumns)
	if err != nil {
		return err
	}
	creds := make([]models.Credential, 0, len(records))
	for i, r := range records {
		c, err := credentialFromRecord(r)
		if err != nil {
			return userErrorf("Row %d: %s", i+2, err.Error())
		}
		if c.Password, err = b.Vault.Seal(c.Password); err != nil {
			return err
		}
		creds = append(creds, c)
	}

	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	if err = b.Vault.CreateCredentials(ctx, address, creds); err != nil {
		return err
	}
	if _, err = b.credentials(ctx, address, true); err != nil {
		return err
	}
	b.shortReply(ev, fmt.Sprintf("%d logins imported.", len(creds)))
	return b.showCredentials(ctx, ev, "", callback.Nav{})
}

// credentialFromRecord validates one template row. The password is returned
// in clear and must be sealed by the caller.
func credentialFromRecord(r map[string]string) (models.Credential, error) {
	urls, ok := parseWebsites(r["websites"])
	if !ok {
		return models.Credential{}, fmt.Errorf("invalid websites %q", r["websites"])
	}
	if r["email"] != "" && !isEmail(r["email"]) {
		return models.Credential{}, fmt.Errorf("invalid email %q", r["email"])
	}
	if r["username"] != "" && !isUsername(r["username"]) {
		return models.Credential{}, fmt.Errorf("invalid username %q", r["username"])
	}
	if r["password"] == "" {
		return models.Credential{}, fmt.Errorf("the password is empty")
	}
	return models.Credential{
		URL:       urls,
		Email:     r["email"],
		Username:  r["username"],
		Password:  r["password"],
		AutoLogin: isYes(r["autoLogin"]),
		AutoFill:  isYes(r["autoFill"]),
		IsProtect: isYes(r["protect"]),
		Note:      r["note"],
	}, nil
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "x":
		return true
	}
	return false
}
