package service

import (
	"context"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/callback"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/constant"
)

var aboutLinks = []struct{ title, url string }{
	{"Website", "https://hashieldai.com"},
	{"Docs", "https://docs.hashieldai.com"},
	{"Telegram", "https://t.me/HashieldAI_Portal"},
	{"X", "https://x.com/HashieldAI"},
}

func (b *TgBotServices) showAbout(_ context.Context, ev *Event, _ string, nav callback.Nav) error {
	text := []string{
		bold(constant.BUTTON_TEXT_ABOUT),
		"",
		"Hashield keeps your wallets, web2 logins, defi wallets and auto-fill data encrypted, " +
			"and lets you reach them from Telegram.",
		"",
	}
	for _, l := range aboutLinks {
		text = append(text, constant.EMOJI_LINK+" "+link(l.title, l.url))
	}
	return b.render(ev, nav, lines(text...), b.keyboard(menuNav(nav)))
}
