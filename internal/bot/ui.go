package bot

import (
	tele "gopkg.in/telebot.v4"

	"ttsbot/internal/speech"
	kit "ttsbot/internal/transport"
)

// Callback payloads. lang_<code> carries the chosen language after the
// underscore; the rest are fixed tokens.
const (
	cbChangeLang = "change_lang"
	cbHelp       = "help"
	cbAbout      = "about"
	cbLangPrefix = "lang_"
)

var languageFlags = map[string]string{
	"en": "🇬🇧",
	"es": "🇪🇸",
	"fr": "🇫🇷",
	"de": "🇩🇪",
	"it": "🇮🇹",
	"pt": "🇵🇹",
	"ru": "🇷🇺",
	"hi": "🇮🇳",
	"ja": "🇯🇵",
	"ko": "🇰🇷",
	"ml": "🇮🇳",
}

// mainMenu is the keyboard attached to welcome/help/confirmation messages.
func mainMenu() *tele.ReplyMarkup {
	rm := &tele.ReplyMarkup{}
	rm.Inline(
		rm.Row(tele.Btn{Text: "🔄 Change Language", Data: cbChangeLang}),
		rm.Row(
			tele.Btn{Text: "❓ Help", Data: cbHelp},
			tele.Btn{Text: "ℹ️ About", Data: cbAbout},
		),
	)
	return rm
}

// languageMenu renders one button per supported language, two per row.
func languageMenu() *tele.ReplyMarkup {
	rm := &tele.ReplyMarkup{}
	buttons := make([]tele.Btn, 0, len(speech.Languages))
	for _, l := range speech.Languages {
		flag := languageFlags[l.Code]
		if flag == "" {
			flag = "🌐"
		}
		buttons = append(buttons, tele.Btn{Text: flag + " " + l.Name, Data: cbLangPrefix + l.Code})
	}
	rm.Inline(rm.Split(2, buttons)...)
	return rm
}

// menuCommands is the Telegram /menu autocomplete list.
func menuCommands() []kit.BotCommand {
	return []kit.BotCommand{
		{Command: "start", Description: "Show the welcome message"},
		{Command: "help", Description: "Show help information"},
		{Command: "lang", Description: "Change language"},
	}
}
