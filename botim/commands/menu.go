package commands

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
)

// minMenuQuery keeps one or two stray letters from matching every entry.
const minMenuQuery = 3

// MenuEntry maps a phrase people type to the slash command that serves it.
type MenuEntry struct {
	Phrase  string
	Command string
	Help    string
}

// Menu is the free-text router. It implements fuzzy.Source.
type Menu []MenuEntry

var DefaultMenu = Menu{
	{Phrase: "daily bonus", Command: "daily", Help: "claim your daily bonus"},
	{Phrase: "kunlik bonus", Command: "daily", Help: "claim your daily bonus"},
	{Phrase: "daily quiz", Command: "quiz", Help: "answer a question for coins"},
	{Phrase: "spin wheel", Command: "spin", Help: "spin the wheel once a day"},
	{Phrase: "send money", Command: "send", Help: "send coins to another account"},
	{Phrase: "pul yuborish", Command: "send", Help: "send coins to another account"},
	{Phrase: "balance", Command: "balance", Help: "view your balance"},
	{Phrase: "balansim", Command: "balance", Help: "view your balance"},
	{Phrase: "transactions history", Command: "transactions", Help: "your latest ledger events"},
	{Phrase: "tranzaksiyalar", Command: "transactions", Help: "your latest ledger events"},
	{Phrase: "leaderboard", Command: "leaderboard", Help: "richest accounts"},
	{Phrase: "referal havola", Command: "invite", Help: "show your referral code"},
	{Phrase: "invite friends", Command: "invite", Help: "show your referral code"},
	{Phrase: "missions", Command: "missions", Help: "check your missions"},
	{Phrase: "buyurtma berish", Command: "order", Help: "place an order with the operators"},
	{Phrase: "place order", Command: "order", Help: "place an order with the operators"},
}

func (m Menu) String(i int) string { return m[i].Phrase }

func (m Menu) Len() int { return len(m) }

// Match returns the entry whose phrase best matches the typed text.
func (m Menu) Match(text string) (MenuEntry, bool) {
	q := normalizeMenuText(text)
	if len([]rune(q)) < minMenuQuery {
		return MenuEntry{}, false
	}
	matches := fuzzy.FindFrom(q, m)
	if len(matches) == 0 {
		return MenuEntry{}, false
	}
	return m[matches[0].Index], true
}

// Help lists every command once, in menu order.
func (m Menu) Help() string {
	seen := make(map[string]bool, len(m))
	var sb strings.Builder
	for _, e := range m {
		if seen[e.Command] {
			continue
		}
		seen[e.Command] = true
		fmt.Fprintf(&sb, "`/%s` %s\n", e.Command, e.Help)
	}
	return sb.String()
}

// normalizeMenuText drops emoji and punctuation from button-style labels
// such as "🎁 Kunlik bonus".
func normalizeMenuText(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
