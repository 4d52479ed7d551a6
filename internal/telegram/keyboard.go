package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
)

// NoopCallback is carried by the page indicator. Its handler only answers the query.
const NoopCallback = "noop"

// ListItem is one row of a paginated list keyboard.
type ListItem struct {
	Label string
	Data  string
}

// Pager reads and writes the "<prefix>_<page>" callbacks of one paginated list.
type Pager struct {
	Prefix  string
	PerPage int
}

func (p Pager) Data(page int) string {
	return fmt.Sprintf("%s_%d", p.Prefix, page)
}

// MatchPrefix is the callback prefix the page handler is registered under.
func (p Pager) MatchPrefix() string {
	return p.Prefix + "_"
}

// Page reads the page number from callback data; anything unreadable is page 0.
func (p Pager) Page(data string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(data, p.MatchPrefix()))
	if err != nil {
		return 0
	}
	return n
}

// Window clamps page to the valid range for total items and returns the
// bounds of that page.
func (p Pager) Window(total, page int) (start, end, clamped, totalPages int) {
	totalPages = max((total+p.PerPage-1)/p.PerPage, 1)
	page = min(max(page, 0), totalPages-1)
	start = page * p.PerPage
	end = min(start+p.PerPage, total)
	return start, end, page, totalPages
}

// Keyboard puts one item per row and, with more than one page, a
// prev / indicator / next row underneath.
func (p Pager) Keyboard(items []ListItem, page, totalPages int) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(items)+1)
	for _, it := range items {
		rows = append(rows, []models.InlineKeyboardButton{Button(it.Label, it.Data)})
	}
	if totalPages <= 1 {
		return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
	}

	var nav []models.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, Button("⬅️", p.Data(page-1)))
	}
	nav = append(nav, Button(fmt.Sprintf("%d/%d", page+1, totalPages), NoopCallback))
	if page < totalPages-1 {
		nav = append(nav, Button("➡️", p.Data(page+1)))
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: append(rows, nav)}
}

func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// ActionKeyboard lays buttons side by side in a single row.
func ActionKeyboard(buttons ...models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{buttons},
	}
}
