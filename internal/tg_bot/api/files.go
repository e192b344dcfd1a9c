package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// MaxDocumentSize caps imported spreadsheets.
const MaxDocumentSize = 5 << 20

var ErrDocumentTooLarge = errors.New("the file is too large")

// FileURLer resolves a Telegram file id to a download URL. *tgbotapi.BotAPI
// implements it.
type FileURLer interface {
	GetFileDirectURL(fileID string) (string, error)
}

// Files downloads documents users send to the bot.
type Files struct {
	bot    FileURLer
	client *resty.Client
}

func NewFiles(bot FileURLer) *Files {
	return &Files{
		bot:    bot,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// Download returns the content of the Telegram file fileID.
func (f *Files) Download(ctx context.Context, fileID string, size int) ([]byte, error) {
	if size > MaxDocumentSize {
		return nil, ErrDocumentTooLarge
	}
	url, err := f.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", fileID, err)
	}
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download file %s: status %d", fileID, resp.StatusCode())
	}
	if len(resp.Body()) > MaxDocumentSize {
		return nil, ErrDocumentTooLarge
	}
	return resp.Body(), nil
}
