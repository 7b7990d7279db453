package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// FileFetcher opens a file that was sent to the bot.
type FileFetcher interface {
	Fetch(ctx context.Context, fileID string) (io.ReadCloser, error)
}

type TelegramFiles struct {
	bot    *bot.Bot
	client *http.Client
}

func NewTelegramFiles(b *bot.Bot, client *http.Client) *TelegramFiles {
	if client == nil {
		client = http.DefaultClient
	}
	return &TelegramFiles{bot: b, client: client}
}

func (f *TelegramFiles) Fetch(ctx context.Context, fileID string) (io.ReadCloser, error) {
	file, err := f.bot.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.bot.FileDownloadLink(file), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download file %s: unexpected status %d", fileID, resp.StatusCode)
	}
	return resp.Body, nil
}

// attachedFileID picks the largest photo size or an attached document.
func attachedFileID(msg *tgmodels.Message) string {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID
	}
	if msg.Document != nil {
		return msg.Document.FileID
	}
	return ""
}
