package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nandanaasingh09/NDMI-Calculator/internal/properties"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// Notifier posts run outcomes to Discord webhooks. Either URL may be
// empty, in which case the corresponding notification is skipped.
type Notifier struct {
	ErrorURL   string
	SuccessURL string
	HTTPClient *http.Client
}

func NewNotifier(settings properties.Settings) *Notifier {
	return &Notifier{
		ErrorURL:   settings.DiscordErrorNotificationURL,
		SuccessURL: settings.DiscordSuccessNotificationURL,
		HTTPClient: http.DefaultClient,
	}
}

func (n *Notifier) SendError(errorMessage string) error {
	embed := DiscordEmbed{
		Title:       "🚨 Error Notification",
		Description: fmt.Sprintf("An error occurred: %s", errorMessage),
		Color:       16711680, // Red color
	}
	return n.send(n.ErrorURL, embed)
}

func (n *Notifier) SendSuccess(successMessage string) error {
	embed := DiscordEmbed{
		Title:       "✅ Success Notification",
		Description: successMessage,
		Color:       65280, // Green color
	}
	return n.send(n.SuccessURL, embed)
}

func (n *Notifier) send(url string, embed DiscordEmbed) error {
	if url == "" {
		return nil
	}

	payload, err := json.Marshal(DiscordMessage{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return err
	}

	resp, err := n.HTTPClient.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}

	return nil
}
