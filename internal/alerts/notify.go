package alerts

import (
	"fmt"

	"hostpulse/internal/integrations/discord"
)

// DiscordNotifier posts fired alerts to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
}

func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{webhookURL: webhookURL}
}

func (n *DiscordNotifier) Notify(title, message string) error {
	embed := discord.NewEmbed(title, message, discord.ColorWarning)
	status, err := discord.Post(n.webhookURL, discord.WebhookPayload{Embeds: []discord.Embed{embed}})
	if err != nil {
		return err
	}
	if status != 0 && (status < 200 || status >= 300) {
		return fmt.Errorf("webhook returned status %d", status)
	}
	return nil
}
