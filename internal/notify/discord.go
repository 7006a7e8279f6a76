/**
 * @description
 * Discord implementation of the notification channel. The bot owner is
 * notified in a configured channel when the banking session needs to be
 * reconnected, and the same message is edited once the reconnection is
 * confirmed.
 *
 * Messages are sent over Discord's REST API; no gateway connection is opened.
 *
 * @dependencies
 * - github.com/bwmarrin/discordgo: Discord API client.
 */

package notify

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordNotifier posts to one configured Discord channel.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordNotifier creates a notifier authenticated with the bot token.
func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: channelID}, nil
}

// SendReconnectLink publishes the consent link and returns the message id as
// the handle for later edits.
func (n *DiscordNotifier) SendReconnectLink(text, link string) (string, error) {
	message, err := n.session.ChannelMessageSend(n.channelID, text+"\n"+link)
	if err != nil {
		return "", fmt.Errorf("failed to publish reconnect link: %w", err)
	}
	return message.ID, nil
}

// Edit replaces the content of a previously sent message.
func (n *DiscordNotifier) Edit(handle, text string) error {
	if _, err := n.session.ChannelMessageEdit(n.channelID, handle, text); err != nil {
		return fmt.Errorf("failed to edit message %s: %w", handle, err)
	}
	return nil
}
