package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"newsagent/internal/domain"
)

const alertHeader = "★ High Rating News"

// SlackSender posts alerts to an incoming webhook.
type SlackSender struct {
	webhookURL string
}

func NewSlackSender(webhookURL string) *SlackSender {
	return &SlackSender{webhookURL: webhookURL}
}

func (s *SlackSender) Name() string { return "slack" }

func (s *SlackSender) SendAlert(ctx context.Context, alert domain.Alert) error {
	msg := &slack.WebhookMessage{
		Text:   fmt.Sprintf("%s: %s", alertHeader, alert.Title),
		Blocks: &slack.Blocks{BlockSet: AlertBlocks(alert)},
	}
	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}

// AlertBlocks renders a header, the linked title with source and stars, and the
// comment when present.
func AlertBlocks(alert domain.Alert) []slack.Block {
	title := alert.Title
	if title == "" {
		title = alert.URL
	}
	source := alert.Source
	if source == "" {
		source = "-"
	}

	body := fmt.Sprintf("*<%s|%s>*\nSource: %s | Rating: %s",
		linkTarget(alert.URL), escape(title), escape(source), strings.Repeat("★", alert.Rating))

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, alertHeader, true, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, body, false, false), nil, nil),
	}
	if c := strings.TrimSpace(alert.Comment); c != "" {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, "💬 "+escape(c), false, false),
		))
	}
	return blocks
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Inside <url|label>, a literal | or > in the url ends the target early.
var linkEscaper = strings.NewReplacer("&", "&amp;", "<", "%3C", ">", "%3E", "|", "%7C")

func linkTarget(url string) string {
	return linkEscaper.Replace(url)
}

func escape(s string) string {
	return slackEscaper.Replace(s)
}
