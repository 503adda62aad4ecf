package enums

import "fmt"

// WebhookTopic identifies the normalized event category carried on a
// webhook message.
type WebhookTopic string

const (
	WebhookTopicOrderCreate WebhookTopic = "orders/create"
	WebhookTopicOrderUpdate WebhookTopic = "orders/updated"
	WebhookTopicTracking    WebhookTopic = "tracking"
)

var validWebhookTopics = []WebhookTopic{
	WebhookTopicOrderCreate,
	WebhookTopicOrderUpdate,
	WebhookTopicTracking,
}

// String implements fmt.Stringer.
func (t WebhookTopic) String() string {
	return string(t)
}

// IsValid reports whether the value is a known WebhookTopic.
func (t WebhookTopic) IsValid() bool {
	for _, candidate := range validWebhookTopics {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseWebhookTopic converts raw input into a WebhookTopic.
func ParseWebhookTopic(value string) (WebhookTopic, error) {
	for _, candidate := range validWebhookTopics {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid webhook topic %q", value)
}
