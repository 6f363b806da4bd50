package mqtt

import (
	"fmt"
	"strings"
)

// Topic layout: graylogic/{category}/soundscape/{site}.
const (
	// TopicRoot is the first level of every topic.
	TopicRoot = "graylogic"

	// Component is the protocol level used for soundscape topics.
	Component = "soundscape"
)

// Topics builds the topics for one site.
//
//	topics := mqtt.Topics{Site: "garden"}
//	topics.Command() // "graylogic/command/soundscape/garden"
type Topics struct {
	Site string
}

func (t Topics) build(category string) string {
	return fmt.Sprintf("%s/%s/%s/%s", TopicRoot, category, Component, t.Site)
}

// Command is where remote commands arrive.
func (t Topics) Command() string { return t.build("command") }

// Ack is where command acknowledgements are published.
func (t Topics) Ack() string { return t.build("ack") }

// State carries the retained scheduler status.
func (t Topics) State() string { return t.build("state") }

// Event carries one message per scheduler transition.
func (t Topics) Event() string { return t.build("event") }

// Health carries the retained online/offline status, including the LWT.
func (t Topics) Health() string { return t.build("health") }

// AllCommands matches commands for every site.
//
// Pattern: graylogic/command/soundscape/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/%s/+", TopicRoot, Component)
}

// SiteFromTopic returns the site level of a soundscape topic, or "" if
// topic does not follow the soundscape layout.
func SiteFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicRoot || parts[2] != Component {
		return ""
	}
	return parts[3]
}
