// Package remote exposes the soundscape over MQTT.
//
// Commands arrive as JSON on graylogic/command/soundscape/{site}:
//
//	{"id": "cmd-1", "command": "configure", "parameters": {"max_track": 12}, "source": "api"}
//
// Supported commands are start, stop, trigger, end_sequence, configure and
// volume. Every command is acknowledged on graylogic/ack/soundscape/{site}.
// Scheduler events are published on graylogic/event/soundscape/{site} and
// each one refreshes the retained status on graylogic/state/soundscape/{site}.
package remote
