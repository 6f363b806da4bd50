// Package history persists what the soundscape played.
//
// Each sequence is a row in the sequences table with its planned and
// played counts and the reason it ended; each play command is a row in
// plays. The settings table holds the runtime configuration last set over
// MQTT so it survives a restart.
//
// Recorder turns scheduler events into repository writes and is meant to
// run as an event sink, off the polling goroutine.
package history
