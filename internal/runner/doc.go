// Package runner drives a sequencer.Scheduler from a single goroutine.
//
// Run owns the scheduler: a ticker calls Poll at the configured interval
// and commands submitted from other goroutines (MQTT handlers, main) are
// applied between polls, so the scheduler needs no locking. Scheduler
// events are copied into a buffered channel without blocking the loop and
// fanned out to sinks (history, metrics, MQTT) by a dispatch goroutine.
//
//	r := runner.New(sched, runner.Options{PollInterval: 5 * time.Millisecond, Sinks: sinks})
//	go r.Run(ctx)
//	err := r.Do(ctx, func(s *sequencer.Scheduler) error { s.Start(); return nil })
package runner
