// Package events defines the clearing events emitted on the event bus.
//
// Available event types:
//   - SlotCleared: one (market, time slot) book was cleared or failed
//   - OrderRejected: a malformed order was excluded from its book
//   - BatchCompleted: a runner invocation finished
package events
