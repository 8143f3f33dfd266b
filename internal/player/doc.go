// Package player holds the playback and queue state machine.
//
// A [Controller] owns which item is current, whether it is playing, and the queue of items
// that follow. Every command takes the controller lock, applies its transition, and then
// drives the [Medium] that actually produces sound. Commands are applied in the order they
// arrive and are never coalesced, so selecting the current item twice toggles twice.
// The lock is released while an item without a preview waits on its source lookup; a newer
// selection made meanwhile wins.
//
// Queue rules:
//   - selecting an item from a container queues the rest of that container, wrapping
//     around to the items before it
//   - selecting an item with no container (or one that does not hold it) queues every
//     other known item
//   - advancing pops the head of the queue; an empty queue makes advance a no-op
//   - retreat only rewinds the current item, there is no history
//
// [ProcessMedium] plays URLs through an external command such as ffplay.
package player
