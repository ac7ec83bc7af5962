// Package outbox provides the durable event model behind the event bus:
// persisted SystemEvent rows with an OPEN -> PROCESSING -> COMPLETED/FAILED
// lifecycle, bounded retries, and a closed union of typed payloads.
//
// Key business rules:
//   - An event row is written before any handler runs, so handling survives
//     crashes; the background sweep re-drives OPEN rows
//   - Retries are bounded by MaxRetries; an exhausted event stays FAILED and
//     becomes an operational alert, never an infinite loop
//   - A stuck PROCESSING claim is requeued by the reaper without consuming
//     retry budget
//   - Payloads are strongly typed; DecodePayload switches exhaustively over
//     the closed tag set
package outbox
