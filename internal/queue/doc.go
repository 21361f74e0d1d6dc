// Package queue implements a single-consumer, priority-aware asynchronous
// work queue. It serializes access to a downstream resource by executing
// admitted tasks strictly one at a time, while producers receive a Future
// immediately and await its resolution. The package provides admission
// control (bounded or unbounded), priority-based ordering across five
// lanes, cooperative cancellation and per-task timeouts, and live runtime
// statistics including a sliding window of recent completion durations.
package queue
