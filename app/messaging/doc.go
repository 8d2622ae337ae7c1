// Package messaging provides a broker-agnostic API for publishing and
// consuming email jobs.
//
// Business code depends on the Publisher and Consumer interfaces only, so the
// channel (Google Pub/Sub or a Redis stream) can be swapped through
// configuration.
package messaging
