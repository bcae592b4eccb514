// Package cache provides an in-memory TTL key/value cache for remote
// responses. Entries expire lazily on access and are additionally removed by
// a periodic sweep, so a long-lived session does not accumulate dead entries.
package cache
