// Package cache provides the keyed asynchronous caches that sit between
// callers and the archive transport.
//
// SingleFlight memoizes one shared computation per key with LRU eviction.
// Slot holds at most one keyed value and replaces it whenever a different key
// is requested.
package cache
