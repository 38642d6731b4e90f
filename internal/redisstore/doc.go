// Package redisstore keeps labledger records in Redis and publishes
// notices on Redis Pub/Sub.
//
// Keys and channels are namespaced so several ledgers can share one server:
//
//	labledger:{namespace}:record:{key_hex}   hash {positive: "1"|"0", tester: raw bytes}
//	labledger:{namespace}:record_events      channel carrying notice JSON
//
// Pub/Sub delivery is at-most-once. Subscribers that need every event read
// the SQLite journal instead.
package redisstore
