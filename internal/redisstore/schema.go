package redisstore

import (
	"fmt"
	"strconv"

	"github.com/roach88/labledger/internal/ledger"
)

// RecordKey returns the Redis key for a record.
// Pattern: labledger:{namespace}:record:{key_hex}
func RecordKey(namespace string, key ledger.Key) string {
	return fmt.Sprintf("labledger:%s:record:%s", namespace, key)
}

// RecordEventsChannel returns the Pub/Sub channel for record notices.
// Pattern: labledger:{namespace}:record_events
func RecordEventsChannel(namespace string) string {
	return fmt.Sprintf("labledger:%s:record_events", namespace)
}

const (
	fieldPositive = "positive"
	fieldTester   = "tester"
)

// RecordToHash converts a record to Redis hash fields.
func RecordToHash(rec ledger.Record) map[string]any {
	positive := "0"
	if rec.Positive() {
		positive = "1"
	}
	return map[string]any{
		fieldPositive: positive,
		fieldTester:   rec.Tester(),
	}
}

// HashToRecord converts Redis hash fields back to a record.
func HashToRecord(hash map[string]string) (ledger.Record, error) {
	raw, ok := hash[fieldPositive]
	if !ok {
		return ledger.Record{}, fmt.Errorf("missing %q field", fieldPositive)
	}
	positive, err := strconv.ParseBool(raw)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("invalid %q field %q: %w", fieldPositive, raw, err)
	}
	tester, ok := hash[fieldTester]
	if !ok {
		return ledger.Record{}, fmt.Errorf("missing %q field", fieldTester)
	}
	return ledger.NewRecord(positive, []byte(tester)), nil
}
