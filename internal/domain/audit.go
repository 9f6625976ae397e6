package domain

import (
	"encoding/json"
	"time"
)

type AuditOperation string

const (
	AuditInsert AuditOperation = "INSERT"
	AuditUpdate AuditOperation = "UPDATE"
	AuditDelete AuditOperation = "DELETE"
)

const SystemActor = "SYSTEM"

type AuditEntry struct {
	ID        int64
	TableName string
	RecordID  int64
	Operation AuditOperation
	OldValues json.RawMessage
	NewValues json.RawMessage
	Actor     string
	Timestamp time.Time
}
