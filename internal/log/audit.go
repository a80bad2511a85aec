//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

package log

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditState is the outcome of an audited action.
type AuditState string

const AuditCreated AuditState = "created"
const AuditErrored AuditState = "error"
const AuditSuccess AuditState = "success"

// AuditAction mirrors the wire Action variants (internal/wire) so every
// dispatched request produces exactly one audit entry.
type AuditAction string

const AuditGenShares AuditAction = "gen-shares"
const AuditShare AuditAction = "share"
const AuditUnlock AuditAction = "unlock"
const AuditStore AuditAction = "store"
const AuditRead AuditAction = "read"
const AuditGetThreshold AuditAction = "get-threshold"
const AuditAutoLock AuditAction = "auto-lock"

// AuditEntry is a single audit log record for one dispatched action. It is
// never persisted to the key-value database; it exists purely for
// observability and is written to the structured logger.
type AuditEntry struct {
	TrailId   string
	Timestamp time.Time
	Action    AuditAction
	State     AuditState
	Err       string
	Duration  time.Duration
}

// NewAuditEntry starts an audit entry for action with a fresh trail ID and
// the current timestamp and AuditCreated state.
func NewAuditEntry(action AuditAction) AuditEntry {
	return AuditEntry{
		TrailId:   uuid.NewString(),
		Timestamp: time.Now(),
		Action:    action,
		State:     AuditCreated,
	}
}

// Audit logs entry as a single JSON line via the structured logger.
func Audit(entry AuditEntry) {
	body, err := json.Marshal(entry)
	if err != nil {
		Log().Error("Audit",
			"msg", "failed to marshal audit entry",
			"err", err.Error())
		return
	}
	Log().Info("audit", "entry", string(body))
}
