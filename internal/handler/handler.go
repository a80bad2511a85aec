//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

// Package handler dispatches one decoded wire.Action to the ShareStore
// and produces the matching wire.Response. It is grounded on the
// original_source ActionHandler (salusd/src/handler/mod.rs) — same
// one-action-in, one-response-out dispatch table, same policy of
// turning every sharestore error into a Response rather than propagating
// it — adapted to a synchronous per-connection call instead of the
// Rust version's channel-fed async actor.
package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/salusd/salusd/internal/log"
	"github.com/salusd/salusd/internal/sharestore"
	"github.com/salusd/salusd/internal/wire"
)

// ActionHandler dispatches requests against a shared ShareStore. One
// ActionHandler is constructed per daemon instance and reused across
// connections; its only per-instance state is the auto-lock timer.
type ActionHandler struct {
	store      *sharestore.ShareStore
	keyTimeout time.Duration

	timerMu  sync.Mutex
	autoLock *time.Timer
}

// New constructs an ActionHandler. keyTimeout is how long an unlocked
// master key is kept live before being auto-cleared.
func New(store *sharestore.ShareStore, keyTimeout time.Duration) *ActionHandler {
	return &ActionHandler{store: store, keyTimeout: keyTimeout}
}

// Handle dispatches a single Action and returns the Response to write
// back to the client.
func (h *ActionHandler) Handle(ctx context.Context, action wire.Action) wire.Response {
	switch action.Tag {
	case wire.TagGenShares:
		return h.genShares(ctx, action.NumShares, action.Threshold)
	case wire.TagShare:
		return h.share(action.Share)
	case wire.TagUnlock:
		return h.unlock(ctx)
	case wire.TagStore:
		return h.store_(ctx, action.Key, action.Value)
	case wire.TagRead:
		return h.read(ctx, action.Key)
	case wire.TagThreshold:
		return h.getThreshold(ctx)
	default:
		return wire.ErrorResponse("unknown action")
	}
}

func (h *ActionHandler) share(share string) wire.Response {
	entry := log.NewAuditEntry(log.AuditShare)
	h.store.AddShare(share)
	entry.State = log.AuditSuccess
	log.Audit(entry)
	return wire.SuccessResponse()
}

func (h *ActionHandler) getThreshold(ctx context.Context) wire.Response {
	entry := log.NewAuditEntry(log.AuditGetThreshold)
	threshold := h.store.GetThreshold(ctx)
	entry.State = log.AuditSuccess
	log.Audit(entry)
	return wire.ThresholdResponse(threshold)
}

func (h *ActionHandler) genShares(ctx context.Context, numShares, threshold uint8) wire.Response {
	entry := log.NewAuditEntry(log.AuditGenShares)
	defer func() { log.Audit(entry) }()

	if err := h.store.Initialize(ctx, numShares, threshold); err != nil {
		entry.State, entry.Err = log.AuditErrored, err.Error()
		return wire.ErrorResponse(err.Error())
	}

	shares, err := h.store.GenShares(ctx)
	if errors.Is(err, sharestore.ErrAlreadyInitialized) {
		entry.State = log.AuditSuccess
		return wire.AlreadyInitializedResponse()
	}
	if err != nil {
		entry.State, entry.Err = log.AuditErrored, err.Error()
		return wire.ErrorResponse(err.Error())
	}

	entry.State = log.AuditSuccess
	return wire.SharesResponse(shares)
}

func (h *ActionHandler) unlock(ctx context.Context) wire.Response {
	entry := log.NewAuditEntry(log.AuditUnlock)
	defer func() { log.Audit(entry) }()

	unlocked, err := h.store.Unlock(ctx)
	if errors.Is(err, sharestore.ErrCheckKeyMissing) {
		// No CHECK_KEY row to verify against: logged, and answered like
		// any other failed unlock (the store stays Locked).
		log.Log().Warn("handler.unlock", "msg", "CHECK_KEY row missing; unlock failed")
		entry.State, entry.Err = log.AuditErrored, err.Error()
		return wire.SuccessResponse()
	}
	if err != nil {
		entry.State, entry.Err = log.AuditErrored, err.Error()
		return wire.ErrorResponse(err.Error())
	}

	if unlocked {
		h.armAutoLock()
	}

	entry.State = log.AuditSuccess
	return wire.SuccessResponse()
}

// armAutoLock stops any timer from a previous unlock and arms a fresh
// one, so a re-unlock before expiry resets the countdown instead of
// leaving the earlier timer free to clear the new key early.
func (h *ActionHandler) armAutoLock() {
	h.timerMu.Lock()
	defer h.timerMu.Unlock()

	if h.autoLock != nil {
		h.autoLock.Stop()
		h.autoLock = nil
	}
	if h.keyTimeout <= 0 {
		return
	}
	h.autoLock = time.AfterFunc(h.keyTimeout, func() {
		entry := log.NewAuditEntry(log.AuditAutoLock)
		h.store.ClearKey()
		entry.State = log.AuditSuccess
		log.Audit(entry)
	})
}

func (h *ActionHandler) store_(ctx context.Context, key, value string) wire.Response {
	entry := log.NewAuditEntry(log.AuditStore)
	defer func() { log.Audit(entry) }()

	if err := h.store.Store(ctx, key, value); err != nil {
		entry.State, entry.Err = log.AuditErrored, err.Error()
		return wire.ErrorResponse(err.Error())
	}

	entry.State = log.AuditSuccess
	return wire.SuccessResponse()
}

func (h *ActionHandler) read(ctx context.Context, key string) wire.Response {
	entry := log.NewAuditEntry(log.AuditRead)
	defer func() { log.Audit(entry) }()

	value, err := h.store.Read(ctx, key)
	if errors.Is(err, sharestore.ErrKeyNotFound) {
		entry.State = log.AuditSuccess
		return wire.KeyNotFoundResponse()
	}
	if err != nil {
		entry.State, entry.Err = log.AuditErrored, err.Error()
		return wire.ErrorResponse(err.Error())
	}

	entry.State = log.AuditSuccess
	return wire.ValueResponse(true, value)
}
