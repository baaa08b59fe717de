// Package service implements the business logic between the HTTP handlers
// and the reconciliation engine.
//
// TopologyService owns one topology document: it converts the document and
// its annotation sidecar into canvas elements, runs reconciliation passes
// for incoming snapshots, and replaces the canvas-owned annotation layers.
// Saves run through a gate that serializes passes and coalesces bursts into
// at most one queued follow-up.
//
// All state changes publish events via EventBus for delivery to connected
// clients over Server-Sent Events.
package service
