// Package domain defines the core domain types for the topology editor backend.
//
// This package contains the entities the reconciliation engine operates on:
// canvas elements as delivered by the rendering layer (Element, Snapshot),
// node and link records with their canonical identities, group identifiers,
// and the annotation types persisted in the per-topology sidecar file.
//
// # Snapshot Model
//
// The canvas sends its state as a flat list of elements, each tagged as a
// node or an edge. Snapshot indexes that list into node records keyed by id
// and link records keyed by their canonical endpoint string, which is the
// identity used throughout reconciliation.
//
// # Canonical Link Identity
//
// A link is identified by the ordered pair of its endpoint strings,
// "<nodeId>:<interface>,<nodeId>:<interface>". Two links are the same link
// exactly when their canonical strings match.
//
// # Annotations
//
// Annotation types mirror the sidecar JSON shape. They carry presentation
// state only (positions, icons, free text, shapes, group styles) and are
// never written into the topology document itself.
package domain
