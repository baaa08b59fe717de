// Package handler exposes the topology editor's HTTP API.
//
// The canvas talks to four surfaces: GET /api/topology returns the element
// list, POST /api/topology runs a reconciliation pass for a posted
// snapshot, the /api/annotations pair reads and replaces the canvas-owned
// annotation layers, and POST /api/names allocates fresh identifiers.
// Structural save failures map to 422; everything else follows the usual
// 400/500 split.
package handler
