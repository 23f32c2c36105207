// Package pkg provides the libraries behind nmcanvas, a canonical graph
// document engine.
//
// # Overview
//
// nmcanvas keeps a topology graph (routes, services, backends, policies and
// transforms) as one JSON document. The document is validated against a JSON
// Schema whenever it is read, edited through batches of operations and
// compared structurally by entity ID.
//
// # Architecture
//
// The typical data flow through a save:
//
//	Batch of operations
//	         ↓
//	    [ops] package (apply to a working copy)
//	         ↓
//	    [schema] package (validate the result)
//	         ↓
//	    [store] package (persist) + [snapshot] package (record versions)
//	         ↓
//	    [diff] package (base → head change list)
//
// [canvas] ties these together behind the Contract type. [graph] defines the
// document types and their JSON form. [render] draws documents as Graphviz
// node-link diagrams, optionally overlaid with a diff.
//
// # Supporting Packages
//
//   - [config]: TOML and environment configuration
//   - [errors]: coded errors shared by the CLI and the HTTP API
//   - [observability]: hooks for loads, saves, snapshots and requests
//   - [httputil]: JSON request and response helpers
//   - [buildinfo]: version metadata set via ldflags
package pkg
