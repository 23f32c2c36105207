// Package graph defines the canonical graph document and its JSON form.
//
// The document describes a system topology: nodes (routes, services,
// backends, policies, transforms) and typed edges between them. It is the
// unit of persistence and the unit of comparison for pkg/diff.
//
// # Core Types
//
//   - [Graph]: the canonical document (version, nodes, edges, metadata)
//   - [Node], [Edge]: entities identified by string IDs
//   - [GraphMetadata]: document-level metadata with open extra fields
//   - [Index]: ID-keyed view used by the differ
//
// # Serialization
//
// Graphs use a plain JSON format:
//
//	{
//	  "version": "1.0.0",
//	  "nodes": [{"id": "r1", "kind": "route", "label": "Public API"}],
//	  "edges": [{"id": "e1", "from": "r1", "to": "s1", "kind": "route_to_service"}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("model/graph.json")  // File → Graph
//	graph.WriteGraphFile(g, "out.json")              // Graph → File
//	data, _ := graph.MarshalGraph(g)                 // Graph → []byte
//
// Decoding keeps numbers as json.Number. Encoding sorts map keys, so
// MarshalGraph output is stable for hashing.
//
// # Equality
//
// [Node.Equal] and [Edge.Equal] compare every field. Open mapping fields
// (metadata, constraints) are compared recursively with [DeepEqual], which
// ignores key order and compares numbers by value.
//
// # Concurrency
//
// Graph values are plain data with no internal locking. Callers that share a
// document between goroutines must serialize access themselves.
package graph
