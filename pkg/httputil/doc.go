// Package httputil provides the JSON plumbing shared by nmcanvas HTTP
// handlers.
//
// # Responses
//
// [WriteJSON] encodes a value with the given status. [WriteError] turns an
// error into a JSON body and picks the status from its code (see
// [StatusFor]):
//
//	{"code": "SCHEMA_VALIDATION_FAILED", "message": "...", "errors": ["/nodes/0/kind: ..."]}
//
// Errors that carry a Details() []string method (schema validation failures)
// list them under "errors".
//
// # Requests
//
// [DecodeJSON] reads a request body with a size cap and rejects trailing
// data. Decoding failures are INVALID_FORMAT errors.
package httputil
