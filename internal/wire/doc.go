// Package wire defines how actions and states leave the process.
//
// Actions cross the boundary as Records:
//
//	{"type":"counter/inc"}
//	{"type":"counter/add","payload":3}
//
// The payload key is present exactly when the action carries payload, so a
// payload action whose payload is null survives the round trip. The variant
// is recovered from the record shape on Decode; nothing else is serialised.
//
// Canonical JSON (MarshalCanonical) is used wherever bytes are hashed:
//   - object keys sorted by UTF-16 code units (RFC 8785)
//   - strings NFC normalised, no HTML escaping
//   - integers as int64; non-integral numbers kept as their JSON literal
//
// Content-addressed ids are SHA-256 over domain || 0x00 || canonical bytes.
package wire
