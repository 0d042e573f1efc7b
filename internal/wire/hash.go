package wire

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix leaves
// room for changing the algorithm.
const (
	DomainEntry = "redg/entry/v1"
	DomainState = "redg/state/v1"
)

// hashWithDomain returns hex(SHA256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EntryID computes the content-addressed id of a journal entry. The same
// action dispatched at the same position of the same session always gets
// the same id.
func EntryID(session string, seq int64, r Record) (string, error) {
	obj := map[string]any{
		"session": session,
		"seq":     seq,
		"type":    r.Type,
	}
	if r.HasPayload {
		obj["payload"] = r.Payload
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EntryID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEntry, canonical), nil
}

// StateHash fingerprints a state value through its canonical JSON form.
func StateHash(state any) (string, error) {
	canonical, err := MarshalCanonical(state)
	if err != nil {
		return "", fmt.Errorf("StateHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// MustStateHash is StateHash for states known to be serialisable.
func MustStateHash(state any) string {
	h, err := StateHash(state)
	if err != nil {
		panic(err)
	}
	return h
}
