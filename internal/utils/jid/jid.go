package jid

import (
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// Parse parses a JID string into types.JID.
func Parse(jidStr string) (types.JID, error) {
	return types.ParseJID(jidStr)
}

// FromPhone creates a user JID from a phone number.
func FromPhone(phone string) types.JID {
	// Remove any non-digit characters
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	return types.JID{
		User:   cleaned,
		Server: types.DefaultUserServer,
	}
}

// Recipient turns a caller-supplied recipient into a JID. Phone numbers
// (with or without formatting) become user JIDs, anything containing "@"
// is parsed as a full JID.
func Recipient(to string) (types.JID, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return types.JID{}, fmt.Errorf("empty recipient")
	}

	if strings.Contains(to, "@") {
		j, err := types.ParseJID(to)
		if err != nil {
			return types.JID{}, fmt.Errorf("invalid recipient %q: %w", to, err)
		}
		if !IsUser(j) && !IsGroup(j) {
			return types.JID{}, fmt.Errorf("unsupported recipient server %q", j.Server)
		}
		return j, nil
	}

	j := FromPhone(to)
	if j.User == "" {
		return types.JID{}, fmt.Errorf("invalid recipient %q: no digits", to)
	}
	return j, nil
}

// IsUser returns true if the JID is a user (not group/newsletter).
func IsUser(jid types.JID) bool {
	return jid.Server == types.DefaultUserServer || jid.Server == types.HiddenUserServer
}

// IsGroup returns true if the JID is a group.
func IsGroup(jid types.JID) bool {
	return jid.Server == types.GroupServer
}
