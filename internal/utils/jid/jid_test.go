package jid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/types"

	"wasend/internal/utils/jid"
)

func TestRecipientFromPhone(t *testing.T) {
	for _, in := range []string{"123", " 123 ", "+1-2-3", "(12) 3"} {
		got, err := jid.Recipient(in)
		require.NoError(t, err, in)
		assert.Equal(t, "123@s.whatsapp.net", got.String(), in)
	}
}

func TestRecipientFullJID(t *testing.T) {
	got, err := jid.Recipient("31612345678@s.whatsapp.net")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultUserServer, got.Server)
	assert.Equal(t, "31612345678", got.User)

	got, err = jid.Recipient("120363000000000000@g.us")
	require.NoError(t, err)
	assert.True(t, jid.IsGroup(got))
}

func TestRecipientInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "status@broadcast"} {
		_, err := jid.Recipient(in)
		assert.Error(t, err, in)
	}
}
