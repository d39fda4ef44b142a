package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyShapes(t *testing.T) {
	assert.Equal(t, "tonight:v1:event:42:summary", KeyEventSummary(42))
	assert.Equal(t, "tonight:v1:event:42:feed", KeyEventFeed(42))
	assert.Equal(t, "tonight:v1:event:42:people", KeyEventPeople(42))
	assert.Equal(t, "tonight:v1:event:42:menu", KeyEventMenu(42))
	assert.Equal(t, "tonight:v1:events:upcoming:0", KeyEventList(0))
	assert.Equal(t, "tonight:v1:venues", KeyVenues())
	assert.Equal(t, "tonight:v1:user:ext:auth0|abc", KeyUserByExternal("auth0|abc"))
	assert.Equal(t, "tonight:v1:event:42:changed", ChannelFeedChanged(42))
}

func TestKeyIdemCheckIn(t *testing.T) {
	a := KeyIdemCheckIn(1, "k1")
	b := KeyIdemCheckIn(1, "k2")
	c := KeyIdemCheckIn(2, "k1")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "k1")
}
