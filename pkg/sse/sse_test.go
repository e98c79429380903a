package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg := <-c.ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return ""
	}
}

func TestPublishReachesGroupAndWildcard(t *testing.T) {
	h := NewHub(time.Minute)
	a := h.AddClient("a")
	b := h.AddClient("b")
	other := h.AddClient("c")
	h.Join("a", "m1")
	h.Join("b", AllGroups)
	h.Join("c", "m2")

	require.NoError(t, h.PublishJSON("m1", "job", map[string]int{"progress": 40}))

	assert.Equal(t, "event: job\ndata: {\"progress\":40}\n\n", receive(t, a))
	assert.Equal(t, "event: job\ndata: {\"progress\":40}\n\n", receive(t, b))
	select {
	case <-other.ch:
		t.Fatal("m2 subscriber received m1 event")
	default:
	}
}

func TestRemoveClientClosesDone(t *testing.T) {
	h := NewHub(0)
	c := h.AddClient("a")
	h.Join("a", "m1")
	h.RemoveClient("a")

	_, open := <-c.done
	assert.False(t, open)
	assert.Equal(t, 0, h.ClientCount())
	assert.NoError(t, h.PublishJSON("m1", "job", 1))
}

func TestEventFramesMultilineData(t *testing.T) {
	assert.Equal(t, "data: a\ndata: b\n\n", Event{Data: "a\nb"}.String())
}
