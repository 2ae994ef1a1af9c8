package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierPublishReachesPatternSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	notifier := NewNotifier(client)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	type delivery struct {
		channel string
		payload string
	}
	received := make(chan delivery, 1)
	require.NoError(t, notifier.StartPatternSubscriber(ctx, func(channel, payload string) {
		received <- delivery{channel: channel, payload: payload}
	}))

	// PSubscribe setup races with the publish without a brief settle
	deadline := time.After(2 * time.Second)
	var got delivery
	for {
		require.NoError(t, notifier.PublishUser(ctx, 42, `{"type":"like"}`))
		select {
		case got = <-received:
		case <-time.After(50 * time.Millisecond):
			continue
		case <-deadline:
			t.Fatal("subscriber never received the published payload")
		}
		break
	}

	assert.Equal(t, UserChannel(42), got.channel)
	assert.Equal(t, `{"type":"like"}`, got.payload)
}

func TestNotifierNilClientIsNoOp(t *testing.T) {
	notifier := NewNotifier(nil)
	ctx := context.Background()

	assert.NoError(t, notifier.PublishUser(ctx, 1, "payload"))
	assert.NoError(t, notifier.StartPatternSubscriber(ctx, func(string, string) {
		t.Fatal("no subscription should exist without a client")
	}))
}

func TestUserChannel(t *testing.T) {
	assert.Equal(t, "notifications:user:7", UserChannel(7))
}
