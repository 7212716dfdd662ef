package sse

import (
	"strings"
	"testing"
	"time"

	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/presence"
	"github.com/mcoot/pokearena/internal/testutil"
)

func TestBroadcaster_PublishPresence(t *testing.T) {
	hub := newRunningHub(t)
	broadcaster := NewBroadcaster(hub, testutil.NopLogger())

	client := NewClient("user2")
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	broadcaster.PublishPresence(presence.Event{
		Type: presence.EventOnline,
		User: model.OnlineUser{ID: "user1", DisplayName: "Ash", Avatar: "https://avatars.test/Ash"},
	})

	select {
	case msg := <-client.send:
		msgStr := string(msg)
		if !strings.HasPrefix(msgStr, "event: presence\n") {
			t.Errorf("message does not start with the presence event: %s", msgStr)
		}
		for _, want := range []string{`"type":"online"`, `"id":"user1"`, `"displayName":"Ash"`} {
			if !strings.Contains(msgStr, want) {
				t.Errorf("message does not contain %s: %s", want, msgStr)
			}
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client did not receive message")
	}
}

func TestOnlineSnapshot(t *testing.T) {
	msg, err := OnlineSnapshot(nil)
	if err != nil {
		t.Fatalf("OnlineSnapshot(nil) error: %v", err)
	}
	if string(msg) != "event: online\ndata: []\n\n" {
		t.Errorf("OnlineSnapshot(nil) = %q", string(msg))
	}

	msg, err = OnlineSnapshot([]model.OnlineUser{{ID: "u1", DisplayName: "Misty"}})
	if err != nil {
		t.Fatalf("OnlineSnapshot error: %v", err)
	}
	if !strings.Contains(string(msg), `"displayName":"Misty"`) {
		t.Errorf("snapshot missing user: %q", string(msg))
	}
}
