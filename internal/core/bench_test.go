package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/deepblue-labs/collab-server/internal/presence"
)

func benchmarkRoomFanOut(b *testing.B, recipients int) {
	hub := NewHub(presence.NewMemoryStore(), trustedResolver(), nil, Options{})

	waitAuth := func(c *Client) {
		for {
			if _, _, ok := c.Identity(); ok {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}

	sender := hub.NewClient("sender")
	hub.RegisterClient(sender)
	sender.Commands <- &Command{Kind: CommandAuthenticate, Auth: &AuthData{UserID: "sender", RoomID: "bench"}}
	waitAuth(sender)

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := hub.NewClient(fmt.Sprintf("c%d", i))
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandAuthenticate, Auth: &AuthData{UserID: fmt.Sprintf("u%d", i), RoomID: "bench"}}
		waitAuth(c)
		clients = append(clients, c)
	}

	// Drain everyone except the measured recipient to avoid backpressure.
	target := clients[0]
	go func() {
		for range sender.Events {
		}
	}()
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandChatMessage, Chat: &ChatData{Content: "payload"}}
		for {
			if ev := <-target.Events; ev.Kind == EventChatMessage {
				break
			}
		}
	}
}

func BenchmarkRoomFanOut_10(b *testing.B)  { benchmarkRoomFanOut(b, 10) }
func BenchmarkRoomFanOut_100(b *testing.B) { benchmarkRoomFanOut(b, 100) }
func BenchmarkRoomFanOut_500(b *testing.B) { benchmarkRoomFanOut(b, 500) }
