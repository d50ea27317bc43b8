// Command traffic-seeder drives synthetic websocket traffic through a
// wsrecorder relay endpoint, for load and soak testing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gorilla/websocket"
)

var (
	relayURL    = flag.String("relay-url", "ws://localhost:8099/relay", "wsrecorder relay endpoint")
	target      = flag.String("target", "", "upstream target to pass via the target query parameter")
	connections = flag.Int("connections", 5, "number of concurrent websocket connections")
	count       = flag.Int("count", 100, "number of messages per connection")
	interval    = flag.Duration("interval", 50*time.Millisecond, "interval between messages")
	binaryRatio = flag.Float64("binary-ratio", 0.2, "fraction of messages sent as binary frames")
)

type chatMessage struct {
	User    string `json:"user"`
	Channel string `json:"channel"`
	Text    string `json:"text"`
	Seq     int    `json:"seq"`
}

func main() {
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	url := *relayURL
	if *target != "" {
		url = fmt.Sprintf("%s?target=%s", *relayURL, *target)
	}

	log.Printf("Starting traffic seeder:")
	log.Printf("  Relay URL: %s", url)
	log.Printf("  Connections: %d", *connections)
	log.Printf("  Messages per connection: %d", *count)
	log.Printf("  Interval: %v", *interval)

	var wg sync.WaitGroup
	for i := 0; i < *connections; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			if err := seed(url, worker); err != nil {
				log.Printf("worker %d: %v", worker, err)
			}
		}(i)
	}
	wg.Wait()

	log.Printf("Done: %d connections x %d messages", *connections, *count)
}

func seed(url string, worker int) error {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	// Drain echoes so the read side never backs up.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	user := gofakeit.Username()
	channel := gofakeit.Word()

	for seq := 0; seq < *count; seq++ {
		if rand.Float64() < *binaryRatio {
			payload := make([]byte, 16+rand.Intn(240))
			for i := range payload {
				payload[i] = byte(rand.Intn(256))
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
				return fmt.Errorf("write binary message: %w", err)
			}
		} else {
			msg := chatMessage{
				User:    user,
				Channel: channel,
				Text:    gofakeit.Sentence(8),
				Seq:     seq,
			}
			data, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("write text message: %w", err)
			}
		}
		time.Sleep(*interval)
	}

	return conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "seeder done"),
		time.Now().Add(time.Second))
}
