// Command wsprobe opens many notification sockets for one account and
// reports what arrives. It is used to load-test the websocket hub.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"srefhub/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// Metrics tracks the probe results.
type Metrics struct {
	ConnectionsAttempted atomic.Int64
	ConnectionsSuccess   atomic.Int64
	ConnectionsFailed    atomic.Int64
	EventsReceived       atomic.Int64
	Errors               atomic.Int64

	mu     sync.Mutex
	byType map[string]int
}

func (m *Metrics) record(eventType string) {
	m.EventsReceived.Add(1)
	m.mu.Lock()
	m.byType[eventType]++
	m.mu.Unlock()
}

type probeOptions struct {
	host     string
	email    string
	password string
	clients  int
	duration time.Duration
	stagger  time.Duration
}

func main() {
	opts := probeOptions{}
	cmd := &cobra.Command{
		Use:          "wsprobe",
		Short:        "Hold notification websockets open and count delivered events",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.host, "host", "localhost:8375", "API server host")
	f.StringVar(&opts.email, "email", "alice@example.com", "Account email")
	f.StringVar(&opts.password, "password", "password123", "Account password")
	f.IntVar(&opts.clients, "clients", 50, "Number of concurrent sockets")
	f.DurationVar(&opts.duration, "duration", 30*time.Second, "How long to listen")
	f.DurationVar(&opts.stagger, "stagger", 20*time.Millisecond, "Delay between dials")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts probeOptions) error {
	log.Printf("Probing %s with %d sockets for %v", opts.host, opts.clients, opts.duration)

	token, err := login(opts.host, opts.email, opts.password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	metrics := &Metrics{byType: map[string]int{}}
	ctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < opts.clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			listen(ctx, opts.host, token, metrics)
		}()
		select {
		case <-ctx.Done():
		case <-time.After(opts.stagger):
		}
	}

	<-ctx.Done()
	log.Println("Waiting for sockets to close...")
	wg.Wait()

	printMetrics(metrics)
	return nil
}

func login(host, email, password string) (string, error) {
	agent := fiber.Post(fmt.Sprintf("http://%s/api/auth/login", host)).
		Timeout(5 * time.Second).
		JSON(fiber.Map{"email": email, "password": password})

	var session struct {
		Token string `json:"token"`
	}
	code, _, errs := agent.Struct(&session)
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	if code != fiber.StatusOK {
		return "", fmt.Errorf("login failed with status %d", code)
	}
	return session.Token, nil
}

func listen(ctx context.Context, host, token string, metrics *Metrics) {
	metrics.ConnectionsAttempted.Add(1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "token=" + url.QueryEscape(token)}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		metrics.ConnectionsFailed.Add(1)
		metrics.Errors.Add(1)
		return
	}
	defer func() { _ = conn.Close() }()
	metrics.ConnectionsSuccess.Add(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var event notifications.Event
			if err := json.Unmarshal(raw, &event); err != nil {
				metrics.Errors.Add(1)
				continue
			}
			metrics.record(event.Type)
		}
	}()

	select {
	case <-ctx.Done():
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		<-done
	case <-done:
	}
}

func printMetrics(m *Metrics) {
	fmt.Println()
	fmt.Println("Results")
	fmt.Println("-------")
	fmt.Printf("Connections attempted: %d\n", m.ConnectionsAttempted.Load())
	fmt.Printf("Connections succeeded: %d\n", m.ConnectionsSuccess.Load())
	fmt.Printf("Connections failed:    %d\n", m.ConnectionsFailed.Load())
	fmt.Printf("Events received:       %d\n", m.EventsReceived.Load())
	fmt.Printf("Errors:                %d\n", m.Errors.Load())

	types := make([]string, 0, len(m.byType))
	for t := range m.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-18s %d\n", t, m.byType[t])
	}
}
