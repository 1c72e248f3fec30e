package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/mcdev12/vallamkali/go/internal/registration"
	"github.com/mcdev12/vallamkali/go/internal/relay"
	"github.com/rs/zerolog/log"
)

// The registration surface: a terminal form that starts races on the
// display through the relay.
func main() {
	config.LoadDotEnv()
	config.SetupLogging()

	var (
		relayURL = flag.String("relay", config.GetEnv("RELAY_URL", "ws://localhost:8081/ws/relay"), "relay websocket URL")
		p1Name   = flag.String("player1", "", "player 1 name")
		p1Phone  = flag.String("phone1", "", "player 1 phone")
		p2Name   = flag.String("player2", "", "player 2 name")
		p2Phone  = flag.String("phone2", "", "player 2 phone")
		skip     = flag.Bool("skip", false, "skip registration and race with default names")
		restart  = flag.Bool("restart", false, "send session-restart and exit")
		ping     = flag.Bool("ping", false, "send debug-ping and exit")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	form := newForm(os.Stdin, os.Stdout)
	client := relay.NewClient(relay.DefaultClientConfig(*relayURL, relay.RoleRegistration), form.onMessage)
	go func() {
		if err := client.Run(ctx); err != nil {
			log.Error().Err(err).Msg("relay client stopped")
		}
	}()

	oneShot := *restart || *ping || *skip || *p1Name != "" || *p2Name != ""
	switch {
	case *restart:
		send(client, relay.TopicSessionRestart, relay.SessionRestart{Timestamp: time.Now().UTC(), Source: relay.RoleRegistration})
	case *ping:
		send(client, relay.TopicDebugPing, map[string]string{"from": relay.RoleRegistration})
	case oneShot:
		req := relay.SessionStart{Player1Name: *p1Name, Player1Phone: *p1Phone, Player2Name: *p2Name, Player2Phone: *p2Phone, Skip: *skip}
		if err := submit(client, req); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if oneShot {
		flush(ctx, client)
		return
	}

	form.run(ctx, client)
}

func send(client *relay.Client, topic relay.Topic, payload any) {
	if _, err := client.Publish(topic, payload); err != nil {
		log.Fatal().Err(err).Str("topic", string(topic)).Msg("failed to queue message")
	}
}

func submit(client *relay.Client, req relay.SessionStart) error {
	if err := registration.Validate(req); err != nil {
		return err
	}
	start := registration.Normalize(req)
	if _, err := client.Publish(relay.TopicSessionStart, start); err != nil {
		return fmt.Errorf("queue session-start: %w", err)
	}
	log.Info().
		Str("player1", start.Player1Name).
		Str("player2", start.Player2Name).
		Bool("skip", start.Skip).
		Msg("session-start sent")
	return nil
}

// flush gives the client a moment to connect and drain its queue.
func flush(ctx context.Context, client *relay.Client) {
	deadline := time.After(5 * time.Second)
	for !client.Connected() {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			log.Warn().Msg("relay unreachable, message not delivered")
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
	time.Sleep(250 * time.Millisecond)
}

// form prompts for players until stdin closes. A session-restart from the
// display clears the form in progress.
type form struct {
	lines   chan string
	out     io.Writer
	cleared chan struct{}
}

func newForm(in io.Reader, out io.Writer) *form {
	f := &form{lines: make(chan string), out: out, cleared: make(chan struct{}, 1)}
	go func() {
		defer close(f.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			f.lines <- scanner.Text()
		}
	}()
	return f
}

func (f *form) onMessage(m relay.Message) {
	switch m.Topic {
	case relay.TopicSessionStart:
		log.Info().Str("message_id", m.ID).Msg("game start confirmed by relay")
	case relay.TopicSessionRestart:
		select {
		case f.cleared <- struct{}{}:
		default:
		}
	case relay.TopicDebugPong:
		log.Info().RawJSON("data", m.Data).Msg("debug pong")
	}
}

var errCleared = errors.New("form cleared")

func (f *form) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(f.out, prompt)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-f.cleared:
		fmt.Fprintln(f.out, "\nRace restarted, form cleared.")
		return "", errCleared
	case line, ok := <-f.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

func (f *form) run(ctx context.Context, client *relay.Client) {
	for {
		req, err := f.fill(ctx)
		if errors.Is(err, errCleared) {
			continue
		}
		if err != nil {
			return
		}
		if err := submit(client, req); err != nil {
			fmt.Fprintf(f.out, "Not sent: %v\n", err)
			continue
		}
		fmt.Fprintln(f.out, "Game started on the display! You can register more players.")
	}
}

func (f *form) fill(ctx context.Context) (relay.SessionStart, error) {
	var req relay.SessionStart
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Player 1 name: ", &req.Player1Name},
		{"Player 1 phone: ", &req.Player1Phone},
		{"Player 2 name: ", &req.Player2Name},
		{"Player 2 phone: ", &req.Player2Phone},
	}
	for _, field := range fields {
		v, err := f.ask(ctx, field.prompt)
		if err != nil {
			return req, err
		}
		*field.dst = v
	}
	answer, err := f.ask(ctx, "Skip registration? [y/N]: ")
	if err != nil {
		return req, err
	}
	req.Skip = strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
	return req, nil
}
