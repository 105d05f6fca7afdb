// Command collab — интерактивный терминальный клиент для отладки
// сессий совместного редактирования. Каждая строка stdin уходит как
// изменение; служебные команды начинаются с "/".
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/framedeck/collab/internal/collab/conn"
	"github.com/framedeck/collab/internal/collab/eventbus"
	"github.com/framedeck/collab/internal/collab/journal/boltdb"
	"github.com/framedeck/collab/internal/collab/session"
	"github.com/framedeck/collab/internal/models"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Relay server URL")
	projectID := flag.String("project", "", "Project ID")
	participantID := flag.String("id", "", "Participant ID")
	displayName := flag.String("name", "", "Display name (defaults to participant ID)")
	color := flag.String("color", "#4a90d9", "Presence color")
	accessToken := flag.String("token", os.Getenv("FRAMEDECK_TOKEN"), "Access token")
	dbPath := flag.String("db", "collab-client.db", "Path to local change journal")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *projectID == "" || *participantID == "" {
		fmt.Fprintln(os.Stderr, "Usage: collab -project <id> -id <participant> [-server URL] [-token TOKEN]")
		os.Exit(1)
	}

	if err := run(*serverURL, *projectID, *participantID, *displayName, *color, *accessToken, *dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(serverURL, projectID, participantID, displayName, color, accessToken, dbPath string) error {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	jour, err := boltdb.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() {
		if err := jour.Close(); err != nil {
			logger.Error("failed to close journal", "error", err)
		}
	}()

	if displayName == "" {
		displayName = participantID
	}

	endpoint, err := wsEndpoint(serverURL, projectID, participantID, displayName, color)
	if err != nil {
		return err
	}

	header := http.Header{}
	if accessToken != "" {
		header.Set("Authorization", "Bearer "+accessToken)
	}

	sess := session.New(session.Config{}, &conn.WebsocketDialer{Header: header}, jour, logger)
	subscribeOutput(sess)

	participant := models.Participant{
		ID:            participantID,
		DisplayName:   displayName,
		PresenceColor: color,
	}
	if err := sess.Connect(ctx, projectID, participant, endpoint); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer sess.Disconnect()

	fmt.Printf("connected to %s as %s; type text to edit, /help for commands\n", projectID, participantID)

	return inputLoop(sess)
}

// wsEndpoint собирает websocket URL из базового адреса relay
func wsEndpoint(serverURL, projectID, participantID, displayName, color string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	u.Path = fmt.Sprintf("/api/v1/projects/%s/ws", projectID)

	q := u.Query()
	q.Set("participant_id", participantID)
	q.Set("display_name", displayName)
	q.Set("presence_color", color)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// subscribeOutput печатает события сессии в stdout
func subscribeOutput(sess *session.Session) {
	sess.Subscribe(eventbus.KindChange, func(ev eventbus.Event) {
		change := ev.(eventbus.ChangeEvent).Change
		fmt.Printf("[v%d] %s %s/%s %s\n",
			change.Version, change.ParticipantID, change.Category, change.Action, change.Payload)
	})

	sess.Subscribe(eventbus.KindPresence, func(ev eventbus.Event) {
		record := ev.(eventbus.PresenceEvent).Record
		fmt.Printf("* %s is %s\n", record.Participant.DisplayName, record.Status)
	})

	sess.Subscribe(eventbus.KindSync, func(ev eventbus.Event) {
		sync := ev.(eventbus.SyncEvent)
		fmt.Printf("* synced: %d changes, version %d\n", len(sync.Changes), sync.Version)
	})

	sess.Subscribe(eventbus.KindConflict, func(ev eventbus.Event) {
		conflict := ev.(eventbus.ConflictEvent)
		fmt.Printf("! conflict on change %s: strategy=%s winner=%s\n",
			conflict.Change.ID, conflict.Decision.Strategy, conflict.Decision.WinningParticipantID)
	})

	sess.Subscribe(eventbus.KindError, func(ev eventbus.Event) {
		fmt.Printf("! connection error: %v\n", ev.(eventbus.ErrorEvent).Err)
	})
}

// inputLoop читает команды из stdin до EOF или /quit
func inputLoop(sess *session.Session) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return nil

		case line == "/help":
			fmt.Println("commands: /status /sync /idle /active /quit; any other line is broadcast as a change")

		case line == "/status":
			status := sess.Status()
			fmt.Printf("project=%s connected=%v version=%d active_participants=%d\n",
				status.ProjectID, status.Connected, status.CurrentVersion, status.ActiveParticipantCount)

		case line == "/sync":
			sess.RequestSync()

		case line == "/idle":
			sess.UpdatePresence(session.PresenceUpdate{Status: models.PresenceIdle})

		case line == "/active":
			sess.UpdatePresence(session.PresenceUpdate{Status: models.PresenceActive})

		case strings.HasPrefix(line, "/"):
			fmt.Printf("unknown command %s\n", line)

		default:
			payload, err := json.Marshal(map[string]string{"text": line})
			if err != nil {
				return fmt.Errorf("failed to marshal payload: %w", err)
			}

			change := sess.BroadcastChange(models.ChangeDraft{
				Category: models.CategoryStructuralA,
				Action:   models.ActionUpdate,
				Payload:  payload,
			})
			fmt.Printf("sent v%d\n", change.Version)
		}
	}

	return scanner.Err()
}

func printVersion() {
	fmt.Printf("FrameDeck Collab Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
