package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"careconnect/internal/dto"
	"careconnect/internal/pkg/logger"
	"careconnect/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	baseURL := flag.String("server", "http://localhost:3000", "careconnect server URL")
	flag.Parse()

	// The terminal belongs to the UI, so logs go to a file only.
	tuiLogger := logger.NewIsolatedLogger("logs/chat-tui.log")
	defer tuiLogger.Sync()

	client := tui.NewAPIClient(*baseURL)
	session, err := client.Start(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not start a session on %s: %v\n", *baseURL, err)
		os.Exit(1)
	}
	tuiLogger.Info("CHAT_TUI", "Session started", map[string]interface{}{
		"session_id": session.Id.String(),
		"server":     *baseURL,
	})

	m := tui.New(client, dto.SettingsDTO{
		ModelName: session.Settings.ModelName,
		Category:  session.Settings.Category,
		UseRAG:    session.Settings.UseRAG,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Session %s closed. Log: %s\n", client.SessionID(), tuiLogger.FilePath())
}
