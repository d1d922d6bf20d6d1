package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cliente de terminal contra el endpoint /chat. Consume el stream NDJSON y
// pinta los chunks a medida que llegan.

type chatEvent struct {
	Type           string `json:"type"`
	Step           string `json:"step,omitempty"`
	Text           string `json:"text,omitempty"`
	Route          string `json:"route,omitempty"`
	Label          string `json:"label,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

func main() {
	_ = godotenv.Load()

	baseURL := envOr("CHAT_API_URL", "http://localhost:8080")
	debugUser := envOr("CHAT_DEBUG_USER", "cli_test@example.com")
	personality := envOr("CHAT_PERSONALITY", "default")

	client := &http.Client{Timeout: 5 * time.Minute}
	reader := bufio.NewReader(os.Stdin)
	conversationID := ""

	fmt.Println("===== Companion CLI =====")
	fmt.Printf("API: %s | personalidad: %s\n", baseURL, personality)
	fmt.Println("Comandos: 'salir' termina, 'verificar' confirma mayoria de edad.")

	for {
		fmt.Print("Tu > ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "salir") || strings.EqualFold(text, "exit") {
			return
		}
		if strings.EqualFold(text, "verificar") {
			if conversationID == "" {
				fmt.Println("No hay conversacion activa todavia.")
				continue
			}
			if err := verifyAge(client, baseURL, debugUser, conversationID); err != nil {
				fmt.Printf("error verificando edad: %v\n", err)
			} else {
				fmt.Println("Edad verificada para esta conversacion.")
			}
			continue
		}

		convID, err := streamMessage(client, baseURL, debugUser, personality, conversationID, text)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		if convID != "" {
			conversationID = convID
		}
	}
}

func streamMessage(client *http.Client, baseURL, debugUser, personality, conversationID, message string) (string, error) {
	payload := map[string]string{
		"message":     message,
		"personality": personality,
	}
	if conversationID != "" {
		payload["conversation_id"] = conversationID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Debug-User", debugUser)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var lastConvID string
	inResponse := false
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev chatEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		if ev.ConversationID != "" {
			lastConvID = ev.ConversationID
		}
		switch ev.Type {
		case "thinking":
			fmt.Printf("  [%s]\n", ev.Step)
		case "chunk":
			if !inResponse {
				fmt.Print("Ella > ")
				inResponse = true
			}
			fmt.Print(ev.Text)
		case "age_verification_required":
			fmt.Printf("\n⚠ %s\n", ev.Text)
			fmt.Println("Escribe 'verificar' si tienes 18 o mas.")
		case "refusal":
			fmt.Printf("\n%s\n", ev.Text)
		case "error":
			fmt.Printf("\nerror del servidor: %s\n", ev.Error)
		case "done":
			if inResponse {
				fmt.Println()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return lastConvID, err
	}
	return lastConvID, nil
}

func verifyAge(client *http.Client, baseURL, debugUser, conversationID string) error {
	req, err := http.NewRequest(http.MethodPost, baseURL+"/conversations/"+conversationID+"/age-verify", nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Debug-User", debugUser)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return errors.New("verification rejected by server")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
