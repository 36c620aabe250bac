package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"aura/backend/internal/ws"

	"github.com/gorilla/websocket"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

func main() {
	baseURL := flag.String("base", envOr("AURA_BASE_URL", "http://localhost:8081"), "AURA server base URL")
	email := flag.String("email", os.Getenv("AURA_EMAIL"), "Account email")
	password := flag.String("password", os.Getenv("AURA_PASSWORD"), "Account password")
	register := flag.Bool("register", false, "Create the account before logging in")
	analyze := flag.String("analyze", "", "Analyze one message and print the verdict")
	chat := flag.Bool("chat", false, "Open an interactive companion session over the websocket")
	helpPtr := flag.Bool("help", false, "Show usage information")
	flag.Parse()

	if *helpPtr || (*analyze == "" && !*chat) {
		fmt.Println("Companion tools usage:")
		fmt.Println("  -email, -password  Credentials (or AURA_EMAIL / AURA_PASSWORD, or AURA_TOKEN)")
		fmt.Println("  -register          Create the account first")
		fmt.Println("  -analyze <text>    Analyze a message for threats")
		fmt.Println("  -chat              Chat with the Safe Twin companion")
		fmt.Println("  -help              Show this help message")
		os.Exit(0)
	}

	token := os.Getenv("AURA_TOKEN")
	if token == "" {
		path := "/api/auth/login"
		if *register {
			path = "/api/auth/register"
		}
		var auth struct {
			Token string `json:"token"`
		}
		if err := postJSON(*baseURL+path, "", map[string]string{"email": *email, "password": *password}, &auth); err != nil {
			log.Fatalf("Authentication failed: %v", err)
		}
		token = auth.Token
	}

	if *analyze != "" {
		var verdict map[string]any
		if err := postJSON(*baseURL+"/api/threats/analyze", token, map[string]string{"message": *analyze, "source": "companionctl"}, &verdict); err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
		out, _ := json.MarshalIndent(verdict, "", "  ")
		fmt.Println(string(out))
	}

	if *chat {
		if err := runChat(*baseURL, token); err != nil {
			log.Fatalf("Chat session ended: %v", err)
		}
	}
}

func postJSON(target, token string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("error response: %s, status: %d", string(bodyBytes), resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

func socketURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/companion"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

func runChat(base, token string) error {
	target, err := socketURL(base, token)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	if err != nil {
		return fmt.Errorf("error connecting to websocket: %w", err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var frame ws.Outbound
			if err := conn.ReadJSON(&frame); err != nil {
				log.Printf("WebSocket read error: %v", err)
				return
			}

			switch frame.Type {
			case ws.TypeHistory:
				for _, turn := range frame.Messages {
					fmt.Printf("[%s] %s\n", turn.Role, turn.Content)
				}
			case ws.TypeResponse:
				fmt.Printf("twin> %s\n", frame.Response)
			case ws.TypeError:
				fmt.Printf("error> %s: %s\n", frame.Error.Code, frame.Error.Message)
			}
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Println("Connected. Type a message and press Enter, Ctrl+C to exit.")
	for {
		select {
		case <-done:
			return nil
		case line, ok := <-lines:
			if !ok {
				return closeSocket(conn, done)
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := conn.WriteJSON(ws.Inbound{Type: ws.TypeChat, Message: line}); err != nil {
				return fmt.Errorf("error writing message: %w", err)
			}
		case <-interrupt:
			return closeSocket(conn, done)
		}
	}
}

func closeSocket(conn *websocket.Conn, done <-chan struct{}) error {
	err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
