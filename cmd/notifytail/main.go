// Command notifytail prints a user's realtime notifications as they arrive.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devgram/internal/notifications"

	"github.com/gorilla/websocket"
)

var httpClient = &http.Client{Timeout: 5 * time.Second}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	email := flag.String("email", "", "Account email (ignored with -token)")
	password := flag.String("password", "password123", "Account password")
	token := flag.String("token", "", "Existing bearer token")
	secure := flag.Bool("tls", false, "Use https/wss")
	flag.Parse()

	httpScheme, wsScheme := "http", "ws"
	if *secure {
		httpScheme, wsScheme = "https", "wss"
	}
	base := fmt.Sprintf("%s://%s", httpScheme, *host)

	if *token == "" {
		if *email == "" {
			log.Fatal("either -token or -email is required")
		}
		t, err := login(base, *email, *password)
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		*token = t
	}

	ticket, err := getTicket(base, *token)
	if err != nil {
		log.Fatalf("Ticket issuance failed: %v", err)
	}

	u := url.URL{Scheme: wsScheme, Host: *host, Path: "/api/ws", RawQuery: "ticket=" + url.QueryEscape(ticket)}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		log.Fatalf("Dial %s failed: %v", u.Redacted(), err)
	}
	defer func() { _ = conn.Close() }()
	log.Printf("Connected to %s, waiting for notifications", *host)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("Read failed: %v", err)
				}
				return
			}
			printFrame(data)
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func printFrame(data []byte) {
	frame, n, err := notifications.DecodeFrame(data)
	if err != nil {
		log.Printf("Undecodable frame: %s", data)
		return
	}
	if n == nil {
		log.Printf("[%s] %s", frame.Type, frame.Payload)
		return
	}
	line := fmt.Sprintf("%s  %-8s @%s %s", n.CreatedAt.Local().Format(time.TimeOnly), n.Type, n.Sender, n.Content)
	if n.PostID != "" {
		line += " (post " + n.PostID + ")"
	}
	fmt.Println(line)
}

func login(base, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Post(base+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func getTicket(base, token string) (string, error) {
	req, err := http.NewRequest(http.MethodPost, base+"/api/ws/ticket", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ticket issuance failed with status %d", resp.StatusCode)
	}

	var result struct {
		Ticket string `json:"ticket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Ticket, nil
}
