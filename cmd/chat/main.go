package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"neon-nexus/internal/chatstate"
)

// Cliente de terminal contra el API HTTP. Usa el mismo modelo de estado
// inmutable que la UI web (internal/chatstate).
func main() {
	_ = godotenv.Load()

	baseURL := os.Getenv("CHAT_SERVER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	model := os.Getenv("CHAT_MODEL")

	api := &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 90 * time.Second},
	}

	reader := bufio.NewReader(os.Stdin)
	state := chatstate.New()
	var lastList []conversationSummary

	fmt.Println("Neon Nexus terminal chat. /help para comandos.")
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return
		case line == "/help":
			fmt.Println("/login <email> <password>  /new  /history  /open <n>  /quit")
			fmt.Println("Cualquier otra línea se envía como prompt.")
		case strings.HasPrefix(line, "/login "):
			fields := strings.Fields(line)
			if len(fields) != 3 {
				fmt.Println("uso: /login <email> <password>")
				continue
			}
			if err := api.login(fields[1], fields[2]); err != nil {
				fmt.Println("login:", err)
				continue
			}
			fmt.Println("sesión iniciada como", fields[1])
		case line == "/new":
			state = state.StartNew()
			fmt.Println("conversación nueva")
		case line == "/history":
			state = state.ToggleDrawer()
			if !state.DrawerOpen {
				continue
			}
			lastList, err = api.listConversations()
			if err != nil {
				fmt.Println("historial:", err)
				continue
			}
			if len(lastList) == 0 {
				fmt.Println("(sin conversaciones)")
			}
			for i, c := range lastList {
				fmt.Printf("[%d] %s\n", i+1, c.Title)
			}
		case strings.HasPrefix(line, "/open "):
			idx, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/open ")))
			if err != nil || idx < 1 || idx > len(lastList) {
				fmt.Println("uso: /open <n> (después de /history)")
				continue
			}
			detail, err := api.conversationDetail(lastList[idx-1].ID)
			if err != nil {
				fmt.Println("abrir:", err)
				continue
			}
			msgs := make([]chatstate.Message, 0, len(detail.Messages))
			for _, m := range detail.Messages {
				msgs = append(msgs, chatstate.Message{ID: m.ID, Role: m.Role, Content: m.Content})
			}
			state = state.LoadConversation(detail.ID, msgs)
			printTranscript(state)
		default:
			provisionalID := uuid.NewString()
			state = state.SendPrompt(provisionalID, line)
			out, err := api.exchange(line, model, state.ConversationID)
			if err != nil {
				state = state.FailExchange(err.Error())
				fmt.Println("error:", state.Err)
				continue
			}
			state = state.ApplyExchange(provisionalID, uuid.NewString(), out.Text, out.ConversationID)
			fmt.Println(out.Text)
		}
	}
}

func printTranscript(state chatstate.State) {
	for _, m := range state.Messages {
		fmt.Printf("[%s] %s\n", m.Role, m.Content)
	}
}

type apiClient struct {
	baseURL string
	token   string
	client  *http.Client
}

type conversationSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type conversationDetail struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Messages []struct {
		ID      string `json:"id"`
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type exchangeResponse struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversationId"`
}

func (c *apiClient) login(email, password string) error {
	var out struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	err := c.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return err
	}
	c.token = out.Tokens.AccessToken
	return nil
}

func (c *apiClient) exchange(prompt, model, conversationID string) (exchangeResponse, error) {
	body := map[string]string{"prompt": prompt}
	if model != "" {
		body["modelName"] = model
	}
	if conversationID != "" {
		body["conversationId"] = conversationID
	}
	var out exchangeResponse
	err := c.do(http.MethodPost, "/api/chat", body, &out)
	return out, err
}

func (c *apiClient) listConversations() ([]conversationSummary, error) {
	var out []conversationSummary
	err := c.do(http.MethodGet, "/api/conversations", nil, &out)
	return out, err
}

func (c *apiClient) conversationDetail(id string) (conversationDetail, error) {
	var out conversationDetail
	err := c.do(http.MethodGet, "/api/conversations/"+id, nil, &out)
	return out, err
}

func (c *apiClient) do(method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("warning: decode response: %v", err)
		return err
	}
	return nil
}
