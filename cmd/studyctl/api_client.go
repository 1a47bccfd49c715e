package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			// generation may wait on the LLM
			Timeout: 90 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	SessionToken string `json:"session_token,omitempty"`
}

type Card struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Flashcard struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

type GenerateResult struct {
	Flashcards []Card   `json:"flashcards"`
	CardIDs    []string `json:"card_ids"`
	Source     string   `json:"source"`
	Message    string   `json:"message"`
	Warning    string   `json:"warning"`
}

type FlashcardList struct {
	Flashcards []Flashcard `json:"flashcards"`
	Warning    string      `json:"warning"`
}

type Status struct {
	DatabaseAvailable bool   `json:"database_available"`
	OpenAIConfigured  bool   `json:"openai_configured"`
	Mode              string `json:"mode"`
	Backend           string `json:"backend"`
	Message           string `json:"message"`
	AuthRequired      bool   `json:"auth_required"`
}

func (c *APIClient) Register(username, email, password string) (string, error) {
	var result struct {
		UserID string `json:"user_id"`
	}
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(http.MethodPost, "/auth/register", body, "", http.StatusCreated, &result); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return result.UserID, nil
}

// Login returns the user with its session token filled in.
func (c *APIClient) Login(username, password string) (*User, error) {
	var result struct {
		User User `json:"user"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(http.MethodPost, "/auth/login", body, "", http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &result.User, nil
}

func (c *APIClient) Generate(token, notes, subject string, numCards int) (*GenerateResult, error) {
	body := map[string]interface{}{"notes": notes, "subject": subject}
	if numCards > 0 {
		body["num_cards"] = numCards
	}

	var result GenerateResult
	if err := c.do(http.MethodPost, "/generate", body, token, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return &result, nil
}

func (c *APIClient) Flashcards(token string) (*FlashcardList, error) {
	var result FlashcardList
	if err := c.do(http.MethodGet, "/flashcards", nil, token, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}
	return &result, nil
}

func (c *APIClient) SaveSession(token, name string, ids []string) (string, error) {
	var result struct {
		SessionID string `json:"session_id"`
	}
	body := map[string]interface{}{"session_name": name, "flashcard_ids": ids}
	if err := c.do(http.MethodPost, "/save-session", body, token, http.StatusOK, &result); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return result.SessionID, nil
}

// Export returns the raw export document.
func (c *APIClient) Export(token, format string) ([]byte, error) {
	resp, err := c.request(http.MethodGet, "/export/"+format, nil, token)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("export: %s", apiError(resp.StatusCode, data))
	}
	return data, nil
}

func (c *APIClient) Status() (*Status, error) {
	var result Status
	if err := c.do(http.MethodGet, "/status", nil, "", http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	return &result, nil
}

func (c *APIClient) do(method, path string, body interface{}, token string, want int, out interface{}) error {
	resp, err := c.request(method, path, body, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%s", apiError(resp.StatusCode, data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *APIClient) request(method, path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

func apiError(status int, body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Sprintf("status %d: %s", status, e.Error)
	}
	return fmt.Sprintf("status %d: %s", status, string(body))
}
