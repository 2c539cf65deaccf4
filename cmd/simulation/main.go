package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Simplified DTOs for the script
type enhanceRequest struct {
	Prompt            string `json:"prompt"`
	UseHistory        bool   `json:"use_history"`
	AutoCreateSession bool   `json:"auto_create_session"`
}

type enhanceResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		EnhancedText string `json:"enhanced_text"`
		SessionID    string `json:"session_id"`
		IsFollowUp   bool   `json:"is_follow_up"`
		Quota        struct {
			Used      int `json:"used"`
			Limit     int `json:"limit"`
			Remaining int `json:"remaining"`
		} `json:"quota"`
	} `json:"data"`
}

func main() {
	color.Cyan("=== PromptPolish Quota Walkthrough ===")
	color.Cyan("Anonymous visitor, 10 enhancements per day, the 11th hits the wall.\n")

	// The cookie jar keeps the anonymous identity stable across calls, the
	// same way a browser would.
	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar, Timeout: 3 * time.Minute}

	prompts := []string{
		"Write a poem about the sea",
		"Make it shorter",
		"What about a haiku instead?",
		"Now in the style of Basho",
		"Translate it to French",
		"Explain the imagery you used",
		"Draft an email sharing the poem with a friend",
		"Make the email more formal",
		"Add a witty subject line",
		"Summarize everything we made today",
		"One more poem please", // this one should be rejected
	}

	for i, prompt := range prompts {
		fmt.Printf("\n[%2d] PROMPT: %s\n", i+1, prompt)

		status, res, err := enhance(client, prompt)
		if err != nil {
			color.Red("     request failed: %v", err)
			continue
		}

		switch status {
		case http.StatusOK:
			color.Green("     enhanced (%d chars), follow-up=%v", len(res.Data.EnhancedText), res.Data.IsFollowUp)
			color.Yellow("     quota: %d/%d used, %d remaining", res.Data.Quota.Used, res.Data.Quota.Limit, res.Data.Quota.Remaining)
		case http.StatusTooManyRequests:
			color.Red("     REJECTED: %s (HTTP 429)", res.Message)
		default:
			color.Red("     unexpected status %d: %s", status, res.Message)
		}
	}

	color.Cyan("\nDone. Sign in to get a fresh ceiling of 20 with today's usage carried over.")
}

func enhance(client *http.Client, prompt string) (int, *enhanceResponse, error) {
	body, _ := json.Marshal(enhanceRequest{
		Prompt:            prompt,
		UseHistory:        true,
		AutoCreateSession: true,
	})

	resp, err := client.Post(baseURL+"/enhance", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	var res enhanceResponse
	if err := json.Unmarshal(content, &res); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, &res, nil
}
