package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mohammad-safakhou/schoolchat/models"
)

const (
	chatCompletionsURL = "https://api.openai.com/v1/chat/completions"
	embeddingsURL      = "https://api.openai.com/v1/embeddings"
	moderationsURL     = "https://api.openai.com/v1/moderations"
)

// client implements the Provider interface using OpenAI's API
type client struct {
	apiKey          string
	chatModel       string
	classifierModel string
	embeddingModel  string
	temperature     float64
	maxTokens       int
	httpClient      *http.Client
}

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(apiKey, chatModel, classifierModel, embeddingModel string, temperature float64, maxTokens int, timeout time.Duration) *client {
	return &client{
		apiKey:          apiKey,
		chatModel:       chatModel,
		classifierModel: classifierModel,
		embeddingModel:  embeddingModel,
		temperature:     temperature,
		maxTokens:       maxTokens,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

func (c *client) sendRequest(ctx context.Context, model string, messages []Message, temperature float64, maxTokens int) (string, error) {
	requestBody := map[string]interface{}{
		"model":       model,
		"messages":    messages,
		"temperature": temperature,
	}
	if maxTokens > 0 {
		requestBody["max_tokens"] = maxTokens
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", chatCompletionsURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var openaiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(openaiResp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return openaiResp.Choices[0].Message.Content, nil
}

// ClassifyQuery labels the user message. The classifier replies with a bare
// category token: greeting, farewell, knowledge_base, or
// knowledge_base_<n> when the message names the n-th listed school.
func (c *client) ClassifyQuery(ctx context.Context, message string, schools []string) (models.Classification, error) {
	var numbered strings.Builder
	for i, s := range schools {
		if i > 0 {
			numbered.WriteString(", ")
		}
		fmt.Fprintf(&numbered, "%s(%d)", s, i+1)
	}

	prompt := fmt.Sprintf(`You are a query classifier for a school district assistant chatbot. Classify the user message into one of these categories:

CATEGORIES:
1. "greeting" - Initial hellos, good morning/afternoon/evening, introductory messages
2. "farewell" - Thank you messages, goodbye, see you later, closing statements
3. "knowledge_base" - Any questions or requests for information (school-related or otherwise)
4. "knowledge_base_[school_number]" - Same as knowledge_base, but the question names one of these schools: %s
- If only the district itself is mentioned, reply with knowledge_base

EXAMPLES:
- "Hi there" -> greeting
- "Thanks for your help" -> farewell
- "What are the school hours?" -> knowledge_base
- "How do I enroll my child?" -> knowledge_base

USER MESSAGE: "%s"

Respond with ONLY the category name. No explanation needed.`, numbered.String(), message)

	raw, err := c.sendRequest(ctx, c.classifierModel, []Message{{Role: "user", Content: prompt}}, 0.1, 10)
	if err != nil {
		return models.Classification{}, err
	}
	return parseClassification(raw, schools), nil
}

// parseClassification maps the classifier's raw label onto a
// Classification. Anything unrecognised falls back to knowledge_base so a
// confused classifier never blocks retrieval.
func parseClassification(raw string, schools []string) models.Classification {
	label := strings.ToLower(strings.TrimSpace(raw))
	switch label {
	case "greeting":
		return models.Classification{Type: models.QueryGreeting}
	case "farewell":
		return models.Classification{Type: models.QueryFarewell}
	}
	if strings.HasPrefix(label, "knowledge_base_") {
		if n, err := strconv.Atoi(strings.TrimPrefix(label, "knowledge_base_")); err == nil && n >= 1 && n <= len(schools) {
			return models.Classification{Type: models.QueryKnowledgeBase, School: schools[n-1]}
		}
	}
	return models.Classification{Type: models.QueryKnowledgeBase}
}

// ModerateInput runs the message through the moderation endpoint. Errors
// fail open: moderation outages must not take the assistant down.
func (c *client) ModerateInput(ctx context.Context, text string) (bool, error) {
	requestBody := map[string]interface{}{"input": text}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return true, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", moderationsURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return true, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return true, fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var modResp struct {
		Results []struct {
			Flagged bool `json:"flagged"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&modResp); err != nil {
		return true, fmt.Errorf("failed to parse response: %w", err)
	}
	for _, r := range modResp.Results {
		if r.Flagged {
			return false, nil
		}
	}
	return true, nil
}

// GenerateAnswer produces the assistant reply from retrieved context.
func (c *client) GenerateAnswer(ctx context.Context, req models.AnswerRequest) (string, error) {
	prompt := fmt.Sprintf(`You are an intelligent assistant for a school district that provides helpful information to students, parents, staff, and community members.

Today's date is %s. Answer according to today's date.

IMPORTANT - DATE-AWARE RESPONSES:
When answering questions about events, schedules, or dates:
- Focus on upcoming/future dates relative to today
- Use phrases like "The next..." or "Upcoming..." when appropriate
- If only past dates are available, acknowledge they have passed

Recent conversation context:
%s

Knowledge Base Context:
%s

Current User Question: %s

The user has selected the school: %s

Use retrieved context to provide accurate, detailed responses.
If information is insufficient, clearly state "I don't have specific information about [topic]".
Suggest contacting the district office directly when appropriate.

IMPORTANT - SOURCE PRIORITIZATION:
Always prioritize information from website sources over PDF documents.
Website content is more current and authoritative than archived documents.
Only use PDF documents when website sources don't contain the needed information.
Do not mention meeting dates in your answer unless specifically asked about meetings.

RESPONSE GUIDELINES:
Be conversational and helpful, not robotic.
Provide specific details when available (dates, contact info, requirements).
Do not explain your reasoning.
At the end of your response include the list of sources you ACTUALLY used, referenced by their counter values, formatted exactly like <sources_used>[num1,num2,num3]</sources_used>.`,
		req.Today.Format("2006-01-02"), req.ConversationContext, req.Context, req.Query, orNone(req.SelectedSchool))

	return c.sendRequest(ctx, c.chatModel, []Message{{Role: "user", Content: prompt}}, c.temperature, c.maxTokens)
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

// CreateEmbedding generates an embedding for the given texts using OpenAI's API
func (c *client) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	requestBody := map[string]interface{}{
		"model": c.embeddingModel,
		"input": texts,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", embeddingsURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var openaiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	vecs := make([][]float32, len(openaiResp.Data))
	for i, d := range openaiResp.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}
