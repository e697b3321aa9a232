package models

import (
	"errors"
	"time"
)

// ErrExchangeNotFound is returned when a conversation exchange is not found
var ErrExchangeNotFound = errors.New("exchange not found")

// SourceType says where a retrieved passage originated.
type SourceType string

const (
	SourceWebsite SourceType = "website"
	SourceArchive SourceType = "archive"
)

// DateRelevance summarises the calendar dates found in a passage relative
// to the current date.
type DateRelevance string

const (
	HasFutureDates DateRelevance = "future"
	OnlyPastDates  DateRelevance = "past"
	NoDates        DateRelevance = "none"
)

// QueryType is the coarse classification of a user message.
type QueryType string

const (
	QueryGreeting      QueryType = "greeting"
	QueryFarewell      QueryType = "farewell"
	QueryKnowledgeBase QueryType = "knowledge_base"
	QueryBlocked       QueryType = "blocked"
	QueryError         QueryType = "error"
)

// Passage is one retrieved unit of text from the knowledge index.
// Text, Origin and Score come from retrieval and are never recomputed;
// SourceType and DateRelevance are attached during reranking and not
// persisted anywhere.
type Passage struct {
	Text        string  `json:"text"`
	Origin      string  `json:"origin"`                 // source URL or storage path
	Location    string  `json:"location,omitempty"`     // secondary storage locator, e.g. s3://... or file path
	Domain      string  `json:"domain,omitempty"`       // site domain the passage was indexed under
	MeetingDate string  `json:"meeting_date,omitempty"` // board-minutes metadata when present
	Score       float64 `json:"score"`

	SourceType    SourceType    `json:"source_type,omitempty"`
	DateRelevance DateRelevance `json:"date_relevance,omitempty"`
}

// Source is the citation record returned to the frontend for one passage
// the model actually used.
type Source struct {
	Filename string `json:"filename"`
	URL      string `json:"url,omitempty"`
	Location string `json:"location,omitempty"`
}

// Message is one turn of conversation history.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest is an incoming chat message.
type ChatRequest struct {
	Message        string `json:"message"`
	SessionID      string `json:"sessionId"`
	SelectedSchool string `json:"selectedSchool"`
}

// ChatResult is the full response for one chat request.
type ChatResult struct {
	Success      bool      `json:"success"`
	Response     string    `json:"response"`
	SessionID    string    `json:"sessionId"`
	MessageID    string    `json:"messageId"`
	QueryType    QueryType `json:"queryType"`
	ResponseTime float64   `json:"responseTime"` // seconds
	Sources      []Source  `json:"sources"`
}

// Classification is the coarse label assigned to a user message before
// retrieval. School is set when the message names one of the configured
// school sites.
type Classification struct {
	Type   QueryType `json:"type"`
	School string    `json:"school,omitempty"`
}

// AnswerRequest carries everything the answer model needs for one reply.
type AnswerRequest struct {
	Query               string
	Context             string // numbered [Source N] block from retrieval
	ConversationContext string
	SelectedSchool      string
	Today               time.Time
}

// Exchange is one persisted user/assistant turn, optionally annotated with
// feedback after the fact.
type Exchange struct {
	SessionID         string     `json:"session_id"`
	MessageID         string     `json:"message_id"`
	UserMessage       string     `json:"user_message"`
	AssistantResponse string     `json:"assistant_response"`
	QueryType         QueryType  `json:"query_type"`
	ResponseTime      float64    `json:"response_time_seconds"`
	CreatedAt         time.Time  `json:"created_at"`
	FeedbackType      string     `json:"feedback_type,omitempty"` // "up" or "down"
	FeedbackText      string     `json:"feedback_text,omitempty"`
	FeedbackAt        *time.Time `json:"feedback_at,omitempty"`
}
