package chat

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/schoolchat/config"
	"github.com/mohammad-safakhou/schoolchat/internal/rerank"
	"github.com/mohammad-safakhou/schoolchat/internal/telemetry"
	"github.com/mohammad-safakhou/schoolchat/models"
	"github.com/mohammad-safakhou/schoolchat/provider"
	"github.com/mohammad-safakhou/schoolchat/retrieval"
)

// ConversationStore is the durable conversation log.
type ConversationStore interface {
	SaveExchange(ctx context.Context, ex models.Exchange) error
	History(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
	NextMessageID(ctx context.Context, sessionID string) (string, error)
}

// HistoryCache is the fast path for recent conversation context.
type HistoryCache interface {
	Recent(ctx context.Context, sessionID string) ([]models.Message, error)
	Append(ctx context.Context, sessionID string, user, assistant models.Message) error
}

// Engine runs the chat pipeline: history, classification, moderation,
// retrieval, reranking, answer generation and persistence.
type Engine struct {
	cfg     *config.Config
	llm     provider.Provider
	ret     retrieval.Retriever
	store   ConversationStore
	cache   HistoryCache // optional
	metrics *telemetry.Metrics
	logger  *log.Logger
	now     func() time.Time
}

func NewEngine(cfg *config.Config, llm provider.Provider, ret retrieval.Retriever, store ConversationStore, cache HistoryCache, metrics *telemetry.Metrics, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(log.Writer(), "[CHAT] ", log.LstdFlags)
	}
	return &Engine{
		cfg:     cfg,
		llm:     llm,
		ret:     ret,
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// ProcessChatRequest runs one message through the full pipeline. It never
// returns an error: every failure mode degrades into an apologetic result
// that is still persisted, so the frontend always has something to show.
func (e *Engine) ProcessChatRequest(ctx context.Context, req models.ChatRequest) models.ChatResult {
	start := e.now()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	history := e.recentHistory(ctx, sessionID)

	classification := e.classify(ctx, req.Message)

	allowed, err := e.llm.ModerateInput(ctx, req.Message)
	if err != nil {
		// Moderation outages fail open.
		e.logger.Printf("moderation error (allowing message): %v", err)
		allowed = true
	}
	if !allowed {
		return e.finish(ctx, sessionID, req.Message, blockedResponse, models.QueryBlocked, start, nil, false)
	}

	switch classification.Type {
	case models.QueryGreeting:
		return e.finish(ctx, sessionID, req.Message, greetingResponse, models.QueryGreeting, start, nil, true)
	case models.QueryFarewell:
		return e.finish(ctx, sessionID, req.Message, farewellResponse, models.QueryFarewell, start, nil, true)
	}

	school := classification.School
	if school == "" {
		school = req.SelectedSchool
	}

	contextBlock, sources, err := e.retrieveContext(ctx, req.Message, school, start)
	if err != nil {
		e.logger.Printf("retrieval error: %v", err)
		return e.finish(ctx, sessionID, req.Message, errorResponse, models.QueryError, start, nil, false)
	}

	answer, err := e.llm.GenerateAnswer(ctx, models.AnswerRequest{
		Query:               req.Message,
		Context:             contextBlock,
		ConversationContext: FormatConversation(history),
		SelectedSchool:      school,
		Today:               start,
	})
	if err != nil {
		e.logger.Printf("answer generation error: %v", err)
		return e.finish(ctx, sessionID, req.Message, errorResponse, models.QueryError, start, nil, false)
	}

	text, used := ParseAnswer(answer)
	cited := CitedSources(sources, used)

	return e.finish(ctx, sessionID, req.Message, text, models.QueryKnowledgeBase, start, cited, true)
}

// classify labels the message, falling back to knowledge_base whenever the
// classifier is unavailable so retrieval still happens.
func (e *Engine) classify(ctx context.Context, message string) models.Classification {
	c, err := e.llm.ClassifyQuery(ctx, message, e.schoolNames())
	if err != nil {
		e.logger.Printf("classification error (falling back to knowledge_base): %v", err)
		return models.Classification{Type: models.QueryKnowledgeBase}
	}
	return c
}

// retrieveContext pulls the district-wide passages plus, when a school is
// in play, the school-specific ones, reranks both groups independently and
// flattens them into the numbered prompt block.
func (e *Engine) retrieveContext(ctx context.Context, message, school string, now time.Time) (string, []models.Source, error) {
	query := message
	if school != "" {
		query = message + " " + school
	}

	district, err := e.ret.Retrieve(ctx, query, e.cfg.Retrieval.DistrictDomain, e.cfg.Retrieval.DistrictResults)
	if err != nil {
		return "", nil, fmt.Errorf("district retrieval: %w", err)
	}
	district = rerank.Rerank(district, message, now)
	e.metrics.RecordRerank(district)

	var schoolPassages []models.Passage
	if domain, ok := e.cfg.Schools[school]; ok && domain != "" {
		schoolPassages, err = e.ret.Retrieve(ctx, query, domain, e.cfg.Retrieval.SchoolResults)
		if err != nil {
			// The district results alone still make a usable answer.
			e.logger.Printf("school retrieval error for %q: %v", school, err)
			schoolPassages = nil
		} else {
			schoolPassages = rerank.Rerank(schoolPassages, message, now)
			e.metrics.RecordRerank(schoolPassages)
		}
	}

	block, sources := BuildContext(district, schoolPassages)
	return block, sources, nil
}

// finish persists the exchange, records metrics and shapes the response.
func (e *Engine) finish(ctx context.Context, sessionID, userMessage, response string, queryType models.QueryType, start time.Time, sources []models.Source, success bool) models.ChatResult {
	elapsed := e.now().Sub(start).Seconds()

	messageID, err := e.store.NextMessageID(ctx, sessionID)
	if err != nil {
		e.logger.Printf("message id allocation error: %v", err)
		messageID = fmt.Sprintf("msg%d", e.now().Unix())
	}

	ex := models.Exchange{
		SessionID:         sessionID,
		MessageID:         messageID,
		UserMessage:       userMessage,
		AssistantResponse: response,
		QueryType:         queryType,
		ResponseTime:      elapsed,
		CreatedAt:         e.now().UTC(),
	}
	if err := e.store.SaveExchange(ctx, ex); err != nil {
		e.logger.Printf("save exchange error: %v", err)
	}
	if e.cache != nil {
		user := models.Message{Role: "user", Content: userMessage, Timestamp: ex.CreatedAt}
		assistant := models.Message{Role: "assistant", Content: response, Timestamp: ex.CreatedAt}
		if err := e.cache.Append(ctx, sessionID, user, assistant); err != nil {
			e.logger.Printf("history cache append error: %v", err)
		}
	}

	e.metrics.RecordChat(queryType, elapsed)

	if sources == nil {
		sources = []models.Source{}
	}
	return models.ChatResult{
		Success:      success,
		Response:     response,
		SessionID:    sessionID,
		MessageID:    messageID,
		QueryType:    queryType,
		ResponseTime: elapsed,
		Sources:      sources,
	}
}

// recentHistory prefers the redis cache and falls back to the durable
// store; either failing just means answering without context.
func (e *Engine) recentHistory(ctx context.Context, sessionID string) []models.Message {
	if e.cache != nil {
		msgs, err := e.cache.Recent(ctx, sessionID)
		if err != nil {
			e.logger.Printf("history cache read error: %v", err)
		} else if len(msgs) > 0 {
			return msgs
		}
	}
	msgs, err := e.store.History(ctx, sessionID, e.cfg.Retrieval.HistoryDepth)
	if err != nil {
		e.logger.Printf("history load error: %v", err)
		return nil
	}
	return msgs
}

func (e *Engine) schoolNames() []string {
	names := make([]string, 0, len(e.cfg.Schools))
	for name := range e.cfg.Schools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
