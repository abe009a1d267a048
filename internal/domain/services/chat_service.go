package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/duncan1987/askzeninsight-sub000/internal/config"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/repositories"
)

const systemPrompt = `You are a warm, grounded spiritual guide. You listen deeply,
draw on contemplative traditions without dogma, and offer gentle, practical
reflections. You never give medical, legal or financial advice, and you never
claim supernatural knowledge.`

// crisisResponse is returned verbatim when a message trips the self-harm
// screen. It short-circuits before any upstream call: a safety control, not
// an error path.
const crisisResponse = `It sounds like you are going through something very heavy right now. You deserve support from a real person.

Please consider reaching out right away:
- International: https://findahelpline.com
- US & Canada: call or text 988
- UK & Ireland: Samaritans, 116 123

If you are in immediate danger, please contact your local emergency services. You matter, and you do not have to face this alone.`

var crisisPatterns = []string{
	"kill myself",
	"end my life",
	"suicide",
	"self harm",
	"self-harm",
	"hurt myself",
	"want to die",
	"better off dead",
}

type ChatRequest struct {
	UserID    string
	UserEmail string
	// ClientID keys quota for anonymous turns; ignored once UserID is set.
	ClientID       string
	ConversationID *uuid.UUID
	Message        string
	// OnTurnStart fires once the turn is admitted, before any reply bytes
	// are written. HTTP handlers use it to emit metadata headers while the
	// response is still uncommitted.
	OnTurnStart func(ChatOutcome)
}

type ChatOutcome struct {
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	Model          string     `json:"model"`
	Downgraded     bool       `json:"downgraded"`
	Crisis         bool       `json:"crisis"`
}

type ChatService interface {
	// StreamChat runs one chat turn, writing the assistant reply to w as
	// plain chunked text as tokens arrive.
	StreamChat(ctx context.Context, req ChatRequest, w io.Writer) (*ChatOutcome, error)
}

type chatService struct {
	client   *openai.Client
	tiers    TierService
	usage    UsageService
	convRepo repositories.ConversationRepository
	ai       config.AIConfig
	logger   *slog.Logger
}

func NewChatService(
	tiers TierService,
	usage UsageService,
	convRepo repositories.ConversationRepository,
	ai config.AIConfig,
	logger *slog.Logger,
) ChatService {
	clientCfg := openai.DefaultConfig(ai.APIKey)
	clientCfg.BaseURL = ai.BaseURL

	return &chatService{
		client:   openai.NewClientWithConfig(clientCfg),
		tiers:    tiers,
		usage:    usage,
		convRepo: convRepo,
		ai:       ai,
		logger:   logger,
	}
}

func containsCrisisContent(message string) bool {
	lower := strings.ToLower(message)
	for _, pattern := range crisisPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func (s *chatService) StreamChat(ctx context.Context, req ChatRequest, w io.Writer) (*ChatOutcome, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("empty message")
	}
	if len(message) > s.ai.MaxMessageChars {
		return nil, fmt.Errorf("%w: %d characters (limit %d)", ErrMessageTooLong, len(message), s.ai.MaxMessageChars)
	}

	status, err := s.usage.CheckUsageLimit(ctx, req.UserID, req.ClientID)
	if err != nil {
		return nil, err
	}
	if !status.CanProceed {
		return nil, fmt.Errorf("%w: %d of %d messages used", ErrQuotaExceeded, status.Used, status.Limit)
	}

	// The safety screen runs before anything is sent upstream.
	if containsCrisisContent(message) {
		outcome := ChatOutcome{Crisis: true}
		if req.OnTurnStart != nil {
			req.OnTurnStart(outcome)
		}
		writeChunk(w, crisisResponse)
		return &outcome, nil
	}

	ent := s.tiers.Resolve(ctx, req.UserID)

	model := ent.Model
	maxTokens := ent.MaxTokens
	downgraded := false
	if ent.Tier == models.TierPro && !s.usage.IsWithinPremiumQuota(ctx, req.UserID) {
		// Fair-use exhausted: serve the basic model for this turn instead
		// of failing the request.
		model = s.ai.BasicModel
		maxTokens = s.ai.BasicMaxTokens
		downgraded = true
	}

	history, convID, err := s.loadHistory(ctx, req, ent)
	if err != nil {
		return nil, err
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, msg := range history {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	streamCtx, cancel := context.WithTimeout(ctx, time.Duration(s.ai.RequestTimeout)*time.Second)
	defer cancel()

	stream, err := s.client.CreateChatCompletionStream(streamCtx, openai.ChatCompletionRequest{
		Model:     model,
		Messages:  chatMessages,
		MaxTokens: maxTokens,
		Stream:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	defer stream.Close()

	outcome := ChatOutcome{
		ConversationID: convID,
		Model:          model,
		Downgraded:     downgraded,
	}
	if req.OnTurnStart != nil {
		req.OnTurnStart(outcome)
	}

	if err := s.usage.RecordUsage(ctx, req.UserID, req.ClientID, models.MessageTypeUser); err != nil {
		s.logError("failed to record user usage", err, "user_id", req.UserID)
	}

	var reply strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Tokens already sent cannot be unsent; log and stop.
			s.logError("chat stream interrupted", err, "user_id", req.UserID)
			break
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		reply.WriteString(delta)
		writeChunk(w, delta)
	}

	if err := s.usage.RecordUsage(ctx, req.UserID, req.ClientID, models.MessageTypeAssistant); err != nil {
		s.logError("failed to record assistant usage", err, "user_id", req.UserID)
	}

	if ent.SaveHistory && convID != nil {
		s.saveTurn(ctx, *convID, message, reply.String())
	}

	return &outcome, nil
}

// loadHistory resolves the conversation for the turn: loads prior messages
// when one is referenced, creates a new one for history-saving users, and
// returns nil for callers whose tier does not persist history.
func (s *chatService) loadHistory(ctx context.Context, req ChatRequest, ent models.Entitlement) ([]*models.ChatMessage, *uuid.UUID, error) {
	if !ent.SaveHistory {
		return nil, nil, nil
	}

	if req.ConversationID != nil {
		conv, err := s.convRepo.GetByID(ctx, *req.ConversationID)
		if err != nil {
			return nil, nil, err
		}
		if conv == nil || conv.UserID != req.UserID {
			return nil, nil, ErrConversationNotFound
		}

		history, err := s.convRepo.ListMessages(ctx, conv.ID)
		if err != nil {
			return nil, nil, err
		}
		return history, &conv.ID, nil
	}

	// Truncate by runes, not bytes: a byte cut can split a multi-byte
	// character and Postgres rejects invalid UTF-8 text.
	title := req.Message
	if runes := []rune(title); len(runes) > 60 {
		title = string(runes[:60])
	}
	conv := &models.Conversation{UserID: req.UserID, Title: title}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		// History is a best-effort side effect; chat still works without it.
		s.logError("failed to create conversation", err, "user_id", req.UserID)
		return nil, nil, nil
	}

	return nil, &conv.ID, nil
}

func (s *chatService) saveTurn(ctx context.Context, convID uuid.UUID, userMsg, assistantMsg string) {
	userRow := &models.ChatMessage{
		ConversationID: convID,
		Role:           openai.ChatMessageRoleUser,
		Content:        userMsg,
	}
	if err := s.convRepo.AppendMessage(ctx, userRow); err != nil {
		s.logError("failed to save user message", err, "conversation_id", convID)
		return
	}

	assistantRow := &models.ChatMessage{
		ConversationID: convID,
		Role:           openai.ChatMessageRoleAssistant,
		Content:        assistantMsg,
	}
	if err := s.convRepo.AppendMessage(ctx, assistantRow); err != nil {
		s.logError("failed to save assistant message", err, "conversation_id", convID)
	}
}

func writeChunk(w io.Writer, text string) {
	io.WriteString(w, text)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (s *chatService) logError(msg string, err error, args ...interface{}) {
	if s.logger != nil {
		allArgs := append([]interface{}{"error", err}, args...)
		s.logger.Error(msg, allArgs...)
	}
}
