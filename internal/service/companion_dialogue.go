package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aura/backend/ai"
	"aura/backend/internal/models"
	"aura/backend/internal/repository"
	"aura/backend/pkg/errors"
	"aura/backend/pkg/lock"
	"aura/backend/pkg/logger"
)

const companionPersona = `You are Safe Twin, a trauma-informed AI companion designed to support African women and girls experiencing digital violence. Your role is to:

1. Provide empathetic, non-judgmental support
2. Offer practical safety advice and guidance
3. Help users understand concerning online behaviors
4. Guide users on how to document and report abuse
5. Provide emotional support in a calm, reassuring manner
6. Never blame victims or minimize their experiences
7. Recognize signs of crisis and provide appropriate resources
8. Respect cultural contexts and sensitivities

Communication style:
- Use warm, supportive language
- Validate feelings and experiences
- Be direct but gentle when addressing safety concerns
- Offer actionable steps when appropriate
- Know when to recommend professional help or emergency services

You are NOT a replacement for professional mental health support, law enforcement, or emergency services. When situations are serious, always recommend appropriate resources.

If a user is in immediate danger, prioritize their safety and guide them to emergency services.`

// Fixed companion replies used when the model cannot answer
const (
	ReplyNoCredential = "I'm Safe Twin, your AI companion. To enable full AI support, please configure the OPENAI_API_KEY. In the meantime, if you're in immediate danger, please contact local emergency services or a trusted person."
	ReplyUnavailable  = "I apologize, but I'm having trouble responding right now. If this is an emergency, please contact local emergency services or a trusted person immediately."
	ReplyEmpty        = "I'm here to help. Could you tell me more about what you're experiencing?"
)

const persistTimeout = 5 * time.Second

// CompanionDialogue keeps one append-only transcript per user and answers
// each user turn with the companion persona.
type CompanionDialogue struct {
	provider ai.Provider
	store    repository.ConversationRepository
	locker   lock.Locker
	now      func() time.Time
}

// NewCompanionDialogue creates the dialogue service. provider may be nil.
// A nil locker falls back to an in-process keyed mutex.
func NewCompanionDialogue(provider ai.Provider, store repository.ConversationRepository, locker lock.Locker) *CompanionDialogue {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	return &CompanionDialogue{
		provider: provider,
		store:    store,
		locker:   locker,
		now:      time.Now,
	}
}

// History returns the user's transcript, empty when none exists
func (d *CompanionDialogue) History(ctx context.Context, userID string) ([]models.ConversationTurn, error) {
	chat, err := d.store.Get(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError("Failed to fetch chat", err)
	}
	if chat == nil {
		return []models.ConversationTurn{}, nil
	}
	return chat.Messages, nil
}

// Converse appends the user turn and the companion's reply and persists both.
// A model failure still produces a reply; only storage failures are errors.
func (d *CompanionDialogue) Converse(ctx context.Context, userID, text string) (*models.ChatResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewValidationError("Message is required")
	}

	release, err := d.locker.Lock(ctx, "companion:"+userID)
	if err != nil {
		return nil, fmt.Errorf("acquire conversation lock: %w", err)
	}
	defer release()

	transcript, err := d.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	turns := make([]models.ConversationTurn, 0, len(transcript)+2)
	turns = append(turns, transcript...)
	turns = append(turns, models.ConversationTurn{
		Role:      models.TurnUser,
		Content:   text,
		Timestamp: d.now().UTC(),
	})

	reply := d.reply(ctx, turns)
	turns = append(turns, models.ConversationTurn{
		Role:      models.TurnAssistant,
		Content:   reply,
		Timestamp: d.now().UTC(),
	})

	// the user turn is saved even when the caller has gone away
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	chat, err := d.store.Upsert(persistCtx, userID, turns)
	if err != nil {
		return nil, errors.NewStorageError("Failed to save chat", err)
	}

	return &models.ChatResponse{Response: reply, Messages: chat.Messages}, nil
}

func (d *CompanionDialogue) reply(ctx context.Context, turns []models.ConversationTurn) string {
	if d.provider == nil {
		return ReplyNoCredential
	}

	msgs := make([]ai.Message, 0, len(turns))
	for _, t := range turns {
		role := ai.RoleUser
		if t.Role == models.TurnAssistant {
			role = ai.RoleAssistant
		}
		msgs = append(msgs, ai.Message{Role: role, Content: t.Content})
	}

	out, err := d.provider.Complete(ctx, ai.Request{
		Operation: "converse",
		System:    companionPersona,
		Messages:  msgs,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("Companion reply failed", "error", err.Error())
		return ReplyUnavailable
	}
	if strings.TrimSpace(out) == "" {
		return ReplyEmpty
	}
	return out
}
