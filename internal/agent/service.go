package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

// Reward limits
const (
	MaxRewardXP    = 1000
	MaxRewardMoney = 500
	MaxFlashcards  = 20
)

// ErrUnavailable means no generator is configured
var ErrUnavailable = errors.New("content agent is not configured")

// Reward is a suggested completion reward for a task
type Reward struct {
	XP       int    `json:"xp"`
	Money    int    `json:"money"`
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}

// FallbackReward is the reward used when the model cannot answer
func FallbackReward(p models.Priority) Reward {
	switch p {
	case models.PriorityHigh:
		return Reward{XP: 200, Money: 50, Fallback: true}
	case models.PriorityLow:
		return Reward{XP: 50, Money: 10, Fallback: true}
	default:
		return Reward{XP: 100, Money: 25, Fallback: true}
	}
}

// Service builds prompts and interprets model output
type Service struct {
	gen    Generator
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a service. gen may be nil, in which case only the
// fallbacks are available.
func NewService(gen Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, logger: logger, now: time.Now}
}

// Available reports whether a generator is configured
func (s *Service) Available() bool {
	return s != nil && s.gen != nil
}

// Advice returns short pieces of advice about topic
func (s *Service) Advice(ctx context.Context, topic string) ([]string, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}
	prompt := fmt.Sprintf(
		"Give 3 to 5 short, practical tips for making progress on: %q. "+
			`Respond as JSON: {"advice": ["tip", ...]}`, topic)

	raw, err := s.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Advice []string `json:"advice"`
	}
	if Decode(raw, &wrapped) == nil && len(wrapped.Advice) > 0 {
		return compact(wrapped.Advice), nil
	}
	var list []string
	if Decode(raw, &list) == nil && len(list) > 0 {
		return compact(list), nil
	}
	return Paragraphs(raw), nil
}

type generatedCard struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
}

// Flashcards generates up to n flashcards about topic, grouped under topic
// and due immediately
func (s *Service) Flashcards(ctx context.Context, topic string, n int) ([]models.Flashcard, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}
	if n <= 0 {
		n = 5
	}
	if n > MaxFlashcards {
		n = MaxFlashcards
	}
	prompt := fmt.Sprintf(
		"Create %d study flashcards about %q. "+
			`Respond as JSON: {"flashcards": [{"question": "...", "answer": "...", "difficulty": "easy|medium|hard"}]}`,
		n, topic)

	raw, err := s.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Flashcards []generatedCard `json:"flashcards"`
	}
	var cards []generatedCard
	if Decode(raw, &wrapped) == nil && len(wrapped.Flashcards) > 0 {
		cards = wrapped.Flashcards
	} else if err := Decode(raw, &cards); err != nil {
		return nil, fmt.Errorf("failed to parse flashcards: %w", err)
	}

	now := s.now()
	var out []models.Flashcard
	for _, c := range cards {
		q, a := strings.TrimSpace(c.Question), strings.TrimSpace(c.Answer)
		if q == "" || a == "" {
			continue
		}
		d := models.Difficulty(strings.ToLower(strings.TrimSpace(c.Difficulty)))
		if !d.Valid() {
			d = models.DifficultyMedium
		}
		out = append(out, models.Flashcard{
			ID:         uuid.NewString(),
			Question:   q,
			Answer:     a,
			GroupID:    topic,
			Difficulty: d,
			NextReview: now,
		})
		if len(out) == n {
			break
		}
	}
	return out, nil
}

// SuggestReward asks the model for a task reward and falls back to a fixed
// reward by priority when the model is unavailable or answers nonsense
func (s *Service) SuggestReward(ctx context.Context, title, description string, priority models.Priority) Reward {
	fallback := FallbackReward(priority)
	if !s.Available() {
		return fallback
	}
	prompt := fmt.Sprintf(
		"Suggest an XP and money reward for completing this task.\nTitle: %s\nDescription: %s\nPriority: %s\n"+
			"Typical rewards: low 50xp/10 money, medium 100xp/25 money, high 200xp/50 money. "+
			`Respond as JSON: {"xp": <int>, "money": <int>, "reason": "..."}`,
		title, description, priority)

	raw, err := s.gen.GenerateContent(ctx, prompt)
	if err != nil {
		s.logger.Warn("reward suggestion failed, using fallback", "error", err)
		return fallback
	}

	var r Reward
	if err := Decode(raw, &r); err != nil || r.XP <= 0 || r.Money < 0 {
		s.logger.Warn("unusable reward suggestion, using fallback", "response", raw)
		return fallback
	}
	if r.XP > MaxRewardXP {
		r.XP = MaxRewardXP
	}
	if r.Money > MaxRewardMoney {
		r.Money = MaxRewardMoney
	}
	r.Fallback = false
	return r
}

func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
