package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oralis/viva-backend/internal/adaptive"
	"github.com/oralis/viva-backend/internal/config"
	"github.com/oralis/viva-backend/internal/model"
	"github.com/oralis/viva-backend/internal/repository"
	"github.com/oralis/viva-backend/internal/response"
)

// Domain Errors
var (
	ErrNotVivaAuthor    = errors.New("not the author of this viva")
	ErrNoQuestions      = errors.New("viva has no questions, cannot publish")
	ErrVivaNotDraft     = errors.New("viva status is not DRAFT")
	ErrVivaNotPublished = errors.New("viva status is not PUBLISHED")
)

// VivaService handles viva lifecycle, bank management, and Redis caching.
type VivaService struct {
	vivaRepo     *repository.VivaRepository
	questionRepo *repository.QuestionRepository
	sessionRepo  *repository.SessionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewVivaService creates a new VivaService.
func NewVivaService(
	vivaRepo *repository.VivaRepository,
	questionRepo *repository.QuestionRepository,
	sessionRepo *repository.SessionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *VivaService {
	return &VivaService{
		vivaRepo:     vivaRepo,
		questionRepo: questionRepo,
		sessionRepo:  sessionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "viva_service").Logger(),
	}
}

// GetByID retrieves a viva by its UUID.
func (s *VivaService) GetByID(ctx context.Context, id uuid.UUID) (*model.Viva, error) {
	return s.vivaRepo.GetByID(ctx, id)
}

// ListByAuthor retrieves an examiner's vivas, paginated.
func (s *VivaService) ListByAuthor(ctx context.Context, authorID, page, perPage int) ([]model.Viva, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	vivas, total, err := s.vivaRepo.ListByAuthor(ctx, authorID, page, perPage)
	if err != nil {
		return nil, nil, err
	}
	if vivas == nil {
		vivas = []model.Viva{}
	}

	totalPages := (int(total) + perPage - 1) / perPage
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	}

	return vivas, pagination, nil
}

// Create inserts a new viva as DRAFT.
func (s *VivaService) Create(ctx context.Context, viva *model.Viva) error {
	viva.Status = model.VivaStatusDraft
	if viva.MaxQuestions <= 0 {
		viva.MaxQuestions = adaptive.DefaultMaxQuestions
	}
	return s.vivaRepo.Create(ctx, viva)
}

// Update modifies an existing draft viva.
func (s *VivaService) Update(ctx context.Context, authorID int, viva *model.Viva) error {
	existing, err := s.vivaRepo.GetByID(ctx, viva.ID)
	if err != nil {
		return err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return ErrNotVivaAuthor
	}
	if existing.Status != model.VivaStatusDraft {
		return ErrVivaNotDraft
	}
	return s.vivaRepo.Update(ctx, viva)
}

// Delete removes a draft viva.
func (s *VivaService) Delete(ctx context.Context, id uuid.UUID, authorID int) error {
	existing, err := s.vivaRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return ErrNotVivaAuthor
	}
	if existing.Status != model.VivaStatusDraft {
		return ErrVivaNotDraft
	}
	return s.vivaRepo.Delete(ctx, id)
}

// ReplaceQuestions swaps a draft viva's entire bank.
func (s *VivaService) ReplaceQuestions(ctx context.Context, vivaID uuid.UUID, authorID int, questions []model.AddQuestionRequest) error {
	existing, err := s.vivaRepo.GetByID(ctx, vivaID)
	if err != nil {
		return err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return ErrNotVivaAuthor
	}
	if existing.Status != model.VivaStatusDraft {
		return ErrVivaNotDraft
	}
	return s.questionRepo.ReplaceForViva(ctx, vivaID, questions)
}

// ListQuestions returns a viva's full bank with calibration fields, for the
// author's editing view.
func (s *VivaService) ListQuestions(ctx context.Context, vivaID uuid.UUID, authorID int) ([]model.BankQuestion, error) {
	existing, err := s.vivaRepo.GetByID(ctx, vivaID)
	if err != nil {
		return nil, err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return nil, ErrNotVivaAuthor
	}
	return s.questionRepo.ListByViva(ctx, vivaID)
}

// Publish changes viva status to PUBLISHED and caches the bank in Redis.
// Sessions are built from the cached bank; publish is the warm-up path.
func (s *VivaService) Publish(ctx context.Context, vivaID uuid.UUID, authorID int) error {
	viva, err := s.vivaRepo.GetByID(ctx, vivaID)
	if err != nil {
		return fmt.Errorf("get viva: %w", err)
	}

	if viva.AuthorID != authorID {
		return ErrNotVivaAuthor
	}
	if viva.Status != model.VivaStatusDraft {
		return ErrVivaNotDraft
	}

	if err := s.WarmBankCache(ctx, viva); err != nil {
		return err
	}

	if err := s.vivaRepo.UpdateStatus(ctx, vivaID, model.VivaStatusPublished); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().Str("viva_id", vivaID.String()).Msg("Viva published")
	return nil
}

// Archive closes a published viva to new joins.
func (s *VivaService) Archive(ctx context.Context, vivaID uuid.UUID, authorID int) error {
	viva, err := s.vivaRepo.GetByID(ctx, vivaID)
	if err != nil {
		return err
	}
	if viva.AuthorID != authorID {
		return ErrNotVivaAuthor
	}
	if viva.Status != model.VivaStatusPublished {
		return ErrVivaNotPublished
	}

	if err := s.vivaRepo.UpdateStatus(ctx, vivaID, model.VivaStatusArchived); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, config.CacheKey.VivaBankKey(vivaID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("viva_id", vivaID.String()).Msg("Failed to evict bank cache")
	}

	s.log.Info().Str("viva_id", vivaID.String()).Msg("Viva archived")
	return nil
}

// WarmBankCache loads a viva's question bank from PostgreSQL into Redis.
// Used by Publish and PrewarmAllCaches.
func (s *VivaService) WarmBankCache(ctx context.Context, viva *model.Viva) error {
	questions, err := s.questionRepo.ListByViva(ctx, viva.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	bank := model.VivaBank{
		VivaID:       viva.ID,
		Title:        viva.Title,
		MaxQuestions: viva.MaxQuestions,
		Questions:    make([]adaptive.Question, len(questions)),
	}
	for i, q := range questions {
		bank.Questions[i] = adaptive.Question{
			ID:         q.ID,
			Text:       q.Text,
			Difficulty: q.Difficulty,
			Topic:      q.Topic,
		}
	}

	bankJSON, err := json.Marshal(bank)
	if err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.VivaBankKey(viva.ID.String()), bankJSON, 0).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("viva_id", viva.ID.String()).
		Int("questions", len(questions)).
		Msg("Bank cache warmed")
	return nil
}

// PrewarmAllCaches loads all published viva banks into Redis on application
// startup, so the first join never has to hit PostgreSQL.
func (s *VivaService) PrewarmAllCaches(ctx context.Context) error {
	vivas, err := s.vivaRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published vivas: %w", err)
	}

	if len(vivas) == 0 {
		s.log.Info().Msg("No published vivas to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(vivas)).Msg("Prewarming published viva banks...")

	warmed := 0
	for i := range vivas {
		if err := s.WarmBankCache(ctx, &vivas[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("viva_id", vivas[i].ID.String()).
				Msg("Failed to warm bank, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(vivas)).
		Msg("Prewarming complete")
	return nil
}

// GetBank retrieves the cached bank from Redis, falling back to PostgreSQL
// (and re-warming the cache) when the entry was evicted.
func (s *VivaService) GetBank(ctx context.Context, vivaID uuid.UUID) (*model.VivaBank, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.VivaBankKey(vivaID.String())).Bytes()
	if err == nil {
		var bank model.VivaBank
		if err := json.Unmarshal(data, &bank); err != nil {
			return nil, fmt.Errorf("unmarshal bank: %w", err)
		}
		return &bank, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get bank: %w", err)
	}

	// Cache miss: rebuild from PostgreSQL and self-heal.
	viva, err := s.vivaRepo.GetByID(ctx, vivaID)
	if err != nil {
		return nil, fmt.Errorf("get viva: %w", err)
	}
	if viva.Status != model.VivaStatusPublished {
		return nil, ErrVivaNotPublished
	}
	if err := s.WarmBankCache(ctx, viva); err != nil {
		return nil, err
	}

	s.log.Warn().Str("viva_id", vivaID.String()).Msg("Bank cache miss, rebuilt from PostgreSQL")
	return s.GetBank(ctx, vivaID)
}

// LobbyViva is a published viva as shown in the student lobby: the entry
// token stays server-side, and the student's own session status is overlaid
// when one exists.
type LobbyViva struct {
	model.Viva
	SessionStatus  *model.SessionStatus `json:"session_status,omitempty"`
	QuestionsAsked int                  `json:"questions_asked,omitempty"`
}

// Lobby returns the published vivas with the student's session status overlaid.
func (s *VivaService) Lobby(ctx context.Context, studentID int) ([]LobbyViva, error) {
	vivas, err := s.vivaRepo.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published vivas: %w", err)
	}

	lobby := make([]LobbyViva, 0, len(vivas))
	for i := range vivas {
		entry := LobbyViva{Viva: vivas[i]}
		entry.EntryToken = ""

		sess, err := s.sessionRepo.GetByVivaAndStudent(ctx, vivas[i].ID, studentID)
		if err != nil {
			return nil, fmt.Errorf("get session: %w", err)
		}
		if sess != nil {
			entry.SessionStatus = &sess.Status
			entry.QuestionsAsked = sess.QuestionsAsked
		}
		lobby = append(lobby, entry)
	}
	return lobby, nil
}

// Results returns session rows for an examiner's results view.
func (s *VivaService) Results(ctx context.Context, vivaID uuid.UUID, authorID, page, perPage int) ([]model.VivaResult, *response.Pagination, error) {
	viva, err := s.vivaRepo.GetByID(ctx, vivaID)
	if err != nil {
		return nil, nil, err
	}
	if authorID != 0 && viva.AuthorID != authorID {
		return nil, nil, ErrNotVivaAuthor
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	results, total, err := s.sessionRepo.ListResultsByViva(ctx, vivaID, page, perPage)
	if err != nil {
		return nil, nil, err
	}
	if results == nil {
		results = []model.VivaResult{}
	}

	totalPages := (total + perPage - 1) / perPage
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return results, pagination, nil
}
