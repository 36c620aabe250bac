package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"aura/backend/internal/models"
	"aura/backend/internal/repository"
	"aura/backend/pkg/crypto"
	"aura/backend/pkg/errors"
	"aura/backend/pkg/logger"
)

// EvidenceService stores evidence items with their content sealed under a
// per-user key and an integrity hash over the plaintext payload.
type EvidenceService struct {
	repo     repository.EvidenceRepository
	keys     *crypto.KeyManager
	insights Invalidator
	now      func() time.Time
}

// NewEvidenceService creates the service. insights may be nil.
func NewEvidenceService(repo repository.EvidenceRepository, keys *crypto.KeyManager, insights Invalidator) *EvidenceService {
	return &EvidenceService{repo: repo, keys: keys, insights: insights, now: time.Now}
}

// evidencePayload is the canonical form hashed for integrity checks
type evidencePayload struct {
	UserID      string              `json:"userId"`
	Type        models.EvidenceType `json:"type"`
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Content     *string             `json:"content"`
	Metadata    map[string]any      `json:"metadata"`
}

func (p evidencePayload) hash() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode evidence payload: %w", err)
	}
	return crypto.Hash(data), nil
}

// Create validates, seals and stores a new item
func (s *EvidenceService) Create(ctx context.Context, userID string, req models.EvidenceRequest) (*models.EvidenceItem, error) {
	if !req.Type.Valid() {
		return nil, errors.NewValidationError("Invalid evidence type").
			WithDetails(map[string]any{"allowed": []models.EvidenceType{
				models.EvidenceScreenshot, models.EvidenceChatLog, models.EvidenceNote,
				models.EvidenceAudio, models.EvidenceImage,
			}})
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.NewValidationError("Title is required")
	}

	metadata, err := normalizeMetadata(req.Metadata)
	if err != nil {
		return nil, errors.NewValidationError("Invalid metadata").WithDetails(err.Error())
	}
	metadata["timestamp"] = s.now().UTC().Format(time.RFC3339Nano)

	payload := evidencePayload{
		UserID:      userID,
		Type:        req.Type,
		Title:       title,
		Description: req.Description,
		Content:     req.Content,
		Metadata:    metadata,
	}
	hash, err := payload.hash()
	if err != nil {
		return nil, errors.NewInternalServerError("Failed to create evidence").Wrap(err)
	}

	var sealed string
	if req.Content != nil {
		if sealed, err = s.keys.Seal(userID, []byte(*req.Content)); err != nil {
			return nil, errors.NewInternalServerError("Failed to create evidence").Wrap(err)
		}
	}

	item := &models.EvidenceItem{
		UserID:        userID,
		Type:          req.Type,
		Title:         title,
		Description:   req.Description,
		ContentCipher: sealed,
		Hash:          hash,
		Metadata:      metadata,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, errors.NewStorageError("Failed to create evidence", err)
	}
	s.invalidate(userID)

	item.Content = req.Content
	return item, nil
}

// List returns the user's items without content, newest first
func (s *EvidenceService) List(ctx context.Context, userID string) ([]models.EvidenceItem, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError("Failed to fetch evidence", err)
	}
	return items, nil
}

// Get returns one item with its content decrypted after the hash is verified
func (s *EvidenceService) Get(ctx context.Context, userID, id string) (*models.EvidenceItem, error) {
	item, err := s.repo.Get(ctx, userID, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NewNotFoundError("Evidence not found")
	}
	if err != nil {
		return nil, errors.NewStorageError("Failed to fetch evidence", err)
	}

	if item.ContentCipher != "" {
		plain, err := s.keys.Open(userID, item.ContentCipher)
		if err != nil {
			logger.FromContext(ctx).LogError(err, "Evidence decryption failed", "evidenceID", id)
			return nil, errors.NewInternalServerError("Evidence integrity check failed").Wrap(err)
		}
		content := string(plain)
		item.Content = &content
	}

	sum, err := evidencePayload{
		UserID:      item.UserID,
		Type:        item.Type,
		Title:       item.Title,
		Description: item.Description,
		Content:     item.Content,
		Metadata:    item.Metadata,
	}.hash()
	if err != nil || sum != item.Hash {
		logger.FromContext(ctx).Error("Evidence hash mismatch", "evidenceID", id)
		return nil, errors.NewInternalServerError("Evidence integrity check failed")
	}

	item.ContentCipher = ""
	return item, nil
}

// Delete removes one of the user's items
func (s *EvidenceService) Delete(ctx context.Context, userID, id string) error {
	err := s.repo.Delete(ctx, userID, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFoundError("Evidence not found")
	}
	if err != nil {
		return errors.NewStorageError("Failed to delete evidence", err)
	}
	s.invalidate(userID)
	return nil
}

func (s *EvidenceService) invalidate(userID string) {
	if s.insights != nil {
		s.insights.Invalidate(userID)
	}
}

// normalizeMetadata round-trips metadata through JSON so the hash computed
// now matches the one recomputed from the stored column.
func normalizeMetadata(in map[string]any) (map[string]any, error) {
	out := map[string]any{}
	if len(in) == 0 {
		return out, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
