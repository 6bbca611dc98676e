package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/minicup/models"
	"github.com/Dosada05/minicup/repositories"
	"github.com/Dosada05/minicup/storage"
)

type PlayerService interface {
	Register(ctx context.Context, name string) (*models.Player, error)
	GetByID(ctx context.Context, id int) (*models.Player, error)
	// List returns the standings: every player, points descending, ties
	// stable by registration order.
	List(ctx context.Context) ([]*models.Player, error)
	UploadAvatar(ctx context.Context, id int, contentType string, file io.Reader) (*models.Player, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
	logger     *slog.Logger
}

// NewPlayerService builds the player service. uploader may be nil, in
// which case avatar uploads are rejected.
func NewPlayerService(playerRepo repositories.PlayerRepository, uploader storage.FileUploader, logger *slog.Logger) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *playerService) Register(ctx context.Context, name string) (*models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrPlayerNameRequired
	}

	player := &models.Player{Name: name}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("player registered", slog.Int("player_id", player.ID), slog.String("name", player.Name))
	return player, nil
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	s.populateAvatarURL(player)
	return player, nil
}

func (s *playerService) List(ctx context.Context) ([]*models.Player, error) {
	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, player := range players {
		s.populateAvatarURL(player)
	}
	return players, nil
}

func (s *playerService) UploadAvatar(ctx context.Context, id int, contentType string, file io.Reader) (*models.Player, error) {
	if s.uploader == nil {
		return nil, ErrAvatarStorageUnavailable
	}

	player, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ext, err := extensionFromContentType(contentType)
	if err != nil {
		return nil, ErrUnsupportedAvatarType
	}

	key := fmt.Sprintf("players/%d/avatar%s", player.ID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar for player %d: %w", id, err)
	}

	// Drop a stale object when the extension changed.
	if player.AvatarKey != nil && *player.AvatarKey != key {
		if delErr := s.uploader.Delete(ctx, *player.AvatarKey); delErr != nil {
			s.logger.Warn("failed to delete previous avatar",
				slog.Int("player_id", id),
				slog.String("key", *player.AvatarKey),
				slog.Any("error", delErr),
			)
		}
	}

	if err := s.playerRepo.UpdateAvatarKey(ctx, id, &key); err != nil {
		return nil, err
	}

	player.AvatarKey = &key
	s.populateAvatarURL(player)
	return player, nil
}

func (s *playerService) populateAvatarURL(player *models.Player) {
	if player == nil || player.AvatarKey == nil || *player.AvatarKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*player.AvatarKey); url != "" {
		player.AvatarURL = &url
	}
}

func extensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("could not determine file extension from content type %q", contentType)
	}
}
