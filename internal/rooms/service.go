// Package rooms is the room directory: durable room metadata, membership and
// message history, behind the forbidden-word naming policy.
package rooms

import (
	"context"
	"errors"
	"log"

	"github.com/giladwin/chat/internal/chaterr"
	"github.com/giladwin/chat/internal/models"
	"github.com/giladwin/chat/internal/policy"
	"github.com/giladwin/chat/internal/repository"
)

type Service struct {
	repo   repository.RoomRepository
	filter *policy.Filter
}

func NewService(repo repository.RoomRepository, filter *policy.Filter) *Service {
	return &Service{repo: repo, filter: filter}
}

// EnsureDefaultRooms creates each named room if absent. Rooms that already
// exist or violate the naming policy are skipped silently, so seeding is
// idempotent.
func (s *Service) EnsureDefaultRooms(ctx context.Context, names []string) error {
	for _, name := range names {
		if err := s.create(ctx, name, true); err != nil {
			return err
		}
	}
	log.Printf("[ROOMS] default rooms ensured: %v", names)
	return nil
}

// Create persists a new empty room.
func (s *Service) Create(ctx context.Context, name string) error {
	if name == "" {
		return chaterr.New(chaterr.KindValidation, "no room name provided")
	}
	return s.create(ctx, name, false)
}

func (s *Service) create(ctx context.Context, name string, defaultRoom bool) error {
	exists, err := s.repo.RoomExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		if defaultRoom {
			log.Printf("[ROOMS] room %q already exists", name)
			return nil
		}
		return roomExistsError(name)
	}
	if s.filter.Contains(name) {
		if defaultRoom {
			log.Printf("[ROOMS] skipping default room %q: forbidden name", name)
			return nil
		}
		return chaterr.New(chaterr.KindPolicy, "room name contains forbidden word(s), please choose a nicer room name")
	}

	if err := s.repo.CreateRoom(ctx, name); err != nil {
		if errors.Is(err, repository.ErrDuplicateRoom) {
			if defaultRoom {
				return nil
			}
			return roomExistsError(name)
		}
		return err
	}
	log.Printf("[ROOMS] room %q was created", name)
	return nil
}

// List returns all rooms with their distinct member counts, sorted
// descending by count.
func (s *Service) List(ctx context.Context) ([]models.RoomSummary, error) {
	return s.repo.ListRooms(ctx)
}

// Get returns the room's name and de-duplicated member list.
func (s *Service) Get(ctx context.Context, name string) (*models.Room, error) {
	room, err := s.repo.GetRoom(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, noSuchRoomError(name)
		}
		return nil, err
	}
	return room, nil
}

// History returns the room's messages sorted ascending by timestamp.
func (s *Service) History(ctx context.Context, name string) ([]models.Message, error) {
	messages, err := s.repo.GetMessages(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, noSuchRoomError(name)
		}
		return nil, err
	}
	return messages, nil
}

// AppendMessage adds msg to the room's durable history.
func (s *Service) AppendMessage(ctx context.Context, name string, msg *models.Message) error {
	return s.repo.AppendMessage(ctx, name, msg)
}

func (s *Service) AddMember(ctx context.Context, name, username string) error {
	return s.repo.AddMember(ctx, name, username)
}

func (s *Service) RemoveMember(ctx context.Context, name, username string) error {
	return s.repo.RemoveMember(ctx, name, username)
}

func roomExistsError(name string) error {
	return chaterr.Newf(chaterr.KindConflict, "room '%s' is already exists, please choose it from the list or use a different name", name)
}

func noSuchRoomError(name string) error {
	return chaterr.Newf(chaterr.KindNotFound, "no such room '%s', please create one or join existing room", name)
}
