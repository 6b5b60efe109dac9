package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type memberService struct {
	uow   ports.UnitOfWork
	clock ports.Clock
}

func NewMemberService(uow ports.UnitOfWork, clock ports.Clock) ports.MemberService {
	return &memberService{
		uow:   uow,
		clock: clock,
	}
}

// GetOrCreate registers a member on first contact with the default power.
func (s *memberService) GetOrCreate(ctx context.Context, identity string) (*domain.Member, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, domain.ErrInvalidIdentity
	}

	var member *domain.Member
	err := s.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		existing, err := repos.Members().GetByIdentity(ctx, identity)
		if err != nil {
			return err
		}
		if existing != nil {
			member = existing
			return nil
		}

		member = &domain.Member{
			ID:        uuid.New(),
			Identity:  identity,
			Power:     domain.DefaultPower,
			CreatedAt: s.clock.Now(),
		}
		return repos.Members().Create(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	return member, nil
}
