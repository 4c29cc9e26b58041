package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
)

type SessionService struct {
	sessions ports.SessionRepository
	agents   ports.AgentRepository
	clock    ports.Clock
}

func NewSessionService(sessions ports.SessionRepository, agents ports.AgentRepository, clock ports.Clock) *SessionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SessionService{sessions: sessions, agents: agents, clock: clock}
}

func (s *SessionService) Create(ctx context.Context, cmd CreateSessionCommand) (domain.Session, error) {
	if strings.TrimSpace(string(cmd.ID)) == "" {
		return domain.Session{}, fmt.Errorf("session id is required")
	}

	if _, err := s.sessions.GetByID(ctx, cmd.ID); err == nil {
		return domain.Session{}, fmt.Errorf("session %s already exists", cmd.ID)
	} else if !errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Session{}, fmt.Errorf("get session by id: %w", err)
	}

	now := s.clock.Now()
	session := domain.Session{
		ID:           cmd.ID,
		Name:         cmd.Name,
		AgentID:      cmd.AgentID,
		Cwd:          cmd.Cwd,
		Tools:        domain.NormalizeToolList(cmd.Tools),
		ResumeTokens: domain.ResumeTokens{},
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if session.Name == "" {
		session.Name = string(cmd.ID)
	}
	if session.IsMain() {
		session.MainLoop = &domain.MainLoopState{Status: domain.MissionStatusIdle, UpdatedAt: now}
	}

	if cmd.AgentID != "" {
		agent, err := s.agents.GetByID(ctx, cmd.AgentID)
		if err != nil {
			return domain.Session{}, fmt.Errorf("get agent by id: %w", err)
		}
		session.Provider = agent.Provider
		session.Model = agent.Model
		session.CredentialID = agent.CredentialID
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}

	return session, nil
}

func (s *SessionService) Get(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session by id: %w", err)
	}
	return session, nil
}

func (s *SessionService) List(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (s *SessionService) Delete(ctx context.Context, id domain.SessionID) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionService) SetTools(ctx context.Context, id domain.SessionID, tools []string) (domain.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session by id: %w", err)
	}

	session.Tools = domain.NormalizeToolList(tools)
	if err := s.sessions.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("save session tools: %w", err)
	}

	return session, nil
}

func (s *SessionService) SetMissionStatus(ctx context.Context, id domain.SessionID, status domain.MissionStatus) (domain.Session, error) {
	switch status {
	case domain.MissionStatusIdle, domain.MissionStatusOK, domain.MissionStatusWorking, domain.MissionStatusBlocked:
	default:
		return domain.Session{}, fmt.Errorf("unsupported mission status %q", status)
	}

	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session by id: %w", err)
	}

	if session.MainLoop == nil {
		session.MainLoop = &domain.MainLoopState{}
	}
	session.MainLoop.Status = status
	session.MainLoop.UpdatedAt = s.clock.Now()

	if err := s.sessions.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("save mission status: %w", err)
	}

	return session, nil
}
