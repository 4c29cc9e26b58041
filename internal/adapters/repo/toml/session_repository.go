package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/spf13/viper"
)

const (
	sessionsDirName = "sessions"
	sessionFileExt  = ".toml"
)

// SessionRepository keeps one TOML file per session under a directory.
type SessionRepository struct {
	dir string
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(cfg *viper.Viper) (*SessionRepository, error) {
	dir, err := resolvePath(cfg, SessionsPathKey, sessionsDirName)
	if err != nil {
		return nil, err
	}

	return &SessionRepository{dir: dir}, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	path, err := r.pathFor(id)
	if err != nil {
		return domain.Session{}, err
	}

	mu := lockForPath(path)
	mu.RLock()
	defer mu.RUnlock()

	file, found, err := readSessionFile(path)
	if err != nil {
		return domain.Session{}, err
	}
	if !found {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	return fromSessionSchema(file.Session), nil
}

func (r *SessionRepository) List(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Session{}, nil
		}
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	sessions := make([]domain.Session, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != sessionFileExt {
			continue
		}

		session, err := r.GetByID(ctx, domain.SessionID(strings.TrimSuffix(name, sessionFileExt)))
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}

func (r *SessionRepository) Save(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.pathFor(session.ID)
	if err != nil {
		return err
	}

	mu := lockForPath(path)
	mu.Lock()
	defer mu.Unlock()

	file := sessionFileSchema{Session: toSessionSchema(session)}
	applyVersionDefault(&file.Version)

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writeTOMLFile(path, file); err != nil {
		return fmt.Errorf("write session %s: %w", session.ID, err)
	}

	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id domain.SessionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.pathFor(id)
	if err != nil {
		return err
	}

	mu := lockForPath(path)
	mu.Lock()
	defer mu.Unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("remove session file: %w", err)
	}

	return nil
}

func (r *SessionRepository) pathFor(id domain.SessionID) (string, error) {
	if !validSessionID(string(id)) {
		return "", fmt.Errorf("invalid session id %q", id)
	}

	return filepath.Join(r.dir, string(id)+sessionFileExt), nil
}

// validSessionID keeps ids usable as file names: letters, digits, '-', '_' and
// '.', not starting with a dot.
func validSessionID(id string) bool {
	if id == "" || len(id) > 128 || strings.HasPrefix(id, ".") {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

func readSessionFile(path string) (sessionFileSchema, bool, error) {
	var file sessionFileSchema
	found, err := readTOMLFile(path, "session", &file)
	if err != nil || !found {
		return sessionFileSchema{}, found, err
	}
	if err := validateVersion("session", file.Version); err != nil {
		return sessionFileSchema{}, false, err
	}
	applyVersionDefault(&file.Version)

	return file, true, nil
}

func toSessionSchema(session domain.Session) sessionSchema {
	tokens := make(map[string]string, len(session.ResumeTokens))
	for backend, token := range session.ResumeTokens {
		tokens[string(backend)] = token
	}

	messages := make([]messageSchema, 0, len(session.Messages))
	for _, msg := range session.Messages {
		events := make([]toolEventSchema, 0, len(msg.ToolEvents))
		for _, event := range msg.ToolEvents {
			encoded := toolEventSchema{Name: event.Name, Input: event.Input, Error: event.Error}
			if event.Output != nil {
				encoded.Output = *event.Output
				encoded.Completed = true
			}
			events = append(events, encoded)
		}

		messages = append(messages, messageSchema{
			ID:         msg.ID,
			Role:       string(msg.Role),
			Kind:       string(msg.Kind),
			Text:       msg.Text,
			Time:       formatTime(msg.Time),
			ImagePath:  msg.ImagePath,
			ToolEvents: events,
		})
	}

	var loop *mainLoopSchema
	if session.MainLoop != nil {
		loop = &mainLoopSchema{
			Status:           string(session.MainLoop.Status),
			UpdatedAt:        formatTime(session.MainLoop.UpdatedAt),
			LastHeartbeatAt:  formatTime(session.MainLoop.LastHeartbeatAt),
			LastAutoMemoryAt: formatTime(session.MainLoop.LastAutoMemoryAt),
		}
	}

	tools := session.Tools
	if tools == nil {
		tools = []string{}
	}

	return sessionSchema{
		ID:           string(session.ID),
		Name:         session.Name,
		AgentID:      string(session.AgentID),
		Provider:     string(session.Provider),
		Model:        session.Model,
		CredentialID: session.CredentialID,
		Cwd:          session.Cwd,
		Tools:        tools,
		CreatedAt:    formatTime(session.CreatedAt),
		LastActiveAt: formatTime(session.LastActiveAt),
		ResumeTokens: tokens,
		MainLoop:     loop,
		Messages:     messages,
	}
}

func fromSessionSchema(schema sessionSchema) domain.Session {
	var tokens domain.ResumeTokens
	if len(schema.ResumeTokens) > 0 {
		tokens = make(domain.ResumeTokens, len(schema.ResumeTokens))
		for backend, token := range schema.ResumeTokens {
			tokens[domain.BackendID(backend)] = token
		}
	}

	var messages []domain.Message
	for _, msg := range schema.Messages {
		var events []domain.ToolEvent
		for _, event := range msg.ToolEvents {
			decoded := domain.ToolEvent{Name: event.Name, Input: event.Input, Error: event.Error}
			if event.Completed {
				output := event.Output
				decoded.Output = &output
			}
			events = append(events, decoded)
		}

		kind := domain.MessageKind(msg.Kind)
		if kind == "" {
			kind = domain.MessageKindChat
		}

		messages = append(messages, domain.Message{
			ID:         msg.ID,
			Role:       domain.Role(msg.Role),
			Kind:       kind,
			Text:       msg.Text,
			Time:       parseTime(msg.Time),
			ImagePath:  msg.ImagePath,
			ToolEvents: events,
		})
	}

	var loop *domain.MainLoopState
	if schema.MainLoop != nil {
		loop = &domain.MainLoopState{
			Status:           domain.MissionStatus(schema.MainLoop.Status),
			UpdatedAt:        parseTime(schema.MainLoop.UpdatedAt),
			LastHeartbeatAt:  parseTime(schema.MainLoop.LastHeartbeatAt),
			LastAutoMemoryAt: parseTime(schema.MainLoop.LastAutoMemoryAt),
		}
	}

	return domain.Session{
		ID:           domain.SessionID(schema.ID),
		Name:         schema.Name,
		AgentID:      domain.AgentID(schema.AgentID),
		Provider:     domain.Provider(schema.Provider),
		Model:        schema.Model,
		CredentialID: schema.CredentialID,
		Cwd:          schema.Cwd,
		Tools:        schema.Tools,
		CreatedAt:    parseTime(schema.CreatedAt),
		LastActiveAt: parseTime(schema.LastActiveAt),
		ResumeTokens: tokens,
		MainLoop:     loop,
		Messages:     messages,
	}
}
