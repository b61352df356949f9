package conversation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	. "github.com/modelmux/modelmux/internal/logging"
)

// Turn is one exchange appended to a thread.
type Turn struct {
	Role          string    `json:"role"` // "user" or "assistant"
	Content       string    `json:"content"`
	FilesEmbedded []string  `json:"files_embedded,omitempty"`
	ToolName      string    `json:"tool_name,omitempty"`
	ModelName     string    `json:"model_name,omitempty"`
	Provider      string    `json:"provider,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// InitialContext captures the request that opened a thread.
type InitialContext struct {
	Prompt string            `json:"prompt,omitempty"`
	Files  []string          `json:"files,omitempty"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// Thread is a continuable conversation. ToolName records the tool that
// opened it; later turns may come from other tools. ParentID links a
// forked thread back to the one it branched from.
type Thread struct {
	ID             string         `json:"id"`
	ParentID       string         `json:"parent_id,omitempty"`
	ToolName       string         `json:"tool_name"`
	InitialContext InitialContext `json:"initial_context"`
	Turns          []Turn         `json:"turns"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Store manages threads on top of a KV backend.
type Store struct {
	kv  KV
	ttl time.Duration
}

// NewStore builds a thread store.
func NewStore(kv KV, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

func threadKey(id string) string { return "thread:" + id }

// CreateThread opens a new thread and returns its id. The initial
// context is stored as the thread's first state even before any turn.
func (s *Store) CreateThread(toolName string, initial InitialContext) (string, error) {
	thread := &Thread{
		ID:             uuid.NewString(),
		ToolName:       toolName,
		InitialContext: initial,
		Turns:          []Turn{},
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.save(thread); err != nil {
		return "", err
	}
	L_debug("conversation: thread created", "id", thread.ID, "tool", toolName)
	return thread.ID, nil
}

// ForkThread opens a child thread referencing its parent. The parent
// must exist; the child starts with its own empty turn list.
func (s *Store) ForkThread(parentID, toolName string, initial InitialContext) (string, error) {
	parent, err := s.GetThread(parentID)
	if err != nil {
		return "", err
	}
	if parent == nil {
		return "", fmt.Errorf("thread %s not found", parentID)
	}
	thread := &Thread{
		ID:             uuid.NewString(),
		ParentID:       parentID,
		ToolName:       toolName,
		InitialContext: initial,
		Turns:          []Turn{},
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.save(thread); err != nil {
		return "", err
	}
	L_debug("conversation: thread forked", "id", thread.ID, "parent", parentID, "tool", toolName)
	return thread.ID, nil
}

// GetThread loads a thread, or (nil, nil) when absent or expired.
func (s *Store) GetThread(id string) (*Thread, error) {
	data, ok, err := s.kv.Get(threadKey(id))
	if err != nil {
		return nil, fmt.Errorf("load thread %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	var thread Thread
	if err := json.Unmarshal(data, &thread); err != nil {
		return nil, fmt.Errorf("decode thread %s: %w", id, err)
	}
	return &thread, nil
}

// AddTurn appends a turn and refreshes the thread's TTL. Turns are
// append-only; order is the order of AddTurn calls.
func (s *Store) AddTurn(id string, turn Turn) error {
	thread, err := s.GetThread(id)
	if err != nil {
		return err
	}
	if thread == nil {
		return fmt.Errorf("thread %s not found", id)
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	thread.Turns = append(thread.Turns, turn)
	return s.save(thread)
}

// FilesAlreadyEmbedded returns the union of files embedded across all
// turns, used to keep resumed calls from re-reading the same content.
func (s *Store) FilesAlreadyEmbedded(id string) (map[string]bool, error) {
	thread, err := s.GetThread(id)
	if err != nil {
		return nil, err
	}
	files := make(map[string]bool)
	if thread == nil {
		return files, nil
	}
	for _, turn := range thread.Turns {
		for _, f := range turn.FilesEmbedded {
			files[f] = true
		}
	}
	return files, nil
}

// DeleteThread removes a thread.
func (s *Store) DeleteThread(id string) error {
	return s.kv.Delete(threadKey(id))
}

func (s *Store) save(thread *Thread) error {
	data, err := json.Marshal(thread)
	if err != nil {
		return fmt.Errorf("encode thread %s: %w", thread.ID, err)
	}
	return s.kv.SetWithTTL(threadKey(thread.ID), data, s.ttl)
}
