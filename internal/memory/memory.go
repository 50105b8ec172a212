// Package memory holds the most recently generated image for each chat,
// allowing follow-up "edit" requests to reference it without any persistence.
package memory

import "sync"

// ImageStore is the per-chat store of the latest generated image bytes.
// Entries live for the process lifetime; there is no eviction and no way to
// remove an entry short of a restart. Implementations must be safe for
// concurrent use by multiple update handlers.
type ImageStore interface {
	// Get returns the latest image for the chat, or false if the chat has
	// never had a successful generation.
	Get(chatID int64) ([]byte, bool)

	// Put overwrites the stored image for the chat.
	Put(chatID int64, image []byte)
}

type imageStore struct {
	mu     sync.RWMutex
	images map[int64][]byte
}

// NewImageStore creates an empty in-process ImageStore.
func NewImageStore() ImageStore {
	return &imageStore{
		images: make(map[int64][]byte),
	}
}

func (s *imageStore) Get(chatID int64) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.images[chatID]
	if !ok {
		return nil, false
	}

	// Copy so caller mutation cannot change stored state.
	out := make([]byte, len(img))
	copy(out, img)
	return out, true
}

func (s *imageStore) Put(chatID int64, image []byte) {
	// Copy so later mutation by the caller cannot change stored state.
	stored := make([]byte, len(image))
	copy(stored, image)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[chatID] = stored
}
