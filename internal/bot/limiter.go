package bot

import "sync"

// ChatLimiter держит не больше одной команды на чат: пока, например, собирается
// отчёт, повторное нажатие кнопки получает отказ, а не встаёт в очередь.
type ChatLimiter struct {
	mu   sync.Mutex
	busy map[int64]struct{}
}

func NewChatLimiter() *ChatLimiter {
	return &ChatLimiter{busy: make(map[int64]struct{})}
}

// acquire returns ok=false when the chat already has a command in flight.
func (l *ChatLimiter) acquire(chatID int64) (release func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.busy[chatID]; taken {
		return nil, false
	}
	l.busy[chatID] = struct{}{}
	return func() {
		l.mu.Lock()
		delete(l.busy, chatID)
		l.mu.Unlock()
	}, true
}
