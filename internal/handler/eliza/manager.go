package eliza

import (
	"sync"
)

// ConnectionManager WebSocket连接管理器
type ConnectionManager struct {
	connections map[string]*wsSession
	mu          sync.RWMutex
}

// NewConnectionManager 创建连接管理器
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*wsSession),
	}
}

// add 添加连接
func (cm *ConnectionManager) add(s *wsSession) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	// 如果已存在连接，先关闭旧连接
	if old, exists := cm.connections[s.ID()]; exists && old != s {
		old.abort()
	}

	cm.connections[s.ID()] = s
}

// remove 移除连接，不关闭底层连接
func (cm *ConnectionManager) remove(sessionID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.connections, sessionID)
}

// Count 返回当前存活连接数
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// Disconnect 断开指定会话
func (cm *ConnectionManager) Disconnect(sessionID string) bool {
	cm.mu.RLock()
	s, exists := cm.connections[sessionID]
	cm.mu.RUnlock()

	if !exists {
		return false
	}
	s.abort()
	return true
}

// CloseAll 关闭所有连接
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	sessions := make([]*wsSession, 0, len(cm.connections))
	for _, s := range cm.connections {
		sessions = append(sessions, s)
	}
	cm.mu.RUnlock()

	for _, s := range sessions {
		s.abort()
	}
}
