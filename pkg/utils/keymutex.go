package utils

import "sync"

// KeyMutex 按 key 粒度的互斥锁
// 用于串行化同一店铺的并发导入，不同店铺互不影响
type KeyMutex struct {
	locks sync.Map // key -> *sync.Mutex
}

// Lock 锁定指定 key，已被占用时阻塞等待
func (m *KeyMutex) Lock(key interface{}) {
	actual, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	actual.(*sync.Mutex).Lock()
}

// Unlock 释放指定 key 的锁
func (m *KeyMutex) Unlock(key interface{}) {
	actual, ok := m.locks.Load(key)
	if !ok {
		return
	}
	actual.(*sync.Mutex).Unlock()
}
