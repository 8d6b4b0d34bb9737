// Package keylock 提供按 key 的互斥锁。
//
// 同一 key 的持有者串行执行，不同 key 之间完全并行；等待可被 context 取消，
// 取消发生在拿到锁之前，因此调用方的写操作要么未开始、要么完整执行。
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// Locker 按 key 分配的互斥锁集合，空闲 key 自动回收
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New 创建 Locker
func New() *Locker {
	return &Locker{entries: make(map[string]*entry)}
}

// Lock 获取 key 对应的锁，返回释放函数
// ctx 在等待期间结束时返回 ctx.Err()，此时未持有锁
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(key, e)
		})
	}, nil
}

func (l *Locker) release(key string, e *entry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}

// Len 当前被持有或等待中的 key 数量
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
