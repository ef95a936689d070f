package protocol

import "sync"

// BytePool — пул переиспользуемых буферов кадров.
// Оба листенера берут из него буферы чтения и отправки на каждый пакет.
type BytePool struct {
	size int
	pool sync.Pool
}

// NewBytePool создаёт пул буферов длиной size.
func NewBytePool(size int) *BytePool {
	p := &BytePool{size: size}
	p.pool.New = func() any {
		b := make([]byte, size)
		return &b
	}
	return p
}

// Get возвращает обнулённый буфер длиной Size().
func (p *BytePool) Get() []byte {
	b := *(p.pool.Get().(*[]byte))
	clear(b)
	return b
}

// Put возвращает буфер в пул. Буферы чужого размера отбрасываются.
func (p *BytePool) Put(b []byte) {
	if cap(b) < p.size {
		return
	}
	b = b[:p.size]
	p.pool.Put(&b)
}

// Size returns the buffer length handed out by Get.
func (p *BytePool) Size() int {
	return p.size
}
