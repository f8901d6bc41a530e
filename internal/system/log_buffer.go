package system

import (
	"bytes"
	"sync"
)

// LogBuffer накапливает stderr дочернего процесса. Для не-файлового
// Stderr os/exec копирует поток отдельной горутиной вплоть до Wait,
// поэтому буфер можно читать при живом процессе только под мьютексом.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String возвращает снимок накопленного текста.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
