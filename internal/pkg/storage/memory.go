package storage

import (
	"bytes"
	"context"
	"io"
	"maps"
	"strconv"
	"sync"
	"time"
)

type memoryObject struct {
	data []byte
	info ObjectInfo
}

// Memory is an in-process Storage. Objects live until the process exits.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	version uint64
	now     func() time.Time
}

// NewMemory returns an empty in-process bucket set.
func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

func (m *Memory) PutObject(_ context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.version++
	info := ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        int64(len(data)),
		ETag:        strconv.FormatUint(m.version, 10),
		ContentType: opts.ContentType,
		Metadata:    maps.Clone(opts.Metadata),
		UpdatedAt:   m.now(),
	}
	m.objects[bucket+"/"+key] = memoryObject{data: data, info: info}

	return info, nil
}

func (m *Memory) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	m.mu.RLock()
	obj, ok := m.objects[bucket+"/"+key]
	m.mu.RUnlock()
	if !ok {
		return nil, ObjectInfo{}, ErrObjectNotFound
	}

	return io.NopCloser(bytes.NewReader(obj.data)), obj.info, nil
}

func (m *Memory) DeleteObject(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	delete(m.objects, bucket+"/"+key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
