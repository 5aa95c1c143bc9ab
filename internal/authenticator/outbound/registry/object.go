package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/storage"
)

const defaultObjectKey = "authenticator/secrets.json"

// ObjectBackend keeps a JSON snapshot of the registry in a bucket.
type ObjectBackend struct {
	store  storage.Storage
	bucket string
	key    string
}

func NewObjectBackend(store storage.Storage, bucket, key string) *ObjectBackend {
	if key == "" {
		key = defaultObjectKey
	}
	return &ObjectBackend{store: store, bucket: bucket, key: key}
}

func (o *ObjectBackend) Name() string { return DriverObject }

// Load reads the snapshot. A missing object is an empty registry.
func (o *ObjectBackend) Load(ctx context.Context) (map[string]string, error) {
	rc, _, err := o.store.GetObject(ctx, o.bucket, o.key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	secrets := map[string]string{}
	if len(data) == 0 {
		return secrets, nil
	}
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, err
	}

	return secrets, nil
}

func (o *ObjectBackend) Store(ctx context.Context, all, _ map[string]string) error {
	data, err := json.Marshal(all)
	if err != nil {
		return err
	}

	_, err = o.store.PutObject(ctx, o.bucket, o.key, bytes.NewReader(data), storage.PutOptions{
		Size:        int64(len(data)),
		ContentType: "application/json",
	})
	return err
}
