package avatars

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// DefaultSignedURLTTL — срок жизни подписанной ссылки на чтение аватара.
const DefaultSignedURLTTL = 10 * time.Minute

// Store хранит аватары в приватном S3-бакете. Чтение только по подписанным
// ссылкам с истечением — публичного доступа к объектам нет.
type Store struct {
	client *minio.Client
	bucket string
}

// New возвращает хранилище. При client == nil методы возвращают ошибку —
// вызывающий проверяет Enabled и отдаёт 503.
func New(client *minio.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Enabled сообщает, сконфигурировано ли объектное хранилище.
func (s *Store) Enabled() bool {
	return s.client != nil
}

// Put сохраняет аватар под <userID>/avatar-<unixms>.<ext> (upsert).
// Возвращает путь объекта для записи в каталог.
func (s *Store) Put(ctx context.Context, userID, filename, contentType string, r io.Reader, size int64) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("avatar storage is not configured")
	}
	path := objectPath(userID, filename)
	_, err := s.client.PutObject(ctx, s.bucket, path, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "max-age=3600",
	})
	if err != nil {
		return "", fmt.Errorf("put avatar %s: %w", path, err)
	}
	return path, nil
}

// SignedURL генерирует подписанную ссылку на чтение. expires <= 0 — дефолтный TTL.
func (s *Store) SignedURL(ctx context.Context, path string, expires time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("avatar storage is not configured")
	}
	if expires <= 0 {
		expires = DefaultSignedURLTTL
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, expires, nil)
	if err != nil {
		return "", fmt.Errorf("sign avatar url %s: %w", path, err)
	}
	return u.String(), nil
}

func objectPath(userID, filename string) string {
	return fmt.Sprintf("%s/avatar-%d.%s", userID, time.Now().UnixMilli(), fileExt(filename))
}

// fileExt — расширение из имени файла, jpg как запасной вариант.
func fileExt(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "jpg"
	}
	return strings.ToLower(filename[idx+1:])
}
