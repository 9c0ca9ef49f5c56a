package storage

import (
	"context"
	"io"
	"path/filepath"

	"github.com/google/uuid"
)

// Storage хранилище загруженных файлов. Возвращаемая ссылка непрозрачна:
// ядро её только сохраняет и отдаёт обратно.
type Storage interface {
	Store(ctx context.Context, filename string, r io.Reader) (string, error)
}

// objectName генерирует имя объекта: uuid + исходное расширение
func objectName(filename string) string {
	return uuid.NewString() + filepath.Ext(filename)
}
