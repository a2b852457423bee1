package sqlite

const (
	GetObject = `SELECT cache_key, source_path, size, content_type, created_date, storage_backend FROM cached_object WHERE cache_key = ?;`
	PutObject = `INSERT INTO cached_object ("cache_key", "source_path", "size", "content_type", "created_date", "storage_backend")
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (cache_key) DO UPDATE SET
  source_path = excluded.source_path,
  size = excluded.size,
  content_type = excluded.content_type,
  created_date = excluded.created_date,
  storage_backend = excluded.storage_backend;`
)
