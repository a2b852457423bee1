package postgres

const (
	GetObject = `SELECT cache_key, source_path, size, content_type, created_date, storage_backend FROM cached_object WHERE cache_key = $1;`
	PutObject = `INSERT INTO cached_object ("cache_key", "source_path", "size", "content_type", "created_date", "storage_backend")
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (cache_key) DO UPDATE SET
  source_path = EXCLUDED.source_path,
  size = EXCLUDED.size,
  content_type = EXCLUDED.content_type,
  created_date = EXCLUDED.created_date,
  storage_backend = EXCLUDED.storage_backend;`
)
