package s

import (
	"io"
	"time"
)

// ObjectMeta is the catalog record of a cached object. An object is only
// readable once its ObjectMeta has been stored.
type ObjectMeta struct {
	Key            string
	SourcePath     string
	Size           int64
	ContentType    string
	CreatedAt      time.Time
	StorageBackend string
}

type ByteRange struct {
	Offset int64
	Length int64
}

// ObjectSlice is a window of a cached object. Meta.Size is always the size of
// the whole object, regardless of the window requested.
type ObjectSlice struct {
	Meta   ObjectMeta
	Offset int64
	Length int64
	Body   io.ReadCloser
}
