package storage

import (
	"context"
	"path"
	"strings"
)

// ResponseArchive keeps a copy of raw provider replies for later inspection.
type ResponseArchive interface {
	// Archive stores raw under a fresh key for the subject and returns that key.
	Archive(ctx context.Context, subjectID, raw string) (key string, err error)
}

// noopArchive is used when archiving is disabled.
type noopArchive struct{}

func NewNoopArchive() ResponseArchive { return noopArchive{} }

func (noopArchive) Archive(context.Context, string, string) (string, error) { return "", nil }

// objectKey builds "<prefix>/<subject>/<id>.txt".
func objectKey(prefix, subjectID, id string) string {
	subjectID = strings.ReplaceAll(subjectID, "/", "_")
	return path.Join(strings.Trim(prefix, "/"), subjectID, id+".txt")
}
