package storage

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matst80/flow-finder/pkg/common/jsoncompat"
	"github.com/matst80/flow-finder/pkg/types"
)

// Snapshot is a portable dump of all content, used for backups and for
// moving content between environments.
type Snapshot struct {
	Created time.Time           `json:"created"`
	Blog    []types.ContentItem `json:"blog"`
	Flows   []types.ContentItem `json:"flows"`
}

func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	blog, err := s.ListContent(ctx, types.ContentTypeBlog)
	if err != nil {
		return nil, err
	}
	flows, err := s.ListContent(ctx, types.ContentTypeFlows)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Created: time.Now().UTC(), Blog: blog, Flows: flows}, nil
}

// WriteSnapshot writes gzipped json to a temp file next to fileName and
// renames it into place.
func WriteSnapshot(fileName string, snapshot *Snapshot) error {
	tmpFileName := fmt.Sprintf("%s.tmp-%d", fileName, time.Now().UnixMilli())
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return err
	}
	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}
	zipWriter := gzip.NewWriter(file)
	err = jsoncompat.NewEncoder(zipWriter).Encode(snapshot)
	if closeErr := zipWriter.Close(); err == nil {
		err = closeErr
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpFileName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	return os.Rename(tmpFileName, fileName)
}

func ReadSnapshot(fileName string) (*Snapshot, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	zipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	defer zipReader.Close()

	snapshot := &Snapshot{}
	if err := jsoncompat.NewDecoder(zipReader).Decode(snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Items returns blog posts followed by flows.
func (s *Snapshot) Items() []types.ContentItem {
	ret := make([]types.ContentItem, 0, len(s.Blog)+len(s.Flows))
	ret = append(ret, s.Blog...)
	return append(ret, s.Flows...)
}
