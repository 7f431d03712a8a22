package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tidbyt.dev/gtfslite/internal/logger"
)

const fsIndexFile = "index.json"

// Caches downloaded files in a directory, so they survive restarts.
// Each body is kept in its own file, named by the hash of its URL,
// and index.json records when each was retrieved.
type Filesystem struct {
	Dir     string
	Records map[string]fsRecord

	mutex sync.Mutex
}

type fsRecord struct {
	File        string `json:"file"`
	RetrievedAt string `json:"retrieved_at"`
}

func NewFilesystem(dir string) (*Filesystem, error) {
	fs := &Filesystem{
		Dir:     dir,
		Records: map[string]fsRecord{},
	}

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	err = fs.load()
	if err != nil {
		return nil, err
	}

	return fs, nil
}

func (f *Filesystem) Get(
	ctx context.Context,
	url string,
	headers map[string]string,
	options GetOptions,
) ([]byte, error) {

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if options.Cache {
		body, ok, err := f.cached(url, options.CacheTTL)
		if err != nil {
			return nil, err
		}
		if ok {
			logger.Debug("download cache hit", "url", url)
			return body, nil
		}
	}

	body, err := HTTPGet(ctx, url, headers, options)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}

	if options.Cache {
		err = f.store(url, body)
		if err != nil {
			return nil, fmt.Errorf("saving: %w", err)
		}
	}

	return body, nil
}

// Reads the body for url if it was retrieved within ttl. A record
// whose file has gone missing counts as a miss.
func (f *Filesystem) cached(url string, ttl time.Duration) ([]byte, bool, error) {
	record, found := f.Records[url]
	if !found {
		return nil, false, nil
	}

	retrievedAt, err := time.Parse(time.RFC3339, record.RetrievedAt)
	if err != nil {
		return nil, false, fmt.Errorf("parsing retrieved_at for %s: %w", url, err)
	}
	if !retrievedAt.Add(ttl).After(time.Now()) {
		logger.Debug("download cache expired", "url", url)
		return nil, false, nil
	}

	body, err := os.ReadFile(filepath.Join(f.Dir, record.File))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached %s: %w", url, err)
	}

	return body, true, nil
}

func (f *Filesystem) store(url string, body []byte) error {
	name := fmt.Sprintf("%x", sha256.Sum256([]byte(url)))

	err := os.WriteFile(filepath.Join(f.Dir, name), body, 0644)
	if err != nil {
		return fmt.Errorf("writing body: %w", err)
	}

	f.Records[url] = fsRecord{
		File:        name,
		RetrievedAt: time.Now().UTC().Format(time.RFC3339),
	}

	return f.save()
}

func (f *Filesystem) load() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	buf, err := os.ReadFile(filepath.Join(f.Dir, fsIndexFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading index: %w", err)
	}

	err = json.Unmarshal(buf, &f.Records)
	if err != nil {
		return fmt.Errorf("unmarshalling index: %w", err)
	}

	return nil
}

func (f *Filesystem) save() error {
	buf, err := json.Marshal(f.Records)
	if err != nil {
		return fmt.Errorf("marshalling index: %w", err)
	}

	err = os.WriteFile(filepath.Join(f.Dir, fsIndexFile), buf, 0644)
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}

	return nil
}
