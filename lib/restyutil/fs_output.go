package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	devenv "guildexp/dev/env"
)

// FilesystemOutput writes one file per request into a directory under the
// dev state directory, old dumps are cleared on creation.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	name := strings.ReplaceAll(id, string(filepath.Separator), "_") + ".http"
	err := os.WriteFile(filepath.Join(o.directory, name), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}

// MemoryOutput keeps dumps in memory, used by tests.
type MemoryOutput struct {
	mu       *sync.Mutex
	messages map[string]string
}

func NewMemoryOutput() MemoryOutput {
	return MemoryOutput{mu: &sync.Mutex{}, messages: map[string]string{}}
}

func (o MemoryOutput) Write(id string, contents string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages[id] = contents
}

func (o MemoryOutput) Messages() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]string, len(o.messages))
	for k, v := range o.messages {
		out[k] = v
	}
	return out
}
