package derive

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
	"github.com/google/uuid"
)

// RunLog is the audit evidence of one tool invocation: everything the
// standard logger prints is also appended to a file, and the run is bracketed
// by start and finish lines carrying a run ID.
type RunLog struct {
	ID      uuid.UUID
	Path    string
	Started time.Time

	file *os.File
	prev io.Writer
}

// StartRunLog tees the standard logger to path. An empty path only assigns a
// run ID.
func StartRunLog(tool, path string) (*RunLog, error) {
	rl := &RunLog{
		ID:      uuid.New(),
		Path:    path,
		Started: time.Now(),
		prev:    log.Writer(),
	}

	if path != "" {
		f, err := os.OpenFile(genomisc.ExpandHome(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, pfx.Err(err)
		}
		rl.file = f
		log.SetOutput(io.MultiWriter(rl.prev, f))
	}

	host, _ := os.Hostname()
	log.Printf("%s run %s started on %s: %s\n", tool, rl.ID, host, strings.Join(os.Args, " "))

	return rl, nil
}

// Close logs the outcome and restores the previous log output.
func (rl *RunLog) Close(runErr error) error {
	status := "finished"
	if runErr != nil {
		status = fmt.Sprintf("failed: %v", runErr)
	}
	log.Printf("run %s %s after %s\n", rl.ID, status, time.Since(rl.Started).Round(time.Millisecond))

	if rl.file == nil {
		return nil
	}

	log.SetOutput(rl.prev)

	return rl.file.Close()
}
