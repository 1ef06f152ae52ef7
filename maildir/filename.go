package maildir

import (
	"crypto/rand"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

var (
	// stagingCounter ensures unique names even within the same microsecond.
	stagingCounter uint64
	// cachedHostname is set once at startup.
	cachedHostname string
)

func init() {
	cachedHostname = getHostname()
}

// generateFilename creates a unique name for files and directories staged in tmp/.
// Format: timestamp.MmicrosPprocess.hostname.random
// Example: 1705678901.M123456P12345.hostname.abc123
func generateFilename() string {
	now := time.Now()
	counter := atomic.AddUint64(&stagingCounter, 1)
	pid := os.Getpid()

	randomBytes := make([]byte, 6)
	if _, err := rand.Read(randomBytes); err != nil {
		// Fallback to counter-based suffix if random fails
		return fmt.Sprintf("%d.M%dP%d.%s.%d",
			now.Unix(),
			now.Nanosecond()/1000,
			pid,
			cachedHostname,
			counter,
		)
	}

	return fmt.Sprintf("%d.M%dP%dQ%d.%s.%x",
		now.Unix(),
		now.Nanosecond()/1000,
		pid,
		counter,
		cachedHostname,
		randomBytes,
	)
}

// getHostname returns the sanitized system hostname.
func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	return sanitizeHostname(hostname)
}

// sanitizeHostname removes or replaces characters that are problematic in filenames.
func sanitizeHostname(hostname string) string {
	hostname = strings.ReplaceAll(hostname, "/", "\\057")
	hostname = strings.ReplaceAll(hostname, ":", "\\072")
	hostname = strings.ReplaceAll(hostname, "\x00", "")
	return hostname
}

// validFilename reports whether name can be used as a single path element.
func validFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\x00") && !strings.ContainsRune(name, os.PathSeparator)
}
