package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateGroupID returns a new experiment group ID with a timestamp prefix
func GenerateGroupID() string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("grp-%s-%s", timestamp, shortUUID())
}

// GenerateSweepID returns a random sweep ID
func GenerateSweepID() string {
	return "sweep-" + uuid.NewString()
}

// RunID derives the ID of a run from its group and generation index.
// The result is stable so that reloaded documents keep their IDs.
func RunID(groupID string, index int) string {
	return fmt.Sprintf("%s/run-%04d", groupID, index)
}

func shortUUID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
