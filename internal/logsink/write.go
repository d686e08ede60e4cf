package logsink

import (
	"os"
	"path/filepath"
)

// MatchesFile collects one line per accepted address in a run directory.
const MatchesFile = "matches.log"

func WriteMatch(dir, line string) error {
	f, err := OpenAppend(filepath.Join(dir, MatchesFile))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

func WriteHint(dir, hint string) error {
	if hint == "" {
		return nil
	}
	return os.WriteFile(filepath.Join(dir, "hint.txt"), []byte(hint), 0o600)
}
