package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const sessionDir = "data/sessions"

// isValidSessionID accepts only canonical UUID session ids, so attacker
// supplied cookie values can never name a file outside the session directory.
func isValidSessionID(sessionID string) bool {
	if len(sessionID) != 36 {
		return false
	}
	_, err := uuid.Parse(sessionID)
	return err == nil
}

// getSecureSessionPath resolves the snapshot path for a session and rejects
// anything that escapes the session directory.
func getSecureSessionPath(sessionID string) (string, error) {
	if !isValidSessionID(sessionID) {
		return "", os.ErrNotExist
	}
	path := filepath.Join(sessionDir, sessionID+".json")
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(sessionDir)+string(os.PathSeparator)) {
		return "", os.ErrNotExist
	}
	return path, nil
}

// saveSessionSnapshot persists a session snapshot to disk. The snapshot is a
// single record, so the answer, history and solved flag are written in one
// file write and cannot drift apart.
var saveSessionSnapshot = func(sessionID string, game *GameState) error {
	sessionFile, err := getSecureSessionPath(sessionID)
	if err != nil {
		log.Printf("Skipping save for invalid session ID: %s", sessionID)
		return nil
	}

	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		log.Printf("Failed to create sessions directory: %v", err)
		return err
	}

	data, err := json.MarshalIndent(snapshotGameState(game), "", "  ")
	if err != nil {
		log.Printf("Failed to marshal snapshot for session %s: %v", sessionID, err)
		return err
	}

	if err := os.WriteFile(sessionFile, data, 0644); err != nil {
		log.Printf("Failed to write session file %s: %v", sessionFile, err)
		return err
	}
	return nil
}

// loadSessionSnapshot loads a session snapshot from disk. Expired, corrupt
// and schema-mismatched files are removed and reported as missing.
var loadSessionSnapshot = func(sessionID string) (*SessionSnapshot, error) {
	sessionFile, err := getSecureSessionPath(sessionID)
	if err != nil {
		log.Printf("Invalid session ID for loading: %s", sessionID)
		return nil, os.ErrNotExist
	}

	info, err := os.Stat(sessionFile)
	if err != nil {
		return nil, err
	}

	fileAge := time.Since(info.ModTime())
	if fileAge > SessionTimeout {
		log.Printf("Session file is too old (%v, max: %v), removing: %s", fileAge, SessionTimeout, sessionFile)
		os.Remove(sessionFile)
		return nil, os.ErrNotExist
	}

	data, err := os.ReadFile(sessionFile)
	if err != nil {
		log.Printf("Failed to read session file %s: %v", sessionFile, err)
		return nil, err
	}

	var snap SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("Failed to unmarshal session file %s (corrupted), removing: %v", sessionFile, err)
		os.Remove(sessionFile)
		return nil, os.ErrNotExist
	}

	if snap.Version != SnapshotVersion || snap.Answer <= 0 {
		log.Printf("Session file %s has invalid structure (version: %d, answer: %d), removing",
			sessionFile, snap.Version, snap.Answer)
		os.Remove(sessionFile)
		return nil, os.ErrNotExist
	}

	return &snap, nil
}

// cleanupOldSessions removes snapshot files older than the given age.
var cleanupOldSessions = func(maxAge time.Duration) error {
	entries, err := os.ReadDir(sessionDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		log.Printf("Failed to read sessions directory: %v", err)
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	removedCount := 0
	errorCount := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Printf("Failed to get info for session file %s: %v", entry.Name(), err)
			errorCount++
			continue
		}

		if info.ModTime().Before(cutoff) {
			sessionFile := filepath.Join(sessionDir, entry.Name())
			if err := os.Remove(sessionFile); err != nil {
				log.Printf("Failed to remove old session file %s: %v", sessionFile, err)
				errorCount++
			} else {
				removedCount++
			}
		}
	}

	log.Printf("Session cleanup completed: removed %d files, %d errors", removedCount, errorCount)
	return nil
}
