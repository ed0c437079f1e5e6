package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// getOrCreateSession retrieves the session ID from the cookie or creates a new one.
func getOrCreateSession(c *gin.Context) string {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || !isValidSessionID(sessionID) {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(SessionCookieName, sessionID, int(CookieMaxAge.Seconds()), "/", "", isProduction, true)
		logInfo("Created new session: %s", sessionID)
	}
	return sessionID
}

// getGameState retrieves the GameState for a session: memory first, then the
// on-disk snapshot (resume after reload or restart), then a fresh game.
func getGameState(sessionID string) *GameState {
	sessionMutex.RLock()
	game, exists := gameSessions[sessionID]
	sessionMutex.RUnlock()
	if exists {
		sessionMutex.Lock()
		game.LastAccessTime = time.Now()
		sessionMutex.Unlock()
		return game
	}

	if snap, err := loadSessionSnapshot(sessionID); err == nil {
		game = hydrateSnapshot(snap)
		sessionMutex.Lock()
		gameSessions[sessionID] = game
		sessionMutex.Unlock()
		logInfo("Restored session %s from snapshot (target id %d, %d results)",
			sessionID, game.Answer, len(game.Results))
		return game
	} else if !os.IsNotExist(err) {
		logWarn("Failed to load snapshot for session %s: %v", sessionID, err)
	}

	logInfo("Creating new game for session: %s", sessionID)
	return createNewGame(sessionID)
}

// saveGameState updates the in-memory state and writes the snapshot. Callers
// hold game.mu (or own the state exclusively), so the snapshot reads a
// consistent view; lock order is always game.mu before sessionMutex.
func saveGameState(sessionID string, game *GameState) {
	sessionMutex.Lock()
	gameSessions[sessionID] = game
	game.LastAccessTime = time.Now()
	sessionMutex.Unlock()

	if err := saveSessionSnapshot(sessionID, game); err != nil {
		logWarn("Failed to persist session %s: %v", sessionID, err)
	}
}
