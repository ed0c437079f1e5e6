package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// gameView assembles the template data for the game surface.
func gameView(game *GameState, total int, showAll bool) gin.H {
	return gin.H{
		"title":         "무한맨틀",
		"game":          game,
		"total":         total,
		"placeholder":   placeholderText(game),
		"hasError":      game.LastRejected || game.LastDuplicate || game.LastError,
		"showAll":       showAll,
		"collapsedRows": CollapsedRows,
		"hasMore":       len(game.Results) > CollapsedRows,
	}
}

// homeHandler renders the main game page. While the vocabulary size is still
// unknown the fetch is retried here, so a reload recovers from a failed
// initialization.
func homeHandler(c *gin.Context) {
	ctx := c.Request.Context()
	total := ensureTotalCount(ctx)

	sessionID := getOrCreateSession(c)
	game := getGameState(sessionID)

	game.mu.Lock()
	defer game.mu.Unlock()
	if game.Answer == 0 && total > 0 {
		selectTarget(game, total, false)
		saveGameState(sessionID, game)
	}

	c.HTML(http.StatusOK, "index.html", gameView(game, total, c.Query("expand") == "1"))
}

// guessHandler processes one submission and re-renders the game surface.
func guessHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := getOrCreateSession(c)
	game := getGameState(sessionID)

	submitGuess(ctx, sessionID, game, c.PostForm("guess"))

	renderGame(c, game, c.Query("expand") == "1")
}

// newGameHandler resets the session for the next puzzle. It backs both the
// 다음 문제 button on the solved banner and the 포기하기 (give up) button;
// the confirmation for giving up happens client-side.
func newGameHandler(c *gin.Context) {
	ctx := c.Request.Context()
	total := ensureTotalCount(ctx)

	sessionID := getOrCreateSession(c)
	game := getGameState(sessionID)

	resetGame(sessionID, game, total)

	if c.GetHeader("HX-Request") == "true" {
		renderGame(c, game, false)
		return
	}
	c.Redirect(http.StatusSeeOther, RouteHome)
}

// gameStateHandler renders the current game surface as an HTML fragment.
// The expand query flips the results table between top-5 and the full list.
func gameStateHandler(c *gin.Context) {
	sessionID := getOrCreateSession(c)
	game := getGameState(sessionID)

	game.mu.Lock()
	defer game.mu.Unlock()
	c.HTML(http.StatusOK, "game-content", gameView(game, getTotalWordCount(), c.Query("expand") == "1"))
}

// renderGame picks the fragment or the full page depending on the request.
// The state lock is held through template execution, since templates read the
// game fields directly.
func renderGame(c *gin.Context, game *GameState, showAll bool) {
	game.mu.Lock()
	defer game.mu.Unlock()
	view := gameView(game, getTotalWordCount(), showAll)
	if c.GetHeader("HX-Request") == "true" {
		c.HTML(http.StatusOK, "game-content", view)
		return
	}
	c.HTML(http.StatusOK, "index.html", view)
}

// healthzHandler returns a JSON health check with server stats.
func healthzHandler(c *gin.Context) {
	sessionMutex.RLock()
	liveSessions := len(gameSessions)
	sessionMutex.RUnlock()

	uptime := time.Since(startTime)
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"env":           map[bool]string{true: "production", false: "development"}[isProduction],
		"total_count":   getTotalWordCount(),
		"live_sessions": liveSessions,
		"uptime":        formatUptime(uptime),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
