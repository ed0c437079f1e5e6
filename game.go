package main

import (
	"context"
	"time"

	"github.com/samber/lo"
)

// createNewGame initializes a fresh GameState for a session and stores it.
// Target selection is skipped while the vocabulary size is unknown; the
// session then stays uninitialized until the next page load retries the fetch.
func createNewGame(sessionID string) *GameState {
	game := &GameState{
		Results:        []GuessRecord{},
		LastAccessTime: time.Now(),
	}
	game.mu.Lock()
	defer game.mu.Unlock()
	selectTarget(game, getTotalWordCount(), false)
	if game.Answer > 0 {
		logInfo("New game created for session %s with target id %d", sessionID, game.Answer)
	} else {
		logWarn("New game for session %s has no target yet (word count unknown)", sessionID)
	}

	sessionMutex.Lock()
	gameSessions[sessionID] = game
	sessionMutex.Unlock()

	saveGameState(sessionID, game)
	return game
}

// hydrateSnapshot rebuilds a GameState from a stored snapshot. It is pure so
// resume-on-reload is testable without any I/O. Stored state is reconciled
// rather than trusted: the solved flag survives only if the history actually
// contains a record at the winning similarity.
func hydrateSnapshot(snap *SessionSnapshot) *GameState {
	game := &GameState{
		Answer:         snap.Answer,
		AnswerHistory:  snap.AnswerArr,
		Results:        snap.ResultArr,
		IsCorrect:      snap.IsCorrect,
		AnswerCount:    snap.AnswerCount,
		LastAccessTime: time.Now(),
	}
	if game.Results == nil {
		game.Results = []GuessRecord{}
	}
	if game.IsCorrect && !hasWinningRecord(game.Results) {
		logWarn("Snapshot solved flag without winning record, clearing it")
		game.IsCorrect = false
	}
	return game
}

// snapshotGameState captures the durable part of a session as one record.
func snapshotGameState(game *GameState) *SessionSnapshot {
	return &SessionSnapshot{
		Version:     SnapshotVersion,
		Answer:      game.Answer,
		AnswerArr:   game.AnswerHistory,
		ResultArr:   game.Results,
		IsCorrect:   game.IsCorrect,
		AnswerCount: game.AnswerCount,
		SavedAt:     time.Now(),
	}
}

func hasWinningRecord(results []GuessRecord) bool {
	return lo.SomeBy(results, func(r GuessRecord) bool {
		return r.Similarity == WinSimilarity
	})
}

// appendResult adds a scored record to the history unless its word was
// already submitted. The duplicate check runs on the exact word string and
// happens before any ranking. The returned flag reports a duplicate.
func appendResult(history []GuessRecord, rec GuessRecord) ([]GuessRecord, bool) {
	duplicate := lo.SomeBy(history, func(r GuessRecord) bool {
		return r.Word == rec.Word
	})
	if duplicate {
		return history, true
	}
	return append(history, rec), false
}

// beginSubmission acquires the session's single-flight guard. A submission
// arriving while another is outstanding is dropped, not queued.
func beginSubmission(game *GameState) bool {
	game.mu.Lock()
	defer game.mu.Unlock()
	if game.InFlight {
		return false
	}
	game.InFlight = true
	return true
}

func endSubmission(game *GameState) {
	game.mu.Lock()
	game.InFlight = false
	game.mu.Unlock()
}

// submitGuess runs one full submission: classification, oracle scoring,
// dedup, ranking, win detection and persistence. All display flags are
// recomputed; exactly one of them is set on any failed path.
//
// The attempt counter increments for every scored submission, duplicates
// included, but not for classifier rejections or oracle failures.
//
// The oracle call runs outside the state lock. The single-flight guard keeps
// writers exclusive for the whole submission, so concurrent renders only ever
// see the pre-call or post-call state.
func submitGuess(ctx context.Context, sessionID string, game *GameState, raw string) {
	if !beginSubmission(game) {
		logWarn("Session %s submission dropped: another one is in flight", sessionID)
		return
	}
	defer endSubmission(game)

	game.mu.Lock()
	game.LastRejected = false
	game.LastDuplicate = false
	game.LastError = false
	solved, target := game.IsCorrect, game.Answer
	game.mu.Unlock()

	if solved {
		logWarn("Session %s attempted guess on solved game", sessionID)
		return
	}
	if target <= 0 {
		logWarn("Session %s attempted guess before target selection", sessionID)
		return
	}

	word, ok := classifyGuess(raw)
	if !ok {
		logInfo("Session %s guess rejected by classifier: %q", sessionID, raw)
		game.mu.Lock()
		game.LastRejected = true
		game.mu.Unlock()
		return
	}

	result, err := oracle.Score(ctx, target, word)
	if err != nil {
		logWarn("Session %s oracle call failed: %v", sessionID, err)
		game.mu.Lock()
		game.LastError = true
		game.mu.Unlock()
		return
	}

	if result.Similarity == WinSimilarity {
		winGame(sessionID, game, result)
		return
	}

	game.mu.Lock()
	defer game.mu.Unlock()
	rec := GuessRecord{
		Seq:        len(game.Results) + 1,
		Word:       result.InputWord,
		Similarity: result.Similarity,
		Rank:       result.Rank,
	}
	updated, duplicate := appendResult(game.Results, rec)
	if duplicate {
		logInfo("Session %s resubmitted word %q", sessionID, rec.Word)
		game.LastDuplicate = true
	} else {
		game.Results = rankResults(updated)
	}
	game.AnswerCount++
	saveGameState(sessionID, game)
}

// winGame records the winning guess. The attempt count is fixed to the
// history length before the winning append, so it names the position the
// winning record occupies.
func winGame(sessionID string, game *GameState, result *ScoreResponse) {
	game.mu.Lock()
	defer game.mu.Unlock()

	game.AnswerCount = len(game.Results)
	game.IsCorrect = true

	rec := GuessRecord{
		Seq:        len(game.Results) + 1,
		Word:       result.InputWord,
		Similarity: result.Similarity,
		Rank:       ExactRank(),
	}
	updated, duplicate := appendResult(game.Results, rec)
	if !duplicate {
		game.Results = rankResults(updated)
	}

	logInfo("Session %s solved target %d on attempt %d", sessionID, game.Answer, game.AnswerCount+1)
	saveGameState(sessionID, game)
}

// resetGame starts the next puzzle: the guess history, solved flag and
// attempt counter are cleared and a fresh target is forced. The target
// history survives resets so targets do not repeat until exhaustion.
func resetGame(sessionID string, game *GameState, total int) {
	game.mu.Lock()
	defer game.mu.Unlock()

	selectTarget(game, total, true)
	game.Results = []GuessRecord{}
	game.IsCorrect = false
	game.AnswerCount = 0
	game.LastRejected = false
	game.LastDuplicate = false
	game.LastError = false
	logInfo("Session %s reset, new target id %d", sessionID, game.Answer)
	saveGameState(sessionID, game)
}

// placeholderText picks the input placeholder for the current display flags.
// Oracle failures reuse the rejected-word text, which is the generic
// "unusable word" surface.
func placeholderText(game *GameState) string {
	switch {
	case game.LastRejected || game.LastError:
		return PlaceholderRejected
	case game.LastDuplicate:
		return PlaceholderDuplicate
	default:
		return PlaceholderDefault
	}
}
