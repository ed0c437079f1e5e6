package main

import (
	"crypto/rand"
	"math/big"

	"github.com/samber/lo"
)

// randomTargetID draws a uniform target id in [1, max].
// Declared as a variable so tests can script the draw sequence.
var randomTargetID = func(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		logWarn("Error generating random number: %v, using fallback", err)
		return 1
	}
	return int(n.Int64()) + 1
}

// selectTarget assigns a target id in [1, max] to the session.
//
// With forceNew false an already-assigned target is kept, so a reload resumes
// the same puzzle. Otherwise ids are drawn until one is found that has not
// been served before, retrying at most max times; when every id has been used
// the history is cleared and the current draw accepted. max <= 0 means the
// vocabulary size is not known yet and nothing is assigned.
func selectTarget(game *GameState, max int, forceNew bool) {
	if max <= 0 {
		return
	}
	if game.Answer > 0 && !forceNew {
		return
	}

	var draw int
	attempts := 0
	for {
		draw = randomTargetID(max)
		attempts++
		if attempts > max {
			logWarn("All %d target ids used, clearing target history", max)
			game.AnswerHistory = nil
			break
		}
		if !lo.Contains(game.AnswerHistory, draw) {
			break
		}
	}

	game.Answer = draw
	game.AnswerHistory = append(game.AnswerHistory, draw)
}
