package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

const (
	TestSessionGame = "11111111-1111-4111-8111-111111111111"
)

// stubPersistence replaces the snapshot functions with no-ops so game tests
// never touch the filesystem.
func stubPersistence(t *testing.T) {
	t.Helper()
	origSave, origLoad := saveSessionSnapshot, loadSessionSnapshot
	saveSessionSnapshot = func(string, *GameState) error { return nil }
	loadSessionSnapshot = func(string) (*SessionSnapshot, error) { return nil, os.ErrNotExist }
	t.Cleanup(func() {
		saveSessionSnapshot, loadSessionSnapshot = origSave, origLoad
	})
}

// stubOracle points the package oracle at a local test server.
func stubOracle(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	orig := oracle
	oracle = NewOracleClient(srv.URL)
	t.Cleanup(func() {
		oracle = orig
		srv.Close()
	})
}

// scoreHandler responds to every scoring request with a fixed verdict.
func scoreHandler(word string, similarity float64, rank int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"input_word":            word,
			"similarity_percentage": similarity,
			"rank":                  rank,
		})
	}
}

func newTestGame(answer int) *GameState {
	return &GameState{
		Answer:         answer,
		AnswerHistory:  []int{answer},
		Results:        []GuessRecord{},
		LastAccessTime: time.Now(),
	}
}

// TestSubmitGuess_ClassifierRejected checks rejected input never reaches the oracle
func TestSubmitGuess_ClassifierRejected(t *testing.T) {
	stubPersistence(t)
	stubOracle(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("oracle was called for a classifier-rejected input: %s", r.URL.Path)
	})

	game := newTestGame(1)
	submitGuess(context.Background(), TestSessionGame, game, TestWordApple)

	if !game.LastRejected {
		t.Error("LastRejected not set for all-Latin input")
	}
	if len(game.Results) != 0 || game.AnswerCount != 0 {
		t.Errorf("rejected input mutated state: results=%d count=%d", len(game.Results), game.AnswerCount)
	}
}

// TestSubmitGuess_ScoredAndDeduped checks the scored-append path and dedup idempotence
func TestSubmitGuess_ScoredAndDeduped(t *testing.T) {
	stubPersistence(t)
	stubOracle(t, scoreHandler(TestWordSagwa, 42, 7))

	game := newTestGame(1)
	submitGuess(context.Background(), TestSessionGame, game, TestWordSagwa)

	if len(game.Results) != 1 {
		t.Fatalf("results len = %d, want 1", len(game.Results))
	}
	rec := game.Results[0]
	if rec.Seq != 1 || rec.Word != TestWordSagwa || rec.Similarity != 42 || rec.Rank.Position != 7 {
		t.Errorf("record = %+v, want {1 사과 42 7}", rec)
	}
	if game.AnswerCount != 1 {
		t.Errorf("AnswerCount = %d, want 1", game.AnswerCount)
	}

	submitGuess(context.Background(), TestSessionGame, game, TestWordSagwa)
	if len(game.Results) != 1 {
		t.Errorf("duplicate submission grew history: len = %d, want 1", len(game.Results))
	}
	if !game.LastDuplicate {
		t.Error("LastDuplicate not set on resubmission")
	}
	if game.AnswerCount != 2 {
		t.Errorf("AnswerCount = %d, want 2 (increments regardless of dedup)", game.AnswerCount)
	}
}

// TestSubmitGuess_SequenceMonotonicity checks seq = prior history length + 1
func TestSubmitGuess_SequenceMonotonicity(t *testing.T) {
	stubPersistence(t)

	words := []string{TestWordHaneul, TestWordBada, TestWordGureum}
	game := newTestGame(1)

	for i, word := range words {
		stubOracle(t, scoreHandler(word, float64(90-10*i), i+2))
		submitGuess(context.Background(), TestSessionGame, game, word)
	}

	seen := make(map[int]bool)
	for _, rec := range game.Results {
		if rec.Seq < 1 || rec.Seq > len(words) || seen[rec.Seq] {
			t.Errorf("bad sequence number %d in %+v", rec.Seq, game.Results)
		}
		seen[rec.Seq] = true
	}
}

// TestSubmitGuess_WinThresholdExactness checks 99 never solves and 100 always does
func TestSubmitGuess_WinThresholdExactness(t *testing.T) {
	stubPersistence(t)

	game := newTestGame(2)
	stubOracle(t, scoreHandler(TestWordHaneul, 99, 2))
	submitGuess(context.Background(), TestSessionGame, game, TestWordHaneul)
	if game.IsCorrect {
		t.Fatal("similarity 99 transitioned to solved")
	}

	stubOracle(t, scoreHandler(TestWordBada, 100, 1))
	submitGuess(context.Background(), TestSessionGame, game, TestWordBada)
	if !game.IsCorrect {
		t.Fatal("similarity 100 did not transition to solved")
	}
}

// TestSubmitGuess_WinAttemptCount checks attemptsAtSolve uses the pre-append length
func TestSubmitGuess_WinAttemptCount(t *testing.T) {
	stubPersistence(t)

	game := newTestGame(3)
	words := []string{TestWordHaneul, TestWordBada, TestWordGureum, TestWordByeol, TestWordKimchi}
	for i, word := range words {
		stubOracle(t, scoreHandler(word, float64(50+i), 100-i))
		submitGuess(context.Background(), TestSessionGame, game, word)
	}
	if len(game.Results) != 5 {
		t.Fatalf("setup: results len = %d, want 5", len(game.Results))
	}

	stubOracle(t, scoreHandler(TestWordSagwa, 100, 1))
	submitGuess(context.Background(), TestSessionGame, game, TestWordSagwa)

	if !game.IsCorrect {
		t.Fatal("winning submission did not solve the game")
	}
	if game.AnswerCount != 5 {
		t.Errorf("AnswerCount at solve = %d, want 5 (history length before the winning append)", game.AnswerCount)
	}
	if got := game.Results[0]; got.Word != TestWordSagwa || !got.Rank.Exact {
		t.Errorf("winning record not pinned first with exact rank: %+v", got)
	}

	// Input is dead until reset: further submissions are dropped.
	stubOracle(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("oracle called after the game was solved")
	})
	submitGuess(context.Background(), TestSessionGame, game, TestWordHaneul)
	if len(game.Results) != 6 {
		t.Errorf("post-solve submission mutated history: len = %d, want 6", len(game.Results))
	}
}

// TestSubmitGuess_OracleFailure checks network failures leave the session scoreless
func TestSubmitGuess_OracleFailure(t *testing.T) {
	stubPersistence(t)
	stubOracle(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	game := newTestGame(1)
	submitGuess(context.Background(), TestSessionGame, game, TestWordSagwa)

	if !game.LastError {
		t.Error("LastError not set on oracle failure")
	}
	if len(game.Results) != 0 {
		t.Errorf("oracle failure appended to history: len = %d", len(game.Results))
	}
	if game.AnswerCount != 0 {
		t.Errorf("AnswerCount = %d, want 0 (failures do not count as attempts)", game.AnswerCount)
	}
}

// TestSubmitGuess_OracleErrorField checks a 200 with an error field is a failure
func TestSubmitGuess_OracleErrorField(t *testing.T) {
	stubPersistence(t)
	stubOracle(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "unknown word"}`)
	})

	game := newTestGame(1)
	submitGuess(context.Background(), TestSessionGame, game, TestWordSagwa)

	if !game.LastError || len(game.Results) != 0 || game.AnswerCount != 0 {
		t.Errorf("error-field response: LastError=%v results=%d count=%d, want true 0 0",
			game.LastError, len(game.Results), game.AnswerCount)
	}
}

// TestSubmitGuess_SingleFlight checks a second submission is dropped while one is outstanding
func TestSubmitGuess_SingleFlight(t *testing.T) {
	stubPersistence(t)
	stubOracle(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("oracle called while another submission was in flight")
	})

	game := newTestGame(1)
	game.InFlight = true
	submitGuess(context.Background(), TestSessionGame, game, TestWordSagwa)

	if len(game.Results) != 0 || game.AnswerCount != 0 {
		t.Errorf("in-flight submission mutated state: results=%d count=%d", len(game.Results), game.AnswerCount)
	}
	if !game.InFlight {
		t.Error("guard was released by the dropped submission")
	}
}

// TestSubmitGuess_ConcurrentRender checks renders stay consistent while
// submissions are scored; the interesting assertions come from the race
// detector
func TestSubmitGuess_ConcurrentRender(t *testing.T) {
	stubPersistence(t)
	stubOracle(t, scoreHandler(TestWordSagwa, 42, 7))

	game := newTestGame(1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			game.mu.Lock()
			view := gameView(game, 5, false)
			game.mu.Unlock()
			if view["placeholder"] == "" {
				t.Error("render produced an empty placeholder")
			}
		}
	}()

	for i := 0; i < 50; i++ {
		submitGuess(context.Background(), TestSessionGame, game, TestWordSagwa)
	}
	<-done

	if len(game.Results) != 1 {
		t.Errorf("results len = %d, want 1 (same word resubmitted throughout)", len(game.Results))
	}
}

// TestResetGame checks the next-puzzle transition
func TestResetGame(t *testing.T) {
	stubPersistence(t)

	game := newTestGame(2)
	game.AnswerHistory = []int{1, 2, 3, 4, 5}
	game.Results = []GuessRecord{
		{Seq: 1, Word: TestWordSagwa, Similarity: 100, Rank: ExactRank()},
	}
	game.IsCorrect = true
	game.AnswerCount = 1
	game.LastDuplicate = true

	resetGame(TestSessionGame, game, 5)

	if game.IsCorrect || game.AnswerCount != 0 || len(game.Results) != 0 {
		t.Errorf("reset left state behind: solved=%v count=%d results=%d",
			game.IsCorrect, game.AnswerCount, len(game.Results))
	}
	if game.LastDuplicate {
		t.Error("reset did not clear display flags")
	}
	if game.Answer < 1 || game.Answer > 5 {
		t.Errorf("reset picked target %d, want in [1,5]", game.Answer)
	}
	// History held all 5 ids, so the forced draw must have cleared it.
	if len(game.AnswerHistory) != 1 {
		t.Errorf("AnswerHistory after exhausted reset = %v, want one entry", game.AnswerHistory)
	}
}

// TestHydrateSnapshot checks reload hydration and solved-flag reconciliation
func TestHydrateSnapshot(t *testing.T) {
	snap := &SessionSnapshot{
		Version:     SnapshotVersion,
		Answer:      7,
		AnswerArr:   []int{2, 7},
		ResultArr:   []GuessRecord{{Seq: 1, Word: TestWordSagwa, Similarity: 42, Rank: Rank{Position: 7}}},
		IsCorrect:   false,
		AnswerCount: 1,
	}

	game := hydrateSnapshot(snap)
	if game.Answer != 7 || len(game.Results) != 1 || game.AnswerCount != 1 {
		t.Errorf("hydrateSnapshot = %+v, want answer 7, 1 result, count 1", game)
	}

	// A solved flag with no winning record in the history is a partial-write
	// leftover and must not survive hydration.
	snap.IsCorrect = true
	game = hydrateSnapshot(snap)
	if game.IsCorrect {
		t.Error("hydrateSnapshot trusted a solved flag without a winning record")
	}

	snap.ResultArr = append(snap.ResultArr, GuessRecord{Seq: 2, Word: TestWordBada, Similarity: 100, Rank: ExactRank()})
	game = hydrateSnapshot(snap)
	if !game.IsCorrect {
		t.Error("hydrateSnapshot dropped a solved flag backed by a winning record")
	}
}
