package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Rank is the oracle's position of a guess in the full semantic ranking for
// the current target. The winning guess carries the exact-match sentinel
// instead of a position.
type Rank struct {
	Exact    bool
	Position int
}

// ExactRank returns the sentinel rank of a winning guess.
func ExactRank() Rank {
	return Rank{Exact: true}
}

func (r Rank) String() string {
	if r.Exact {
		return ExactRankDisplay
	}
	return strconv.Itoa(r.Position)
}

// MarshalJSON emits the position as a number, or the sentinel string for the
// winning guess, matching the legacy resultArr layout.
func (r Rank) MarshalJSON() ([]byte, error) {
	if r.Exact {
		return json.Marshal(ExactRankDisplay)
	}
	return json.Marshal(r.Position)
}

// UnmarshalJSON accepts either a number or a string; any string value is
// treated as the exact-match sentinel.
func (r *Rank) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*r = Rank{Position: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = Rank{Exact: true}
	return nil
}

// GuessRecord is one scored submission. Seq is assigned at submission time
// and never renumbered, even though display order is re-sorted.
type GuessRecord struct {
	Seq        int
	Word       string
	Similarity float64
	Rank       Rank
}

// MarshalJSON serializes the record as the legacy 4-element array
// [seq, word, similarity, rank].
func (g GuessRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{g.Seq, g.Word, g.Similarity, g.Rank})
}

// UnmarshalJSON parses the 4-element array form.
func (g *GuessRecord) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 4 {
		return fmt.Errorf("guess record: expected 4 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &g.Seq); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[1], &g.Word); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[2], &g.Similarity); err != nil {
		return err
	}
	return json.Unmarshal(parts[3], &g.Rank)
}

// GameState holds one player's session. It is only mutated through the
// transition functions in game.go; flags are display state and never persisted.
//
// mu guards the gameplay fields and the in-flight flag against concurrent
// requests on the same session (a render racing a submission). LastAccessTime
// is owned by sessionMutex instead, because the cleanup scheduler reads it
// while walking the session map.
type GameState struct {
	mu             sync.Mutex
	Answer         int           // Current target id in [1, total], 0 while uninitialized
	AnswerHistory  []int         // Target ids already served, cleared on exhaustion
	Results        []GuessRecord // Scored guesses, stored in display (ranked) order
	IsCorrect      bool          // Whether the target has been found
	AnswerCount    int           // Scored attempts; fixed to the winning position once solved
	LastRejected   bool          // Last input failed classification
	LastDuplicate  bool          // Last input was already submitted
	LastError      bool          // Last oracle call failed
	InFlight       bool          // Single-flight guard for submissions
	LastAccessTime time.Time
}

// SessionSnapshot is the durable form of a session, written as one versioned
// record so the answer, history and solved flag can never drift apart on disk.
// Field names keep the legacy storage key names.
type SessionSnapshot struct {
	Version     int           `json:"version"`
	Answer      int           `json:"answer"`
	AnswerArr   []int         `json:"answerArr"`
	ResultArr   []GuessRecord `json:"resultArr"`
	IsCorrect   bool          `json:"isCorrect"`
	AnswerCount int           `json:"answerCount"`
	SavedAt     time.Time     `json:"savedAt"`
}

// TotalCountResponse is the word-count endpoint payload.
type TotalCountResponse struct {
	TotalCount int `json:"total_count"`
}

// ScoreResponse is the scoring endpoint payload for one guess.
type ScoreResponse struct {
	Error      string  `json:"error"`
	InputWord  string  `json:"input_word"`
	Similarity float64 `json:"similarity_percentage"`
	Rank       Rank    `json:"rank"`
}
