package main

// Game configuration constants
const (
	WinSimilarity   = 100 // Similarity the oracle reports for the exact target word
	CollapsedRows   = 5   // Result rows shown before the expand toggle
	SnapshotVersion = 1   // Session snapshot schema version
)

// Session configuration constants
const (
	SessionCookieName = "session_id"
)

// Route constants
const (
	RouteHome      = "/"
	RouteGuess     = "/guess"
	RouteNewGame   = "/new-game"
	RouteGameState = "/game-state"
)

// Input placeholder texts, shown in the cleared input field after a submission.
const (
	PlaceholderDefault   = "단어를 입력하세요."
	PlaceholderRejected  = "사용할 수 없는 단어입니다."
	PlaceholderDuplicate = "이미 제출한 단어입니다."
)

// ExactRankDisplay is rendered in the rank column for the winning guess.
const ExactRankDisplay = "정답!"

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)

type contextKey string
