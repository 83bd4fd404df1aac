/*
Package server implements msgpack IPC for suggestion ranking.

Clients write msgpack messages to stdin and read msgpack messages from
stdout. Every request carries an ID that is echoed back in the response.
Logs never go to stdout.

# IPC

Rank a query against the loaded vocabulary (an empty action means rank):

	{"id": "req_001", "a": "rank", "q": "ab cd", "l": 10}

The response lists the ranked terms, best first, and always ends with the
query exactly as it was sent, flagged as literal:

	{"id": "req_001", "s": [{"w": "abcd", "sc": 1}, {"w": "ab cd", "lit": true}], "c": 2, "t": 145}

The limit bounds the ranked terms only, the literal entry is always there.
Timing is in microseconds.

Vocabulary management:

	{"id": "v_001", "a": "vocab"}   // size and scorer info
	{"id": "v_002", "a": "reload"}  // re-read the vocabulary from config
	{"id": "h_001", "a": "health"}

Failures come back as ErrorResponse with an HTTP-like code. Any query is
ranked, whatever bytes it holds. Queries longer than max_query runes are
rejected. A message that cannot be decoded is answered with code 400 and no
ID, and the server carries on with the bytes that follow it.

# Config

The server re-reads its TOML config every reloadEvery requests, picking up a
new scorer or limits without restart.
*/
package server

// Actions understood by the server.
const (
	ActionRank   = "rank"
	ActionVocab  = "vocab"
	ActionReload = "reload"
	ActionHealth = "health"
)

// Request is the single message type clients send.
type Request struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"a,omitempty"`
	Query  string `msgpack:"q,omitempty"`
	Limit  int    `msgpack:"l,omitempty"`
}

// RankSuggestion is one entry of a rank response.
type RankSuggestion struct {
	Word    string  `msgpack:"w"`
	Score   float64 `msgpack:"sc,omitempty"`
	Literal bool    `msgpack:"lit,omitempty"`
}

// RankResponse answers a rank request.
type RankResponse struct {
	ID          string           `msgpack:"id"`
	Suggestions []RankSuggestion `msgpack:"s"`
	Count       int              `msgpack:"c"`
	TimeTaken   int64            `msgpack:"t"`
}

// VocabResponse answers vocab and reload requests.
type VocabResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
	Terms  int    `msgpack:"terms"`
	MaxLen int    `msgpack:"max_len"`
	Scorer string `msgpack:"scorer"`
}

// StatusResponse is sent on startup and for health checks.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// ErrorResponse holds basic error information
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
