package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vulyk/suggestserve/internal/logger"
	"github.com/vulyk/suggestserve/internal/utils"
	"github.com/vulyk/suggestserve/pkg/config"
	"github.com/vulyk/suggestserve/pkg/rank"
	"github.com/vulyk/suggestserve/pkg/score"
	"github.com/vulyk/suggestserve/pkg/vocab"
)

const reloadEvery = 100

// Server handles the IPC for suggestion ranking
type Server struct {
	strategy   rank.Strategy
	vocab      *vocab.Vocabulary
	scorer     score.Scorer
	config     *config.Config
	configPath string

	reader  *countingReader
	decoder *msgpack.Decoder
	writer  *bufio.Writer
	encoder *msgpack.Encoder
	logger  *log.Logger

	requestCount int
	mu           sync.Mutex
}

// Option customises a Server.
type Option func(*Server)

// WithStrategy replaces the default rank.Ranker.
func WithStrategy(s rank.Strategy) Option {
	return func(srv *Server) {
		srv.strategy = s
	}
}

// WithIO replaces stdin/stdout.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(srv *Server) {
		srv.reader = &countingReader{r: bufio.NewReader(r)}
		srv.decoder = msgpack.NewDecoder(srv.reader)
		srv.writer = bufio.NewWriter(w)
		srv.encoder = msgpack.NewEncoder(srv.writer)
	}
}

// WithLogger replaces the default server logger.
func WithLogger(l *log.Logger) Option {
	return func(srv *Server) {
		srv.logger = l
	}
}

// NewServer creates a server ranking against v. configPath may be empty,
// in which case the config is never reloaded.
func NewServer(v *vocab.Vocabulary, cfg *config.Config, configPath string, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	scorer, err := score.New(cfg.Ranker.Scorer)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		strategy:   rank.NewRanker(),
		vocab:      v,
		scorer:     scorer,
		config:     cfg,
		configPath: configPath,
		logger:     logger.New("server"),
	}
	WithIO(os.Stdin, os.Stdout)(srv)
	for _, opt := range opts {
		opt(srv)
	}
	return srv, nil
}

// Start processes requests until the input is closed.
//
// A malformed message is answered with an ErrorResponse and decoding resumes
// at the next byte. A message cut off by the end of input is reported the
// same way before Start returns. Only read errors from the input itself end
// the loop with an error.
func (s *Server) Start() error {
	s.logger.Debug("Starting server")
	s.send(StatusResponse{Status: "ready"})

	for {
		before := s.reader.n
		raw, err := s.decoder.DecodeRaw()
		consumed := s.reader.n - before

		switch {
		case err == nil:
			s.handleMessage(raw)
		case errors.Is(err, io.EOF) && consumed == 0:
			s.logger.Debug("Input closed")
			return nil
		case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
			s.logger.Warnf("Input closed in the middle of a message (%d bytes read)", consumed)
			s.sendError("", "Truncated msgpack request", 400)
			return nil
		case consumed == 0:
			s.logger.Errorf("Reading request: %v", err)
			return err
		default:
			s.logger.Errorf("Decoding request: %v", err)
			s.sendError("", "Invalid msgpack request", 400)
		}
	}
}

func (s *Server) handleMessage(raw msgpack.RawMessage) {
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.logger.Errorf("Unmarshaling request: %v", err)
		s.sendError("", "Invalid msgpack request", 400)
		return
	}

	s.mu.Lock()
	s.requestCount++
	if s.requestCount%reloadEvery == 0 {
		s.reloadConfig()
	}
	s.mu.Unlock()

	switch req.Action {
	case "", ActionRank:
		s.handleRank(req)
	case ActionVocab:
		s.handleVocab(req, "ok")
	case ActionReload:
		s.handleReload(req)
	case ActionHealth:
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.sendError(req.ID, fmt.Sprintf("Unknown action: %s", req.Action), 400)
	}
}

func (s *Server) handleRank(req Request) {
	s.mu.Lock()
	maxLimit, maxQuery, scorer := s.config.Server.MaxLimit, s.config.Server.MaxQuery, s.scorer
	s.mu.Unlock()

	if maxQuery > 0 && utils.RuneLen(req.Query) > maxQuery {
		s.sendError(req.ID, fmt.Sprintf("Query exceeds maximum length of %d characters", maxQuery), 400)
		return
	}

	limit := req.Limit
	if limit <= 0 || (maxLimit > 0 && limit > maxLimit) {
		limit = maxLimit
	}

	start := time.Now()
	entries := s.strategy.Rank(req.Query, s.vocab.Candidates(scorer))
	entries = rank.Truncate(entries, limit)
	elapsed := time.Since(start)

	s.logger.Debugf("Ranked %q: %d entries in %v", req.Query, len(entries), elapsed)

	suggestions := make([]RankSuggestion, len(entries))
	for i, e := range entries {
		if e.Literal {
			suggestions[i] = RankSuggestion{Word: e.Query, Literal: true}
			continue
		}
		suggestions[i] = RankSuggestion{Word: score.Text(e.Candidate), Score: e.Score}
	}

	s.send(RankResponse{
		ID:          req.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleVocab(req Request, status string) {
	stats := s.vocab.Stats()
	s.mu.Lock()
	scorer := s.config.Ranker.Scorer
	s.mu.Unlock()

	s.send(VocabResponse{
		ID:     req.ID,
		Status: status,
		Terms:  stats["terms"],
		MaxLen: stats["maxLen"],
		Scorer: scorer,
	})
}

func (s *Server) handleReload(req Request) {
	s.mu.Lock()
	cfg := s.config.Vocab
	dir := ""
	if s.configPath != "" {
		dir = filepath.Dir(s.configPath)
	}
	s.mu.Unlock()

	fresh, err := vocab.LoadConfigured(cfg.Path, cfg.Terms, dir)
	if err != nil {
		s.logger.Errorf("Reloading vocabulary: %v", err)
		s.sendError(req.ID, fmt.Sprintf("Failed to reload vocabulary: %v", err), 500)
		return
	}
	s.vocab.Replace(fresh.Terms())
	s.logger.Infof("Vocabulary reloaded: %d terms", s.vocab.Len())
	s.handleVocab(req, "reloaded")
}

// reloadConfig re-reads the config file. Callers hold s.mu.
func (s *Server) reloadConfig() {
	if s.configPath == "" {
		return
	}
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		s.logger.Warnf("Config reload failed: %v", err)
		return
	}
	scorer, err := score.New(cfg.Ranker.Scorer)
	if err != nil {
		s.logger.Warnf("Config reload: %v. Keeping %q", err, s.config.Ranker.Scorer)
		cfg.Ranker.Scorer = s.config.Ranker.Scorer
		scorer = s.scorer
	}
	s.config, s.scorer = cfg, scorer
	s.logger.Debugf("Config reloaded from %s", s.configPath)
}

func (s *Server) send(response any) {
	if err := s.encoder.Encode(response); err != nil {
		s.logger.Errorf("Encoding response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		s.logger.Errorf("Writing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}

// countingReader counts the bytes the decoder consumes so the server can tell
// a closed input from a truncated message.
type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

func (c *countingReader) UnreadByte() error {
	err := c.r.UnreadByte()
	if err == nil {
		c.n--
	}
	return err
}
