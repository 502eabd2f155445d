package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/hintserve/internal/logger"
	"github.com/bastiangx/hintserve/pkg/config"
	"github.com/bastiangx/hintserve/pkg/inference"
	"github.com/bastiangx/hintserve/pkg/remote"
	"github.com/bastiangx/hintserve/pkg/resolve"
	"github.com/bastiangx/hintserve/pkg/trigger"
	"github.com/bastiangx/hintserve/pkg/typestore"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// statsEvery is how many requests pass between store stats in the debug log.
const statsEvery = 100

// Inferrer fetches predictions for a source file.
type Inferrer interface {
	Infer(ctx context.Context, path, source string) (*inference.Payload, error)
}

// Server handles msgpack IPC for type hint completion.
type Server struct {
	store    *typestore.Store
	resolver *resolve.Resolver
	inferrer Inferrer
	reporter resolve.Reporter
	filtered bool

	reader  io.Reader
	writer  io.Writer
	encoder *msgpack.Encoder
	writeMu sync.Mutex

	inflight     sync.WaitGroup
	requestCount int

	// generations counts infer, load and forget requests per path. A result is
	// stored only while its request is still the newest one for that path.
	genMu       sync.Mutex
	generations map[string]uint64
}

// NewServer creates a server over stdin/stdout. inferrer may be nil, in which
// case only payloads sent with "load" can be used.
func NewServer(store *typestore.Store, inferrer Inferrer, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	format := resolve.Format{
		LabelPrefix:   cfg.Completion.LabelPrefix,
		MaxCandidates: cfg.Completion.MaxCandidates,
	}
	s := &Server{
		store:       store,
		resolver:    resolve.NewResolver(store, trigger.NewClassifier(cfg.Completion.LookbackLines), format),
		inferrer:    inferrer,
		reporter:    resolve.NewLogReporter(logger.New("feedback"), cfg.Feedback.ShareAccepted),
		filtered:    cfg.Server.FilterPredictions,
		generations: make(map[string]uint64),
	}
	s.SetIO(os.Stdin, os.Stdout)
	return s
}

// SetIO replaces the transport, mainly for tests.
func (s *Server) SetIO(r io.Reader, w io.Writer) {
	s.reader = r
	s.writer = w
	s.encoder = msgpack.NewEncoder(w)
}

// SetReporter replaces the feedback reporter.
func (s *Server) SetReporter(r resolve.Reporter) {
	s.reporter = r
}

// Start reads requests until the client closes the stream or ctx is done.
// Inference runs in the background so completions keep flowing while the
// service is busy; Start waits for pending inferences before returning.
func (s *Server) Start(ctx context.Context) error {
	log.Debug("Starting server")
	defer s.inflight.Wait()

	s.sendResponse(map[string]string{"status": "ready"})

	decoder := msgpack.NewDecoder(s.reader)
	for {
		if ctx.Err() != nil {
			return nil
		}
		raw, err := decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("Client disconnected")
				return nil
			}
			log.Errorf("Reading request: %v", err)
			return err
		}
		s.handleRequest(ctx, raw)
	}
}

// handleRequest routes one raw message by its action.
func (s *Server) handleRequest(ctx context.Context, raw msgpack.RawMessage) {
	s.requestCount++
	if s.requestCount%statsEvery == 0 {
		log.Debug("Store", "stats", s.store.Stats())
	}

	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		log.Errorf("Decoding request: %v", err)
		s.sendError("", "Invalid msgpack request", 400)
		return
	}

	switch env.Action {
	case ActionInfer:
		var req InferRequest
		if s.decode(raw, &req, env.ID) {
			gen := s.nextGeneration(req.Path)
			s.inflight.Add(1)
			go func() {
				defer s.inflight.Done()
				s.handleInfer(ctx, req, gen)
			}()
		}
	case ActionLoad:
		var req LoadRequest
		if s.decode(raw, &req, env.ID) {
			s.handleLoad(req)
		}
	case ActionComplete:
		var req CompleteRequest
		if s.decode(raw, &req, env.ID) {
			s.handleComplete(ctx, req)
		}
	case ActionFeedback:
		var req FeedbackRequest
		if s.decode(raw, &req, env.ID) {
			s.handleFeedback(req)
		}
	case ActionForget:
		var req ForgetRequest
		if s.decode(raw, &req, env.ID) {
			s.handleForget(req)
		}
	case ActionStats:
		var req StatsRequest
		if s.decode(raw, &req, env.ID) {
			s.handleStats(req)
		}
	default:
		s.sendError(env.ID, fmt.Sprintf("Unknown action: %q", env.Action), 400)
	}
}

func (s *Server) decode(raw msgpack.RawMessage, v any, id string) bool {
	if err := msgpack.Unmarshal(raw, v); err != nil {
		log.Debugf("Decoding %T: %v", v, err)
		s.sendError(id, "Invalid request fields", 400)
		return false
	}
	return true
}

// nextGeneration marks a new request for path and returns its generation.
func (s *Server) nextGeneration(path string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[path]++
	return s.generations[path]
}

// supersedeFolder bumps the generation of every known path inside folder.
func (s *Server) supersedeFolder(folder string) {
	folder = typestore.FolderPrefix(folder)
	s.genMu.Lock()
	defer s.genMu.Unlock()
	for path := range s.generations {
		if strings.HasPrefix(path, folder) {
			s.generations[path]++
		}
	}
}

func (s *Server) handleInfer(ctx context.Context, req InferRequest, gen uint64) {
	if s.inferrer == nil {
		s.sendError(req.ID, "No inference service configured", 503)
		return
	}
	start := time.Now()
	payload, err := s.inferrer.Infer(ctx, req.Path, req.Source)
	if err != nil {
		log.Warnf("Inference failed for %s: %v", req.Path, err)
		s.sendError(req.ID, err.Error(), inferErrorCode(err))
		return
	}
	s.storePayload(req.ID, req.Path, gen, payload, start)
}

func (s *Server) handleLoad(req LoadRequest) {
	if req.Path == "" {
		s.sendError(req.ID, "Missing 'path'", 400)
		return
	}
	gen := s.nextGeneration(req.Path)
	start := time.Now()
	payload, err := inference.Decode(bytes.NewReader(req.Payload))
	if err != nil {
		s.sendError(req.ID, err.Error(), 400)
		return
	}
	s.storePayload(req.ID, req.Path, gen, payload, start)
}

// storePayload normalizes a payload into the store and answers with its summary.
// A payload whose request gen was overtaken by a newer infer, load or forget
// of the same path is dropped and answered with StatusSuperseded.
func (s *Server) storePayload(id, path string, gen uint64, payload *inference.Payload, start time.Time) {
	resp, err := payload.Result()
	if err != nil {
		s.sendError(id, err.Error(), inferErrorCode(err))
		return
	}
	data := inference.Normalize(resp)

	s.genMu.Lock()
	current := s.generations[path] == gen
	if current {
		s.store.Put(path, data)
	}
	s.genMu.Unlock()

	status := StatusOK
	if !current {
		log.Debugf("Dropping superseded predictions for %s", path)
		status = StatusSuperseded
	}
	s.sendResponse(InferResponse{
		ID:        id,
		Status:    status,
		Session:   data.SessionID,
		Functions: len(data.Functions),
		Variables: len(data.Variables),
		TimeTaken: time.Since(start).Microseconds(),
	})
}

// inferErrorCode maps inference failures onto HTTP like codes.
func inferErrorCode(err error) int {
	var svcErr *inference.ServiceError
	switch {
	case errors.Is(err, remote.ErrNotPython), errors.Is(err, remote.ErrEmptyFile):
		return 400
	case errors.As(err, &svcErr):
		return 422
	case errors.Is(err, inference.ErrEmptyPayload), errors.Is(err, inference.ErrMalformed):
		return 502
	case errors.Is(err, context.DeadlineExceeded):
		return 504
	default:
		return 503
	}
}

func (s *Server) handleComplete(ctx context.Context, req CompleteRequest) {
	if req.Path == "" {
		s.sendError(req.ID, "Missing 'path'", 400)
		return
	}
	if req.Line < 0 || req.Col < 0 || req.First < 0 {
		s.sendError(req.ID, "Position must not be negative", 400)
		return
	}

	start := time.Now()
	doc := &trigger.Window{First: req.First, Lines: req.Lines}
	trig := req.Trigger
	if trig == "" {
		trig = trigger.TriggerAt(doc.LineAt(req.Line), req.Col)
	}

	candidates := s.resolver.Resolve(ctx, resolve.Request{
		Path:    req.Path,
		Doc:     doc,
		Pos:     trigger.Position{Line: req.Line, Character: req.Col},
		Trigger: trig,
	})

	suggestions := make([]Suggestion, 0, len(candidates))
	for _, c := range candidates {
		suggestions = append(suggestions, Suggestion{
			Annotation: c.Annotation,
			Label:      c.Label,
			Rank:       c.Rank,
			Slot:       c.Slot.String(),
			Identifier: c.Identifier,
		})
	}

	s.sendResponse(CompleteResponse{
		ID:          req.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   time.Since(start).Microseconds(),
	})
}

func (s *Server) handleFeedback(req FeedbackRequest) {
	slot, err := trigger.ParseSlot(req.Slot)
	if err != nil {
		s.sendError(req.ID, err.Error(), 400)
		return
	}

	var session string
	if data, ok := s.store.Get(req.Path); ok {
		session = data.SessionID
	}

	var fb resolve.Feedback
	if req.Dismissed {
		fb = resolve.Dismissed(slot, req.Identifier, req.Line, session)
	} else {
		if req.Annotation == "" || req.Rank < 1 {
			s.sendError(req.ID, "Accepted feedback needs 'a' and a rank >= 1", 400)
			return
		}
		fb = resolve.Feedback{
			Annotation: req.Annotation,
			Rank:       req.Rank,
			Slot:       slot,
			Identifier: req.Identifier,
			Line:       req.Line,
			SessionID:  session,
		}
	}
	fb.Filtered = s.filtered
	s.reporter.Report(fb)

	s.sendResponse(StatusResponse{ID: req.ID, Status: StatusOK})
}

func (s *Server) handleForget(req ForgetRequest) {
	removed := 0
	switch {
	case req.Prefix != "":
		s.supersedeFolder(req.Prefix)
		removed = s.store.ForgetPrefix(req.Prefix)
	case req.Path != "":
		s.nextGeneration(req.Path)
		if s.store.Forget(req.Path) {
			removed = 1
		}
	default:
		s.sendError(req.ID, "Missing 'path' or 'prefix'", 400)
		return
	}
	s.sendResponse(StatusResponse{ID: req.ID, Status: StatusOK, Removed: removed})
}

func (s *Server) handleStats(req StatsRequest) {
	stats := s.store.Stats()
	resp := StatsResponse{
		ID:        req.ID,
		Files:     stats["files"],
		Functions: stats["functions"],
		Variables: stats["variables"],
	}
	if req.List {
		resp.Paths = s.store.Paths(req.Prefix)
	}
	s.sendResponse(resp)
}

// sendResponse encodes one message; writes are serialized across goroutines.
func (s *Server) sendResponse(response any) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{
		ID:    id,
		Error: message,
		Code:  code,
	})
}
