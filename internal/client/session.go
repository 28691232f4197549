package client

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"wastetofeast/internal/recipe"
	"wastetofeast/internal/stream"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateRendered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateRendered:
		return "rendered"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// StreamError is an error event sent by the server.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string { return e.Message }

var errStale = errors.New("stream superseded")

// RecipeAPI is the part of Client a Session needs.
type RecipeAPI interface {
	StreamRecipe(ctx context.Context, req recipe.Request, handle func(stream.Event) error) error
	GenerateImage(ctx context.Context, recipeName string) (string, error)
}

// Callbacks receive session updates. They run on the stream goroutine, one
// at a time and in event order. Any of them may be nil.
type Callbacks struct {
	OnUpdate       func(recipe.View)
	OnRendered     func(recipe.View)
	OnError        func(error)
	OnIllustration func(image string)
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	State State
	Text  string
	View  recipe.View
	Err   error
	Image string
}

// Session owns the recipe buffer of one user. Each Submit starts a new stream
// and discards whatever the previous stream was doing.
type Session struct {
	api    RecipeAPI
	logger *zap.Logger
	cb     Callbacks

	submitMu sync.Mutex

	mu     sync.Mutex
	gen    int
	state  State
	text   string
	view   recipe.View
	err    error
	image  string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession creates an idle session.
func NewSession(api RecipeAPI, logger *zap.Logger, cb Callbacks) *Session {
	return &Session{api: api, logger: logger, cb: cb}
}

// Submit validates req and starts streaming its recipe. A validation failure
// is returned without contacting the server and leaves the session untouched.
func (s *Session) Submit(ctx context.Context, req recipe.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	s.stop()

	streamCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = StateStreaming
	s.text = ""
	s.view = recipe.View{}
	s.err = nil
	s.image = ""
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.run(streamCtx, gen, req, done)
	return nil
}

// Wait blocks until the current stream, including its illustration, is finished.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close cancels the current stream and waits for it to drain.
func (s *Session) Close() {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()
	s.stop()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{State: s.state, Text: s.text, View: s.view, Err: s.err, Image: s.image}
}

func (s *Session) stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Session) run(ctx context.Context, gen int, req recipe.Request, done chan struct{}) {
	defer close(done)

	err := s.api.StreamRecipe(ctx, req, func(e stream.Event) error {
		return s.handle(gen, e)
	})
	if err != nil && ctx.Err() == nil && !errors.Is(err, errStale) {
		s.fail(gen, err)
		return
	}

	s.mu.Lock()
	rendered := gen == s.gen && s.state == StateRendered
	title := s.view.Title
	s.mu.Unlock()
	if rendered && title != "" && ctx.Err() == nil {
		s.illustrate(ctx, gen, title)
	}
}

func (s *Session) handle(gen int, e stream.Event) error {
	s.mu.Lock()
	if gen != s.gen || s.state != StateStreaming {
		s.mu.Unlock()
		return errStale
	}

	switch e.Kind {
	case stream.KindChunk:
		s.text += e.Chunk
		s.view = recipe.Render(s.text)
		view := s.view
		s.mu.Unlock()
		if s.cb.OnUpdate != nil {
			s.cb.OnUpdate(view)
		}
	case stream.KindClose:
		s.view = recipe.RenderFinal(s.text)
		s.state = StateRendered
		view := s.view
		s.mu.Unlock()
		if s.cb.OnRendered != nil {
			s.cb.OnRendered(view)
		}
	case stream.KindError:
		s.mu.Unlock()
		s.fail(gen, &StreamError{Message: e.Message})
	default:
		s.mu.Unlock()
		s.logger.Debug("Ignoring unknown stream event", zap.String("action", string(e.Kind)))
	}
	return nil
}

func (s *Session) fail(gen int, err error) {
	s.mu.Lock()
	if gen != s.gen || s.state != StateStreaming {
		s.mu.Unlock()
		return
	}
	s.state = StateFailed
	s.err = err
	s.mu.Unlock()

	if s.cb.OnError != nil {
		s.cb.OnError(err)
	}
}

func (s *Session) illustrate(ctx context.Context, gen int, title string) {
	image, err := s.api.GenerateImage(ctx, title)
	if err != nil {
		s.logger.Warn("Illustration unavailable", zap.String("recipe", title), zap.Error(err))
		return
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.image = image
	s.mu.Unlock()

	if s.cb.OnIllustration != nil {
		s.cb.OnIllustration(image)
	}
}
