package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/navigate"
)

// dispatchTimeout bounds how long an intent request waits for the session
// to settle.
const dispatchTimeout = 60 * time.Second

// DefaultSessionTTL is how long a session may sit unused before it is
// expired.
const DefaultSessionTTL = 30 * time.Minute

type session struct {
	id       string
	created  time.Time
	lastUsed time.Time // guarded by sessionStore.mu
	runner   *navigate.Runner
	stop     context.CancelFunc
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*session),
		ttl:      DefaultSessionTTL,
		now:      time.Now,
	}
}

func (st *sessionStore) add(s *session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s.lastUsed = st.now()
	st.sessions[s.id] = s
}

// get returns the session and marks it used.
func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if ok {
		s.lastUsed = st.now()
	}
	return s, ok
}

// expire removes and returns the sessions unused for longer than the TTL.
// A non-positive TTL keeps every session.
func (st *sessionStore) expire() []*session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.ttl <= 0 {
		return nil
	}
	cutoff := st.now().Add(-st.ttl)
	var expired []*session
	for id, s := range st.sessions {
		if s.lastUsed.Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	return expired
}

func (st *sessionStore) remove(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	return s, ok
}

func (st *sessionStore) closeAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*session)
	st.mu.Unlock()

	for _, s := range sessions {
		s.stop()
		<-s.runner.Done()
	}
}

// SetSessionTTL sets how long a session may go unused before
// ExpireSessions stops it. Zero or less disables expiry.
func (s *Server) SetSessionTTL(ttl time.Duration) {
	s.sessions.mu.Lock()
	defer s.sessions.mu.Unlock()
	s.sessions.ttl = ttl
}

// ExpireSessions stops every idle session and returns how many were stopped.
func (s *Server) ExpireSessions() int {
	expired := s.sessions.expire()
	for _, sess := range expired {
		sess.stop()
		<-sess.runner.Done()
		s.logger.Info("session expired", zap.String("session", sess.id))
	}
	return len(expired)
}

// ExpireIdle calls ExpireSessions every interval until ctx is canceled.
func (s *Server) ExpireIdle(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ExpireSessions()
		}
	}
}

// sessionResponse wraps a session snapshot with its id.
type sessionResponse struct {
	ID      string           `json:"id"`
	Created time.Time        `json:"created"`
	Session navigate.Session `json:"session"`
}

func (s *Server) createSession(c *gin.Context) {
	m := navigate.New(s.svc, s.opts)
	m.SetLogger(s.logger)
	runner := navigate.NewRunner(m)

	ctx, stop := context.WithCancel(context.Background())
	sess := &session{id: uuid.NewString(), created: time.Now().UTC(), runner: runner, stop: stop}
	go runner.Run(ctx)
	s.sessions.add(sess)
	s.logger.Info("session created", zap.String("session", sess.id))

	// Wait for the initial loads so the caller sees assemblies and
	// chromosomes.
	snap, err := s.dispatch(c, sess, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{ID: sess.id, Created: sess.created, Session: snap})
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.sessions.get(c.Param("id"))
	if !ok {
		writeError(c, newNotFoundError("session "+c.Param("id"), errors.New("no such session")))
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: sess.id, Created: sess.created, Session: sess.runner.Snapshot()})
}

func (s *Server) deleteSession(c *gin.Context) {
	sess, ok := s.sessions.remove(c.Param("id"))
	if !ok {
		writeError(c, newNotFoundError("session "+c.Param("id"), errors.New("no such session")))
		return
	}
	sess.stop()
	<-sess.runner.Done()
	s.logger.Info("session closed", zap.String("session", sess.id))
	c.Status(http.StatusNoContent)
}

// intentRequest is the body of POST /sessions/:id/intents. Type selects the
// intent; the other fields are read as the intent needs them.
type intentRequest struct {
	Type  string              `json:"type" binding:"required"`
	ID    string              `json:"id"`
	Mode  navigate.Mode       `json:"mode"`
	Text  string              `json:"text"`
	Name  string              `json:"name"`
	Gene  *genome.GeneSummary `json:"gene"`
	Chrom string              `json:"chrom"`
	Start *int64              `json:"start"`
	End   *int64              `json:"end"`
}

func (r intentRequest) msg() (navigate.Msg, error) {
	switch r.Type {
	case "loadAssemblies":
		return navigate.LoadAssemblies{}, nil
	case "selectAssembly":
		return navigate.SelectAssembly{ID: r.ID}, nil
	case "switchMode":
		if !r.Mode.Valid() {
			return nil, fmt.Errorf("unknown mode %q", r.Mode)
		}
		return navigate.SwitchMode{Mode: r.Mode}, nil
	case "setQuery":
		return navigate.SetQuery{Text: r.Text}, nil
	case "submitSearch":
		return navigate.SubmitSearch{}, nil
	case "search":
		return navigate.SetQuery{Text: r.Text}, nil
	case "loadExample":
		return navigate.LoadExample{}, nil
	case "selectChromosome":
		return navigate.SelectChromosome{Name: r.Name}, nil
	case "selectGene":
		if r.Gene == nil && r.ID == "" {
			return nil, errors.New("gene or id is required")
		}
		g := genome.GeneSummary{ID: r.ID}
		if r.Gene != nil {
			g = *r.Gene
		}
		return navigate.SelectGene{Gene: g}, nil
	case "requestRange":
		if r.Start == nil || r.End == nil {
			return nil, errors.New("start and end are required")
		}
		return navigate.RequestRange{Chrom: r.Chrom, Start: *r.Start, End: *r.End}, nil
	}
	return nil, fmt.Errorf("unknown intent type %q", r.Type)
}

func (s *Server) postIntent(c *gin.Context) {
	sess, ok := s.sessions.get(c.Param("id"))
	if !ok {
		writeError(c, newNotFoundError("session "+c.Param("id"), errors.New("no such session")))
		return
	}

	var req intentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, newInvalidInputError("parsing intent", err))
		return
	}
	msg, err := req.msg()
	if err != nil {
		writeError(c, newInvalidInputError("parsing intent", err))
		return
	}

	// "search" is shorthand for setQuery followed by submitSearch.
	if req.Type == "search" {
		if _, err := s.dispatch(c, sess, msg); err != nil {
			writeError(c, err)
			return
		}
		msg = navigate.SubmitSearch{}
	}

	snap, err := s.dispatch(c, sess, msg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: sess.id, Created: sess.created, Session: snap})
}

// dispatch sends msg, or nothing when msg is nil, and waits for the session
// to settle.
func (s *Server) dispatch(c *gin.Context, sess *session, msg navigate.Msg) (navigate.Session, error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), dispatchTimeout)
	defer cancel()

	snap, err := sess.runner.Dispatch(ctx, msg)
	if errors.Is(err, navigate.ErrStopped) {
		return navigate.Session{}, newNotFoundError("session "+sess.id, err)
	}
	return snap, err
}
