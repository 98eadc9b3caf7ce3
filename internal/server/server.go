// Package server exposes genome navigation over a JSON HTTP API: stateless
// lookups against the genome services and navigation sessions driven by
// intents.
package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/interval"
	"github.com/inodb/genome-nav/internal/navigate"
)

// Server serves the HTTP API.
type Server struct {
	svc      genome.Service
	opts     navigate.Options
	sessions *sessionStore
	logger   *zap.Logger
}

// New creates a server backed by svc. opts configures new sessions.
func New(svc genome.Service, opts navigate.Options) *Server {
	return &Server{
		svc:      svc,
		opts:     opts,
		sessions: newSessionStore(),
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for requests and sessions.
func (s *Server) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Close stops every session.
func (s *Server) Close() {
	s.sessions.closeAll()
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)

	r.GET("/assemblies", s.listAssemblies)
	r.GET("/assemblies/:id/chromosomes", s.listChromosomes)
	r.GET("/genes", s.searchGenes)
	r.GET("/genes/:id", s.geneDetails)
	r.GET("/sequence", s.sequence)

	r.POST("/sessions", s.createSession)
	r.GET("/sessions/:id", s.getSession)
	r.POST("/sessions/:id/intents", s.postIntent)
	r.DELETE("/sessions/:id", s.deleteSession)
	return r
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("elapsed", time.Since(start)))
}

func (s *Server) listAssemblies(c *gin.Context) {
	groups, err := s.svc.ListAssemblies(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if organism := c.Query("organism"); organism != "" {
		c.JSON(http.StatusOK, gin.H{"organism": organism, "assemblies": nonNil(groups[organism])})
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (s *Server) listChromosomes(c *gin.Context) {
	id := c.Param("id")
	chroms, err := s.svc.ListChromosomes(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assembly": id, "chromosomes": nonNil(chroms)})
}

func (s *Server) searchGenes(c *gin.Context) {
	q := c.Query("q")
	genes, err := s.svc.SearchGenes(c.Request.Context(), q, c.DefaultQuery("genome", s.defaultAssembly()))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "genes": nonNil(genes)})
}

func (s *Server) geneDetails(c *gin.Context) {
	rec, err := s.svc.FetchGeneDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// sequenceResponse is the body of GET /sequence.
type sequenceResponse struct {
	Assembly   string         `json:"assembly"`
	Chrom      string         `json:"chrom"`
	Requested  interval.Range `json:"requested"`
	Effective  interval.Range `json:"effective"`
	WasClamped bool           `json:"wasClamped"`
	Sequence   string         `json:"sequence"`
	Warning    string         `json:"warning,omitempty"`
}

// sequence fetches a range the way a user-edited range is fetched: it is
// validated and clamped against the chromosome size before any request.
func (s *Server) sequence(c *gin.Context) {
	ctx := c.Request.Context()
	assembly := c.DefaultQuery("genome", s.defaultAssembly())
	chrom := genome.NormalizeChrom(c.Query("chrom"))
	if chrom == "" {
		writeError(c, newInvalidInputError("parsing chrom", errors.New("missing")))
		return
	}
	requested, err := parseRange(c.Query("start"), c.Query("end"))
	if err != nil {
		writeError(c, err)
		return
	}

	chroms, err := s.svc.ListChromosomes(ctx, assembly)
	if err != nil {
		writeError(c, err)
		return
	}
	known, ok := genome.FindChromosome(chroms, chrom)
	if !ok {
		writeError(c, newNotFoundError("chromosome "+chrom, errors.New("not in assembly "+assembly)))
		return
	}
	res, err := interval.Clamp(requested, interval.Size(known.Size))
	if err != nil {
		writeError(c, err)
		return
	}

	seq, err := s.svc.FetchGeneSequence(ctx, chrom, res.Effective, assembly)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sequenceResponse{
		Assembly:   assembly,
		Chrom:      chrom,
		Requested:  requested,
		Effective:  seq.Actual,
		WasClamped: res.WasClamped,
		Sequence:   seq.Sequence,
		Warning:    seq.Error,
	})
}

func parseRange(start, end string) (interval.Range, error) {
	var r interval.Range
	var err error
	if r.Start, err = strconv.ParseInt(strings.TrimSpace(start), 10, 64); err != nil {
		return r, newInvalidInputError("parsing start", err)
	}
	if r.End, err = strconv.ParseInt(strings.TrimSpace(end), 10, 64); err != nil {
		return r, newInvalidInputError("parsing end", err)
	}
	return r, nil
}

func (s *Server) defaultAssembly() string {
	if s.opts.DefaultAssembly != "" {
		return s.opts.DefaultAssembly
	}
	return navigate.DefaultAssembly
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
