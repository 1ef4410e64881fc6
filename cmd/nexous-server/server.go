// Package main implements nexous-server, a thin HTTP façade in front of
// internal/runner (spec §6A). It carries no engine logic of its own:
// POST /v1/runs decodes a ProjectSpec-shaped body, writes it to a
// temporary YAML file, and calls straight into the Runner; GET
// /v1/runs/:project/:run reads trace.json back. Grounded on tarsy's
// pkg/api/handlers.go (gin.Context request/response idiom).
package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"github.com/nexous-ai/nexous/internal/project"
	"github.com/nexous-ai/nexous/internal/provider"
	"github.com/nexous-ai/nexous/internal/runner"
	"github.com/nexous-ai/nexous/internal/runstore"
	"github.com/nexous-ai/nexous/internal/telemetry"
	"github.com/nexous-ai/nexous/internal/tools"
	"github.com/nexous-ai/nexous/internal/trace"
)

// Server is the HTTP façade over one Runner.
type Server struct {
	engine   *gin.Engine
	runner   *runner.Runner
	traceDir string
	runStore *runstore.Store
}

// NewServer constructs a Server whose Runner is wired from env-derived
// provider credentials, the same precedence cmd/nexous's `run` uses.
// runStore may be nil, disabling GET /v1/projects/:project/runs.
func NewServer(traceDir, presetDir, baseDir string, registry *provider.Registry, runStore *runstore.Store) *Server {
	s := &Server{
		traceDir: traceDir,
		runStore: runStore,
		runner: runner.New(runner.Options{
			TraceDir:         traceDir,
			PresetDir:        presetDir,
			ProviderRegistry: registry,
			ToolRegistry:     tools.NewRegistry(baseDir, "python3"),
			Telemetry:        telemetry.Telemetry{Logger: telemetry.NewClueLogger(), Metrics: telemetry.NewClueMetrics(), Tracer: telemetry.NewClueTracer()},
			RunStore:         runStore,
		}),
	}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)
	v1 := s.engine.Group("/v1")
	v1.POST("/runs", s.createRunHandler)
	v1.GET("/runs/:project/:run", s.getRunHandler)
	v1.GET("/projects/:project/runs", s.listRunsHandler)
}

// Start runs the HTTP server on addr, blocking until it exits.
func (s *Server) Start(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// createRunRequest is the POST /v1/runs body: a ProjectSpec plus the
// two run-time fields cmd/nexous's `run` takes as flags.
type createRunRequest struct {
	project.ProjectSpec
	RunID  string `json:"run_id"`
	UseLLM bool   `json:"use_llm"`
}

// createRunHandler handles POST /v1/runs.
func (s *Server) createRunHandler(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tmp, err := os.CreateTemp("", "nexous-server-*.yaml")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer os.Remove(tmp.Name())
	data, err := yaml.Marshal(req.ProjectSpec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := tmp.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	tracePath, err := s.runner.Run(c.Request.Context(), tmp.Name(), req.RunID, req.UseLLM)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "trace_path": tracePath})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trace_path": tracePath})
}

// getRunHandler handles GET /v1/runs/:project/:run, reading trace.json
// back from disk.
func (s *Server) getRunHandler(c *gin.Context) {
	path := trace.CanonicalPath(s.traceDir, c.Param("project"), c.Param("run"))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trace not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// listRunsHandler handles GET /v1/projects/:project/runs, listing durably
// indexed runs for a project. Returns 501 when no run index is configured.
func (s *Server) listRunsHandler(c *gin.Context) {
	if s.runStore == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "run index not configured"})
		return
	}
	runs, err := s.runStore.ListByProject(c.Request.Context(), c.Param("project"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
