package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pbrown/agent-transcripts/internal/transcript"
)

type handler struct {
	src Source
}

// ListPhases handles GET /api/phases
func (h *handler) ListPhases(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"phases": h.src.Phases()})
}

// ListTranscripts handles GET /api/transcripts
func (h *handler) ListTranscripts(c *gin.Context) {
	c.JSON(http.StatusOK, h.src.LoadAll())
}

// GetTranscript handles GET /api/transcripts/:phase/:tool
func (h *handler) GetTranscript(c *gin.Context) {
	tool, ok := toolParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.src.LoadTranscript(c.Param("phase"), tool))
}

// GetAnnotations handles GET /api/annotations/:phase
func (h *handler) GetAnnotations(c *gin.Context) {
	c.JSON(http.StatusOK, h.src.LoadAnnotations(c.Param("phase")))
}

// GetPlans handles GET /api/plans
func (h *handler) GetPlans(c *gin.Context) {
	c.JSON(http.StatusOK, h.src.LoadPlans())
}

// GetPhase handles GET /api/phases/:phase
func (h *handler) GetPhase(c *gin.Context) {
	c.JSON(http.StatusOK, h.src.LoadPhase(c.Param("phase")))
}

type viewResponse struct {
	Phase string               `json:"phase"`
	Tool  string               `json:"tool"`
	Model string               `json:"model,omitempty"`
	Rows  []transcript.ViewRow `json:"rows"`
}

// GetView handles GET /api/phases/:phase/:tool/view?thinking=1&tools=1
func (h *handler) GetView(c *gin.Context) {
	tool, ok := toolParam(c)
	if !ok {
		return
	}

	phase := c.Param("phase")
	bundle := h.src.LoadPhase(phase)
	t := bundle.Transcript(tool)
	filter := transcript.Filter{
		ShowThinking:  queryFlag(c, "thinking"),
		ShowToolCalls: queryFlag(c, "tools"),
	}

	c.JSON(http.StatusOK, viewResponse{
		Phase: phase,
		Tool:  t.Tool,
		Model: t.Model,
		Rows:  transcript.BuildView(t, tool, bundle.Annotations, filter),
	})
}

func toolParam(c *gin.Context) (transcript.Tool, bool) {
	tool, err := transcript.ParseTool(c.Param("tool"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return tool, true
}

func queryFlag(c *gin.Context, name string) bool {
	switch c.Query(name) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
