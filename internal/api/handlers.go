package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"doclens/internal/artifact"
	"doclens/internal/audio"
	"doclens/internal/extractor"
	"doclens/internal/ingest"
	"doclens/internal/mindmap"
	"doclens/internal/models"
	"doclens/internal/rag"
	"doclens/internal/retrieval"
	"doclens/internal/store"
	"doclens/pkg/logger"
)

// API provides the HTTP handlers of the core service.
type API struct {
	ingester     *ingest.Ingester
	extractor    *extractor.Extractor
	engine       *retrieval.Engine
	orchestrator *rag.Orchestrator
	summarizer   *rag.Summarizer
	mindmaps     *mindmap.Service
	audio        *audio.Pipeline
	artifacts    *artifact.Store
	sections     store.SectionStore
	logger       *logger.Logger
}

// NewAPI creates a new API handler.
func NewAPI(
	ingester *ingest.Ingester,
	ex *extractor.Extractor,
	engine *retrieval.Engine,
	orchestrator *rag.Orchestrator,
	summarizer *rag.Summarizer,
	mindmaps *mindmap.Service,
	audioPipeline *audio.Pipeline,
	artifacts *artifact.Store,
	sections store.SectionStore,
	log *logger.Logger,
) *API {
	return &API{
		ingester:     ingester,
		extractor:    ex,
		engine:       engine,
		orchestrator: orchestrator,
		summarizer:   summarizer,
		mindmaps:     mindmaps,
		audio:        audioPipeline,
		artifacts:    artifacts,
		sections:     sections,
		logger:       log,
	}
}

// UploadHandler ingests one or more PDF files from a multipart form. Each
// file succeeds or fails on its own.
func (a *API) UploadHandler(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}

	clusterID := c.PostForm("cluster_id")
	var files []ingest.File
	for _, upload := range uploads {
		f, err := upload.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload " + upload.Filename})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload " + upload.Filename})
			return
		}
		files = append(files, ingest.File{
			Filename:  upload.Filename,
			Data:      data,
			ClusterID: clusterID,
		})
	}

	results := a.ingester.IngestBatch(c.Request.Context(), files)

	type fileResult struct {
		Filename string           `json:"filename"`
		Document *models.Document `json:"document,omitempty"`
		Error    string           `json:"error,omitempty"`
	}
	out := make([]fileResult, len(results))
	failed := 0
	for i, res := range results {
		out[i] = fileResult{Filename: res.Filename, Document: res.Document}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
			failed++
		}
	}

	status := http.StatusCreated
	if failed == len(results) {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"results": out, "failed": failed})
}

// ListDocumentsHandler returns all documents, optionally filtered by cluster.
func (a *API) ListDocumentsHandler(c *gin.Context) {
	var (
		docs []*models.Document
		err  error
	)
	if clusterID := c.Query("cluster_id"); clusterID != "" {
		docs, err = a.sections.DocumentsByCluster(c.Request.Context(), clusterID)
	} else {
		docs, err = a.sections.Documents(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// GetDocumentHandler returns one document record.
func (a *API) GetDocumentHandler(c *gin.Context) {
	doc, err := a.sections.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load document"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// GetSectionsHandler returns the ordered sections of one document.
func (a *API) GetSectionsHandler(c *gin.Context) {
	sections, err := a.sections.Sections(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sections"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections})
}

// DeleteDocumentHandler removes a document from the store and the index.
func (a *API) DeleteDocumentHandler(c *gin.Context) {
	err := a.ingester.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// SearchHandler runs a similarity search over the indexed sections.
func (a *API) SearchHandler(c *gin.Context) {
	var payload struct {
		Query       string   `json:"query"`
		TopK        int      `json:"top_k"`
		DocumentIDs []string `json:"document_ids"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	snippets, err := a.engine.Search(c.Request.Context(), payload.Query, payload.TopK, payload.DocumentIDs...)
	if err != nil {
		a.logger.WithError(err).Error("Search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	if snippets == nil {
		snippets = []models.Snippet{}
	}
	c.JSON(http.StatusOK, gin.H{"snippets": snippets})
}

// ChatHandler answers a question grounded in the indexed documents.
func (a *API) ChatHandler(c *gin.Context) {
	var payload struct {
		Query       string   `json:"query"`
		DocumentIDs []string `json:"document_ids"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || strings.TrimSpace(payload.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	answer, cited, err := a.orchestrator.Answer(c.Request.Context(), payload.Query, payload.DocumentIDs...)
	if err != nil {
		a.logger.WithError(err).Error("Chat generation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Generation failed"})
		return
	}
	if cited == nil {
		cited = []models.Snippet{}
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer, "citations": cited})
}

// InsightsHandler analyzes a passage against the corpus.
func (a *API) InsightsHandler(c *gin.Context) {
	var payload struct {
		Text        string   `json:"text"`
		DocumentIDs []string `json:"document_ids"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if len(strings.TrimSpace(payload.Text)) < 20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text too short to analyze, need at least 20 characters"})
		return
	}

	bundle, err := a.orchestrator.Insights(c.Request.Context(), payload.Text, payload.DocumentIDs...)
	if err != nil {
		a.logger.WithError(err).Error("Insight generation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Generation failed"})
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// MindmapHandler builds a mindmap for one document.
func (a *API) MindmapHandler(c *gin.Context) {
	var payload struct {
		DocumentID string `json:"document_id"`
		Text       string `json:"text"`  // raw-text alternative to document_id
		Title      string `json:"title"` // used with raw text
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	m, status, errMsg := a.buildMindmap(c, payload.DocumentID, payload.Text, payload.Title)
	if m == nil {
		c.JSON(status, gin.H{"error": errMsg})
		return
	}
	c.JSON(http.StatusOK, m)
}

// DownloadMindmapHandler serves the serialized mindmap of a document in the
// requested format.
func (a *API) DownloadMindmapHandler(c *gin.Context) {
	m, status, errMsg := a.buildMindmap(c, c.Param("id"), "", "")
	if m == nil {
		c.JSON(status, gin.H{"error": errMsg})
		return
	}

	switch c.DefaultQuery("format", "freemind") {
	case "freemind":
		c.Header("Content-Disposition", `attachment; filename="mindmap.mm"`)
		c.Data(http.StatusOK, "application/xml", []byte(m.FreeMind))
	case "mermaid":
		c.Header("Content-Disposition", `attachment; filename="mindmap.mmd"`)
		c.Data(http.StatusOK, "text/plain", []byte(m.Mermaid))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown format, want freemind or mermaid"})
	}
}

func (a *API) buildMindmap(c *gin.Context, documentID, text, title string) (*models.Mindmap, int, string) {
	if documentID != "" {
		doc, err := a.sections.Document(c.Request.Context(), documentID)
		if err != nil {
			if errors.Is(err, models.ErrDocumentNotFound) {
				return nil, http.StatusNotFound, "Document not found"
			}
			return nil, http.StatusInternalServerError, "Failed to load document"
		}
		sections, err := a.sections.Sections(c.Request.Context(), documentID)
		if err != nil {
			return nil, http.StatusInternalServerError, "Failed to load sections"
		}
		return a.mindmaps.Build(doc.Filename, sections), 0, ""
	}

	if strings.TrimSpace(text) == "" {
		return nil, http.StatusBadRequest, "Provide document_id or text"
	}
	if title == "" {
		title = "Document"
	}
	sections := a.extractor.ExtractText(text, title)
	if len(sections) == 0 {
		return nil, http.StatusBadRequest, "No sections recoverable from text"
	}
	return a.mindmaps.Build(title, sections), 0, ""
}

// PodcastHandler generates (or reuses) an audio artifact. The source is
// either a whole document (summarized first) or a selected text passage:
// summary -> insights -> script -> synthesis.
func (a *API) PodcastHandler(c *gin.Context) {
	var payload struct {
		DocumentID string              `json:"document_id"`
		Text       string              `json:"text"` // selected-text alternative
		Size       string              `json:"size"` // small | medium | large
		Voices     *models.VoiceConfig `json:"voices"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	ctx := c.Request.Context()
	size := rag.SummarySize(payload.Size)
	if size == "" {
		size = rag.SizeMedium
	}

	var (
		title   string
		summary string
		scope   []string
	)
	switch {
	case payload.DocumentID != "":
		doc, err := a.sections.Document(ctx, payload.DocumentID)
		if err != nil {
			if errors.Is(err, models.ErrDocumentNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load document"})
			return
		}
		sections, err := a.sections.Sections(ctx, payload.DocumentID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sections"})
			return
		}
		title = doc.Filename
		summary = a.summarizer.Summarize(sections, size)
		scope = []string{doc.ID}
	case strings.TrimSpace(payload.Text) != "":
		// A selected passage is discussed as-is, condensed only when long.
		title = "Selected text"
		summary = payload.Text
		if sections := a.extractor.ExtractText(payload.Text, title); len(sections) > 0 {
			if condensed := a.summarizer.Summarize(sections, size); condensed != "" {
				summary = condensed
			}
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide document_id or text"})
		return
	}
	if summary == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Nothing summarizable to narrate"})
		return
	}

	insights, err := a.orchestrator.Insights(ctx, summary, scope...)
	if err != nil {
		a.logger.WithError(err).Warn("Insight generation failed, continuing without insights")
		insights = models.InsightBundle{}
	}

	script, err := a.orchestrator.Script(ctx, rag.ScriptInput{
		Title:    title,
		Summary:  summary,
		Insights: insights,
	})
	if err != nil {
		a.logger.WithError(err).Error("Script generation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Script generation failed"})
		return
	}

	voices := models.DefaultVoiceConfig()
	if payload.Voices != nil {
		voices = *payload.Voices
	}
	art, err := a.audio.Synthesize(ctx, script, voices)
	if err != nil {
		var partial *models.PartialSynthesisError
		if errors.As(err, &partial) {
			c.JSON(http.StatusBadGateway, gin.H{"error": partial.Error()})
			return
		}
		a.logger.WithError(err).Error("Audio synthesis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Audio synthesis failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"artifact": art, "script": script})
}

// PodcastAudioHandler streams the WAV bytes of a generated artifact.
func (a *API) PodcastAudioHandler(c *gin.Context) {
	art, err := a.artifacts.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrArtifactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Artifact not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load artifact"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="podcast.wav"`)
	c.Data(http.StatusOK, "audio/wav", art.Data)
}
