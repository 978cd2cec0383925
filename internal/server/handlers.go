package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/review-sentiment/internal/analysis"
	"github.com/ZanzyTHEbar/review-sentiment/internal/classifier"
	"github.com/ZanzyTHEbar/review-sentiment/internal/database"
	apperrors "github.com/ZanzyTHEbar/review-sentiment/internal/errors"
	"github.com/ZanzyTHEbar/review-sentiment/internal/security"
	"github.com/ZanzyTHEbar/review-sentiment/internal/service"
	"github.com/ZanzyTHEbar/review-sentiment/internal/types"
)

const (
	defaultHistoryLimit = 20
	sourceAPI           = "api"
)

// fail hands err to the error middleware as an AppError
func fail(c *gin.Context, err error) {
	_ = c.Error(toAppError(err))
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, service.ErrNotTrained):
		return apperrors.NewModelNotReadyError("No sentiment model is loaded; train one first", err)
	case errors.Is(err, classifier.ErrEmptyDataset),
		errors.Is(err, classifier.ErrSingleLabel),
		errors.Is(err, classifier.ErrEmptyVocabulary):
		return apperrors.NewValidationError("Training corpus is not usable", err.Error())
	case errors.Is(err, analysis.ErrInvalidLabel),
		errors.Is(err, analysis.ErrInvalidScore),
		errors.Is(err, database.ErrEmptyReview),
		errors.Is(err, security.ErrEmptyText),
		errors.Is(err, security.ErrTextTooLong),
		errors.Is(err, security.ErrInvalidText),
		errors.Is(err, security.ErrInvalidUTF8),
		errors.Is(err, security.ErrEmptyBatch),
		errors.Is(err, security.ErrBatchTooLarge):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.ToAppError(err)
	case database.IsTransient(err):
		return apperrors.NewStorageError("Corpus database is busy", err)
	default:
		return apperrors.ToAppError(err)
	}
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return false
	}
	return true
}

// handleHealth reports liveness and the served model
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} types.HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(c *gin.Context) {
	status := s.opts.Service.Holder().Status()
	c.JSON(http.StatusOK, types.HealthResponse{
		Status:       "ok",
		Version:      Version,
		Model:        status.Model,
		ModelTrained: status.Trained,
	})
}

// handleAnalyze runs the full hybrid pipeline on one review
// @Summary Analyze a review
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body types.AnalyzeRequest true "Review text"
// @Success 200 {object} service.AnalysisResult
// @Failure 400 {object} apperrors.AppError
// @Failure 503 {object} apperrors.AppError
// @Router /api/v1/analyze [post]
func (s *Server) handleAnalyze(c *gin.Context) {
	var req types.AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	text := s.opts.Security.SanitizeText(req.Text)
	if err := s.opts.Security.ValidateText(text); err != nil {
		fail(c, err)
		return
	}

	result, err := s.opts.Service.Analyze(c.Request.Context(), text)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleBatchAnalyze analyzes several reviews at once
// @Summary Analyze a batch of reviews
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body types.BatchAnalyzeRequest true "Review texts"
// @Success 200 {object} service.BatchResult
// @Failure 400 {object} apperrors.AppError
// @Router /api/v1/analyze/batch [post]
func (s *Server) handleBatchAnalyze(c *gin.Context) {
	var req types.BatchAnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	texts := make([]string, len(req.Texts))
	for i, t := range req.Texts {
		texts[i] = s.opts.Security.SanitizeText(t)
	}
	if err := s.opts.Security.ValidateBatch(texts); err != nil {
		fail(c, err)
		return
	}

	batch, err := s.opts.Service.BatchAnalyze(c.Request.Context(), texts)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

// handleScoreAspects runs the rule engine only
// @Summary Score product aspects
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body types.AnalyzeRequest true "Review text"
// @Success 200 {object} types.AspectScoresResponse
// @Router /api/v1/aspects [post]
func (s *Server) handleScoreAspects(c *gin.Context) {
	var req types.AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	text := s.opts.Security.SanitizeText(req.Text)
	if err := s.opts.Security.ValidateText(text); err != nil {
		fail(c, err)
		return
	}

	aspects, overall := s.opts.Service.ScoreAspects(text)
	c.JSON(http.StatusOK, types.AspectScoresResponse{Aspects: aspects, OverallScore: overall})
}

// @Summary List configured aspects
// @Tags analysis
// @Produce json
// @Success 200 {object} types.AspectsResponse
// @Router /api/v1/aspects [get]
func (s *Server) handleListAspects(c *gin.Context) {
	aspects := s.opts.Service.Aspects()

	resp := types.AspectsResponse{Aspects: make([]types.AspectInfo, len(aspects))}
	for i, a := range aspects {
		resp.Aspects[i] = types.AspectInfo{Name: a.Name, Keywords: a.Keywords}
	}
	c.JSON(http.StatusOK, resp)
}

// handleReconcile applies the override policy to an external prediction
// @Summary Reconcile an ML prediction with a rule score
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body types.ReconcileRequest true "Prediction and rule score"
// @Success 200 {object} analysis.Reconciliation
// @Failure 400 {object} apperrors.AppError
// @Router /api/v1/reconcile [post]
func (s *Server) handleReconcile(c *gin.Context) {
	var req types.ReconcileRequest
	if !bindJSON(c, &req) {
		return
	}

	label, err := analysis.ParseLabel(string(req.MLLabel))
	if err != nil {
		fail(c, err)
		return
	}

	probs := analysis.Probabilities{}
	for l, p := range req.MLProbabilities {
		parsed, err := analysis.ParseLabel(string(l))
		if err != nil {
			fail(c, err)
			return
		}
		probs[parsed] = p
	}

	rec, err := s.opts.Service.Reconcile(label, probs, *req.RuleScore)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// @Summary Recent analyses, newest first
// @Tags analysis
// @Produce json
// @Param limit query int false "Maximum entries" default(20)
// @Success 200 {array} service.AnalysisResult
// @Router /api/v1/history [get]
func (s *Server) handleHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fail(c, apperrors.NewValidationError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, gin.H{"history": s.opts.Service.History(limit)})
}

// handleAddReviews stores labeled training reviews
// @Summary Add labeled training reviews
// @Tags corpus
// @Accept json
// @Produce json
// @Param request body types.AddReviewsRequest true "Labeled reviews"
// @Success 201 {object} types.AddReviewsResponse
// @Failure 400 {object} apperrors.AppError
// @Router /api/v1/reviews [post]
func (s *Server) handleAddReviews(c *gin.Context) {
	var req types.AddReviewsRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.Reviews) > s.opts.Security.Config().MaxBatchSize {
		fail(c, security.ErrBatchTooLarge)
		return
	}

	fieldErrors := map[string]string{}
	examples := make([]classifier.Example, 0, len(req.Reviews))
	for i, rv := range req.Reviews {
		field := "reviews[" + strconv.Itoa(i) + "]"

		text := s.opts.Security.SanitizeText(rv.Text)
		if err := s.opts.Security.ValidateText(text); err != nil {
			fieldErrors[field+".text"] = err.Error()
			continue
		}
		label, err := analysis.ParseLabel(string(rv.Label))
		if err != nil {
			fieldErrors[field+".label"] = err.Error()
			continue
		}
		examples = append(examples, classifier.Example{Text: text, Label: label})
	}
	if len(fieldErrors) > 0 {
		fail(c, apperrors.NewValidationErrorWithMap(fieldErrors))
		return
	}

	source := req.Source
	if source == "" {
		source = sourceAPI
	}

	ctx := c.Request.Context()
	added, err := s.opts.Corpus.AddExamples(ctx, examples, source)
	if err != nil {
		fail(c, err)
		return
	}
	total, err := s.opts.Corpus.Repository().Count(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.AddReviewsResponse{Added: added, Total: total})
}

// @Summary Training corpus statistics
// @Tags corpus
// @Produce json
// @Success 200 {object} database.CorpusStats
// @Router /api/v1/reviews/stats [get]
func (s *Server) handleCorpusStats(c *gin.Context) {
	stats, err := s.opts.Corpus.Repository().Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// handleTrain retrains on the stored corpus and swaps the model in
// @Summary Train the sentiment model
// @Tags model
// @Produce json
// @Success 200 {object} service.ModelStatus
// @Failure 400 {object} apperrors.AppError
// @Failure 429 {object} apperrors.AppError
// @Router /api/v1/model/train [post]
func (s *Server) handleTrain(c *gin.Context) {
	if _, err := s.opts.Service.Holder().Train(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.opts.Service.Holder().Status())
}

// @Summary Served model status
// @Tags model
// @Produce json
// @Success 200 {object} service.ModelStatus
// @Router /api/v1/model [get]
func (s *Server) handleModelStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.opts.Service.Holder().Status())
}

// handleStats exposes the JSON counters alongside cache, limiter and pool state
func (s *Server) handleStats(c *gin.Context) {
	stats := gin.H{
		"metrics":     s.opts.Metrics.GetStats(),
		"model":       s.opts.Service.Holder().Status(),
		"history":     len(s.opts.Service.History(0)),
		"compression": s.opts.Compression.GetStats(),
	}
	if s.opts.Cache != nil {
		stats["cache"] = s.opts.Cache.Stats()
	}
	if s.opts.Limiter != nil {
		stats["rate_limit"] = s.opts.Limiter.GetStats()
	}
	if s.opts.DB != nil {
		stats["database"] = s.opts.DB.GetPoolStats()
	}
	c.JSON(http.StatusOK, stats)
}
