package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/intake"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/matching"
	"github.com/spigell/resume-screener/internal/resume"
	"github.com/spigell/resume-screener/internal/store"
)

const (
	uploadField           = "resume"
	invalidFileTypeReason = "Invalid file type. Allowed: pdf, docx, txt"
)

type candidateView struct {
	*store.Record
	SkillsList []string `json:"skills_list"`
}

type matchData struct {
	JobDescription    string            `json:"job_description"`
	Results           []matching.Result `json:"results"`
	TotalCandidates   int               `json:"total_candidates"`
	MatchedCandidates int               `json:"matched_candidates"`
	MinScore          float64           `json:"min_score"`
	Timestamp         string            `json:"timestamp"`
}

func (s *Server) index(c *gin.Context) {
	ok(c, "Success", gin.H{"message": "Resume Screener API", "version": apiVersion})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes+multipartOverhead)

	fh, err := c.FormFile(uploadField)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.fileTooLarge(c)
		return
	}
	if err != nil {
		if form := c.Request.MultipartForm; form != nil {
			if _, present := form.Value[uploadField]; present {
				fail(c, http.StatusBadRequest, "No file selected", nil)
				return
			}
		}
		fail(c, http.StatusBadRequest, "No file part in the request", nil)
		return
	}

	if strings.TrimSpace(fh.Filename) == "" {
		fail(c, http.StatusBadRequest, "No file selected", nil)
		return
	}

	if fh.Size > s.cfg.MaxUploadBytes {
		s.fileTooLarge(c)
		return
	}

	filename := resume.SecureFilename(fh.Filename)
	if !resume.AllowedFile(fh.Filename) || !resume.AllowedFile(filename) {
		fail(c, http.StatusBadRequest, invalidFileTypeReason, nil)
		return
	}

	data, err := readUpload(fh)
	if err != nil {
		s.logger.Error("reading upload", zap.String("filename", filename), zap.Error(err))
		fail(c, http.StatusInternalServerError, "Upload failed: "+err.Error(), err)
		return
	}

	if err := s.saveUpload(filename, data); err != nil {
		s.logger.Error("saving upload", zap.String("filename", filename), zap.Error(err))
		fail(c, http.StatusInternalServerError, "Upload failed: "+err.Error(), err)
		return
	}

	rec, err := intake.Ingest(c.Request.Context(), s.store, s.logger, filename, data)
	if err != nil {
		s.logger.Error("ingesting upload", zap.String("filename", filename), zap.Error(err))
		status := statusFor(err)
		if status == http.StatusBadRequest {
			fail(c, status, invalidFileTypeReason, err)
			return
		}
		fail(c, http.StatusInternalServerError, "Upload failed: "+err.Error(), err)
		return
	}

	ok(c, "Success", gin.H{
		"candidate": rec,
		"message":   "Resume uploaded and parsed successfully",
	})
}

func (s *Server) fileTooLarge(c *gin.Context) {
	fail(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large. Maximum size is %d bytes", s.cfg.MaxUploadBytes), nil)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// saveUpload keeps the original upload next to the store under a unique name.
func (s *Server) saveUpload(filename string, data []byte) error {
	if err := os.MkdirAll(s.cfg.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}

	path := filepath.Join(s.cfg.UploadsDir, uuid.NewString()+"_"+filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save upload: %w", err)
	}

	s.logger.Debug("upload saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

func (s *Server) candidates(c *gin.Context) {
	records, err := s.store.All(c.Request.Context())
	if err != nil {
		s.logger.Error("listing candidates", zap.Error(err))
		fail(c, statusFor(err), "Failed to retrieve candidates: "+err.Error(), err)
		return
	}

	ok(c, fmt.Sprintf("Retrieved %d candidates", len(records)), records)
}

func (s *Server) candidate(c *gin.Context) {
	id := c.Param("id")

	rec, err := s.store.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, fmt.Sprintf("Candidate with ID %s not found", id), nil)
		return
	}
	if err != nil {
		s.logger.Error("getting candidate", logger.CandidateID(id), zap.Error(err))
		fail(c, statusFor(err), "Failed to retrieve candidate: "+err.Error(), err)
		return
	}

	ok(c, "Candidate retrieved successfully", candidateView{Record: rec, SkillsList: rec.SkillsList()})
}

func (s *Server) match(c *gin.Context) {
	if !isJSON(c.GetHeader("Content-Type")) {
		fail(c, http.StatusBadRequest, "Content-Type must be application/json", nil)
		return
	}

	var body map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil || len(body) == 0 {
		fail(c, http.StatusBadRequest, "No JSON data provided", nil)
		return
	}

	jobDescription, _ := body["job_description"].(string)
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		fail(c, http.StatusBadRequest, "Job description is required", nil)
		return
	}

	minScore := 0.0
	if raw, present := body["min_score"]; present && raw != nil {
		value, isNumber := raw.(float64)
		if !isNumber {
			fail(c, http.StatusBadRequest, "min_score must be a number", nil)
			return
		}
		minScore = value
	}

	records, err := s.store.All(c.Request.Context())
	if err != nil {
		s.logger.Error("reading candidates for match", zap.Error(err))
		fail(c, statusFor(err), "Matching failed: "+err.Error(), err)
		return
	}

	results := s.matcher.MatchAll(c.Request.Context(), records, jobDescription, minScore)

	ok(c, fmt.Sprintf("Matched %d candidates against job description", len(results)), matchData{
		JobDescription:    jobDescription,
		Results:           results,
		TotalCandidates:   len(records),
		MatchedCandidates: len(results),
		MinScore:          minScore,
		Timestamp:         time.Now().Format(time.RFC3339),
	})
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
