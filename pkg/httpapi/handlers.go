package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sidneyts/NOTICIAS/pkg/apperr"
	"github.com/sidneyts/NOTICIAS/pkg/params"
	"github.com/sidneyts/NOTICIAS/pkg/pipeline"
)

const (
	formMedia   = "userMedia"
	formFormat  = "format"
	formFormats = "formats"

	maxFormMemory   = 32 << 20
	maxSettingsBody = 1 << 20
)

type statusResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename,omitempty"`
}

type previewResponse struct {
	PreviewURL string `json:"previewUrl"`
	FrameIndex int    `json:"frameIndex"`
}

type resultResponse struct {
	Label      string `json:"label"`
	BaseFormat string `json:"baseFormat"`
	File       string `json:"file,omitempty"`
	URL        string `json:"url,omitempty"`
	Frames     int    `json:"frames"`
	Error      string `json:"error,omitempty"`
}

type generateResponse struct {
	BatchID     string           `json:"batchId"`
	DownloadURL string           `json:"downloadUrl,omitempty"`
	ArchiveURL  string           `json:"archiveUrl,omitempty"`
	Results     []resultResponse `json:"results"`
	Error       string           `json:"error,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		s.writeError(w, r, apperr.Wrap(err, apperr.CodeValidation, "upload", "invalid upload"))
		return
	}
	file, header, err := r.FormFile(formMedia)
	if err != nil {
		s.writeError(w, r, apperr.New(apperr.CodeValidation, "upload", "nenhum ficheiro de mídia enviado"))
		return
	}
	defer file.Close()

	stored, err := s.svc.UploadMedia(r.Context(), header.Filename, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Filename: stored})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	values, overrides, err := parseRenderForm(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Preview(r.Context(), values.Get(formFormat), overrides)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{PreviewURL: "/preview.jpg", FrameIndex: res.FrameIndex})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	values, overrides, err := parseRenderForm(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.svc.Generate(r.Context(), overrides, formatList(values[formFormats]))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := generateResponse{
		BatchID:    result.ID,
		ArchiveURL: result.ArchiveURL,
		Results:    make([]resultResponse, 0, len(result.Primary)+len(result.Derived)),
	}
	for _, res := range result.Results() {
		resp.Results = append(resp.Results, toResultResponse(res))
	}
	if result.ArchivePath == "" {
		resp.Error = "nenhum vídeo foi gerado"
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	resp.DownloadURL = outputURL(result.ArchivePath)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLoadSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.LoadSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	if err := dec.Decode(&patch); err != nil || patch == nil {
		s.writeError(w, r, apperr.New(apperr.CodeValidation, "settings.save", "body must be a JSON object"))
		return
	}
	if _, err := s.svc.SaveSettings(r.Context(), patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	path, err := s.svc.OutputFile(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	path, err := s.svc.AssetFile(chi.URLParam(r, "file"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handlePreviewImage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, s.svc.PreviewPath())
}

// parseRenderForm reads a urlencoded or multipart form and parses the
// render options it carries.
func parseRenderForm(r *http.Request) (url.Values, params.Overrides, error) {
	err := r.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, nil, apperr.Wrap(err, apperr.CodeValidation, "form", "invalid form")
	}
	overrides, err := params.ParseForm(r.Form)
	if err != nil {
		return nil, nil, err
	}
	return r.Form, overrides, nil
}

// formatList accepts repeated fields and comma separated lists.
func formatList(values []string) []string {
	var keys []string
	for _, v := range values {
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func toResultResponse(res pipeline.RenderJobResult) resultResponse {
	out := resultResponse{
		Label:      res.Label,
		BaseFormat: res.BaseFormat,
		Frames:     res.Frames,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
		return out
	}
	out.File = filepath.Base(res.OutputPath)
	out.URL = outputURL(res.OutputPath)
	return out
}

func outputURL(path string) string {
	return "/output/" + url.PathEscape(filepath.Base(path))
}
