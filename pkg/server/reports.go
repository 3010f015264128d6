package server

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/projectionfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/dbinit/pkg/utils"
)

// ReportInfo describes a run report in the index of a ReportHandler.
type ReportInfo struct {
	Name     string          `json:"name"`
	Size     int64           `json:"size"`
	Modified utils.Timestamp `json:"modified"`
}

// ReportHandler serves the run reports found in a directory.
// A GET on the prefix lists the reports, a GET on
// prefix/<name> returns a single report. Only plain
// YAML files directly in the directory are served.
type ReportHandler struct {
	fs     vfs.FileSystem
	prefix string
}

var _ http.Handler = (*ReportHandler)(nil)

func NewReportHandlerFor(path, prefix string) (*ReportHandler, error) {
	fs, err := projectionfs.New(osfs.OsFs, path)
	if err != nil {
		return nil, err
	}
	return NewReportHandler(fs, prefix), nil
}

func NewReportHandler(fs vfs.FileSystem, prefix string) *ReportHandler {
	return &ReportHandler{
		fs:     fs,
		prefix: strings.TrimSuffix(prefix, "/"),
	}
}

func (h *ReportHandler) RegisterHandler(srv *Server) {
	srv.Handle(h.prefix, h)
	srv.Handle(h.prefix+"/", h)
}

func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Debug("{{method}} serving {{url}}", "method", r.Method, "url", r.URL)
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	name := strings.TrimPrefix(r.URL.Path, h.prefix)
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		h.index(w)
		return
	}
	h.report(w, name)
}

func (h *ReportHandler) index(w http.ResponseWriter) {
	list, err := h.Reports()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (h *ReportHandler) report(w http.ResponseWriter, name string) {
	if !isReport(name) {
		WriteError(w, http.StatusNotFound, fmt.Errorf("report %q not found", name))
		return
	}
	fi, err := h.fs.Stat(name)
	if err != nil || !fi.Mode().IsRegular() {
		WriteError(w, http.StatusNotFound, fmt.Errorf("report %q not found", name))
		return
	}
	data, err := vfs.ReadFile(h.fs, name)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Reports lists the available reports ordered by name.
// A missing directory has no reports.
func (h *ReportHandler) Reports() ([]*ReportInfo, error) {
	entries, err := vfs.ReadDir(h.fs, "/")
	if err != nil {
		if vfs.IsErrNotExist(err) {
			return []*ReportInfo{}, nil
		}
		return nil, err
	}
	list := []*ReportInfo{}
	for _, e := range entries {
		if !e.Mode().IsRegular() || !isReport(e.Name()) {
			continue
		}
		list = append(list, &ReportInfo{
			Name:     e.Name(),
			Size:     e.Size(),
			Modified: utils.NewTimestampFor(e.ModTime()),
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func isReport(name string) bool {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.HasPrefix(name, ".") {
		return false
	}
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
