package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jellydator/ttlcache/v3"

	"github.com/lox/crimelens/internal/apperr"
	"github.com/lox/crimelens/internal/dataset"
	"github.com/lox/crimelens/internal/heatmap"
	"github.com/lox/crimelens/internal/models"
	"github.com/lox/crimelens/internal/store"
)

type HealthStatus struct {
	Status  string `json:"status"`
	Rows    int    `json:"rows"`
	Dropped int    `json:"dropped"`
	Columns int    `json:"columns"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{
		Status:  "ok",
		Rows:    s.table.Len(),
		Dropped: s.table.Dropped(),
		Columns: len(s.table.Columns()),
	})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage, err := dataset.ParsePage(q.Get("page"), q.Get("per_page"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.table.Slice(page, perPage))
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	districts, err := s.store.Districts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, districts)
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.store.Units(r.Context(), r.PathValue("district"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

func (s *Server) handleBeats(w http.ResponseWriter, r *http.Request) {
	beats, err := s.store.Beats(r.Context(), r.PathValue("unit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, beats)
}

func (s *Server) handleDataByBeat(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.RowsByBeat(r.Context(), r.PathValue("beat"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.table.Rows(rows))
}

func (s *Server) handleCrimeByTime(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.store.CrimeByHour(r.Context(), r.PathValue("district"), r.PathValue("unit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (s *Server) handleCrimeByMonth(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CrimeByMonth(r.Context(), r.PathValue("district"), r.PathValue("unit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleCrimeByWeek(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CrimeByWeek(r.Context(), r.PathValue("district"), r.PathValue("unit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	var q models.DetailsQuery
	if err := decodeJSON(r, &q); err != nil {
		s.writeError(w, r, err)
		return
	}
	details, err := s.store.Details(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

type frequencyQuery struct {
	District string `json:"selectedDistrict"`
	Unit     string `json:"selectedUnit"`
}

func (s *Server) handleDataFrequency(w http.ResponseWriter, r *http.Request) {
	var q frequencyQuery
	if err := decodeJSON(r, &q); err != nil {
		s.writeError(w, r, err)
		return
	}

	key := q.District + "\x00" + q.Unit
	if item := s.freqCache.Get(key); item != nil {
		writeJSON(w, http.StatusOK, item.Value())
		return
	}
	freq := s.table.Frequency(dataset.Filter{
		store.ColDistrict: q.District,
		store.ColUnit:     q.Unit,
	})
	s.freqCache.Set(key, freq, ttlcache.DefaultTTL)
	writeJSON(w, http.StatusOK, freq)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	width, err := queryInt(r, "width")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	height, err := queryInt(r, "height")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	key := fmt.Sprintf("%dx%d", width, height)
	var data []byte
	if item := s.heatmapPNGs.Get(key); item != nil {
		data = item.Value()
	} else {
		data, err = heatmap.Render(s.points, heatmap.Options{Width: width, Height: height})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.heatmapPNGs.Set(key, data, ttlcache.DefaultTTL)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.opts.CacheTTL.Seconds())))
	w.Write(data)
}

// queryInt parses an optional integer query parameter; absent is zero.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.ClientInput(name, "%s must be an integer, got %q", name, raw)
	}
	return n, nil
}
