package api

import (
	"net/http"

	"github.com/lox/crimelens/internal/analysis"
	"github.com/lox/crimelens/internal/prompt"
)

// analysisBody is the union of the fields accepted by the analysis
// endpoints. Each endpoint reads only its own.
type analysisBody struct {
	AnalysisText  string `json:"analysis_text"`
	District      string `json:"district"`
	PoliceStation string `json:"police_station"`
	UnitName      string `json:"unitname"`
	BeatName      string `json:"beat_name"`

	Temperature *float64 `json:"temperature"`
	TopP        *float64 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
}

type AnalysisResponse struct {
	Analysis string `json:"analysis"`
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, build func(analysisBody) analysis.Request) {
	var body analysisBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	text, err := s.pipeline.Run(r.Context(), build(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AnalysisResponse{Analysis: text})
}

func (s *Server) handleSpatialAnalysis(w http.ResponseWriter, r *http.Request) {
	s.analyze(w, r, func(b analysisBody) analysis.Request {
		return analysis.Request{
			Kind:         prompt.KindSpatial,
			AnalysisText: b.AnalysisText,
			District:     b.District,
			Unit:         b.PoliceStation,
		}
	})
}

func (s *Server) handleBeatwiseAnalysis(w http.ResponseWriter, r *http.Request) {
	s.analyze(w, r, func(b analysisBody) analysis.Request {
		return analysis.Request{
			Kind:         prompt.KindBeatwise,
			AnalysisText: b.AnalysisText,
			District:     b.District,
			Unit:         b.UnitName,
			Beat:         b.BeatName,
		}
	})
}

func (s *Server) handleCrimePrediction(w http.ResponseWriter, r *http.Request) {
	s.analyze(w, r, func(b analysisBody) analysis.Request {
		unit := b.UnitName
		if unit == "" {
			unit = b.PoliceStation
		}
		return analysis.Request{
			Kind:         prompt.KindPrediction,
			AnalysisText: b.AnalysisText,
			District:     b.District,
			Unit:         unit,
		}
	})
}

func (s *Server) handleDeploymentPlan(w http.ResponseWriter, r *http.Request) {
	s.analyze(w, r, func(b analysisBody) analysis.Request {
		return analysis.Request{
			Kind:         prompt.KindDeployment,
			AnalysisText: b.AnalysisText,
			District:     b.District,
			Unit:         b.UnitName,
		}
	})
}

func (s *Server) handleCrimeAnalysis(w http.ResponseWriter, r *http.Request) {
	s.analyze(w, r, func(b analysisBody) analysis.Request {
		return analysis.Request{
			Kind:         prompt.KindGeneral,
			AnalysisText: b.AnalysisText,
			Overrides: &analysis.Overrides{
				Temperature:  b.Temperature,
				TopP:         b.TopP,
				MaxNewTokens: b.MaxTokens,
			},
		}
	})
}
