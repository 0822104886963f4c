package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"bayesim/app"
	"bayesim/domain/core"
	"bayesim/domain/scenario"
	"bayesim/internal/errors"
	"bayesim/internal/report"
	"bayesim/ports"
)

// formValues is what the simulation form shows and submits.
type formValues struct {
	Smoking         float64
	CancerSmoker    float64
	CancerNonSmoker float64
	BreathCancer    float64
	BreathNoCancer  float64
	Samples         int
	Seed            int64
	Workers         int
}

func (f formValues) request() app.SimulationRequest {
	return app.SimulationRequest{
		Inputs: scenario.Inputs{
			Smoking:    f.Smoking,
			LungCancer: scenario.ConditionalRisk{GivenPositive: f.CancerSmoker, GivenNegative: f.CancerNonSmoker},
			Breath:     scenario.ConditionalRisk{GivenPositive: f.BreathCancer, GivenNegative: f.BreathNoCancer},
		},
		Samples: f.Samples,
		Seed:    f.Seed,
		Workers: f.Workers,
	}
}

func (a *App) defaults() formValues {
	in := a.config.Inputs
	return formValues{
		Smoking:         in.Smoking,
		CancerSmoker:    in.LungCancer.GivenPositive,
		CancerNonSmoker: in.LungCancer.GivenNegative,
		BreathCancer:    in.Breath.GivenPositive,
		BreathNoCancer:  in.Breath.GivenNegative,
		Samples:         a.config.Samples,
		Seed:            a.config.Seed,
		Workers:         max(a.config.Workers, 1),
	}
}

// handleIndex renders the simulation form with configured defaults
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "index.html", map[string]interface{}{
		"Form": a.defaults(),
	})
}

// handleSimulate runs the submitted simulation and renders its report
func (a *App) handleSimulate(w http.ResponseWriter, r *http.Request) {
	form, err := a.parseForm(r)
	if err != nil {
		a.renderError(w, form, err)
		return
	}

	result, err := a.service.Run(r.Context(), form.request())
	if err != nil {
		a.renderError(w, form, err)
		return
	}

	a.render(w, http.StatusOK, "result.html", map[string]interface{}{
		"Form":    form,
		"Record":  result.Record,
		"Summary": result.Summary,
		"Report":  report.HTML(report.Markdown(header(result.Record), result.Summary)),
	})
}

// handleRuns lists recorded runs, newest first
func (a *App) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	runs, err := a.service.ListRuns(r.Context(), limit)
	if err != nil {
		a.httpError(w, err)
		return
	}
	a.render(w, http.StatusOK, "runs.html", map[string]interface{}{"Runs": runs})
}

// handleRun replays a recorded run and shows its report
func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	result, err := a.replay(r)
	if err != nil {
		a.httpError(w, err)
		return
	}

	a.render(w, http.StatusOK, "result.html", map[string]interface{}{
		"Form":    a.defaults(),
		"Record":  result.Record,
		"Summary": result.Summary,
		"Report":  report.HTML(report.Markdown(header(result.Record), result.Summary)),
	})
}

// handleExport streams a replayed run as an .xlsx workbook
func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	result, err := a.replay(r)
	if err != nil {
		a.httpError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := a.exporter.Export(r.Context(), &buf, result.Batch, result.Summary); err != nil {
		a.httpError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="run-%s.xlsx"`, result.RunID))
	_, _ = w.Write(buf.Bytes())
}

func (a *App) replay(r *http.Request) (*app.SimulationResult, error) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	return a.service.Replay(r.Context(), id)
}

func (a *App) parseForm(r *http.Request) (formValues, error) {
	form := a.defaults()
	if err := r.ParseForm(); err != nil {
		return form, errors.InvalidInput("unreadable form")
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"smoking", &form.Smoking},
		{"cancer_smoker", &form.CancerSmoker},
		{"cancer_nonsmoker", &form.CancerNonSmoker},
		{"breath_cancer", &form.BreathCancer},
		{"breath_no_cancer", &form.BreathNoCancer},
	}
	for _, f := range floats {
		v := strings.TrimSpace(r.PostForm.Get(f.key))
		if v == "" {
			continue
		}
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return form, errors.InvalidInput(fmt.Sprintf("%s must be a number", f.key))
		}
		*f.dst = p
	}

	if v := strings.TrimSpace(r.PostForm.Get("samples")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return form, errors.InvalidInput("samples must be an integer")
		}
		form.Samples = n
	}
	if v := strings.TrimSpace(r.PostForm.Get("seed")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return form, errors.InvalidInput("seed must be an integer")
		}
		form.Seed = n
	}
	if v := strings.TrimSpace(r.PostForm.Get("workers")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return form, errors.InvalidInput("workers must be a positive integer")
		}
		form.Workers = n
	}
	return form, nil
}

func header(rec ports.RunRecord) report.Header {
	return report.Header{
		RunID:       rec.ID.String(),
		Seed:        rec.Seed,
		Workers:     rec.Workers,
		Fingerprint: rec.Fingerprint.Short(),
		Inputs:      rec.Inputs,
	}
}

// renderError shows the form again with the error message.
func (a *App) renderError(w http.ResponseWriter, form formValues, err error) {
	appErr := errors.FromDomain(err)
	status := errors.HTTPStatus(errors.GetCode(appErr))
	if status >= http.StatusInternalServerError {
		a.logger.Error("simulation failed: %v", err)
	}
	a.render(w, status, "index.html", map[string]interface{}{
		"Form":  form,
		"Error": appErr.Error(),
	})
}

func (a *App) httpError(w http.ResponseWriter, err error) {
	appErr := errors.FromDomain(err)
	status := errors.HTTPStatus(errors.GetCode(appErr))
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed: %v", err)
	}
	http.Error(w, appErr.Error(), status)
}

func (a *App) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.Error("template %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
