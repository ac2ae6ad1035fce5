package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/nextmeal/internal/errors"
	"github.com/hpungsan/nextmeal/internal/meal"
	"github.com/hpungsan/nextmeal/internal/ops"
)

// maxBodyBytes caps form and JSON request bodies.
const maxBodyBytes = 64 << 10

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	svc      ops.Predictor
	renderer *Renderer
	logger   *zap.Logger
	now      func() time.Time
}

var mealLabels = [meal.SequenceLen]string{"Meal 1 (oldest)", "Meal 2", "Meal 3 (most recent)"}

// HandleForm handles GET /, the prediction form with default values.
func (h *Handlers) HandleForm(w http.ResponseWriter, r *http.Request) {
	defaults := ops.Defaults(h.now())
	forms := make([]MealForm, len(defaults.Meals))
	for i, m := range defaults.Meals {
		forms[i] = MealForm{
			Index:     i,
			Label:     mealLabels[i],
			ProteinG:  formatFloat(m.ProteinG),
			CarbsG:    formatFloat(m.CarbsG),
			FatG:      formatFloat(m.FatG),
			MealType:  m.MealType,
			Hour:      strconv.Itoa(m.Hour),
			DayOfWeek: m.DayOfWeek.String(),
		}
	}
	h.renderer.renderPage(w, "form", h.formPage(forms))
}

// HandlePredict handles POST /predict.
// Validation and prediction failures are shown on the form itself.
func (h *Handlers) HandlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("could not read form"))
		return
	}

	forms := readMealForms(r)
	data := h.formPage(forms)

	inputs, err := parseMealForms(forms)
	if err == nil {
		data.Result, err = ops.Predict(r.Context(), h.svc, ops.PredictInput{Meals: inputs})
	}
	if err != nil {
		nErr := asNextMealError(err)
		data.Error = nErr.Message
		h.renderer.renderPageStatus(w, nErr.Status, "form", data)
		return
	}

	h.renderer.renderPage(w, "form", data)
}

// HandleAbout handles GET /about.
func (h *Handlers) HandleAbout(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, "about", AboutPageData{
		PageData: PageData{Title: "About", Version: h.renderer.version, Nav: "about"},
		Body:     h.renderer.about,
	})
}

// HandleAPIStatus handles GET /api/status.
func (h *Handlers) HandleAPIStatus(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, ops.Status(h.svc))
}

// HandleAPIPredict handles POST /api/predict with a JSON {"meals": [...]} body.
func (h *Handlers) HandleAPIPredict(w http.ResponseWriter, r *http.Request) {
	var input ops.PredictInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		renderJSONError(w, errors.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err)))
		return
	}

	result, err := ops.Predict(r.Context(), h.svc, input)
	if err != nil {
		renderJSONError(w, asNextMealError(err))
		return
	}
	renderJSON(w, http.StatusOK, result)
}

func (h *Handlers) formPage(forms []MealForm) FormPageData {
	defaults := ops.Defaults(h.now())
	return FormPageData{
		PageData:  PageData{Title: "Predict", Version: h.renderer.version, Nav: "predict"},
		Meals:     forms,
		MealTypes: defaults.MealTypes,
		Weekdays:  defaults.Weekdays,
		Status:    *ops.Status(h.svc),
	}
}

// readMealForms collects the raw values of the three meal sections.
func readMealForms(r *http.Request) []MealForm {
	forms := make([]MealForm, meal.SequenceLen)
	for i := range forms {
		field := func(name string) string {
			return strings.TrimSpace(r.PostForm.Get(fmt.Sprintf("%s_%d", name, i)))
		}
		forms[i] = MealForm{
			Index:     i,
			Label:     mealLabels[i],
			ProteinG:  field("protein"),
			CarbsG:    field("carbs"),
			FatG:      field("fat"),
			MealType:  field("meal_type"),
			Hour:      field("hour"),
			DayOfWeek: field("day"),
		}
	}
	return forms
}

// parseMealForms converts the numeric form fields. Range checks are left to ops.
func parseMealForms(forms []MealForm) ([]ops.MealInput, error) {
	inputs := make([]ops.MealInput, len(forms))
	for i, f := range forms {
		in := ops.MealInput{MealType: f.MealType, DayOfWeek: ops.Day(f.DayOfWeek)}
		numbers := []struct {
			name string
			raw  string
			dst  *float64
		}{
			{"protein_g", f.ProteinG, &in.ProteinG},
			{"carbs_g", f.CarbsG, &in.CarbsG},
			{"fat_g", f.FatG, &in.FatG},
		}
		for _, n := range numbers {
			v, err := strconv.ParseFloat(n.raw, 64)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("meal %d: %s must be a number", i+1, n.name))
			}
			*n.dst = v
		}
		hour, err := strconv.Atoi(f.Hour)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("meal %d: hour_of_day must be a whole number", i+1))
		}
		in.Hour = hour
		inputs[i] = in
	}
	return inputs, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
