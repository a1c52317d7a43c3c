// Package predictor calls the external ML service that scores a student's
// dropout and underperformance risk.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/riskwatch-backend/internal/model"
)

// ErrPredictorStatus is returned when the service answers with a non-2xx status.
var ErrPredictorStatus = errors.New("predictor returned an error status")

// Client is a thin JSON client for the prediction service.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a Client for baseURL. Each call is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{},
		log:     log.With().Str("component", "predictor").Logger(),
	}
}

// predictRequest is the feature vector the service expects.
type predictRequest struct {
	AttendanceRate            float64 `json:"AttendanceRate"`
	StudyHoursPerWeek         float64 `json:"StudyHoursPerWeek"`
	PreviousGrade             float64 `json:"PreviousGrade"`
	ExtracurricularActivities float64 `json:"ExtracurricularActivities"`
	ParentalSupport           string  `json:"ParentalSupport"`
	Gender                    string  `json:"Gender"`
	FinalGrade                float64 `json:"FinalGrade"`
}

// Predict scores a single student.
func (c *Client) Predict(ctx context.Context, s model.StudentRecord) (model.PredictionResult, error) {
	var out model.PredictionResult

	body, err := json.Marshal(predictRequest{
		AttendanceRate:            s.AttendanceRate,
		StudyHoursPerWeek:         s.StudyHoursPerWeek,
		PreviousGrade:             s.PreviousGrade,
		ExtracurricularActivities: s.ExtracurricularActivities,
		ParentalSupport:           string(s.ParentalSupport),
		Gender:                    string(s.Gender),
		FinalGrade:                s.FinalGrade,
	})
	if err != nil {
		return out, fmt.Errorf("encode request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return out, fmt.Errorf("call predictor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn().
			Int("status", resp.StatusCode).
			Int("student_id", s.StudentID).
			Str("body", string(snippet)).
			Msg("Predictor rejected request")
		return out, fmt.Errorf("%w: %d", ErrPredictorStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}

	c.log.Debug().
		Int("student_id", s.StudentID).
		Dur("took", time.Since(start)).
		Msg("Prediction received")
	return out, nil
}
