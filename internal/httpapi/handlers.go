package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/forPelevin/topiccut/internal/domain/highlights"
	"github.com/forPelevin/topiccut/internal/types"
	"github.com/forPelevin/topiccut/internal/usecase"
)

// indexValue accepts the highlight index as a JSON string or number.
type indexValue string

func (v *indexValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = indexValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("index must be a string or a number")
	}
	if i, err := n.Int64(); err == nil {
		*v = indexValue(strconv.FormatInt(i, 10))
		return nil
	}
	*v = indexValue(n.String())
	return nil
}

type selectRequest struct {
	UUID     string     `json:"uuid" validate:"required"`
	Index    indexValue `json:"index" validate:"required"`
	Topic    string     `json:"topic" validate:"required"`
	Topics   []string   `json:"topics"`
	ModelID  string     `json:"modelID"`
	Owner    string     `json:"owner"`
	Strategy string     `json:"strategy" validate:"omitempty,oneof=index direct"`
}

type processedTopic struct {
	Text       string          `json:"text"`
	Title      string          `json:"VideoTitle,omitempty"`
	Timeframes []types.Segment `json:"timeframes"`
}

type selectResponse struct {
	StatusCode     int             `json:"statusCode"`
	Body           string          `json:"body"`
	Success        string          `json:"success"`
	UUID           string          `json:"uuid"`
	Index          string          `json:"index"`
	ProcessedTopic *processedTopic `json:"processed_topic,omitempty"`
}

func (s *server) selectHighlight(c *fiber.Ctx) error {
	log := requestLog(c, s.log)

	var req selectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "validation failed: "+validationMessage(err))
	}
	strategy, err := highlights.ParseStrategy(req.Strategy)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := s.svc.SelectHighlight(c.UserContext(), usecase.SelectInput{
		ClipID:   req.UUID,
		Index:    string(req.Index),
		Topic:    req.Topic,
		Topics:   req.Topics,
		ModelID:  req.ModelID,
		Owner:    req.Owner,
		Strategy: strategy,
	})
	if err != nil {
		code := statusFor(err)
		log.WithError(err).WithField("status_code", code).Error("highlight selection failed")
		return c.Status(code).JSON(selectResponse{
			StatusCode: code,
			Body:       "Error processing request: " + err.Error(),
			Success:    "false",
			UUID:       req.UUID,
			Index:      string(req.Index),
		})
	}

	segs := res.Draft.Segments
	if segs == nil {
		segs = []types.Segment{}
	}
	return c.Status(fiber.StatusOK).JSON(selectResponse{
		StatusCode: fiber.StatusOK,
		Body:       "Finished Highlight Extraction!",
		Success:    "true",
		UUID:       req.UUID,
		Index:      string(req.Index),
		ProcessedTopic: &processedTopic{
			Text:       res.Draft.Text,
			Title:      res.Draft.Title,
			Timeframes: segs,
		},
	})
}

type timeframesRequest struct {
	UUID  string     `json:"uuid" validate:"required"`
	Index indexValue `json:"index" validate:"required"`
}

type timeframesResponse struct {
	StatusCode        int                   `json:"statusCode"`
	Body              string                `json:"body"`
	Success           string                `json:"success"`
	UUID              string                `json:"uuid"`
	Index             string                `json:"index"`
	Duration          int                   `json:"duration"`
	Timeframes        []types.TimecodeRange `json:"timeframes"`
	RawFilePath       string                `json:"raw_file_path"`
	OutputDestination string                `json:"output_destination"`
}

func (s *server) consolidateTimeframes(c *fiber.Ctx) error {
	log := requestLog(c, s.log)

	var req timeframesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "validation failed: "+validationMessage(err))
	}

	key := types.HighlightKey{ClipID: req.UUID, Index: string(req.Index)}
	res, err := s.svc.ConsolidateTimeframes(c.UserContext(), key)
	resp := timeframesResponse{
		UUID:              req.UUID,
		Index:             string(req.Index),
		Timeframes:        []types.TimecodeRange{},
		RawFilePath:       res.RawFilePath,
		OutputDestination: res.OutputDestination,
	}
	if err != nil {
		code := statusFor(err)
		log.WithError(err).WithField("status_code", code).Error("timeframe consolidation failed")
		resp.StatusCode = code
		resp.Success = "false"
		resp.Body = "Error processing request: " + err.Error()
		if code == fiber.StatusBadRequest {
			resp.Body = "Error on extracting timeframe"
		}
		return c.Status(code).JSON(resp)
	}

	resp.StatusCode = fiber.StatusOK
	resp.Success = "true"
	resp.Body = "Extracted Timeline"
	resp.Duration = res.Duration
	if len(res.Timeframes) > 0 {
		resp.Timeframes = res.Timeframes
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}
