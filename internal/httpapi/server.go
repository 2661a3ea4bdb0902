package httpapi

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/topiccut/internal/types"
	"github.com/forPelevin/topiccut/internal/usecase"
)

// Service is the part of usecase.Usecase the HTTP surface drives.
type Service interface {
	SelectHighlight(ctx context.Context, in usecase.SelectInput) (usecase.SelectResult, error)
	ConsolidateTimeframes(ctx context.Context, key types.HighlightKey) (usecase.ConsolidateResult, error)
}

var validate = validator.New()

type server struct {
	svc Service
	log logrus.FieldLogger
}

// New returns the fiber app exposing both pipeline steps.
func New(svc Service, log logrus.FieldLogger) *fiber.App {
	s := &server{svc: svc, log: log}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"status": "error", "message": err.Error()})
		},
	})
	app.Use(RequestLogger(log))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	v1 := app.Group("/v1")
	v1.Post("/highlights", s.selectHighlight)
	v1.Post("/timeframes", s.consolidateTimeframes)
	return app
}

// statusFor maps the failure taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, types.ErrMissingData):
		return fiber.StatusBadRequest
	case errors.Is(err, types.ErrPhase), errors.Is(err, types.ErrVersionConflict):
		return fiber.StatusConflict
	case errors.Is(err, types.ErrMalformedOutput):
		return fiber.StatusBadGateway
	case errors.Is(err, types.ErrRateLimited):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, "field '"+fe.Field()+"' failed on the '"+fe.Tag()+"' tag")
	}
	return strings.Join(msgs, "; ")
}
