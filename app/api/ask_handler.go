package api

import (
	"errors"
	"strings"

	"datadepot/app/agent"
	"datadepot/types"

	"github.com/gofiber/fiber/v2"
)

type AskHandler struct {
	agent *agent.Agent
}

func NewAskHandler(a *agent.Agent) *AskHandler {
	return &AskHandler{agent: a}
}

// HandleAsk answers one question. Blank questions are rejected before
// the pipeline runs; pipeline failures surface through the ErrorHandler
// as a structured 500.
func (h *AskHandler) HandleAsk(c *fiber.Ctx) error {
	var params types.AskParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errs := params.Validate(); errs != nil || strings.TrimSpace(params.Question) == "" {
		return ErrMissingQuestion()
	}

	resp, err := h.agent.Answer(c.UserContext(), params.Question, params.Web, params.WebDomains)
	if err != nil {
		if errors.Is(err, agent.ErrEmptyQuestion) {
			return ErrMissingQuestion()
		}
		return err
	}
	return c.JSON(resp)
}
