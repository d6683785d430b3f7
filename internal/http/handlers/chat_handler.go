// Chat HTTP handler.
//
// POST /chat runs one widget message through the pipeline. Validation
// problems answer 400; any other failure answers 500 with the tenant's
// human-contact fallback as the message, so the visitor always has a way to
// reach a person.
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatguus/chatguus-backend/internal/http/middleware"
	"github.com/chatguus/chatguus-backend/internal/services"
)

// ChatFailure is the 500 body of POST /chat.
type ChatFailure struct {
	Error     string   `json:"error" example:"Neem contact op via welcome@cupolaxs.nl"`
	Message   string   `json:"message" example:"Neem contact op via welcome@cupolaxs.nl"`
	Code      string   `json:"code" example:"chat_failed"`
	TenantID  string   `json:"tenantId"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

// PostChat godoc
// @ID          postChat
// @Summary     Send a chat message
// @Description Classifies the message, generates a reply, and routes complete service requests and event inquiries to the right department.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       X-Tenant-ID  header  string                 false  "Tenant id"  example(koepel)
// @Param       tenant       query   string                 false  "Tenant id"
// @Param       body         body    services.ChatRequest   true   "Chat message"
//
// @Success     200  {object}  services.ChatReply
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid message or missing session"
// @Failure     500  {object}  handlers.ChatFailure    "Fallback reply"
// @Router      /chat [post]
func (h *Handlers) PostChat(c *gin.Context) {
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}
	req.Tenant = middleware.IdentifierFrom(c)

	reply, err := h.reply(c, req)
	if err == nil {
		ok(c, http.StatusOK, reply)
		return
	}
	if errors.Is(err, services.ErrValidation) {
		failErr(c, err)
		return
	}

	t, fallback := h.chatSvc.Fallback(c.Request.Context(), req)
	_ = c.Error(err)
	middleware.LoggerFrom(c).Error().Err(err).Str("tenant", t.ID).Msg("chat pipeline failed")

	body := ChatFailure{
		Error:     fallback,
		Message:   fallback,
		Code:      ErrCodeChatFailed,
		TenantID:  t.ID,
		RequestID: middleware.GetRequestID(c),
	}
	if h.meta.Development {
		body.Details = []string{err.Error()}
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}

// reply calls the pipeline and turns a panic into an error so the visitor
// still receives the fallback.
func (h *Handlers) reply(c *gin.Context, req services.ChatRequest) (out *services.ChatReply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chat pipeline panic: %v", r)
		}
	}()
	return h.chatSvc.Reply(c.Request.Context(), req)
}

// failBind answers an unreadable body: 413 when it exceeded the body limit,
// 400 otherwise.
func failBind(c *gin.Context, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		fail(c, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
		return
	}
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
}
