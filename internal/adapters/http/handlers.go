package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dkeye/Babel/internal/app/lifecycle"
	"github.com/dkeye/Babel/internal/app/orch"
	"github.com/dkeye/Babel/internal/app/translate"
	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/dkeye/Babel/internal/language"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type handlers struct {
	orch *orch.Orchestrator
	ice  []webrtc.ICEServer
}

type TranslateRequest struct {
	Text           string `json:"text" binding:"required"`
	SourceLanguage string `json:"sourceLanguage" binding:"required"`
	TargetLanguage string `json:"targetLanguage" binding:"required"`
}

type TranslateResponse struct {
	TranslatedText string        `json:"translatedText"`
	SourceLanguage language.Code `json:"sourceLanguage"`
	TargetLanguage language.Code `json:"targetLanguage"`
}

type ParticipantView struct {
	core.MemberDTO
	State string `json:"state"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"translatorConfigured": h.orch.Gateway.Configured(),
	})
}

func (h *handlers) languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": language.All()})
}

func (h *handlers) iceServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": h.ice})
}

func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Registry.List()})
}

// createRoom only hands out an id; the room exists once someone joins it.
func (h *handlers) createRoom(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"roomId": domain.NewRoomID()})
}

func (h *handlers) participants(c *gin.Context) {
	roomID, err := domain.ParseRoomID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	members := h.orch.Registry.Members(roomID)
	if len(members) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	states := lo.SliceToMap(h.orch.Lifecycle.Snapshot(roomID), func(s lifecycle.Status) (domain.ParticipantID, lifecycle.State) {
		return s.Participant, s.State
	})
	views := lo.Map(members, func(m core.Member, _ int) ParticipantView {
		state, ok := states[m.ID]
		if !ok {
			state = lifecycle.Joined
		}
		return ParticipantView{MemberDTO: m.DTO(), State: state.String()}
	})
	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "participants": views})
}

func (h *handlers) translate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields: text, sourceLanguage, targetLanguage"})
		return
	}

	source := resolveSource(req.SourceLanguage, req.Text)
	target := language.Normalize(req.TargetLanguage)

	text, err := h.orch.Gateway.Translate(c.Request.Context(), req.Text, source, target)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, TranslateResponse{TranslatedText: text, SourceLanguage: source, TargetLanguage: target})
	case errors.Is(err, translate.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "translation service not configured"})
	default:
		log.Warn().Err(err).Str("module", "adapters.http").Msg("translate request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "translation failed"})
	}
}

// resolveSource handles "auto" by detection. Unknown or undetectable
// languages fall back to English.
func resolveSource(raw, text string) language.Code {
	if strings.EqualFold(strings.TrimSpace(raw), "auto") {
		if code, ok := language.Detect(text); ok {
			return code
		}
		return language.Default
	}
	return language.Normalize(raw)
}
