package signalling

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peerd/peerd/pkg/sdp"
)

// Routes mounts the signalling operations on a gin router.
func (f *Facade) Routes(r gin.IRouter) {
	r.POST("/offer", f.handleOffer)
	r.POST("/candidate", f.handleCandidate)
	r.GET("/candidates/:username", f.handleCandidates)
}

func (f *Facade) handleOffer(c *gin.Context) {
	var req OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	answer, err := f.Offer(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrBadRequest), errors.Is(err, sdp.ErrInvalidOffer):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (f *Facade) handleCandidate(c *gin.Context) {
	var req CandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	// Always an empty acknowledgement; trickle is fire-and-forget.
	f.Candidate(req)
	c.Status(http.StatusOK)
}

func (f *Facade) handleCandidates(c *gin.Context) {
	entries, err := f.Candidates(c.Param("username"))
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, entries)
}
