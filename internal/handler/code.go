package handler

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mglynn/qrewards/internal/apperror"
	"github.com/mglynn/qrewards/internal/auth"
	"github.com/mglynn/qrewards/internal/code"
	"github.com/mglynn/qrewards/internal/model"
	"github.com/mglynn/qrewards/internal/qr"
	"github.com/mglynn/qrewards/internal/store"
	"github.com/mglynn/qrewards/internal/websocket"
)

// maxIssueAttempts bounds the retries when a generated identifier collides
// with an existing code.
const maxIssueAttempts = 5

type CodeHandler struct {
	codeStore *store.CodeStore
	userStore *store.UserStore
	hub       *websocket.Hub
	templates *template.Template
	logger    *slog.Logger
}

func NewCodeHandler(cs *store.CodeStore, us *store.UserStore, hub *websocket.Hub, tmpl *template.Template, logger *slog.Logger) *CodeHandler {
	return &CodeHandler{
		codeStore: cs,
		userStore: us,
		hub:       hub,
		templates: tmpl,
		logger:    logger,
	}
}

func (h *CodeHandler) broadcast(ev websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(ev)
	}
}

func (h *CodeHandler) GeneratePage(w http.ResponseWriter, r *http.Request) {
	render(w, h.templates, "generate.html", http.StatusOK, nil)
}

func (h *CodeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireAdmin(r.Context()); err != nil {
		http.Error(w, "Only admins can generate QR codes", http.StatusForbidden)
		return
	}
	issuerID := auth.UserID(r.Context())

	rewardCode, err := h.issue(issuerID)
	if err != nil {
		h.logger.Error("issue code", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	dataURL, err := qr.DataURL(rewardCode.Code)
	if err != nil {
		h.logger.Error("generate qr image", "code", rewardCode.Code, "error", err)
		http.Error(w, "Error generating QR code", http.StatusInternalServerError)
		return
	}

	h.broadcast(websocket.CodeIssued(rewardCode.Code, rewardCode.PointValue))
	h.logger.Info("code issued", "code", rewardCode.Code, "points", rewardCode.PointValue, "issued_by", issuerID)

	// template.URL keeps the autoescaper from rejecting the data: scheme
	// in the img src attribute.
	render(w, h.templates, "generated_code.html", http.StatusOK, map[string]any{
		"Code":      rewardCode,
		"QRCodeURL": template.URL(dataURL),
	})
}

// issue creates a reward code with a fresh identifier, retrying a bounded
// number of times when the identifier collides with an existing row.
func (h *CodeHandler) issue(issuedBy int64) (*model.RewardCode, error) {
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		id, err := code.NewID()
		if err != nil {
			return nil, err
		}
		c, err := h.codeStore.Create(id, issuedBy, code.NewPointValue())
		if errors.Is(err, store.ErrDuplicateCode) {
			continue
		}
		return c, err
	}
	return nil, errors.New("exhausted identifier attempts")
}

func (h *CodeHandler) ScanPage(w http.ResponseWriter, r *http.Request) {
	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil || user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	render(w, h.templates, "scanner.html", http.StatusOK, map[string]any{
		"User": user,
	})
}

type scanRequest struct {
	QRCodeID string `json:"qrCodeId"`
}

type scanResponse struct {
	Message string `json:"message"`
	model.RedemptionResult
}

func (h *CodeHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.QRCodeID = strings.TrimSpace(req.QRCodeID)
	if req.QRCodeID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "qrCodeId is required"})
		return
	}

	userID := auth.UserID(r.Context())

	redeemed, err := h.codeStore.Redeem(req.QRCodeID, userID)
	switch {
	case errors.Is(err, apperror.ErrCodeNotFound):
		http.Error(w, "QR Code not found", http.StatusNotFound)
		return
	case errors.Is(err, apperror.ErrAlreadyRedeemed):
		http.Error(w, "QR Code already scanned", http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("redeem code", "code", req.QRCodeID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	points := redeemed.PointValue
	if points == 0 {
		points = 10
	}

	total, err := h.userStore.AddPoints(userID, points)
	if err != nil {
		h.logger.Error("credit points", "user", userID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.broadcast(websocket.CodeRedeemed(redeemed.Code, points))
	h.logger.Info("code redeemed", "code", redeemed.Code, "points", points, "redeemed_by", userID)

	writeJSON(w, http.StatusOK, scanResponse{
		Message: "QR Code scanned successfully!",
		RedemptionResult: model.RedemptionResult{
			PointsEarned:  points,
			CurrentPoints: total,
		},
	})
}

func (h *CodeHandler) ListCodes(w http.ResponseWriter, r *http.Request) {
	listings, err := h.codeStore.List()
	if err != nil {
		h.logger.Error("list codes", "error", err)
		http.Error(w, "Error retrieving QR Codes", http.StatusInternalServerError)
		return
	}

	render(w, h.templates, "view_codes.html", http.StatusOK, map[string]any{
		"Codes": listings,
	})
}
