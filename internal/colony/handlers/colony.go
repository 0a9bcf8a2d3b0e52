package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"colony-server/internal/colony"
	"colony-server/internal/session"
	"colony-server/internal/shared/config"
	"colony-server/internal/shared/cookies"
	"colony-server/internal/shared/errors"
	"colony-server/internal/shared/response"
	"colony-server/internal/shared/token"
)

type CreateColonyResponse struct {
	ID       string          `json:"id"`
	Token    string          `json:"token"`
	Snapshot colony.Snapshot `json:"snapshot"`
}

type BuildRequest struct {
	Module string `json:"module"`
	Row    *int   `json:"row"`
	Col    *int   `json:"col"`
}

type BuildResponse struct {
	Placement colony.Placement `json:"placement"`
	Snapshot  colony.Snapshot  `json:"snapshot"`
}

type ExploreRequest struct {
	Biome string `json:"biome"`
}

type ExploreResponse struct {
	Expedition *colony.Expedition `json:"expedition"`
	Snapshot   colony.Snapshot    `json:"snapshot"`
}

type CatalogResponse struct {
	Modules []colony.ModuleSpec `json:"modules"`
	Biomes  []colony.BiomeSpec  `json:"biomes"`
}

type ColonyHandler struct {
	service *session.Service
	issuer  *token.Issuer
	cfg     *config.Config
}

func NewColonyHandler(service *session.Service, issuer *token.Issuer, cfg *config.Config) *ColonyHandler {
	return &ColonyHandler{service: service, issuer: issuer, cfg: cfg}
}

func (h *ColonyHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_catalog")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	catalog := h.service.Catalog()
	response.Success(w, http.StatusOK, CatalogResponse{
		Modules: catalog.Modules(),
		Biomes:  catalog.Biomes(),
	})
}

func (h *ColonyHandler) CreateColony(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "create_colony")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	id, snap, err := h.service.Create(ctx)
	if err != nil {
		response.Error(w, r, logger, translate("failed to create colony", err))
		return
	}

	signed, err := h.issuer.Generate(id)
	if err != nil {
		response.Error(w, r, logger, errors.WrapInternal("failed to issue colony token", err))
		return
	}
	cookies.SetColonyCookie(w, h.cfg, signed)

	logger.Info("Colony created", "colony_id", id)
	response.Success(w, http.StatusCreated, CreateColonyResponse{ID: id, Token: signed, Snapshot: snap})
}

func (h *ColonyHandler) GetColony(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_colony", "colony_id", r.PathValue("id"))

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	snap, err := h.service.Snapshot(ctx, r.PathValue("id"), false)
	if err != nil {
		response.Error(w, r, logger, translate("failed to load colony", err))
		return
	}

	response.Success(w, http.StatusOK, snap)
}

func (h *ColonyHandler) Build(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "build_module", "colony_id", r.PathValue("id"))

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req BuildRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid JSON in request body", err))
		return
	}
	if req.Module == "" {
		response.Error(w, r, logger, errors.Validation("module is required"))
		return
	}
	if req.Row == nil || req.Col == nil {
		response.Error(w, r, logger, errors.Validation("row and col are required"))
		return
	}

	cell := colony.Cell{Row: *req.Row, Col: *req.Col}
	placement, snap, err := h.service.Build(ctx, r.PathValue("id"), req.Module, cell)
	if err != nil {
		response.Error(w, r, logger, translate("build rejected", err))
		return
	}

	response.Success(w, http.StatusCreated, BuildResponse{Placement: placement, Snapshot: snap})
}

func (h *ColonyHandler) Explore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "explore", "colony_id", r.PathValue("id"))

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req ExploreRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid JSON in request body", err))
		return
	}
	if req.Biome == "" {
		req.Biome = string(colony.Shallow)
	}

	exp, snap, err := h.service.Explore(ctx, r.PathValue("id"), colony.ParseBiome(req.Biome))
	if err != nil {
		response.Error(w, r, logger, translate("exploration rejected", err))
		return
	}

	response.Success(w, http.StatusOK, ExploreResponse{Expedition: exp, Snapshot: snap})
}

func (h *ColonyHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_colony_log", "colony_id", r.PathValue("id"))

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	events, err := h.service.Log(ctx, r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, translate("failed to load colony log", err))
		return
	}
	if events == nil {
		events = []colony.Event{}
	}

	response.Success(w, http.StatusOK, events)
}

func (h *ColonyHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "abandon_colony", "colony_id", r.PathValue("id"))

	if r.Method != http.MethodDelete {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	snap, err := h.service.Abandon(ctx, r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, translate("failed to abandon colony", err))
		return
	}
	cookies.ClearColonyCookie(w, h.cfg)

	response.Success(w, http.StatusOK, snap)
}
