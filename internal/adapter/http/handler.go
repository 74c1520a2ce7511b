package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cargoclash/internal/adapter/fanout"
	"cargoclash/internal/app/combat"
	"cargoclash/internal/app/market"
	"cargoclash/internal/app/mission"
	"cargoclash/internal/app/ports"
	"cargoclash/internal/app/travel"
	"cargoclash/internal/domain/game"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const playerIDHeader = "X-Player-ID"

var ErrMissingPlayerHeader = fmt.Errorf("%w: missing %s header", ports.ErrUnauthorized, playerIDHeader)

type Handler struct {
	TravelUC      travel.UseCase
	MaintenanceUC travel.MaintenanceUseCase
	MissionUC     mission.UseCase
	MarketUC      market.UseCase
	CombatUC      combat.UseCase

	Tx       ports.TxManager
	Players  ports.PlayerRepository
	Vehicles ports.VehicleRepository

	Hub *fanout.Hub

	// CommandTimeout bounds every mutating request; an expired budget maps
	// to 504 rather than holding locks.
	CommandTimeout time.Duration
	Now            func() time.Time
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())

	api := s.Group("/api/v1")
	api.GET("/me", h.me)

	api.POST("/vehicles/:id/travel", h.startTravel)
	api.POST("/vehicles/:id/refuel", h.refuel)
	api.POST("/vehicles/:id/repair", h.repair)

	api.GET("/missions", h.missionBoard)
	api.GET("/missions/mine", h.myMissions)
	api.POST("/missions/:id/accept", h.acceptMission)
	api.POST("/missions/:id/start", h.startMission)
	api.POST("/missions/:id/abandon", h.abandonMission)

	api.GET("/market/arbitrage", h.arbitrage)
	api.GET("/market/:location", h.marketPrices)
	api.GET("/market/:location/:cargo/history", h.priceHistory)
	api.POST("/market/trade", h.trade)

	api.POST("/combat/attack", h.attack)
	api.POST("/combat/pirates", h.pirateEncounter)
	api.GET("/combat/history", h.combatHistory)

	api.GET("/events/pending", h.pendingEvents)
	api.POST("/events/ack", h.ackEvents)
}

func (h Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h Handler) command(c context.Context) (context.Context, context.CancelFunc) {
	if h.CommandTimeout <= 0 {
		return c, func() {}
	}
	return context.WithTimeout(c, h.CommandTimeout)
}

func requirePlayer(ctx *app.RequestContext) (string, error) {
	id := string(ctx.GetHeader(playerIDHeader))
	if id == "" {
		return "", ErrMissingPlayerHeader
	}
	return id, nil
}

type profileResponse struct {
	Player   game.Player    `json:"player"`
	Vehicles []game.Vehicle `json:"vehicles"`
}

func (h Handler) me(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var resp profileResponse
	err = h.Tx.RunInTx(c, func(txCtx context.Context) error {
		p, err := h.Players.GetByID(txCtx, playerID)
		if err != nil {
			return err
		}
		vs, err := h.Vehicles.ListByOwner(txCtx, playerID)
		if err != nil {
			return err
		}
		resp = profileResponse{Player: p, Vehicles: vs}
		return nil
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

type travelRequest struct {
	Destination string `json:"destination"`
}

func (h Handler) startTravel(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var body travelRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	cmdCtx, cancel := h.command(c)
	defer cancel()
	res, err := h.TravelUC.StartTravel(cmdCtx, playerID, ctx.Param("id"), game.LocationID(body.Destination), h.now())
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, res)
}

func (h Handler) refuel(c context.Context, ctx *app.RequestContext) {
	h.service(c, ctx, h.MaintenanceUC.Refuel)
}

func (h Handler) repair(c context.Context, ctx *app.RequestContext) {
	h.service(c, ctx, h.MaintenanceUC.Repair)
}

func (h Handler) service(c context.Context, ctx *app.RequestContext, op func(context.Context, string, string, time.Time) (travel.ServiceResult, error)) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	cmdCtx, cancel := h.command(c)
	defer cancel()
	res, err := op(cmdCtx, playerID, ctx.Param("id"), h.now())
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, res)
}

func (h Handler) missionBoard(c context.Context, ctx *app.RequestContext) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	missions, err := h.MissionUC.Available(c, limit)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"missions": missions})
}

func (h Handler) myMissions(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	missions, err := h.MissionUC.ForPlayer(c, playerID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"missions": missions})
}

type acceptMissionRequest struct {
	VehicleID string `json:"vehicle_id"`
}

func (h Handler) acceptMission(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var body acceptMissionRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	cmdCtx, cancel := h.command(c)
	defer cancel()
	m, err := h.MissionUC.Accept(cmdCtx, playerID, ctx.Param("id"), body.VehicleID, h.now())
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, m)
}

func (h Handler) startMission(c context.Context, ctx *app.RequestContext) {
	h.missionTransition(c, ctx, h.MissionUC.Start)
}

func (h Handler) abandonMission(c context.Context, ctx *app.RequestContext) {
	h.missionTransition(c, ctx, h.MissionUC.Abandon)
}

func (h Handler) missionTransition(c context.Context, ctx *app.RequestContext, op func(context.Context, string, string, time.Time) (game.Mission, error)) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	cmdCtx, cancel := h.command(c)
	defer cancel()
	m, err := op(cmdCtx, playerID, ctx.Param("id"), h.now())
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, m)
}

func (h Handler) marketPrices(c context.Context, ctx *app.RequestContext) {
	quotes, err := h.MarketUC.Prices(c, game.LocationID(ctx.Param("location")))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"prices": quotes})
}

func (h Handler) priceHistory(c context.Context, ctx *app.RequestContext) {
	history, err := h.MarketUC.History(c, game.LocationID(ctx.Param("location")), game.CargoType(ctx.Param("cargo")))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"history": history})
}

type tradeRequest struct {
	VehicleID string `json:"vehicle_id"`
	Cargo     string `json:"cargo"`
	Direction string `json:"direction"`
	Quantity  int    `json:"quantity"`
}

func (h Handler) trade(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var body tradeRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	cmdCtx, cancel := h.command(c)
	defer cancel()
	res, err := h.MarketUC.Trade(cmdCtx, playerID, body.VehicleID, game.CargoType(body.Cargo), game.TradeDirection(body.Direction), body.Quantity, h.now())
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, res)
}

func (h Handler) arbitrage(c context.Context, ctx *app.RequestContext) {
	minMargin, _ := strconv.Atoi(ctx.Query("min_margin"))
	routes, err := h.MarketUC.Arbitrage(c, game.CargoType(ctx.Query("cargo")), minMargin)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"routes": routes})
}

type attackRequest struct {
	VehicleID       string `json:"vehicle_id"`
	TargetVehicleID string `json:"target_vehicle_id,omitempty"`
	Action          string `json:"action"`
}

func (h Handler) attack(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var body attackRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	cmdCtx, cancel := h.command(c)
	defer cancel()
	rec, err := h.CombatUC.Attack(cmdCtx, playerID, body.VehicleID, body.TargetVehicleID, game.CombatAction(body.Action), h.now())
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, rec)
}

func (h Handler) pirateEncounter(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var body attackRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	cmdCtx, cancel := h.command(c)
	defer cancel()
	rec, err := h.CombatUC.PirateEncounter(cmdCtx, playerID, body.VehicleID, game.CombatAction(body.Action), h.now())
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, rec)
}

func (h Handler) combatHistory(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	records, err := h.CombatUC.History(c, playerID, limit)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"records": records})
}

func (h Handler) pendingEvents(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	afterSeq, _ := strconv.ParseUint(ctx.Query("after_seq"), 10, 64)
	pending := h.Hub.Pending(playerID, afterSeq)
	if pending == nil {
		pending = []fanout.JournalEntry{}
	}
	ctx.JSON(consts.StatusOK, map[string]any{"events": pending})
}

type ackRequest struct {
	Seq uint64 `json:"seq"`
}

func (h Handler) ackEvents(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var body ackRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.Hub.Ack(playerID, body.Seq)
	ctx.JSON(consts.StatusOK, map[string]any{"acked": body.Seq})
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, ErrMissingPlayerHeader):
		writeErrorBody(ctx, consts.StatusUnauthorized, "missing_player_id", err.Error())
	case errors.Is(err, ports.ErrUnauthorized):
		writeErrorBody(ctx, consts.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrInsufficientResource):
		writeErrorBody(ctx, consts.StatusConflict, "insufficient_resource", err.Error())
	case errors.Is(err, ports.ErrStaleVersion):
		writeErrorBody(ctx, consts.StatusConflict, "version_conflict", err.Error())
	case errors.Is(err, ports.ErrInvalidState):
		writeErrorBody(ctx, consts.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, ports.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		writeErrorBody(ctx, consts.StatusGatewayTimeout, "timeout", "command timed out")
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
