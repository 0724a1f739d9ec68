package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/pkg/errors"
	"github.com/placenet-simulator/internal/pkg/utils"
	"github.com/placenet-simulator/internal/usecase/dto"
)

// SimulationService - операции над прогонами, нужные хендлеру
type SimulationService interface {
	Run(ctx context.Context, req dto.RunSimulationRequest) (*domain.SimulationResult, error)
	GetSummary(ctx context.Context, id uuid.UUID) (*dto.SimulationResponse, error)
	GetSeries(ctx context.Context, id uuid.UUID) (*dto.SeriesResponse, error)
	GetInfectedPlaces(ctx context.Context, id uuid.UUID) (*dto.InfectedPlacesResponse, error)
	List(ctx context.Context, req dto.ListSimulationsRequest) ([]dto.SimulationResponse, error)
	Running() bool
}

// SimulationHandler обрабатывает запросы запуска и чтения прогонов
type SimulationHandler struct {
	simulationUC SimulationService
	logger       *zap.Logger
}

// NewSimulationHandler создает новый экземпляр SimulationHandler
func NewSimulationHandler(simulationUC SimulationService, logger *zap.Logger) *SimulationHandler {
	return &SimulationHandler{
		simulationUC: simulationUC,
		logger:       logger,
	}
}

// RunSimulation godoc
// @Summary Run simulation
// @Description Синхронно выполняет прогон. Незаданные параметры берутся из конфигурации сервиса.
// @Tags Simulations
// @Accept json
// @Produce json
// @Param request body dto.RunSimulationRequest false "Параметры прогона"
// @Success 201 {object} utils.SuccessResponse{data=dto.SimulationResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/simulations [post]
func (h *SimulationHandler) RunSimulation(c *fiber.Ctx) error {
	var req dto.RunSimulationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			h.logger.Debug("Failed to parse run request", zap.Error(err))
			return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
				"body": err.Error(),
			}))
		}
	}

	result, err := h.simulationUC.Run(c.UserContext(), req)
	if err != nil {
		h.logger.Error("Simulation failed", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, dto.NewSimulationResponse(result), nil)
}

// ListSimulations godoc
// @Summary List simulations
// @Description Последние прогоны, новые первыми
// @Tags Simulations
// @Produce json
// @Param limit query int false "Количество записей (1-100)" default(20)
// @Success 200 {object} utils.SuccessResponse{data=[]dto.SimulationResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/simulations [get]
func (h *SimulationHandler) ListSimulations(c *fiber.Ctx) error {
	var req dto.ListSimulationsRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"limit": err.Error(),
		}))
	}

	runs, err := h.simulationUC.List(c.UserContext(), req)
	if err != nil {
		h.logger.Error("Failed to list simulations", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, runs, &utils.Meta{Total: len(runs), Limit: req.Limit})
}

// GetSimulation godoc
// @Summary Get simulation summary
// @Tags Simulations
// @Produce json
// @Param id path string true "ID прогона (uuid)"
// @Success 200 {object} utils.SuccessResponse{data=dto.SimulationResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/simulations/{id} [get]
func (h *SimulationHandler) GetSimulation(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	summary, err := h.simulationUC.GetSummary(c.UserContext(), id)
	if err != nil {
		return h.readFailed(c, id, err)
	}

	return utils.SendSuccess(c, summary, nil)
}

// GetSeries godoc
// @Summary Get infection series
// @Description Доля заражённых по записанным эпохам и агрегаты всех эпох
// @Tags Simulations
// @Produce json
// @Param id path string true "ID прогона (uuid)"
// @Success 200 {object} utils.SuccessResponse{data=dto.SeriesResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/simulations/{id}/series [get]
func (h *SimulationHandler) GetSeries(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	series, err := h.simulationUC.GetSeries(c.UserContext(), id)
	if err != nil {
		return h.readFailed(c, id, err)
	}

	return utils.SendSuccess(c, series, &utils.Meta{Total: len(series.Series)})
}

// GetInfectedPlaces godoc
// @Summary Get infected places
// @Description Места с заражёнными на конец прогона
// @Tags Simulations
// @Produce json
// @Param id path string true "ID прогона (uuid)"
// @Success 200 {object} utils.SuccessResponse{data=dto.InfectedPlacesResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/simulations/{id}/infected-places [get]
func (h *SimulationHandler) GetInfectedPlaces(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	places, err := h.simulationUC.GetInfectedPlaces(c.UserContext(), id)
	if err != nil {
		return h.readFailed(c, id, err)
	}

	return utils.SendSuccess(c, places, &utils.Meta{Total: places.Total})
}

// Status godoc
// @Summary Simulation status
// @Description Выполняется ли сейчас прогон
// @Tags Simulations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/simulations/status [get]
func (h *SimulationHandler) Status(c *fiber.Ctx) error {
	return utils.SendSuccess(c, fiber.Map{"running": h.simulationUC.Running()}, nil)
}

func (h *SimulationHandler) readFailed(c *fiber.Ctx, id uuid.UUID, err error) error {
	appErr := errors.FromDomain(err)
	if appErr.StatusCode >= fiber.StatusInternalServerError {
		h.logger.Error("Failed to read simulation", zap.String("id", id.String()), zap.Error(err))
	}
	return utils.SendError(c, appErr)
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"id": "must be a valid uuid",
		})
	}
	return id, nil
}
