package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/core/port"
	"github.com/berfenger/frameo2mqtt/internal/mqtt"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/lo"
)

type deviceView struct {
	Id             string       `json:"id"`
	Name           string       `json:"name"`
	ConnectionType string       `json:"connection_type"`
	Target         string       `json:"target"`
	Status         string       `json:"status"`
	State          *deviceState `json:"state,omitempty"`
}

type deviceState struct {
	On         bool   `json:"on"`
	Brightness uint8  `json:"brightness"`
	Resolution string `json:"resolution"`
	IPAddress  string `json:"ip_address,omitempty"`
}

type commandBody struct {
	Command string `json:"command"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)

	api := e.Group("/api")
	api.GET("/devices", s.ListDevicesHandler)
	api.GET("/devices/:id", s.GetDeviceHandler)
	api.POST("/devices/:id/refresh", s.RefreshHandler)
	api.POST("/devices/:id/light", s.LightHandler)
	api.POST("/devices/:id/buttons/:key", s.ButtonHandler)
	api.POST("/devices/:id/command", s.CommandHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) ListDevicesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, lo.Map(s.registry.All(), func(dc port.DeviceController, _ int) deviceView {
		return newDeviceView(dc.Device(), dc.Status(), dc.Snapshot())
	}))
}

func (s *Server) GetDeviceHandler(c echo.Context) error {
	dc, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newDeviceView(dc.Device(), dc.Status(), dc.Snapshot()))
}

func (s *Server) RefreshHandler(c echo.Context) error {
	return s.frameCommand(c, domain.RefreshRequest{
		FrameCommandRequestMixIn: domain.ForDevice(c.Param("id")),
	})
}

// LightHandler takes the same JSON payload as the light command topic.
func (s *Server) LightHandler(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	on, brightness, err := mqtt.ParseLightPayload(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return s.frameCommand(c, domain.LightCommandRequest{
		FrameCommandRequestMixIn: domain.ForDevice(c.Param("id")),
		On:                       on,
		Brightness:               brightness,
	})
}

func (s *Server) ButtonHandler(c echo.Context) error {
	key := c.Param("key")
	if _, ok := domain.FindButton(key); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown button: "+key)
	}
	return s.frameCommand(c, domain.ButtonPressRequest{
		FrameCommandRequestMixIn: domain.ForDevice(c.Param("id")),
		Key:                      key,
	})
}

func (s *Server) CommandHandler(c echo.Context) error {
	var body commandBody
	if err := c.Bind(&body); err != nil {
		return err
	}
	if body.Command == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "command is required")
	}
	res, err := s.request(domain.ExecuteCommandRequest{
		FrameCommandRequestMixIn: domain.ForDevice(c.Param("id")),
		RequestId:                uuid.NewString(),
		Command:                  body.Command,
	})
	if err != nil {
		return err
	}
	resp, ok := res.(domain.ExecuteCommandResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	if errors.Is(resp.GetResponseError(), domain.ErrUnknownDevice) {
		return httpError(resp.GetResponseError())
	}
	return c.JSON(http.StatusOK, mqtt.ADBResponsePayload{
		RequestId: resp.RequestId,
		Command:   resp.Command,
		Result:    resp.Result,
		Success:   !resp.HasResponseError(),
	})
}

// frameCommand sends req through the master actor and answers with the
// device view built from the response snapshot.
func (s *Server) frameCommand(c echo.Context, req domain.FrameCommandRequest) error {
	res, err := s.request(req)
	if err != nil {
		return err
	}
	if res.HasResponseError() {
		return httpError(res.GetResponseError())
	}
	dc, err := s.registry.Get(req.DeviceId())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newDeviceView(dc.Device(), res.DeviceStatus(), res.DeviceState()))
}

func (s *Server) request(req domain.FrameCommandRequest) (domain.FrameCommandResponse, error) {
	res, err := s.rootContext.RequestFuture(s.masterActor, req, s.requestTimeout).Result()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	}
	resp, ok := res.(domain.FrameCommandResponse)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	return resp, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnknownDevice):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnknownButton):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDeviceNotConnected), frameo.IsDeviceDisconnected(err):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case domain.IsUpdateFailed(err):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func newDeviceView(device domain.FrameDevice, status domain.ConnectionStatus, state *domain.DeviceState) deviceView {
	view := deviceView{
		Id:             device.Id,
		Name:           device.Name,
		ConnectionType: string(device.Connection.Kind),
		Target:         device.Connection.Target(),
		Status:         status.String(),
	}
	if state != nil {
		view.State = &deviceState{
			On:         state.IsOn,
			Brightness: state.Brightness,
			Resolution: state.Resolution().String(),
			IPAddress:  state.IPAddress,
		}
	}
	return view
}
