package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	adactor "github.com/berfenger/frameo2mqtt/internal/adapter/actor"
	coreactor "github.com/berfenger/frameo2mqtt/internal/core/actor"
	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/core/port"
	"github.com/berfenger/frameo2mqtt/internal/core/service"
	"github.com/berfenger/frameo2mqtt/internal/mqtt"
	"github.com/berfenger/frameo2mqtt/internal/util"
	"github.com/berfenger/frameo2mqtt/internal/util/actorutil"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (http.Handler, *frameo.TestTransport, func()) {
	cfg := util.LoadTestConfig()
	cfg.MQTT.HADiscoveryEnable = false
	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	tr := frameo.CreateTestTransport()
	registry, err := service.NewRegistry(service.NewTestFrameController("living", tr, logger))
	require.NoError(t, err)

	props := actor.PropsFromProducer(func() actor.Actor {
		return coreactor.NewMasterOfPuppetsActor(cfg, registry, func(c port.DeviceController) *adactor.FrameActor {
			return adactor.NewFrameActor(c, 5*time.Second, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := as.Root.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)

	s := &Server{
		rootContext:    as.Root,
		masterActor:    pid,
		registry:       registry,
		requestTimeout: 10 * time.Second,
	}
	return s.RegisterRoutes(), tr, as.Shutdown
}

func doRequest(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {

	handler, _, shutdown := newTestServer(t)
	defer shutdown()

	time.Sleep(1 * time.Second)

	rec := doRequest(handler, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "health_check: OK", rec.Body.String())
}

func TestDeviceRoutes(t *testing.T) {

	require := require.New(t)

	handler, tr, shutdown := newTestServer(t)
	defer shutdown()

	rec := doRequest(handler, http.MethodPost, "/api/devices/living/light", `{"state":"ON","brightness":40}`)
	require.Equal(http.StatusOK, rec.Code, rec.Body.String())
	var view deviceView
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal("living", view.Id)
	require.Equal("connected", view.Status)
	require.NotNil(view.State)
	require.True(view.State.On)
	require.Equal(uint8(40), view.State.Brightness)

	rec = doRequest(handler, http.MethodGet, "/api/devices", "")
	require.Equal(http.StatusOK, rec.Code)
	var views []deviceView
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(views, 1)
	require.Equal("192.168.1.50:5555", views[0].Target)

	rec = doRequest(handler, http.MethodPost, "/api/devices/living/buttons/"+domain.BUTTON_OPEN_SETTINGS, "")
	require.Equal(http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(tr.Commands(), frameo.CMD_OPEN_SETTINGS)

	tr.ShellResults = []frameo.TestShellResult{{Output: "11"}}
	rec = doRequest(handler, http.MethodPost, "/api/devices/living/command", `{"command":"getprop ro.build.version.release"}`)
	require.Equal(http.StatusOK, rec.Code, rec.Body.String())
	var result mqtt.ADBResponsePayload
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	require.True(result.Success)
	require.Equal("11", result.Result)
	require.NotEmpty(result.RequestId)
}

func TestDeviceRouteErrors(t *testing.T) {

	handler, _, shutdown := newTestServer(t)
	defer shutdown()

	assert.Equal(t, http.StatusNotFound, doRequest(handler, http.MethodGet, "/api/devices/kitchen", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(handler, http.MethodPost, "/api/devices/kitchen/refresh", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(handler, http.MethodPost, "/api/devices/living/buttons/self_destruct", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(handler, http.MethodPost, "/api/devices/living/light", `{"state":"DIM"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(handler, http.MethodPost, "/api/devices/living/command", `{"command":""}`).Code)
}
