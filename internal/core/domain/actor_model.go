package domain

import "fmt"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_FRAME        = "frame"
	ACTOR_ID_STATE        = "state"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
	ACTOR_ID_SCHEDULE     = "schedule"
)

func FrameActorId(deviceId string) string {
	return fmt.Sprintf("%s_%s", ACTOR_ID_FRAME, deviceId)
}

func StateActorId(deviceId string) string {
	return fmt.Sprintf("%s_%s", ACTOR_ID_STATE, deviceId)
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
	Lights  []GenericLight
	Buttons []GenericButton
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
