package events

import (
	. "github.com/berfenger/frameo2mqtt/internal/core/domain"
)

// DeviceStateToUpdateEvents maps a fresh snapshot to the events published
// for a frame: light state, diagnostics and availability.
func DeviceStateToUpdateEvents(frameId string, state *DeviceState, trackIPAddress bool) []any {
	var events []any

	// Screen light
	events = append(events, LightStateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id:    LIGHT_ID_SCREEN,
			Frame: frameId,
		},
		On:         state.IsOn,
		Brightness: state.Brightness,
	})
	// Screen resolution
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id:    SENSOR_ID_RESOLUTION,
			Frame: frameId,
		},
		Value: state.Resolution().String(),
	})
	if trackIPAddress {
		events = append(events, TextSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id:    SENSOR_ID_IP_ADDRESS,
				Frame: frameId,
			},
			Value: state.IPAddress,
		})
	}
	events = append(events, ConnectionStatusUpdateEvents(frameId, Connected)...)

	return events
}

// ConnectionStatusUpdateEvents drives the connectivity sensor and the
// availability of every entity of the frame.
func ConnectionStatusUpdateEvents(frameId string, status ConnectionStatus) []any {
	var events []any
	connected := status == Connected

	events = append(events, BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id:    SENSOR_ID_CONNECTIVITY,
			Frame: frameId,
		},
		Value: connected,
	})
	events = append(events, AvailabilityUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Frame: frameId,
		},
		Available: connected,
	})

	return events
}

func CommandResultToUpdateEvent(frameId string, resp ExecuteCommandResponse) any {
	return CommandResultEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Frame: frameId,
		},
		RequestId: resp.RequestId,
		Command:   resp.Command,
		Result:    resp.Result,
		Success:   !resp.HasResponseError(),
	}
}

func BridgeOnlineEvent(online bool) any {
	return BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BRIDGE_STATE,
		},
		Value: online,
	}
}
